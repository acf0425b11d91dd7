package handlers

import (
	"strings"

	"github.com/docvault/backend/internal/middleware"
	"github.com/docvault/backend/internal/models"
	"github.com/docvault/backend/pkg/logger"
	"github.com/docvault/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type FoldersHandler struct {
	DB *gorm.DB
}

func NewFoldersHandler(db *gorm.DB) *FoldersHandler {
	return &FoldersHandler{DB: db}
}

// ListChildren returns the folders directly under the given folder id,
// scoped to the caller. An empty list is a normal answer, not an error.
func (h *FoldersHandler) ListChildren(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	parentID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folder id")
	}

	var folders []models.Folder
	err = h.DB.
		Where("owner_id = ? AND parent_folder_id = ?", currentUser.ID, parentID).
		Where("id <> parent_folder_id"). // root folders parent themselves
		Order("created_at ASC").
		Find(&folders).Error
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing folders")
	}

	return utils.Success(c, fiber.StatusOK, folders)
}

type createFolderRequest struct {
	Title          string  `json:"title"`
	ParentFolderID string  `json:"parentFolderId"`
	Description    *string `json:"description"`
}

func (h *FoldersHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createFolderRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return utils.Error(c, fiber.StatusBadRequest, "title is required")
	}

	parentID, err := parseUUID(req.ParentFolderID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid parentFolderId")
	}

	// The parent must be the caller's own folder; another tenant's folder
	// id answers exactly like a nonexistent one.
	var parent models.Folder
	if err := h.DB.First(&parent, "id = ? AND owner_id = ?", parentID, currentUser.ID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.Error(c, fiber.StatusNotFound, "parent folder not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating parent folder")
	}

	folder := models.Folder{
		OwnerID:        currentUser.ID,
		ParentFolderID: parent.ID,
		Title:          req.Title,
		Description:    req.Description,
		CreatedBy:      currentUser.ID,
		UpdatedBy:      currentUser.ID,
		Active:         true,
	}

	if err := h.DB.Create(&folder).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating folder")
	}

	logger.InfoWithUser(currentUser.ID.String(), "folder_created", map[string]interface{}{
		"folder_id": folder.ID.String(),
		"parent_id": parent.ID.String(),
		"title":     folder.Title,
	})

	return utils.Success(c, fiber.StatusCreated, folder)
}
