package handlers

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/docvault/backend/internal/middleware"
	"github.com/docvault/backend/internal/models"
	"github.com/docvault/backend/internal/storage"
	"github.com/docvault/backend/pkg/logger"
	"github.com/docvault/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FilesHandler struct {
	DB      *gorm.DB
	Storage storage.Store
}

func NewFilesHandler(db *gorm.DB, store storage.Store) *FilesHandler {
	return &FilesHandler{DB: db, Storage: store}
}

// loadOwnedFile fetches a file by id for the current user. The dual
// (id, owner_id) filter is the tenant-isolation mechanism: a file id alone
// is never enough to reach a record, and a miss for either reason is the
// same not-found answer.
func (h *FilesHandler) loadOwnedFile(c *fiber.Ctx, ownerID uuid.UUID) (*models.File, error) {
	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return nil, utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var file models.File
	if err := h.DB.First(&file, "id = ? AND owner_id = ?", fileID, ownerID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.Error(c, fiber.StatusNotFound, "file not found")
		}
		return nil, utils.Error(c, fiber.StatusInternalServerError, "failed loading file")
	}
	return &file, nil
}

func (h *FilesHandler) ownsFolder(ownerID, folderID uuid.UUID) (bool, error) {
	var count int64
	err := h.DB.Model(&models.Folder{}).
		Where("id = ? AND owner_id = ?", folderID, ownerID).
		Count(&count).Error
	return count > 0, err
}

func (h *FilesHandler) List(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	query := h.DB.Where("owner_id = ?", currentUser.ID)

	if folderIDRaw := strings.TrimSpace(c.Query("folderId")); folderIDRaw != "" {
		folderID, err := parseUUID(folderIDRaw)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid folderId")
		}
		query = query.Where("folder_id = ?", folderID)
	}

	var files []models.File
	if err := query.Order("created_at ASC").Find(&files).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed listing files")
	}

	return utils.Success(c, fiber.StatusOK, files)
}

func (h *FilesHandler) Get(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	file, errResp := h.loadOwnedFile(c, currentUser.ID)
	if file == nil {
		return errResp
	}

	return utils.Success(c, fiber.StatusOK, file)
}

type createFileRequest struct {
	Title       string  `json:"title"`
	AccessLevel int     `json:"accessLevel"`
	FolderID    string  `json:"folderId"`
	Description *string `json:"description"`
}

// Create writes the metadata row only. Media type and original filename
// are unknown until content is uploaded.
func (h *FilesHandler) Create(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req createFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return utils.Error(c, fiber.StatusBadRequest, "title is required")
	}

	folderID, err := parseUUID(req.FolderID)
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid folderId")
	}

	owns, err := h.ownsFolder(currentUser.ID, folderID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed validating folder")
	}
	if !owns {
		return utils.Error(c, fiber.StatusNotFound, "folder not found")
	}

	file := models.File{
		OwnerID:     currentUser.ID,
		FolderID:    folderID,
		Title:       req.Title,
		AccessLevel: req.AccessLevel,
		Description: req.Description,
		CreatedBy:   currentUser.ID,
		UpdatedBy:   currentUser.ID,
		Active:      true,
	}

	if err := h.DB.Create(&file).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating file record")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_created", map[string]interface{}{
		"file_id":   file.ID.String(),
		"folder_id": folderID.String(),
		"title":     file.Title,
	})

	return utils.Success(c, fiber.StatusCreated, file)
}

type updateFileRequest struct {
	Title            *string `json:"title"`
	AccessLevel      *int    `json:"accessLevel"`
	FolderID         *string `json:"folderId"`
	MediaType        *string `json:"mediaType"`
	OriginalFilename *string `json:"originalFilename"`
	Description      *string `json:"description"`
	Active           *bool   `json:"active"`
}

func (h *FilesHandler) Update(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	fileID, err := parseUUID(c.Params("id"))
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid file id")
	}

	var req updateFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return utils.Error(c, fiber.StatusBadRequest, "title cannot be empty")
		}
		updates["title"] = title
	}
	if req.AccessLevel != nil {
		updates["access_level"] = *req.AccessLevel
	}
	if req.FolderID != nil {
		folderID, err := parseUUID(*req.FolderID)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "invalid folderId")
		}
		owns, err := h.ownsFolder(currentUser.ID, folderID)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed validating folder")
		}
		if !owns {
			return utils.Error(c, fiber.StatusNotFound, "folder not found")
		}
		updates["folder_id"] = folderID
	}
	if req.MediaType != nil {
		updates["media_type"] = *req.MediaType
	}
	if req.OriginalFilename != nil {
		updates["original_filename"] = *req.OriginalFilename
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}
	updates["updated_by"] = currentUser.ID

	// The owner filter makes a cross-tenant update impossible; zero rows
	// affected means the file is not this user's to touch.
	result := h.DB.Model(&models.File{}).
		Where("id = ? AND owner_id = ?", fileID, currentUser.ID).
		Updates(updates)
	if result.Error != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating file")
	}
	if result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusNotFound, "file not found")
	}

	var updated models.File
	if err := h.DB.First(&updated, "id = ?", fileID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching updated file")
	}

	return utils.Success(c, fiber.StatusOK, updated)
}

// UploadContent streams the multipart payload into the content store and
// patches media type and original filename onto the row afterwards. A
// write that fails or is cancelled mid-stream leaves the metadata
// untouched, so the row never claims content it does not have.
func (h *FilesHandler) UploadContent(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	file, errResp := h.loadOwnedFile(c, currentUser.ID)
	if file == nil {
		return errResp
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "file is required")
	}

	stream, err := fileHeader.Open()
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed opening uploaded file")
	}
	defer stream.Close()

	filename := filepath.Base(strings.TrimSpace(fileHeader.Filename))
	if filename == "" || filename == "." {
		return utils.Error(c, fiber.StatusBadRequest, "invalid filename")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	resolvedPath := storage.ResolvePath(currentUser.RootFolderID.String(), file.FolderID.String())

	written, err := h.Storage.WriteStream(c.Context(), resolvedPath, file.ID.String(), stream)
	if err != nil {
		logger.ErrorWithUser(currentUser.ID.String(), "file_upload_failed", err, map[string]interface{}{
			"file_id": file.ID.String(),
			"written": written,
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed storing file content")
	}

	result := h.DB.Model(&models.File{}).
		Where("id = ? AND owner_id = ?", file.ID, currentUser.ID).
		Updates(map[string]interface{}{
			"media_type":        contentType,
			"original_filename": filename,
			"updated_by":        currentUser.ID,
		})
	if result.Error != nil || result.RowsAffected == 0 {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating file metadata")
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_content_uploaded", map[string]interface{}{
		"file_id":    file.ID.String(),
		"size":       written,
		"media_type": contentType,
	})

	var updated models.File
	if err := h.DB.First(&updated, "id = ?", file.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching updated file")
	}

	return utils.Success(c, fiber.StatusOK, updated)
}

func (h *FilesHandler) DownloadContent(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	file, errResp := h.loadOwnedFile(c, currentUser.ID)
	if file == nil {
		return errResp
	}

	resolvedPath := storage.ResolvePath(currentUser.RootFolderID.String(), file.FolderID.String())

	obj, size, err := h.Storage.OpenRead(c.Context(), resolvedPath, file.ID.String())
	if err != nil {
		if err == storage.ErrObjectNotFound {
			return utils.Error(c, fiber.StatusNotFound, "file content not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "failed reading file content")
	}

	contentType := "application/octet-stream"
	if file.MediaType != nil && *file.MediaType != "" {
		contentType = *file.MediaType
	}
	downloadName := file.Title
	if file.OriginalFilename != nil && *file.OriginalFilename != "" {
		downloadName = *file.OriginalFilename
	}

	logger.InfoWithUser(currentUser.ID.String(), "file_content_downloaded", map[string]interface{}{
		"file_id": file.ID.String(),
		"size":    size,
	})

	c.Set("Content-Type", contentType)
	c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	return c.SendStream(obj, int(size))
}
