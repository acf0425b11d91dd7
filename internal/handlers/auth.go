package handlers

import (
	"net/mail"
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

type AuthHandler struct {
	DB            *gorm.DB
	Storage       storage.Store
	RequireActive bool
}

func NewAuthHandler(db *gorm.DB, store storage.Store, requireActive bool) *AuthHandler {
	return &AuthHandler{DB: db, Storage: store, RequireActive: requireActive}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates the user row, the root folder record, and the storage
// namespace that anchors the user's files. The row is written first; if
// the namespace cannot be created afterwards the account stays inactive
// and the request fails, so a half-registered user never looks healthy.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Username == "" {
		return utils.Error(c, fiber.StatusBadRequest, "username is required")
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < 8 {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 8 characters")
	}

	var existing models.User
	if err := h.DB.First(&existing, "username = ?", req.Username).Error; err == nil {
		return utils.Error(c, fiber.StatusConflict, "username already taken")
	} else if err != gorm.ErrRecordNotFound {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing user")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	rootFolderID := uuid.New()
	user := models.User{
		Username:     req.Username,
		EmailAddress: req.Email,
		PasswordHash: passwordHash,
		RootFolderID: rootFolderID,
		Active:       false,
	}

	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		rootFolder := models.Folder{
			BaseModel:      models.BaseModel{ID: rootFolderID},
			OwnerID:        user.ID,
			ParentFolderID: rootFolderID,
			Title:          req.Username,
			CreatedBy:      user.ID,
			UpdatedBy:      user.ID,
			Active:         true,
		}
		return tx.Create(&rootFolder).Error
	})
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	if err := h.Storage.CreateNamespace(c.Context(), rootFolderID.String()); err != nil {
		logger.Error("register_namespace_failed", err, map[string]interface{}{
			"user_id":        user.ID.String(),
			"root_folder_id": rootFolderID.String(),
		})
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating storage namespace")
	}

	logger.Info("user_registered", map[string]interface{}{
		"user_id":        user.ID.String(),
		"username":       user.Username,
		"root_folder_id": rootFolderID.String(),
	})

	return utils.Success(c, fiber.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and sets the session cookie. Unknown user,
// wrong password and inactive account all produce the identical response;
// an unknown username still burns a hash verification so the two cases
// cannot be told apart by timing.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)

	if req.Username == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "username and password are required")
	}

	var user models.User
	if err := h.DB.First(&user, "username = ?", req.Username).Error; err != nil {
		utils.DummyCheckPassword(req.Password)
		logger.Warn("login_failed_user_not_found", map[string]interface{}{
			"username": req.Username,
			"ip":       c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	if !utils.CheckPassword(req.Password, user.PasswordHash) {
		logger.Warn("login_failed_invalid_password", map[string]interface{}{
			"user_id": user.ID.String(),
			"ip":      c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	if h.RequireActive && !user.Active {
		logger.Warn("login_failed_inactive_user", map[string]interface{}{
			"user_id": user.ID.String(),
			"ip":      c.IP(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.TokenTTL().Seconds()),
		HTTPOnly: true,
	})

	logger.Info("user_login", map[string]interface{}{
		"user_id": user.ID.String(),
		"ip":      c.IP(),
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "user": user})
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
	})

	return utils.Success(c, fiber.StatusOK, fiber.Map{"message": "logged out"})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, user)
}
