package middleware

import (
	"github.com/docvault/backend/internal/models"
	"github.com/docvault/backend/pkg/logger"
	"github.com/docvault/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

const (
	currentUserKey = "currentUser"

	// TokenCookie is the one canonical credential source checked by the
	// gate. There is no Authorization-header fallback.
	TokenCookie = "token"
)

type AuthMiddleware struct {
	DB            *gorm.DB
	RequireActive bool
}

func NewAuthMiddleware(db *gorm.DB, requireActive bool) *AuthMiddleware {
	return &AuthMiddleware{DB: db, RequireActive: requireActive}
}

func CORS() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     "http://localhost:8090,http://127.0.0.1:8090",
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowCredentials: true,
	})
}

// RequireAuth validates the session cookie and binds the authenticated
// user to the request. Every failure mode produces the same 401 response;
// only the log line says which step rejected the request.
func (a *AuthMiddleware) RequireAuth(c *fiber.Ctx) error {
	tokenString := c.Cookies(TokenCookie)
	if tokenString == "" {
		logger.Warn("session_missing_cookie", map[string]interface{}{
			"ip":   c.IP(),
			"path": c.Path(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	claims, err := utils.ValidateToken(tokenString)
	if err != nil {
		logger.Warn("session_token_rejected", map[string]interface{}{
			"ip":    c.IP(),
			"path":  c.Path(),
			"error": err.Error(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := a.DB.First(&user, "id = ?", claims.UserID).Error; err != nil {
		logger.Warn("session_user_not_found", map[string]interface{}{
			"ip":      c.IP(),
			"path":    c.Path(),
			"user_id": claims.UserID,
		})
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	if a.RequireActive && !user.Active {
		logger.Warn("session_user_inactive", map[string]interface{}{
			"ip":      c.IP(),
			"path":    c.Path(),
			"user_id": user.ID.String(),
		})
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	c.Locals(currentUserKey, &user)
	c.Locals("userID", user.ID.String())
	return c.Next()
}

func GetCurrentUser(c *fiber.Ctx) *models.User {
	value := c.Locals(currentUserKey)
	if value == nil {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
