package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/docvault/backend/internal/middleware"
	"github.com/docvault/backend/internal/models"
	"github.com/docvault/backend/internal/storage"
	"github.com/docvault/backend/pkg/logger"
	"github.com/docvault/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	store storage.Store
}

var testSetupOnce sync.Once

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.Init()
		utils.ConfigureJWT("test-secret", 60)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	err = db.AutoMigrate(
		&models.User{},
		&models.Folder{},
		&models.File{},
	)
	if err != nil {
		t.Fatalf("failed automigrating models: %v", err)
	}

	store, err := storage.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed creating local store: %v", err)
	}

	authHandler := NewAuthHandler(db, store, false)
	filesHandler := NewFilesHandler(db, store)
	foldersHandler := NewFoldersHandler(db)
	authMiddleware := middleware.NewAuthMiddleware(db, false)

	app := fiber.New(fiber.Config{BodyLimit: 100 * 1024 * 1024})
	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(middleware.CORS())
	app.Use(middleware.RequestLogger())
	app.Use(middleware.SecurityLogger())

	app.Get("/healthcheck", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Post("/logout", authMiddleware.RequireAuth, authHandler.Logout)
	authRoutes.Get("/user", authMiddleware.RequireAuth, authHandler.Me)

	fileRoutes := api.Group("/files", authMiddleware.RequireAuth)
	fileRoutes.Get("/", filesHandler.List)
	fileRoutes.Post("/", filesHandler.Create)
	fileRoutes.Get("/:id", filesHandler.Get)
	fileRoutes.Put("/:id", filesHandler.Update)
	fileRoutes.Post("/:id/content", filesHandler.UploadContent)
	fileRoutes.Get("/:id/content", filesHandler.DownloadContent)

	folderRoutes := api.Group("/folders", authMiddleware.RequireAuth)
	folderRoutes.Post("/", foldersHandler.Create)
	folderRoutes.Get("/:id/contents", foldersHandler.ListChildren)

	return &testEnv{app: app, db: db, store: store}
}

// createTestUser seeds a user with their root folder directly in the
// database, the same shape registration produces.
func createTestUser(t *testing.T, db *gorm.DB, username, password string) (*models.User, string) {
	t.Helper()

	hash, err := utils.HashPassword(password)
	if err != nil {
		t.Fatalf("failed hashing password: %v", err)
	}

	rootFolderID := uuid.New()
	user := &models.User{
		Username:     username,
		EmailAddress: username + "@test.local",
		PasswordHash: hash,
		RootFolderID: rootFolderID,
		Active:       false,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed creating test user: %v", err)
	}

	rootFolder := &models.Folder{
		BaseModel:      models.BaseModel{ID: rootFolderID},
		OwnerID:        user.ID,
		ParentFolderID: rootFolderID,
		Title:          username,
		CreatedBy:      user.ID,
		UpdatedBy:      user.ID,
		Active:         true,
	}
	if err := db.Create(rootFolder).Error; err != nil {
		t.Fatalf("failed creating root folder: %v", err)
	}

	token, err := utils.GenerateToken(user.ID, user.Username)
	if err != nil {
		t.Fatalf("failed generating auth token: %v", err)
	}

	return user, token
}

func authCookie(token string) map[string]string {
	return map[string]string{"Cookie": middleware.TokenCookie + "=" + token}
}

func performRequest(t *testing.T, app *fiber.App, method, path string, body io.Reader, headers map[string]string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(method, path, body)
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, int((10 * time.Second).Milliseconds()))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, path, err)
	}

	return resp
}

func performJSONRequest(t *testing.T, app *fiber.App, method, path string, payload any, headers map[string]string) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
		body = bytes.NewReader(encoded)
	}

	requestHeaders := map[string]string{}
	for key, value := range headers {
		requestHeaders[key] = value
	}
	if payload != nil {
		requestHeaders["Content-Type"] = "application/json"
	}

	return performRequest(t, app, method, path, body, requestHeaders)
}

func performUpload(t *testing.T, app *fiber.App, path, filename, contentType string, content []byte, headers map[string]string) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partHeaders := make(map[string][]string)
	partHeaders["Content-Disposition"] = []string{`form-data; name="file"; filename="` + filename + `"`}
	if contentType != "" {
		partHeaders["Content-Type"] = []string{contentType}
	}

	part, err := writer.CreatePart(partHeaders)
	if err != nil {
		t.Fatalf("failed creating multipart field: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed writing multipart content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed closing multipart writer: %v", err)
	}

	requestHeaders := map[string]string{"Content-Type": writer.FormDataContentType()}
	for key, value := range headers {
		requestHeaders[key] = value
	}

	return performRequest(t, app, http.MethodPost, path, &buf, requestHeaders)
}

func decodeJSONMap(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed reading response body: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("failed decoding JSON response: %v body=%q", err, string(raw))
	}

	return payload
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

func assertEnvelopeError(t *testing.T, body map[string]any, expected string) {
	t.Helper()
	if success, _ := body["success"].(bool); success {
		t.Fatalf("expected success=false, got %+v", body)
	}
	if got, _ := body["error"].(string); got != expected {
		t.Fatalf("expected error %q, got %q", expected, got)
	}
}

func envelopeData(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	if success, _ := body["success"].(bool); !success {
		t.Fatalf("expected success=true, got %+v", body)
	}
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", body["data"])
	}
	return data
}
