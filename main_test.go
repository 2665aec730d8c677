package main

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := migrateSchema(conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return conn
}

// wireTestServices points the package-level service globals at a fresh
// in-memory database so both service tests and handler tests can use them.
func wireTestServices(t *testing.T) *gorm.DB {
	t.Helper()
	testDB := setupTestDB(t)
	db = testDB

	store, err := NewSettingsStore(testDB)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}
	settingsStore = store
	auditLogger = NewAuditLogger(testDB)
	rateLimiter = NewRateLimiter()
	rateLimiter.RegisterBucket("login", 10, 5*time.Minute)
	rateLimiter.RegisterBucket("register", 5, time.Hour)
	rateLimiter.RegisterBucket("paste_create", 30, time.Minute)

	relatedService = NewRelatedPastes(testDB)
	authService = NewAuthService(testDB, settingsStore, rateLimiter, auditLogger)
	pasteService = NewPasteService(testDB, settingsStore, relatedService, auditLogger)
	socialService = NewSocialService(testDB, pasteService, auditLogger)
	discussionService = NewDiscussionService(testDB, pasteService)
	collectionService = NewCollectionService(testDB)
	templateService = NewTemplateService(testDB)
	followService = NewFollowService(testDB)
	messageService = NewMessageService(testDB)
	apikeyService = NewAPIKeyService(testDB)
	adminService = NewAdminService(testDB, settingsStore, auditLogger)

	config = defaultConfig()
	return testDB
}

// registerTestUser is a shorthand for tests that just need an account.
func registerTestUser(t *testing.T, username string) *User {
	t.Helper()
	user, err := authService.Register(username, "", "password123", "127.0.0.1")
	if err != nil {
		t.Fatalf("Failed to register %s: %v", username, err)
	}
	return user
}

// createTestPaste makes a public paste owned by the given user.
func createTestPaste(t *testing.T, userID *string, title, content string) *Paste {
	t.Helper()
	paste, err := pasteService.CreatePaste(CreatePasteParams{
		UserID:   userID,
		Title:    title,
		Content:  content,
		Language: "text",
		IsPublic: true,
	})
	if err != nil {
		t.Fatalf("Failed to create paste %q: %v", title, err)
	}
	return paste
}
