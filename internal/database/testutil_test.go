package database

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/agapovm/rodnya/internal/models"
)

// newTestDB поднимает изолированную in-memory базу со схемой проекта
func newTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	// Одно соединение, иначе каждый коннект пула получит свою :memory:
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return NewDatabase(db)
}

func newTestUser(t *testing.T, d *Database, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	}
	if err := d.SaveUser(user); err != nil {
		t.Fatalf("save user %s: %v", username, err)
	}
	return user
}

func newTestGroup(t *testing.T, d *Database, creator uuid.UUID, members ...uuid.UUID) *models.ChatGroup {
	t.Helper()

	group, err := d.CreateGroup(creator, "Семья", models.GroupTypeFamily, members)
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
	return group
}
