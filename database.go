package main

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var db *gorm.DB

func openDatabase(dbPath string, debug bool) (*gorm.DB, error) {
	gormConfig := &gorm.Config{}
	if !debug {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	} else {
		// In debug mode, only log warnings and errors, not "record not found" info messages
		gormConfig.Logger = logger.Default.LogMode(logger.Warn)
	}

	conn, err := gorm.Open(sqlite.Open(dbPath), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return conn, nil
}

// migrateSchema runs the one-time schema migration. It is invoked from the
// migrate subcommand and from serve startup, never per request.
func migrateSchema(conn *gorm.DB) error {
	err := conn.AutoMigrate(
		&User{}, &Paste{}, &PasteView{}, &PasteVersion{},
		&Comment{}, &CommentReply{}, &CommentReport{}, &PasteReport{},
		&Collection{}, &CollectionPaste{}, &PasteTemplate{},
		&DiscussionThread{}, &DiscussionPost{},
		&UserFollow{}, &PasteFork{}, &Favorite{}, &Message{},
		&SiteSettings{}, &Session{}, &APIKey{}, &Admin{}, &AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Singleton settings row, created once with model defaults.
	var count int64
	if err := conn.Model(&SiteSettings{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		if err := conn.Create(&SiteSettings{ID: 1}).Error; err != nil {
			return fmt.Errorf("failed to seed site settings: %w", err)
		}
	}
	return nil
}

func initDatabase(dbPath string, debug bool) error {
	conn, err := openDatabase(dbPath, debug)
	if err != nil {
		return err
	}
	if err := migrateSchema(conn); err != nil {
		return err
	}
	db = conn

	if debug {
		log.Println("Database initialized successfully")
	}
	return nil
}
