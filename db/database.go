package db

import (
	"database/sql"
	"fmt"
	"log"

	"Shelfwave/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createProfilesTable(); err != nil {
		return err
	}
	if err := createMediaItemsTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createProfilesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}
	log.Println("Profiles table initialized successfully (or already exists).")
	return nil
}

func createMediaItemsTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS media_items (
		id INT AUTO_INCREMENT PRIMARY KEY,
		profile_id INT NOT NULL,
		kind VARCHAR(16) NOT NULL,
		title VARCHAR(255) NOT NULL,
		artist VARCHAR(255),
		album VARCHAR(255),
		file_path VARCHAR(767) NOT NULL,
		cover_art_path VARCHAR(767),
		duration_ms BIGINT NOT NULL DEFAULT 0,
		position_ms BIGINT NOT NULL DEFAULT 0,
		play_count BIGINT NOT NULL DEFAULT 0,
		missing TINYINT(1) NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		CONSTRAINT fk_profile_items FOREIGN KEY (profile_id) REFERENCES profiles(id) ON DELETE CASCADE,
		CONSTRAINT uq_profile_filepath UNIQUE (profile_id, file_path),
		INDEX idx_profile_kind (profile_id, kind)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create media_items table: %w", err)
	}
	log.Println("Media items table initialized successfully (or already exists).")
	return nil
}
