package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Event ids are compared with < for keyset pagination, so the column uses
// a binary collation to get plain byte order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
	  id BIGINT AUTO_INCREMENT PRIMARY KEY,
	  name VARCHAR(255) NOT NULL,
	  email VARCHAR(255) NOT NULL,
	  password_hash VARCHAR(255) NOT NULL,
	  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	  UNIQUE KEY uq_users_email (email)
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
	  user_id BIGINT NOT NULL PRIMARY KEY,
	  role ENUM('member','moderator','admin','user') NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS refresh_tokens (
	  id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	  user_id BIGINT NOT NULL,
	  token_hash CHAR(64) CHARACTER SET ascii NOT NULL,
	  expires_at DATETIME NOT NULL,
	  revoked_at DATETIME NULL,
	  created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	  UNIQUE KEY uq_refresh_hash (token_hash),
	  KEY idx_refresh_user (user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS events (
	  id VARCHAR(64) CHARACTER SET ascii COLLATE ascii_bin NOT NULL PRIMARY KEY,
	  title VARCHAR(255) NOT NULL,
	  type VARCHAR(100) NOT NULL,
	  starts_at DATETIME NOT NULL,
	  host VARCHAR(255) NOT NULL,
	  status ENUM('upcoming','past') NOT NULL,
	  capacity INT UNSIGNED DEFAULT NULL,
	  created_by BIGINT NOT NULL,
	  created_at DATETIME NOT NULL,
	  updated_at DATETIME NOT NULL,
	  KEY idx_events_listing (status, starts_at, id)
	)`,
	`CREATE TABLE IF NOT EXISTS event_rsvps (
	  id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	  event_id VARCHAR(64) CHARACTER SET ascii COLLATE ascii_bin NOT NULL,
	  user_id BIGINT NOT NULL,
	  status ENUM('going') NOT NULL,
	  created_at DATETIME NOT NULL,
	  UNIQUE KEY unique_rsvp (event_id, user_id),
	  KEY idx_rsvps_user (user_id, id),
	  CONSTRAINT fk_rsvps_event FOREIGN KEY (event_id) REFERENCES events (id) ON DELETE CASCADE
	)`,
}

// EnsureSchema creates the tables used by the service when they are
// missing.  It never alters existing tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	return nil
}
