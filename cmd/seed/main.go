package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/mrudenko/user-management-api/config"
	"github.com/mrudenko/user-management-api/pkg/helpers"
)

// Bootstraps the initial admin account so the API has someone who can
// create everybody else. Safe to run repeatedly.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	hash, err := helpers.HashPassword(cfg.BootstrapPassword)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	var id string
	err = db.QueryRow(`
		INSERT INTO users (id, login, password_hash, name, gender, birthday, admin, created_on, created_by, modified_on, modified_by)
		VALUES ($1, $2, $3, $4, 'unknown', NULL, TRUE, $5, 'system', $5, 'system')
		ON CONFLICT (login) DO UPDATE SET
			password_hash = EXCLUDED.password_hash,
			admin         = TRUE,
			revoked_on    = NULL,
			revoked_by    = NULL,
			modified_on   = EXCLUDED.modified_on,
			modified_by   = 'system'
		RETURNING id
	`, uuid.New(), cfg.BootstrapLogin, hash, cfg.BootstrapName, now).Scan(&id)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s login=%s\n", id, cfg.BootstrapLogin)
}
