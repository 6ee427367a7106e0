package main

import (
	"flag"
	"strings"

	"retail-backoffice/internal/config"
	"retail-backoffice/internal/model"
	"retail-backoffice/internal/repository"
	"retail-backoffice/pkg/database"
	"retail-backoffice/pkg/logger"

	"github.com/google/uuid"
)

// Resets a user's password straight in the database and ends their session.
//
//	go run ./cmd/reset-password -email admin@example.com -password admin123
func main() {
	email := flag.String("email", "admin@example.com", "user email")
	password := flag.String("password", "admin123", "new password")
	flag.Parse()

	cfg := config.Load()
	log := logger.Init(cfg.LogLevel)

	db, err := database.Connect(database.DSN(cfg.DatabaseURL), log)
	if err != nil {
		log.WithError(err).Fatal("database unavailable")
	}
	users := repository.NewUserRepo(db)

	user, err := users.FindByEmail(strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		log.WithError(err).Fatalf("user %s not found", *email)
	}

	var tmp model.User
	if err := tmp.SetPassword(*password); err != nil {
		log.WithError(err).Fatal("failed to hash password")
	}
	if err := users.UpdatePassword(user.ID, tmp.Password); err != nil {
		log.WithError(err).Fatal("failed to update password")
	}
	if err := users.UpdateSession(user.ID, uuid.NewString()); err != nil {
		log.WithError(err).Fatal("failed to end session")
	}

	log.WithField("email", user.Email).Info("password reset, existing session ended")
}
