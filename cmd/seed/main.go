// Command seed creates the first superuser.  It is idempotent: an existing
// account with the configured username is left untouched.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/site-inspection-api/internal/config"
	"github.com/iliyamo/site-inspection-api/internal/database"
	"github.com/iliyamo/site-inspection-api/internal/model"
	"github.com/iliyamo/site-inspection-api/internal/repository"
	"github.com/iliyamo/site-inspection-api/internal/utils"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	su := config.LoadSuperuserConfig()
	logger := log.New("seed")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatalf("db open: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatalf("migrate: %v", err)
	}

	users := repository.NewUserRepo(db)
	if _, err := users.GetActiveByUsername(ctx, su.Username); err == nil {
		logger.Infof("superuser %q already exists", su.Username)
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		logger.Fatalf("lookup: %v", err)
	}

	hash, err := utils.HashPassword(su.Password, cfg.BcryptCost)
	if err != nil {
		logger.Fatalf("hash: %v", err)
	}
	u := &model.User{
		Name:           su.Name,
		Username:       su.Username,
		Email:          su.Email,
		HashedPassword: hash,
		IsSuperuser:    true,
	}
	if err := users.CreateUser(ctx, u); err != nil {
		logger.Fatalf("create superuser: %v", err)
	}
	logger.Infof("superuser %q created (id=%d)", u.Username, u.ID)
}
