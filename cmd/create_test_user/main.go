// Command create_test_user opens a new install in the configured store,
// optionally funds its user, and prints the session token.
package main

import (
	"context"
	"flag"
	"fmt"

	"olo_mining/internal/config"
	"olo_mining/internal/db"
	"olo_mining/internal/logger"
	"olo_mining/internal/repository"
	"olo_mining/internal/service"

	"github.com/shopspring/decimal"
)

func main() {
	balance := flag.String("balance", "", "set the new user's balance")
	initData := flag.String("init-data", "", "Telegram launch data for the new user")
	admin := flag.Bool("admin", false, "log the install into the admin console")
	flag.Parse()

	cfg := config.Load()
	ctx := context.Background()

	store, err := db.OpenStore(ctx, cfg)
	if err != nil {
		logger.Fatal("open store failed", "error", err)
	}
	defer store.Close()

	seed, err := repository.LoadSeedTasks(cfg.TasksSeedFile)
	if err != nil {
		logger.Fatal("load seed tasks failed", "error", err)
	}
	installs := repository.NewInstalls(store, seed)
	sessions := service.NewSessionService(installs, cfg.JWTSecret, cfg.SessionTTL, cfg.BotToken, cfg.DevMode)

	s, err := sessions.Create(ctx, *initData)
	if err != nil {
		logger.Fatal("create session failed", "error", err)
	}

	r := installs.Open(s.InstallID)
	if *balance != "" {
		amount, err := decimal.NewFromString(*balance)
		if err != nil {
			logger.Fatal("bad balance", "value", *balance, "error", err)
		}
		s.User.Balance = amount
		if err := r.SaveUser(ctx, s.User); err != nil {
			logger.Fatal("save user failed", "error", err)
		}
	}
	if *admin {
		if err := r.SetAdmin(ctx, true); err != nil {
			logger.Fatal("set admin failed", "error", err)
		}
	}

	logger.Info("install created", "install_id", s.InstallID, "user_id", s.User.ID, "balance", s.User.Balance.String())
	fmt.Printf("install_id=%s\ntoken=%s\n", s.InstallID, s.Token)
}
