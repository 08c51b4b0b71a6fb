package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/soyaya/boardling-sub002/internal/common"
	"github.com/soyaya/boardling-sub002/internal/config"
	"github.com/soyaya/boardling-sub002/internal/models"
	"github.com/soyaya/boardling-sub002/internal/store"

	"go.uber.org/zap"
)

// Setup initializes the database file and optionally registers a user with a
// tracked wallet, so a fresh deployment has something to settle against.
func main() {
	name := flag.String("name", "", "Name of the user to create")
	email := flag.String("email", "", "Email of the user to create")
	role := flag.String("role", "user", "Role of the user to create (user or admin)")
	packageId := flag.String("package", "", "Data package id for the user's wallet")
	address := flag.String("address", "", "Wallet address to track")
	mode := flag.String("mode", "private", "Privacy mode for the wallet (private, public, monetizable)")
	flag.Parse()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx := context.Background()

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	zap.L().Info("Database initialized", zap.String("path", cfg.Database.Path))

	if *name == "" || *email == "" {
		zap.L().Info("No --name/--email given, nothing else to do")
		return
	}

	user, err := services.DbService.CreateUser(ctx, *name, *email, *role)
	if err != nil {
		zap.L().Fatal("Failed to create user", zap.Error(err))
	}
	zap.L().Info("Created user",
		zap.String("id", user.Id),
		zap.String("email", user.Email),
		zap.String("role", user.Role))

	if *packageId != "" && *address != "" {
		wallet, err := services.DbService.CreateWallet(ctx, store.CreateWalletParams{
			OwnerId:       user.Id,
			DataPackageId: *packageId,
			Address:       *address,
			PrivacyMode:   models.PrivacyMode(*mode),
		})
		if err != nil {
			zap.L().Fatal("Failed to create wallet", zap.Error(err))
		}
		zap.L().Info("Created wallet",
			zap.String("id", wallet.Id),
			zap.String("data_package_id", wallet.DataPackageId),
			zap.String("privacy_mode", string(wallet.PrivacyMode)))
	}

	out, _ := json.MarshalIndent(user, "", "  ")
	fmt.Println(string(out))
}
