package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"PosterMap-Admin/internal/application"
	"PosterMap-Admin/internal/config"
	"PosterMap-Admin/internal/domain/repository"
	"PosterMap-Admin/internal/infrastructure/database"
	supabaseRepo "PosterMap-Admin/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ テストピンの登録に失敗しました / Failed to seed test pins: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.EnvServiceRoleKey)
	if err != nil {
		if errors.Is(err, config.ErrMissingEnv) {
			fmt.Println("⚠️  環境変数が設定されていません / Required environment variables are missing:")
			fmt.Printf("  %s (または %s)\n", config.EnvSupabaseURL, config.EnvPublicSupabaseURL)
			fmt.Printf("  %s\n", config.EnvServiceRoleKey)
			fmt.Println("\n.env.local を作成するか、環境変数を設定してください")
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("🔑 使用する鍵 / Key in use: %s\n", cfg.KeyLabel())

	fmt.Println("Initializing Supabase client...")
	client, err := database.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		return err
	}
	if err := client.HealthCheck(); err != nil {
		return err
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)
	svc := application.NewSeedService(
		supabaseRepo.NewSupabaseCitiesRepository(client),
		supabaseRepo.NewSupabasePinsRepository(client),
		logger,
	)

	pins, err := svc.SeedTestPins(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrCityNotFound) {
			fmt.Printf("⚠️  %s が cities テーブルにありません / City not found. 先に市区町村データを登録してください\n", application.SeedCityKey)
		}
		return err
	}

	fmt.Printf("✅ テストピン%d件を登録しました / Inserted %d test pins\n", len(pins), len(pins))
	return nil
}
