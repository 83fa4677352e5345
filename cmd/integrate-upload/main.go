package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	_ "gocloud.dev/blob/fileblob"

	"PosterMap-Admin/internal/application"
	"PosterMap-Admin/internal/config"
	domainRepo "PosterMap-Admin/internal/domain/repository"
	"PosterMap-Admin/internal/infrastructure/csvsource"
	"PosterMap-Admin/internal/infrastructure/database"
	"PosterMap-Admin/internal/infrastructure/drive"
	"PosterMap-Admin/internal/infrastructure/staging"
	"PosterMap-Admin/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ データの取り込みに失敗しました / Integration failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.EnvAnonKey)
	if err != nil {
		if errors.Is(err, config.ErrMissingEnv) {
			fmt.Println("エラー: .env.localからSupabaseの情報を読み込めませんでした。")
			fmt.Println("Error: Supabase settings could not be loaded. 必要な環境変数:")
			fmt.Printf("  %s (または %s)\n", config.EnvSupabaseURL, config.EnvPublicSupabaseURL)
			fmt.Printf("  %s (または %s)\n", config.EnvAnonKey, config.EnvPublicAnonKey)
		}
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("🔑 使用する鍵 / Key in use: %s\n", cfg.KeyLabel())

	logger := log.New(os.Stdout, "", log.LstdFlags)

	folderIDs, err := drive.ReadLinksFile(cfg.CSVLinksFile)
	if err != nil {
		return err
	}
	if len(folderIDs) == 0 {
		return fmt.Errorf("%s にフォルダリンクがありません", cfg.CSVLinksFile)
	}

	citiesRepo, pinsRepo, closeDB, err := openRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	if dir := cfg.LocalStagingDir(); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ダウンロード先 %s の作成失敗: %w", dir, err)
		}
	}
	bucket, err := staging.Open(ctx, cfg.StagingBucketURI)
	if err != nil {
		return err
	}
	defer bucket.Close()

	driveClient, err := drive.NewClient(ctx, cfg.GoogleAPIKey)
	if err != nil {
		return err
	}

	svc := application.NewIntegrateService(
		drive.NewDownloader(driveClient, bucket, logger),
		bucket,
		csvsource.NewLoader(logger),
		application.NewCitySyncService(citiesRepo, logger),
		application.NewPinSyncService(citiesRepo, pinsRepo, logger),
		logger,
	)

	res, err := svc.Run(ctx, folderIDs)
	if err != nil {
		return err
	}

	fmt.Printf("✅ 取り込み完了 / Done: CSV %d件, 市区町村 +%d件, 掲示場 %d件 (スキップ %d件)\n",
		res.Files, res.Cities.Inserted, res.Uploaded, res.Rejected)
	return nil
}

// openRepositories SUPABASE_DB_PASSWORD があればPostgreSQLへ直接、なければPostgREST経由で接続する
func openRepositories(ctx context.Context, cfg *config.Config) (domainRepo.CitiesRepository, domainRepo.PinsRepository, func(), error) {
	if cfg.UsesDirectPostgres() {
		fmt.Println("Connecting to PostgreSQL...")
		pg, err := database.NewPostgreSQLClient(cfg.SupabaseURL, cfg.DBPassword)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			if err := pg.Close(); err != nil {
				log.Printf("⚠️  PostgreSQL接続のクローズ失敗: %v", err)
			}
		}
		if err := pg.HealthCheck(ctx); err != nil {
			closeFn()
			return nil, nil, nil, fmt.Errorf("PostgreSQLヘルスチェック失敗: %w", err)
		}
		return repository.NewPostgresCitiesRepository(pg), repository.NewPostgresPinsRepository(pg), closeFn, nil
	}

	fmt.Println("Initializing Supabase client...")
	client, err := database.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := client.HealthCheck(); err != nil {
		return nil, nil, nil, err
	}
	return repository.NewSupabaseCitiesRepository(client), repository.NewSupabasePinsRepository(client), func() {}, nil
}
