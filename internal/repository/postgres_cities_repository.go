package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"PosterMap-Admin/internal/domain/model"
	"PosterMap-Admin/internal/domain/repository"
	"PosterMap-Admin/internal/infrastructure/database"
)

type PostgresCitiesRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresCitiesRepository(client *database.PostgreSQLClient) repository.CitiesRepository {
	return &PostgresCitiesRepository{
		client: client,
	}
}

func (r *PostgresCitiesRepository) GetAll(ctx context.Context) ([]model.City, error) {
	query := `SELECT id, prefecture, city FROM cities ORDER BY id`

	rows, err := r.client.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("市区町村データの取得失敗: %w", err)
	}
	defer rows.Close()

	var cities []model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.ID, &c.Prefecture, &c.City); err != nil {
			return nil, fmt.Errorf("市区町村データスキャンエラー: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("市区町村データの読み込み失敗: %w", err)
	}

	return cities, nil
}

func (r *PostgresCitiesRepository) FindByKey(ctx context.Context, key model.CityKey) (*model.City, error) {
	query := `SELECT id, prefecture, city FROM cities WHERE prefecture = $1 AND city = $2 ORDER BY id LIMIT 1`

	var c model.City
	err := r.client.DB.QueryRowContext(ctx, query, key.Prefecture, key.City).Scan(&c.ID, &c.Prefecture, &c.City)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", repository.ErrCityNotFound, key)
		}
		return nil, fmt.Errorf("市区町村 %s の取得失敗: %w", key, err)
	}

	return &c, nil
}

func (r *PostgresCitiesRepository) BulkCreate(ctx context.Context, cities []model.NewCity) (int, error) {
	if len(cities) == 0 {
		return 0, nil
	}

	tx, err := r.client.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("トランザクション開始失敗: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cities (prefecture, city) VALUES ($1, $2)`)
	if err != nil {
		return 0, fmt.Errorf("市区町村挿入文の準備失敗: %w", err)
	}
	defer stmt.Close()

	for _, c := range cities {
		if _, err := stmt.ExecContext(ctx, c.Prefecture, c.City); err != nil {
			return 0, fmt.Errorf("市区町村 %s/%s の作成失敗: %w", c.Prefecture, c.City, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("市区町村一括データのコミット失敗: %w", err)
	}

	return len(cities), nil
}
