package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"PosterMap-Admin/internal/domain/model"
	"PosterMap-Admin/internal/domain/repository"
	"PosterMap-Admin/internal/infrastructure/database"
)

var pinColumns = []string{"number", "address", "place_name", "lat", "long", "status", "note", "city_id"}

type PostgresPinsRepository struct {
	client *database.PostgreSQLClient
}

func NewPostgresPinsRepository(client *database.PostgreSQLClient) repository.PinsRepository {
	return &PostgresPinsRepository{
		client: client,
	}
}

func (r *PostgresPinsRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.client.DB.ExecContext(ctx, `DELETE FROM pins WHERE id > 0`); err != nil {
		return fmt.Errorf("既存ピンデータの削除失敗: %w", err)
	}
	return nil
}

func (r *PostgresPinsRepository) Create(ctx context.Context, pin *model.NewPin) (*model.Pin, error) {
	query := `INSERT INTO pins (number, address, place_name, lat, long, status, note, city_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, number, address, place_name, lat, long, status, note, city_id`

	var p model.Pin
	var status int
	err := r.client.DB.QueryRowContext(ctx, query,
		pin.Number, pin.Address, pin.PlaceName, pin.Lat, pin.Long, int(pin.Status), pin.Note, pin.CityID,
	).Scan(&p.ID, &p.Number, &p.Address, &p.PlaceName, &p.Lat, &p.Long, &status, &p.Note, &p.CityID)
	if err != nil {
		return nil, fmt.Errorf("ピンデータの作成失敗: %w", err)
	}

	if p.Status, err = model.ParsePinStatus(status); err != nil {
		return nil, err
	}

	return &p, nil
}

// BulkCreate COPY でチャンク単位に挿入する。チャンクごとに1トランザクション
func (r *PostgresPinsRepository) BulkCreate(ctx context.Context, pins []model.NewPin) (int, error) {
	if len(pins) == 0 {
		return 0, nil
	}

	tx, err := r.client.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("トランザクション開始失敗: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("pins", pinColumns...))
	if err != nil {
		return 0, fmt.Errorf("COPY文の準備失敗: %w", err)
	}

	for _, p := range pins {
		if _, err := stmt.ExecContext(ctx, p.Number, p.Address, p.PlaceName, p.Lat, p.Long, int(p.Status), p.Note, p.CityID); err != nil {
			stmt.Close()
			return 0, fmt.Errorf("ピン %s のCOPY失敗: %w", p.Number, err)
		}
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return 0, fmt.Errorf("COPYのフラッシュ失敗: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("COPY文のクローズ失敗: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ピン一括データのコミット失敗: %w", err)
	}

	return len(pins), nil
}
