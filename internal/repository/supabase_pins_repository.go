package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"PosterMap-Admin/internal/domain/model"
	"PosterMap-Admin/internal/domain/repository"
	"PosterMap-Admin/internal/infrastructure/database"
)

type SupabasePinsRepository struct {
	client *database.SupabaseClient
}

func NewSupabasePinsRepository(client *database.SupabaseClient) repository.PinsRepository {
	return &SupabasePinsRepository{
		client: client,
	}
}

// DeleteAll PostgRESTはフィルタなしのDELETEを拒否するため id > 0 を条件にする
func (r *SupabasePinsRepository) DeleteAll(ctx context.Context) error {
	_, _, err := r.client.GetClient().From("pins").Delete("minimal", "").Gt("id", "0").Execute()
	if err != nil {
		return fmt.Errorf("既存ピンデータの削除失敗: %w", err)
	}
	return nil
}

func (r *SupabasePinsRepository) Create(ctx context.Context, pin *model.NewPin) (*model.Pin, error) {
	data, _, err := r.client.GetClient().From("pins").
		Insert(pin, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("ピンデータの作成失敗: %w", err)
	}

	var pins []model.Pin
	if err := json.Unmarshal(data, &pins); err != nil {
		return nil, fmt.Errorf("ピンデータのJSONアンマーシャル失敗: %w", err)
	}
	if len(pins) == 0 {
		return nil, fmt.Errorf("作成したピンデータが返されませんでした")
	}

	return &pins[0], nil
}

func (r *SupabasePinsRepository) BulkCreate(ctx context.Context, pins []model.NewPin) (int, error) {
	if len(pins) == 0 {
		return 0, nil
	}

	data, _, err := r.client.GetClient().From("pins").
		Insert(pins, false, "", "representation", "").
		Execute()
	if err != nil {
		return 0, fmt.Errorf("ピン一括データの作成失敗: %w", err)
	}

	return int(gjson.GetBytes(data, "#").Int()), nil
}
