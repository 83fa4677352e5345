package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/postgrest-go"
	"github.com/tidwall/gjson"

	"PosterMap-Admin/internal/domain/model"
	"PosterMap-Admin/internal/domain/repository"
	"PosterMap-Admin/internal/infrastructure/database"
)

// 1リクエストで要求する件数（Supabaseの max-rows 既定値）
const selectPageSize = 1000

type SupabaseCitiesRepository struct {
	client *database.SupabaseClient
}

func NewSupabaseCitiesRepository(client *database.SupabaseClient) repository.CitiesRepository {
	return &SupabaseCitiesRepository{
		client: client,
	}
}

// GetAll 全市区町村をID順にページングしながら取得。
// max-rows が selectPageSize より小さいプロジェクトでも取りこぼさないよう、空のページが返るまで読む
func (r *SupabaseCitiesRepository) GetAll(ctx context.Context) ([]model.City, error) {
	var all []model.City
	for from := 0; ; {
		data, _, err := r.client.GetClient().From("cities").
			Select("id,prefecture,city", "", false).
			Order("id", &postgrest.OrderOpts{Ascending: true}).
			Range(from, from+selectPageSize-1, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("市区町村データの取得失敗: %w", err)
		}

		var page []model.City
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("市区町村データのJSONアンマーシャル失敗: %w", err)
		}
		if len(page) == 0 {
			return all, nil
		}
		all = append(all, page...)
		from += len(page)
	}
}

func (r *SupabaseCitiesRepository) FindByKey(ctx context.Context, key model.CityKey) (*model.City, error) {
	var cities []model.City
	data, _, err := r.client.GetClient().From("cities").
		Select("id,prefecture,city", "", false).
		Eq("prefecture", key.Prefecture).
		Eq("city", key.City).
		Limit(1, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("市区町村 %s の取得失敗: %w", key, err)
	}

	if err := json.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("市区町村データのJSONアンマーシャル失敗: %w", err)
	}

	if len(cities) == 0 {
		return nil, fmt.Errorf("%w: %s", repository.ErrCityNotFound, key)
	}

	return &cities[0], nil
}

func (r *SupabaseCitiesRepository) BulkCreate(ctx context.Context, cities []model.NewCity) (int, error) {
	if len(cities) == 0 {
		return 0, nil
	}

	data, _, err := r.client.GetClient().From("cities").
		Insert(cities, false, "", "representation", "").
		Execute()
	if err != nil {
		return 0, fmt.Errorf("市区町村一括データの作成失敗: %w", err)
	}

	return int(gjson.GetBytes(data, "#").Int()), nil
}
