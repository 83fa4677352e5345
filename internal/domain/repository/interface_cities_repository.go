package repository

import (
	"context"
	"errors"

	"PosterMap-Admin/internal/domain/model"
)

// ErrCityNotFound 指定した都道府県・市区町村が cities に存在しない
var ErrCityNotFound = errors.New("市区町村が見つかりません")

type CitiesRepository interface {
	// GetAll 全市区町村を取得
	GetAll(ctx context.Context) ([]model.City, error)
	// FindByKey 都道府県・市区町村の完全一致で1件取得。見つからない場合は ErrCityNotFound
	FindByKey(ctx context.Context, key model.CityKey) (*model.City, error)
	// BulkCreate 複数の市区町村を1リクエストで挿入し、挿入件数を返す
	BulkCreate(ctx context.Context, cities []model.NewCity) (int, error)
}
