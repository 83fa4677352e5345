package repository

import (
	"context"

	"PosterMap-Admin/internal/domain/model"
)

type PinsRepository interface {
	// DeleteAll 既存のピンをすべて削除
	DeleteAll(ctx context.Context) error
	// Create 1件挿入し、サーバー側で採番されたレコードを返す
	Create(ctx context.Context, pin *model.NewPin) (*model.Pin, error)
	// BulkCreate 複数件を1リクエストで挿入し、挿入件数を返す
	BulkCreate(ctx context.Context, pins []model.NewPin) (int, error)
}
