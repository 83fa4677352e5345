package application

import (
	"context"
	"fmt"
	"log"
	"sort"

	"PosterMap-Admin/internal/domain/model"
	"PosterMap-Admin/internal/domain/repository"
)

// CitySyncResult 市区町村同期の結果
type CitySyncResult struct {
	Existing int // 同期前にDBに存在した件数
	Inserted int // 新しく追加した件数
}

// CitySyncService 市区町村マスターを追加のみで同期する
type CitySyncService interface {
	// Sync local のうちDBに存在しない市区町村だけを挿入する
	Sync(ctx context.Context, local model.CitySet) (*CitySyncResult, error)
}

type citySyncServiceImpl struct {
	citiesRepo repository.CitiesRepository
	logger     *log.Logger
}

func NewCitySyncService(citiesRepo repository.CitiesRepository, logger *log.Logger) CitySyncService {
	if logger == nil {
		logger = log.Default()
	}
	return &citySyncServiceImpl{
		citiesRepo: citiesRepo,
		logger:     logger,
	}
}

func (s *citySyncServiceImpl) Sync(ctx context.Context, local model.CitySet) (*CitySyncResult, error) {
	s.logger.Println("--- 市区町村データの処理を開始 ---")

	existing, err := s.citiesRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("既存の市区町村の取得失敗: %w", err)
	}

	remote := make(model.CitySet, len(existing))
	for _, c := range existing {
		remote.Add(c.Key())
	}
	s.logger.Printf("DBに既に存在する市区町村: %d件", len(remote))

	result := &CitySyncResult{Existing: len(remote)}

	diff := local.Difference(remote)
	if len(diff) == 0 {
		s.logger.Println("新しく追加する市区町村はありませんでした。")
		return result, nil
	}

	// マップの反復順に依存しないよう挿入順を固定する
	sort.Slice(diff, func(i, j int) bool {
		if diff[i].Prefecture != diff[j].Prefecture {
			return diff[i].Prefecture < diff[j].Prefecture
		}
		return diff[i].City < diff[j].City
	})

	newCities := make([]model.NewCity, len(diff))
	for i, k := range diff {
		newCities[i] = k.ToNewCity()
	}

	s.logger.Printf("新しく%d件の市区町村をアップロードします...", len(newCities))
	inserted, err := s.citiesRepo.BulkCreate(ctx, newCities)
	if err != nil {
		return nil, fmt.Errorf("市区町村データのアップロード失敗: %w", err)
	}
	result.Inserted = inserted

	s.logger.Println("✅ 市区町村マスターデータのアップロードが成功しました。")
	return result, nil
}
