package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"PosterMap-Admin/internal/domain/helper"
	"PosterMap-Admin/internal/domain/model"
	"PosterMap-Admin/internal/domain/repository"
)

// PinChunkSize 1リクエストで挿入するピンの件数
const PinChunkSize = 500

// ErrUnknownCity 市区町村マスターに存在しない市区町村を参照する行がある
var ErrUnknownCity = errors.New("市区町村マスターに存在しない市区町村があります")

// PinSyncService 掲示場データを全削除してから入れ直す
type PinSyncService interface {
	// Sync 既存ピンを全削除し rows をチャンク単位で挿入する。挿入した件数を返す
	Sync(ctx context.Context, rows []model.PinRow) (int, error)
}

type pinSyncServiceImpl struct {
	citiesRepo repository.CitiesRepository
	pinsRepo   repository.PinsRepository
	chunkSize  int
	logger     *log.Logger
}

func NewPinSyncService(citiesRepo repository.CitiesRepository, pinsRepo repository.PinsRepository, logger *log.Logger) PinSyncService {
	if logger == nil {
		logger = log.Default()
	}
	return &pinSyncServiceImpl{
		citiesRepo: citiesRepo,
		pinsRepo:   pinsRepo,
		chunkSize:  PinChunkSize,
		logger:     logger,
	}
}

func (s *pinSyncServiceImpl) Sync(ctx context.Context, rows []model.PinRow) (int, error) {
	s.logger.Println("--- ポスター掲示場データの処理を開始 ---")

	pins, err := s.resolve(ctx, rows)
	if err != nil {
		return 0, err
	}

	s.logger.Println("既存のピンデータを削除しています...")
	if err := s.pinsRepo.DeleteAll(ctx); err != nil {
		return 0, fmt.Errorf("既存ピンデータの削除失敗: %w", err)
	}

	total := len(pins)
	s.logger.Printf("合計%d件の掲示場データを準備しました。アップロードします...", total)

	uploaded := 0
	for _, chunk := range helper.Chunk(pins, s.chunkSize) {
		n, err := s.pinsRepo.BulkCreate(ctx, chunk)
		if err != nil {
			return uploaded, fmt.Errorf("掲示場データのアップロード失敗 (%d / %d 件完了): %w", uploaded, total, err)
		}
		uploaded += n
		s.logger.Printf("%d / %d 件をアップロード完了...", uploaded, total)
	}

	s.logger.Println("✅ 掲示場データのアップロードが成功しました！")
	return uploaded, nil
}

// resolve 市区町村IDの対応表を作り、すべての行を挿入用データに変換する
func (s *pinSyncServiceImpl) resolve(ctx context.Context, rows []model.PinRow) ([]model.NewPin, error) {
	cities, err := s.citiesRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("市区町村IDの対応表の取得失敗: %w", err)
	}

	cityMap := make(map[model.CityKey]int, len(cities))
	for _, c := range cities {
		cityMap[c.Key()] = c.ID
	}

	pins := make([]model.NewPin, 0, len(rows))
	missing := make(map[string]struct{})
	for _, row := range rows {
		id, ok := cityMap[row.CityKey()]
		if !ok {
			missing[row.CityKey().String()] = struct{}{}
			continue
		}
		pins = append(pins, row.ToNewPin(id))
	}

	if len(missing) > 0 {
		keys := make([]string, 0, len(missing))
		for k := range missing {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("%w: %s", ErrUnknownCity, strings.Join(keys, ", "))
	}
	return pins, nil
}
