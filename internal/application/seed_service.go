package application

import (
	"context"
	"fmt"
	"log"

	"PosterMap-Admin/internal/domain/model"
	"PosterMap-Admin/internal/domain/repository"
)

// SeedCityKey テストピンを登録する市区町村
var SeedCityKey = model.CityKey{Prefecture: "東京都", City: "中央区"}

// seedPin テストピンの定義（city_id 以外）
type seedPin struct {
	Number    string
	Address   string
	PlaceName string
	Lat       float64
	Long      float64
	Status    model.PinStatus
	Note      string
}

var seedPins = []seedPin{
	{
		Number:    "011",
		Address:   "東京都中央区銀座4-6-16",
		PlaceName: "銀座四丁目交差点付近",
		Lat:       35.671736,
		Long:      139.765281,
		Status:    model.PinStatusUnconfirmed,
		Note:      "テスト用（未確認）",
	},
	{
		Number:    "012",
		Address:   "東京都中央区日本橋1-1-1",
		PlaceName: "日本橋付近",
		Lat:       35.684064,
		Long:      139.774337,
		Status:    model.PinStatusNeedsReview,
		Note:      "テスト用（要確認）",
	},
	{
		Number:    "013",
		Address:   "東京都中央区築地5-2-1",
		PlaceName: "築地場外市場付近",
		Lat:       35.665498,
		Long:      139.770665,
		Status:    model.PinStatusDone,
		Note:      "",
	},
}

// SeedService 動作確認用のテストピンを登録する
type SeedService interface {
	// SeedTestPins 中央区にテストピン3件を登録し、登録したピンを返す
	SeedTestPins(ctx context.Context) ([]model.Pin, error)
}

type seedServiceImpl struct {
	citiesRepo repository.CitiesRepository
	pinsRepo   repository.PinsRepository
	logger     *log.Logger
}

func NewSeedService(citiesRepo repository.CitiesRepository, pinsRepo repository.PinsRepository, logger *log.Logger) SeedService {
	if logger == nil {
		logger = log.Default()
	}
	return &seedServiceImpl{
		citiesRepo: citiesRepo,
		pinsRepo:   pinsRepo,
		logger:     logger,
	}
}

func (s *seedServiceImpl) SeedTestPins(ctx context.Context) ([]model.Pin, error) {
	city, err := s.citiesRepo.FindByKey(ctx, SeedCityKey)
	if err != nil {
		return nil, fmt.Errorf("%s の取得失敗: %w", SeedCityKey, err)
	}
	s.logger.Printf("🏙️  %s (city_id=%d)", SeedCityKey, city.ID)

	created := make([]model.Pin, 0, len(seedPins))
	for _, sp := range seedPins {
		pin, err := s.pinsRepo.Create(ctx, &model.NewPin{
			Number:    sp.Number,
			Address:   sp.Address,
			PlaceName: sp.PlaceName,
			Lat:       sp.Lat,
			Long:      sp.Long,
			Status:    sp.Status,
			Note:      model.NoteOrNil(sp.Note),
			CityID:    city.ID,
		})
		if err != nil {
			return created, fmt.Errorf("テストピン %s の作成失敗: %w", sp.Number, err)
		}
		s.logger.Printf("✅ id=%d number=%s place_name=%s status=%s", pin.ID, pin.Number, pin.PlaceName, pin.Status)
		created = append(created, *pin)
	}

	return created, nil
}
