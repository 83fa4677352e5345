package application

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PosterMap-Admin/internal/domain/model"
	"PosterMap-Admin/internal/domain/repository"
)

func citySet(keys ...model.CityKey) model.CitySet {
	s := make(model.CitySet)
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

var (
	chuo     = model.CityKey{Prefecture: "東京都", City: "中央区"}
	itabashi = model.CityKey{Prefecture: "東京都", City: "板橋区"}
	kita     = model.CityKey{Prefecture: "大阪府", City: "北区"}
)

func TestCitySyncService(t *testing.T) {
	ctx := context.Background()

	t.Run("差分だけを挿入し2回目は何もしない", func(t *testing.T) {
		repo := newMemCitiesRepository(model.City{ID: 1, Prefecture: "東京都", City: "中央区"})
		svc := NewCitySyncService(repo, discardLogger())

		res, err := svc.Sync(ctx, citySet(chuo, itabashi, kita))
		require.NoError(t, err)
		assert.Equal(t, 1, res.Existing)
		assert.Equal(t, 2, res.Inserted)
		assert.Len(t, repo.cities, 3)
		// 挿入順は都道府県・市区町村の順
		assert.Equal(t, kita, repo.cities[1].Key())
		assert.Equal(t, itabashi, repo.cities[2].Key())

		res, err = svc.Sync(ctx, citySet(chuo, itabashi, kita))
		require.NoError(t, err)
		assert.Equal(t, 3, res.Existing)
		assert.Zero(t, res.Inserted)
		assert.Equal(t, 1, repo.insertCalls)
		assert.Len(t, repo.cities, 3)
	})

	t.Run("DBにだけある市区町村は消さない", func(t *testing.T) {
		repo := newMemCitiesRepository(
			model.City{ID: 1, Prefecture: "東京都", City: "中央区"},
			model.City{ID: 2, Prefecture: "北海道", City: "札幌市中央区"},
		)
		res, err := NewCitySyncService(repo, discardLogger()).Sync(ctx, citySet(chuo))
		require.NoError(t, err)
		assert.Zero(t, res.Inserted)
		assert.Len(t, repo.cities, 2)
	})

	t.Run("取得エラー", func(t *testing.T) {
		repo := newMemCitiesRepository()
		repo.getAllErr = errors.New("connection refused")
		_, err := NewCitySyncService(repo, discardLogger()).Sync(ctx, citySet(chuo))
		require.Error(t, err)
		assert.Zero(t, repo.insertCalls)
	})

	t.Run("挿入エラー", func(t *testing.T) {
		repo := newMemCitiesRepository()
		repo.insertErr = errors.New("permission denied")
		_, err := NewCitySyncService(repo, discardLogger()).Sync(ctx, citySet(chuo))
		assert.ErrorContains(t, err, "permission denied")
	})
}

func pinRows(n int, key model.CityKey) []model.PinRow {
	rows := make([]model.PinRow, n)
	for i := range rows {
		rows[i] = model.PinRow{
			Prefecture: key.Prefecture,
			City:       key.City,
			Number:     fmt.Sprintf("%04d", i+1),
			Lat:        35.67,
			Long:       139.77,
		}
	}
	return rows
}

func TestPinSyncService(t *testing.T) {
	ctx := context.Background()

	t.Run("500件ずつ分割して挿入する", func(t *testing.T) {
		tests := []struct {
			n     int
			calls []int
		}{
			{n: 0, calls: nil},
			{n: 1, calls: []int{1}},
			{n: 500, calls: []int{500}},
			{n: 501, calls: []int{500, 1}},
			{n: 1201, calls: []int{500, 500, 201}},
		}
		for _, tt := range tests {
			t.Run(fmt.Sprintf("%d件", tt.n), func(t *testing.T) {
				cities := newMemCitiesRepository(model.City{ID: 7, Prefecture: "東京都", City: "中央区"})
				pins := &memPinsRepository{}
				pins.pins = []model.Pin{{ID: 99, Number: "old"}}

				n, err := NewPinSyncService(cities, pins, discardLogger()).Sync(ctx, pinRows(tt.n, chuo))
				require.NoError(t, err)
				assert.Equal(t, tt.n, n)
				assert.Equal(t, tt.calls, pins.bulkSizes)
				assert.Equal(t, 1, pins.deleteCalls)
				assert.Len(t, pins.pins, tt.n)
				for _, p := range pins.pins {
					assert.Equal(t, 7, p.CityID)
				}
			})
		}
	})

	t.Run("2回実行しても前回分は残らない", func(t *testing.T) {
		cities := newMemCitiesRepository(model.City{ID: 7, Prefecture: "東京都", City: "中央区"})
		pins := &memPinsRepository{}
		svc := NewPinSyncService(cities, pins, discardLogger())

		_, err := svc.Sync(ctx, pinRows(30, chuo))
		require.NoError(t, err)
		_, err = svc.Sync(ctx, pinRows(12, chuo))
		require.NoError(t, err)
		assert.Len(t, pins.pins, 12)
	})

	t.Run("未登録の市区町村があれば削除しない", func(t *testing.T) {
		cities := newMemCitiesRepository(model.City{ID: 7, Prefecture: "東京都", City: "中央区"})
		pins := &memPinsRepository{pins: []model.Pin{{ID: 1, Number: "keep"}}}

		rows := append(pinRows(3, chuo), pinRows(2, kita)...)
		_, err := NewPinSyncService(cities, pins, discardLogger()).Sync(ctx, rows)
		require.ErrorIs(t, err, ErrUnknownCity)
		assert.Contains(t, err.Error(), "大阪府/北区")
		assert.Zero(t, pins.deleteCalls)
		assert.Len(t, pins.pins, 1)
	})

	t.Run("途中のチャンクで失敗したら残りは送らない", func(t *testing.T) {
		cities := newMemCitiesRepository(model.City{ID: 7, Prefecture: "東京都", City: "中央区"})
		pins := &memPinsRepository{failOnChunk: 2}

		n, err := NewPinSyncService(cities, pins, discardLogger()).Sync(ctx, pinRows(1201, chuo))
		require.Error(t, err)
		assert.Equal(t, 500, n)
		assert.Equal(t, []int{500, 500}, pins.bulkSizes)
		assert.Len(t, pins.pins, 500)
	})

	t.Run("ステータスと備考を引き継ぐ", func(t *testing.T) {
		cities := newMemCitiesRepository(model.City{ID: 7, Prefecture: "東京都", City: "中央区"})
		pins := &memPinsRepository{}
		rows := pinRows(2, chuo)
		rows[0].Status = model.PinStatusNeedsReview
		rows[0].Note = "角地"

		_, err := NewPinSyncService(cities, pins, discardLogger()).Sync(ctx, rows)
		require.NoError(t, err)
		assert.Equal(t, model.PinStatusNeedsReview, pins.pins[0].Status)
		assert.Equal(t, "角地", pins.pins[0].GetNote())
		assert.Nil(t, pins.pins[1].Note)
	})
}

func TestSeedService(t *testing.T) {
	ctx := context.Background()

	t.Run("中央区にテストピン3件を登録する", func(t *testing.T) {
		cities := newMemCitiesRepository(model.City{ID: 7, Prefecture: "東京都", City: "中央区"})
		pins := &memPinsRepository{}

		created, err := NewSeedService(cities, pins, discardLogger()).SeedTestPins(ctx)
		require.NoError(t, err)
		require.Len(t, created, 3)

		want := map[string]model.PinStatus{
			"011": model.PinStatusUnconfirmed,
			"012": model.PinStatusNeedsReview,
			"013": model.PinStatusDone,
		}
		for _, p := range created {
			assert.Equal(t, 7, p.CityID)
			assert.Equal(t, want[p.Number], p.Status, p.Number)
			assert.NotZero(t, p.ID)
		}
		assert.Len(t, pins.pins, 3)
	})

	t.Run("市区町村がなければ1件も登録しない", func(t *testing.T) {
		cities := newMemCitiesRepository(model.City{ID: 3, Prefecture: "東京都", City: "板橋区"})
		pins := &memPinsRepository{}

		_, err := NewSeedService(cities, pins, discardLogger()).SeedTestPins(ctx)
		require.ErrorIs(t, err, repository.ErrCityNotFound)
		assert.Empty(t, pins.pins)
	})
}
