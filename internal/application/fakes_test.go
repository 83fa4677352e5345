package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"PosterMap-Admin/internal/domain/model"
	"PosterMap-Admin/internal/domain/repository"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// memCitiesRepository CitiesRepository のインメモリ実装
type memCitiesRepository struct {
	cities      []model.City
	nextID      int
	insertCalls int
	getAllErr   error
	insertErr   error
}

func newMemCitiesRepository(cities ...model.City) *memCitiesRepository {
	r := &memCitiesRepository{cities: cities}
	for _, c := range cities {
		if c.ID > r.nextID {
			r.nextID = c.ID
		}
	}
	return r
}

func (r *memCitiesRepository) GetAll(ctx context.Context) ([]model.City, error) {
	if r.getAllErr != nil {
		return nil, r.getAllErr
	}
	out := make([]model.City, len(r.cities))
	copy(out, r.cities)
	return out, nil
}

func (r *memCitiesRepository) FindByKey(ctx context.Context, key model.CityKey) (*model.City, error) {
	for _, c := range r.cities {
		if c.Key() == key {
			city := c
			return &city, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", key, repository.ErrCityNotFound)
}

func (r *memCitiesRepository) BulkCreate(ctx context.Context, cities []model.NewCity) (int, error) {
	r.insertCalls++
	if r.insertErr != nil {
		return 0, r.insertErr
	}
	for _, c := range cities {
		r.nextID++
		r.cities = append(r.cities, model.City{ID: r.nextID, Prefecture: c.Prefecture, City: c.City})
	}
	return len(cities), nil
}

// memPinsRepository PinsRepository のインメモリ実装
type memPinsRepository struct {
	pins        []model.Pin
	nextID      int
	deleteCalls int
	bulkSizes   []int
	failOnChunk int // 1始まり。0なら失敗しない
}

func (r *memPinsRepository) DeleteAll(ctx context.Context) error {
	r.deleteCalls++
	r.pins = nil
	return nil
}

func (r *memPinsRepository) Create(ctx context.Context, pin *model.NewPin) (*model.Pin, error) {
	r.nextID++
	p := model.Pin{
		ID: r.nextID, Number: pin.Number, Address: pin.Address, PlaceName: pin.PlaceName,
		Lat: pin.Lat, Long: pin.Long, Status: pin.Status, Note: pin.Note, CityID: pin.CityID,
	}
	r.pins = append(r.pins, p)
	return &p, nil
}

func (r *memPinsRepository) BulkCreate(ctx context.Context, pins []model.NewPin) (int, error) {
	r.bulkSizes = append(r.bulkSizes, len(pins))
	if r.failOnChunk == len(r.bulkSizes) {
		return 0, errors.New("request entity too large")
	}
	for i := range pins {
		if _, err := r.Create(ctx, &pins[i]); err != nil {
			return 0, err
		}
	}
	return len(pins), nil
}
