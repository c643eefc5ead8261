// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"cartoon_bot/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateSeries(ctx context.Context, s *model.Series) error
	GetSeries(ctx context.Context, name string) (*model.Series, error)
	GetSeriesByID(ctx context.Context, id int64) (*model.Series, error)
	ListSeries(ctx context.Context) ([]model.Series, error)
	UpdateSeries(ctx context.Context, s *model.Series) error
	DeleteSeries(ctx context.Context, name string) error

	CreateWatch(ctx context.Context, w *model.Watch) error
	ListWatches(ctx context.Context) ([]model.Watch, error)
	ListDueWatches(ctx context.Context) ([]model.Watch, error)
	UpdateWatch(ctx context.Context, w *model.Watch) error
	DeleteWatch(ctx context.Context, id int64) error

	MarkProcessed(ctx context.Context, seriesID int64, sourceKey string) error
	IsProcessed(ctx context.Context, seriesID int64, sourceKey string) (bool, error)
	CountProcessed(ctx context.Context, seriesID int64) (int, error)

	Close() error
}
