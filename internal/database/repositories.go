package database

import (
	"context"

	"github.com/benvon/absolutely-right/internal/models"
)

// DailyStatsRepositoryInterface defines the interface for daily stats repository operations
// This interface enables better testability by allowing mock implementations
type DailyStatsRepositoryInterface interface {
	Upsert(ctx context.Context, row models.DailyRow) error
	GetByDay(ctx context.Context, day string) (*models.DailyStats, error)
	History(ctx context.Context, days int) ([]models.DailyRow, error)
}

// Ensure concrete types implement the interfaces
var (
	_ DailyStatsRepositoryInterface = (*DailyStatsRepository)(nil)
)
