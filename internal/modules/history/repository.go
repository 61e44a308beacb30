// Package history persists served predictions for later inspection.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Meza27/cryptoadvisor/internal/domain"
)

// Entry is one recorded prediction.
type Entry struct {
	ID         string          `json:"id"`
	Symbol     string          `json:"symbol"`
	CoinID     string          `json:"crypto_id"`
	Prediction float64         `json:"prediction"`
	Category   domain.Category `json:"category"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Repository stores prediction history rows.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new history repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("module", "history").Logger(),
	}
}

// Record inserts a new prediction row with a generated id.
func (r *Repository) Record(symbol, coinID string, prediction float64, category domain.Category) error {
	_, err := r.db.Exec(
		`INSERT INTO prediction_history (id, symbol, coin_id, prediction, category, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), symbol, coinID, prediction, string(category), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record prediction: %w", err)
	}
	return nil
}

// GetRecent returns the latest entries, newest first.
func (r *Repository) GetRecent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		`SELECT id, symbol, coin_id, prediction, category, created_at
		 FROM prediction_history
		 ORDER BY created_at DESC, id
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query prediction history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var category string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Symbol, &e.CoinID, &e.Prediction, &category, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan prediction history row: %w", err)
		}
		e.Category = domain.Category(category)
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate prediction history: %w", err)
	}

	return entries, nil
}
