package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	insertTrainingRunSQL = `INSERT INTO training_run (seed, samples, train_size, test_size, accuracy, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	selectTrainingRunsSQL = `SELECT id, seed, samples, train_size, test_size, accuracy, duration_ms, created_at
		FROM training_run
		ORDER BY id DESC
		LIMIT ?
	`
)

// TrainingRun records the outcome of one model fit.
type TrainingRun struct {
	ID         int64   `json:"id" yaml:"id"`
	Seed       int64   `json:"seed" yaml:"seed"`
	Samples    int     `json:"samples" yaml:"samples"`
	TrainSize  int     `json:"train_size" yaml:"trainSize"`
	TestSize   int     `json:"test_size" yaml:"testSize"`
	Accuracy   float64 `json:"accuracy" yaml:"accuracy"`
	DurationMS int64   `json:"duration_ms" yaml:"durationMs"`
	CreatedAt  string  `json:"created_at" yaml:"createdAt"`
}

// SaveTrainingRun appends the run and sets its ID and timestamp.
func SaveTrainingRun(db *sql.DB, r *TrainingRun) error {
	if db == nil {
		return errDBNotInitialized
	}
	if r == nil {
		return errors.New("training run required")
	}

	if r.CreatedAt == "" {
		r.CreatedAt = time.Now().UTC().Format(timeFormat)
	}

	row := db.QueryRow(rebind(db, insertTrainingRunSQL),
		r.Seed, r.Samples, r.TrainSize, r.TestSize, r.Accuracy, r.DurationMS, r.CreatedAt)
	if err := row.Scan(&r.ID); err != nil {
		return fmt.Errorf("inserting training run: %w", err)
	}
	return nil
}

// GetTrainingRuns returns the most recent training runs, newest first.
func GetTrainingRuns(db *sql.DB, limit int) ([]*TrainingRun, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = PredictionLimitDefault
	}

	rows, err := db.Query(rebind(db, selectTrainingRunsSQL), limit)
	if err != nil {
		return nil, fmt.Errorf("querying training runs: %w", err)
	}
	defer rows.Close()

	list := make([]*TrainingRun, 0)
	for rows.Next() {
		r := &TrainingRun{}
		if err := rows.Scan(&r.ID, &r.Seed, &r.Samples, &r.TrainSize, &r.TestSize,
			&r.Accuracy, &r.DurationMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning training run row: %w", err)
		}
		list = append(list, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating training run rows: %w", err)
	}
	return list, nil
}
