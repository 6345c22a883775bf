package data

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	PredictionLimitDefault = 100

	SourceCLI = "cli"
	SourceAPI = "api"

	insertPredictionSQL = `INSERT INTO prediction (heart_rate, spo2, activity_level, risk, source, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`

	selectPredictionsSQL = `SELECT id, heart_rate, spo2, activity_level, risk, source, created_at
		FROM prediction
		WHERE risk = COALESCE(?, risk)
		ORDER BY id DESC
		LIMIT ?
	`
)

// Prediction is a scored observation as recorded in the store.
type Prediction struct {
	ID            int64   `json:"id" yaml:"id"`
	HeartRate     float64 `json:"heart_rate" yaml:"heartRate"`
	SpO2          float64 `json:"spo2" yaml:"spo2"`
	ActivityLevel float64 `json:"activity_level" yaml:"activityLevel"`
	Risk          string  `json:"risk" yaml:"risk"`
	Source        string  `json:"source" yaml:"source"`
	CreatedAt     string  `json:"created_at" yaml:"createdAt"`
}

func (p *Prediction) validate() error {
	if p == nil {
		return errors.New("prediction required")
	}
	if p.Risk == "" || p.Source == "" {
		return fmt.Errorf("risk: '%s' and source: '%s' are required", p.Risk, p.Source)
	}
	return nil
}

// SavePrediction appends the prediction and sets its ID and timestamp.
func SavePrediction(db *sql.DB, p *Prediction) error {
	if db == nil {
		return errDBNotInitialized
	}
	if err := p.validate(); err != nil {
		return err
	}

	if p.CreatedAt == "" {
		p.CreatedAt = time.Now().UTC().Format(timeFormat)
	}

	row := db.QueryRow(rebind(db, insertPredictionSQL),
		p.HeartRate, p.SpO2, p.ActivityLevel, p.Risk, p.Source, p.CreatedAt)
	if err := row.Scan(&p.ID); err != nil {
		return fmt.Errorf("inserting prediction: %w", err)
	}
	return nil
}

// SavePredictions appends all predictions in a single transaction.
func SavePredictions(db *sql.DB, list []*Prediction) error {
	if db == nil {
		return errDBNotInitialized
	}
	for i, p := range list {
		if err := p.validate(); err != nil {
			return fmt.Errorf("prediction %d: %w", i, err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("starting prediction tx: %w", err)
	}

	stmt, err := tx.Prepare(rebind(db, insertPredictionSQL))
	if err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("preparing prediction insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(timeFormat)
	for _, p := range list {
		if p.CreatedAt == "" {
			p.CreatedAt = now
		}
		if err := stmt.QueryRow(p.HeartRate, p.SpO2, p.ActivityLevel, p.Risk, p.Source, p.CreatedAt).Scan(&p.ID); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("inserting prediction: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing prediction tx: %w", err)
	}
	return nil
}

// GetPredictions returns the most recent predictions, newest first,
// optionally filtered by risk label.
func GetPredictions(db *sql.DB, risk *string, limit int) ([]*Prediction, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit <= 0 {
		limit = PredictionLimitDefault
	}

	rows, err := db.Query(rebind(db, selectPredictionsSQL), risk, limit)
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	list := make([]*Prediction, 0)
	for rows.Next() {
		p := &Prediction{}
		if err := rows.Scan(&p.ID, &p.HeartRate, &p.SpO2, &p.ActivityLevel, &p.Risk, &p.Source, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning prediction row: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prediction rows: %w", err)
	}
	return list, nil
}
