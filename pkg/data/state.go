package data

import (
	"database/sql"
	"fmt"
)

var (
	stateQueries = map[string]string{
		"prediction":   "SELECT COUNT(*) FROM prediction",
		"training_run": "SELECT COUNT(*) FROM training_run",
		"alert":        "SELECT COUNT(*) FROM prediction WHERE risk = 'Critical'",
	}

	selectRiskCountsSQL = `SELECT risk, COUNT(*) FROM prediction GROUP BY risk`
)

// DataState holds row counts for the store.
type DataState struct {
	Counts map[string]int64 `json:"counts" yaml:"counts"`
	Risks  map[string]int64 `json:"risks" yaml:"risks"`
}

// GetDataState returns the current state of the database.
func GetDataState(db *sql.DB) (*DataState, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	state := &DataState{
		Counts: make(map[string]int64, len(stateQueries)),
		Risks:  make(map[string]int64),
	}
	for k, q := range stateQueries {
		var count int64
		if err := db.QueryRow(q).Scan(&count); err != nil {
			return nil, fmt.Errorf("getting %s count: %w", k, err)
		}
		state.Counts[k] = count
	}

	rows, err := db.Query(selectRiskCountsSQL)
	if err != nil {
		return nil, fmt.Errorf("querying risk counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var risk string
		var count int64
		if err := rows.Scan(&risk, &count); err != nil {
			return nil, fmt.Errorf("scanning risk count row: %w", err)
		}
		state.Risks[risk] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating risk count rows: %w", err)
	}
	return state, nil
}
