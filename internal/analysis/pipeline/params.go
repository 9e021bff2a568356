// Package pipeline implements the segmentation analyzers: one analyzer per
// pipeline stage, each loading its inputs from sqlite, running the
// corresponding segmentation function and writing results back in a single
// transaction.
package pipeline

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yhzhou/mobility-backend-go/internal/segmentation"
)

// Stage parameters arrive as decoded JSON. Durations are strings
// ("5m", "1d") parsed by segmentation.ParseDuration; numbers come in as
// float64 per encoding/json.

func floatParam(params map[string]interface{}, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("param %q must be a number", key)
	}
	return f, nil
}

func intParam(params map[string]interface{}, key string, def int) (int, error) {
	f, err := floatParam(params, key, float64(def))
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func stringParam(params map[string]interface{}, key string, def string) (string, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("param %q must be a string", key)
	}
	return s, nil
}

func boolParam(params map[string]interface{}, key string, def bool) (bool, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("param %q must be a boolean", key)
	}
	return b, nil
}

func durationParam(params map[string]interface{}, key string, def time.Duration) (time.Duration, error) {
	v, ok := params[key]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("param %q must be a duration string such as \"5m\" or \"1d\"", key)
	}
	d, err := segmentation.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("param %q: %w", key, err)
	}
	return d, nil
}

// withTx runs fn inside a transaction; a stage failure commits nothing
func withTx(db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func summaryJSON(counts map[string]int) string {
	b, err := json.Marshal(counts)
	if err != nil {
		return ""
	}
	return string(b)
}
