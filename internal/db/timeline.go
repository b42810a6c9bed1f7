package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimelineEntry is one logged symptom episode for a user. Symptoms and
// SymptomSeverity are stored as JSON text columns.
type TimelineEntry struct {
	ID              string             `json:"id"`
	UserID          string             `json:"-"`
	Symptoms        []string           `json:"symptoms"`
	SymptomSeverity map[string]float64 `json:"symptom_severity,omitempty"`
	Notes           string             `json:"notes,omitempty"`
	EntryType       string             `json:"entry_type"`
	TopPrediction   string             `json:"top_prediction,omitempty"`
	TriageLevel     string             `json:"triage_level,omitempty"`
	SeverityScore   float64            `json:"severity_score"`
	OccurredAt      time.Time          `json:"occurred_at"`
	CreatedAt       time.Time          `json:"created_at"`
}

// AddEntry stores a timeline entry for a user, assigning it an ID. A zero
// OccurredAt is replaced with the current time, and an empty EntryType
// defaults to "symptom_log".
func (db *DB) AddEntry(entry *TimelineEntry) error {
	if entry.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if len(entry.Symptoms) == 0 {
		return fmt.Errorf("at least one symptom is required")
	}

	entry.ID = uuid.NewString()
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	if entry.EntryType == "" {
		entry.EntryType = "symptom_log"
	}
	entry.CreatedAt = time.Now().UTC()

	symptomsJSON, err := json.Marshal(entry.Symptoms)
	if err != nil {
		return fmt.Errorf("failed to encode symptoms: %w", err)
	}
	var severityJSON []byte
	if len(entry.SymptomSeverity) > 0 {
		severityJSON, err = json.Marshal(entry.SymptomSeverity)
		if err != nil {
			return fmt.Errorf("failed to encode symptom severity: %w", err)
		}
	}

	_, err = db.Exec(
		`INSERT INTO timeline_entries (
			id, user_id, symptoms, symptom_severity, notes, entry_type,
			top_prediction, triage_level, severity_score, occurred_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(symptomsJSON), nullableString(severityJSON),
		entry.Notes, entry.EntryType, entry.TopPrediction, entry.TriageLevel,
		entry.SeverityScore, entry.OccurredAt, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert timeline entry: %w", err)
	}

	return nil
}

// EntriesForUser returns all of a user's timeline entries, newest first.
func (db *DB) EntriesForUser(userID string) ([]TimelineEntry, error) {
	rows, err := db.Query(
		`SELECT id, user_id, symptoms, symptom_severity, notes, entry_type,
			top_prediction, triage_level, severity_score, occurred_at, created_at
		 FROM timeline_entries
		 WHERE user_id = ?
		 ORDER BY occurred_at DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query timeline entries: %w", err)
	}
	defer rows.Close()

	var entries []TimelineEntry
	for rows.Next() {
		var (
			entry        TimelineEntry
			symptomsJSON string
			severityJSON sql.NullString
		)
		if err := rows.Scan(
			&entry.ID, &entry.UserID, &symptomsJSON, &severityJSON,
			&entry.Notes, &entry.EntryType, &entry.TopPrediction,
			&entry.TriageLevel, &entry.SeverityScore,
			&entry.OccurredAt, &entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}

		if err := json.Unmarshal([]byte(symptomsJSON), &entry.Symptoms); err != nil {
			return nil, fmt.Errorf("corrupt symptoms for entry %s: %w", entry.ID, err)
		}
		if severityJSON.Valid && severityJSON.String != "" {
			if err := json.Unmarshal([]byte(severityJSON.String), &entry.SymptomSeverity); err != nil {
				return nil, fmt.Errorf("corrupt symptom severity for entry %s: %w", entry.ID, err)
			}
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// DeleteEntry removes a single entry. The delete is scoped to the owning
// user; returns ErrNotFound when the entry does not exist or belongs to
// someone else.
func (db *DB) DeleteEntry(id, userID string) error {
	res, err := db.Exec(
		`DELETE FROM timeline_entries WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete timeline entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete timeline entry: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ClearEntries removes all of a user's timeline entries and reports how
// many were deleted.
func (db *DB) ClearEntries(userID string) (int64, error) {
	res, err := db.Exec(`DELETE FROM timeline_entries WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear timeline entries: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to clear timeline entries: %w", err)
	}
	return affected, nil
}

// EntryCount returns the number of timeline entries a user has.
func (db *DB) EntryCount(userID string) (int64, error) {
	var count int64
	err := db.QueryRow(
		`SELECT COUNT(*) FROM timeline_entries WHERE user_id = ?`, userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count timeline entries: %w", err)
	}
	return count, nil
}

// LastEntryAt returns the occurred-at time of the user's most recent entry.
// The second return is false when the user has no entries.
func (db *DB) LastEntryAt(userID string) (time.Time, bool, error) {
	var occurredAt time.Time
	err := db.QueryRow(
		`SELECT occurred_at FROM timeline_entries
		 WHERE user_id = ? ORDER BY occurred_at DESC LIMIT 1`,
		userID,
	).Scan(&occurredAt)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to query last entry: %w", err)
	}
	return occurredAt, true, nil
}

// nullableString maps empty JSON to NULL so the column stays NULL when no
// severity overrides were recorded.
func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
