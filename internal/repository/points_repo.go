package repository

import (
	"fmt"

	"taskjar/internal/database"
	"taskjar/internal/models"
)

// PointsRepository handles the append-only points audit trail
type PointsRepository struct {
	db *database.DB
}

// NewPointsRepository creates a new points repository
func NewPointsRepository(db *database.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// AppendEntry records a point delta with its reason. Runs on any DBTX so
// the audit row commits atomically with the balance update.
func (r *PointsRepository) AppendEntry(q database.DBTX, childID int64, delta int, reason string) error {
	query := "INSERT INTO points_entries (child_id, delta, reason) VALUES (?, ?, ?)"
	if _, err := q.Exec(query, childID, delta, reason); err != nil {
		return fmt.Errorf("failed to append points entry: %w", err)
	}
	return nil
}

// EntriesForChild returns a child's audit entries, newest first
func (r *PointsRepository) EntriesForChild(childID int64) ([]models.PointsEntry, error) {
	query := `
		SELECT id, child_id, delta, reason, created_at
		FROM points_entries
		WHERE child_id = ?
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.Query(query, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points entries: %w", err)
	}
	defer rows.Close()

	entries := []models.PointsEntry{}
	for rows.Next() {
		var entry models.PointsEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ChildID,
			&entry.Delta,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan points entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}
