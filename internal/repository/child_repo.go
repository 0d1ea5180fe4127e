package repository

import (
	"database/sql"
	"fmt"
	"time"

	"taskjar/internal/database"
	"taskjar/internal/models"
)

const childColumns = `id, parent_id, name, birth_date, gender, avatar_url, pin_hash,
	failed_attempts, locked_until, last_login, points, created_at, updated_at`

// ChildRepository handles database operations for child profiles,
// including the PIN credential and the points balance stored on the row
type ChildRepository struct {
	db *database.DB
}

// NewChildRepository creates a new child repository
func NewChildRepository(db *database.DB) *ChildRepository {
	return &ChildRepository{db: db}
}

// CreateChild creates a new child profile under a parent
func (r *ChildRepository) CreateChild(parentID int64, name, birthDate, gender, avatarURL string) (*models.Child, error) {
	query := `
		INSERT INTO children (parent_id, name, birth_date, gender, avatar_url)
		VALUES (?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, parentID, name, birthDate, gender, avatarURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}

	return &models.Child{
		ID:        id,
		ParentID:  parentID,
		Name:      name,
		BirthDate: birthDate,
		Gender:    gender,
		AvatarURL: avatarURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}, nil
}

// GetChildByID retrieves a child by ID
func (r *ChildRepository) GetChildByID(childID int64) (*models.Child, error) {
	query := "SELECT " + childColumns + " FROM children WHERE id = ?"
	child, err := scanChild(r.db.QueryRow(query, childID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	return child, nil
}

// GetParentChildren retrieves all children owned by a parent, oldest profile first
func (r *ChildRepository) GetParentChildren(parentID int64) ([]models.Child, error) {
	query := "SELECT " + childColumns + " FROM children WHERE parent_id = ? ORDER BY created_at ASC, id ASC"
	rows, err := r.db.Query(query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.Child
	for rows.Next() {
		child, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}
		children = append(children, *child)
	}

	return children, rows.Err()
}

// UpdateChild updates a child's profile fields
func (r *ChildRepository) UpdateChild(childID int64, name, birthDate, gender, avatarURL string) error {
	query := `
		UPDATE children
		SET name = ?, birth_date = ?, gender = ?, avatar_url = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, name, birthDate, gender, avatarURL, childID); err != nil {
		return fmt.Errorf("failed to update child: %w", err)
	}
	return nil
}

// DeleteChild deletes a child profile; tasks and audit entries cascade
func (r *ChildRepository) DeleteChild(childID int64) error {
	if _, err := r.db.Exec("DELETE FROM children WHERE id = ?", childID); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}

// SetPin stores a new PIN hash and clears any existing lock state
func (r *ChildRepository) SetPin(childID int64, pinHash string) error {
	query := `
		UPDATE children
		SET pin_hash = ?, failed_attempts = 0, locked_until = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, pinHash, childID); err != nil {
		return fmt.Errorf("failed to set pin: %w", err)
	}
	return nil
}

// ClearPin removes the PIN credential and lock state
func (r *ChildRepository) ClearPin(childID int64) error {
	query := `
		UPDATE children
		SET pin_hash = NULL, failed_attempts = 0, locked_until = NULL, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, childID); err != nil {
		return fmt.Errorf("failed to clear pin: %w", err)
	}
	return nil
}

// UpdateLockState writes the attempt counter and lock expiry
func (r *ChildRepository) UpdateLockState(childID int64, failedAttempts int, lockedUntil *time.Time) error {
	query := `
		UPDATE children
		SET failed_attempts = ?, locked_until = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, failedAttempts, lockedUntil, childID); err != nil {
		return fmt.Errorf("failed to update lock state: %w", err)
	}
	return nil
}

// RecordLogin resets the lockout state and stamps a successful login
func (r *ChildRepository) RecordLogin(childID int64, when time.Time) error {
	query := `
		UPDATE children
		SET failed_attempts = 0, locked_until = NULL, last_login = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`
	if _, err := r.db.Exec(query, when, childID); err != nil {
		return fmt.Errorf("failed to record login: %w", err)
	}
	return nil
}

// AdjustPoints applies a relative point delta atomically on the child row.
// Runs on any DBTX so it can join the completion-toggle transaction.
func (r *ChildRepository) AdjustPoints(q database.DBTX, childID int64, delta int) error {
	query := "UPDATE children SET points = points + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := q.Exec(query, delta, childID); err != nil {
		return fmt.Errorf("failed to adjust points: %w", err)
	}
	return nil
}

// GetPoints reads the current balance, optionally inside a transaction
func (r *ChildRepository) GetPoints(q database.DBTX, childID int64) (int, error) {
	var points int
	err := q.QueryRow("SELECT points FROM children WHERE id = ?", childID).Scan(&points)
	if err != nil {
		return 0, fmt.Errorf("failed to get points: %w", err)
	}
	return points, nil
}

// SetPoints writes an absolute balance, optionally inside a transaction
func (r *ChildRepository) SetPoints(q database.DBTX, childID int64, points int) error {
	query := "UPDATE children SET points = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := q.Exec(query, points, childID); err != nil {
		return fmt.Errorf("failed to set points: %w", err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanChild(row rowScanner) (*models.Child, error) {
	child := &models.Child{}
	var pinHash sql.NullString
	var lockedUntil, lastLogin sql.NullTime

	err := row.Scan(
		&child.ID,
		&child.ParentID,
		&child.Name,
		&child.BirthDate,
		&child.Gender,
		&child.AvatarURL,
		&pinHash,
		&child.FailedAttempts,
		&lockedUntil,
		&lastLogin,
		&child.Points,
		&child.CreatedAt,
		&child.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if pinHash.Valid {
		child.PinHash = &pinHash.String
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		child.LockedUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		child.LastLogin = &t
	}

	return child, nil
}
