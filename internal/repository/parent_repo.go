package repository

import (
	"database/sql"
	"fmt"
	"time"

	"taskjar/internal/database"
	"taskjar/internal/models"
)

// ParentRepository handles database operations for parent accounts
type ParentRepository struct {
	db *database.DB
}

// NewParentRepository creates a new parent repository
func NewParentRepository(db *database.DB) *ParentRepository {
	return &ParentRepository{db: db}
}

// CreateParent inserts a new parent account
func (r *ParentRepository) CreateParent(username, email, passwordHash string) (*models.Parent, error) {
	query := `
		INSERT INTO parents (username, email, password_hash)
		VALUES (?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, username, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create parent: %w", err)
	}

	return &models.Parent{
		ID:           id,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}, nil
}

// GetParentByEmail retrieves a parent by email address
func (r *ParentRepository) GetParentByEmail(email string) (*models.Parent, error) {
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM parents
		WHERE email = ?
	`
	parent := &models.Parent{}
	err := r.db.QueryRow(query, email).Scan(
		&parent.ID,
		&parent.Username,
		&parent.Email,
		&parent.PasswordHash,
		&parent.CreatedAt,
		&parent.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}

	return parent, nil
}

// GetParentByID retrieves a parent by ID
func (r *ParentRepository) GetParentByID(id int64) (*models.Parent, error) {
	query := `
		SELECT id, username, email, password_hash, created_at, updated_at
		FROM parents
		WHERE id = ?
	`
	parent := &models.Parent{}
	err := r.db.QueryRow(query, id).Scan(
		&parent.ID,
		&parent.Username,
		&parent.Email,
		&parent.PasswordHash,
		&parent.CreatedAt,
		&parent.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}

	return parent, nil
}

// UpdatePassword changes a parent's password hash
func (r *ParentRepository) UpdatePassword(parentID int64, passwordHash string) error {
	query := "UPDATE parents SET password_hash = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?"
	if _, err := r.db.Exec(query, passwordHash, parentID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// CreatePasswordResetToken stores a new reset token
func (r *ParentRepository) CreatePasswordResetToken(token string, parentID int64, expiresAt time.Time) error {
	query := "INSERT INTO password_reset_tokens (token, parent_id, expires_at) VALUES (?, ?, ?)"
	if _, err := r.db.Exec(query, token, parentID, expiresAt); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}
	return nil
}

// GetPasswordResetToken retrieves a reset token
func (r *ParentRepository) GetPasswordResetToken(token string) (*models.PasswordResetToken, error) {
	query := `
		SELECT token, parent_id, expires_at, used, created_at
		FROM password_reset_tokens
		WHERE token = ?
	`
	resetToken := &models.PasswordResetToken{}
	err := r.db.QueryRow(query, token).Scan(
		&resetToken.Token,
		&resetToken.ParentID,
		&resetToken.ExpiresAt,
		&resetToken.Used,
		&resetToken.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reset token: %w", err)
	}

	return resetToken, nil
}

// MarkPasswordResetTokenAsUsed consumes a reset token
func (r *ParentRepository) MarkPasswordResetTokenAsUsed(token string) error {
	query := "UPDATE password_reset_tokens SET used = ? WHERE token = ?"
	if _, err := r.db.Exec(query, true, token); err != nil {
		return fmt.Errorf("failed to mark reset token as used: %w", err)
	}
	return nil
}

// DeleteParentPasswordResetTokens removes all reset tokens for a parent
func (r *ParentRepository) DeleteParentPasswordResetTokens(parentID int64) error {
	query := "DELETE FROM password_reset_tokens WHERE parent_id = ?"
	if _, err := r.db.Exec(query, parentID); err != nil {
		return fmt.Errorf("failed to delete reset tokens: %w", err)
	}
	return nil
}

// DeleteExpiredPasswordResetTokens removes expired reset tokens
func (r *ParentRepository) DeleteExpiredPasswordResetTokens() error {
	query := "DELETE FROM password_reset_tokens WHERE expires_at < ?"
	if _, err := r.db.Exec(query, time.Now()); err != nil {
		return fmt.Errorf("failed to delete expired reset tokens: %w", err)
	}
	return nil
}
