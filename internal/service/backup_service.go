package service

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"taskjar/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version       string              `json:"version"`
	ExportedAt    time.Time           `json:"exported_at"`
	Parents       []ParentBackup      `json:"parents"`
	Children      []ChildBackup       `json:"children"`
	Tasks         []TaskBackup        `json:"tasks"`
	PointsEntries []PointsEntryBackup `json:"points_entries"`
}

// ParentBackup represents a parent record for backup
type ParentBackup struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChildBackup represents a child record for backup
type ChildBackup struct {
	ID             int64      `json:"id"`
	ParentID       int64      `json:"parent_id"`
	Name           string     `json:"name"`
	BirthDate      string     `json:"birth_date"`
	Gender         string     `json:"gender"`
	AvatarURL      string     `json:"avatar_url"`
	PinHash        *string    `json:"pin_hash"`
	FailedAttempts int        `json:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until"`
	LastLogin      *time.Time `json:"last_login"`
	Points         int        `json:"points"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// TaskBackup represents a task record for backup
type TaskBackup struct {
	ID          int64     `json:"id"`
	ChildID     int64     `json:"child_id"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	DueDate     string    `json:"due_date"`
	Done        bool      `json:"done"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PointsEntryBackup represents a points audit entry for backup
type PointsEntryBackup struct {
	ID        int64     `json:"id"`
	ChildID   int64     `json:"child_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes the full database content as JSON to the given path
func (s *BackupService) Export(outputPath string) error {
	data := BackupData{
		Version:    "1",
		ExportedAt: time.Now(),
	}

	if err := s.exportParents(&data); err != nil {
		return err
	}
	if err := s.exportChildren(&data); err != nil {
		return err
	}
	if err := s.exportTasks(&data); err != nil {
		return err
	}
	if err := s.exportPointsEntries(&data); err != nil {
		return err
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	return nil
}

// Import restores database content from a JSON backup file. With clear set,
// existing rows are removed first; otherwise rows are appended with fresh IDs.
func (s *BackupService) Import(inputPath string, clear bool) error {
	content, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read backup file: %w", err)
	}

	var data BackupData
	if err := json.Unmarshal(content, &data); err != nil {
		return fmt.Errorf("failed to parse backup: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if clear {
		for _, table := range []string{"points_entries", "tasks", "password_reset_tokens", "children", "parents"} {
			if _, err := tx.Exec("DELETE FROM " + table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
	}

	// Old IDs are remapped as rows are re-inserted
	parentIDs := make(map[int64]int64, len(data.Parents))
	for _, p := range data.Parents {
		id, err := tx.ExecReturningID(
			"INSERT INTO parents (username, email, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			p.Username, p.Email, p.PasswordHash, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to import parent %d: %w", p.ID, err)
		}
		parentIDs[p.ID] = id
	}

	childIDs := make(map[int64]int64, len(data.Children))
	for _, c := range data.Children {
		parentID, ok := parentIDs[c.ParentID]
		if !ok {
			return fmt.Errorf("child %d references unknown parent %d", c.ID, c.ParentID)
		}
		id, err := tx.ExecReturningID(
			`INSERT INTO children (parent_id, name, birth_date, gender, avatar_url, pin_hash,
				failed_attempts, locked_until, last_login, points, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			parentID, c.Name, c.BirthDate, c.Gender, c.AvatarURL, c.PinHash,
			c.FailedAttempts, c.LockedUntil, c.LastLogin, c.Points, c.CreatedAt, c.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to import child %d: %w", c.ID, err)
		}
		childIDs[c.ID] = id
	}

	for _, t := range data.Tasks {
		childID, ok := childIDs[t.ChildID]
		if !ok {
			return fmt.Errorf("task %d references unknown child %d", t.ID, t.ChildID)
		}
		_, err := tx.Exec(
			"INSERT INTO tasks (child_id, description, image_url, due_date, done, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			childID, t.Description, t.ImageURL, t.DueDate, t.Done, t.CreatedAt, t.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to import task %d: %w", t.ID, err)
		}
	}

	for _, e := range data.PointsEntries {
		childID, ok := childIDs[e.ChildID]
		if !ok {
			return fmt.Errorf("points entry %d references unknown child %d", e.ID, e.ChildID)
		}
		_, err := tx.Exec(
			"INSERT INTO points_entries (child_id, delta, reason, created_at) VALUES (?, ?, ?, ?)",
			childID, e.Delta, e.Reason, e.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to import points entry %d: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}

	return nil
}

func (s *BackupService) exportParents(data *BackupData) error {
	rows, err := s.db.Query("SELECT id, username, email, password_hash, created_at, updated_at FROM parents ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to export parents: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var p ParentBackup
		if err := rows.Scan(&p.ID, &p.Username, &p.Email, &p.PasswordHash, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan parent: %w", err)
		}
		data.Parents = append(data.Parents, p)
	}
	return rows.Err()
}

func (s *BackupService) exportChildren(data *BackupData) error {
	rows, err := s.db.Query(`SELECT id, parent_id, name, birth_date, gender, avatar_url, pin_hash,
		failed_attempts, locked_until, last_login, points, created_at, updated_at
		FROM children ORDER BY id`)
	if err != nil {
		return fmt.Errorf("failed to export children: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c ChildBackup
		if err := rows.Scan(&c.ID, &c.ParentID, &c.Name, &c.BirthDate, &c.Gender, &c.AvatarURL,
			&c.PinHash, &c.FailedAttempts, &c.LockedUntil, &c.LastLogin, &c.Points,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan child: %w", err)
		}
		data.Children = append(data.Children, c)
	}
	return rows.Err()
}

func (s *BackupService) exportTasks(data *BackupData) error {
	rows, err := s.db.Query("SELECT id, child_id, description, image_url, due_date, done, created_at, updated_at FROM tasks ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to export tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t TaskBackup
		if err := rows.Scan(&t.ID, &t.ChildID, &t.Description, &t.ImageURL, &t.DueDate, &t.Done, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return fmt.Errorf("failed to scan task: %w", err)
		}
		data.Tasks = append(data.Tasks, t)
	}
	return rows.Err()
}

func (s *BackupService) exportPointsEntries(data *BackupData) error {
	rows, err := s.db.Query("SELECT id, child_id, delta, reason, created_at FROM points_entries ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to export points entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e PointsEntryBackup
		if err := rows.Scan(&e.ID, &e.ChildID, &e.Delta, &e.Reason, &e.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan points entry: %w", err)
		}
		data.PointsEntries = append(data.PointsEntries, e)
	}
	return rows.Err()
}
