package repository

import (
	"database/sql"
	"fmt"
	"time"

	"taskjar/internal/database"
	"taskjar/internal/models"
)

const taskColumns = "id, child_id, description, image_url, due_date, done, created_at, updated_at"

// TaskRepository handles database operations for tasks
type TaskRepository struct {
	db *database.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// CreateTasks bulk-inserts tasks for a child and returns the created records
func (r *TaskRepository) CreateTasks(childID int64, newTasks []models.NewTask) ([]models.Task, error) {
	query := `
		INSERT INTO tasks (child_id, description, image_url, due_date)
		VALUES (?, ?, ?, ?)
	`

	created := make([]models.Task, 0, len(newTasks))
	for _, nt := range newTasks {
		id, err := r.db.ExecReturningID(query, childID, nt.Description, nt.ImageURL, nt.DueDate)
		if err != nil {
			return nil, fmt.Errorf("failed to create task: %w", err)
		}
		created = append(created, models.Task{
			ID:          id,
			ChildID:     childID,
			Description: nt.Description,
			ImageURL:    nt.ImageURL,
			DueDate:     nt.DueDate,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		})
	}

	return created, nil
}

// GetTask retrieves a task by ID scoped to a child
func (r *TaskRepository) GetTask(taskID, childID int64) (*models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE id = ? AND child_id = ?"
	task := &models.Task{}
	err := r.db.QueryRow(query, taskID, childID).Scan(
		&task.ID,
		&task.ChildID,
		&task.Description,
		&task.ImageURL,
		&task.DueDate,
		&task.Done,
		&task.CreatedAt,
		&task.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

// TasksForDate retrieves a child's tasks for one calendar date
func (r *TaskRepository) TasksForDate(childID int64, date string) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks WHERE child_id = ? AND due_date = ? ORDER BY id ASC"
	rows, err := r.db.Query(query, childID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var task models.Task
		if err := rows.Scan(
			&task.ID,
			&task.ChildID,
			&task.Description,
			&task.ImageURL,
			&task.DueDate,
			&task.Done,
			&task.CreatedAt,
			&task.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// SetDone flips the completion flag only when it performs an actual
// transition; the guarded WHERE clause reports whether this call changed
// the row, so concurrent identical toggles apply at most one point delta.
// Runs on any DBTX so it can join the points transaction.
func (r *TaskRepository) SetDone(q database.DBTX, taskID, childID int64, done bool) (bool, error) {
	query := `
		UPDATE tasks
		SET done = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND child_id = ? AND done = ?
	`
	result, err := q.Exec(query, done, taskID, childID, !done)
	if err != nil {
		return false, fmt.Errorf("failed to set completion: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteTask removes a task scoped to a child; reports whether a row was deleted
func (r *TaskRepository) DeleteTask(taskID, childID int64) (bool, error) {
	result, err := r.db.Exec("DELETE FROM tasks WHERE id = ? AND child_id = ?", taskID, childID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}
