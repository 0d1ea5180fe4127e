package service

import (
	"fmt"
	"strings"

	"taskjar/internal/database"
	"taskjar/internal/models"
	"taskjar/internal/repository"
	"taskjar/internal/security"
	"taskjar/internal/validation"
)

// TaskInput holds the parent-supplied fields for task creation
type TaskInput struct {
	Description string
	ImageURL    string
	DueDate     string
}

// TaskService handles the task registry and drives the points ledger.
// Points are a net accumulator over completion transitions, not a recount
// of currently-completed tasks: deleting a completed task leaves the
// balance untouched.
type TaskService struct {
	db         *database.DB
	taskRepo   *repository.TaskRepository
	childRepo  *repository.ChildRepository
	pointsRepo *repository.PointsRepository
}

// NewTaskService creates a new task service
func NewTaskService(db *database.DB, taskRepo *repository.TaskRepository, childRepo *repository.ChildRepository, pointsRepo *repository.PointsRepository) *TaskService {
	return &TaskService{
		db:         db,
		taskRepo:   taskRepo,
		childRepo:  childRepo,
		pointsRepo: pointsRepo,
	}
}

// AddTasks bulk-inserts tasks for a child owned by the parent
func (s *TaskService) AddTasks(parentID, childID int64, inputs []TaskInput) ([]models.Task, error) {
	if len(inputs) == 0 {
		return nil, validation.ValidationError{Field: "tasks", Message: "at least one task is required"}
	}

	newTasks := make([]models.NewTask, 0, len(inputs))
	for _, input := range inputs {
		description := strings.TrimSpace(input.Description)
		if description == "" {
			return nil, validation.ValidationError{Field: "description", Message: "description is required"}
		}
		dueDate, err := validation.ValidateDate("dueDate", input.DueDate)
		if err != nil {
			return nil, err
		}
		newTasks = append(newTasks, models.NewTask{
			Description: description,
			ImageURL:    input.ImageURL,
			DueDate:     dueDate,
		})
	}

	if err := s.authorize(Actor{ID: parentID, Role: security.RoleParent}, childID); err != nil {
		return nil, err
	}

	created, err := s.taskRepo.CreateTasks(childID, newTasks)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks: %w", err)
	}
	return created, nil
}

// TasksForDate returns a child's tasks for one calendar date. An empty day
// is an empty list, not an error.
func (s *TaskService) TasksForDate(actor Actor, childID int64, date string) ([]models.Task, error) {
	normalized, err := validation.ValidateDate("date", date)
	if err != nil {
		return nil, err
	}

	if err := s.authorize(actor, childID); err != nil {
		return nil, err
	}

	tasks, err := s.taskRepo.TasksForDate(childID, normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get tasks: %w", err)
	}
	return tasks, nil
}

// SetCompletion sets a task's completion flag. Idempotent: only an actual
// transition moves the balance, by exactly one point, committed atomically
// with the flag update and the audit entry.
func (s *TaskService) SetCompletion(actor Actor, childID, taskID int64, completed bool) (*models.Task, error) {
	if err := s.authorize(actor, childID); err != nil {
		return nil, err
	}

	task, err := s.taskRepo.GetTask(taskID, childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	changed, err := s.taskRepo.SetDone(tx, taskID, childID, completed)
	if err != nil {
		return nil, err
	}

	if changed {
		delta := 1
		reason := models.PointsReasonTaskCompleted
		if !completed {
			delta = -1
			reason = models.PointsReasonTaskUncompleted
		}
		if err := s.childRepo.AdjustPoints(tx, childID, delta); err != nil {
			return nil, err
		}
		if err := s.pointsRepo.AppendEntry(tx, childID, delta, reason); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}

	task.Done = completed
	return task, nil
}

// DeleteTask removes a task. Points already earned from it stay on the
// balance; the ledger accumulates transitions, it does not recompute.
func (s *TaskService) DeleteTask(parentID, childID, taskID int64) error {
	if err := s.authorize(Actor{ID: parentID, Role: security.RoleParent}, childID); err != nil {
		return err
	}

	deleted, err := s.taskRepo.DeleteTask(taskID, childID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if !deleted {
		return ErrTaskNotFound
	}
	return nil
}

// authorize checks the actor may operate on the child's records: a parent
// must own the child, a child may only touch its own.
func (s *TaskService) authorize(actor Actor, childID int64) error {
	switch actor.Role {
	case security.RoleChild:
		if actor.ID != childID {
			return ErrForbidden
		}
		return nil
	case security.RoleParent:
		child, err := s.childRepo.GetChildByID(childID)
		if err != nil {
			return fmt.Errorf("failed to get child: %w", err)
		}
		if child == nil {
			return ErrChildNotFound
		}
		if child.ParentID != actor.ID {
			return ErrForbidden
		}
		return nil
	default:
		return ErrForbidden
	}
}
