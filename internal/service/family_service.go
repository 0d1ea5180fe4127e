package service

import (
	"fmt"

	"taskjar/internal/database"
	"taskjar/internal/models"
	"taskjar/internal/repository"
	"taskjar/internal/validation"
)

// FamilyService handles child profile management and the parent-facing
// points operations (override and audit history)
type FamilyService struct {
	db         *database.DB
	childRepo  *repository.ChildRepository
	pointsRepo *repository.PointsRepository
}

// NewFamilyService creates a new family service
func NewFamilyService(db *database.DB, childRepo *repository.ChildRepository, pointsRepo *repository.PointsRepository) *FamilyService {
	return &FamilyService{
		db:         db,
		childRepo:  childRepo,
		pointsRepo: pointsRepo,
	}
}

// AddChild creates a new child profile under the parent
func (s *FamilyService) AddChild(parentID int64, input ChildInput) (*models.Child, error) {
	if err := validation.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if input.BirthDate != "" {
		normalized, err := validation.ValidateDate("birthDate", input.BirthDate)
		if err != nil {
			return nil, err
		}
		input.BirthDate = normalized
	}

	child, err := s.childRepo.CreateChild(parentID, input.Name, input.BirthDate, input.Gender, input.AvatarURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create child: %w", err)
	}
	return child, nil
}

// Children returns all child profiles owned by the parent
func (s *FamilyService) Children(parentID int64) ([]models.Child, error) {
	children, err := s.childRepo.GetParentChildren(parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get children: %w", err)
	}
	return children, nil
}

// Child loads one child and verifies the parent owns it
func (s *FamilyService) Child(parentID, childID int64) (*models.Child, error) {
	child, err := s.childRepo.GetChildByID(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	if child.ParentID != parentID {
		return nil, ErrForbidden
	}
	return child, nil
}

// ChildByID loads one child without an ownership check, for child-token callers
func (s *FamilyService) ChildByID(childID int64) (*models.Child, error) {
	child, err := s.childRepo.GetChildByID(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return nil, ErrChildNotFound
	}
	return child, nil
}

// UpdateChild updates a child's profile fields
func (s *FamilyService) UpdateChild(parentID, childID int64, input ChildInput) (*models.Child, error) {
	if err := validation.ValidateName(input.Name); err != nil {
		return nil, err
	}
	if input.BirthDate != "" {
		normalized, err := validation.ValidateDate("birthDate", input.BirthDate)
		if err != nil {
			return nil, err
		}
		input.BirthDate = normalized
	}

	child, err := s.Child(parentID, childID)
	if err != nil {
		return nil, err
	}

	if err := s.childRepo.UpdateChild(childID, input.Name, input.BirthDate, input.Gender, input.AvatarURL); err != nil {
		return nil, fmt.Errorf("failed to update child: %w", err)
	}

	child.Name = input.Name
	child.BirthDate = input.BirthDate
	child.Gender = input.Gender
	child.AvatarURL = input.AvatarURL
	return child, nil
}

// DeleteChild removes a child profile along with its tasks and audit entries
func (s *FamilyService) DeleteChild(parentID, childID int64) error {
	if _, err := s.Child(parentID, childID); err != nil {
		return err
	}
	if err := s.childRepo.DeleteChild(childID); err != nil {
		return fmt.Errorf("failed to delete child: %w", err)
	}
	return nil
}

// OverridePoints sets a child's balance to an absolute value. This is the
// only way a balance changes outside completion transitions; the applied
// delta is recorded on the audit trail in the same transaction.
func (s *FamilyService) OverridePoints(parentID, childID int64, points int) (*models.Child, error) {
	child, err := s.Child(parentID, childID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	current, err := s.childRepo.GetPoints(tx, childID)
	if err != nil {
		return nil, err
	}

	if delta := points - current; delta != 0 {
		if err := s.childRepo.SetPoints(tx, childID, points); err != nil {
			return nil, err
		}
		if err := s.pointsRepo.AppendEntry(tx, childID, delta, models.PointsReasonParentOverride); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit points override: %w", err)
	}

	child.Points = points
	return child, nil
}

// PointsHistory returns the child's audit entries, newest first
func (s *FamilyService) PointsHistory(parentID, childID int64) ([]models.PointsEntry, error) {
	if _, err := s.Child(parentID, childID); err != nil {
		return nil, err
	}

	entries, err := s.pointsRepo.EntriesForChild(childID)
	if err != nil {
		return nil, fmt.Errorf("failed to get points history: %w", err)
	}
	return entries, nil
}
