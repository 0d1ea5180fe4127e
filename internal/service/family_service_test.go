package service

import (
	"errors"
	"testing"

	"taskjar/internal/models"
	"taskjar/internal/security"
	"taskjar/internal/validation"
)

func TestAddChildValidation(t *testing.T) {
	env := newTestEnv(t)
	parentID := env.registerParent(t, "family@example.com")

	tests := []struct {
		name    string
		input   ChildInput
		wantErr bool
	}{
		{"valid", ChildInput{Name: "Ada", BirthDate: "2018-03-02", Gender: "female"}, false},
		{"no birth date", ChildInput{Name: "Finn"}, false},
		{"name too short", ChildInput{Name: "A"}, true},
		{"bad birth date", ChildInput{Name: "Ada", BirthDate: "03/02/2018"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			child, err := env.family.AddChild(parentID, tt.input)
			if tt.wantErr {
				var ve validation.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("Expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddChild failed: %v", err)
			}
			if child.ID == 0 {
				t.Error("Expected child ID to be assigned")
			}
			if child.Points != 0 {
				t.Errorf("Expected new child to start at 0 points, got %d", child.Points)
			}
		})
	}
}

func TestChildOwnership(t *testing.T) {
	env := newTestEnv(t)
	parentID := env.registerParent(t, "owner@example.com")
	otherParentID := env.registerParent(t, "stranger@example.com")
	childID := env.addChild(t, parentID, "Ada")

	t.Run("owner reads child", func(t *testing.T) {
		child, err := env.family.Child(parentID, childID)
		if err != nil {
			t.Fatalf("Child failed: %v", err)
		}
		if child.Name != "Ada" {
			t.Errorf("Expected Ada, got %q", child.Name)
		}
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		if _, err := env.family.Child(otherParentID, childID); !errors.Is(err, ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})

	t.Run("unknown child is not found", func(t *testing.T) {
		if _, err := env.family.Child(parentID, 9999); !errors.Is(err, ErrChildNotFound) {
			t.Errorf("Expected ErrChildNotFound, got %v", err)
		}
	})

	t.Run("child-token lookup needs no ownership", func(t *testing.T) {
		child, err := env.family.ChildByID(childID)
		if err != nil {
			t.Fatalf("ChildByID failed: %v", err)
		}
		if child.Name != "Ada" {
			t.Errorf("Expected Ada, got %q", child.Name)
		}
		if _, err := env.family.ChildByID(9999); !errors.Is(err, ErrChildNotFound) {
			t.Errorf("Expected ErrChildNotFound, got %v", err)
		}
	})
}

func TestUpdateChild(t *testing.T) {
	env := newTestEnv(t)
	parentID := env.registerParent(t, "update@example.com")
	childID := env.addChild(t, parentID, "Ada")

	updated, err := env.family.UpdateChild(parentID, childID, ChildInput{
		Name:      "Ada Lovelace",
		BirthDate: "2018-03-02",
		Gender:    "female",
		AvatarURL: "https://example.com/ada.png",
	})
	if err != nil {
		t.Fatalf("UpdateChild failed: %v", err)
	}
	if updated.Name != "Ada Lovelace" {
		t.Errorf("Expected updated name, got %q", updated.Name)
	}

	reloaded, err := env.family.Child(parentID, childID)
	if err != nil {
		t.Fatalf("Child failed: %v", err)
	}
	if reloaded.Name != "Ada Lovelace" || reloaded.BirthDate != "2018-03-02" {
		t.Errorf("Update not persisted: %+v", reloaded)
	}
}

func TestDeleteChildCascades(t *testing.T) {
	env := newTestEnv(t)
	parentID := env.registerParent(t, "cascade@example.com")
	childID := env.addChild(t, parentID, "Ada")

	created, err := env.tasks.AddTasks(parentID, childID, []TaskInput{
		{Description: "Make bed", DueDate: "2026-01-10"},
	})
	if err != nil {
		t.Fatalf("AddTasks failed: %v", err)
	}
	if _, err := env.tasks.SetCompletion(Actor{ID: parentID, Role: security.RoleParent}, childID, created[0].ID, true); err != nil {
		t.Fatalf("SetCompletion failed: %v", err)
	}

	if err := env.family.DeleteChild(parentID, childID); err != nil {
		t.Fatalf("DeleteChild failed: %v", err)
	}

	if _, err := env.family.Child(parentID, childID); !errors.Is(err, ErrChildNotFound) {
		t.Errorf("Expected ErrChildNotFound after delete, got %v", err)
	}

	var taskCount, entryCount int
	if err := env.db.QueryRow("SELECT COUNT(*) FROM tasks WHERE child_id = ?", childID).Scan(&taskCount); err != nil {
		t.Fatalf("Failed to count tasks: %v", err)
	}
	if err := env.db.QueryRow("SELECT COUNT(*) FROM points_entries WHERE child_id = ?", childID).Scan(&entryCount); err != nil {
		t.Fatalf("Failed to count entries: %v", err)
	}
	if taskCount != 0 || entryCount != 0 {
		t.Errorf("Expected cascade delete, found %d tasks and %d entries", taskCount, entryCount)
	}
}

func TestOverridePoints(t *testing.T) {
	env := newTestEnv(t)
	parentID := env.registerParent(t, "override@example.com")
	otherParentID := env.registerParent(t, "override-other@example.com")
	childID := env.addChild(t, parentID, "Ada")

	t.Run("sets absolute balance and records delta", func(t *testing.T) {
		child, err := env.family.OverridePoints(parentID, childID, 10)
		if err != nil {
			t.Fatalf("OverridePoints failed: %v", err)
		}
		if child.Points != 10 {
			t.Errorf("Expected 10 points, got %d", child.Points)
		}

		entries, err := env.family.PointsHistory(parentID, childID)
		if err != nil {
			t.Fatalf("PointsHistory failed: %v", err)
		}
		if len(entries) != 1 {
			t.Fatalf("Expected 1 entry, got %d", len(entries))
		}
		if entries[0].Delta != 10 || entries[0].Reason != models.PointsReasonParentOverride {
			t.Errorf("Unexpected entry: %+v", entries[0])
		}
	})

	t.Run("no-op override leaves no entry", func(t *testing.T) {
		if _, err := env.family.OverridePoints(parentID, childID, 10); err != nil {
			t.Fatalf("OverridePoints failed: %v", err)
		}
		entries, err := env.family.PointsHistory(parentID, childID)
		if err != nil {
			t.Fatalf("PointsHistory failed: %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("Expected still 1 entry, got %d", len(entries))
		}
	})

	t.Run("negative balance is allowed", func(t *testing.T) {
		child, err := env.family.OverridePoints(parentID, childID, -3)
		if err != nil {
			t.Fatalf("OverridePoints failed: %v", err)
		}
		if child.Points != -3 {
			t.Errorf("Expected -3 points, got %d", child.Points)
		}
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		if _, err := env.family.OverridePoints(otherParentID, childID, 100); !errors.Is(err, ErrForbidden) {
			t.Errorf("Expected ErrForbidden, got %v", err)
		}
	})
}
