package service

import (
	"path/filepath"
	"testing"
	"time"

	"taskjar/internal/database"
	"taskjar/internal/repository"
	"taskjar/internal/security"
)

// testEnv bundles a temp SQLite database with the services under test
type testEnv struct {
	db          *database.DB
	parentRepo  *repository.ParentRepository
	childRepo   *repository.ChildRepository
	taskRepo    *repository.TaskRepository
	pointsRepo  *repository.PointsRepository
	auth        *AuthService
	family      *FamilyService
	tasks       *TaskService
	tokenIssuer *security.TokenIssuer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping database-backed test in short mode")
	}

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Initialize(dbPath)
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations("../../migrations"); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	parentRepo := repository.NewParentRepository(db)
	childRepo := repository.NewChildRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	pointsRepo := repository.NewPointsRepository(db)

	tokens := security.NewTokenIssuer("test-secret", 2*time.Hour)

	return &testEnv{
		db:          db,
		parentRepo:  parentRepo,
		childRepo:   childRepo,
		taskRepo:    taskRepo,
		pointsRepo:  pointsRepo,
		auth:        NewAuthService(parentRepo, childRepo, tokens, 5, 15*time.Minute),
		family:      NewFamilyService(db, childRepo, pointsRepo),
		tasks:       NewTaskService(db, taskRepo, childRepo, pointsRepo),
		tokenIssuer: tokens,
	}
}

// registerParent creates a parent account for test setup
func (env *testEnv) registerParent(t *testing.T, email string) int64 {
	t.Helper()
	parent, _, err := env.auth.Register("Test Parent", email, "pw123456", nil)
	if err != nil {
		t.Fatalf("Failed to register parent: %v", err)
	}
	return parent.ID
}

// addChild creates a child profile for test setup
func (env *testEnv) addChild(t *testing.T, parentID int64, name string) int64 {
	t.Helper()
	child, err := env.family.AddChild(parentID, ChildInput{Name: name})
	if err != nil {
		t.Fatalf("Failed to add child: %v", err)
	}
	return child.ID
}

// childPoints reads a child's current balance
func (env *testEnv) childPoints(t *testing.T, childID int64) int {
	t.Helper()
	child, err := env.childRepo.GetChildByID(childID)
	if err != nil || child == nil {
		t.Fatalf("Failed to get child %d: %v", childID, err)
	}
	return child.Points
}
