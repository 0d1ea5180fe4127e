package handlers

import (
	"time"

	"taskjar/internal/models"
)

// tokenResponse carries a freshly issued session token
type tokenResponse struct {
	Token string `json:"token"`
}

// registerResponse is returned on successful parent registration
type registerResponse struct {
	ParentID int64  `json:"parentId"`
	Token    string `json:"token"`
}

// parentResponse is the authenticated parent's own profile view
type parentResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// childResponse is the parent-facing view of a child profile
type childResponse struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	BirthDate string     `json:"birthDate,omitempty"`
	Age       int        `json:"age"`
	Gender    string     `json:"gender,omitempty"`
	AvatarURL string     `json:"avatarUrl,omitempty"`
	Points    int        `json:"points"`
	HasPinSet bool       `json:"hasPinSet"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

// childSummaryResponse is the public kid-login picker view
type childSummaryResponse struct {
	ChildID   int64  `json:"childId"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar,omitempty"`
	HasPinSet bool   `json:"hasPinSet"`
}

// taskResponse is the API view of a task
type taskResponse struct {
	ID          int64  `json:"id"`
	ChildID     int64  `json:"childId"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
	DueDate     string `json:"dueDate"`
	Done        bool   `json:"done"`
}

// pointsEntryResponse is one audit trail row
type pointsEntryResponse struct {
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"createdAt"`
}

func toChildResponse(child *models.Child) childResponse {
	return childResponse{
		ID:        child.ID,
		Name:      child.Name,
		BirthDate: child.BirthDate,
		Age:       child.Age(time.Now()),
		Gender:    child.Gender,
		AvatarURL: child.AvatarURL,
		Points:    child.Points,
		HasPinSet: child.HasPin(),
		LastLogin: child.LastLogin,
	}
}

func toChildResponses(children []models.Child) []childResponse {
	responses := make([]childResponse, 0, len(children))
	for i := range children {
		responses = append(responses, toChildResponse(&children[i]))
	}
	return responses
}

func toTaskResponse(task *models.Task) taskResponse {
	return taskResponse{
		ID:          task.ID,
		ChildID:     task.ChildID,
		Description: task.Description,
		ImageURL:    task.ImageURL,
		DueDate:     task.DueDate,
		Done:        task.Done,
	}
}

func toTaskResponses(tasks []models.Task) []taskResponse {
	responses := make([]taskResponse, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, toTaskResponse(&tasks[i]))
	}
	return responses
}

func toPointsEntryResponses(entries []models.PointsEntry) []pointsEntryResponse {
	responses := make([]pointsEntryResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, pointsEntryResponse{
			Delta:     entry.Delta,
			Reason:    entry.Reason,
			CreatedAt: entry.CreatedAt,
		})
	}
	return responses
}
