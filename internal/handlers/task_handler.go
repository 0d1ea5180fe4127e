package handlers

import (
	"net/http"

	"taskjar/internal/service"
)

// TaskHandler handles task registry HTTP requests
type TaskHandler struct {
	taskService *service.TaskService
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

type addTasksRequest struct {
	Tasks []struct {
		Description string `json:"description"`
		ImageURL    string `json:"imageUrl"`
		DueDate     string `json:"dueDate"`
	} `json:"tasks"`
}

// AddTasks bulk-creates tasks for a child; parent only
func (h *TaskHandler) AddTasks(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	var req addTasksRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	inputs := make([]service.TaskInput, 0, len(req.Tasks))
	for _, task := range req.Tasks {
		inputs = append(inputs, service.TaskInput{
			Description: task.Description,
			ImageURL:    task.ImageURL,
			DueDate:     task.DueDate,
		})
	}

	created, err := h.taskService.AddTasks(actor.ID, childID, inputs)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTaskResponses(created))
}

// TasksForDate lists a child's tasks for one calendar date.
// Parents see their own children's tasks; a child token sees only its own.
func (h *TaskHandler) TasksForDate(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	date := r.URL.Query().Get("date")

	tasks, err := h.taskService.TasksForDate(actor, childID, date)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

type setCompletionRequest struct {
	Completed bool `json:"completed"`
}

// SetCompletion toggles a task's completion flag
func (h *TaskHandler) SetCompletion(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	taskID, err := parseID(r.PathValue("taskId"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	var req setCompletionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	task, err := h.taskService.SetCompletion(actor, childID, taskID, req.Completed)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toTaskResponse(task))
}

// DeleteTask removes a task; parent only
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}
	taskID, err := parseID(r.PathValue("taskId"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := h.taskService.DeleteTask(actor.ID, childID, taskID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
