package handlers

import (
	"net/http"

	"taskjar/internal/service"
)

// ChildHandler handles child profile management and points operations
type ChildHandler struct {
	familyService *service.FamilyService
}

// NewChildHandler creates a new child handler
func NewChildHandler(familyService *service.FamilyService) *ChildHandler {
	return &ChildHandler{familyService: familyService}
}

type childRequest struct {
	Name      string `json:"name"`
	BirthDate string `json:"birthDate"`
	Gender    string `json:"gender"`
	AvatarURL string `json:"avatarUrl"`
}

// CreateChild adds a new child profile under the calling parent
func (h *ChildHandler) CreateChild(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())

	var req childRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	child, err := h.familyService.AddChild(actor.ID, service.ChildInput{
		Name:      req.Name,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toChildResponse(child))
}

// ListChildren lists the calling parent's children
func (h *ChildHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())

	children, err := h.familyService.Children(actor.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toChildResponses(children))
}

// GetChild returns one child owned by the calling parent
func (h *ChildHandler) GetChild(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	child, err := h.familyService.Child(actor.ID, childID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toChildResponse(child))
}

// UpdateChild updates a child's profile fields
func (h *ChildHandler) UpdateChild(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	var req childRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	child, err := h.familyService.UpdateChild(actor.ID, childID, service.ChildInput{
		Name:      req.Name,
		BirthDate: req.BirthDate,
		Gender:    req.Gender,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toChildResponse(child))
}

// DeleteChild removes a child profile
func (h *ChildHandler) DeleteChild(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := h.familyService.DeleteChild(actor.ID, childID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// KidProfile returns the calling child's own profile. The child token
// carries the child ID, so no ownership lookup is needed.
func (h *ChildHandler) KidProfile(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())

	child, err := h.familyService.ChildByID(actor.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toChildResponse(child))
}

type overridePointsRequest struct {
	Points int `json:"points"`
}

// OverridePoints sets a child's balance to an absolute value
func (h *ChildHandler) OverridePoints(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	var req overridePointsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	child, err := h.familyService.OverridePoints(actor.ID, childID, req.Points)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toChildResponse(child))
}

// PointsHistory returns a child's points audit trail
func (h *ChildHandler) PointsHistory(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	entries, err := h.familyService.PointsHistory(actor.ID, childID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPointsEntryResponses(entries))
}
