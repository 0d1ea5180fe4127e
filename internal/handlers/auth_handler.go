package handlers

import (
	"net/http"
	"strconv"

	"taskjar/internal/service"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService  *service.AuthService
	emailService *service.EmailService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, emailService *service.EmailService) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		emailService: emailService,
	}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Kids     []struct {
		Name      string `json:"name"`
		BirthDate string `json:"birthDate"`
		Gender    string `json:"gender"`
		AvatarURL string `json:"avatarUrl"`
	} `json:"kids"`
}

// Register handles parent registration with optional initial children
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	kids := make([]service.ChildInput, 0, len(req.Kids))
	for _, kid := range req.Kids {
		kids = append(kids, service.ChildInput{
			Name:      kid.Name,
			BirthDate: kid.BirthDate,
			Gender:    kid.Gender,
			AvatarURL: kid.AvatarURL,
		})
	}

	parent, token, err := h.authService.Register(req.Username, req.Email, req.Password, kids)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{ParentID: parent.ID, Token: token})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles parent login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	token, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// KidLoginChildren lists a parent's children for the kid-login picker
func (h *AuthHandler) KidLoginChildren(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	summaries, err := h.authService.ListChildrenByParentEmail(email)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	responses := make([]childSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		responses = append(responses, childSummaryResponse{
			ChildID:   s.ID,
			Name:      s.Name,
			AvatarURL: s.AvatarURL,
			HasPinSet: s.HasPinSet,
		})
	}

	writeJSON(w, http.StatusOK, responses)
}

type kidLoginRequest struct {
	ChildID int64  `json:"childId"`
	Pin     string `json:"pin"`
}

// KidLogin handles child PIN login
func (h *AuthHandler) KidLogin(w http.ResponseWriter, r *http.Request) {
	var req kidLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	token, err := h.authService.LoginChild(req.ChildID, req.Pin)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// Me returns the calling parent's own profile
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())

	parent, err := h.authService.Parent(actor.ID)
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, parentResponse{
		ID:       parent.ID,
		Username: parent.Username,
		Email:    parent.Email,
	})
}

type setPinRequest struct {
	Pin string `json:"pin"`
}

// SetChildPin configures a child's PIN; parent only
func (h *AuthHandler) SetChildPin(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	var req setPinRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := h.authService.SetChildPin(actor.ID, childID, req.Pin); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveChildPin removes a child's PIN; parent only, idempotent
func (h *AuthHandler) RemoveChildPin(w http.ResponseWriter, r *http.Request) {
	actor, _ := GetActorFromContext(r.Context())
	childID, err := parseID(r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := h.authService.RemoveChildPin(actor.ID, childID); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type passwordResetRequest struct {
	Email string `json:"email"`
}

// RequestPasswordReset starts the password reset flow. Always responds 202
// so the endpoint doesn't reveal which emails have accounts.
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := h.authService.RequestPasswordReset(r.Context(), h.emailService, req.Email); err != nil {
		respondWithServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

type passwordResetConfirm struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ConfirmPasswordReset consumes a reset token and sets the new password
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req passwordResetConfirm
	if err := decodeJSON(r, &req); err != nil {
		respondWithServiceError(w, err)
		return
	}

	if err := h.authService.ResetPassword(req.Token, req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseID parses a numeric path segment
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, service.ErrNotFound
	}
	return id, nil
}
