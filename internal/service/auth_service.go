package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"taskjar/internal/models"
	"taskjar/internal/repository"
	"taskjar/internal/security"
	"taskjar/internal/validation"
)

// ChildInput holds the parent-supplied fields for creating or updating a child profile
type ChildInput struct {
	Name      string
	BirthDate string
	Gender    string
	AvatarURL string
}

// AuthService handles parent and child authentication business logic:
// registration, logins, PIN credential management, and the lockout policy.
type AuthService struct {
	parentRepo     *repository.ParentRepository
	childRepo      *repository.ChildRepository
	tokens         *security.TokenIssuer
	maxPinAttempts int
	lockoutWindow  time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(parentRepo *repository.ParentRepository, childRepo *repository.ChildRepository, tokens *security.TokenIssuer, maxPinAttempts int, lockoutWindow time.Duration) *AuthService {
	return &AuthService{
		parentRepo:     parentRepo,
		childRepo:      childRepo,
		tokens:         tokens,
		maxPinAttempts: maxPinAttempts,
		lockoutWindow:  lockoutWindow,
	}
}

// Register creates a new parent account with optional initial child
// profiles and returns the parent plus a session token.
func (s *AuthService) Register(username, email, password string, kids []ChildInput) (*models.Parent, string, error) {
	if err := validation.ValidateName(username); err != nil {
		return nil, "", err
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, "", err
	}
	for _, kid := range kids {
		if err := validation.ValidateName(kid.Name); err != nil {
			return nil, "", err
		}
		if kid.BirthDate != "" {
			if _, err := validation.ValidateDate("birthDate", kid.BirthDate); err != nil {
				return nil, "", err
			}
		}
	}

	existing, err := s.parentRepo.GetParentByEmail(email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check existing parent: %w", err)
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	parent, err := s.parentRepo.CreateParent(username, email, passwordHash)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create parent: %w", err)
	}

	for _, kid := range kids {
		if _, err := s.childRepo.CreateChild(parent.ID, kid.Name, kid.BirthDate, kid.Gender, kid.AvatarURL); err != nil {
			return nil, "", fmt.Errorf("failed to create child: %w", err)
		}
	}

	token, err := s.tokens.Issue(parent.ID, security.RoleParent)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue token: %w", err)
	}

	return parent, token, nil
}

// Login authenticates a parent and returns a session token. Unknown emails
// and wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(email, password string) (string, error) {
	parent, err := s.parentRepo.GetParentByEmail(email)
	if err != nil {
		return "", fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return "", ErrInvalidCredentials
	}

	if !security.CheckPassword(password, parent.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(parent.ID, security.RoleParent)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

// Parent returns a parent's account profile
func (s *AuthService) Parent(parentID int64) (*models.Parent, error) {
	parent, err := s.parentRepo.GetParentByID(parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return nil, ErrNotFound
	}
	return parent, nil
}

// SetChildPin configures or replaces a child's 4-digit PIN. Any existing
// lock state is cleared so the child gets a fresh attempt window.
func (s *AuthService) SetChildPin(parentID, childID int64, pin string) error {
	if err := validation.ValidatePIN(pin); err != nil {
		return err
	}

	if _, err := s.ownedChild(parentID, childID); err != nil {
		return err
	}

	pinHash, err := security.HashPassword(pin)
	if err != nil {
		return fmt.Errorf("failed to hash pin: %w", err)
	}

	if err := s.childRepo.SetPin(childID, pinHash); err != nil {
		return fmt.Errorf("failed to store pin: %w", err)
	}

	return nil
}

// RemoveChildPin clears the child's PIN credential and lock state. Idempotent.
func (s *AuthService) RemoveChildPin(parentID, childID int64) error {
	if _, err := s.ownedChild(parentID, childID); err != nil {
		return err
	}

	if err := s.childRepo.ClearPin(childID); err != nil {
		return fmt.Errorf("failed to clear pin: %w", err)
	}

	return nil
}

// LoginChild verifies a child's PIN and returns a session token, enforcing
// the lockout policy: after maxPinAttempts consecutive failures the
// credential locks for lockoutWindow. Attempts during the lock are rejected
// without consuming an attempt; an expired lock resets the counter before
// the submitted PIN is evaluated.
func (s *AuthService) LoginChild(childID int64, pin string) (string, error) {
	child, err := s.childRepo.GetChildByID(childID)
	if err != nil {
		return "", fmt.Errorf("failed to get child: %w", err)
	}
	if child == nil {
		return "", ErrChildNotFound
	}

	if !child.HasPin() {
		return "", ErrNoPinConfigured
	}

	now := time.Now()
	if child.IsLocked(now) {
		return "", &AccountLockedError{RetryAfter: child.LockedUntil.Sub(now)}
	}

	attempts := child.FailedAttempts
	if child.LockedUntil != nil {
		// lock expired: fresh attempt window
		attempts = 0
	}

	if !security.CheckPassword(pin, *child.PinHash) {
		attempts++
		var lockedUntil *time.Time
		if attempts >= s.maxPinAttempts {
			until := now.Add(s.lockoutWindow)
			lockedUntil = &until
		}
		if err := s.childRepo.UpdateLockState(childID, attempts, lockedUntil); err != nil {
			return "", fmt.Errorf("failed to update lock state: %w", err)
		}
		return "", ErrInvalidPin
	}

	if err := s.childRepo.RecordLogin(childID, now); err != nil {
		return "", fmt.Errorf("failed to record login: %w", err)
	}

	token, err := s.tokens.Issue(childID, security.RoleChild)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}

	return token, nil
}

// ListChildrenByParentEmail returns the public child summaries for the
// kid-login picker. The summary says whether a PIN is set but never
// exposes the hash.
func (s *AuthService) ListChildrenByParentEmail(email string) ([]models.ChildSummary, error) {
	parent, err := s.parentRepo.GetParentByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return nil, ErrNotFound
	}

	children, err := s.childRepo.GetParentChildren(parent.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get children: %w", err)
	}

	summaries := make([]models.ChildSummary, 0, len(children))
	for _, child := range children {
		summaries = append(summaries, models.ChildSummary{
			ID:        child.ID,
			Name:      child.Name,
			AvatarURL: child.AvatarURL,
			HasPinSet: child.HasPin(),
		})
	}

	return summaries, nil
}

// RequestPasswordReset creates a password reset token and sends an email.
// Unknown emails succeed silently so the endpoint doesn't reveal which
// addresses have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, emailService *EmailService, email string) error {
	parent, err := s.parentRepo.GetParentByEmail(email)
	if err != nil {
		return fmt.Errorf("failed to get parent: %w", err)
	}
	if parent == nil {
		return nil
	}

	token, err := generateSecureToken(32)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	// One live token per parent
	_ = s.parentRepo.DeleteParentPasswordResetTokens(parent.ID)

	expiresAt := time.Now().Add(1 * time.Hour)
	if err := s.parentRepo.CreatePasswordResetToken(token, parent.ID, expiresAt); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	if emailService != nil && emailService.IsEnabled() {
		if err := emailService.SendPasswordResetEmail(ctx, parent.Email, parent.Username, token); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}

	return nil
}

// ResetPassword resets a parent's password using a valid token
func (s *AuthService) ResetPassword(token, newPassword string) error {
	resetToken, err := s.parentRepo.GetPasswordResetToken(token)
	if err != nil {
		return fmt.Errorf("failed to get reset token: %w", err)
	}

	if resetToken == nil {
		return errors.New("invalid or expired reset token")
	}
	if resetToken.Used {
		return errors.New("this reset link has already been used")
	}
	if resetToken.IsExpired() {
		return errors.New("this reset link has expired")
	}

	if err := validation.ValidatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.parentRepo.UpdatePassword(resetToken.ParentID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.parentRepo.MarkPasswordResetTokenAsUsed(token); err != nil {
		return fmt.Errorf("failed to mark token as used: %w", err)
	}

	return nil
}

// CleanupExpiredPasswordResetTokens removes expired reset tokens
func (s *AuthService) CleanupExpiredPasswordResetTokens() error {
	if err := s.parentRepo.DeleteExpiredPasswordResetTokens(); err != nil {
		return fmt.Errorf("failed to cleanup reset tokens: %w", err)
	}
	return nil
}

// ownedChild loads a child and checks the caller parent owns it
func (s *AuthService) ownedChild(parentID, childID int64) (*models.Child, error) {
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

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
