package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"elderlink/internal/models"
	"elderlink/internal/repositories"
	"elderlink/internal/utils"
)

type UserService struct {
	users    UserStore
	sessions SessionStore
}

func NewUserService(users UserStore, sessions SessionStore) *UserService {
	return &UserService{users: users, sessions: sessions}
}

type UpdateProfileInput struct {
	Name            *string
	Phone           *string
	CurrentPassword string
	NewPassword     string
}

type AdminUpdateInput struct {
	Role   *models.Role
	Status *string
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("name cannot be empty: %w", ErrValidation)
		}
		user.Name = name
	}
	if in.Phone != nil {
		user.Phone = utils.StringPtr(*in.Phone)
	}
	if in.NewPassword != "" {
		if err := utils.VerifyPassword(user.PasswordHash, in.CurrentPassword); err != nil {
			return nil, fmt.Errorf("current password is incorrect: %w", ErrForbidden)
		}
		hash, err := utils.HashPassword(in.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) List(ctx context.Context, role, status string, page utils.Pagination) ([]models.User, int64, error) {
	if role != "" && !models.Role(role).Valid() {
		return nil, 0, fmt.Errorf("unknown role %q: %w", role, ErrValidation)
	}
	return s.users.List(ctx, repositories.UserFilter{
		Role:   role,
		Status: status,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
}

// AdminUpdate changes role and/or status. An admin cannot change their own
// role or status, and the last active admin cannot be demoted or disabled.
func (s *UserService) AdminUpdate(ctx context.Context, actorID, targetID uuid.UUID, in AdminUpdateInput) (*models.User, error) {
	user, err := s.Get(ctx, targetID)
	if err != nil {
		return nil, err
	}

	demoting := in.Role != nil && *in.Role != user.Role && user.Role == models.RoleAdmin
	disabling := in.Status != nil && *in.Status == models.UserStatusDisabled && user.Status != models.UserStatusDisabled

	if actorID == targetID && (in.Role != nil && *in.Role != user.Role || disabling) {
		return nil, fmt.Errorf("admins cannot change their own role or status: %w", ErrForbidden)
	}
	if user.Role == models.RoleAdmin && (demoting || disabling) {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return nil, err
		}
	}

	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("unknown role %q: %w", *in.Role, ErrValidation)
		}
		user.Role = *in.Role
	}
	if in.Status != nil {
		if *in.Status != models.UserStatusActive && *in.Status != models.UserStatusDisabled {
			return nil, fmt.Errorf("unknown status %q: %w", *in.Status, ErrValidation)
		}
		user.Status = *in.Status
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if disabling {
		s.revokeSessions(ctx, user.ID)
	}

	log.WithFields(log.Fields{"actor_id": actorID, "user_id": user.ID, "role": user.Role, "status": user.Status}).
		Info("User updated by admin")
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actorID, targetID uuid.UUID) error {
	if actorID == targetID {
		return fmt.Errorf("admins cannot delete themselves: %w", ErrForbidden)
	}
	user, err := s.Get(ctx, targetID)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin && user.IsActive() {
		if err := s.ensureAnotherAdmin(ctx); err != nil {
			return err
		}
	}
	if err := s.users.SoftDelete(ctx, targetID); err != nil {
		return err
	}
	s.revokeSessions(ctx, targetID)
	return nil
}

func (s *UserService) ensureAnotherAdmin(ctx context.Context) error {
	admins, err := s.users.CountActiveByRole(ctx, models.RoleAdmin)
	if err != nil {
		return err
	}
	if admins <= 1 {
		return fmt.Errorf("cannot remove the last admin: %w", ErrConflict)
	}
	return nil
}

func (s *UserService) revokeSessions(ctx context.Context, userID uuid.UUID) {
	if err := s.sessions.RevokeAllForUser(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Failed to revoke sessions")
	}
}
