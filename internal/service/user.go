package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Skotchmaster/phone_shop/internal/models"
	"github.com/Skotchmaster/phone_shop/internal/repo"
	"github.com/Skotchmaster/phone_shop/internal/transport"
	"github.com/Skotchmaster/phone_shop/pkg/hash"
	"github.com/Skotchmaster/phone_shop/pkg/tokens"
)

const topicUserEvents = "user_events"

type UserService struct {
	Repo   *repo.GormRepo
	Events EventPublisher
}

// validatePassword counts characters for the lower bound and bytes for the
// upper one, since bcrypt stops reading after hash.MaxPasswordBytes.
func validatePassword(p string) error {
	if err := checkVar("password", p, "min=8"); err != nil {
		return err
	}
	if len(p) > hash.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", ErrValidation, hash.MaxPasswordBytes)
	}
	return nil
}

func (s *UserService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.FirstName = strings.TrimSpace(req.FirstName)
	req.SecondName = strings.TrimSpace(req.SecondName)
	req.Surname = strings.TrimSpace(req.Surname)
	req.NumberTelephone = strings.TrimSpace(req.NumberTelephone)
	if err := checkStruct(req); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	username := req.Username

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &models.User{
		Username:        username,
		Email:           req.Email,
		PasswordHash:    pwHash,
		FirstName:       req.FirstName,
		SecondName:      req.SecondName,
		Surname:         req.Surname,
		NumberTelephone: req.NumberTelephone,
		BirthDate:       req.BirthDate,
		Role:            tokens.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, fmt.Errorf("%w: username %q is taken", ErrConflict, username)
		}
		return nil, storeErr("insert user", err)
	}

	publish(ctx, s.Events, topicUserEvents, strconv.FormatUint(uint64(user.ID), 10), map[string]any{
		"type":     "user_registered",
		"user_id":  user.ID,
		"username": user.Username,
	})
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	u, err := s.Repo.GetUser(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("read user %d", id), err)
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, offset, limit int) (int64, []models.User, error) {
	total, users, err := s.Repo.ListUsers(ctx, offset, limit)
	if err != nil {
		return 0, nil, storeErr("list users", err)
	}
	return total, users, nil
}

// PatchUser updates profile fields. Role is honored only when asAdmin is set.
func (s *UserService) PatchUser(ctx context.Context, id uint, req transport.PatchUserRequest, asAdmin bool) (*models.User, error) {
	fields, err := nameFields(false, req.FirstName, req.SecondName, req.Surname)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if err := checkVar("email", email, "omitempty,email,max=254"); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if req.Password != nil {
		if err := validatePassword(*req.Password); err != nil {
			return nil, err
		}
		pwHash, err := hash.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		fields["password_hash"] = pwHash
	}
	if req.NumberTelephone != nil {
		phone := strings.TrimSpace(*req.NumberTelephone)
		if err := checkVar("number_telephone", phone, "max=20"); err != nil {
			return nil, err
		}
		fields["number_telephone"] = phone
	}
	if req.BirthDate != nil {
		fields["birth_date"] = *req.BirthDate
	}
	if req.Role != nil {
		if !asAdmin {
			return nil, fmt.Errorf("%w: role can only be changed by an admin", ErrForbidden)
		}
		if *req.Role != tokens.RoleUser && *req.Role != tokens.RoleAdmin {
			return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, *req.Role)
		}
		fields["role"] = *req.Role
	}

	u, err := s.Repo.UpdateUser(ctx, id, fields)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("update user %d", id), err)
	}
	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteUser(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("delete user %d", id), err)
	}
	publish(ctx, s.Events, topicUserEvents, strconv.FormatUint(uint64(id), 10), map[string]any{
		"type":    "user_deleted",
		"user_id": id,
	})
	return nil
}
