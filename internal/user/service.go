package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/apperr"
	"github.com/vasiliy-maslov/storefront/internal/identity"
	"github.com/vasiliy-maslov/storefront/internal/notify"
	"github.com/vasiliy-maslov/storefront/internal/paging"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 6
	maxNameLength     = 50
	maxPhoneLength    = 32
)

type Service interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	ListUsers(ctx context.Context, filter ListFilter) (*ListPage, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) (*User, error)
	ToggleStatus(ctx context.Context, id uuid.UUID) (*User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error)
	Wishlist(ctx context.Context, userID uuid.UUID) ([]WishlistItem, error)
	AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]WishlistItem, error)
	// Lookup resolves a user's contact details, role and account state.
	Lookup(ctx context.Context, id uuid.UUID) (identity.Contact, error)
}

type service struct {
	repo     Repository
	notifier notify.Sender
	timeout  time.Duration
}

func NewService(repo Repository, notifier notify.Sender) Service {
	return &service{repo: repo, notifier: notifier, timeout: 5 * time.Second}
}

func (s *service) Register(ctx context.Context, in RegisterInput) (*User, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" || len(name) > maxNameLength {
		return nil, apperr.InvalidArgument("name must be between 1 and %d characters", maxNameLength)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.InvalidArgument("invalid email address")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.InvalidArgument("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to generate password hash")
		return nil, fmt.Errorf("service: internal error hashing password: %w", err)
	}

	user := &User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         identity.RoleUser,
		IsActive:     true,
	}

	createdID, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("user with this email already exists")
		}
		log.Error().Err(err).Msg("service: failed to create user in repository")
		return nil, fmt.Errorf("service: failed to save user: %w", err)
	}
	user.ID = createdID

	log.Info().Stringer("user_id", user.ID).Msg("service: user registered")
	s.sendWelcome(ctx, user)
	return user, nil
}

func (s *service) sendWelcome(ctx context.Context, user *User) {
	if s.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	if err := s.notifier.Send(ctx, notify.Welcome(user.Email, user.Name)); err != nil {
		log.Warn().Err(err).Stringer("user_id", user.ID).Msg("service: error sending welcome message")
	}
}

func (s *service) GetUserByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to get user by id in repository")
		return nil, fmt.Errorf("service: failed to get user by id '%s': %w", id, err)
	}
	return user, nil
}

func (s *service) Lookup(ctx context.Context, id uuid.UUID) (identity.Contact, error) {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return identity.Contact{}, err
	}
	return identity.Contact{Name: user.Name, Email: user.Email, Role: user.Role, IsActive: user.IsActive}, nil
}

func (s *service) ListUsers(ctx context.Context, filter ListFilter) (*ListPage, error) {
	if filter.Role != "" && filter.Role != identity.RoleUser && filter.Role != identity.RoleAdmin {
		return nil, apperr.InvalidArgument("invalid role %q", filter.Role)
	}
	filter.Page, filter.Limit = paging.Normalize(filter.Page, filter.Limit, paging.DefaultLimit)

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list users")
		return nil, fmt.Errorf("service: failed to list users: %w", err)
	}

	return &ListPage{
		Users:       users,
		TotalUsers:  total,
		CurrentPage: filter.Page,
		TotalPages:  paging.TotalPages(total, filter.Limit),
	}, nil
}

func (s *service) UpdateRole(ctx context.Context, id uuid.UUID, role string) (*User, error) {
	if role != identity.RoleUser && role != identity.RoleAdmin {
		return nil, apperr.InvalidArgument("invalid role %q", role)
	}

	user, err := s.repo.UpdateRole(ctx, id, role)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to update user role")
		return nil, fmt.Errorf("service: failed to update role for user '%s': %w", id, err)
	}

	log.Info().Stringer("user_id", id).Str("role", role).Msg("service: user role updated")
	return user, nil
}

func (s *service) ToggleStatus(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := s.repo.ToggleActive(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to toggle user status")
		return nil, fmt.Errorf("service: failed to toggle status for user '%s': %w", id, err)
	}

	log.Info().Stringer("user_id", id).Bool("is_active", user.IsActive).Msg("service: user status toggled")
	return user, nil
}

func (s *service) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error) {
	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" || len(name) > maxNameLength {
			return nil, apperr.InvalidArgument("name must be between 1 and %d characters", maxNameLength)
		}
		upd.Name = &name
	}
	if upd.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*upd.Email))
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperr.InvalidArgument("invalid email address")
		}
		upd.Email = &email
	}
	if upd.Phone != nil {
		phone := strings.TrimSpace(*upd.Phone)
		if len(phone) > maxPhoneLength {
			return nil, apperr.InvalidArgument("phone must be at most %d characters", maxPhoneLength)
		}
		upd.Phone = &phone
	}

	user, err := s.repo.UpdateProfile(ctx, id, upd)
	if err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			return nil, err
		case errors.Is(err, apperr.ErrConflict):
			return nil, apperr.Conflict("user with this email already exists")
		}
		log.Error().Err(err).Stringer("user_id", id).Msg("service: failed to update user profile")
		return nil, fmt.Errorf("service: failed to update profile for user '%s': %w", id, err)
	}

	log.Info().Stringer("user_id", id).Msg("service: user profile updated")
	return user, nil
}

func (s *service) Wishlist(ctx context.Context, userID uuid.UUID) ([]WishlistItem, error) {
	items, err := s.repo.Wishlist(ctx, userID)
	if err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Msg("service: failed to load wishlist")
		return nil, fmt.Errorf("service: failed to load wishlist: %w", err)
	}
	return items, nil
}

func (s *service) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) ([]WishlistItem, error) {
	if err := s.repo.AddToWishlist(ctx, userID, productID); err != nil {
		switch {
		case errors.Is(err, apperr.ErrConflict):
			return nil, apperr.InvalidArgument("Product already in wishlist")
		case errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("service: failed to add to wishlist")
		return nil, fmt.Errorf("service: failed to add to wishlist: %w", err)
	}

	log.Info().Stringer("user_id", userID).Stringer("product_id", productID).Msg("service: product added to wishlist")
	return s.Wishlist(ctx, userID)
}

// RemoveFromWishlist succeeds even when the product was not listed.
func (s *service) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) ([]WishlistItem, error) {
	if err := s.repo.RemoveFromWishlist(ctx, userID, productID); err != nil {
		log.Error().Err(err).Stringer("user_id", userID).Stringer("product_id", productID).Msg("service: failed to remove from wishlist")
		return nil, fmt.Errorf("service: failed to remove from wishlist: %w", err)
	}
	return s.Wishlist(ctx, userID)
}
