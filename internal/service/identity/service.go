package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nexvent/nexvent/internal/auth"
	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/repository"
)

// UserStore is the slice of the user repository the service needs.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, name, mobile, imageURL string) (*domain.User, error)
}

type Service struct {
	users  UserStore
	tokens *auth.Manager
}

func New(users UserStore, tokens *auth.Manager) *Service {
	return &Service{users: users, tokens: tokens}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Mobile   string
}

// Register creates a user account and signs them in.
//
// Parameters:
//   - ctx: request-scoped context.
//   - in: the registration payload.
//
// Returns:
//   - *domain.User: the created user.
//   - string: a bearer token for the new account.
//   - error: identity.ErrDuplicateUser if the email is taken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, string, error) {
	const op = "service.identity.Register"

	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, "", fmt.Errorf("%s: %w", op, ValidationError{Msg: "name, email and password are required"})
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	u := &domain.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Mobile:       in.Mobile,
	}
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrDuplicateUser)
		}

		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return u, token, nil
}

// Login verifies the credentials and issues a token. An unknown email and a
// wrong password fail with the same error so the endpoint does not leak which
// addresses are registered.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	const op = "service.identity.Login"

	email = strings.ToLower(strings.TrimSpace(email))

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	return u, token, nil
}

func (s *Service) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	const op = "service.identity.Profile"

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// UpdateProfile changes name, mobile, or avatar. Empty fields keep their
// current values. Email and password are not updatable here.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID int64,
	name, mobile, imageURL string,
) (*domain.User, error) {
	const op = "service.identity.UpdateProfile"

	u, err := s.users.UpdateProfile(ctx, userID, name, mobile, imageURL)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}
