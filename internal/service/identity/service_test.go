package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexvent/nexvent/internal/auth"
	"github.com/nexvent/nexvent/internal/domain"
	"github.com/nexvent/nexvent/internal/repository"
)

type fakeUserStore struct {
	byEmail map[string]*domain.User
	byID    map[int64]*domain.User
	nextID  int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]*domain.User),
		byID:    make(map[int64]*domain.User),
		nextID:  1,
	}
}

func (f *fakeUserStore) Create(_ context.Context, u *domain.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return fmt.Errorf("fake: %w", repository.ErrConflict)
	}
	u.ID = f.nextID
	f.nextID++
	cp := *u
	f.byEmail[u.Email] = &cp
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) UpdateProfile(_ context.Context, id int64, name, mobile, imageURL string) (*domain.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, fmt.Errorf("fake: %w", repository.ErrNotFound)
	}
	if name != "" {
		u.Name = name
	}
	if mobile != "" {
		u.Mobile = mobile
	}
	if imageURL != "" {
		u.ImageURL = imageURL
	}
	cp := *u
	return &cp, nil
}

func newTestService() (*Service, *fakeUserStore, *auth.Manager) {
	store := newFakeUserStore()
	tokens := auth.NewManager("test-secret", time.Hour)
	return New(store, tokens), store, tokens
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("creates user and issues usable token", func(t *testing.T) {
		svc, _, tokens := newTestService()

		u, token, err := svc.Register(ctx, RegisterInput{
			Name:     "Asha",
			Email:    "Asha@Example.com",
			Password: "hunter22",
			Mobile:   "9999999999",
		})
		require.NoError(t, err)
		assert.Equal(t, "asha@example.com", u.Email)
		assert.NotEqual(t, "hunter22", u.PasswordHash)

		userID, err := tokens.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, u.ID, userID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, _, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.c", Password: "pass123"})
		require.NoError(t, err)

		_, _, err = svc.Register(ctx, RegisterInput{Name: "B", Email: "a@b.c", Password: "pass456"})
		assert.ErrorIs(t, err, ErrDuplicateUser)
	})

	t.Run("missing fields", func(t *testing.T) {
		svc, _, _ := newTestService()

		_, _, err := svc.Register(ctx, RegisterInput{Email: "a@b.c"})
		var ve ValidationError
		assert.ErrorAs(t, err, &ve)
	})
}

func TestService_Login(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestService()

	_, _, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "hunter22"})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		u, token, err := svc.Login(ctx, "asha@example.com", "hunter22")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, "asha@example.com", u.Email)
	})

	t.Run("unknown email and wrong password fail identically", func(t *testing.T) {
		_, _, errUnknown := svc.Login(ctx, "nobody@example.com", "hunter22")
		_, _, errWrongPass := svc.Login(ctx, "asha@example.com", "wrong")

		assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
		assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	})
}

func TestService_Profile(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _, _ := newTestService()

	u, _, err := svc.Register(ctx, RegisterInput{Name: "Asha", Email: "asha@example.com", Password: "hunter22"})
	require.NoError(t, err)

	t.Run("read", func(t *testing.T) {
		got, err := svc.Profile(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "Asha", got.Name)
	})

	t.Run("update keeps empty fields", func(t *testing.T) {
		got, err := svc.UpdateProfile(ctx, u.ID, "", "8888888888", "")
		require.NoError(t, err)
		assert.Equal(t, "Asha", got.Name)
		assert.Equal(t, "8888888888", got.Mobile)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Profile(ctx, 9999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}
