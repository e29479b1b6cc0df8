package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-sis/meridian-sis/internal/platform/httpx"
)

type fakeRepo struct {
	byID   map[int64]*User
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byID: make(map[int64]*User), nextID: 1}
}

func (f *fakeRepo) Get(_ context.Context, id int64) (*User, error) {
	user, ok := f.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

func (f *fakeRepo) List(context.Context, ListFilter) ([]User, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) Create(_ context.Context, user User) (*User, error) {
	user.ID = f.nextID
	f.nextID++
	f.byID[user.ID] = &user
	return &user, nil
}

func (f *fakeRepo) Update(_ context.Context, id int64, updates map[string]any) error {
	user, ok := f.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	if v, ok := updates["name"]; ok {
		user.Name = v.(string)
	}
	if v, ok := updates["password_hash"]; ok {
		user.PasswordHash = v.(string)
	}
	if v, ok := updates["is_active"]; ok {
		user.IsActive = v.(bool)
	}
	return nil
}

func TestCreateHashesPasswordAndNormalizesEmail(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "  Registrar@Campus.EDU ",
		Name:     "Dana Whitfield",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.Equal(t, "registrar@campus.edu", user.Email)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse battery")))
}

func TestResetPasswordReplacesHash(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "a@campus.edu", Name: "A", Password: "first password",
	})
	require.NoError(t, err)

	require.NoError(t, svc.ResetPassword(context.Background(), user.ID, "second password"))
	updated, err := svc.Get(context.Background(), user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("second password")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("first password")))
}

func TestUpdateDeactivatesAccount(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email: "b@campus.edu", Name: "B", Password: "some password!",
	})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserRequest{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
}
