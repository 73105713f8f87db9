package auth

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type memoryUserRepo struct {
	users map[string]*User
}

func (m *memoryUserRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.users[email]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (m *memoryUserRepo) Get(_ context.Context, id int64) (*User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, ErrInvalidCredentials
}

func newAuthFixture(t *testing.T, ttl time.Duration) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	repo := &memoryUserRepo{users: map[string]*User{
		"agent@escale.sn": {ID: 1, Email: "agent@escale.sn", Name: "Agent", PasswordHash: hash, IsActive: true},
		"former@escale.sn": {ID: 2, Email: "former@escale.sn", PasswordHash: hash, IsActive: false},
	}}
	return NewService(repo, NewTokenStore(client, ttl)), mr
}

func TestLoginIssuesToken(t *testing.T) {
	svc, _ := newAuthFixture(t, time.Hour)
	ctx := context.Background()

	user, session, err := svc.Login(ctx, LoginInput{Email: "agent@escale.sn", Password: "s3cret"})
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)
	require.NotEmpty(t, session.Token)

	resolved, err := svc.Resolve(ctx, session.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, resolved.ID)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	svc, _ := newAuthFixture(t, time.Hour)

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "agent@escale.sn", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	svc, _ := newAuthFixture(t, time.Hour)

	_, _, err := svc.Login(context.Background(), LoginInput{Email: "former@escale.sn", Password: "s3cret"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newAuthFixture(t, time.Hour)
	ctx := context.Background()

	_, session, err := svc.Login(ctx, LoginInput{Email: "agent@escale.sn", Password: "s3cret"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, session.Token))

	_, err = svc.Resolve(ctx, session.Token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenExpires(t *testing.T) {
	svc, mr := newAuthFixture(t, time.Minute)
	ctx := context.Background()

	_, session, err := svc.Login(ctx, LoginInput{Email: "agent@escale.sn", Password: "s3cret"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = svc.Resolve(ctx, session.Token)
	require.ErrorIs(t, err, ErrTokenExpired)
}
