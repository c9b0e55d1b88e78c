package services

import (
	"context"
	"testing"

	"github.com/campaign-manager/backend/internal/events"
	"github.com/campaign-manager/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.auth.Register(ctx, RegisterInput{Name: "Ann", Email: " Ann@Example.com ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", s.User.Email)
	assert.Equal(t, models.RoleUser, s.User.Role)
	assert.NotEmpty(t, s.Token)

	_, err = f.auth.Register(ctx, RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "secret1"})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Equal(t, "User already exists", err.Error())

	_, err = f.auth.Login(ctx, "ann@example.com", "wrong-pass")
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, "Invalid credentials", err.Error())

	_, err = f.auth.Login(ctx, "nobody@example.com", "secret1")
	require.ErrorIs(t, err, ErrUnauthenticated)

	logged, err := f.auth.Login(ctx, "ANN@example.com", "secret1")
	require.NoError(t, err)

	u, err := f.auth.Authenticate(ctx, logged.Token)
	require.NoError(t, err)
	assert.Equal(t, s.User.ID, u.ID)
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"bad email", RegisterInput{Name: "A", Email: "nope", Password: "secret1"}},
		{"short password", RegisterInput{Name: "A", Email: "a@x.com", Password: "12345"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.auth.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestAuthenticateRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage"} {
		_, err := f.auth.Authenticate(ctx, token)
		require.ErrorIs(t, err, ErrUnauthenticated)
		assert.Equal(t, "Not authorized to access this route", err.Error())
	}
}

func TestPasswordReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bo, err := f.auth.Register(ctx, RegisterInput{Name: "Bo", Email: "bo@example.com", Password: "secret1"})
	require.NoError(t, err)

	require.NoError(t, f.auth.ForgotPassword(ctx, "unknown@example.com"))
	assert.Empty(t, f.events.Events)

	require.NoError(t, f.auth.ForgotPassword(ctx, "bo@example.com"))
	require.Len(t, f.events.Events, 1)
	ev := f.events.Events[0]
	assert.Equal(t, events.EventPasswordResetRequested, ev.Type)
	token, ok := ev.Payload["reset_token"].(string)
	require.True(t, ok)

	entries, err := f.store.Audit().ListByEntity(ctx, "user", bo.User.ID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	for _, e := range entries {
		assert.NotContains(t, e.Meta, "reset_token")
		assert.NotContains(t, e.Meta, "email")
		for _, v := range e.Meta {
			assert.NotEqual(t, token, v)
		}
	}

	_, err = f.auth.ResetPassword(ctx, "not-the-token", "newsecret")
	require.ErrorIs(t, err, ErrInvalid)

	s, err := f.auth.ResetPassword(ctx, token, "newsecret")
	require.NoError(t, err)
	assert.NotEmpty(t, s.Token)

	_, err = f.auth.ResetPassword(ctx, token, "another1")
	require.ErrorIs(t, err, ErrInvalid, "reset token is single use")

	_, err = f.auth.Login(ctx, "bo@example.com", "newsecret")
	require.NoError(t, err)
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.auth.Register(ctx, RegisterInput{Name: "Cy", Email: "cy@example.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.auth.UpdatePassword(ctx, s.User, "wrong", "secret2")
	require.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, "Password is incorrect", err.Error())

	_, err = f.auth.UpdatePassword(ctx, s.User, "secret1", "secret2")
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, "cy@example.com", "secret2")
	require.NoError(t, err)
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, models.RoleUser)
	other := f.user(t, models.RoleUser)

	_, err := f.platforms.Connect(ctx, u, models.PlatformFacebook, Credentials{AccessToken: "tok", AccountID: "1"})
	require.NoError(t, err)

	p, err := f.users.Profile(ctx, u)
	require.NoError(t, err)
	require.Len(t, p.PlatformConnections, 1)
	assert.True(t, p.PlatformConnections[0].Connected)

	name := "Renamed"
	updated, err := f.users.UpdateProfile(ctx, u, ProfileUpdate{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)

	taken := other.Email
	_, err = f.users.UpdateProfile(ctx, u, ProfileUpdate{Email: &taken})
	assert.ErrorIs(t, err, ErrConflict)
}
