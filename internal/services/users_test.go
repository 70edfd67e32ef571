package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bus_backoffice/internal/apperr"
	"bus_backoffice/internal/models"
	"bus_backoffice/internal/notify"
)

func TestSignupAndAuthenticate(t *testing.T) {
	f := newFixture(t)
	user, err := f.svc.Users.Signup(f.ctx, SignupInput{Name: "Wanjiku", Email: "Wanjiku@Example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, user.Role)
	assert.Equal(t, "wanjiku@example.com", user.Email)
	assert.NotEqual(t, "correct horse", user.Password)

	_, err = f.svc.Users.Signup(f.ctx, SignupInput{Name: "Again", Email: "wanjiku@example.com", Password: "whatever123"})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	_, err = f.svc.Users.Signup(f.ctx, SignupInput{Name: "Short", Email: "s@example.com", Password: "123"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	got, err := f.svc.Users.Authenticate(f.ctx, " WANJIKU@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = f.svc.Users.Authenticate(f.ctx, "wanjiku@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
	_, err = f.svc.Users.Authenticate(f.ctx, "nobody@example.com", "wrong")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.svc.Users.EnsureAdmin(f.ctx, "admin@example.com", "s3cret-pass"))
	require.NoError(t, f.svc.Users.EnsureAdmin(f.ctx, "admin@example.com", "other-pass"))
	require.NoError(t, f.svc.Users.EnsureAdmin(f.ctx, "", ""))

	var n int64
	require.NoError(t, f.db.Model(&models.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	admin, err := f.svc.Users.Authenticate(f.ctx, "admin@example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
}

func TestContactSubmitNotifiesSupport(t *testing.T) {
	f := newFixture(t)
	msg, err := f.svc.Contact.Submit(f.ctx, ContactInput{Name: "Otieno", Email: "o@example.com", Subject: "Refund", Message: "Bus left early"})
	require.NoError(t, err)

	require.Len(t, f.notes.msgs, 1)
	assert.Equal(t, notify.ContactReceived, f.notes.msgs[0].Template)
	assert.Equal(t, "support@example.com", f.notes.msgs[0].To)

	_, err = f.svc.Contact.Submit(f.ctx, ContactInput{Name: "Empty"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	resolved, err := f.svc.Contact.Resolve(f.ctx, msg.ID)
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)

	open, total, err := f.svc.Contact.List(f.ctx, true, Page{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, open)
}
