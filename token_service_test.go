package invites_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-invites"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTokenService(t *testing.T) {
	signingKey := []byte("test-signing-key")

	t.Run("creates token service", func(t *testing.T) {
		service := invites.NewTokenService(signingKey, 24, "test-issuer", jwt.ClaimStrings{"test-audience"}, nil)
		assert.NotNil(t, service)
	})
}

func TestTokenServiceIssueAndValidate(t *testing.T) {
	signingKey := []byte("test-signing-key")
	issuer := "test-issuer"
	audience := jwt.ClaimStrings{"test-audience"}

	service := invites.NewTokenService(signingKey, 24, issuer, audience, nil)

	invite := &invites.Invite{
		ID:     uuid.New(),
		Email:  "ana@example.com",
		Status: invites.StatusInvited,
	}

	tokenString, err := service.IssueInviteToken(invite)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := service.Validate(tokenString)
	require.NoError(t, err)
	assert.Equal(t, invite.ID.String(), claims.InviteID)
	assert.Equal(t, invite.ID.String(), claims.Subject)
	assert.Equal(t, "ana@example.com", claims.Email)
	assert.True(t, claims.IsPurpose(invites.PurposeInvite))
	assert.Equal(t, issuer, claims.Issuer)
	assert.Equal(t, audience, claims.Audience)
	assert.False(t, claims.IssuedTime().IsZero())
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.Expires(), time.Minute)
}

func TestTokenServiceRejectsNilInvite(t *testing.T) {
	service := invites.NewTokenService([]byte("key"), 24, "", nil, nil)

	_, err := service.IssueInviteToken(nil)
	require.Error(t, err)
}

func TestTokenServiceRejectsExpiredToken(t *testing.T) {
	service := invites.NewTokenService([]byte("key"), -1, "", nil, nil)

	tokenString, err := service.IssueInviteToken(&invites.Invite{
		ID:    uuid.New(),
		Email: "ana@example.com",
	})
	require.NoError(t, err)

	_, err = service.Validate(tokenString)
	require.Error(t, err)
	assert.ErrorIs(t, err, invites.ErrTokenExpired)
}

func TestTokenServiceRejectsForeignSignature(t *testing.T) {
	issuing := invites.NewTokenService([]byte("key-one"), 24, "", nil, nil)
	validating := invites.NewTokenService([]byte("key-two"), 24, "", nil, nil)

	tokenString, err := issuing.IssueInviteToken(&invites.Invite{
		ID:    uuid.New(),
		Email: "ana@example.com",
	})
	require.NoError(t, err)

	_, err = validating.Validate(tokenString)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, invites.TextCodeTokenMalformed, richErr.TextCode)
}

func TestTokenServiceRejectsWrongPurpose(t *testing.T) {
	signingKey := []byte("test-signing-key")
	service := invites.NewTokenService(signingKey, 24, "", nil, nil)

	now := time.Now()
	claims := &invites.InviteClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
		Email:   "ana@example.com",
		Purpose: "password_reset",
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	require.NoError(t, err)

	_, err = service.Validate(tokenString)
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, invites.TextCodeTokenPurpose, richErr.TextCode)
	assert.Equal(t, "password_reset", richErr.Metadata["purpose"])
}

func TestTokenServiceRejectsGarbage(t *testing.T) {
	service := invites.NewTokenService([]byte("key"), 24, "", nil, nil)

	_, err := service.Validate("not-a-token")
	require.Error(t, err)

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, invites.TextCodeTokenMalformed, richErr.TextCode)
}
