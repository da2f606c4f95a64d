package invites

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

const (
	TextCodeTokenExpired   = "invite_token_expired"
	TextCodeTokenMalformed = "invite_token_malformed"
	TextCodeTokenPurpose   = "invite_token_wrong_purpose"
)

// ErrTokenExpired is returned when a presented invite token is past expiry.
var ErrTokenExpired = errors.New("invite token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or signature checks.
var ErrTokenMalformed = errors.New("invite token malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrTokenWrongPurpose is returned when a valid token carries a purpose other
// than "invite"; tokens minted for other flows never open the acceptance door.
var ErrTokenWrongPurpose = errors.New("token is not an invite token", errors.CategoryAuth).
	WithTextCode(TextCodeTokenPurpose).
	WithCode(errors.CodeUnauthorized)

// TokenServiceImpl implements the TokenService interface
type TokenServiceImpl struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	logger          Logger
}

// NewTokenService creates a new TokenService instance. Expiration is in hours.
func NewTokenService(signingKey []byte, tokenExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenServiceImpl{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        audience,
		logger:          logger,
	}
}

// IssueInviteToken mints a time-bound token binding {inviteId, email} with
// the "invite" purpose tag.
func (ts *TokenServiceImpl) IssueInviteToken(invite *Invite) (string, error) {
	if invite == nil {
		return "", errors.New("invite must not be nil", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &InviteClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   invite.ID.String(),
			Audience:  ts.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ts.tokenExpiration) * time.Hour)),
		},
		InviteID: invite.ID.String(),
		Email:    invite.Email,
		Purpose:  PurposeInvite,
	}

	return ts.signClaims(claims)
}

func (ts *TokenServiceImpl) signClaims(claims *InviteClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign invite token")
	}

	return signedString, nil
}

// Validate parses and validates a token string, returning structured claims.
// Tokens with a purpose other than "invite" are rejected.
func (ts *TokenServiceImpl) Validate(tokenString string) (*InviteClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if ts.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(ts.issuer))
	}
	if len(ts.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(ts.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &InviteClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	claims, ok := token.Claims.(*InviteClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService validate could not decode or validate claims")
		return nil, ErrTokenMalformed
	}

	if !claims.IsPurpose(PurposeInvite) {
		return nil, ErrTokenWrongPurpose.WithMetadata(map[string]any{
			"purpose": claims.Purpose,
		})
	}

	return claims, nil
}
