package invites

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// resolveInvite runs the lookup guard shared by every id-addressed operation:
// NotFound when no record with that id exists at all, Gone when the record
// exists but was revoked. It runs before any mutation logic.
func resolveInvite(ctx context.Context, repo Invites, id uuid.UUID) (*Invite, error) {
	invite, err := repo.FindByIDAny(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrInviteNotFound.WithMetadata(map[string]any{
				"id": id.String(),
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to resolve invite")
	}

	if invite.IsRevoked() {
		return nil, ErrInviteGone.WithMetadata(map[string]any{
			"id": id.String(),
		})
	}

	return invite, nil
}

// ResolveInviteFromToken is the acceptance-side entry point: it verifies the
// presented token, then loads the invite it references, applying the same
// NotFound/Gone guard as the id-addressed operations. A token whose invite was
// revoked after issuance answers Gone here, which is what makes revocation
// effective.
func ResolveInviteFromToken(ctx context.Context, repo Invites, tokens TokenService, tokenString string) (*Invite, *InviteClaims, error) {
	claims, err := tokens.Validate(tokenString)
	if err != nil {
		return nil, nil, err
	}

	id, err := uuid.Parse(claims.InviteID)
	if err != nil {
		return nil, nil, ErrTokenMalformed.WithMetadata(map[string]any{
			"invite_id": claims.InviteID,
		})
	}

	invite, err := resolveInvite(ctx, repo, id)
	if err != nil {
		return nil, nil, err
	}

	return invite, claims, nil
}
