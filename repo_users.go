package invites

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the slice of the account registry the invite flow needs: enough
// to refuse inviting an email that already belongs to a registered user.
type Users interface {
	repository.Repository[*User]

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error)
}

type usersRepo struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*usersRepo)(nil)
	_ repository.Repository[*User] = (*usersRepo)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &usersRepo{
		Repository: repo,
		db:         db,
	}
}

func (a *usersRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return a.ExistsByEmailTx(ctx, a.db, email)
}

func (a *usersRepo) ExistsByEmailTx(ctx context.Context, tx bun.IDB, email string) (bool, error) {
	count, err := tx.NewSelect().
		Model((*User)(nil)).
		Where("?TableAlias.email = ?", email).
		Count(ctx)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}
