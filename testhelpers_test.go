package invites

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateInvites = `CREATE TABLE invites (
    id TEXT NOT NULL PRIMARY KEY,
    email TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`
)

func setupInvitesDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec(sqliteCreateInvites)
	require.NoError(t, err)
	_, err = db.Exec(sqliteCreateUsers)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
		_ = sqldb.Close()
	})

	return db
}

func seedUser(t *testing.T, db *bun.DB, username, email string) {
	t.Helper()
	_, err := db.Exec(
		"INSERT INTO users (id, username, email) VALUES (?, ?, ?)",
		username+"-id", username, email,
	)
	require.NoError(t, err)
}

// testIdentity implements Identity without a backing account record.
type testIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func (i testIdentity) ID() string       { return i.id }
func (i testIdentity) Username() string { return i.username }
func (i testIdentity) Email() string    { return i.email }
func (i testIdentity) Role() string     { return i.role }

// stubTokens mints predictable tokens so assertions can tie a notification
// back to the invite it was issued for.
type stubTokens struct {
	issueErr error
}

func (s stubTokens) IssueInviteToken(invite *Invite) (string, error) {
	if s.issueErr != nil {
		return "", s.issueErr
	}
	return "token-" + invite.Email, nil
}

func (s stubTokens) Validate(string) (*InviteClaims, error) {
	return nil, nil
}

// captureNotifier records notifications and can simulate per-email transport
// failures.
type captureNotifier struct {
	sent    []InviteNotification
	failFor map[string]error
}

func (n *captureNotifier) SendInvite(_ context.Context, notification InviteNotification) error {
	if err, ok := n.failFor[notification.Email]; ok {
		return err
	}
	n.sent = append(n.sent, notification)
	return nil
}

type recordingSink struct {
	events []ActivityEvent
}

func (r *recordingSink) Record(_ context.Context, event ActivityEvent) error {
	r.events = append(r.events, event)
	return nil
}
