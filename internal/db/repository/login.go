package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"entra-demo/internal/domain"
)

const insertLoginSQL = `INSERT INTO user_logins
    (oid, name, preferred_username, aud, iss, iat, exp, tid, access_time)
    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// insertTimeout bounds the dial plus the insert for one audit row.
const insertTimeout = 10 * time.Second

// Conn is the slice of *pgx.Conn the repository uses, split out so tests can
// substitute a fake connection.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close(ctx context.Context) error
}

// DialFunc opens a database connection for a single insert.
type DialFunc func(ctx context.Context, dsn string) (Conn, error)

// LoginRepo appends rows to the user_logins audit table. Each insert dials a
// fresh connection and closes it before returning; nothing is pooled, so a
// database outage costs one failed dial per attempt and nothing else.
type LoginRepo struct {
	dsn  string
	dial DialFunc
}

// NewLoginRepo creates a repository that connects with pgx using the DSN.
func NewLoginRepo(dsn string) *LoginRepo {
	return &LoginRepo{
		dsn: dsn,
		dial: func(ctx context.Context, dsn string) (Conn, error) {
			return pgx.Connect(ctx, dsn)
		},
	}
}

// InsertLogin appends exactly one audit row, or none if any step fails.
func (r *LoginRepo) InsertLogin(ctx context.Context, rec domain.LoginRecord) error {
	ctx, cancel := context.WithTimeout(ctx, insertTimeout)
	defer cancel()

	conn, err := r.dial(ctx, r.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		// Close on every exit path; a fresh context so close still works
		// when the insert consumed the deadline.
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer closeCancel()
		_ = conn.Close(closeCtx)
	}()

	_, err = conn.Exec(ctx, insertLoginSQL,
		rec.OID,
		rec.Name,
		rec.PreferredUsername,
		rec.Audience,
		rec.Issuer,
		rec.IssuedAt,
		rec.ExpiresAt,
		rec.TenantID,
		rec.AccessTime,
	)
	if err != nil {
		return fmt.Errorf("insert user_logins: %w", err)
	}
	return nil
}
