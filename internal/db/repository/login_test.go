package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entra-demo/internal/domain"
)

type fakeConn struct {
	execSQL  string
	execArgs []any
	execErr  error
	closed   bool
}

func (f *fakeConn) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execSQL = sql
	f.execArgs = args
	return pgconn.NewCommandTag("INSERT 0 1"), f.execErr
}

func (f *fakeConn) Close(_ context.Context) error {
	f.closed = true
	return nil
}

func strptr(s string) *string { return &s }

func TestInsertLogin_DialsInsertsAndCloses(t *testing.T) {
	conn := &fakeConn{}
	var dialedDSN string
	repo := &LoginRepo{
		dsn: "host=db user=u dbname=d",
		dial: func(_ context.Context, dsn string) (Conn, error) {
			dialedDSN = dsn
			return conn, nil
		},
	}

	rec := domain.LoginRecord{
		OID:        strptr("abc"),
		Name:       strptr("Jane"),
		IssuedAt:   time.Unix(1700000000, 0),
		ExpiresAt:  time.Unix(1700003600, 0),
		TenantID:   strptr("tenant1"),
		AccessTime: time.Unix(1700000100, 0),
	}
	require.NoError(t, repo.InsertLogin(context.Background(), rec))

	assert.Equal(t, "host=db user=u dbname=d", dialedDSN)
	assert.Contains(t, conn.execSQL, "INSERT INTO user_logins")
	require.Len(t, conn.execArgs, 9)
	assert.Equal(t, strptr("abc"), conn.execArgs[0])
	assert.Equal(t, strptr("Jane"), conn.execArgs[1])
	assert.Nil(t, conn.execArgs[2]) // preferred_username absent
	assert.Equal(t, time.Unix(1700000000, 0), conn.execArgs[5])
	assert.Equal(t, time.Unix(1700003600, 0), conn.execArgs[6])
	assert.True(t, conn.closed)
}

func TestInsertLogin_DialFailure(t *testing.T) {
	repo := &LoginRepo{
		dsn: "host=unreachable",
		dial: func(_ context.Context, _ string) (Conn, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}

	err := repo.InsertLogin(context.Background(), domain.LoginRecord{})
	assert.ErrorContains(t, err, "connect")
}

func TestInsertLogin_ExecFailureStillCloses(t *testing.T) {
	conn := &fakeConn{execErr: fmt.Errorf("relation does not exist")}
	repo := &LoginRepo{
		dsn:  "host=db",
		dial: func(_ context.Context, _ string) (Conn, error) { return conn, nil },
	}

	err := repo.InsertLogin(context.Background(), domain.LoginRecord{})
	assert.ErrorContains(t, err, "insert user_logins")
	assert.True(t, conn.closed)
}
