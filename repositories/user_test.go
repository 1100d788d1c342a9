package repositories

import (
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"

	"chat-relay/domain"
)

func newTestUserStore(t *testing.T) *UserStore {
	t.Helper()
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	db, err := badger.Open(opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewUserStore(db, slog.Default())
}

func Test_First_Use_Registers_User(t *testing.T) {
	req := require.New(t)
	store := newTestUserStore(t)
	ctx := context.Background()

	// Given an unknown name, the first authentication registers it
	id, err := store.Authenticate(ctx, domain.AuthInfo{Name: "Alice", Password: "s3cret"})
	req.NoError(err)
	req.Equal("alice", id)

	// Then the same credentials keep working
	id, err = store.Authenticate(ctx, domain.AuthInfo{Name: "alice", Password: "s3cret"})
	req.NoError(err)
	req.Equal("alice", id)
}

func Test_Wrong_Password_Is_Rejected(t *testing.T) {
	req := require.New(t)
	store := newTestUserStore(t)
	ctx := context.Background()

	_, err := store.Authenticate(ctx, domain.AuthInfo{Name: "bob", Password: "right"})
	req.NoError(err)

	id, err := store.Authenticate(ctx, domain.AuthInfo{Name: "bob", Password: "wrong"})
	req.NoError(err)
	req.Empty(id)
}

func Test_Empty_Name_Is_Rejected(t *testing.T) {
	req := require.New(t)
	store := newTestUserStore(t)

	id, err := store.Authenticate(context.Background(), domain.AuthInfo{Name: "   ", Password: "whatever"})
	req.NoError(err)
	req.Empty(id)
}
