package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"chat-relay/auth"
	"chat-relay/domain"
)

// UserStore keeps argon2id password hashes in BadgerDB under "user:{name}".
// An unknown name registers on first use.
type UserStore struct {
	db  *badger.DB
	log *slog.Logger
}

func NewUserStore(db *badger.DB, log *slog.Logger) *UserStore {
	return &UserStore{db: db, log: log}
}

func userKey(name string) []byte { return []byte("user:" + name) }

func (s *UserStore) Authenticate(_ context.Context, info domain.AuthInfo) (string, error) {
	name := strings.ToLower(strings.TrimSpace(info.Name))
	if name == "" {
		return "", nil
	}

	var stored string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(name))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			stored = string(v)
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("read user %q: %w", name, err)
	}

	if stored == "" {
		hash, err := auth.HashPassword(info.Password)
		if err != nil {
			return "", fmt.Errorf("hash password: %w", err)
		}
		err = s.db.Update(func(txn *badger.Txn) error {
			return txn.Set(userKey(name), []byte(hash))
		})
		if err != nil {
			return "", fmt.Errorf("register user %q: %w", name, err)
		}
		s.log.Info("Registered new user", "name", name)
		return name, nil
	}

	ok, err := auth.ComparePassword(info.Password, stored)
	if err != nil {
		return "", fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return "", nil
	}
	return name, nil
}
