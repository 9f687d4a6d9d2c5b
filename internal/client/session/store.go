package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/libkeeper/internal/client/storage"
	"github.com/dmitrijs2005/libkeeper/internal/common"
)

// Store persists a session across restarts. The user record, tokens and
// session ID live under separate keys, mirroring the layout the browser
// front end uses in localStorage.
type Store struct {
	repo storage.Repository
}

func NewStore(repo storage.Repository) *Store {
	return &Store{repo: repo}
}

func (s *Store) Save(ctx context.Context, sess *Session) error {
	user, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.repo.Set(ctx, common.StorageKeyUser, user); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, common.StorageKeyCSRFToken, []byte(sess.CSRFToken)); err != nil {
		return err
	}
	if err := s.repo.Set(ctx, common.StorageKeyLogoutToken, []byte(sess.LogoutToken)); err != nil {
		return err
	}
	return s.repo.Set(ctx, common.StorageKeySessionID, []byte(sess.SessionID))
}

// Load returns the stored session, or (nil, nil) when none is saved.
func (s *Store) Load(ctx context.Context) (*Session, error) {
	user, err := s.repo.Get(ctx, common.StorageKeyUser)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}

	var sess Session
	if err := json.Unmarshal(user, &sess); err != nil {
		return nil, fmt.Errorf("corrupt stored session: %w", err)
	}

	csrf, err := s.repo.Get(ctx, common.StorageKeyCSRFToken)
	if err != nil {
		return nil, err
	}
	logout, err := s.repo.Get(ctx, common.StorageKeyLogoutToken)
	if err != nil {
		return nil, err
	}
	sess.CSRFToken = string(csrf)
	sess.LogoutToken = string(logout)
	return &sess, nil
}

// Wipe removes all persisted session state.
func (s *Store) Wipe(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
