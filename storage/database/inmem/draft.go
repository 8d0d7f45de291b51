package inmemdb

import (
	"context"

	"github.com/ubunifu/launchpad/core/application"
)

type draftStore struct {
	db *draftTable
}

var _ application.DraftStore = (*draftStore)(nil)

func NewDraftStore(db *DB) *draftStore {
	return &draftStore{db: db.draft}
}

func (s *draftStore) SaveDraft(_ context.Context, userID string, draft application.Update) error {
	s.db.Lock()
	defer s.db.Unlock()
	s.db.table[userID] = draft
	return nil
}

func (s *draftStore) GetDraft(_ context.Context, userID string) (application.Update, error) {
	s.db.RLock()
	defer s.db.RUnlock()
	if draft, ok := s.db.table[userID]; ok {
		return draft, nil
	}
	return application.Update{}, application.ErrDraftNotFound
}

func (s *draftStore) DeleteDraft(_ context.Context, userID string) error {
	s.db.Lock()
	defer s.db.Unlock()
	delete(s.db.table, userID)
	return nil
}
