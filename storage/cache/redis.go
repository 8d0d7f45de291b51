// Package cache holds the Redis-backed wizard draft store: in-progress
// application state is kept server-side so a founder can resume the wizard
// from any device until the draft expires or the application is submitted.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/ubunifu/launchpad/core"
	"github.com/ubunifu/launchpad/core/application"
)

const draftKeyPrefix = "draft:application:"

func NewClient(conf *core.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
}

type draftStore struct {
	cli *redis.Client
	ttl time.Duration
}

var _ application.DraftStore = (*draftStore)(nil)

func NewDraftStore(cli *redis.Client, ttl time.Duration) *draftStore {
	return &draftStore{cli: cli, ttl: ttl}
}

func (s *draftStore) key(userID string) string {
	return draftKeyPrefix + userID
}

// SaveDraft stores the draft and resets its TTL; every save extends the
// draft's lifetime.
func (s *draftStore) SaveDraft(ctx context.Context, userID string, draft application.Update) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return errors.Wrap(err, "marshalling draft")
	}
	if err = s.cli.Set(ctx, s.key(userID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "storing draft")
	}
	return nil
}

func (s *draftStore) GetDraft(ctx context.Context, userID string) (application.Update, error) {
	data, err := s.cli.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return application.Update{}, application.ErrDraftNotFound
		}
		return application.Update{}, errors.Wrap(err, "fetching draft")
	}
	var draft application.Update
	if err = json.Unmarshal(data, &draft); err != nil {
		return application.Update{}, errors.Wrap(err, "unmarshalling draft")
	}
	return draft, nil
}

func (s *draftStore) DeleteDraft(ctx context.Context, userID string) error {
	if err := s.cli.Del(ctx, s.key(userID)).Err(); err != nil {
		return errors.Wrap(err, "deleting draft")
	}
	return nil
}
