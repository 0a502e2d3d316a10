package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/errs"
	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"github.com/redis/go-redis/v9"
)

// stateGrace keeps a state readable past its TTL so a late callback is reported as
// expired rather than unknown.
const stateGrace = model.OAuthStateTTL

// OAuthStateStore keeps authorization nonces in Redis. Keys outlive the state TTL by
// stateGrace and then clean themselves up; the caller decides expiry from CreatedAt.
type OAuthStateStore struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

func NewOAuthStateStore(client *redis.Client) repository.IOAuthState {
	return &OAuthStateStore{client: client, ttl: model.OAuthStateTTL + stateGrace, now: time.Now}
}

func stateKey(state string) string {
	return "oauth_state:" + state
}

func ownerKey(userID string, platform model.Platform) string {
	return fmt.Sprintf("oauth_state_owner:%s:%s", userID, platform)
}

type storedState struct {
	UserID       string  `json:"user_id"`
	Platform     string  `json:"platform"`
	CodeVerifier *string `json:"code_verifier,omitempty"`
	CreatedAt    int64   `json:"created_at"`
}

func encodeState(s *model.OAuthState) ([]byte, error) {
	return json.Marshal(storedState{
		UserID:       s.UserID,
		Platform:     string(s.Platform),
		CodeVerifier: s.CodeVerifier,
		CreatedAt:    s.CreatedAt.UnixMilli(),
	})
}

func decodeState(state string, raw []byte) (*model.OAuthState, error) {
	var st storedState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode oauth state: %w", err)
	}
	return &model.OAuthState{
		State:        state,
		UserID:       st.UserID,
		Platform:     model.Platform(st.Platform),
		CodeVerifier: st.CodeVerifier,
		CreatedAt:    time.UnixMilli(st.CreatedAt).UTC(),
	}, nil
}

func (s *OAuthStateStore) Create(ctx context.Context, st *model.OAuthState) error {
	if st.CreatedAt.IsZero() {
		st.CreatedAt = s.now().UTC()
	}
	raw, err := encodeState(st)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, stateKey(st.State), raw, s.ttl)
		pipe.Set(ctx, ownerKey(st.UserID, st.Platform), st.State, s.ttl)
		return nil
	})
	return err
}

func (s *OAuthStateStore) InvalidateUnused(ctx context.Context, userID string, platform model.Platform) error {
	owner := ownerKey(userID, platform)
	prev, err := s.client.Get(ctx, owner).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.client.Del(ctx, stateKey(prev), owner).Err()
}

// Consume uses GETDEL so a state can be redeemed once even under concurrent callbacks.
func (s *OAuthStateStore) Consume(ctx context.Context, state string) (*model.OAuthState, error) {
	raw, err := s.client.GetDel(ctx, stateKey(state)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	st, err := decodeState(state, raw)
	if err != nil {
		return nil, err
	}
	st.Used = true

	owner := ownerKey(st.UserID, st.Platform)
	if cur, err := s.client.Get(ctx, owner).Result(); err == nil && cur == state {
		s.client.Del(ctx, owner)
	}
	return st, nil
}
