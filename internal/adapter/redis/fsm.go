package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/escalopa/quran-recite-grader/internal/domain"
)

const (
	stateKeyPrefix = "grader:fsm:state:"
	dataKeyPrefix  = "grader:fsm:data:"
	sessionTTL     = 24 * time.Hour
)

// ErrDataNotFound is returned by GetData for keys never set or already expired.
var ErrDataNotFound = errors.New("session data not found")

// FSM stores bot conversation state in Redis. Every key expires after a day
// of inactivity.
type FSM struct {
	client *redis.Client
}

func NewFSM(client *redis.Client) *FSM {
	return &FSM{client: client}
}

// SetState sets the current state for a user
func (f *FSM) SetState(ctx context.Context, userID string, state domain.State) error {
	if err := f.client.Set(ctx, stateKeyPrefix+userID, string(state), sessionTTL).Err(); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

// GetState gets the current state for a user, defaulting to StateStart
func (f *FSM) GetState(ctx context.Context, userID string) (domain.State, error) {
	val, err := f.client.Get(ctx, stateKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return domain.StateStart, nil
	}
	if err != nil {
		return "", fmt.Errorf("get state: %w", err)
	}
	return domain.State(val), nil
}

// DeleteState deletes the state for a user
func (f *FSM) DeleteState(ctx context.Context, userID string) error {
	return f.client.Del(ctx, stateKeyPrefix+userID).Err()
}

// SetData sets temporary data for a user's current session
func (f *FSM) SetData(ctx context.Context, userID, key, value string) error {
	if err := f.client.Set(ctx, dataKey(userID, key), value, sessionTTL).Err(); err != nil {
		return fmt.Errorf("set data %s: %w", key, err)
	}
	return nil
}

// GetData gets temporary data for a user's current session
func (f *FSM) GetData(ctx context.Context, userID, key string) (string, error) {
	val, err := f.client.Get(ctx, dataKey(userID, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("get data %s: %w", key, ErrDataNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get data %s: %w", key, err)
	}
	return val, nil
}

// DeleteData deletes temporary data for a user
func (f *FSM) DeleteData(ctx context.Context, userID, key string) error {
	return f.client.Del(ctx, dataKey(userID, key)).Err()
}

func dataKey(userID, key string) string {
	return fmt.Sprintf("%s%s:%s", dataKeyPrefix, userID, key)
}
