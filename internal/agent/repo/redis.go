package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/beexo-community/beexy/internal/agent/model"
	errx "github.com/beexo-community/beexy/internal/core/error"
	logx "github.com/beexo-community/beexy/pkg/logger"
)

// RedisConversationRepository keeps each user's turns in a Redis list.
type RedisConversationRepository struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	retain int
}

// NewRedisConversationRepository creates the repository. ttl <= 0 keeps keys
// forever; retain <= 0 keeps every turn.
func NewRedisConversationRepository(rdb redis.Cmdable, ttl time.Duration, retain int) *RedisConversationRepository {
	return &RedisConversationRepository{rdb: rdb, ttl: ttl, retain: retain}
}

func (r *RedisConversationRepository) conversationKey(userID int64) string {
	return fmt.Sprintf("conversation:%d:messages", userID)
}

func (r *RedisConversationRepository) AppendMessage(ctx context.Context, userID int64, turn model.Turn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		logx.Error().Err(err).Int64("user_id", userID).Msg("failed to marshal turn")
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := r.conversationKey(userID)

	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, b)
	if r.retain > 0 {
		pipe.LTrim(ctx, key, int64(-r.retain), -1)
	}
	// extend TTL on touch
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisConversationRepository) LoadRecent(ctx context.Context, userID int64, limit int) ([]model.Turn, error) {
	key := r.conversationKey(userID)

	start := int64(0)
	if limit > 0 {
		start = int64(-limit)
	}
	rows, err := r.rdb.LRange(ctx, key, start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Turn{}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load conversation history from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]model.Turn, 0, len(rows))
	for i, s := range rows {
		var t model.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Error().Err(err).Int64("user_id", userID).Int("index", i).Msg("failed to unmarshal turn")
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		t.Role = model.ParseRole(string(t.Role))
		turns = append(turns, t)
	}
	return turns, nil
}

// ClearHistory deletes everything stored for the user.
func (r *RedisConversationRepository) ClearHistory(ctx context.Context, userID int64) error {
	key := r.conversationKey(userID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete conversation history from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var (
	_ model.ConversationRepository = (*RedisConversationRepository)(nil)
	_ model.HistoryClearer         = (*RedisConversationRepository)(nil)
)
