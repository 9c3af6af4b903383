// Package store persists conversation contexts in Redis. Every operation
// converts backend failures into a boolean or nil return and logs the detail
// internally; persistence is best-effort and never fails a user request.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/h7seiji/Modular-Chatbot/internal/metrics"
	"github.com/h7seiji/Modular-Chatbot/internal/models"
)

// DefaultConversationTTL is applied when a caller passes a zero TTL.
const DefaultConversationTTL = 7 * 24 * time.Hour

// appendRetries bounds optimistic retries when concurrent writers touch the
// same conversation key.
const appendRetries = 3

var errNotFound = errors.New("conversation not found")

// ConversationStore handles Redis operations for conversation persistence.
type ConversationStore struct {
	client     *redis.Client
	defaultTTL time.Duration
	logger     zerolog.Logger
}

// NewConversationStore connects to Redis at redisURL and verifies the
// connection with a ping.
func NewConversationStore(ctx context.Context, redisURL string, defaultTTL time.Duration, logger zerolog.Logger) (*ConversationStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewConversationStoreFromClient(client, defaultTTL, logger), nil
}

// NewConversationStoreFromClient wraps an existing Redis client.
func NewConversationStoreFromClient(client *redis.Client, defaultTTL time.Duration, logger zerolog.Logger) *ConversationStore {
	if defaultTTL <= 0 {
		defaultTTL = DefaultConversationTTL
	}
	return &ConversationStore{client: client, defaultTTL: defaultTTL, logger: logger}
}

// Close closes the Redis connection.
func (s *ConversationStore) Close() error {
	return s.client.Close()
}

// Ping checks the Redis connection.
func (s *ConversationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Client exposes the underlying Redis client for components that share the
// connection pool, such as the rate limiter and the knowledge index.
func (s *ConversationStore) Client() *redis.Client {
	return s.client
}

// conversationKey returns the key holding a serialized conversation.
func conversationKey(conversationID string) string {
	return fmt.Sprintf("conversation:%s", conversationID)
}

// userConversationsKey returns the key of a user's conversation-id set.
func userConversationsKey(userID string) string {
	return fmt.Sprintf("user_conversations:%s", userID)
}

func (s *ConversationStore) ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return s.defaultTTL
	}
	return ttl
}

// Store persists the full conversation context (entire message history, not a
// delta) with the given TTL. The conversation SET, the user-set SADD, and the
// user-set EXPIRE run in one pipeline; partial failures are detected but not
// rolled back. A zero ttl means the default.
func (s *ConversationStore) Store(ctx context.Context, conv *models.ConversationContext, ttl time.Duration) bool {
	defer s.observe("store", time.Now())

	payload, err := json.Marshal(conv)
	if err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conv.ConversationID).Msg("failed to serialize conversation")
		return false
	}

	ttl = s.ttlOrDefault(ttl)

	pipe := s.client.Pipeline()
	setCmd := pipe.Set(ctx, conversationKey(conv.ConversationID), payload, ttl)
	addCmd := pipe.SAdd(ctx, userConversationsKey(conv.UserID), conv.ConversationID)
	expCmd := pipe.Expire(ctx, userConversationsKey(conv.UserID), ttl)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conv.ConversationID).Msg("failed to store conversation")
		return false
	}

	if setCmd.Err() != nil || addCmd.Err() != nil || expCmd.Err() != nil || !expCmd.Val() {
		s.logger.Error().
			Str("conversation_id", conv.ConversationID).
			Msg("partial failure storing conversation")
		return false
	}

	s.logger.Debug().
		Str("conversation_id", conv.ConversationID).
		Str("user_id", conv.UserID).
		Int("messages", len(conv.MessageHistory)).
		Msg("stored conversation")
	return true
}

// Retrieve loads a conversation by id. It returns nil when the key is absent
// or the payload cannot be deserialized; corruption is logged as an error but
// is indistinguishable from not-found to the caller.
func (s *ConversationStore) Retrieve(ctx context.Context, conversationID string) *models.ConversationContext {
	defer s.observe("retrieve", time.Now())

	data, err := s.client.Get(ctx, conversationKey(conversationID)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to retrieve conversation")
		return nil
	}

	var conv models.ConversationContext
	if err := json.Unmarshal([]byte(data), &conv); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to deserialize conversation")
		return nil
	}
	return &conv
}

// AppendMessage appends msg to an existing conversation and re-stores the
// full context. The read-modify-write runs under WATCH on the conversation
// key with a bounded number of retries, so concurrent appends serialize
// instead of overwriting each other. Returns false when the conversation
// does not exist or retries are exhausted.
func (s *ConversationStore) AppendMessage(ctx context.Context, conversationID string, msg models.Message, ttl time.Duration) bool {
	defer s.observe("append", time.Now())

	key := conversationKey(conversationID)
	ttl = s.ttlOrDefault(ttl)

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		if err == redis.Nil {
			return errNotFound
		}
		if err != nil {
			return err
		}

		var conv models.ConversationContext
		if err := json.Unmarshal([]byte(data), &conv); err != nil {
			return fmt.Errorf("deserialize conversation: %w", err)
		}

		conv.MessageHistory = append(conv.MessageHistory, msg)
		payload, err := json.Marshal(&conv)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			pipe.SAdd(ctx, userConversationsKey(conv.UserID), conv.ConversationID)
			pipe.Expire(ctx, userConversationsKey(conv.UserID), ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < appendRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		if err == nil {
			return true
		}
		if err == redis.TxFailedErr {
			continue
		}
		if errors.Is(err, errNotFound) {
			s.logger.Warn().Str("conversation_id", conversationID).Msg("cannot append to non-existent conversation")
		} else {
			s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to append message")
		}
		return false
	}

	s.logger.Error().Str("conversation_id", conversationID).Msg("append retries exhausted")
	return false
}

// ListForUser returns the ids of all conversations belonging to userID.
// The result is unordered; failures yield an empty slice.
func (s *ConversationStore) ListForUser(ctx context.Context, userID string) []string {
	defer s.observe("list", time.Now())

	ids, err := s.client.SMembers(ctx, userConversationsKey(userID)).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list conversations")
		return []string{}
	}
	return ids
}

// Delete removes a conversation and its membership in the user's set.
// Returns false when the conversation key did not exist.
func (s *ConversationStore) Delete(ctx context.Context, conversationID, userID string) bool {
	defer s.observe("delete", time.Now())

	pipe := s.client.Pipeline()
	delCmd := pipe.Del(ctx, conversationKey(conversationID))
	pipe.SRem(ctx, userConversationsKey(userID), conversationID)

	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to delete conversation")
		return false
	}

	if delCmd.Val() == 0 {
		s.logger.Warn().Str("conversation_id", conversationID).Msg("conversation not found for deletion")
		return false
	}

	s.logger.Info().Str("conversation_id", conversationID).Str("user_id", userID).Msg("deleted conversation")
	return true
}

// GetTTL returns the remaining lifetime of a conversation key. The second
// return is false when the key does not exist or has no TTL set.
func (s *ConversationStore) GetTTL(ctx context.Context, conversationID string) (time.Duration, bool) {
	ttl, err := s.client.TTL(ctx, conversationKey(conversationID)).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to get conversation TTL")
		return 0, false
	}
	if ttl < 0 { // -2 missing key, -1 no TTL
		return 0, false
	}
	return ttl, true
}

// SetTTL mutates the remaining lifetime of a conversation key only; the
// user-set key is untouched.
func (s *ConversationStore) SetTTL(ctx context.Context, conversationID string, ttl time.Duration) bool {
	ok, err := s.client.Expire(ctx, conversationKey(conversationID), ttl).Result()
	if err != nil {
		s.logger.Error().Err(err).Str("conversation_id", conversationID).Msg("failed to set conversation TTL")
		return false
	}
	return ok
}

func (s *ConversationStore) observe(op string, start time.Time) {
	metrics.StoreLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
