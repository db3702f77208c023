package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"copro/internal/history/models"
)

const (
	recordKeyPrefix    = "history:record:"
	apartmentKeyPrefix = "history:apartment:"
	residentKeyPrefix  = "history:resident:"
	sequenceKey        = "history:seq"
)

// RedisStore keeps history records as JSON strings with two sorted-set
// indexes scored by OccurredAt in microseconds. Index members are
// "<zero-padded save sequence>:<record id>" so equal scores list the most
// recently saved record first.
type RedisStore struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed history store.
func NewRedis(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Save(ctx context.Context, record models.Record) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal history record: %w", err)
	}
	seq, err := s.client.Incr(ctx, sequenceKey).Result()
	if err != nil {
		return fmt.Errorf("allocate history sequence: %w", err)
	}

	member := redis.Z{
		Score:  float64(record.OccurredAt.UnixMicro()),
		Member: fmt.Sprintf("%020d:%s", seq, record.ID),
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, recordKeyPrefix+record.ID.String(), payload, 0)
		pipe.ZAdd(ctx, apartmentKeyPrefix+record.ApartmentKey, member)
		pipe.ZAdd(ctx, residentKeyPrefix+record.ResidentKey, member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("store history record: %w", err)
	}
	return nil
}

func (s *RedisStore) ListByApartment(ctx context.Context, apartmentKey string) ([]models.Record, error) {
	return s.list(ctx, apartmentKeyPrefix+apartmentKey)
}

func (s *RedisStore) ListByResident(ctx context.Context, residentKey string) ([]models.Record, error) {
	return s.list(ctx, residentKeyPrefix+residentKey)
}

func (s *RedisStore) list(ctx context.Context, index string) ([]models.Record, error) {
	members, err := s.client.ZRevRangeByScore(ctx, index, &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).Result()
	if err != nil {
		return nil, fmt.Errorf("read history index: %w", err)
	}
	records := make([]models.Record, 0, len(members))
	if len(members) == 0 {
		return records, nil
	}

	keys := make([]string, len(members))
	for i, m := range members {
		_, id, ok := strings.Cut(m, ":")
		if !ok {
			return nil, fmt.Errorf("malformed history index member %q", m)
		}
		keys[i] = recordKeyPrefix + id
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load history records: %w", err)
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("history record %s missing", keys[i])
		}
		var record models.Record
		if err := json.Unmarshal([]byte(raw), &record); err != nil {
			return nil, fmt.Errorf("decode history record: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
