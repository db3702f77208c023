//go:build integration

package store_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"copro/internal/history/models"
	"copro/internal/history/store"
	"copro/internal/platform/config"
	platformredis "copro/internal/platform/redis"
	"copro/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *store.RedisStore
	base  time.Time
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	client, err := platformredis.Open(context.Background(), config.RedisConfig{
		URL:         s.redis.URL,
		PoolSize:    4,
		DialTimeout: 5 * time.Second,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = client.Close() })
	s.store = store.NewRedis(client)
	s.base = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.Reset(context.Background()))
}

func (s *RedisStoreSuite) TestSaveAndListRoundTrip() {
	ctx := context.Background()
	want := record("res-1", "A-3-B", "syndic@example.com", s.base)
	s.Require().NoError(s.store.Save(ctx, want))

	got, err := s.store.ListByApartment(ctx, "A-3-B")
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(want, got[0])
}

func (s *RedisStoreSuite) TestOrderingWithTies() {
	ctx := context.Background()
	older := record("res-1", "A-3-B", "", s.base)
	tieFirst := record("res-1", "A-3-B", "", s.base.Add(time.Hour))
	tieSecond := record("res-1", "A-3-B", "", s.base.Add(time.Hour))
	for _, r := range []models.Record{older, tieFirst, tieSecond} {
		s.Require().NoError(s.store.Save(ctx, r))
	}

	got, err := s.store.ListByResident(ctx, "res-1")
	s.Require().NoError(err)
	s.Require().Len(got, 3)
	s.Equal(tieSecond.ID, got[0].ID)
	s.Equal(tieFirst.ID, got[1].ID)
	s.Equal(older.ID, got[2].ID)
}

func (s *RedisStoreSuite) TestUnknownKeyReturnsEmptySlice() {
	got, err := s.store.ListByApartment(context.Background(), "Z-9-9")
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}
