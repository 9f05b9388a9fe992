//go:build integration

package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"bidrag/internal/registry"
	"bidrag/internal/registry/cache"
	"bidrag/pkg/testutil/containers"
)

type countingTables struct {
	rows  []registry.ThresholdRow
	calls int
}

func (c *countingTables) VisitationClasses(_ context.Context) ([]registry.ThresholdRow, error) {
	c.calls++
	return c.rows, nil
}

type ThresholdCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestThresholdCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ThresholdCacheSuite))
}

func (s *ThresholdCacheSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
}

func (s *ThresholdCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *ThresholdCacheSuite) rows() []registry.ThresholdRow {
	return []registry.ThresholdRow{
		{Class: "INGEN_SAMVÆR", NightsFrom: 0, NightsTo: 1},
		{Class: "SAMVÆRSKLASSE_1", NightsFrom: 2, NightsTo: 3},
	}
}

func (s *ThresholdCacheSuite) TestSecondLookupServedFromCache() {
	ctx := context.Background()
	source := &countingTables{rows: s.rows()}
	cached := cache.NewThresholdCache(source, s.redis.Client, time.Minute, nil)

	first, err := cached.VisitationClasses(ctx)
	s.Require().NoError(err)
	s.Equal(s.rows(), first)
	s.Equal(1, source.calls)

	second, err := cached.VisitationClasses(ctx)
	s.Require().NoError(err)
	s.Equal(first, second)
	s.Equal(1, source.calls, "second lookup must not reach the collaborator")
}

func (s *ThresholdCacheSuite) TestExpiredEntryRefetches() {
	ctx := context.Background()
	source := &countingTables{rows: s.rows()}
	cached := cache.NewThresholdCache(source, s.redis.Client, 100*time.Millisecond, nil)

	_, err := cached.VisitationClasses(ctx)
	s.Require().NoError(err)

	time.Sleep(200 * time.Millisecond)

	_, err = cached.VisitationClasses(ctx)
	s.Require().NoError(err)
	s.Equal(2, source.calls)
}

func (s *ThresholdCacheSuite) TestCorruptEntryRefetches() {
	ctx := context.Background()
	source := &countingTables{rows: s.rows()}
	cached := cache.NewThresholdCache(source, s.redis.Client, time.Minute, nil)

	s.Require().NoError(s.redis.Client.Set(ctx, "sjablon:samværsklasse", "not json", time.Minute).Err())

	rows, err := cached.VisitationClasses(ctx)
	s.Require().NoError(err)
	s.Equal(s.rows(), rows)
	s.Equal(1, source.calls)
}
