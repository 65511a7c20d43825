package cache

import (
	"context"
	"testing"
	"time"

	"medistore/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RedisCatalogTestSuite struct {
	suite.Suite
	container   testcontainers.Container
	redisClient *redis.Client
	catalog     Catalog
	ctx         context.Context
}

func TestRedisCatalog(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test")
	}
	suite.Run(t, new(RedisCatalogTestSuite))
}

func (s *RedisCatalogTestSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := testcontainers.GenericContainer(s.ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	s.Require().NoError(err)
	s.container = container

	endpoint, err := container.Endpoint(s.ctx, "")
	s.Require().NoError(err)

	s.redisClient = redis.NewClient(&redis.Options{Addr: endpoint})
	s.catalog = NewRedisCatalog(s.redisClient, time.Minute, zerolog.Nop())
}

func (s *RedisCatalogTestSuite) TearDownSuite() {
	if s.redisClient != nil {
		s.redisClient.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RedisCatalogTestSuite) SetupTest() {
	s.redisClient.FlushDB(s.ctx)
}

func (s *RedisCatalogTestSuite) TestMissReturnsNotFound() {
	medicines, gen, ok, err := s.catalog.Get(s.ctx)
	s.NoError(err)
	s.False(ok)
	s.Nil(medicines)
	s.Equal(Generation(0), gen)
}

func (s *RedisCatalogTestSuite) TestSetThenGet() {
	in := []model.Medicine{
		{ID: "c1", Name: "Amoxicillin Cap", Price: decimal.NewFromInt(120), Stock: 50, RequiresPrescription: true},
		{ID: "c2", Name: "Benadryl Syrup", Price: decimal.RequireFromString("150.50"), Stock: 30},
	}
	s.Require().NoError(s.catalog.Set(s.ctx, 0, in))

	out, _, ok, err := s.catalog.Get(s.ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Require().Len(out, 2)
	s.Equal("c1", out[0].ID)
	s.True(out[0].RequiresPrescription)
	s.True(decimal.RequireFromString("150.5").Equal(out[1].Price))

	ttl := s.redisClient.TTL(s.ctx, CatalogKey).Val()
	s.Greater(ttl, time.Duration(0))
}

func (s *RedisCatalogTestSuite) TestInvalidate() {
	s.Require().NoError(s.catalog.Set(s.ctx, 0, []model.Medicine{{ID: "c1"}}))
	s.Require().NoError(s.catalog.Invalidate(s.ctx))

	_, gen, ok, err := s.catalog.Get(s.ctx)
	s.NoError(err)
	s.False(ok)
	s.Equal(Generation(1), gen)
}

func (s *RedisCatalogTestSuite) TestStaleWriteAfterInvalidateIsDropped() {
	// A reader misses and loads the catalogue from the database...
	_, seen, ok, err := s.catalog.Get(s.ctx)
	s.Require().NoError(err)
	s.Require().False(ok)

	// ...an order commits and invalidates before the reader stores its copy.
	s.Require().NoError(s.catalog.Invalidate(s.ctx))
	s.Require().NoError(s.catalog.Set(s.ctx, seen, []model.Medicine{{ID: "c1", Stock: 1}}))

	_, current, ok, err := s.catalog.Get(s.ctx)
	s.NoError(err)
	s.False(ok, "stale catalogue must not be cached")

	s.Require().NoError(s.catalog.Set(s.ctx, current, []model.Medicine{{ID: "c1", Stock: 0}}))
	out, _, ok, err := s.catalog.Get(s.ctx)
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(0, out[0].Stock)
}

func (s *RedisCatalogTestSuite) TestCorruptEntryIsAMiss() {
	s.Require().NoError(s.redisClient.Set(s.ctx, CatalogKey, "not json", time.Minute).Err())

	_, _, ok, err := s.catalog.Get(s.ctx)
	s.NoError(err)
	s.False(ok)
}

func TestNopCatalog(t *testing.T) {
	c := NewNop()
	ctx := context.Background()

	if err := c.Set(ctx, 0, []model.Medicine{{ID: "x"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, _, ok, _ := c.Get(ctx); ok {
		t.Fatal("nop catalog should never hit")
	}
}
