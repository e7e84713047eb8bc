//go:build integration

package hierarchy_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"canvass/internal/hierarchy"
	"canvass/internal/voter/models"
	"canvass/pkg/testutil/containers"
)

type DirectorySuite struct {
	suite.Suite
	ctx context.Context
}

func TestDirectorySuite(t *testing.T) {
	suite.Run(t, new(DirectorySuite))
}

func (s *DirectorySuite) SetupTest() {
	s.ctx = context.Background()

	pg := containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(pg.TruncateTables(s.ctx, "voter_edit_history", "audit_events", "voters", "org_users"))
	_, err := pg.DB.ExecContext(s.ctx, `
		INSERT INTO org_users (user_id, role, area_manager_id, city_id, activist_coordinator_id)
		VALUES ('fw-1', 'field_worker', 'am-1', 'haifa', 'ac-1'),
		       ('cc-1', 'city_coordinator', NULL, 'haifa', NULL)
	`)
	s.Require().NoError(err)

	redis := containers.GetManager().GetRedis(s.T())
	s.Require().NoError(redis.FlushAll(s.ctx))
}

func (s *DirectorySuite) TestPostgresResolve() {
	dir := hierarchy.NewPostgresDirectory(containers.GetManager().GetPostgres(s.T()).DB)

	entry, err := dir.Resolve(s.ctx, "fw-1")
	s.Require().NoError(err)
	s.Require().NotNil(entry)
	s.Equal(models.RoleFieldWorker, entry.Role)
	s.Equal("am-1", entry.AreaManagerID)
	s.Equal("haifa", entry.CityID)
	s.Equal("ac-1", entry.ActivistCoordinatorID)

	s.Run("null scoping ids come back empty", func() {
		entry, err := dir.Resolve(s.ctx, "cc-1")
		s.Require().NoError(err)
		s.Require().NotNil(entry)
		s.Empty(entry.AreaManagerID)
		s.Equal("haifa", entry.CityID)
	})

	s.Run("unknown user resolves to nil without error", func() {
		entry, err := dir.Resolve(s.ctx, "ghost")
		s.Require().NoError(err)
		s.Nil(entry)
	})
}

func (s *DirectorySuite) TestRedisCachedResolve() {
	var calls atomic.Int64
	underlying := hierarchy.NewPostgresDirectory(containers.GetManager().GetPostgres(s.T()).DB)
	counted := hierarchy.ResolveFunc(func(ctx context.Context, userID string) (*hierarchy.Entry, error) {
		calls.Add(1)
		return underlying.Resolve(ctx, userID)
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cache := hierarchy.NewRedisCache(counted, containers.GetManager().GetRedis(s.T()).Client, time.Minute, logger)

	for i := 0; i < 3; i++ {
		entry, err := cache.Resolve(s.ctx, "fw-1")
		s.Require().NoError(err)
		s.Require().NotNil(entry)
		s.Equal("am-1", entry.AreaManagerID)
	}
	s.Equal(int64(1), calls.Load(), "subsequent lookups come from redis")

	s.Run("unknown users are negative-cached", func() {
		for i := 0; i < 3; i++ {
			entry, err := cache.Resolve(s.ctx, "ghost")
			s.Require().NoError(err)
			s.Nil(entry)
		}
		s.Equal(int64(2), calls.Load())
	})

	s.Run("invalidate forces a fresh lookup", func() {
		s.Require().NoError(cache.Invalidate(s.ctx, "fw-1"))
		_, err := cache.Resolve(s.ctx, "fw-1")
		s.Require().NoError(err)
		s.Equal(int64(3), calls.Load())
	})
}
