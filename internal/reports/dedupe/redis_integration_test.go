//go:build integration

package dedupe_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"atiende/internal/platform/config"
	platformredis "atiende/internal/platform/redis"
	"atiende/internal/reports/dedupe"
	id "atiende/pkg/domain"
	"atiende/pkg/testutil/containers"
)

func newRedisChecker(t *testing.T) *dedupe.RedisChecker {
	t.Helper()

	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(context.Background()))

	client := &platformredis.Client{Client: rc.Client}
	return dedupe.NewRedisChecker(client, config.DedupeConfig{
		Enabled:      true,
		RadiusMeters: 100,
		Window:       time.Hour,
	})
}

func TestRedisCheckerMatchesNearbyReports(t *testing.T) {
	ctx := context.Background()
	checker := newRedisChecker(t)

	reportID := id.NewReportID().String()
	require.NoError(t, checker.Observe(ctx, "baches", reportID, 19.4326, -99.1332))

	// Roughly 55 meters north, inside the 100m radius.
	dup, err := checker.IsDuplicate(ctx, "baches", 19.4331, -99.1332)
	require.NoError(t, err)
	require.True(t, dup)
}

func TestRedisCheckerIgnoresDistantReports(t *testing.T) {
	ctx := context.Background()
	checker := newRedisChecker(t)

	require.NoError(t, checker.Observe(ctx, "baches", id.NewReportID().String(), 19.4326, -99.1332))

	// Roughly 1.1 kilometers away.
	dup, err := checker.IsDuplicate(ctx, "baches", 19.4426, -99.1332)
	require.NoError(t, err)
	require.False(t, dup)
}

func TestRedisCheckerScopedByCategory(t *testing.T) {
	ctx := context.Background()
	checker := newRedisChecker(t)

	require.NoError(t, checker.Observe(ctx, "baches", id.NewReportID().String(), 19.4326, -99.1332))

	dup, err := checker.IsDuplicate(ctx, "alumbrado", 19.4326, -99.1332)
	require.NoError(t, err)
	require.False(t, dup)
}
