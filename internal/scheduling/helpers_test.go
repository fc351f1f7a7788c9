package scheduling

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redisclient "github.com/clinicdesk/clinic-scheduling/internal/redis"
)

// testEnv wires a Service over the in-memory repository and a real Redis day
// locker backed by miniredis.
type testEnv struct {
	repo     *MemoryRepository
	registry *Registry
	svc      *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo := NewMemoryRepository()
	registry := NewRegistry(repo, redisclient.NewWindowCache(client, time.Minute))
	locker := redisclient.NewRedisDayLocker(client, 2*time.Second, 100, 2*time.Millisecond)
	svc := NewService(repo, registry, locker, nil)

	return &testEnv{repo: repo, registry: registry, svc: svc}
}

// nextWeekday returns the first date strictly after from that falls on the
// given weekday.
func nextWeekday(from time.Time, day time.Weekday) time.Time {
	d := NormalizeDate(from).AddDate(0, 0, 1)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
