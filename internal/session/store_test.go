package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/actuallystonmai/cinematch/internal/domain"
)

// exerciseStore runs the behaviour every Store must share.
func exerciseStore(t *testing.T, s Store) {
	ctx := context.Background()
	id := uuid.NewString()

	if _, err := s.Get(ctx, id); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Get unknown id: expected ErrSessionNotFound, got %v", err)
	}

	sess := &domain.Session{ID: id}
	sess.AddFavorite(domain.FavoriteMovie{ID: 603, Title: "The Matrix (1999)"})
	sess.State.Results = []domain.Recommendation{{Title: "Dark City", Reason: "r", MatchReasons: []string{"a"}}}
	if err := s.Save(ctx, sess); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.State.Favorites) != 1 || got.State.Favorites[0].Title != "The Matrix (1999)" {
		t.Errorf("favorites = %+v", got.State.Favorites)
	}
	if len(got.State.Results) != 1 || got.State.Results[0].MatchReasons[0] != "a" {
		t.Errorf("results = %+v", got.State.Results)
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set on save")
	}

	updated, err := s.Update(ctx, id, func(cur *domain.Session) error {
		cur.AddFavorite(domain.FavoriteMovie{ID: 335984, Title: "Blade Runner 2049 (2017)"})
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(updated.State.Favorites) != 2 || len(updated.State.Results) != 1 {
		t.Errorf("Update lost fields: %+v", updated.State)
	}
	got, _ = s.Get(ctx, id)
	if len(got.State.Favorites) != 2 {
		t.Errorf("Update was not stored: %+v", got.State.Favorites)
	}

	abort := errors.New("abort")
	if _, err := s.Update(ctx, id, func(cur *domain.Session) error {
		cur.State.Results = nil
		return abort
	}); !errors.Is(err, abort) {
		t.Errorf("Update should return fn's error, got %v", err)
	}
	got, _ = s.Get(ctx, id)
	if len(got.State.Results) != 1 {
		t.Error("a failed Update must not write")
	}

	if _, err := s.Update(ctx, uuid.NewString(), func(*domain.Session) error { return nil }); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Update unknown id: expected ErrSessionNotFound, got %v", err)
	}

	token, ok, err := s.Acquire(ctx, id)
	if err != nil || !ok || token == "" {
		t.Fatalf("first Acquire = %q, %v, %v", token, ok, err)
	}
	if busy, _ := s.Busy(ctx, id); !busy {
		t.Error("Busy should report the held guard")
	}
	_, ok, err = s.Acquire(ctx, id)
	if err != nil || ok {
		t.Fatalf("second Acquire = %v, %v; want false", ok, err)
	}
	if err := s.Release(ctx, id, "not-the-owner"); err != nil {
		t.Fatalf("Release with foreign token: %v", err)
	}
	if busy, _ := s.Busy(ctx, id); !busy {
		t.Error("a foreign token must not release the guard")
	}
	if err := s.Release(ctx, id, token); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if busy, _ := s.Busy(ctx, id); busy {
		t.Error("Busy after release")
	}
	token, ok, _ = s.Acquire(ctx, id)
	if !ok {
		t.Error("Acquire after release should succeed")
	}
	_ = s.Release(ctx, id, token)
}

// exerciseConcurrentUpdates checks that parallel Updates all land.
func exerciseConcurrentUpdates(t *testing.T, s Store) {
	ctx := context.Background()
	id := uuid.NewString()
	if err := s.Save(ctx, &domain.Session{ID: id}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	for i := 1; i <= writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Update(ctx, id, func(cur *domain.Session) error {
				cur.AddFavorite(domain.FavoriteMovie{ID: int64(i), Title: fmt.Sprintf("Movie %d", i)})
				return nil
			})
			if err != nil {
				t.Errorf("Update %d: %v", i, err)
			}
		}()
	}
	wg.Wait()

	got, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.State.Favorites) != writers {
		t.Errorf("favorites = %d, want %d", len(got.State.Favorites), writers)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(Options{}))
	exerciseConcurrentUpdates(t, NewMemoryStore(Options{}))
}

func TestMemoryStoreDoesNotAlias(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(Options{})
	sess := &domain.Session{ID: "x"}
	sess.AddFavorite(domain.FavoriteMovie{ID: 1, Title: "Heat"})
	_ = s.Save(ctx, sess)

	sess.State.Favorites[0].Title = "changed"
	got, _ := s.Get(ctx, "x")
	if got.State.Favorites[0].Title != "Heat" {
		t.Errorf("stored session was mutated through the caller's slice")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(Options{TTL: time.Hour, LockTTL: time.Minute})
	s.now = func() time.Time { return now }

	_ = s.Save(ctx, &domain.Session{ID: "a"})
	_ = s.Save(ctx, &domain.Session{ID: "b"})
	first, ok, _ := s.Acquire(ctx, "a")
	if !ok {
		t.Fatal("Acquire failed")
	}

	now = now.Add(2 * time.Minute)
	if busy, _ := s.Busy(ctx, "a"); busy {
		t.Error("guard should lapse after the lock TTL")
	}
	second, ok, _ := s.Acquire(ctx, "a")
	if !ok {
		t.Fatal("a lapsed guard can be taken again")
	}

	// The first run finishing late must not free the second run's guard.
	_ = s.Release(ctx, "a", first)
	if busy, _ := s.Busy(ctx, "a"); !busy {
		t.Error("stale token released the current guard")
	}
	_ = s.Release(ctx, "a", second)
	if busy, _ := s.Busy(ctx, "a"); busy {
		t.Error("owner could not release its guard")
	}
	_, _, _ = s.Acquire(ctx, "a")

	now = now.Add(time.Hour)
	if _, err := s.Get(ctx, "a"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("expired session returned: %v", err)
	}
	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep removed %d, want 1", n)
	}
	if len(s.inflight) != 0 {
		t.Errorf("stale guards left: %v", s.inflight)
	}
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		t.Fatalf("parse REDIS_TEST_URL: %v", err)
	}
	client := redis.NewClient(opts)
	t.Cleanup(func() { client.Close() })

	s := NewRedisStore(client, Options{TTL: time.Minute, LockTTL: 10 * time.Second})
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
	exerciseStore(t, s)
	exerciseConcurrentUpdates(t, s)
}

func TestKeys(t *testing.T) {
	if got := sessionKey("abc"); got != "cinematch:session:abc" {
		t.Errorf("sessionKey = %q", got)
	}
	if got := inflightKey("abc"); got != "cinematch:inflight:abc" {
		t.Errorf("inflightKey = %q", got)
	}
}
