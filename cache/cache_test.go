package cache_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/thewebartisan7/platform/cache"
)

func newSQLite(t *testing.T) *cache.SQLite {
	t.Helper()
	db := cache.OpenMemory(t)
	c := cache.NewSQLite(db)
	if err := c.EnsureTable(context.Background()); err != nil {
		t.Fatal(err)
	}
	return c
}

// backends returns both Cache implementations so the contract tests run
// against each.
func backends(t *testing.T) map[string]cache.Cache {
	t.Helper()
	return map[string]cache.Cache{
		"memory": cache.NewMemory(),
		"sqlite": newSQLite(t),
	}
}

func TestSetAndTakeOnce(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			if err := c.SetWithTTL(ctx, "k1", []byte("hello"), time.Minute); err != nil {
				t.Fatal(err)
			}

			v, ok, err := c.GetAndDelete(ctx, "k1")
			if err != nil {
				t.Fatal(err)
			}
			if !ok {
				t.Fatal("expected a value")
			}
			if string(v) != "hello" {
				t.Fatalf("got %q, want hello", v)
			}

			// Entry is single-use.
			_, ok, err = c.GetAndDelete(ctx, "k1")
			if err != nil {
				t.Fatal(err)
			}
			if ok {
				t.Fatal("second take should find nothing")
			}
		})
	}
}

func TestMissingKey(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := c.GetAndDelete(context.Background(), "never-set")
			if err != nil {
				t.Fatal(err)
			}
			if ok {
				t.Fatal("missing key should yield ok=false")
			}
		})
	}
}

func TestExpiredEntryNotReturned(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := c.SetWithTTL(ctx, "k1", []byte("stale"), -time.Second); err != nil {
				t.Fatal(err)
			}
			_, ok, err := c.GetAndDelete(ctx, "k1")
			if err != nil {
				t.Fatal(err)
			}
			if ok {
				t.Fatal("expired entry must not be returned")
			}
		})
	}
}

func TestOverwriteReplacesEntry(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := c.SetWithTTL(ctx, "k1", []byte("first"), time.Minute); err != nil {
				t.Fatal(err)
			}
			if err := c.SetWithTTL(ctx, "k1", []byte("second"), time.Minute); err != nil {
				t.Fatal(err)
			}
			v, ok, err := c.GetAndDelete(ctx, "k1")
			if err != nil {
				t.Fatal(err)
			}
			if !ok || string(v) != "second" {
				t.Fatalf("got %q ok=%v, want second", v, ok)
			}
		})
	}
}

// Two racing takes of one key: exactly one caller wins.
func TestConcurrentTakeYieldsOneWinner(t *testing.T) {
	for name, c := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if err := c.SetWithTTL(ctx, "k1", []byte("prize"), time.Minute); err != nil {
				t.Fatal(err)
			}

			const callers = 8
			var wins atomic.Int32
			var wg sync.WaitGroup
			for i := 0; i < callers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_, ok, err := c.GetAndDelete(ctx, "k1")
					if err != nil {
						t.Error(err)
						return
					}
					if ok {
						wins.Add(1)
					}
				}()
			}
			wg.Wait()

			if got := wins.Load(); got != 1 {
				t.Fatalf("got %d winners, want exactly 1", got)
			}
		})
	}
}

func TestSQLiteSweep(t *testing.T) {
	c := newSQLite(t)
	ctx := context.Background()

	if err := c.SetWithTTL(ctx, "live", []byte("a"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.SetWithTTL(ctx, "dead", []byte("b"), -time.Second); err != nil {
		t.Fatal(err)
	}

	n, err := c.Sweep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("swept %d rows, want 1", n)
	}

	if _, ok, _ := c.GetAndDelete(ctx, "live"); !ok {
		t.Fatal("live entry should survive the sweep")
	}
}
