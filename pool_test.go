package md2tex

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"testing"
	"time"
)

// Compile-time interface check.
var _ interface {
	Acquire() (*Service, error)
	Release(*Service)
	Size() int
	Close() error
} = (*ServicePool)(nil)

func newTestPool(t *testing.T, n int) *ServicePool {
	t.Helper()

	pool := NewServicePool(n,
		WithCacheDir(t.TempDir()),
		WithCommandRunner(&fakeRunner{}),
		WithDiagramRenderer(&fakeDiagramRenderer{}),
	)
	t.Cleanup(func() { _ = pool.Close() })
	return pool
}

func TestResolvePoolSize(t *testing.T) {
	t.Parallel()

	gomaxprocs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name    string
		workers int
		want    int
	}{
		{
			name:    "explicit takes priority",
			workers: 4,
			want:    4,
		},
		{
			name:    "explicit=1 for sequential",
			workers: 1,
			want:    1,
		},
		{
			name:    "zero uses auto calculation",
			workers: 0,
			want:    min(max(gomaxprocs/cpuDivisor, MinPoolSize), MaxPoolSize),
		},
		{
			name:    "explicit can exceed max",
			workers: 16,
			want:    16,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ResolvePoolSize(tt.workers)
			if got != tt.want {
				t.Errorf("ResolvePoolSize(%d) = %d, want %d", tt.workers, got, tt.want)
			}
		})
	}
}

func TestServicePool_AcquireRelease(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 2)

	svc1, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	svc2, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	// Services should be different instances
	if svc1 == svc2 {
		t.Error("expected different service instances")
	}

	// Release and re-acquire
	pool.Release(svc1)
	svc3, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if svc3 != svc1 {
		t.Error("expected to get back released service")
	}

	pool.Release(svc2)
	pool.Release(svc3)
}

func TestServicePool_LazyCreation(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 4)

	pool.mu.Lock()
	created := pool.created
	pool.mu.Unlock()
	if created != 0 {
		t.Errorf("created = %d at construction, want 0 (lazy)", created)
	}

	svc, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer pool.Release(svc)

	pool.mu.Lock()
	created = pool.created
	pool.mu.Unlock()
	if created != 1 {
		t.Errorf("created = %d after one acquire, want 1", created)
	}
}

func TestServicePool_PropagatesConstructionError(t *testing.T) {
	t.Parallel()

	// No cache dir: New fails; the slot must be returned to the pool.
	pool := NewServicePool(1)
	defer pool.Close()

	if _, err := pool.Acquire(); !errors.Is(err, ErrNoCacheDir) {
		t.Fatalf("Acquire() error = %v, want ErrNoCacheDir", err)
	}

	pool.mu.Lock()
	created := pool.created
	pool.mu.Unlock()
	if created != 0 {
		t.Errorf("created = %d after failed acquire, want 0", created)
	}
}

func TestServicePool_BlocksWhenExhausted(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 1)

	svc, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	acquired := make(chan *Service)
	go func() {
		s, err := pool.Acquire()
		if err != nil {
			t.Errorf("blocked Acquire() error = %v", err)
		}
		acquired <- s
	}()

	select {
	case <-acquired:
		t.Fatal("Acquire() did not block on an exhausted pool")
	case <-time.After(50 * time.Millisecond):
	}

	pool.Release(svc)

	select {
	case got := <-acquired:
		if got != svc {
			t.Error("blocked Acquire() returned a different service")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Acquire() still blocked after release")
	}
}

func TestServicePool_ParallelRenders(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 3)

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			svc, err := pool.Acquire()
			if err != nil {
				t.Errorf("Acquire() error = %v", err)
				return
			}
			defer pool.Release(svc)

			result, err := svc.Render(context.Background(), Input{Markdown: "==hot== path"})
			if err != nil {
				t.Errorf("Render() error = %v", err)
				return
			}
			if result.Markup != `\hl{hot} path` {
				t.Errorf("Markup = %q", result.Markup)
			}
		}()
	}
	wg.Wait()
}

func TestServicePool_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	pool := newTestPool(t, 2)

	svc, err := pool.Acquire()
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	pool.Release(svc)

	if err := pool.Close(); err != nil {
		t.Errorf("first Close() error = %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}
