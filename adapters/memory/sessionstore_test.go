package memory_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/artpar/plancart/adapters/clock"
	"github.com/artpar/plancart/adapters/memory"
)

func newStore(t *testing.T, fc *clock.Fake, ttl time.Duration) *memory.SessionStore[string] {
	t.Helper()
	s := memory.NewSessionStore(memory.SessionStoreConfig[string]{
		TTL:             ttl,
		CleanupInterval: time.Hour,
		Clock:           fc,
	})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionStore_GetPutDelete(t *testing.T) {
	fc := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s := newStore(t, fc, time.Minute)

	if _, ok := s.Get("a"); ok {
		t.Fatal("empty store returned a value")
	}

	s.Put("a", "one")
	s.Put("b", "two")
	if v, ok := s.Get("a"); !ok || v != "one" {
		t.Errorf("Get(a) = %q, %v", v, ok)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}

	s.Put("a", "uno")
	if v, _ := s.Get("a"); v != "uno" {
		t.Errorf("Get(a) after replace = %q", v)
	}

	s.Delete("a")
	if _, ok := s.Get("a"); ok {
		t.Error("Get(a) after Delete returned a value")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestSessionStore_Expiry(t *testing.T) {
	fc := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s := newStore(t, fc, time.Minute)

	s.Put("idle", "x")
	s.Put("busy", "y")

	fc.Advance(40 * time.Second)
	if _, ok := s.Get("busy"); !ok {
		t.Fatal("busy expired early")
	}

	fc.Advance(40 * time.Second)
	if _, ok := s.Get("idle"); ok {
		t.Error("idle entry should have expired")
	}
	if _, ok := s.Get("busy"); !ok {
		t.Error("Get should refresh expiry")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestSessionStore_SweepAndEvictCallback(t *testing.T) {
	fc := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	var mu sync.Mutex
	evicted := map[string]string{}
	s := memory.NewSessionStore(memory.SessionStoreConfig[string]{
		TTL:             time.Minute,
		CleanupInterval: time.Hour,
		Clock:           fc,
		OnEvict: func(id, v string) {
			mu.Lock()
			evicted[id] = v
			mu.Unlock()
		},
	})
	defer s.Close()

	for i := 0; i < 10; i++ {
		s.Put(fmt.Sprintf("s%d", i), fmt.Sprintf("v%d", i))
	}
	fc.Advance(30 * time.Second)
	s.Put("fresh", "f")
	fc.Advance(45 * time.Second)

	if n := s.Sweep(); n != 10 {
		t.Errorf("Sweep removed %d, want 10", n)
	}
	if len(evicted) != 10 || evicted["s3"] != "v3" {
		t.Errorf("evicted = %v", evicted)
	}
	if _, ok := s.Get("fresh"); !ok {
		t.Error("fresh entry swept")
	}
}

func TestSessionStore_SetTTL(t *testing.T) {
	fc := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	s := newStore(t, fc, time.Hour)

	s.Put("a", "x")
	fc.Advance(10 * time.Minute)

	s.SetTTL(5 * time.Minute)
	if s.TTL() != 5*time.Minute {
		t.Errorf("TTL = %v", s.TTL())
	}
	if _, ok := s.Get("a"); ok {
		t.Error("shortened TTL should expire existing entries")
	}

	s.SetTTL(0)
	if s.TTL() != 5*time.Minute {
		t.Error("non-positive TTL should be ignored")
	}
}

func TestSessionStore_Defaults(t *testing.T) {
	s := memory.NewSessionStore(memory.SessionStoreConfig[int]{})
	defer s.Close()

	if s.TTL() != 30*time.Minute {
		t.Errorf("default TTL = %v", s.TTL())
	}
	s.Put("n", 1)
	if v, ok := s.Get("n"); !ok || v != 1 {
		t.Errorf("Get = %d, %v", v, ok)
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

func TestSessionStore_Concurrent(t *testing.T) {
	s := memory.NewSessionStore(memory.SessionStoreConfig[int]{CleanupInterval: time.Millisecond})
	defer s.Close()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := fmt.Sprintf("g%d-%d", g, i%20)
				s.Put(id, i)
				s.Get(id)
				if i%7 == 0 {
					s.Delete(id)
				}
			}
		}(g)
	}
	wg.Wait()

	if s.Len() > 8*20 {
		t.Errorf("Len = %d exceeds distinct ids", s.Len())
	}
}
