package idgen_test

import (
	"regexp"
	"sync"
	"testing"

	"github.com/artpar/plancart/adapters/idgen"
)

func TestUUID_New(t *testing.T) {
	id := idgen.UUID{}.New()

	uuidRegex := regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	if !uuidRegex.MatchString(id) {
		t.Errorf("ID %s doesn't match UUID v4 format", id)
	}
}

func TestToken_New(t *testing.T) {
	g := idgen.Token{Prefix: "vs_"}
	re := regexp.MustCompile(`^vs_[0-9a-f]{32}$`)

	seen := make(map[string]bool)
	for i := 0; i < 500; i++ {
		id := g.New()
		if !re.MatchString(id) {
			t.Fatalf("token %q has wrong shape", id)
		}
		if seen[id] {
			t.Fatalf("duplicate token %s", id)
		}
		seen[id] = true
	}
}

func TestSequential_New(t *testing.T) {
	g := idgen.NewSequential("sess_")

	for _, want := range []string{"sess_1", "sess_2", "sess_3"} {
		if got := g.New(); got != want {
			t.Errorf("New() = %s, want %s", got, want)
		}
	}
}

func TestSequential_Concurrent(t *testing.T) {
	g := idgen.NewSequential("")

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := g.New()
			mu.Lock()
			seen[id] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	if len(seen) != 100 {
		t.Errorf("got %d unique IDs, want 100", len(seen))
	}
}
