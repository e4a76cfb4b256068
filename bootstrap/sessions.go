package bootstrap

import (
	"github.com/artpar/plancart/adapters/memory"
	"github.com/artpar/plancart/adapters/metrics"
	"github.com/artpar/plancart/app"
	"github.com/artpar/plancart/ports"
)

// trackedSessions keeps the active sessions gauge in step with the store.
type trackedSessions struct {
	*memory.SessionStore[*app.Visitor]
	metrics *metrics.Collector
}

func newTrackedSessions(cfg memory.SessionStoreConfig[*app.Visitor], m *metrics.Collector) *trackedSessions {
	t := &trackedSessions{metrics: m}
	cfg.OnEvict = func(string, *app.Visitor) { t.observe() }
	t.SessionStore = memory.NewSessionStore(cfg)
	return t
}

func (t *trackedSessions) Put(id string, v *app.Visitor) {
	t.SessionStore.Put(id, v)
	t.observe()
}

func (t *trackedSessions) Delete(id string) {
	t.SessionStore.Delete(id)
	t.observe()
}

func (t *trackedSessions) observe() {
	if t.metrics != nil {
		t.metrics.ActiveSessions.Set(float64(t.SessionStore.Len()))
	}
}

var _ ports.SessionStore[*app.Visitor] = (*trackedSessions)(nil)
