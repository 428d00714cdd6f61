package feature

import (
	"errors"
	"testing"
	"time"

	"github.com/rushteam/histfeat/core"
)

func TestMemoryMonitor(t *testing.T) {
	m := NewMemoryMonitor()
	m.ObserveCompute(core.EventProductBuy, "stats", 2*time.Millisecond)
	m.ObserveCompute(core.EventProductBuy, "stats", 3*time.Millisecond)
	m.RecordError(core.EventProductBuy, "stats", errors.New("x"))

	if got := m.Computed("product_buy.stats"); got != 2 {
		t.Errorf("Computed = %d, want 2", got)
	}
	if got := m.Errors("product_buy.stats"); got != 1 {
		t.Errorf("Errors = %d, want 1", got)
	}
	if got := m.Elapsed("product_buy.stats"); got != 5*time.Millisecond {
		t.Errorf("Elapsed = %v, want 5ms", got)
	}
	if got := m.Computed("search_query.query"); got != 0 {
		t.Errorf("unknown key = %d, want 0", got)
	}
}

func TestGroupByClient(t *testing.T) {
	events := []core.Event{
		{ClientID: 2, Timestamp: daysAgo(1)},
		{ClientID: 1, Timestamp: daysAgo(3), Fields: map[string]any{"n": 1}},
		{ClientID: 1, Timestamp: daysAgo(5)},
		{ClientID: 1, Timestamp: daysAgo(3), Fields: map[string]any{"n": 2}},
	}
	groups := GroupByClient(events)
	if len(groups) != 2 {
		t.Fatalf("groups = %d", len(groups))
	}
	g := groups[1]
	if !g[0].Timestamp.Equal(daysAgo(5)) {
		t.Errorf("group not sorted: %v", g)
	}
	if g[1].Fields["n"] != 1 || g[2].Fields["n"] != 2 {
		t.Error("equal timestamps must keep input order")
	}
	if !MaxTimestamp(events).Equal(daysAgo(1)) {
		t.Errorf("MaxTimestamp = %v", MaxTimestamp(events))
	}
	if ids := ClientIDs(events, []core.Event{{ClientID: 0}}); len(ids) != 3 || ids[0] != 0 {
		t.Errorf("ClientIDs = %v", ids)
	}
}
