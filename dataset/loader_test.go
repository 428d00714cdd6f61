package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rushteam/histfeat/core"
	"github.com/rushteam/histfeat/feature"
)

func ptr[T any](v T) *T { return &v }

func ts(day int) time.Time {
	return time.Date(2025, 1, day, 12, 0, 0, 0, time.UTC)
}

func writeFixture(t *testing.T, props []PropertyRow) DataDir {
	t.Helper()
	root := t.TempDir()
	dir := NewDataDir(root)
	if err := os.MkdirAll(dir.InputDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	buys := []core.Event{
		{ClientID: 1, Timestamp: ts(1), Fields: map[string]any{"sku": int64(10)}},
		{ClientID: 1, Timestamp: ts(3), Fields: map[string]any{"sku": int64(11)}},
		{ClientID: 2, Timestamp: ts(2), Fields: map[string]any{"sku": int64(10)}},
	}
	if err := WriteEvents(dir.EventFile(core.EventProductBuy), core.EventProductBuy, buys); err != nil {
		t.Fatalf("write product_buy: %v", err)
	}
	visits := []core.Event{
		{ClientID: 1, Timestamp: ts(2), Fields: map[string]any{"url": int64(7)}},
	}
	if err := WriteEvents(dir.EventFile(core.EventPageVisit), core.EventPageVisit, visits); err != nil {
		t.Fatalf("write page_visit: %v", err)
	}
	queries := []core.Event{
		{ClientID: 2, Timestamp: ts(4), Fields: map[string]any{"query": "[1 2 3]"}},
	}
	if err := WriteEvents(dir.EventFile(core.EventSearchQuery), core.EventSearchQuery, queries); err != nil {
		t.Fatalf("write search_query: %v", err)
	}
	if err := WriteProperties(dir.PropertiesFile, props); err != nil {
		t.Fatalf("write properties: %v", err)
	}
	if err := WriteClients(dir.RelevantClientsFile, []int64{1, 2, 3}); err != nil {
		t.Fatalf("write clients: %v", err)
	}
	return dir
}

func validProperties() []PropertyRow {
	return []PropertyRow{
		{SKU: 10, Category: ptr(int64(3)), Price: ptr(int64(50)), Name: ptr("[1 2]")},
		{SKU: 11, Category: ptr(int64(4)), Price: ptr(int64(70)), Name: ptr("[3 4]")},
	}
}

func TestLoader_LoadJoinsProductEvents(t *testing.T) {
	dir := writeFixture(t, validProperties())
	ld := NewLoader(dir)

	events, err := ld.Load(context.Background(), core.EventProductBuy)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	for _, ev := range events {
		for _, col := range []string{"sku", "category", "price", "name"} {
			if _, ok := ev.Get(col); !ok {
				t.Errorf("client %d: column %s missing after join", ev.ClientID, col)
			}
		}
	}
	cat, _ := events[1].Get("category")
	if cat != int64(4) {
		t.Errorf("expected category 4 for sku 11, got %v", cat)
	}
	if !events[0].Timestamp.Equal(ts(1)) {
		t.Errorf("timestamp round trip: got %v", events[0].Timestamp)
	}
}

func TestLoader_LoadExcludedTypesUnmodified(t *testing.T) {
	dir := writeFixture(t, validProperties())
	ld := NewLoader(dir)

	tests := []struct {
		eventType core.EventType
		column    string
		want      any
	}{
		{core.EventPageVisit, "url", int64(7)},
		{core.EventSearchQuery, "query", "[1 2 3]"},
	}
	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			events, err := ld.Load(context.Background(), tt.eventType)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			got, ok := events[0].Get(tt.column)
			if !ok || got != tt.want {
				t.Errorf("%s = %v, want %v", tt.column, got, tt.want)
			}
			if _, ok := events[0].Get("category"); ok {
				t.Error("excluded event type must not be joined")
			}
		})
	}
}

func TestLoader_JoinIntegrity(t *testing.T) {
	tests := []struct {
		name  string
		props []PropertyRow
	}{
		{
			name:  "missing sku",
			props: validProperties()[:1],
		},
		{
			name: "null property",
			props: []PropertyRow{
				{SKU: 10, Category: ptr(int64(3)), Price: ptr(int64(50)), Name: ptr("[1 2]")},
				{SKU: 11, Category: nil, Price: ptr(int64(70)), Name: ptr("[3 4]")},
			},
		},
		{
			name:  "duplicate sku",
			props: append(validProperties(), PropertyRow{SKU: 10, Category: ptr(int64(1)), Price: ptr(int64(1)), Name: ptr("[0]")}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeFixture(t, tt.props)
			_, err := NewLoader(dir).Load(context.Background(), core.EventProductBuy)
			if !core.IsJoinIntegrityError(err) {
				t.Fatalf("expected JoinIntegrityError, got %v", err)
			}
		})
	}
}

func TestLoader_UnknownEventType(t *testing.T) {
	ld := NewLoader(NewDataDir(t.TempDir()))
	_, err := ld.Load(context.Background(), core.EventType("click"))
	if !core.IsInvalidInput(err) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	ld := NewLoader(NewDataDir(t.TempDir()))
	if _, err := ld.Load(context.Background(), core.EventAddToCart); err == nil {
		t.Fatal("expected error for missing parquet file")
	}
}

func TestLoader_LoadRelevantClients(t *testing.T) {
	dir := writeFixture(t, validProperties())
	ids, err := NewLoader(dir).LoadRelevantClients(context.Background())
	if err != nil {
		t.Fatalf("LoadRelevantClients: %v", err)
	}
	if len(ids) != 3 || ids[0] != 1 || ids[2] != 3 {
		t.Errorf("unexpected clients %v", ids)
	}
}

func TestLoader_CanceledContext(t *testing.T) {
	dir := writeFixture(t, validProperties())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLoader(dir).Load(ctx, core.EventProductBuy); err == nil {
		t.Fatal("expected context error")
	}
}

func TestEmbeddingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "embeddings.parquet")
	m := &feature.Matrix{
		ClientIDs: []int64{5, 9},
		Rows: []core.FeatureVector{
			{1, 0, 2.5},
			{0, 0, 0},
		},
	}
	if err := WriteEmbeddings(path, m); err != nil {
		t.Fatalf("WriteEmbeddings: %v", err)
	}
	got, err := ReadEmbeddings(path)
	if err != nil {
		t.Fatalf("ReadEmbeddings: %v", err)
	}
	if len(got.ClientIDs) != 2 || got.ClientIDs[1] != 9 {
		t.Fatalf("unexpected client ids %v", got.ClientIDs)
	}
	if len(got.Rows[0]) != 3 || got.Rows[0][2] != 2.5 {
		t.Errorf("unexpected first row %v", got.Rows[0])
	}
}
