package draft

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerly/internal/clock"
	"github.com/smallbiznis/offerly/internal/offer/aggregate"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"go.uber.org/zap"
)

// fakeDocs records SaveDraft calls and optionally blocks them.
type fakeDocs struct {
	mu      sync.Mutex
	saves   int
	failErr error
	block   chan struct{}
}

func (f *fakeDocs) SaveDraft(ctx context.Context, snapshot offerdomain.Snapshot) (*offerdomain.Document, error) {
	f.mu.Lock()
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.failErr != nil {
		return nil, f.failErr
	}
	return &offerdomain.Document{ID: snowflake.ID(f.saves)}, nil
}

func (f *fakeDocs) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saves
}

func (f *fakeDocs) LatestDraft(ctx context.Context) (*offerdomain.Document, error) {
	return nil, nil
}

func (f *fakeDocs) Commit(ctx context.Context, req offerdomain.CommitRequest) (*offerdomain.Document, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDocs) List(ctx context.Context, req offerdomain.ListRequest) (offerdomain.ListResponse, error) {
	return offerdomain.ListResponse{}, nil
}

func (f *fakeDocs) GetByID(ctx context.Context, id string) (*offerdomain.Document, error) {
	return nil, nil
}

func (f *fakeDocs) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeDocs) UpdateStatus(ctx context.Context, id string, status offerdomain.DocumentStatus) (*offerdomain.Document, error) {
	return nil, nil
}

func newTestController(t *testing.T, docs *fakeDocs, cfg Config) (*Controller, *aggregate.Store) {
	t.Helper()
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake.NewNode: %v", err)
	}
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	store := aggregate.NewStore(node, clk)
	ctrl := NewController(42, store, docs, clk, zap.NewNop(), cfg)
	t.Cleanup(ctrl.Close)
	return ctrl, store
}

func name(s string) *string { return &s }

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met within timeout")
}

func TestSaveDraftPersistsAndClearsDirty(t *testing.T) {
	docs := &fakeDocs{}
	ctrl, store := newTestController(t, docs, Config{})

	store.UpdateCounterparty(aggregate.CounterpartyPatch{Name: name("Acme")})
	if err := ctrl.SaveDraft(context.Background()); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}

	if docs.saveCount() != 1 {
		t.Fatalf("saves = %d, want 1", docs.saveCount())
	}
	if store.Dirty() {
		t.Fatal("store should be clean after save")
	}
}

func TestSaveDraftSkipsCleanStore(t *testing.T) {
	docs := &fakeDocs{}
	ctrl, _ := newTestController(t, docs, Config{})

	if err := ctrl.SaveDraft(context.Background()); err != nil {
		t.Fatalf("SaveDraft: %v", err)
	}
	if docs.saveCount() != 0 {
		t.Fatalf("saves = %d, want 0", docs.saveCount())
	}
}

func TestConcurrentSavesCoalesce(t *testing.T) {
	docs := &fakeDocs{block: make(chan struct{})}
	ctrl, store := newTestController(t, docs, Config{})

	store.UpdateCounterparty(aggregate.CounterpartyPatch{Name: name("Acme")})

	done := make(chan error, 1)
	go func() { done <- ctrl.SaveDraft(context.Background()) }()

	// Wait until the first save is blocked in flight, then pile on
	// several more requests. They must collapse into one follow-up.
	waitFor(t, time.Second, func() bool {
		ctrl.mu.Lock()
		defer ctrl.mu.Unlock()
		return ctrl.saving
	})
	store.UpdateTerms(aggregate.TermsPatch{Currency: name("EUR")})
	for i := 0; i < 5; i++ {
		if err := ctrl.SaveDraft(context.Background()); err != nil {
			t.Fatalf("SaveDraft: %v", err)
		}
	}

	close(docs.block)
	if err := <-done; err != nil {
		t.Fatalf("blocked SaveDraft: %v", err)
	}

	if got := docs.saveCount(); got != 2 {
		t.Fatalf("saves = %d, want 2 (in-flight plus one coalesced)", got)
	}
	if store.Dirty() {
		t.Fatal("store should be clean after the coalesced save")
	}
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	docs := &fakeDocs{failErr: errors.New("db down")}
	ctrl, store := newTestController(t, docs, Config{})

	store.UpdateCounterparty(aggregate.CounterpartyPatch{Name: name("Acme")})
	if err := ctrl.SaveDraft(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if !store.Dirty() {
		t.Fatal("store must stay dirty after a failed save")
	}
}

func TestAutoSaveDebounces(t *testing.T) {
	docs := &fakeDocs{}
	ctrl, store := newTestController(t, docs, Config{Debounce: 20 * time.Millisecond})

	ctrl.ToggleAutoSave(true)
	if !ctrl.AutoSaveEnabled() {
		t.Fatal("autosave should be enabled")
	}

	// A burst of edits inside the quiet period produces one save.
	for i := 0; i < 5; i++ {
		store.UpdateCounterparty(aggregate.CounterpartyPatch{Name: name("Acme")})
		time.Sleep(2 * time.Millisecond)
	}
	waitFor(t, time.Second, func() bool { return docs.saveCount() == 1 })

	time.Sleep(50 * time.Millisecond)
	if got := docs.saveCount(); got != 1 {
		t.Fatalf("saves = %d, want 1", got)
	}
}

func TestAutoSaveIgnoresResetAndReplace(t *testing.T) {
	docs := &fakeDocs{}
	ctrl, store := newTestController(t, docs, Config{Debounce: 10 * time.Millisecond})

	ctrl.ToggleAutoSave(true)
	store.Reset()
	store.Replace(offerdomain.EmptySnapshot())

	time.Sleep(40 * time.Millisecond)
	if got := docs.saveCount(); got != 0 {
		t.Fatalf("saves = %d, want 0", got)
	}
}

func TestToggleAutoSaveOffCancelsTimer(t *testing.T) {
	docs := &fakeDocs{}
	ctrl, store := newTestController(t, docs, Config{Debounce: 20 * time.Millisecond})

	ctrl.ToggleAutoSave(true)
	store.UpdateCounterparty(aggregate.CounterpartyPatch{Name: name("Acme")})
	ctrl.ToggleAutoSave(false)

	time.Sleep(50 * time.Millisecond)
	if got := docs.saveCount(); got != 0 {
		t.Fatalf("saves = %d, want 0", got)
	}
}

func TestFlushSavesImmediately(t *testing.T) {
	docs := &fakeDocs{}
	ctrl, store := newTestController(t, docs, Config{Debounce: time.Hour})

	ctrl.ToggleAutoSave(true)
	store.UpdateCounterparty(aggregate.CounterpartyPatch{Name: name("Acme")})

	if err := ctrl.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if docs.saveCount() != 1 {
		t.Fatalf("saves = %d, want 1", docs.saveCount())
	}
}
