package editor

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
	"github.com/smallbiznis/offerly/pkg/retry"
	"go.uber.org/zap"
)

// fakeDocs serves LatestDraft from canned state; the rest of the service
// interface is unused by the initializer.
type fakeDocs struct {
	mu      sync.Mutex
	draft   *offerdomain.Document
	errs    []error
	calls   int
	saves   int
	blockCh chan struct{}
}

func (f *fakeDocs) LatestDraft(ctx context.Context) (*offerdomain.Document, error) {
	f.mu.Lock()
	block := f.blockCh
	f.calls++
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	draft := f.draft
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return draft, nil
}

func (f *fakeDocs) SaveDraft(ctx context.Context, snapshot offerdomain.Snapshot) (*offerdomain.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	return &offerdomain.Document{ID: snowflake.ID(f.saves)}, nil
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

func testRetryConfig() retry.Config {
	return retry.Config{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond}
}

func newTestStore(t *testing.T) *aggregate.Store {
	t.Helper()
	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake.NewNode: %v", err)
	}
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return aggregate.NewStore(node, clk)
}

func draftDocument(t *testing.T, counterparty string) *offerdomain.Document {
	t.Helper()
	snap := offerdomain.EmptySnapshot()
	snap.Counterparty.Name = counterparty
	payload, err := offerdomain.EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("encode snapshot: %v", err)
	}
	return &offerdomain.Document{ID: 7, Status: offerdomain.DocumentStatusDraft, Payload: payload}
}

func TestInitializeFreshStartsBlank(t *testing.T) {
	store := newTestStore(t)
	store.UpdateCounterparty(aggregate.CounterpartyPatch{Name: strPtr("Stale Corp")})

	init := NewInitializer(store, &fakeDocs{}, zap.NewNop(), testRetryConfig())
	if err := init.Initialize(context.Background(), Intent{Kind: IntentFresh}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if init.State() != StateReady {
		t.Fatalf("state = %s, want ready", init.State())
	}
	if got := store.Snapshot().Counterparty.Name; got != "" {
		t.Fatalf("stale state survived: %q", got)
	}
	if store.Dirty() {
		t.Fatal("fresh session must start clean")
	}
}

func TestInitializeResumesDraft(t *testing.T) {
	store := newTestStore(t)
	docs := &fakeDocs{draft: draftDocument(t, "Resumed Ltd")}

	init := NewInitializer(store, docs, zap.NewNop(), testRetryConfig())
	if err := init.Initialize(context.Background(), Intent{Kind: IntentResumeDraft}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}

	if got := store.Snapshot().Counterparty.Name; got != "Resumed Ltd" {
		t.Fatalf("counterparty = %q, want Resumed Ltd", got)
	}
	if store.Dirty() {
		t.Fatal("resumed draft must not be marked dirty")
	}
}

func TestInitializeResumeWithoutDraftStaysBlank(t *testing.T) {
	store := newTestStore(t)
	init := NewInitializer(store, &fakeDocs{}, zap.NewNop(), testRetryConfig())

	if err := init.Initialize(context.Background(), Intent{Kind: IntentResumeDraft}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if init.State() != StateReady {
		t.Fatalf("state = %s, want ready", init.State())
	}
}

func TestInitializeFailsOpenOnFetchError(t *testing.T) {
	store := newTestStore(t)
	docs := &fakeDocs{errs: []error{
		errors.New("connection refused"),
		errors.New("connection refused"),
		errors.New("connection refused"),
	}}

	init := NewInitializer(store, docs, zap.NewNop(), testRetryConfig())
	err := init.Initialize(context.Background(), Intent{Kind: IntentResumeDraft})
	if err == nil {
		t.Fatal("expected fetch error to be reported")
	}
	if init.State() != StateReady {
		t.Fatalf("state = %s, want ready despite the error", init.State())
	}
	if docs.calls != 3 {
		t.Fatalf("fetch attempts = %d, want 3", docs.calls)
	}
}

func TestInitializeRetriesTransientFetchErrors(t *testing.T) {
	store := newTestStore(t)
	docs := &fakeDocs{
		draft: draftDocument(t, "Eventually Ltd"),
		errs:  []error{errors.New("connection refused")},
	}

	init := NewInitializer(store, docs, zap.NewNop(), testRetryConfig())
	if err := init.Initialize(context.Background(), Intent{Kind: IntentResumeDraft}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := store.Snapshot().Counterparty.Name; got != "Eventually Ltd" {
		t.Fatalf("counterparty = %q", got)
	}
}

func TestInitializeFailsOpenOnUnreadableDraft(t *testing.T) {
	store := newTestStore(t)
	docs := &fakeDocs{draft: &offerdomain.Document{ID: 7, Payload: []byte(`{"schema_version":99}`)}}

	init := NewInitializer(store, docs, zap.NewNop(), testRetryConfig())
	err := init.Initialize(context.Background(), Intent{Kind: IntentResumeDraft})
	if !errors.Is(err, offerdomain.ErrUnsupportedSnapshot) {
		t.Fatalf("err = %v, want ErrUnsupportedSnapshot", err)
	}
	if init.State() != StateReady {
		t.Fatalf("state = %s, want ready", init.State())
	}
}

func TestInitializeOpenSaved(t *testing.T) {
	store := newTestStore(t)
	snap := offerdomain.EmptySnapshot()
	snap.Counterparty.Name = "Opened Ltd"
	snap.Status = offerdomain.AggregateStatusCommitted

	init := NewInitializer(store, &fakeDocs{}, zap.NewNop(), testRetryConfig())
	if err := init.Initialize(context.Background(), Intent{Kind: IntentOpenSaved, Snapshot: &snap}); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := store.Snapshot().Counterparty.Name; got != "Opened Ltd" {
		t.Fatalf("counterparty = %q", got)
	}

	if err := init.Initialize(context.Background(), Intent{Kind: IntentOpenSaved}); err != ErrMissingSnapshot {
		t.Fatalf("err = %v, want ErrMissingSnapshot", err)
	}
}

func TestInitializeDropsConcurrentCalls(t *testing.T) {
	store := newTestStore(t)
	docs := &fakeDocs{blockCh: make(chan struct{})}

	init := NewInitializer(store, docs, zap.NewNop(), testRetryConfig())

	done := make(chan error, 1)
	go func() { done <- init.Initialize(context.Background(), Intent{Kind: IntentResumeDraft}) }()

	deadline := time.Now().Add(time.Second)
	for init.State() != StatePopulating && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if init.State() != StatePopulating {
		t.Fatal("initializer never reached populating")
	}

	if err := init.Initialize(context.Background(), Intent{Kind: IntentFresh}); err != ErrInitializationInProgress {
		t.Fatalf("err = %v, want ErrInitializationInProgress", err)
	}

	close(docs.blockCh)
	if err := <-done; err != nil {
		t.Fatalf("blocked Initialize: %v", err)
	}
}

func TestEnsureIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	docs := &fakeDocs{}

	init := NewInitializer(store, docs, zap.NewNop(), testRetryConfig())
	if err := init.Ensure(context.Background(), Intent{Kind: IntentResumeDraft}); err != nil {
		t.Fatalf("first Ensure: %v", err)
	}
	if err := init.Ensure(context.Background(), Intent{Kind: IntentResumeDraft}); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if docs.calls != 1 {
		t.Fatalf("fetches = %d, want 1", docs.calls)
	}
}

func TestInitializeRejectsUnknownIntent(t *testing.T) {
	store := newTestStore(t)
	init := NewInitializer(store, &fakeDocs{}, zap.NewNop(), testRetryConfig())
	if err := init.Initialize(context.Background(), Intent{Kind: "teleport"}); err != ErrUnknownIntent {
		t.Fatalf("err = %v, want ErrUnknownIntent", err)
	}
}

func strPtr(s string) *string { return &s }
