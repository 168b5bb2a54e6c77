package editor

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerly/internal/clock"
	"github.com/smallbiznis/offerly/internal/offer/aggregate"
	"github.com/smallbiznis/offerly/internal/offer/draft"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T, docs *fakeDocs) *Manager {
	t.Helper()
	node, err := snowflake.NewNode(5)
	if err != nil {
		t.Fatalf("snowflake.NewNode: %v", err)
	}
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	return NewManager(docs, node, clk, zap.NewNop(), draft.Config{Debounce: time.Hour}, testRetryConfig())
}

func TestEnterReusesSessionPerOrg(t *testing.T) {
	manager := newTestManager(t, &fakeDocs{})
	ctx := context.Background()

	first, err := manager.Enter(ctx, 100, Intent{Kind: IntentFresh})
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	second, err := manager.Enter(ctx, 100, Intent{Kind: IntentFresh})
	if err != nil {
		t.Fatalf("re-Enter: %v", err)
	}
	if first != second {
		t.Fatal("same org must reuse the session")
	}

	other, err := manager.Enter(ctx, 200, Intent{Kind: IntentFresh})
	if err != nil {
		t.Fatalf("Enter other org: %v", err)
	}
	if other == first {
		t.Fatal("orgs must not share sessions")
	}
}

func TestEnterFreshClearsPreviousEdits(t *testing.T) {
	manager := newTestManager(t, &fakeDocs{})
	ctx := context.Background()

	session, err := manager.Enter(ctx, 100, Intent{Kind: IntentFresh})
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	session.Store.UpdateCounterparty(aggregate.CounterpartyPatch{Name: strPtr("Old Corp")})

	if _, err := manager.Enter(ctx, 100, Intent{Kind: IntentFresh}); err != nil {
		t.Fatalf("re-Enter: %v", err)
	}
	if got := session.Store.Snapshot().Counterparty.Name; got != "" {
		t.Fatalf("previous edits survived: %q", got)
	}
}

func TestEnsureKeepsPopulatedSession(t *testing.T) {
	docs := &fakeDocs{draft: nil}
	manager := newTestManager(t, docs)
	ctx := context.Background()

	session, err := manager.Ensure(ctx, 100, Intent{Kind: IntentResumeDraft})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	session.Store.UpdateCounterparty(aggregate.CounterpartyPatch{Name: strPtr("Kept Corp")})

	if _, err := manager.Ensure(ctx, 100, Intent{Kind: IntentResumeDraft}); err != nil {
		t.Fatalf("second Ensure: %v", err)
	}
	if got := session.Store.Snapshot().Counterparty.Name; got != "Kept Corp" {
		t.Fatalf("Ensure must not reset a populated session, got %q", got)
	}
}

func TestCloseFlushesDirtyDrafts(t *testing.T) {
	docs := &fakeDocs{}
	manager := newTestManager(t, docs)
	ctx := context.Background()

	session, err := manager.Enter(ctx, 100, Intent{Kind: IntentFresh})
	if err != nil {
		t.Fatalf("Enter: %v", err)
	}
	session.Store.UpdateCounterparty(aggregate.CounterpartyPatch{Name: strPtr("Acme")})

	manager.Close(ctx)

	docs.mu.Lock()
	saves := docs.saves
	docs.mu.Unlock()
	if saves != 1 {
		t.Fatalf("saves on shutdown = %d, want 1", saves)
	}
	if _, ok := manager.Get(100); ok {
		t.Fatal("sessions must be dropped on close")
	}
}
