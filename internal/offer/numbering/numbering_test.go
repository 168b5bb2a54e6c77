package numbering

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerly/internal/clock"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"github.com/smallbiznis/offerly/pkg/retry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// stubRepo serves FindLatestCommitted from canned responses; the other
// repository methods are unused here.
type stubRepo struct {
	offerdomain.Repository

	calls  int
	latest *offerdomain.Document
	errs   []error
}

func (s *stubRepo) FindLatestCommitted(ctx context.Context, db *gorm.DB, orgID snowflake.ID) (*offerdomain.Document, error) {
	s.calls++
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return nil, err
	}
	return s.latest, nil
}

func newTestGenerator(repo *stubRepo) (*Generator, *clock.Fake) {
	clk := clock.NewFake(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	cfg := retry.Config{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	return NewGenerator(nil, repo, clk, zap.NewNop(), cfg), clk
}

func TestNextStartsAtOne(t *testing.T) {
	gen, _ := newTestGenerator(&stubRepo{})
	if got := gen.Next(context.Background(), 1); got != "00001" {
		t.Fatalf("number = %q, want 00001", got)
	}
}

func TestNextIncrementsLatest(t *testing.T) {
	repo := &stubRepo{latest: &offerdomain.Document{DocumentNumber: "00041"}}
	gen, _ := newTestGenerator(repo)
	if got := gen.Next(context.Background(), 1); got != "00042" {
		t.Fatalf("number = %q, want 00042", got)
	}
}

func TestNextHandlesPrefixedNumbers(t *testing.T) {
	repo := &stubRepo{latest: &offerdomain.Document{DocumentNumber: "OF-00107"}}
	gen, _ := newTestGenerator(repo)
	if got := gen.Next(context.Background(), 1); got != "00108" {
		t.Fatalf("number = %q, want 00108", got)
	}
}

func TestNextRestartsOnGarbageNumber(t *testing.T) {
	repo := &stubRepo{latest: &offerdomain.Document{DocumentNumber: "draft"}}
	gen, _ := newTestGenerator(repo)
	if got := gen.Next(context.Background(), 1); got != "00001" {
		t.Fatalf("number = %q, want 00001", got)
	}
}

func TestNextRetriesTransientLookupFailures(t *testing.T) {
	repo := &stubRepo{
		latest: &offerdomain.Document{DocumentNumber: "00009"},
		errs:   []error{errors.New("connection refused"), errors.New("connection refused")},
	}
	gen, _ := newTestGenerator(repo)
	if got := gen.Next(context.Background(), 1); got != "00010" {
		t.Fatalf("number = %q, want 00010", got)
	}
	if repo.calls != 3 {
		t.Fatalf("calls = %d, want 3", repo.calls)
	}
}

func TestNextFallsBackToTimestamp(t *testing.T) {
	repo := &stubRepo{errs: []error{
		errors.New("connection refused"),
		errors.New("connection refused"),
		errors.New("connection refused"),
		errors.New("connection refused"),
	}}
	gen, clk := newTestGenerator(repo)

	got := gen.Next(context.Background(), 1)
	want := fmt.Sprintf("%05d", clk.Now().Unix()%100000)
	if got != want {
		t.Fatalf("number = %q, want %q", got, want)
	}
	if len(got) != 5 {
		t.Fatalf("fallback %q is not five digits", got)
	}
}
