// Package editor owns the editing sessions of the offer builder. A session
// binds one aggregate store, its draft controller, and the initializer
// that populates the store when the editor is entered.
package editor

import (
	"context"
	"errors"
	"sync"

	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"github.com/smallbiznis/offerly/pkg/retry"
	"go.uber.org/zap"
)

// State is the initializer lifecycle. Transitions only move forward
// within one Initialize call: Idle -> Resetting -> Populating -> Ready.
type State string

const (
	StateIdle       State = "idle"
	StateResetting  State = "resetting"
	StatePopulating State = "populating"
	StateReady      State = "ready"
)

// IntentKind says how the editor was entered.
type IntentKind string

const (
	// IntentFresh starts a blank offer.
	IntentFresh IntentKind = "fresh"
	// IntentResumeDraft loads the owner's latest persisted draft, if any.
	IntentResumeDraft IntentKind = "resume_draft"
	// IntentOpenSaved loads a previously committed document for editing.
	IntentOpenSaved IntentKind = "open_saved"
)

// Intent carries the entry mode and, for IntentOpenSaved, the snapshot of
// the document being opened.
type Intent struct {
	Kind     IntentKind
	Snapshot *offerdomain.Snapshot
}

var (
	ErrInitializationInProgress = errors.New("initialization_in_progress")
	ErrUnknownIntent            = errors.New("unknown_intent")
	ErrMissingSnapshot          = errors.New("missing_snapshot")
)

// store is the slice of the aggregate store the initializer drives.
type store interface {
	Reset()
	Replace(offerdomain.Snapshot)
}

// Initializer populates an aggregate store according to an entry intent.
// It is re-entrancy guarded: a second Initialize while one is running is
// rejected instead of queued, matching how navigation can double-fire.
type Initializer struct {
	store    store
	docs     offerdomain.Service
	log      *zap.Logger
	retryCfg retry.Config

	mu         sync.Mutex
	state      State
	inProgress bool
}

// NewInitializer builds an initializer over the given store.
func NewInitializer(store store, docs offerdomain.Service, log *zap.Logger, retryCfg retry.Config) *Initializer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Initializer{
		store:    store,
		docs:     docs,
		log:      log.Named("offer.editor"),
		retryCfg: retryCfg,
		state:    StateIdle,
	}
}

// State returns the current initializer state.
func (i *Initializer) State() State {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// Ready reports whether the store has been populated.
func (i *Initializer) Ready() bool {
	return i.State() == StateReady
}

// Initialize resets the store and populates it per the intent. The reset
// always happens first so stale aggregate state can never bleed into the
// new session, and it completes before any populate work starts.
//
// Draft resumption fails open: when the draft cannot be fetched or
// decoded even after retries, the session continues with a blank offer
// and the error is returned for the caller to surface. The store is
// Ready in either case.
func (i *Initializer) Initialize(ctx context.Context, intent Intent) error {
	switch intent.Kind {
	case IntentFresh, IntentResumeDraft:
	case IntentOpenSaved:
		if intent.Snapshot == nil {
			return ErrMissingSnapshot
		}
	default:
		return ErrUnknownIntent
	}

	i.mu.Lock()
	if i.inProgress {
		i.mu.Unlock()
		return ErrInitializationInProgress
	}
	i.inProgress = true
	i.state = StateResetting
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.inProgress = false
		i.state = StateReady
		i.mu.Unlock()
	}()

	i.store.Reset()

	i.mu.Lock()
	i.state = StatePopulating
	i.mu.Unlock()

	switch intent.Kind {
	case IntentFresh:
		return nil
	case IntentOpenSaved:
		i.store.Replace(intent.Snapshot.Clone())
		return nil
	default:
		return i.populateFromDraft(ctx)
	}
}

// Ensure initializes with the given intent only when the store is not
// already populated. Safe to call on every editor visit.
func (i *Initializer) Ensure(ctx context.Context, intent Intent) error {
	if i.Ready() {
		return nil
	}
	err := i.Initialize(ctx, intent)
	if errors.Is(err, ErrInitializationInProgress) {
		return nil
	}
	return err
}

func (i *Initializer) populateFromDraft(ctx context.Context) error {
	draft, err := retry.Do(ctx, i.retryCfg, func(ctx context.Context) (*offerdomain.Document, error) {
		return i.docs.LatestDraft(ctx)
	})
	if err != nil {
		i.log.Warn("draft fetch failed, starting blank", zap.Error(err))
		return err
	}
	if draft == nil {
		return nil
	}

	snapshot, err := offerdomain.DecodeSnapshot(draft.Payload)
	if err != nil {
		i.log.Warn("stored draft unreadable, starting blank",
			zap.String("document_id", draft.ID.String()),
			zap.Error(err),
		)
		return err
	}

	i.store.Replace(snapshot)
	i.log.Debug("draft resumed", zap.String("document_id", draft.ID.String()))
	return nil
}
