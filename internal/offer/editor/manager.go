package editor

import (
	"context"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerly/internal/clock"
	"github.com/smallbiznis/offerly/internal/offer/aggregate"
	"github.com/smallbiznis/offerly/internal/offer/draft"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"github.com/smallbiznis/offerly/internal/orgcontext"
	"github.com/smallbiznis/offerly/pkg/retry"
	"go.uber.org/zap"
)

// Session is one organization's live editing state: the aggregate store,
// its draft controller, and the initializer driving both.
type Session struct {
	OrgID       snowflake.ID
	Store       *aggregate.Store
	Controller  *draft.Controller
	Initializer *Initializer
}

// Manager hands out editing sessions, one per organization. Entering the
// editor again reuses the existing session; the intent decides whether it
// is re-populated.
type Manager struct {
	docs     offerdomain.Service
	genID    *snowflake.Node
	clk      clock.Clock
	log      *zap.Logger
	draftCfg draft.Config
	retryCfg retry.Config

	mu       sync.Mutex
	sessions map[snowflake.ID]*Session
}

// NewManager builds the session manager.
func NewManager(docs offerdomain.Service, genID *snowflake.Node, clk clock.Clock, log *zap.Logger, draftCfg draft.Config, retryCfg retry.Config) *Manager {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		docs:     docs,
		genID:    genID,
		clk:      clk,
		log:      log.Named("offer.editor"),
		draftCfg: draftCfg,
		retryCfg: retryCfg,
		sessions: make(map[snowflake.ID]*Session),
	}
}

// Enter returns the organization's session after running the intent
// through its initializer. The session itself is always usable; the
// returned error reports populate failures the caller may surface.
func (m *Manager) Enter(ctx context.Context, orgID snowflake.ID, intent Intent) (*Session, error) {
	session := m.session(orgID)
	err := session.Initializer.Initialize(ctx, intent)
	return session, err
}

// Ensure returns the organization's session, initializing it only when it
// has not been populated yet.
func (m *Manager) Ensure(ctx context.Context, orgID snowflake.ID, intent Intent) (*Session, error) {
	session := m.session(orgID)
	err := session.Initializer.Ensure(ctx, intent)
	return session, err
}

// Get returns the organization's session if one exists.
func (m *Manager) Get(orgID snowflake.ID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[orgID]
	return session, ok
}

func (m *Manager) session(orgID snowflake.ID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[orgID]; ok {
		return session
	}

	store := aggregate.NewStore(m.genID, m.clk)
	controller := draft.NewController(orgID, store, m.docs, m.clk, m.log, m.draftCfg)
	session := &Session{
		OrgID:       orgID,
		Store:       store,
		Controller:  controller,
		Initializer: NewInitializer(store, m.docs, m.log, m.retryCfg),
	}
	m.sessions[orgID] = session
	return session
}

// Close flushes dirty drafts and stops every controller. Flush errors are
// logged; shutdown proceeds regardless.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[snowflake.ID]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		if err := session.Controller.Flush(orgcontext.WithOrgID(ctx, session.OrgID)); err != nil {
			m.log.Warn("draft flush on shutdown failed",
				zap.String("org_id", session.OrgID.String()),
				zap.Error(err),
			)
		}
		session.Controller.Close()
	}
}
