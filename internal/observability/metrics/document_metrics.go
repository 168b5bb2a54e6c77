package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// DocumentMetrics counts offer lifecycle outcomes.
type DocumentMetrics struct {
	draftSaves   prometheus.Counter
	commits      prometheus.Counter
	draftsPruned prometheus.Counter
}

var (
	documentMetricsOnce sync.Once
	documentMetrics     *DocumentMetrics
)

// Document returns the process-wide document metrics, registering them on
// first use.
func Document() *DocumentMetrics {
	return DocumentWithConfig(Config{})
}

func DocumentWithConfig(cfg Config) *DocumentMetrics {
	documentMetricsOnce.Do(func() {
		documentMetrics = newDocumentMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return documentMetrics
}

func newDocumentMetrics(registerer prometheus.Registerer, cfg Config) *DocumentMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	constLabels := cfg.constLabels()

	draftSaves := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "offerly_draft_saves_total",
		Help:        "Draft snapshots persisted, explicit and autosave.",
		ConstLabels: constLabels,
	})

	commits := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "offerly_documents_committed_total",
		Help:        "Offers committed into numbered documents.",
		ConstLabels: constLabels,
	})

	draftsPruned := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "offerly_drafts_pruned_total",
		Help:        "Superseded drafts removed by the janitor.",
		ConstLabels: constLabels,
	})

	registerer.MustRegister(draftSaves, commits, draftsPruned)

	return &DocumentMetrics{
		draftSaves:   draftSaves,
		commits:      commits,
		draftsPruned: draftsPruned,
	}
}

func (m *DocumentMetrics) IncDraftSaved() {
	if m == nil {
		return
	}
	m.draftSaves.Inc()
}

func (m *DocumentMetrics) IncCommitted() {
	if m == nil {
		return
	}
	m.commits.Inc()
}

func (m *DocumentMetrics) AddDraftsPruned(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.draftsPruned.Add(float64(count))
}
