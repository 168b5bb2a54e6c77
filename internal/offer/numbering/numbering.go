// Package numbering assigns sequential document numbers. Numbers are
// derived from the latest committed document rather than a dedicated
// counter table, so the sequence survives restores and imports.
package numbering

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/offerly/internal/clock"
	offerdomain "github.com/smallbiznis/offerly/internal/offer/domain"
	"github.com/smallbiznis/offerly/pkg/retry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const firstNumber = "00001"

// Generator produces the next document number for an organization.
type Generator struct {
	db       *gorm.DB
	repo     offerdomain.Repository
	clk      clock.Clock
	log      *zap.Logger
	retryCfg retry.Config
}

// NewGenerator builds a generator over the document repository.
func NewGenerator(db *gorm.DB, repo offerdomain.Repository, clk clock.Clock, log *zap.Logger, retryCfg retry.Config) *Generator {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{
		db:       db,
		repo:     repo,
		clk:      clk,
		log:      log.Named("offer.numbering"),
		retryCfg: retryCfg,
	}
}

// Next returns the successor of the latest committed document's number,
// zero-padded to five digits. When the lookup fails even after retries, a
// timestamp-derived fallback is returned so the commit can proceed; the
// degradation is logged.
func (g *Generator) Next(ctx context.Context, orgID snowflake.ID) string {
	latest, err := retry.Do(ctx, g.retryCfg, func(ctx context.Context) (*offerdomain.Document, error) {
		return g.repo.FindLatestCommitted(ctx, g.db, orgID)
	})
	if err != nil {
		fallback := fmt.Sprintf("%05d", g.clk.Now().Unix()%100000)
		g.log.Warn("document number lookup failed, using timestamp fallback",
			zap.String("org_id", orgID.String()),
			zap.String("fallback", fallback),
			zap.Error(err),
		)
		return fallback
	}
	if latest == nil {
		return firstNumber
	}

	n, ok := parseNumeric(latest.DocumentNumber)
	if !ok {
		g.log.Warn("latest document number is not numeric, restarting sequence",
			zap.String("org_id", orgID.String()),
			zap.String("document_number", latest.DocumentNumber),
		)
		return firstNumber
	}
	return fmt.Sprintf("%05d", n+1)
}

// parseNumeric extracts the numeric part of a document number, tolerating
// prefixes like "OF-" that imported documents may carry.
func parseNumeric(number string) (int64, bool) {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
