package fit

import (
	"context"
	"strings"
	"time"

	"github.com/DoyleJ11/draftboard/internal/draftapi"
	"github.com/DoyleJ11/draftboard/internal/metrics"
	"github.com/DoyleJ11/draftboard/internal/roster"
	"go.uber.org/zap"
)

// Analyzer is the read-only position analysis endpoint.
type Analyzer interface {
	PositionAnalysis(ctx context.Context, league string, teamID int) (draftapi.Analysis, error)
}

// Highlighter annotates available cards with the open team's positional fit.
// Refresh and the annotate step both run on the board's goroutine; only the fetch runs elsewhere.
type Highlighter struct {
	api     Analyzer
	league  string
	post    func(func())
	roster  *roster.Roster
	timeout time.Duration
	metrics *metrics.Metrics
	logger  *zap.Logger

	active int
}

type Options struct {
	API     Analyzer
	League  string
	Roster  *roster.Roster
	Post    func(f func()) // runs f on the board's goroutine
	Timeout time.Duration
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

func New(opts Options) *Highlighter {
	if opts.Timeout <= 0 {
		opts.Timeout = 8 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Highlighter{
		api:     opts.API,
		league:  opts.League,
		post:    opts.Post,
		roster:  opts.Roster,
		timeout: opts.Timeout,
		metrics: opts.Metrics,
		logger:  opts.Logger.Named("fit"),
	}
}

// activeTeam is the team whose analysis is currently wanted.
func (h *Highlighter) activeTeam() int { return h.active }

// Refresh makes teamID the active team and fetches its analysis in the background.
func (h *Highlighter) Refresh(ctx context.Context, teamID int) {
	h.active = teamID
	if h.api == nil {
		return
	}
	go func() {
		fctx, cancel := context.WithTimeout(ctx, h.timeout)
		defer cancel()
		a, err := h.api.PositionAnalysis(fctx, h.league, teamID)
		if err != nil {
			h.metrics.FitFailure()
			h.logger.Debug("position analysis failed", zap.Int("team", teamID), zap.Error(err))
			return
		}
		h.post(func() { h.apply(teamID, a) })
	}()
}

func (h *Highlighter) apply(teamID int, a draftapi.Analysis) {
	if teamID != h.active {
		h.logger.Debug("dropping analysis for inactive team", zap.Int("team", teamID), zap.Int("active", h.active))
		return
	}
	n := Annotate(h.roster.Available(), a.RecommendedPlayers)
	h.logger.Debug("fit annotated", zap.Int("team", teamID), zap.Int("cards", n))
}

// Annotate clears every fit badge in the pool, then marks the visible recommended cards.
// It returns the number of cards marked.
func Annotate(pool *roster.Container, recs []draftapi.Recommendation) int {
	for _, c := range pool.Cards {
		c.Fit = roster.FitNone
	}
	byID := make(map[int]roster.Fit, len(recs))
	for _, r := range recs {
		if f := Category(r.FitCategory); f != roster.FitNone {
			byID[r.PlayerID] = f
		}
	}
	n := 0
	for _, c := range pool.Cards {
		if !c.Visible() {
			continue
		}
		if f, ok := byID[c.PlayerID]; ok {
			c.Fit = f
			n++
		}
	}
	return n
}

// Category maps the server's fit category onto a badge.
func Category(s string) roster.Fit {
	switch strings.ToLower(s) {
	case "excellent", "strong":
		return roster.FitStrong
	case "good", "moderate":
		return roster.FitModerate
	default:
		return roster.FitNone
	}
}
