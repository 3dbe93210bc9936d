// Package pipeline orchestrates a full prospect discovery run: rate
// limiting, query fan-out, candidate ranking, outreach copy generation,
// and persistence.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harbiz/prospect-cli/internal/config"
	"github.com/harbiz/prospect-cli/internal/location"
	"github.com/harbiz/prospect-cli/internal/model"
	"github.com/harbiz/prospect-cli/internal/outreach"
	"github.com/harbiz/prospect-cli/internal/ratelimit"
	"github.com/harbiz/prospect-cli/internal/search"
	"github.com/harbiz/prospect-cli/internal/store"
)

// ErrRateLimited is returned when an actor exceeds the request window.
var ErrRateLimited = eris.New("pipeline: rate limit exceeded")

// Request is a single discovery run as submitted by an actor.
type Request struct {
	Location    string `json:"location"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Keywords    string `json:"keywords"`
	ProfileType string `json:"profileType"`
	Count       int    `json:"count"`
	Actor       string `json:"actor"`
	ActorID     string `json:"actorId"`
}

// Result is everything a completed run produced.
type Result struct {
	RunID    string             `json:"runId"`
	Queries  []string           `json:"queries"`
	Failures []string           `json:"failures,omitempty"`
	Ranked   []model.Candidate  `json:"ranked"`
	Selected []model.Candidate  `json:"selected"`
	Copies   []model.CopyResult `json:"copies"`
	Leads    []model.Lead       `json:"leads"`
}

// Pipeline wires the discovery stages together.
type Pipeline struct {
	cfg      *config.Config
	store    store.Store
	limiter  *ratelimit.Limiter
	runner   *search.Runner
	ranker   *search.Ranker
	enricher *outreach.Enricher
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	limiter *ratelimit.Limiter,
	runner *search.Runner,
	ranker *search.Ranker,
	enricher *outreach.Enricher,
) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		store:    st,
		limiter:  limiter,
		runner:   runner,
		ranker:   ranker,
		enricher: enricher,
	}
}

// Run executes a full discovery run for one request.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	profileType := model.ProfileType(req.ProfileType)
	if !profileType.Valid() {
		return nil, eris.Errorf("pipeline: unknown profile type %q", req.ProfileType)
	}
	if req.Keywords == "" {
		return nil, eris.New("pipeline: keywords are required")
	}

	actorID := req.ActorID
	if actorID == "" {
		actorID = req.Actor
	}
	if actorID == "" {
		actorID = "anonymous"
	}
	if p.limiter != nil && !p.limiter.Admit(actorID) {
		return nil, ErrRateLimited
	}

	loc := location.Parse(req.Location, req.City, req.Country)
	searchReq := model.SearchRequest{
		Location:    loc.ForSearch(req.Location),
		Keywords:    req.Keywords,
		ProfileType: profileType,
		Count:       model.ClampCount(req.Count),
	}

	log := zap.L().With(
		zap.String("actor", actorID),
		zap.String("profile_type", string(profileType)),
		zap.String("location", searchReq.Location),
	)
	log.Info("pipeline: starting discovery run", zap.Int("count", searchReq.Count))

	start := time.Now()
	queries, candidates, failures, err := p.runner.Run(ctx, searchReq)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: search")
	}
	log.Info("pipeline: search complete",
		zap.Int("queries", len(queries)),
		zap.Int("candidates", len(candidates)),
		zap.Int("failures", len(failures)),
		zap.Duration("elapsed", time.Since(start)),
	)

	selected, err := p.ranker.Rank(ctx, searchReq, candidates)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: rank")
	}
	copies := p.enricher.Enrich(ctx, selected, req.Actor, profileType)

	result := &Result{
		Queries:  queries,
		Failures: failures,
		Ranked:   candidates,
		Selected: selected,
		Copies:   copies,
	}

	if p.store != nil {
		if err := p.persist(ctx, req, actorID, searchReq, loc, result); err != nil {
			return nil, err
		}
	}

	log.Info("pipeline: run complete",
		zap.String("run_id", result.RunID),
		zap.Int("selected", len(selected)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func (p *Pipeline) persist(ctx context.Context, req Request, actorID string, searchReq model.SearchRequest, loc location.Parsed, result *Result) error {
	label := string(searchReq.ProfileType) + ": " + searchReq.Keywords + " @ " + searchReq.Location

	runID, err := p.store.CreateSearchRun(ctx, model.SearchRun{
		WorkspaceID: p.cfg.Workspace.ID,
		OwnerID:     actorID,
		Query:       label,
		Filters: map[string]any{
			"location":    searchReq.Location,
			"keywords":    searchReq.Keywords,
			"profileType": string(searchReq.ProfileType),
			"count":       searchReq.Count,
		},
		ResultsCount: len(result.Selected),
	})
	if err != nil {
		return eris.Wrap(err, "pipeline: create search run")
	}
	result.RunID = runID

	profiles := make([]model.Profile, 0, len(result.Selected))
	for _, c := range result.Selected {
		profiles = append(profiles, model.Profile{
			Handle:       c.Handle,
			FullName:     c.Title,
			BusinessType: searchReq.ProfileType.BusinessType(),
			City:         loc.City,
			Country:      loc.Country,
			SourcePayload: map[string]any{
				"snippet":     c.Snippet,
				"sourceQuery": c.SourceQuery,
			},
		})
	}
	refs, err := p.store.UpsertProfiles(ctx, profiles)
	if err != nil {
		return eris.Wrap(err, "pipeline: upsert profiles")
	}

	idByHandle := make(map[string]string, len(refs))
	for _, ref := range refs {
		idByHandle[ref.Handle] = ref.ID
	}
	copyByHandle := make(map[string]model.CopyResult, len(result.Copies))
	for _, cr := range result.Copies {
		copyByHandle[cr.Handle] = cr
	}

	now := time.Now().UTC()
	leads := make([]model.Lead, 0, len(result.Selected))
	for _, c := range result.Selected {
		profileID := idByHandle[c.Handle]
		if profileID == "" {
			zap.L().Warn("pipeline: no profile id for handle, skipping lead", zap.String("handle", c.Handle))
			continue
		}
		leads = append(leads, model.Lead{
			WorkspaceID:   p.cfg.Workspace.ID,
			ProfileID:     profileID,
			OwnerID:       actorID,
			Actor:         req.Actor,
			Status:        model.LeadStatusNew,
			SourceQuery:   c.SourceQuery,
			Confidence:    model.Confidence(c.Score),
			GeneratedCopy: copyByHandle[c.Handle].Copy,
			Handle:        c.Handle,
			BusinessType:  searchReq.ProfileType.BusinessType(),
			City:          loc.City,
			Country:       loc.Country,
			DiscoveredAt:  now,
		})
	}
	if err := p.store.UpsertLeads(ctx, leads); err != nil {
		return eris.Wrap(err, "pipeline: upsert leads")
	}
	result.Leads = leads
	return nil
}
