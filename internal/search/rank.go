package search

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/harbiz/prospect-cli/internal/config"
	"github.com/harbiz/prospect-cli/internal/model"
	"github.com/harbiz/prospect-cli/pkg/anthropic"
)

// rankTemperature keeps selection near-deterministic.
const rankTemperature = 0.2

// Ranker selects the best candidate subset via the ranking oracle, falling
// back to positional truncation when the oracle is unavailable or returns
// something unusable. A nil oracle client always takes the fallback path.
type Ranker struct {
	oracle anthropic.Client
	cfg    config.AnthropicConfig
}

// NewRanker creates a Ranker. oracle may be nil.
func NewRanker(oracle anthropic.Client, cfg config.AnthropicConfig) *Ranker {
	return &Ranker{oracle: oracle, cfg: cfg}
}

// rankPayload is the candidate list sent to the oracle. Score is deliberately
// omitted; the oracle judges from text alone.
type rankPayload struct {
	Location    string          `json:"location"`
	Keywords    string          `json:"keywords"`
	ProfileType string          `json:"profileType"`
	TopK        int             `json:"topK"`
	Candidates  []rankCandidate `json:"candidates"`
}

type rankCandidate struct {
	Handle      string `json:"handle"`
	Title       string `json:"title"`
	Snippet     string `json:"snippet"`
	SourceQuery string `json:"sourceQuery"`
}

// rankSelection is the shape the oracle is instructed to return.
type rankSelection struct {
	Selected []struct {
		Handle string `json:"handle"`
	} `json:"selected"`
}

// Rank returns at most req.Count candidates. An empty candidate list returns
// empty immediately without calling the oracle. On the oracle path, the
// result follows the oracle's returned order; on the fallback path it is the
// first req.Count candidates in registry order. A missing API key is fatal:
// it surfaces as anthropic.ErrMissingAPIKey instead of degrading silently.
func (r *Ranker) Rank(ctx context.Context, req model.SearchRequest, candidates []model.Candidate) ([]model.Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	if r.oracle == nil {
		return truncate(candidates, req.Count), nil
	}

	payload := rankPayload{
		Location:    req.Location,
		Keywords:    req.Keywords,
		ProfileType: string(req.ProfileType),
		TopK:        req.Count,
		Candidates:  make([]rankCandidate, len(candidates)),
	}
	for i, c := range candidates {
		payload.Candidates[i] = rankCandidate{
			Handle:      c.Handle,
			Title:       c.Title,
			Snippet:     c.Snippet,
			SourceQuery: c.SourceQuery,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return truncate(candidates, req.Count), nil
	}

	system := "Eres un experto en prospección fitness. " +
		"Selecciona perfiles REALES de Instagram entre los candidatos dados. " +
		"Devuelve SOLO JSON con la forma {\"selected\":[{\"handle\":\"...\"}]}. " +
		"No inventes handles que no estén en la lista. Máximo " + strconv.Itoa(req.Count) + "."

	temp := rankTemperature
	resp, err := r.oracle.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       r.cfg.HaikuModel,
		MaxTokens:   2048,
		System:      system,
		Messages:    []anthropic.Message{{Role: "user", Content: string(body)}},
		Temperature: &temp,
	})
	if err != nil {
		if eris.Is(err, anthropic.ErrMissingAPIKey) {
			return nil, err
		}
		zap.L().Warn("rank: oracle call failed, using positional fallback", zap.Error(err))
		return truncate(candidates, req.Count), nil
	}
	resp.Usage.LogUsage(r.cfg.HaikuModel, "rank")

	selection, ok := parseSelection(resp.Text())
	if !ok {
		zap.L().Warn("rank: unusable oracle response, using positional fallback")
		return truncate(candidates, req.Count), nil
	}

	byHandle := make(map[string]model.Candidate, len(candidates))
	for _, c := range candidates {
		byHandle[strings.ToLower(c.Handle)] = c
	}

	picked := make([]model.Candidate, 0, req.Count)
	taken := make(map[string]bool, req.Count)
	for _, sel := range selection.Selected {
		h := strings.ToLower(strings.TrimSpace(sel.Handle))
		c, known := byHandle[h]
		if !known || taken[h] {
			continue
		}
		taken[h] = true
		picked = append(picked, c)
		if len(picked) == req.Count {
			break
		}
	}
	return picked, nil
}

// parseSelection unmarshals the oracle's JSON, tolerating markdown fences.
func parseSelection(text string) (rankSelection, bool) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var sel rankSelection
	if err := json.Unmarshal([]byte(text), &sel); err != nil {
		return rankSelection{}, false
	}
	return sel, true
}

func truncate(candidates []model.Candidate, n int) []model.Candidate {
	if n > len(candidates) {
		n = len(candidates)
	}
	if n < 0 {
		n = 0
	}
	return candidates[:n]
}
