package outreach

import (
	"context"
	"regexp"
	"strings"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harbiz/prospect-cli/internal/config"
	"github.com/harbiz/prospect-cli/internal/model"
	"github.com/harbiz/prospect-cli/pkg/anthropic"
)

const (
	// defaultWorkers bounds concurrency toward the generative oracle.
	defaultWorkers = 4
	// maxErrorLen truncates per-item error descriptions on CopyResult.
	maxErrorLen = 160
)

// Enricher generates one outreach message per selected candidate using a
// bounded worker pool. A nil oracle client routes every candidate through
// the deterministic generator.
type Enricher struct {
	oracle      anthropic.Client
	model       string
	workers     int
	temperature float64
}

// NewEnricher creates an Enricher. oracle may be nil.
func NewEnricher(oracle anthropic.Client, aiCfg config.AnthropicConfig, cfg config.OutreachConfig) *Enricher {
	workers := cfg.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}
	temp := cfg.Temperature
	if temp <= 0 {
		temp = 0.75
	}
	return &Enricher{
		oracle:      oracle,
		model:       aiCfg.SonnetModel,
		workers:     workers,
		temperature: temp,
	}
}

// Enrich produces one CopyResult per selected candidate, in input order.
// Workers claim indexes from a shared cursor and write disjoint result
// slots, so only the cursor needs synchronization. All workers run to
// completion before Enrich returns; one slow or failing item never blocks
// the others from starting.
func (e *Enricher) Enrich(ctx context.Context, selected []model.Candidate, actorContact string, profileType model.ProfileType) []model.CopyResult {
	results := make([]model.CopyResult, len(selected))
	if len(selected) == 0 {
		return results
	}

	workers := e.workers
	if workers > len(selected) {
		workers = len(selected)
	}

	var cursor atomic.Int64
	g := new(errgroup.Group)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for {
				idx := int(cursor.Add(1)) - 1
				if idx >= len(selected) {
					return nil
				}
				results[idx] = e.generateOne(ctx, selected[idx], actorContact, profileType)
			}
		})
	}
	_ = g.Wait()

	return results
}

// generateOne computes the CopyResult for a single candidate, falling back
// to the deterministic generator on any oracle failure.
func (e *Enricher) generateOne(ctx context.Context, c model.Candidate, actorContact string, profileType model.ProfileType) model.CopyResult {
	if e.oracle == nil {
		return model.CopyResult{
			Handle: c.Handle,
			Copy:   Generate(actorContact, c.Title, c.Snippet),
			Source: model.CopySourceFallback,
		}
	}

	text, err := e.callOracle(ctx, c, actorContact, profileType)
	if err != nil {
		zap.L().Warn("outreach: oracle copy failed, using fallback",
			zap.String("handle", c.Handle),
			zap.Error(err),
		)
		return model.CopyResult{
			Handle: c.Handle,
			Copy:   Generate(actorContact, c.Title, c.Snippet),
			Source: model.CopySourceFallback,
			Error:  truncateError(err.Error()),
		}
	}

	return model.CopyResult{
		Handle: c.Handle,
		Copy:   normalizePunctuation(text),
		Source: model.CopySourceOracle,
	}
}

// copySystemPrompt fixes the oracle's output contract: only the final
// message, no explanation.
const copySystemPrompt = "Devuelve únicamente el mensaje final, sin explicación."

func (e *Enricher) callOracle(ctx context.Context, c model.Candidate, actorContact string, profileType model.ProfileType) (string, error) {
	sdr := SDRName(actorContact)

	var prompt strings.Builder
	prompt.WriteString("Escribe un DM corto de Instagram en español para prospección de Harbiz.\n\n")
	prompt.WriteString("Remitente: " + sdr + " (SDR de Harbiz).\n")
	prompt.WriteString("Tipo de perfil objetivo: " + string(profileType) + ".\n")
	prompt.WriteString("Título del perfil: " + c.Title + "\n")
	prompt.WriteString("Bio/snippet: " + c.Snippet + "\n\n")
	prompt.WriteString("Estructura obligatoria:\n")
	prompt.WriteString("1. Línea de apertura \"Hola! Soy " + sdr + ".\" seguida de la frase exacta \"Le eché un vistazo a tu perfil\".\n")
	if profileType == model.ProfileTypeCenter {
		prompt.WriteString("2. Una línea corta de pitch: Harbiz ordena reservas, clases y clientes en una sola plataforma.\n")
		prompt.WriteString("3. Pregunta de cierre sobre cómo gestionan hoy las reservas.\n")
	} else {
		prompt.WriteString("2. Una línea corta de pitch: Harbiz ordena planes, seguimiento y comunicación con clientes en una sola app.\n")
		prompt.WriteString("3. Pregunta de cierre sobre cómo lleva hoy a sus clientes.\n")
	}
	prompt.WriteString("\nRestricciones: sin signos de interrogación invertidos, sin emojis, máximo 3 líneas.")

	temp := e.temperature
	resp, err := e.oracle.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       e.model,
		MaxTokens:   512,
		System:      copySystemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt.String()}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogUsage(e.model, "copy")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errEmptyCopy
	}
	return text, nil
}

var errEmptyCopy = eris.New("outreach: empty oracle response")

var repeatedQuestionMarks = regexp.MustCompile(`\?{2,}`)

// normalizePunctuation strips inverted question marks and collapses runs of
// question marks, which the oracle occasionally emits despite instructions.
func normalizePunctuation(s string) string {
	s = strings.ReplaceAll(s, "¿", "")
	s = repeatedQuestionMarks.ReplaceAllString(s, "?")
	return strings.TrimSpace(s)
}

// truncateError caps the message at maxErrorLen runes so multibyte text is
// never cut mid-rune.
func truncateError(s string) string {
	runes := []rune(s)
	if len(runes) <= maxErrorLen {
		return s
	}
	return string(runes[:maxErrorLen])
}
