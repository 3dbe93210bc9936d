package outreach

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/harbiz/prospect-cli/internal/config"
	"github.com/harbiz/prospect-cli/internal/model"
	"github.com/harbiz/prospect-cli/pkg/anthropic"
)

type mockOracle struct {
	mock.Mock
}

func (m *mockOracle) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
	}
}

func testEnricher(oracle anthropic.Client, workers int) *Enricher {
	return NewEnricher(oracle,
		config.AnthropicConfig{SonnetModel: "sonnet"},
		config.OutreachConfig{Workers: workers, Temperature: 0.75},
	)
}

func selectedCandidates(n int) []model.Candidate {
	out := make([]model.Candidate, n)
	for i := range out {
		out[i] = model.Candidate{
			Handle:  "coach_" + string(rune('a'+i)),
			Title:   "Coach " + string(rune('A'+i)),
			Snippet: "entrenador personal",
		}
	}
	return out
}

func TestEnrich_NilOracleUsesFallbackForAll(t *testing.T) {
	e := testEnricher(nil, 4)
	results := e.Enrich(context.Background(), selectedCandidates(3), "maria@harbiz.io", model.ProfileTypePT)

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, "coach_"+string(rune('a'+i)), r.Handle, "results keep input order")
		assert.Equal(t, model.CopySourceFallback, r.Source)
		assert.Empty(t, r.Error)
		assert.Contains(t, r.Copy, "Le eché un vistazo")
	}
}

func TestEnrich_EverySlotFilledExactlyOnce(t *testing.T) {
	oracle := new(mockOracle)
	var calls atomic.Int64
	oracle.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("Hola! Soy Maria. Mensaje."), nil).Run(func(mock.Arguments) {
		calls.Add(1)
	})

	e := testEnricher(oracle, 4)
	selected := selectedCandidates(10)
	results := e.Enrich(context.Background(), selected, "maria@harbiz.io", model.ProfileTypePT)

	require.Len(t, results, 10)
	assert.Equal(t, int64(10), calls.Load())
	for i, r := range results {
		assert.Equal(t, selected[i].Handle, r.Handle)
		assert.Equal(t, model.CopySourceOracle, r.Source)
		assert.NotEmpty(t, r.Copy)
	}
}

func TestEnrich_WorkerCountNeverExceedsConfigured(t *testing.T) {
	oracle := new(mockOracle)

	var mu sync.Mutex
	var inFlight, peak int
	gate := make(chan struct{})

	oracle.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("msg"), nil).Run(func(mock.Arguments) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()
		<-gate
		mu.Lock()
		inFlight--
		mu.Unlock()
	})

	e := testEnricher(oracle, 2)
	done := make(chan []model.CopyResult)
	go func() {
		done <- e.Enrich(context.Background(), selectedCandidates(6), "x@harbiz.io", model.ProfileTypePT)
	}()

	close(gate)
	results := <-done

	require.Len(t, results, 6)
	mu.Lock()
	assert.LessOrEqual(t, peak, 2)
	mu.Unlock()
}

func TestEnrich_OracleFailureFallsBackPerItem(t *testing.T) {
	oracle := new(mockOracle)
	oracle.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, eris.New("anthropic: 529 overloaded")).Once()
	oracle.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("Mensaje del oráculo"), nil)

	e := testEnricher(oracle, 1)
	results := e.Enrich(context.Background(), selectedCandidates(2), "x@harbiz.io", model.ProfileTypePT)

	require.Len(t, results, 2)
	assert.Equal(t, model.CopySourceFallback, results[0].Source)
	assert.Contains(t, results[0].Error, "529")
	assert.Contains(t, results[0].Copy, "Le eché un vistazo")

	assert.Equal(t, model.CopySourceOracle, results[1].Source)
	assert.Empty(t, results[1].Error)
}

func TestEnrich_EmptyOracleResponseFallsBack(t *testing.T) {
	oracle := new(mockOracle)
	oracle.On("CreateMessage", mock.Anything, mock.Anything).Return(textResponse("   "), nil)

	e := testEnricher(oracle, 1)
	results := e.Enrich(context.Background(), selectedCandidates(1), "x@harbiz.io", model.ProfileTypePT)

	require.Len(t, results, 1)
	assert.Equal(t, model.CopySourceFallback, results[0].Source)
	assert.NotEmpty(t, results[0].Error)
}

func TestEnrich_ErrorsAreTruncated(t *testing.T) {
	oracle := new(mockOracle)
	oracle.On("CreateMessage", mock.Anything, mock.Anything).Return(nil, eris.New(strings.Repeat("x", 500)))

	e := testEnricher(oracle, 1)
	results := e.Enrich(context.Background(), selectedCandidates(1), "x@harbiz.io", model.ProfileTypePT)

	require.Len(t, results, 1)
	assert.LessOrEqual(t, len(results[0].Error), maxErrorLen)
}

func TestTruncateError_RuneBoundary(t *testing.T) {
	long := strings.Repeat("ñ", maxErrorLen+40)
	got := truncateError(long)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, maxErrorLen, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("ñ", maxErrorLen), got)
}

func TestEnrich_EmptySelection(t *testing.T) {
	e := testEnricher(nil, 4)
	assert.Empty(t, e.Enrich(context.Background(), nil, "x@harbiz.io", model.ProfileTypePT))
}

func TestNormalizePunctuation(t *testing.T) {
	assert.Equal(t, "Como lo llevas hoy?", normalizePunctuation("¿Como lo llevas hoy???"))
	assert.Equal(t, "Sin cambios.", normalizePunctuation("Sin cambios."))
}
