package negotiation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/BerylCAtieno/synapse/internal/models"
)

const (
	fallbackExcerptLen        = 200
	fallbackBrandSentiment    = 0.5
	fallbackConsumerSentiment = -0.2
)

var ErrMalformedTranscript = errors.New("malformed transcript")

// ParseTranscript strictly decodes raw model output as a JSON array of turns.
func ParseTranscript(raw string) (models.Transcript, error) {
	var turns models.Transcript
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &turns); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTranscript, err)
	}
	if len(turns) == 0 {
		return nil, fmt.Errorf("%w: no turns", ErrMalformedTranscript)
	}
	for i := range turns {
		if !turns[i].Actor.Valid() {
			return nil, fmt.Errorf("%w: turn %d has actor %q", ErrMalformedTranscript, i, turns[i].Actor)
		}
		if strings.TrimSpace(turns[i].Text) == "" {
			return nil, fmt.Errorf("%w: turn %d has no text", ErrMalformedTranscript, i)
		}
		if s := turns[i].Sentiment; s != nil {
			clamped := clamp(*s)
			turns[i].Sentiment = &clamped
		}
	}
	return turns, nil
}

// FallbackTranscript is substituted when the model output does not parse: the
// brand restates the offer and the consumer turn carries the first 200
// characters of the raw output.
func FallbackTranscript(campaign *models.Campaign, raw string) models.Transcript {
	excerpt := raw
	if r := []rune(raw); len(r) > fallbackExcerptLen {
		excerpt = string(r[:fallbackExcerptLen])
	}
	return models.Transcript{
		{
			Actor:     models.ActorBrand,
			Text:      fmt.Sprintf("Offering %s for %s%s", campaign.ProductName, models.CurrencySymbol(campaign.Currency), campaign.Price.String()),
			Sentiment: sentiment(fallbackBrandSentiment),
		},
		{
			Actor:     models.ActorConsumer,
			Text:      excerpt,
			Sentiment: sentiment(fallbackConsumerSentiment),
		},
	}
}

// TranscriptOrFallback parses raw and falls back on any parse error. The bool
// reports whether the fallback was used.
func TranscriptOrFallback(campaign *models.Campaign, raw string) (models.Transcript, bool) {
	turns, err := ParseTranscript(raw)
	if err != nil {
		return FallbackTranscript(campaign, raw), true
	}
	return turns, false
}

// ClassifyOutcome looks only at the final turn: "accept" wins over "counter",
// anything else is a rejection. Matching is case-insensitive substring search.
func ClassifyOutcome(t models.Transcript) models.Outcome {
	last, ok := t.Last()
	if !ok {
		return models.OutcomeRejected
	}
	text := strings.ToLower(last.Text)
	switch {
	case strings.Contains(text, "accept"):
		return models.OutcomeAccepted
	case strings.Contains(text, "counter"):
		return models.OutcomeCounter
	default:
		return models.OutcomeRejected
	}
}

func sentiment(v float64) *float64 { return &v }

func clamp(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}
