package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/BerylCAtieno/synapse/internal/logger"
)

const ProviderGemini = "Gemini"

var errMissingGeminiKey = errors.New("missing GEMINI_API_KEY")

// GeminiClient talks to the generate-content API. The underlying genai client
// is created on first use so a missing key only fails the calls that need it.
type GeminiClient struct {
	log     *logger.Logger
	apiKey  string
	model   string
	timeout time.Duration

	once     sync.Once
	client   *genai.Client
	initErr  error
	generate func(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error)
}

// NewGeminiClient bounds every call by timeout when it is positive.
func NewGeminiClient(log *logger.Logger, apiKey, model string, timeout time.Duration) *GeminiClient {
	g := &GeminiClient{
		log:     log.With("service", "GeminiClient"),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
	}
	g.generate = g.generateContent
	return g
}

func (g *GeminiClient) Provider() string { return ProviderGemini }
func (g *GeminiClient) Model() string    { return g.model }

func (g *GeminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}

func (g *GeminiClient) init(ctx context.Context) error {
	g.once.Do(func() {
		if g.apiKey == "" {
			g.initErr = errMissingGeminiKey
			return
		}
		g.client, g.initErr = genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	})
	return g.initErr
}

func (g *GeminiClient) Complete(ctx context.Context, prompt string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.generate(ctx, prompt)
	if err != nil {
		g.log.Error("Gemini error", "model", g.model, "error", err)
		return "", &ProviderError{Provider: ProviderGemini, Cause: err}
	}
	text, ok := responseText(resp)
	if !ok {
		return "", &ProviderError{Provider: ProviderGemini, Cause: errors.New("no content generated")}
	}
	return text, nil
}

func (g *GeminiClient) generateContent(ctx context.Context, prompt string) (*genai.GenerateContentResponse, error) {
	if err := g.init(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}
	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(Temperature)
	return model.GenerateContent(ctx, genai.Text(prompt), genai.Text(Kickoff))
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	var b strings.Builder
	found := false
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
			found = true
		}
	}
	return b.String(), found
}
