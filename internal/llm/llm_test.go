package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BerylCAtieno/synapse/internal/logger"
)

func TestOpenAIClientComplete(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"[{\"actor\":\"brand\",\"text\":\"hi\"}]"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(logger.Nop(), srv.URL+"/", "sk-test", "gpt-4o-mini", 0)
	text, err := c.Complete(context.Background(), "PROMPT")
	require.NoError(t, err)

	assert.Equal(t, `[{"actor":"brand","text":"hi"}]`, text)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.InDelta(t, 0.8, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "PROMPT"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: Kickoff}, got.Messages[1])
}

func TestOpenAIClientNonSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewOpenAIClient(logger.Nop(), srv.URL, "", "gpt-4o-mini", time.Second)
	_, err := c.Complete(context.Background(), "PROMPT")
	require.Error(t, err)
	assert.EqualError(t, err, "OpenAI API failed")

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	assert.Contains(t, perr.Detail(), "bad key")
}

func TestOpenAIClientEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient(logger.Nop(), srv.URL, "k", "m", 0).Complete(context.Background(), "p")
	assert.EqualError(t, err, "OpenAI API failed")
}

func TestGeminiMissingKeyFailsAtCallTime(t *testing.T) {
	g := NewGeminiClient(logger.Nop(), "", "gemini-2.5-flash-lite", 0)
	_, err := g.Complete(context.Background(), "PROMPT")
	assert.EqualError(t, err, "Gemini API failed")
	assert.ErrorIs(t, err, errMissingGeminiKey)
}

func TestGeminiTimeout(t *testing.T) {
	g := NewGeminiClient(logger.Nop(), "key", "gemini-2.5-flash-lite", 20*time.Millisecond)
	var deadline time.Time
	g.generate = func(ctx context.Context, _ string) (*genai.GenerateContentResponse, error) {
		deadline, _ = ctx.Deadline()
		<-ctx.Done()
		return nil, ctx.Err()
	}

	start := time.Now()
	_, err := g.Complete(context.Background(), "PROMPT")
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.False(t, deadline.IsZero())
	assert.EqualError(t, err, "Gemini API failed")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGeminiNoTimeout(t *testing.T) {
	g := NewGeminiClient(logger.Nop(), "key", "gemini-2.5-flash-lite", 0)
	g.generate = func(ctx context.Context, _ string) (*genai.GenerateContentResponse, error) {
		_, ok := ctx.Deadline()
		assert.False(t, ok)
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("[]")}},
		}}}, nil
	}

	text, err := g.Complete(context.Background(), "PROMPT")
	require.NoError(t, err)
	assert.Equal(t, "[]", text)
}

func TestResponseText(t *testing.T) {
	_, ok := responseText(nil)
	assert.False(t, ok)

	_, ok = responseText(&genai.GenerateContentResponse{Candidates: []*genai.Candidate{{}}})
	assert.False(t, ok)

	text, ok := responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text(`[{"actor":`), genai.Text(`"brand"}]`)}},
		}},
	})
	assert.True(t, ok)
	assert.Equal(t, `[{"actor":"brand"}]`, text)
}

type stubCompleter struct {
	provider, model, reply string
	err                    error
}

func (s stubCompleter) Provider() string { return s.provider }
func (s stubCompleter) Model() string    { return s.model }
func (s stubCompleter) Complete(context.Context, string) (string, error) {
	return s.reply, s.err
}

func TestRegistryResolve(t *testing.T) {
	openai := stubCompleter{provider: ProviderOpenAI, model: "gpt-4o-mini"}
	gemini := stubCompleter{provider: ProviderGemini, model: "gemini-2.5-flash-lite"}

	r, err := NewRegistry("gpt-4o-mini", openai, gemini)
	require.NoError(t, err)

	for selector, want := range map[string]string{
		"":                      "gpt-4o-mini",
		"gpt-4o-mini":           "gpt-4o-mini",
		"openai":                "gpt-4o-mini",
		"Gemini":                "gemini-2.5-flash-lite",
		"gemini-2.5-flash-lite": "gemini-2.5-flash-lite",
	} {
		c, err := r.Resolve(selector)
		require.NoError(t, err, selector)
		assert.Equal(t, want, c.Model(), selector)
	}

	_, err = r.Resolve("claude")
	assert.ErrorIs(t, err, ErrUnknownModel)

	_, err = NewRegistry("nope", openai)
	assert.ErrorIs(t, err, ErrUnknownModel)
}

type recordingObserver struct {
	provider string
	err      error
	calls    int
}

func (o *recordingObserver) ObserveCompletion(provider string, _ time.Duration, err error) {
	o.provider, o.err = provider, err
	o.calls++
}

func TestWithObserver(t *testing.T) {
	boom := &ProviderError{Provider: ProviderGemini, Cause: errors.New("down")}
	obs := &recordingObserver{}
	c := WithObserver(stubCompleter{provider: ProviderGemini, model: "g", err: boom}, obs)

	_, err := c.Complete(context.Background(), "p")
	assert.Same(t, boom, err)
	assert.Equal(t, 1, obs.calls)
	assert.Equal(t, ProviderGemini, obs.provider)
	assert.Same(t, boom, obs.err)
	assert.Equal(t, "g", c.Model())

	plain := stubCompleter{provider: "x"}
	assert.Equal(t, plain, WithObserver(plain, nil))
}
