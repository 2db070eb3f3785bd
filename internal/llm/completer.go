package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// Temperature is the sampling temperature every provider call uses.
	Temperature = 0.8

	// Kickoff is sent alongside the rendered prompt to start the exchange.
	Kickoff = "Start the negotiation simulation."
)

var ErrUnknownModel = errors.New("unsupported model")

// Completer sends one prompt to a text completion provider and returns the raw
// text of the reply.
type Completer interface {
	Provider() string
	Model() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// ProviderError is returned for any failed completion call. Its message is the
// generic "<Provider> API failed"; the cause is kept for logs only.
type ProviderError struct {
	Provider   string
	StatusCode int
	Cause      error
}

func (e *ProviderError) Error() string { return e.Provider + " API failed" }

func (e *ProviderError) Unwrap() error { return e.Cause }

// Detail is the verbose form for logging.
func (e *ProviderError) Detail() string {
	switch {
	case e.Cause != nil && e.StatusCode != 0:
		return fmt.Sprintf("%s http %d: %v", e.Provider, e.StatusCode, e.Cause)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Provider, e.Cause)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s http %d", e.Provider, e.StatusCode)
	}
	return e.Error()
}

// Registry selects a completer by model selector.
type Registry struct {
	byName       map[string]Completer
	defaultModel string
}

// NewRegistry indexes completers by their model name and provider alias. The
// default model must resolve to one of them.
func NewRegistry(defaultModel string, completers ...Completer) (*Registry, error) {
	r := &Registry{byName: map[string]Completer{}, defaultModel: strings.ToLower(strings.TrimSpace(defaultModel))}
	for _, c := range completers {
		r.byName[strings.ToLower(c.Model())] = c
		alias := strings.ToLower(c.Provider())
		if _, taken := r.byName[alias]; !taken {
			r.byName[alias] = c
		}
	}
	if _, ok := r.byName[r.defaultModel]; !ok {
		return nil, fmt.Errorf("default model %q: %w", defaultModel, ErrUnknownModel)
	}
	return r, nil
}

// Resolve returns the completer for model, or the default one for "".
func (r *Registry) Resolve(model string) (Completer, error) {
	key := strings.ToLower(strings.TrimSpace(model))
	if key == "" {
		key = r.defaultModel
	}
	c, ok := r.byName[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return c, nil
}

func (r *Registry) DefaultModel() string { return r.defaultModel }

// Observer receives the duration and result of every completion call.
type Observer interface {
	ObserveCompletion(provider string, took time.Duration, err error)
}

type observed struct {
	Completer
	obs Observer
}

// WithObserver wraps c so each Complete call is reported to obs.
func WithObserver(c Completer, obs Observer) Completer {
	if obs == nil {
		return c
	}
	return &observed{Completer: c, obs: obs}
}

func (o *observed) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := o.Completer.Complete(ctx, prompt)
	o.obs.ObserveCompletion(o.Provider(), time.Since(start), err)
	return text, err
}
