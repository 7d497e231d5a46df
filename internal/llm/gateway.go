// Package llm implements the uniform "chat completion" and "embed text"
// gateway (C1): retry/fallback across providers and the sole place
// permitted to extract a JSON object from a raw LLM reply. Grounded on
// intelligencedev-manifold's rag.go (embedding HTTP client shape) and
// anthropic.go (provider SDK client construction), generalized from
// HTTP-proxy handlers into a clean Gateway interface.
package llm

import (
	"context"
	"sync/atomic"
	"time"

	"memoryd/internal/apierr"
)

// Role is the speaker of one message in a completion request.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of a conversation.
type Message struct {
	Role    Role
	Content string
}

// Usage reports token accounting for a completion call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// CompletionResult is the gateway's response to Complete.
type CompletionResult struct {
	Content string
	Usage   Usage
}

// CompletionRequest carries everything Complete needs to assemble a call.
// SystemInstruction and Prompt, when present, are prepended as synthesized
// system-role turns ahead of Messages.
type CompletionRequest struct {
	Messages          []Message
	Temperature       float64
	MaxTokens         int
	SystemInstruction string
	Prompt            string
}

// Gateway is the uniform LLM capability the rest of the system depends on.
type Gateway interface {
	// Complete dispatches a chat completion. Fails with an
	// *apierr.Error of kind UpstreamError on transport or provider error.
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)

	// Embed returns a dense embedding for text, or an UpstreamError if no
	// provider in the chain can serve it right now. Callers (C4, C5) must
	// treat a failure as "fall back to lexical similarity", never as fatal.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Provider is a single backend the gateway can dispatch to.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// chainGateway tries each provider in order, falling through to the next
// on error, realizing C1's "retry/fallback" requirement across providers.
type chainGateway struct {
	providers []Provider
	timeout   time.Duration

	embedState *embedLatch
}

// NewGateway builds a Gateway that tries providers in the given order.
// A provider whose construction failed (e.g. missing API key) should
// simply be omitted from the slice by the caller rather than included in a
// broken state. With an empty slice every Complete and Embed call fails
// with an UpstreamError, and the first Embed call latches the permanent
// embedding fallback.
func NewGateway(providers []Provider, timeout time.Duration) Gateway {
	return &chainGateway{providers: providers, timeout: timeout, embedState: newEmbedLatch()}
}

func (g *chainGateway) Complete(ctx context.Context, req CompletionRequest) (CompletionResult, error) {
	if len(g.providers) == 0 {
		return CompletionResult{}, apierr.UpstreamErrorf(nil, "no llm provider configured")
	}
	var lastErr error
	for _, p := range g.providers {
		cctx, cancel := context.WithTimeout(ctx, g.timeout)
		res, err := p.Complete(cctx, req)
		cancel()
		if err == nil {
			return res, nil
		}
		lastErr = err
	}
	return CompletionResult{}, apierr.UpstreamErrorf(lastErr, "all llm providers failed")
}

// Embed is a process-wide lazily-initialized resource with a single
// initialization guard: having no embedding-capable provider at all is a
// permanent condition and latches the fallback state for the lifetime of
// the process. A transient per-call failure (a single provider request
// erroring out) does not latch — it only fails that one call, so a
// network blip doesn't disable embeddings process-wide.
func (g *chainGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	if g.embedState.fallback() {
		return nil, apierr.UpstreamErrorf(nil, "embedding model in permanent fallback")
	}
	if len(g.providers) == 0 {
		g.embedState.latch()
		return nil, apierr.UpstreamErrorf(nil, "no llm provider configured")
	}
	var lastErr error
	for _, p := range g.providers {
		cctx, cancel := context.WithTimeout(ctx, g.timeout)
		vec, err := p.Embed(cctx, text)
		cancel()
		if err == nil {
			return vec, nil
		}
		lastErr = err
	}
	return nil, apierr.UpstreamErrorf(lastErr, "all embedding providers failed")
}

// embedLatch implements the "no provider configured" permanent-fallback
// guard for the embedding capability as a whole. failed is read from the
// request path and written from goroutines started by detached cleaner
// tasks, so it's an atomic.Bool rather than a plain bool.
type embedLatch struct {
	failed atomic.Bool
}

func newEmbedLatch() *embedLatch { return &embedLatch{} }

func (e *embedLatch) fallback() bool { return e.failed.Load() }

func (e *embedLatch) latch() { e.failed.Store(true) }
