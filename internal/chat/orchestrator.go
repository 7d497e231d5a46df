// Package chat implements C6: per-turn prompt assembly, the detached
// cleaner + GC task spawn, and the LLM gateway dispatch. Grounded on the
// request/response composition style visible in intelligencedev-manifold's
// routes.go/services.go, adapted away from its cookie-session plumbing.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"memoryd/internal/cleaner"
	"memoryd/internal/emotion"
	"memoryd/internal/llm"
	"memoryd/internal/metrics"
	"memoryd/internal/models"
	"memoryd/internal/retrieval"
)

// Role mirrors the wire-level message roles accepted by /chat.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is one turn of the incoming request.
type Message struct {
	Role    Role
	Content string
}

// Request is the /chat request body (minus auth, which is resolved by the
// caller).
type Request struct {
	Messages            []Message
	SystemInstruction   string
	SystemInstructionID *uuid.UUID
	Temperature         float64
	MaxTokens           int
}

// Response is the /chat response body.
type Response struct {
	Message string
	Usage   llm.Usage
}

// InstructionStore resolves system instructions and their default.
type InstructionStore interface {
	Default(ctx context.Context) (*models.SystemInstruction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.SystemInstruction, error)
}

// PromptStore resolves a user's custom prompt override.
type PromptStore interface {
	Get(ctx context.Context, userID, sid uuid.UUID) (*models.UserCustomPrompt, error)
}

// MemoryReader is the read surface the orchestrator needs from C2.
type MemoryReader interface {
	Recent(ctx context.Context, userID, sid uuid.UUID, n int) ([]models.ConversationMemory, error)
}

// AccessBumper is the write surface the orchestrator needs from C2 for
// the access-feedback loop.
type AccessBumper interface {
	BumpAccess(ctx context.Context, ids []uuid.UUID) error
}

// GC runs the rolling soft-delete the orchestrator fires after every
// turn, independent of should_clean.
type GC interface {
	RunRollingCutoff(ctx context.Context, userID, sid uuid.UUID) error
}

// EmotionProcessor runs C3's per-turn VA state update. The
// system_instruction resolved for the turn doubles as the "character" id,
// since the data model ties CharacterEmotionState to (User,
// SystemInstruction-as-character) rather than a separate character
// entity.
type EmotionProcessor interface {
	ProcessConversation(ctx context.Context, userID, charID uuid.UUID, messages []llm.Message) (emotion.Snapshot, error)
}

const recentMemoryCount = 3

// Orchestrator implements C6's chat(user_id, request) -> response.
type Orchestrator struct {
	gateway    llm.Gateway
	retriever  *retrieval.HybridRetriever
	instr      InstructionStore
	prompts    PromptStore
	memories   MemoryReader
	bumper     AccessBumper
	cleaner    *cleaner.Cleaner
	gc         GC
	emotion    EmotionProcessor
	batchSize  int
	log        zerolog.Logger
	metrics    metrics.Recorder
}

func NewOrchestrator(
	gateway llm.Gateway,
	retriever *retrieval.HybridRetriever,
	instr InstructionStore,
	prompts PromptStore,
	memories MemoryReader,
	bumper AccessBumper,
	cln *cleaner.Cleaner,
	gc GC,
	emotionProcessor EmotionProcessor,
	batchSize int,
	log zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		gateway: gateway, retriever: retriever, instr: instr, prompts: prompts,
		memories: memories, bumper: bumper, cleaner: cln, gc: gc, emotion: emotionProcessor,
		batchSize: batchSize, log: log,
		metrics: metrics.NoopRecorder{},
	}
}

// WithMetrics attaches a metrics recorder; nil is replaced with a no-op.
func (o *Orchestrator) WithMetrics(rec metrics.Recorder) *Orchestrator {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	o.metrics = rec
	return o
}

// Chat runs the full per-turn sequence: resolve instruction, load recent
// and retrieved memories, compose the prompt, spawn the detached
// cleaning/emotion/cutoff tasks, and call the LLM. The detached task it
// spawns is never awaited; the response is never delayed by cleaning,
// classification, embedding, or emotion analysis.
func (o *Orchestrator) Chat(ctx context.Context, userID uuid.UUID, req Request) (Response, error) {
	totalMessages := len(req.Messages)
	shouldClean := totalMessages >= o.batchSize

	sid, err := o.resolveInstructionID(ctx, req.SystemInstructionID)
	if err != nil {
		return Response{}, err
	}

	systemText, err := o.resolveInstructionText(ctx, req.SystemInstruction, req.SystemInstructionID, sid)
	if err != nil {
		return Response{}, err
	}

	recent, err := o.memories.Recent(ctx, userID, sid, recentMemoryCount)
	if err != nil {
		o.log.Warn().Err(err).Msg("chat: loading recent memories failed, continuing without them")
		recent = nil
	}

	lastUserMessage := lastUserContent(req.Messages)
	var scored []retrieval.Scored
	var feedback retrieval.AccessFeedback
	if lastUserMessage != "" {
		var queryEmbedding []float32
		if vec, embedErr := o.gateway.Embed(ctx, lastUserMessage); embedErr == nil {
			queryEmbedding = vec
		}
		retrievalStart := time.Now()
		scored, feedback, err = o.retriever.Retrieve(ctx, userID, sid, lastUserMessage, queryEmbedding)
		o.metrics.ObserveHistogram(metrics.RetrievalLatency, metrics.Since(retrievalStart), nil)
		if err != nil {
			o.log.Warn().Err(err).Msg("chat: retrieval failed, continuing without retrieved memories")
			scored, feedback = nil, retrieval.AccessFeedback{}
		}
	}

	var customPrompt string
	if o.prompts != nil {
		if p, err := o.prompts.Get(ctx, userID, sid); err == nil && p != nil {
			customPrompt = p.Content
		}
	}

	secondaryPrompt := composeSecondaryPrompt(customPrompt, recent, scored)

	messages := make([]llm.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, llm.Message{Role: llm.Role(m.Role), Content: m.Content})
	}

	o.spawnDetachedTasks(userID, sid, shouldClean, messages)

	llmStart := time.Now()
	result, err := o.gateway.Complete(ctx, llm.CompletionRequest{
		Messages:          messages,
		Temperature:       req.Temperature,
		MaxTokens:         req.MaxTokens,
		SystemInstruction: systemText,
		Prompt:            secondaryPrompt,
	})
	o.metrics.ObserveHistogram(metrics.LLMCallLatency, metrics.Since(llmStart), map[string]string{"op": "complete"})
	if err != nil {
		o.metrics.IncCounter(metrics.LLMCallErrors, map[string]string{"op": "complete"})
		return Response{}, err
	}

	if len(feedback.IDs) > 0 {
		if err := o.bumper.BumpAccess(ctx, feedback.IDs); err != nil {
			o.log.Warn().Err(err).Msg("chat: bump_access failed")
		}
	}

	return Response{Message: result.Content, Usage: result.Usage}, nil
}

func (o *Orchestrator) resolveInstructionID(ctx context.Context, explicit *uuid.UUID) (uuid.UUID, error) {
	if explicit != nil {
		return *explicit, nil
	}
	if def, err := o.instr.Default(ctx); err == nil && def != nil {
		return def.ID, nil
	}
	// Fall back to a fixed sentinel id when no default exists: explicit
	// id takes priority, then the configured default, then this sentinel.
	return uuid.MustParse(fallbackUUID), nil
}

func (o *Orchestrator) resolveInstructionText(ctx context.Context, explicit string, explicitID *uuid.UUID, sid uuid.UUID) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	if explicitID != nil {
		if si, err := o.instr.Get(ctx, *explicitID); err == nil && si != nil {
			return si.Content, nil
		}
	}
	if def, err := o.instr.Default(ctx); err == nil && def != nil {
		return def.Content, nil
	}
	return "", nil
}

// spawnDetachedTasks launches the cleaner (if should_clean) and the
// rolling 3-month soft-delete without awaiting either, each with its own
// DB session via the store implementations closed over at construction
// time. Errors are logged by the callees; nothing here can fail the turn.
func (o *Orchestrator) spawnDetachedTasks(userID, sid uuid.UUID, shouldClean bool, messages []llm.Message) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				o.log.Error().Interface("panic", r).Msg("chat: detached task panicked")
			}
		}()
		taskCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if shouldClean && o.cleaner != nil {
			o.cleaner.Clean(taskCtx, userID, sid, messages)
		}
		if o.emotion != nil {
			if _, err := o.emotion.ProcessConversation(taskCtx, userID, sid, messages); err != nil {
				o.log.Warn().Err(err).Msg("chat: emotion processing failed")
			}
		}
		if o.gc != nil {
			if err := o.gc.RunRollingCutoff(taskCtx, userID, sid); err != nil {
				o.log.Warn().Err(err).Msg("chat: rolling cutoff failed")
			}
		}
	}()
}

func lastUserContent(messages []Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// fallbackUUID is the nil-derived sentinel representing "system
// instruction 1" for deployments with no configured default, since ids
// here are UUIDs rather than the source's integer primary keys.
const fallbackUUID = "00000000-0000-0000-0000-000000000001"

func composeSecondaryPrompt(customPrompt string, recent []models.ConversationMemory, scored []retrieval.Scored) string {
	var parts []string
	if customPrompt != "" {
		parts = append(parts, customPrompt)
	}
	if len(recent) > 0 {
		parts = append(parts, formatRecentBlock(recent))
	}
	if len(scored) > 0 {
		parts = append(parts, formatRetrievedBlock(scored))
	}
	return strings.Join(parts, "\n\n")
}

func formatRecentBlock(recent []models.ConversationMemory) string {
	var sb strings.Builder
	sb.WriteString("Recent memories:\n")
	for _, m := range recent {
		sb.WriteString(fmt.Sprintf("- %s · %s", m.CreatedAt.Format(time.RFC3339), m.Summary))
		if line := formatEntityLine(m); line != "" {
			sb.WriteString(" · " + line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatRetrievedBlock(scored []retrieval.Scored) string {
	var sb strings.Builder
	sb.WriteString("Retrieved memories:\n")
	for _, s := range scored {
		sb.WriteString(fmt.Sprintf("- %s\n", s.Memory.Summary))
		for _, kp := range s.Memory.KeyPoints {
			sb.WriteString(fmt.Sprintf("  * %s\n", kp))
		}
	}
	return sb.String()
}

func formatEntityLine(m models.ConversationMemory) string {
	var bits []string
	if len(m.Entities.Dates) > 0 {
		bits = append(bits, strings.Join(m.Entities.Dates, ","))
	}
	if len(m.Entities.Locations) > 0 {
		bits = append(bits, strings.Join(m.Entities.Locations, ","))
	}
	if len(m.Entities.People) > 0 {
		bits = append(bits, strings.Join(m.Entities.People, ","))
	}
	return strings.Join(bits, " ")
}
