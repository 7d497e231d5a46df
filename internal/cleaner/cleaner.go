// Package cleaner implements C4: the asynchronous conversation cleaner
// that distills a batch of turns into a structured ConversationMemory.
// Grounded on intelligencedev-manifold's IngestAgenticMemory pipeline
// shape (summarize -> check -> embed -> insert -> link), generalized to
// a five-field structured extraction and category classification.
package cleaner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog"

	"memoryd/internal/archive"
	"memoryd/internal/audit"
	"memoryd/internal/events"
	"memoryd/internal/llm"
	"memoryd/internal/metrics"
	"memoryd/internal/models"
)

const transcriptCharLimit = 8000

const emotionMaxRetries = 3
const defaultEmotionalWeight = 0.5

// MemoryWriter is the persistence boundary the cleaner depends on.
type MemoryWriter interface {
	Insert(ctx context.Context, m *models.ConversationMemory) error
}

// extraction is the strict JSON shape the classify+extract LLM call
// returns.
type extraction struct {
	Summary        string          `json:"summary"`
	KeyPoints      []string        `json:"key_points"`
	ImportanceScore int            `json:"importance_score"`
	ShouldRemember bool            `json:"should_remember"`
	MemoryType     string          `json:"memory_type"`
	Reason         string          `json:"reason"`
	Entities       models.Entities `json:"entities"`
}

type emotionScore struct {
	Score int `json:"score"`
}

// Cleaner runs the 7-step distillation pipeline off the request path,
// using its own DB session via store, never sharing state with the
// request that spawned it.
type Cleaner struct {
	gateway   llm.Gateway
	store     MemoryWriter
	log       zerolog.Logger
	batchSize int
	archiver  archive.Archiver
	publisher events.Publisher
	audit     audit.Sink
	metrics   metrics.Recorder
}

func New(gateway llm.Gateway, store MemoryWriter, log zerolog.Logger, batchSize int) *Cleaner {
	return &Cleaner{gateway: gateway, store: store, log: log, batchSize: batchSize, metrics: metrics.NoopRecorder{}}
}

// WithMetrics attaches a metrics recorder; nil is replaced with a no-op.
func (c *Cleaner) WithMetrics(rec metrics.Recorder) *Cleaner {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	c.metrics = rec
	return c
}

// WithArchiver attaches an (optional) transcript archiver; nil leaves the
// cleaner with no archival step.
func (c *Cleaner) WithArchiver(a archive.Archiver) *Cleaner {
	c.archiver = a
	return c
}

// WithPublisher attaches an (optional) lifecycle event publisher.
func (c *Cleaner) WithPublisher(p events.Publisher) *Cleaner {
	c.publisher = p
	return c
}

// WithAudit attaches an (optional) durable audit sink for lifecycle
// transitions.
func (c *Cleaner) WithAudit(a audit.Sink) *Cleaner {
	c.audit = a
	return c
}

// Clean runs the full pipeline for one batch. Every error is logged and
// swallowed; it never propagates to the chat path that spawned it.
func (c *Cleaner) Clean(ctx context.Context, userID, sid uuid.UUID, messages []llm.Message) {
	transcript := formatTranscript(messages)

	ext, err := c.classifyAndExtract(ctx, transcript)
	if err != nil {
		c.log.Warn().Err(err).Msg("cleaner: classify/extract failed, skipping persist")
		return
	}
	if !ext.ShouldRemember {
		c.log.Debug().Str("reason", ext.Reason).Msg("cleaner: should_remember=false, skipping persist")
		return
	}

	category := Classify(ext.Summary, ext.Entities)
	emotionalWeight := c.scoreEmotion(ctx, transcript)

	var embedding *pgvector.Vector
	if vec, err := c.gateway.Embed(ctx, ext.Summary); err == nil {
		v := pgvector.NewVector(vec)
		embedding = &v
	} else {
		c.log.Debug().Err(err).Msg("cleaner: embedding unavailable, persisting without vector")
	}

	totalMessages := len(messages)
	round := totalMessages - (totalMessages % c.batchSize)

	memoryType := models.MemoryTypeActive
	if ext.MemoryType == string(models.MemoryTypePassive) {
		memoryType = models.MemoryTypePassive
	}

	importance := ext.ImportanceScore
	if importance < 1 {
		importance = 1
	}
	if importance > 10 {
		importance = 10
	}

	mem := &models.ConversationMemory{
		UserID:              userID,
		SystemInstructionID: sid,
		Summary:             ext.Summary,
		KeyPoints:           ext.KeyPoints,
		OriginalContent:     nil, // summary + key points stand in for the raw transcript
		Entities:            ext.Entities,
		Embedding:           embedding,
		MemoryType:          memoryType,
		Category:            category,
		Importance:          importance,
		Semantic:            float64(importance) / 10.0,
		EmotionalWgt:        emotionalWeight,
		CreatedAt:           time.Now(),
		ConversationRound:   round,
	}

	if err := c.store.Insert(ctx, mem); err != nil {
		c.log.Error().Err(err).Msg("cleaner: persist failed")
		return
	}
	c.log.Info().Str("memory_id", mem.ID.String()).Str("category", string(category)).Msg("cleaner: memory persisted")
	c.metrics.IncCounter(metrics.MemoriesPersisted, map[string]string{"category": string(category)})

	if c.archiver != nil {
		if err := c.archiver.ArchiveTranscript(ctx, mem.ID, transcript); err != nil {
			c.log.Warn().Err(err).Str("memory_id", mem.ID.String()).Msg("cleaner: transcript archive failed")
		}
	}
	if c.publisher != nil {
		evt := events.Event{
			Type:      events.EventPersisted,
			MemoryID:  mem.ID.String(),
			UserID:    userID.String(),
			Category:  string(category),
			Timestamp: mem.CreatedAt,
		}
		if err := c.publisher.Publish(ctx, evt); err != nil {
			c.log.Warn().Err(err).Str("memory_id", mem.ID.String()).Msg("cleaner: event publish failed")
		}
	}
	if c.audit != nil {
		if err := c.audit.RecordTransition(ctx, mem.ID, userID, "persisted"); err != nil {
			c.log.Warn().Err(err).Str("memory_id", mem.ID.String()).Msg("cleaner: audit record failed")
		}
	}
}

func formatTranscript(messages []llm.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		sb.WriteString(fmt.Sprintf("%s: %s\n\n", m.Role, m.Content))
	}
	s := sb.String()
	if len(s) > transcriptCharLimit {
		s = s[:transcriptCharLimit]
	}
	return s
}

func (c *Cleaner) classifyAndExtract(ctx context.Context, transcript string) (*extraction, error) {
	prompt := buildExtractionPrompt(transcript)
	res, err := c.gateway.Complete(ctx, llm.CompletionRequest{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Temperature: 0.2,
		MaxTokens:   800,
	})
	if err != nil {
		return nil, err
	}
	var ext extraction
	if err := llm.ExtractJSON(res.Content, &ext); err != nil {
		return nil, err
	}
	return &ext, nil
}

func buildExtractionPrompt(transcript string) string {
	var sb strings.Builder
	sb.WriteString("Analyze this conversation excerpt and decide whether it contains anything worth remembering long-term.\n")
	sb.WriteString("Trivial content (greetings, confirmations, meta-commands, duplicates) must set should_remember=false.\n")
	sb.WriteString("Resolve any relative-time expressions (\"tomorrow\", \"last week\") to ISO dates.\n\n")
	sb.WriteString(transcript)
	sb.WriteString("\n\nReturn strict JSON with fields: summary, key_points (array), importance_score (1-10), ")
	sb.WriteString("should_remember (bool), memory_type (\"active\" or \"passive\"), reason, ")
	sb.WriteString("entities ({dates, locations, people, events}, each an array of strings).")
	return sb.String()
}

// scoreEmotion runs the calibrated 1-10 emotion rubric, retried up to 3
// times; on repeated parse failure it falls back to the default weight
// rather than skipping persistence.
func (c *Cleaner) scoreEmotion(ctx context.Context, transcript string) float64 {
	prompt := "On a scale of 1-10, rate the emotional intensity of this exchange. " +
		"Return strict JSON: {\"score\": number}.\n\n" + transcript

	for attempt := 0; attempt < emotionMaxRetries; attempt++ {
		res, err := c.gateway.Complete(ctx, llm.CompletionRequest{
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
			Temperature: 0.1,
			MaxTokens:   100,
		})
		if err != nil {
			c.log.Warn().Err(err).Int("attempt", attempt+1).Msg("cleaner: emotion scoring call failed")
			continue
		}
		var es emotionScore
		if err := llm.ExtractJSON(res.Content, &es); err != nil {
			c.log.Warn().Err(err).Int("attempt", attempt+1).Msg("cleaner: emotion scoring parse failed")
			continue
		}
		score := es.Score
		if score < 1 {
			score = 1
		}
		if score > 10 {
			score = 10
		}
		weight := float64(score) / 10.0
		if weight < 0.1 {
			weight = 0.1
		}
		return weight
	}
	return defaultEmotionalWeight
}
