package emotion

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"memoryd/internal/llm"
)

const maxRetries = 3

// Delta is the judge's analysis of how a state should move.
type Delta struct {
	DeltaValence float64 `json:"delta_valence"`
	DeltaArousal float64 `json:"delta_arousal"`
	Reasoning    string  `json:"reasoning"`
}

// Judge is the LLM-backed delta analyzer.
type Judge struct {
	gateway llm.Gateway
	log     zerolog.Logger
}

func NewJudge(gateway llm.Gateway, log zerolog.Logger) *Judge {
	return &Judge{gateway: gateway, log: log}
}

// Analyze asks the LLM for a VA delta given the last messages and the
// current state. It retries up to 3 times; on total failure it returns
// the zero delta with reasoning "analysis failed", never an error —
// a judge failure must never prevent the chat turn from completing.
func (j *Judge) Analyze(ctx context.Context, messages []llm.Message, v, a float64) Delta {
	prompt := j.buildPrompt(messages, v, a)

	for attempt := 0; attempt < maxRetries; attempt++ {
		res, err := j.gateway.Complete(ctx, llm.CompletionRequest{
			Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
			Temperature: 0.3,
			MaxTokens:   300,
		})
		if err != nil {
			j.log.Warn().Err(err).Int("attempt", attempt+1).Msg("emotion judge completion failed")
			continue
		}
		var delta Delta
		if err := llm.ExtractJSON(res.Content, &delta); err != nil {
			j.log.Warn().Err(err).Int("attempt", attempt+1).Msg("emotion judge parse failed")
			continue
		}
		delta.DeltaValence = clampDelta(delta.DeltaValence)
		delta.DeltaArousal = clampDelta(delta.DeltaArousal)
		return delta
	}

	return Delta{Reasoning: "analysis failed"}
}

// clampDelta enforces the hard |delta| <= 0.5 ceiling (0.3 is the
// conventional magnitude, 0.5 is permitted for extreme content).
func clampDelta(d float64) float64 {
	if d > 0.5 {
		return 0.5
	}
	if d < -0.5 {
		return -0.5
	}
	return d
}

func (j *Judge) buildPrompt(messages []llm.Message, v, a float64) string {
	var sb strings.Builder
	sb.WriteString("You are analyzing the emotional impact of a conversation on a character's mood.\n")
	sb.WriteString(fmt.Sprintf("Current state: valence=%.2f, arousal=%.2f (both in [-1, 1]).\n", v, a))
	sb.WriteString("Recent messages:\n")
	for _, m := range messages {
		sb.WriteString(fmt.Sprintf("%s: %s\n", m.Role, m.Content))
	}
	sb.WriteString("\nReturn strict JSON: {\"delta_valence\": number, \"delta_arousal\": number, \"reasoning\": string}. ")
	sb.WriteString("Conventional magnitude is |delta| <= 0.3; use up to 0.5 only for extreme content.")
	return sb.String()
}
