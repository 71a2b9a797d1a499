package shared

import (
	"time"
)

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for a single collaborator call.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
	Failed    bool
}

// Macros is a rough nutrition breakdown. Grams for protein, carbs and fat.
type Macros struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

// UsageRecorder persists collaborator call metadata.
type UsageRecorder interface {
	RecordMeta(meta AgentMeta) error
}

// NopUsageRecorder discards everything.
type NopUsageRecorder struct{}

func (NopUsageRecorder) RecordMeta(AgentMeta) error { return nil }
