package types

import (
	"time"

	"github.com/google/uuid"
)

// LLM call purposes, stored alongside each interaction.
const (
	PurposeRank     = "rank"
	PurposeGenerate = "generate"
	PurposeChat     = "chat"
)

type LlmInteraction struct {
	ID           uuid.UUID  `json:"id"`
	FamilyID     *uuid.UUID `json:"family_id,omitempty"`
	Purpose      string     `json:"purpose"`
	Prompt       string     `json:"prompt"`
	ResponseText string     `json:"response_text"`
	ModelUsed    string     `json:"model_used"`
	LatencyMs    int        `json:"latency_ms"`
	Success      bool       `json:"success"`
	CreatedAt    time.Time  `json:"created_at"`
}
