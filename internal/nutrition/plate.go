package nutrition

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"savviwell/internal/apperr"
	"savviwell/internal/llm"
	"savviwell/internal/shared"
)

const platePrompt = "Estimate meal nutrition from the image. Return JSON with calories, protein, carbs, fat."

// DefaultPlateMacros is reported when every estimate fails.
var DefaultPlateMacros = shared.Macros{Calories: 450, Protein: 25, Carbs: 50, Fat: 15}

// Estimate sources.
const (
	SourceVision   = "vision"
	SourceUSDA     = "usda"
	SourceFallback = "fallback"
)

// MacroEstimator looks up macros for a text query.
type MacroEstimator interface {
	EstimateMacros(ctx context.Context, query string) (*shared.Macros, error)
}

// PlateEstimate is the nutrition attributed to a photographed plate.
type PlateEstimate struct {
	Nutrition shared.Macros `json:"nutrition"`
	Source    string        `json:"source"`
}

// PlateScanner estimates the nutrition of a plate photo. It tries the
// vision model, then a USDA lookup of the description, then a fixed guess.
type PlateScanner struct {
	vision  llm.VisionGenerator
	foods   MacroEstimator
	usage   shared.UsageRecorder
	timeout time.Duration
	logger  *zap.Logger
}

// NewPlateScanner creates a PlateScanner. vision and foods may be nil.
func NewPlateScanner(vision llm.VisionGenerator, foods MacroEstimator, usage shared.UsageRecorder, timeout time.Duration, logger *zap.Logger) *PlateScanner {
	if usage == nil {
		usage = shared.NopUsageRecorder{}
	}
	return &PlateScanner{vision: vision, foods: foods, usage: usage, timeout: timeout, logger: logger}
}

// Scan estimates the plate in image. description is optional.
func (p *PlateScanner) Scan(ctx context.Context, image, description string) (PlateEstimate, error) {
	if strings.TrimSpace(image) == "" {
		return PlateEstimate{}, apperr.NewValidationError("image is required")
	}

	if m, ok := p.fromVision(ctx, image); ok {
		return PlateEstimate{Nutrition: m, Source: SourceVision}, nil
	}
	if m, ok := p.fromUSDA(ctx, description); ok {
		return PlateEstimate{Nutrition: m, Source: SourceUSDA}, nil
	}
	return PlateEstimate{Nutrition: DefaultPlateMacros, Source: SourceFallback}, nil
}

func (p *PlateScanner) fromVision(ctx context.Context, image string) (shared.Macros, bool) {
	if p.vision == nil {
		return shared.Macros{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.vision.GenerateFromImage(ctx, platePrompt, image)
	if rerr := p.usage.RecordMeta(shared.AgentMeta{AgentName: "PlateScanner", Usage: resp.Usage, Latency: time.Since(start), Failed: err != nil}); rerr != nil {
		p.logger.Warn("failed to record usage", zap.Error(rerr))
	}
	if err != nil {
		p.logger.Warn("plate scan failed", zap.Error(apperr.NewCollaboratorError("vision", err)))
		return shared.Macros{}, false
	}

	raw, err := llm.ExtractJSONObject(resp.Content)
	if err != nil {
		p.logger.Warn("plate scan returned no JSON object", zap.Error(err))
		return shared.Macros{}, false
	}
	var m struct {
		Calories *float64 `json:"calories"`
		Protein  *float64 `json:"protein"`
		Carbs    *float64 `json:"carbs"`
		Fat      *float64 `json:"fat"`
	}
	if err := json.Unmarshal(raw, &m); err != nil {
		p.logger.Warn("plate scan returned malformed nutrition", zap.Error(err))
		return shared.Macros{}, false
	}
	out := macrosOf(m.Calories, m.Protein, m.Carbs, m.Fat)
	if out == nil {
		p.logger.Warn("plate scan returned incomplete nutrition")
		return shared.Macros{}, false
	}
	return *out, true
}

func (p *PlateScanner) fromUSDA(ctx context.Context, description string) (shared.Macros, bool) {
	description = strings.TrimSpace(description)
	if p.foods == nil || description == "" {
		return shared.Macros{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	m, err := p.foods.EstimateMacros(ctx, description)
	if err != nil {
		p.logger.Warn("USDA estimate failed", zap.Error(apperr.NewCollaboratorError("usda", err)))
		return shared.Macros{}, false
	}
	if m == nil {
		return shared.Macros{}, false
	}
	return *m, true
}
