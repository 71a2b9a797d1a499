package pantry

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

const scanPrompt = "Identify pantry items in the image. Return JSON array with itemName, category, quantity, unit, confidence."

// Scanner identifies pantry items in photos.
type Scanner struct {
	repo    *Repository
	vision  llm.VisionGenerator
	usage   shared.UsageRecorder
	timeout time.Duration
	logger  *zap.Logger
}

// NewScanner creates a Scanner. vision may be nil, in which case every
// scan uses the fallback result.
func NewScanner(repo *Repository, vision llm.VisionGenerator, usage shared.UsageRecorder, timeout time.Duration, logger *zap.Logger) *Scanner {
	if usage == nil {
		usage = shared.NopUsageRecorder{}
	}
	return &Scanner{repo: repo, vision: vision, usage: usage, timeout: timeout, logger: logger}
}

// ScanResult holds the items a scan added and where they came from.
type ScanResult struct {
	Items    []Item `json:"items"`
	Fallback bool   `json:"fallback"`
}

// Scan identifies items in image and appends them to the pantry.
func (s *Scanner) Scan(ctx context.Context, image string) (ScanResult, error) {
	if strings.TrimSpace(image) == "" {
		return ScanResult{}, apperr.NewValidationError("image is required")
	}

	items := s.identify(ctx, image)
	res := ScanResult{Items: items}
	if len(items) == 0 {
		res = ScanResult{Items: fallbackItems(), Fallback: true}
	}

	if err := s.repo.Append(ctx, res.Items...); err != nil {
		return ScanResult{}, err
	}
	return res, nil
}

func (s *Scanner) identify(ctx context.Context, image string) []Item {
	if s.vision == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.vision.GenerateFromImage(ctx, scanPrompt, image)
	meta := shared.AgentMeta{AgentName: "PantryScanner", Usage: resp.Usage, Latency: time.Since(start), Failed: err != nil}
	if rerr := s.usage.RecordMeta(meta); rerr != nil {
		s.logger.Warn("failed to record usage", zap.Error(rerr))
	}
	if err != nil {
		s.logger.Warn("pantry scan failed", zap.Error(apperr.NewCollaboratorError("vision", err)))
		return nil
	}

	raw, err := llm.ExtractJSONArray(resp.Content)
	if err != nil {
		s.logger.Warn("pantry scan returned no JSON array", zap.Error(err))
		return nil
	}
	var parsed []Item
	if err := json.Unmarshal(raw, &parsed); err != nil {
		s.logger.Warn("pantry scan returned malformed items", zap.Error(err))
		return nil
	}

	items := make([]Item, 0, len(parsed))
	for _, it := range parsed {
		it.ItemName = strings.TrimSpace(it.ItemName)
		if it.ItemName == "" {
			continue
		}
		if it.Quantity <= 0 {
			it.Quantity = 1
		}
		if it.Unit == "" {
			it.Unit = "pieces"
		}
		items = append(items, it)
	}
	return items
}

func fallbackItems() []Item {
	confidence := 0.6
	return []Item{{ItemName: "Apple", Category: "produce", Quantity: 3, Unit: "pieces", Confidence: &confidence}}
}
