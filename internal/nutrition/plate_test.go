package nutrition

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"savviwell/internal/apperr"
	"savviwell/internal/llm"
	"savviwell/internal/shared"
)

type mockVision struct {
	content string
	err     error
}

func (m *mockVision) GenerateFromImage(context.Context, string, string) (llm.ContentResponse, error) {
	return llm.ContentResponse{Content: m.content}, m.err
}

type mockFoods struct {
	macros *shared.Macros
	err    error
	query  string
}

func (m *mockFoods) EstimateMacros(_ context.Context, q string) (*shared.Macros, error) {
	m.query = q
	return m.macros, m.err
}

func TestPlateScanner(t *testing.T) {
	ctx := context.Background()
	usda := &shared.Macros{Calories: 300, Protein: 10, Carbs: 20, Fat: 5}

	tests := []struct {
		name        string
		vision      llm.VisionGenerator
		foods       MacroEstimator
		description string
		want        PlateEstimate
	}{
		{
			name:   "Vision",
			vision: &mockVision{content: `Looks tasty {"calories": 610, "protein": 32, "carbs": 70, "fat": 20}`},
			want:   PlateEstimate{Nutrition: shared.Macros{Calories: 610, Protein: 32, Carbs: 70, Fat: 20}, Source: SourceVision},
		},
		{
			name:        "VisionIncompleteFallsToUSDA",
			vision:      &mockVision{content: `{"calories": 610}`},
			foods:       &mockFoods{macros: usda},
			description: "pad thai",
			want:        PlateEstimate{Nutrition: *usda, Source: SourceUSDA},
		},
		{
			name:        "VisionErrorFallsToUSDA",
			vision:      &mockVision{err: errors.New("timeout")},
			foods:       &mockFoods{macros: usda},
			description: "pad thai",
			want:        PlateEstimate{Nutrition: *usda, Source: SourceUSDA},
		},
		{
			name:  "NoDescriptionSkipsUSDA",
			foods: &mockFoods{macros: usda},
			want:  PlateEstimate{Nutrition: DefaultPlateMacros, Source: SourceFallback},
		},
		{
			name:        "USDAErrorFallsBack",
			foods:       &mockFoods{err: errors.New("down")},
			description: "pad thai",
			want:        PlateEstimate{Nutrition: DefaultPlateMacros, Source: SourceFallback},
		},
		{
			name: "NothingConfigured",
			want: PlateEstimate{Nutrition: shared.Macros{Calories: 450, Protein: 25, Carbs: 50, Fat: 15}, Source: SourceFallback},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlateScanner(tt.vision, tt.foods, nil, time.Second, zap.NewNop())
			got, err := p.Scan(ctx, "data:image/png;base64,AAAA", tt.description)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("RequiresImage", func(t *testing.T) {
		_, err := NewPlateScanner(nil, nil, nil, time.Second, zap.NewNop()).Scan(ctx, " ", "soup")
		assert.True(t, apperr.IsValidation(err))
	})
}
