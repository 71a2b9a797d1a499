package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"savviwell/internal/apperr"
	"savviwell/internal/catalog"
	"savviwell/internal/llm"
)

// --- Mocks ---
type MockCatalogSaver struct {
	Saved       []catalog.Entry
	ShouldError bool
}

func (m *MockCatalogSaver) Save(entries []catalog.Entry) error {
	if m.ShouldError {
		return fmt.Errorf("mock error")
	}
	m.Saved = entries
	return nil
}

type MockTextGenerator struct {
	Response    string
	ShouldError bool
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	if m.ShouldError {
		return llm.ContentResponse{}, fmt.Errorf("mock ai error")
	}
	return llm.ContentResponse{Content: m.Response}, nil
}

func serveHTML(t *testing.T, html string) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(html))
	}))
	t.Cleanup(ts.Close)
	return ts
}

// --- Tests ---

func TestFetchAndCleanHTML(t *testing.T) {
	ts := serveHTML(t, `
		<html>
			<head><title>Site | Tasty</title><script>alert('bad');</script></head>
			<body>
				<h1>  Spicy   Black Bean Tacos </h1>
				<div class="ads">Buy stuff!</div>
				<p>Mix beans and salsa.</p>
				<script>more_bad_stuff()</script>
				<footer>Copyright 2024</footer>
			</body>
		</html>`)

	c := NewClipper(catalog.New(nil), nil, nil, zap.NewNop())
	pg, err := c.fetchAndCleanHTML(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, "Spicy Black Bean Tacos", pg.Title)
	assert.Contains(t, pg.Text, "Mix beans and salsa.")
	assert.NotContains(t, pg.Text, "alert")
	assert.NotContains(t, pg.Text, "Buy stuff!")
	assert.NotContains(t, pg.Text, "Copyright")

	t.Run("PrefersOpenGraphTitle", func(t *testing.T) {
		ts := serveHTML(t, `<html><head><meta property="og:title" content="Berry Sorbet"><title>x</title></head><body><h1>Other</h1></body></html>`)
		pg, err := c.fetchAndCleanHTML(context.Background(), ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "Berry Sorbet", pg.Title)
	})

	t.Run("FallsBackToTitleTag", func(t *testing.T) {
		ts := serveHTML(t, `<html><head><title>Lentil Soup</title></head><body><p>hi</p></body></html>`)
		pg, err := c.fetchAndCleanHTML(context.Background(), ts.URL)
		require.NoError(t, err)
		assert.Equal(t, "Lentil Soup", pg.Title)
	})
}

func TestGuessEntry(t *testing.T) {
	tests := []struct {
		title string
		want  catalog.Entry
	}{
		{"Spicy Black Bean Tacos", catalog.Entry{Name: "Spicy Black Bean Tacos", Type: catalog.Dinner, Spice: 2}},
		{"Chickpea Curry", catalog.Entry{Name: "Chickpea Curry", Type: catalog.Dinner, Spice: 1}},
		{"Fluffy Banana Pancakes", catalog.Entry{Name: "Fluffy Banana Pancakes", Type: catalog.Breakfast}},
		{"Chocolate Cake", catalog.Entry{Name: "Chocolate Cake", Type: catalog.Dessert}},
		{"Greek Salad", catalog.Entry{Name: "Greek Salad", Type: catalog.Lunch}},
		{"Roasted Red Pepper Hummus", catalog.Entry{Name: "Roasted Red Pepper Hummus", Type: catalog.Snack}},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, guessEntry(tt.title))
		})
	}
}

func TestClipURL(t *testing.T) {
	ctx := context.Background()
	ts := serveHTML(t, `<html><body><h1>Chickpea Curry</h1><p>Simmer.</p></body></html>`)

	t.Run("HeuristicImport", func(t *testing.T) {
		cat := catalog.New(nil)
		saver := &MockCatalogSaver{}
		c := NewClipper(cat, saver, nil, zap.NewNop())

		res, err := c.ClipURL(ctx, ts.URL)
		require.NoError(t, err)
		assert.True(t, res.Added)
		assert.Equal(t, catalog.Entry{Name: "Chickpea Curry", Type: catalog.Dinner, Spice: 1}, res.Entry)
		assert.Len(t, saver.Saved, 1)

		res, err = c.ClipURL(ctx, ts.URL)
		require.NoError(t, err)
		assert.False(t, res.Added)
		assert.Len(t, cat.Entries(), 1)
	})

	t.Run("AIClassification", func(t *testing.T) {
		cat := catalog.New(nil)
		ai := &MockTextGenerator{Response: "```json\n{\"name\":\"Chana masala\",\"mealType\":\"Main\",\"spiceLevel\":2}\n```"}
		res, err := NewClipper(cat, nil, ai, zap.NewNop()).ClipURL(ctx, ts.URL)
		require.NoError(t, err)
		assert.Equal(t, catalog.Entry{Name: "Chana masala", Type: catalog.Main, Spice: 2}, res.Entry)
	})

	t.Run("AIFailureUsesHeuristic", func(t *testing.T) {
		for _, ai := range []*MockTextGenerator{
			{ShouldError: true},
			{Response: `{"name":"X","mealType":"brunch","spiceLevel":0}`},
			{Response: `{"name":"X","mealType":"lunch","spiceLevel":7}`},
		} {
			res, err := NewClipper(catalog.New(nil), nil, ai, zap.NewNop()).ClipURL(ctx, ts.URL)
			require.NoError(t, err)
			assert.Equal(t, "Chickpea Curry", res.Entry.Name)
		}
	})

	t.Run("SaveError", func(t *testing.T) {
		_, err := NewClipper(catalog.New(nil), &MockCatalogSaver{ShouldError: true}, nil, zap.NewNop()).ClipURL(ctx, ts.URL)
		assert.Equal(t, apperr.CodeInternal, apperr.Code(err))
	})

	t.Run("InvalidURL", func(t *testing.T) {
		c := NewClipper(catalog.New(nil), nil, nil, zap.NewNop())
		for _, u := range []string{"", "ftp://example.com/x", "/relative"} {
			_, err := c.ClipURL(ctx, u)
			assert.True(t, apperr.IsValidation(err), u)
		}
	})

	t.Run("FetchError", func(t *testing.T) {
		bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer bad.Close()
		_, err := NewClipper(catalog.New(nil), nil, nil, zap.NewNop()).ClipURL(ctx, bad.URL)
		assert.Equal(t, apperr.CodeExternalServiceError, apperr.Code(err))
	})
}
