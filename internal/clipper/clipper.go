package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"savviwell/internal/apperr"
	"savviwell/internal/catalog"
	"savviwell/internal/llm"
)

const maxPromptText = 6000

// CatalogSaver persists the catalog after an import.
type CatalogSaver interface {
	Save(entries []catalog.Entry) error
}

// Clipper imports meals from recipe pages into the catalog.
type Clipper struct {
	catalog    *catalog.Catalog
	saver      CatalogSaver
	textGen    llm.TextGenerator
	httpClient *http.Client
	logger     *zap.Logger
}

// ImportResult describes an imported page.
type ImportResult struct {
	Entry catalog.Entry `json:"entry"`
	Added bool          `json:"added"`
}

type page struct {
	Title string
	Text  string
}

// NewClipper creates a new Clipper. saver and textGen may be nil.
func NewClipper(cat *catalog.Catalog, saver CatalogSaver, textGen llm.TextGenerator, logger *zap.Logger) *Clipper {
	return &Clipper{
		catalog:    cat,
		saver:      saver,
		textGen:    textGen,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger,
	}
}

// ClipURL fetches a recipe page, classifies it and adds it to the catalog.
func (c *Clipper) ClipURL(ctx context.Context, rawURL string) (ImportResult, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ImportResult{}, apperr.NewValidationError("url must be an absolute http(s) URL")
	}

	pg, err := c.fetchAndCleanHTML(ctx, u.String())
	if err != nil {
		return ImportResult{}, apperr.NewCollaboratorError("recipe page", err)
	}
	if pg.Title == "" {
		return ImportResult{}, apperr.NewValidationError("no recipe title found at %s", u.String())
	}

	entry := guessEntry(pg.Title)
	if refined, ok := c.classifyWithAI(ctx, pg); ok {
		entry = refined
	}

	res := ImportResult{Entry: entry, Added: c.catalog.Add(entry)}
	if !res.Added {
		if existing, ok := c.catalog.Lookup(entry.Name); ok {
			res.Entry = existing
		}
		return res, nil
	}

	if c.saver != nil {
		if err := c.saver.Save(c.catalog.Entries()); err != nil {
			return ImportResult{}, apperr.NewInternalError(fmt.Errorf("failed to persist catalog: %w", err))
		}
	}
	c.logger.Info("meal imported", zap.String("name", entry.Name), zap.String("type", string(entry.Type)), zap.String("url", u.String()))
	return res, nil
}

func (c *Clipper) fetchAndCleanHTML(ctx context.Context, pageURL string) (page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return page{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return page{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return page{}, fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return page{}, err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	title, _ := doc.Find(`meta[property="og:title"]`).Attr("content")
	if strings.TrimSpace(title) == "" {
		title = doc.Find("h1").First().Text()
	}
	if strings.TrimSpace(title) == "" {
		title = doc.Find("title").First().Text()
	}

	return page{
		Title: strings.Join(strings.Fields(title), " "),
		Text:  strings.Join(strings.Fields(doc.Find("body").Text()), " "),
	}, nil
}

type aiEntry struct {
	Name       string `json:"name"`
	MealType   string `json:"mealType"`
	SpiceLevel int    `json:"spiceLevel"`
}

func (c *Clipper) classifyWithAI(ctx context.Context, pg page) (catalog.Entry, bool) {
	if c.textGen == nil {
		return catalog.Entry{}, false
	}

	text := pg.Text
	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}
	prompt := fmt.Sprintf(`
You are a recipe classification expert. Classify the recipe below.
Return the result strictly as a JSON object with this structure:
{
  "name": "Short dish name",
  "mealType": "one of breakfast, lunch, dinner, snack, dessert, entree, main",
  "spiceLevel": 0
}
spiceLevel is 0 for mild, 1 for medium and 2 for hot.

Title: %s

Page Content:
%s
`, pg.Title, text)

	resp, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		c.logger.Warn("ai classification failed", zap.Error(apperr.NewCollaboratorError("ai", err)))
		return catalog.Entry{}, false
	}
	raw, err := llm.ExtractJSONObject(resp.Content)
	if err != nil {
		c.logger.Warn("ai classification returned no JSON", zap.Error(err))
		return catalog.Entry{}, false
	}
	var got aiEntry
	if err := json.Unmarshal(raw, &got); err != nil {
		c.logger.Warn("failed to parse ai classification", zap.Error(err))
		return catalog.Entry{}, false
	}

	mt, ok := catalog.ParseMealType(got.MealType)
	name := strings.TrimSpace(got.Name)
	if !ok || name == "" || got.SpiceLevel < 0 || got.SpiceLevel > 2 {
		c.logger.Warn("ai classification out of range", zap.String("name", name), zap.String("mealType", got.MealType), zap.Int("spiceLevel", got.SpiceLevel))
		return catalog.Entry{}, false
	}
	return catalog.Entry{Name: name, Type: mt, Spice: catalog.SpiceLevel(got.SpiceLevel)}, true
}

var typeKeywords = []struct {
	mealType catalog.MealType
	words    []string
}{
	{catalog.Dessert, []string{"cake", "cookie", "brownie", "pie", "pudding", "sorbet", "ice cream", "mousse", "tart", "cheesecake"}},
	{catalog.Breakfast, []string{"pancake", "waffle", "oatmeal", "porridge", "granola", "omelette", "frittata", "muffin", "smoothie", "breakfast"}},
	{catalog.Snack, []string{"dip", "hummus", "popcorn", "energy bites", "trail mix", "snack", "crackers"}},
	{catalog.Lunch, []string{"salad", "sandwich", "wrap", "soup", "bowl", "lunch"}},
}

var (
	hotKeywords    = []string{"spicy", "chili", "chilli", "jalapeño", "jalapeno", "sriracha", "habanero", "cayenne", "vindaloo", "buffalo", "hot "}
	mediumKeywords = []string{"curry", "salsa", "cajun", "harissa", "taco", "chipotle", "peppercorn", "szechuan"}
)

// guessEntry classifies a dish from its title. Unmatched titles are dinners.
func guessEntry(title string) catalog.Entry {
	lower := strings.ToLower(title) + " "
	entry := catalog.Entry{Name: title, Type: catalog.Dinner}
	for _, tk := range typeKeywords {
		if containsAny(lower, tk.words) {
			entry.Type = tk.mealType
			break
		}
	}
	switch {
	case containsAny(lower, hotKeywords):
		entry.Spice = 2
	case containsAny(lower, mediumKeywords):
		entry.Spice = 1
	}
	return entry
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
