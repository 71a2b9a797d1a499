package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"savviwell/internal/shared"
)

// ErrNoAPIKey is returned when the USDA key is not configured.
var ErrNoAPIKey = errors.New("USDA_API_KEY not set")

// Food is a single USDA FoodData Central search hit.
type Food struct {
	FdcID           int            `json:"fdcId"`
	Description     string         `json:"description"`
	DataType        string         `json:"dataType,omitempty"`
	BrandOwner      string         `json:"brandOwner,omitempty"`
	ServingSize     float64        `json:"servingSize,omitempty"`
	ServingSizeUnit string         `json:"servingSizeUnit,omitempty"`
	Macros          *shared.Macros `json:"macros,omitempty"`
}

type labelValue struct {
	Value *float64 `json:"value"`
}

type searchItem struct {
	FdcID           int     `json:"fdcId"`
	Description     string  `json:"description"`
	DataType        string  `json:"dataType"`
	BrandOwner      string  `json:"brandOwner"`
	ServingSize     float64 `json:"servingSize"`
	ServingSizeUnit string  `json:"servingSizeUnit"`
	LabelNutrients  *struct {
		Calories      labelValue `json:"calories"`
		Protein       labelValue `json:"protein"`
		Carbohydrates labelValue `json:"carbohydrates"`
		Fat           labelValue `json:"fat"`
	} `json:"labelNutrients"`
	FoodNutrients []struct {
		NutrientName string   `json:"nutrientName"`
		Value        *float64 `json:"value"`
		UnitName     string   `json:"unitName"`
	} `json:"foodNutrients"`
}

// Client is a client for the USDA FoodData Central search API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new USDA client.
func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// SearchFoods returns up to pageSize foods matching query.
func (c *Client) SearchFoods(ctx context.Context, query string, pageSize int) ([]Food, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if pageSize <= 0 {
		pageSize = 5
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("query", query)
	q.Set("pageSize", strconv.Itoa(pageSize))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/foods/search?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("USDA search failed: %d", resp.StatusCode)
	}

	var body struct {
		Foods []searchItem `json:"foods"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	foods := make([]Food, 0, len(body.Foods))
	for _, f := range body.Foods {
		foods = append(foods, Food{
			FdcID:           f.FdcID,
			Description:     f.Description,
			DataType:        f.DataType,
			BrandOwner:      f.BrandOwner,
			ServingSize:     f.ServingSize,
			ServingSizeUnit: f.ServingSizeUnit,
			Macros:          parseMacros(f),
		})
	}
	return foods, nil
}

// EstimateMacros returns the macros of the first of five hits that has them.
func (c *Client) EstimateMacros(ctx context.Context, query string) (*shared.Macros, error) {
	foods, err := c.SearchFoods(ctx, query, 5)
	if err != nil {
		return nil, err
	}
	for _, f := range foods {
		if f.Macros != nil {
			return f.Macros, nil
		}
	}
	return nil, nil
}

// parseMacros prefers branded label values and falls back to the
// per-nutrient list matched by name.
func parseMacros(item searchItem) *shared.Macros {
	if ln := item.LabelNutrients; ln != nil {
		if m := macrosOf(ln.Calories.Value, ln.Protein.Value, ln.Carbohydrates.Value, ln.Fat.Value); m != nil {
			return m
		}
	}

	if len(item.FoodNutrients) == 0 {
		return nil
	}
	byName := func(names ...string) *float64 {
		for _, name := range names {
			for _, n := range item.FoodNutrients {
				if strings.Contains(strings.ToLower(n.NutrientName), name) && n.Value != nil {
					return n.Value
				}
			}
		}
		return nil
	}
	return macrosOf(
		byName("energy"),
		byName("protein"),
		byName("carbohydrate"),
		byName("total lipid", "fat, total"),
	)
}

func macrosOf(calories, protein, carbs, fat *float64) *shared.Macros {
	if calories == nil || protein == nil || carbs == nil || fat == nil {
		return nil
	}
	return &shared.Macros{Calories: *calories, Protein: *protein, Carbs: *carbs, Fat: *fat}
}
