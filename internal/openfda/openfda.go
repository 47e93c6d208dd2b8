// Package openfda is a thin client for the OpenFDA National Drug Code
// directory, used to suggest drug entries from a name prefix.
package openfda

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.fda.gov"

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type ndcResponse struct {
	Results []ndcItem `json:"results"`
}

type ndcItem struct {
	BrandName         string             `json:"brand_name"`
	GenericName       string             `json:"generic_name"`
	DosageForm        string             `json:"dosage_form"`
	ProductNDC        string             `json:"product_ndc"`
	ActiveIngredients []activeIngredient `json:"active_ingredients"`
}

type activeIngredient struct {
	Name     string `json:"name"`
	Strength string `json:"strength"`
}

// Suggestion is one deduplicated drug-name lookup result.
type Suggestion struct {
	GenericName    string
	BrandName      string
	StrengthAmount *float64
	StrengthUnit   *string
	Form           *string
}

// SuggestByName queries the NDC directory for products whose brand or
// generic name starts with the given prefix. Lookup failures degrade to an
// empty result; this is a convenience surface, not a source of truth.
func (c *Client) SuggestByName(ctx context.Context, prefix string, limit int) ([]Suggestion, error) {
	q := strings.TrimSpace(prefix)
	if q == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	search := fmt.Sprintf("brand_name:%s*+OR+generic_name:%s*", q, q)
	reqURL := fmt.Sprintf("%s/drug/ndc.json?search=%s&limit=%d",
		c.baseURL, url.QueryEscape(search), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openfda request: %w", err)
	}
	defer resp.Body.Close()

	// OpenFDA answers 404 for zero matches.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openfda: unexpected status %d", resp.StatusCode)
	}

	var body ndcResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("openfda decode: %w", err)
	}

	seen := make(map[string]bool)
	var out []Suggestion
	for _, item := range body.Results {
		s := item.toSuggestion()
		key := dedupeKey(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out, nil
}

// NDC strengths read like "5 mg/1" or ".4 mg/1"; the unit keeps its
// denominator.
var strengthRe = regexp.MustCompile(`^([\d.]+)\s*([A-Za-zμµ][A-Za-zμµ\d/.]*)`)

func (i ndcItem) toSuggestion() Suggestion {
	s := Suggestion{
		GenericName: i.GenericName,
		BrandName:   i.BrandName,
	}
	if s.GenericName == "" && len(i.ActiveIngredients) > 0 {
		s.GenericName = i.ActiveIngredients[0].Name
	}
	if len(i.ActiveIngredients) > 0 {
		if amt, unit, ok := parseStrength(i.ActiveIngredients[0].Strength); ok {
			s.StrengthAmount = &amt
			s.StrengthUnit = &unit
		}
	}
	if i.DosageForm != "" {
		form := strings.ReplaceAll(strings.ToLower(i.DosageForm), "_", " ")
		s.Form = &form
	}
	return s
}

func parseStrength(raw string) (amount float64, unit string, ok bool) {
	m := strengthRe.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return 0, "", false
	}
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return amount, m[2], true
}

func dedupeKey(s Suggestion) string {
	amt := ""
	if s.StrengthAmount != nil {
		amt = strconv.FormatFloat(*s.StrengthAmount, 'f', -1, 64)
	}
	unit, form := "", ""
	if s.StrengthUnit != nil {
		unit = *s.StrengthUnit
	}
	if s.Form != nil {
		form = *s.Form
	}
	return strings.Join([]string{s.GenericName, s.BrandName, amt, unit, form}, "|")
}
