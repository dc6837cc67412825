package adapter

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/amishk599/pitchdesk/internal/model"
)

var _ model.CatalogSearcher = (*CatalogClient)(nil)

// catalogApp is one hit in the catalog search response. Search endpoints
// differ on whether they return the short summary or the full description.
type catalogApp struct {
	Title       string  `json:"title"`
	AppID       string  `json:"appId"`
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	Installs    string  `json:"installs"`
	Score       float64 `json:"score"`
}

type catalogResponse struct {
	Results []catalogApp `json:"results"`
}

// CatalogClient queries a JSON app-store search endpoint.
type CatalogClient struct {
	baseURL string
	client  *http.Client
}

// NewCatalogClient creates a client for the search API rooted at baseURL.
func NewCatalogClient(baseURL string, client *http.Client) *CatalogClient {
	return &CatalogClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Host returns the host requests are sent to, for per-host rate limiting.
func (c *CatalogClient) Host() string {
	u, err := url.Parse(c.baseURL)
	if err != nil || u.Host == "" {
		return c.baseURL
	}
	return u.Host
}

// Search runs one catalog query.
func (c *CatalogClient) Search(ctx context.Context, q model.CatalogQuery) ([]model.CatalogApp, error) {
	params := url.Values{}
	params.Set("q", q.Term)
	params.Set("country", q.Locale)
	params.Set("lang", cmp.Or(q.Lang, "en"))
	if q.Hits > 0 {
		params.Set("num", strconv.Itoa(q.Hits))
	}
	endpoint := c.baseURL + "/api/apps/?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("catalog search %q/%s: %w", q.Term, q.Locale, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("catalog search %q/%s: %w", q.Term, q.Locale, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog search %q/%s: %w", q.Term, q.Locale, statusError(resp, "catalog"))
	}

	var cr catalogResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("catalog search %q/%s: decode: %w", q.Term, q.Locale, err)
	}

	apps := make([]model.CatalogApp, 0, len(cr.Results))
	for _, r := range cr.Results {
		if r.AppID == "" {
			continue
		}
		apps = append(apps, model.CatalogApp{
			Title:       r.Title,
			Description: cmp.Or(r.Description, r.Summary),
			AppID:       r.AppID,
			Installs:    r.Installs,
			Score:       r.Score,
		})
	}
	return apps, nil
}
