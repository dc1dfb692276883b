// Package places searches a Foursquare-style places API for candidate stops.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"itinerary-router/internal/models"
)

const DefaultBaseURL = "https://api.foursquare.com/v3"

// GenericTerms are tried in turn when the specific searches return nothing
var GenericTerms = []string{"attractions", "restaurants", "cafes", "parks", "museums"}

// SearchRequest describes one stop-discovery query
type SearchRequest struct {
	Center     models.Coordinates
	Query      string
	Categories []string
	RadiusM    int
	Limit      int
	Sort       string
}

// Searcher discovers candidate stops around a location
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) ([]models.SearchResult, error)
}

// Client calls the places API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        logrus.FieldLogger
}

var _ Searcher = (*Client)(nil)

func NewClient(baseURL, apiKey string, timeout time.Duration, log logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("component", "places"),
	}
}

// Search runs the query, then falls back to a category-only search, then to
// the generic terms. If every attempt fails or is empty it returns an empty
// list and no error.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]models.SearchResult, error) {
	attempts := []SearchRequest{req}
	if len(req.Categories) > 0 && req.Query != "" {
		byCategory := req
		byCategory.Query = ""
		attempts = append(attempts, byCategory)
	}
	for _, term := range GenericTerms {
		generic := req
		generic.Query = term
		generic.Categories = nil
		attempts = append(attempts, generic)
	}

	for i, attempt := range attempts {
		if ctx.Err() != nil {
			break
		}
		results, err := c.search(ctx, attempt)
		log := c.log.WithFields(logrus.Fields{
			"attempt":    i + 1,
			"query":      attempt.Query,
			"categories": strings.Join(attempt.Categories, ","),
		})
		if err != nil {
			log.WithError(err).Warn("place search failed, trying fallback")
			continue
		}
		if len(results) > 0 {
			log.WithField("results", len(results)).Info("place search succeeded")
			return results, nil
		}
	}

	c.log.WithField("center", fmt.Sprintf("%.5f,%.5f", req.Center.Lat, req.Center.Lng)).Warn("no places found after all fallbacks")
	return []models.SearchResult{}, nil
}

func (c *Client) search(ctx context.Context, req SearchRequest) ([]models.SearchResult, error) {
	params := url.Values{}
	params.Set("ll", fmt.Sprintf("%.6f,%.6f", req.Center.Lat, req.Center.Lng))
	if req.Query != "" {
		params.Set("query", req.Query)
	}
	if len(req.Categories) > 0 {
		params.Set("categories", strings.Join(req.Categories, ","))
	}
	if req.RadiusM > 0 {
		params.Set("radius", fmt.Sprintf("%d", req.RadiusM))
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	params.Set("limit", fmt.Sprintf("%d", limit))
	if req.Sort != "" {
		params.Set("sort", req.Sort)
	}
	params.Set("fields", "fsq_id,name,categories,geocodes,location,rating,price,description,photos")

	reqURL := fmt.Sprintf("%s/places/search?%s", c.baseURL, params.Encode())
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("request creation failed: %w", err)
	}
	httpReq.Header.Set("Authorization", c.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("network error: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("API error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("JSON decode error: %w", err)
	}

	return lo.FilterMap(result.Results, func(p place, _ int) (models.SearchResult, bool) {
		r := p.toResult()
		return r, r.ID != ""
	}), nil
}

// API response types

type searchResponse struct {
	Results []place `json:"results"`
}

type category struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

type place struct {
	FsqID      string     `json:"fsq_id"`
	Name       string     `json:"name"`
	Categories []category `json:"categories"`
	Geocodes   struct {
		Main struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"main"`
	} `json:"geocodes"`
	Location struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"location"`
	Rating      float64 `json:"rating"`
	Price       int     `json:"price"`
	Description string  `json:"description"`
	Photos      []struct {
		Prefix string `json:"prefix"`
		Suffix string `json:"suffix"`
	} `json:"photos"`
}

func (p place) toResult() models.SearchResult {
	r := models.SearchResult{
		ID:   p.FsqID,
		Name: p.Name,
		Coordinates: models.Coordinates{
			Lat: p.Geocodes.Main.Latitude,
			Lng: p.Geocodes.Main.Longitude,
		},
		Rating:      p.Rating,
		Description: p.Description,
		Address:     p.Location.FormattedAddress,
	}
	if len(p.Categories) > 0 {
		r.Category = p.Categories[0].Name
		r.Tags = lo.Map(p.Categories, func(c category, _ int) string {
			return c.Name
		})
	}
	if p.Price > 0 {
		r.Price = strings.Repeat("$", p.Price)
	}
	if len(p.Photos) > 0 {
		r.Photo = p.Photos[0].Prefix + "original" + p.Photos[0].Suffix
	}
	return r
}
