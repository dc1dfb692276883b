// Package planner asks a chat-completions model to arrange candidate places
// into a single-day or multi-day plan.
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"itinerary-router/internal/models"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
)

// ErrEmptyPlan is returned when the model answers without usable stops
var ErrEmptyPlan = errors.New("planner returned an empty plan")

// PlanRequest is the input of one planning call
type PlanRequest struct {
	Location    models.Coordinates
	Preferences models.TripPreferences
	Candidates  []models.SearchResult
}

// Planner produces a plan referencing candidate places by id
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (*models.PlannerPlan, error)
}

// Client calls an OpenAI-compatible chat completions endpoint
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	log        logrus.FieldLogger
}

var _ Planner = (*Client)(nil)

func NewClient(baseURL, apiKey, model string, timeout time.Duration, log logrus.FieldLogger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("component", "planner"),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
	Temperature    float64           `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (c *Client) Plan(ctx context.Context, req PlanRequest) (*models.PlannerPlan, error) {
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, err
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
		Temperature:    0.4,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	started := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("planner request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, parseAPIError(resp)
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode planner response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, ErrEmptyPlan
	}

	plan, err := ParsePlan(out.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"candidates": len(req.Candidates),
		"stops":      len(plan.Stops),
		"days":       len(plan.Days),
		"elapsed_ms": time.Since(started).Milliseconds(),
	}).Info("plan received")
	return plan, nil
}

func parseAPIError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return fmt.Errorf("planner api error: %s", resp.Status)
	}
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error.Message != "" {
		return fmt.Errorf("planner api error: %s: %s", resp.Status, payload.Error.Message)
	}
	return fmt.Errorf("planner api error: %s", resp.Status)
}
