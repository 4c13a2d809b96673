// Package openai provides a MatchValidator adapter backed by the
// OpenAI chat completions API. The validator is the optional
// second-opinion pass: it asks the model to score each candidate
// tariff line against the product description on a 0-100 scale.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/clearfreight-labs/htsclass/internal/core/ports/driven"
)

// Ensure Validator implements the interface.
var _ driven.MatchValidator = (*Validator)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 60 * time.Second
)

const systemPrompt = "You are an expert US HTS classification reviewer. " +
	"For each numbered candidate tariff line, return only a line of the form " +
	"\"N: score\" where score is a confidence between 0 and 100 that the " +
	"candidate correctly classifies the product."

// Config holds configuration for the OpenAI validator.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the chat model to use (default: gpt-4o-mini).
	Model string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration
}

// Validator re-scores classification candidates via chat completion.
type Validator struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

// chatRequest is the OpenAI chat completions request format.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse is the OpenAI chat completions response format.
type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewValidator creates a new OpenAI-backed match validator.
func NewValidator(cfg Config) (*Validator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai validator: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Validator{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}, nil
}

// Validate scores each candidate against the query text.
func (v *Validator) Validate(ctx context.Context, queryText string, candidates []driven.ValidationCandidate) ([]driven.ValidationScore, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var prompt strings.Builder
	fmt.Fprintf(&prompt, "Product description: %s\n\nCandidates:\n", queryText)
	for i, c := range candidates {
		fmt.Fprintf(&prompt, "%d. HTS %s: %s", i+1, c.Code, c.Description)
		if c.ChapterContext != "" {
			fmt.Fprintf(&prompt, " (%s)", c.ChapterContext)
		}
		prompt.WriteString("\n")
	}

	content, err := v.complete(ctx, prompt.String())
	if err != nil {
		return nil, err
	}

	scores := parseScores(content, candidates)
	if len(scores) == 0 {
		return nil, fmt.Errorf("openai validator: unparseable response %q", content)
	}
	return scores, nil
}

// complete sends one chat completion request.
func (v *Validator) complete(ctx context.Context, user string) (string, error) {
	reqBody := chatRequest{
		Model: v.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		Temperature: 0,
		MaxTokens:   200,
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		v.baseURL+"/chat/completions",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if chatResp.Error != nil {
		return "", fmt.Errorf("openai error (%s): %s", chatResp.Error.Type, chatResp.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai error: status %d", resp.StatusCode)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty completion")
	}
	return chatResp.Choices[0].Message.Content, nil
}

var scoreLine = regexp.MustCompile(`(\d+)\s*[:.]\s*(\d+(?:\.\d+)?)`)

// parseScores extracts "N: score" lines, tolerating surrounding prose.
func parseScores(content string, candidates []driven.ValidationCandidate) []driven.ValidationScore {
	var scores []driven.ValidationScore
	for _, m := range scoreLine.FindAllStringSubmatch(content, -1) {
		idx, err := strconv.Atoi(m[1])
		if err != nil || idx < 1 || idx > len(candidates) {
			continue
		}
		val, err := strconv.ParseFloat(m[2], 64)
		if err != nil || val < 0 || val > 100 {
			continue
		}
		scores = append(scores, driven.ValidationScore{
			Code:       candidates[idx-1].Code,
			Confidence: val,
		})
	}
	return scores
}

// Ping validates the service is reachable with a minimal completion.
func (v *Validator) Ping(ctx context.Context) error {
	_, err := v.complete(ctx, "Reply with: 1: 100")
	return err
}

// Close releases resources.
func (v *Validator) Close() error {
	return nil
}
