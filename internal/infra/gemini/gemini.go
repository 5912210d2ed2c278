package infra_gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/movieparty/core/internal/config"
	"github.com/movieparty/core/internal/model"
)

var (
	ErrRequestFailed   = errors.New("gemini request failed")
	ErrBadResponse     = errors.New("gemini returned an unusable response")
	ErrNoCandidates    = errors.New("gemini returned no candidates")
	ErrNoJSONInAnswer  = errors.New("no JSON array in model answer")
	ErrEmptySuggestion = errors.New("model answer parsed to zero suggestions")
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Client speaks the Generative Language REST API. One call turns the
// group's preference texts into a short list of title/year/reasoning
// suggestions; enrichment happens elsewhere.
type Client struct {
	httpClient *http.Client
	apiKey     string
	model      string
	baseURL    string
}

type ClientOption func(*Client)

// WithBaseURL points the client at a different endpoint, mainly httptest
// servers.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(cfg config.Gemini, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type generateContentRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

func (c *Client) Recommend(ctx context.Context, preferences, excludeTitles []string, limit int) ([]model.MovieIdea, error) {
	prompt := buildPrompt(preferences, excludeTitles, limit)

	body, err := json.Marshal(generateContentRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var parsed generateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, ErrNoCandidates
	}

	ideas, err := ExtractIdeas(parsed.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		return nil, err
	}
	if len(ideas) > limit {
		ideas = ideas[:limit]
	}
	return ideas, nil
}

// ExtractIdeas pulls the first JSON array out of a model answer. Models
// wrap answers in prose and markdown fences no matter how firmly the
// prompt forbids it, so scan for the brackets instead of trusting the
// whole body.
func ExtractIdeas(text string) ([]model.MovieIdea, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, ErrNoJSONInAnswer
	}

	var ideas []model.MovieIdea
	if err := json.Unmarshal([]byte(text[start:end+1]), &ideas); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	if len(ideas) == 0 {
		return nil, ErrEmptySuggestion
	}
	return ideas, nil
}

func buildPrompt(preferences, excludeTitles []string, limit int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are Movie Party AI, an expert movie-night matchmaker. "+
		"Choose %d films the group will most likely enjoy together. For each movie provide:\n"+
		"- title\n- year (numeric release year)\n- reasoning (2 short bullet points referencing the preferences)\n\n"+
		"Respond ONLY with JSON in this form (max %d items, no markdown):\n"+
		"[\n  {\n    \"title\": \"Movie Title\",\n    \"year\": 1994,\n    \"reasoning\": \"Why it fits...\"\n  }\n]\n\n",
		limit, limit)

	if len(preferences) > 0 {
		b.WriteString("Here are the group preferences:\n- ")
		b.WriteString(strings.Join(preferences, "\n- "))
	} else {
		b.WriteString("No explicit preferences were provided.")
	}

	if len(excludeTitles) > 0 {
		b.WriteString("\n\nIMPORTANT: Do NOT recommend any of these movies that have already been suggested:\n- ")
		b.WriteString(strings.Join(excludeTitles, "\n- "))
	}

	return b.String()
}
