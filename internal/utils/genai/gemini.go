package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"stash-backend/domain"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

var ErrNotConfigured = errors.New("GEMINI_API_KEY not set")

type (
	// TextGenerator produces a text completion for a prompt.
	TextGenerator interface {
		GenerateText(ctx context.Context, prompt string) (string, error)
	}

	Config struct {
		APIKey      string
		Model       string
		Temperature float64
		Timeout     time.Duration
		BaseURL     string
	}

	geminiClient struct {
		cfg        Config
		httpClient *http.Client
	}
)

func NewGeminiClient(cfg Config) TextGenerator {
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &geminiClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *geminiClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", domain.NewUpstreamError("gemini", ErrNotConfigured)
	}

	geminiURL := fmt.Sprintf("%s/models/%s:generateContent?key=%s", strings.TrimRight(g.cfg.BaseURL, "/"), g.cfg.Model, g.cfg.APIKey)

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": g.cfg.Temperature,
		},
	}

	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, geminiURL, bytes.NewBuffer(requestJSON))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", domain.NewUpstreamError("gemini", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", domain.NewUpstreamError("gemini", fmt.Errorf("%s - %s", resp.Status, string(bodyBytes)))
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", domain.NewUpstreamError("gemini", err)
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return "", domain.NewUpstreamError("gemini", domain.ErrGeminiEmptyResponse)
	}

	return geminiResp.Candidates[0].Content.Parts[0].Text, nil
}

var jsonPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON strips markdown fences and surrounding prose from a model reply.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	if match := jsonPattern.FindString(text); match != "" {
		text = match
	}
	return strings.TrimSpace(text)
}

type staticGenerator struct {
	text string
}

// NewStaticGenerator returns a generator that always replies with text. Used when external APIs are mocked.
func NewStaticGenerator(text string) TextGenerator {
	return &staticGenerator{text: text}
}

func (s *staticGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return s.text, nil
}
