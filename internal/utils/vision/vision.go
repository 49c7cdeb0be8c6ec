package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stash-backend/domain"
)

const defaultBaseURL = "https://vision.googleapis.com/v1"

var ErrNotConfigured = errors.New("VISION_API_KEY not set")

type (
	// Image is either a remote URI or inline bytes.
	Image struct {
		URI     string
		Content []byte
	}

	TextExtractor interface {
		ExtractText(ctx context.Context, image Image) (string, error)
	}

	Config struct {
		APIKey  string
		Timeout time.Duration
		BaseURL string
	}

	visionClient struct {
		cfg        Config
		httpClient *http.Client
	}
)

func NewVisionClient(cfg Config) TextExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &visionClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

func (v *visionClient) ExtractText(ctx context.Context, image Image) (string, error) {
	if v.cfg.APIKey == "" {
		return "", domain.NewUpstreamError("vision", ErrNotConfigured)
	}

	img := map[string]interface{}{}
	if len(image.Content) > 0 {
		img["content"] = base64.StdEncoding.EncodeToString(image.Content)
	} else {
		img["source"] = map[string]interface{}{"imageUri": image.URI}
	}

	requestBody := map[string]interface{}{
		"requests": []map[string]interface{}{
			{
				"image": img,
				"features": []map[string]interface{}{
					{"type": "TEXT_DETECTION"},
				},
			},
		},
	}

	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/images:annotate?key=%s", strings.TrimRight(v.cfg.BaseURL, "/"), v.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(requestJSON))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return "", domain.NewUpstreamError("vision", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", domain.NewUpstreamError("vision", fmt.Errorf("%s - %s", resp.Status, string(bodyBytes)))
	}

	var visionResp struct {
		Responses []struct {
			FullTextAnnotation struct {
				Text string `json:"text"`
			} `json:"fullTextAnnotation"`
			TextAnnotations []struct {
				Description string `json:"description"`
			} `json:"textAnnotations"`
			Error *struct {
				Message string `json:"message"`
			} `json:"error"`
		} `json:"responses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&visionResp); err != nil {
		return "", domain.NewUpstreamError("vision", err)
	}

	if len(visionResp.Responses) == 0 {
		return "", nil
	}
	first := visionResp.Responses[0]
	if first.Error != nil && first.Error.Message != "" {
		return "", domain.NewUpstreamError("vision", errors.New(first.Error.Message))
	}
	if first.FullTextAnnotation.Text != "" {
		return first.FullTextAnnotation.Text, nil
	}
	if len(first.TextAnnotations) > 0 {
		return first.TextAnnotations[0].Description, nil
	}
	return "", nil
}

type staticExtractor struct {
	text string
}

// NewStaticExtractor returns an extractor that always yields text. Used when external APIs are mocked.
func NewStaticExtractor(text string) TextExtractor {
	return &staticExtractor{text: text}
}

func (s *staticExtractor) ExtractText(ctx context.Context, image Image) (string, error) {
	return s.text, nil
}
