package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"garmentedit/internal/domain"
)

type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	HTTPClient   *http.Client
	Timeout      time.Duration
	Logger       *zerolog.Logger
}

// OpenAIClient requests images from the OpenAI images API.
type OpenAIClient struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	model        string
	organization string
	logger       zerolog.Logger
}

const defaultImageModel = "dall-e-3"

func NewOpenAIClient(opts OpenAIOptions) *OpenAIClient {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultImageModel
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &OpenAIClient{
		httpClient:   client,
		baseURL:      base,
		token:        strings.TrimSpace(opts.APIKey),
		model:        model,
		organization: strings.TrimSpace(opts.Organization),
		logger:       logger,
	}
}

type imagesRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Size   string `json:"size"`
	N      int    `json:"n"`
}

type imagesResponse struct {
	Data []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate asks for exactly one image. The locator is the returned URL, or a PNG data
// URI when the API answers with inline base64.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, width, height int) (domain.GenerationResult, error) {
	var zero domain.GenerationResult
	if c == nil {
		return zero, fmt.Errorf("%w: image client not configured", domain.ErrConfig)
	}
	if c.token == "" {
		return zero, fmt.Errorf("%w: openai images: API key is missing", domain.ErrConfig)
	}
	if strings.TrimSpace(prompt) == "" {
		return zero, fmt.Errorf("%w: openai images: prompt required", domain.ErrValidation)
	}
	if width <= 0 || height <= 0 {
		return zero, fmt.Errorf("%w: openai images: invalid size %dx%d", domain.ErrConfig, width, height)
	}
	body, err := json.Marshal(imagesRequest{
		Model:  c.model,
		Prompt: prompt,
		Size:   fmt.Sprintf("%dx%d", width, height),
		N:      1,
	})
	if err != nil {
		return zero, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return zero, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if c.organization != "" {
		req.Header.Set("OpenAI-Organization", c.organization)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return zero, fmt.Errorf("%w: openai images: %v", domain.ErrUpstream, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, fmt.Errorf("%w: openai images: read response: %v", domain.ErrUpstream, err)
	}
	var out imagesResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode >= http.StatusMultipleChoices {
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			return zero, fmt.Errorf("%w: openai images: %s (%s)", domain.ErrUpstream, out.Error.Message, out.Error.Type)
		}
		return zero, fmt.Errorf("%w: openai images: http %d", domain.ErrUpstream, resp.StatusCode)
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("%w: openai images: decode response: %v", domain.ErrUpstream, decodeErr)
	}
	if len(out.Data) == 0 {
		return zero, fmt.Errorf("%w: openai images: empty response", domain.ErrUpstream)
	}
	first := out.Data[0]
	locator := strings.TrimSpace(first.URL)
	if locator == "" && strings.TrimSpace(first.B64JSON) != "" {
		locator = "data:image/png;base64," + strings.TrimSpace(first.B64JSON)
	}
	if locator == "" {
		return zero, fmt.Errorf("%w: openai images: missing image locator", domain.ErrUpstream)
	}
	c.logger.Debug().
		Str("model", c.model).
		Dur("elapsed", time.Since(start)).
		Bool("inline", first.URL == "").
		Msg("imagegen: image generated")
	return domain.GenerationResult{Locator: locator}, nil
}

var _ Generator = (*OpenAIClient)(nil)
