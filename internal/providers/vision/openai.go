package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"garmentedit/internal/domain"
)

// Request is one multimodal analysis call: a system instruction, a user question and
// the image they refer to.
type Request struct {
	Label       string
	Instruction string
	Question    string
	Image       []byte
	MIME        string
}

// Analyzer sends an image plus instructions to a vision model and returns its raw text.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (string, error)
}

type OpenAIOptions struct {
	APIKey       string
	Model        string
	BaseURL      string
	Organization string
	Temperature  float64
	JSONMode     bool
	HTTPClient   *http.Client
	Logger       *zerolog.Logger
	OnWarning    func(reason, detail string)
}

// OpenAIClient implements Analyzer on top of the chat completions endpoint.
type OpenAIClient struct {
	apiKey       string
	model        string
	baseURL      string
	organization string
	temperature  float64
	jsonMode     bool
	client       *http.Client
	logger       zerolog.Logger
}

const openAIDefaultTimeout = 120 * time.Second

const defaultOpenAIModel = "gpt-4o-mini"

const maxErrorBody = 2048

var openAIModelCanonical = map[string]string{
	"gpt-4o-mini":  "gpt-4o-mini",
	"gpt-4o":       "gpt-4o",
	"gpt-4.1-mini": "gpt-4.1-mini",
	"gpt-4.1":      "gpt-4.1",
}

var openAIModelAliases = map[string]string{
	"gpt4o-mini":             "gpt-4o-mini",
	"gpt4omini":              "gpt-4o-mini",
	"gpt-4o-mini-2024-07-18": "gpt-4o-mini",
	"gpt4o":                  "gpt-4o",
	"gpt-4-vision":           "gpt-4o",
	"gpt-4-vision-preview":   "gpt-4o",
	"gpt4.1-mini":            "gpt-4.1-mini",
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *chatFormat   `json:"response_format,omitempty"`
}

// chatMessage content is either a string or a list of contentPart.
type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func NewOpenAIClient(opts OpenAIOptions) (*OpenAIClient, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("%w: openai api key is required", domain.ErrConfig)
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	modelInput := strings.TrimSpace(opts.Model)
	model, reason := normalizeOpenAIModel(modelInput)
	if reason != "" && opts.OnWarning != nil {
		opts.OnWarning("model_"+reason, fmt.Sprintf("requested=%s resolved=%s", coalesce(modelInput, defaultOpenAIModel), model))
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: openAIDefaultTimeout}
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &OpenAIClient{
		apiKey:       strings.TrimSpace(opts.APIKey),
		model:        model,
		baseURL:      baseURL,
		organization: strings.TrimSpace(opts.Organization),
		temperature:  opts.Temperature,
		jsonMode:     opts.JSONMode,
		client:       client,
		logger:       logger,
	}, nil
}

// Model returns the resolved model identifier.
func (o *OpenAIClient) Model() string {
	return o.model
}

// Analyze performs one chat completion. Transport failures, non-2xx statuses and
// undecodable bodies are reported as domain.ErrUpstream. A response without choices
// yields empty text so callers can apply their own fallback.
func (o *OpenAIClient) Analyze(ctx context.Context, req Request) (string, error) {
	label := coalesce(req.Label, "vision")
	if len(req.Image) == 0 {
		return "", fmt.Errorf("%w: %s: image is required", domain.ErrValidation, label)
	}
	mime := coalesce(req.MIME, http.DetectContentType(req.Image))
	dataURI := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(req.Image)

	payload := chatRequest{
		Model:       o.model,
		Temperature: o.temperature,
		Messages: []chatMessage{
			{Role: "system", Content: req.Instruction},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: req.Question},
				{Type: "image_url", ImageURL: &imageURL{URL: dataURI}},
			}},
		},
	}
	if o.jsonMode {
		payload.ResponseFormat = &chatFormat{Type: "json_object"}
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("%s: encode request: %w", label, err)
	}
	endpoint := fmt.Sprintf("%s/chat/completions", o.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return "", fmt.Errorf("%s: build request: %w", label, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", o.organization)
	}

	start := time.Now()
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %s: http request: %v", domain.ErrUpstream, label, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: read response: %v", domain.ErrUpstream, label, err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s: %s", domain.ErrUpstream, label, describeFailure(resp.StatusCode, raw))
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("%w: %s: decode response: %v", domain.ErrUpstream, label, err)
	}
	o.logger.Debug().
		Str("label", label).
		Str("model", o.model).
		Dur("elapsed", time.Since(start)).
		Int("choices", len(out.Choices)).
		Msg("vision: analysis completed")
	if len(out.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

var _ Analyzer = (*OpenAIClient)(nil)

func describeFailure(status int, body []byte) string {
	var detail apiError
	if err := json.Unmarshal(body, &detail); err == nil && detail.Error.Message != "" {
		return fmt.Sprintf("openai status %d: %s", status, detail.Error.Message)
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	if text == "" {
		return fmt.Sprintf("openai status %d", status)
	}
	return fmt.Sprintf("openai status %d: %s", status, text)
}

func normalizeOpenAIModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultOpenAIModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := openAIModelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := openAIModelAliases[normalized]; ok {
		return alias, "alias"
	}
	return defaultOpenAIModel, "defaulted"
}

func coalesce(values ...string) string {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
