package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	defaultTextModel  = "gemini-3-pro-preview"
	defaultImageModel = "gemini-2.5-flash-image"
)

type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	TextModel  string
	ImageModel string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	textModel  string
	imageModel string
	httpClient *http.Client
	logger     *slog.Logger
}

func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	textModel := strings.TrimSpace(opts.TextModel)
	if textModel == "" {
		textModel = defaultTextModel
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = defaultImageModel
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		textModel:  textModel,
		imageModel: imageModel,
		httpClient: opts.HTTPClient,
		logger:     logger,
	}
}

// GenerateText sends a text request and returns the concatenated text of
// the first candidate. With cfg.Schema set, the service is asked for a
// JSON body matching the schema; the raw JSON text is returned.
func (c *Client) GenerateText(ctx context.Context, prompt string, cfg TextConfig) (string, error) {
	genCfg := generationConfig{Temperature: 0.7}
	if cfg.Schema != nil {
		genCfg.ResponseMIMEType = "application/json"
		genCfg.ResponseSchema = cfg.Schema.wire()
	}

	req := generateContentRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: genCfg,
	}

	resp, err := c.generateContent(ctx, c.textModel, req)
	if err != nil {
		return "", err
	}

	text := firstText(resp)
	if strings.TrimSpace(text) == "" {
		return "", &SchemaParseError{Err: errors.New("empty text response")}
	}
	return text, nil
}

// GenerateStructured runs a schema-constrained text request and decodes
// the JSON body into out. A body that does not decode into the declared
// shape is a *SchemaParseError.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema Schema, out any) error {
	text, err := c.GenerateText(ctx, prompt, TextConfig{Schema: &schema})
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(text), out); err != nil {
		return &SchemaParseError{Raw: text, Err: err}
	}
	return nil
}

// GenerateImage sends one multimodal request carrying the prompt plus all
// reference images in order, requesting IMAGE and TEXT response
// modalities, and returns the first content part carrying inline image
// data. ErrNoImage is returned when no part carries any.
func (c *Client) GenerateImage(ctx context.Context, prompt string, refs []Image, cfg ImageConfig) (Image, error) {
	parts := []part{{Text: prompt}}
	for _, ref := range refs {
		if ref.Empty() {
			continue
		}
		mimeType := ref.MimeType
		if mimeType == "" {
			mimeType = "image/png"
		}
		parts = append(parts, part{
			InlineData: &blob{
				Data:     base64.StdEncoding.EncodeToString(ref.Data),
				MimeType: mimeType,
			},
		})
	}

	genCfg := generationConfig{
		Temperature:        0.7,
		ResponseModalities: []string{"IMAGE", "TEXT"},
	}
	if cfg.AspectRatio != "" {
		genCfg.ImageConfig = &imageConfig{AspectRatio: cfg.AspectRatio}
	}

	req := generateContentRequest{
		Contents:         []content{{Role: "user", Parts: parts}},
		GenerationConfig: genCfg,
	}

	resp, err := c.generateContent(ctx, c.imageModel, req)
	if err != nil && genCfg.ImageConfig != nil && isUnknownFieldError(err, "imageConfig") {
		req.GenerationConfig.ImageConfig = nil
		resp, err = c.generateContent(ctx, c.imageModel, req)
	}
	if err != nil {
		return Image{}, err
	}

	img, ok := firstImage(resp)
	if !ok {
		return Image{}, ErrNoImage
	}
	return img, nil
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest) (generateContentResponse, error) {
	if c.httpClient == nil {
		return generateContentResponse{}, &ServiceError{Err: errors.New("http client is nil")}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return generateContentResponse{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	c.logger.Debug("gemini request", "model", model, "bytes", len(body))

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return generateContentResponse{}, &ServiceError{Err: err}
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return generateContentResponse{}, &ServiceError{Err: fmt.Errorf("read response: %w", err)}
	}

	if httpResp.StatusCode >= 400 {
		return generateContentResponse{}, &ServiceError{
			Status: httpResp.Status,
			Body:   strings.TrimSpace(string(rawBody)),
		}
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return generateContentResponse{}, &SchemaParseError{Raw: string(rawBody), Err: err}
	}

	return decoded, nil
}

func firstText(resp generateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			b.WriteString(p.Text)
		}
	}
	return b.String()
}

// firstImage scans the candidates' content parts in order and takes the
// first one carrying inline image data.
func firstImage(resp generateContentResponse) (Image, bool) {
	for _, cand := range resp.Candidates {
		for _, p := range cand.Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
			if err != nil || len(data) == 0 {
				continue
			}
			mimeType := p.InlineData.MimeType
			if mimeType == "" {
				mimeType = "image/png"
			}
			return Image{Data: data, MimeType: mimeType}, true
		}
	}
	return Image{}, false
}

func (s Schema) wire() *responseSchema {
	if s.Kind == SchemaObjects {
		props := make(map[string]*responseSchema, len(s.Properties))
		for _, name := range s.Properties {
			props[name] = &responseSchema{Type: "STRING"}
		}
		return &responseSchema{
			Type: "ARRAY",
			Items: &responseSchema{
				Type:       "OBJECT",
				Properties: props,
				Required:   append([]string(nil), s.Properties...),
			},
		}
	}

	return &responseSchema{
		Type:  "ARRAY",
		Items: &responseSchema{Type: "STRING"},
	}
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        float64         `json:"temperature,omitempty"`
	ResponseModalities []string        `json:"responseModalities,omitempty"`
	ResponseMIMEType   string          `json:"responseMimeType,omitempty"`
	ResponseSchema     *responseSchema `json:"responseSchema,omitempty"`
	ImageConfig        *imageConfig    `json:"imageConfig,omitempty"`
}

type responseSchema struct {
	Type       string                     `json:"type"`
	Items      *responseSchema            `json:"items,omitempty"`
	Properties map[string]*responseSchema `json:"properties,omitempty"`
	Required   []string                   `json:"required,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
}

func isUnknownFieldError(err error, field string) bool {
	message := err.Error()
	return strings.Contains(message, "Unknown name") && strings.Contains(message, field)
}
