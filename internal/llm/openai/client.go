package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"remitapi/internal/config"
	"remitapi/internal/extraction"
	"remitapi/internal/model"
)

// ErrDisabled is returned by New when no API key is configured.
var ErrDisabled = errors.New("llm collaborator disabled: no api key")

// Client implements extraction.ClaimExtractor over an OpenAI-compatible
// chat completions API.
type Client struct {
	cfg    config.LLMConfig
	http   *http.Client
	logger *zap.Logger
}

var _ extraction.ClaimExtractor = (*Client)(nil)

func New(cfg config.LLMConfig, logger *zap.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrDisabled
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.MaxInputChars <= 0 {
		cfg.MaxInputChars = 4000
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger: logger.With(zap.String("component", "llm")),
	}, nil
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type claimFields struct {
	Fields     map[string]any `json:"fields"`
	Confidence float64        `json:"confidence"`
}

// Extract asks the model for the schema's fields in one block. The caller
// bounds the call with its context.
func (c *Client) Extract(ctx context.Context, blockText string, schema model.TemplateSchema) (extraction.Output, error) {
	rid := uuid.NewString()
	start := time.Now()
	keys := schema.FieldKeys()

	c.logger.Info("llm extract start",
		zap.String("event", "llm.extract.start"),
		zap.String("req_id", rid),
		zap.String("model", c.cfg.Model),
		zap.Int("text_len", len(blockText)),
		zap.Int("fields", len(keys)),
	)

	jsonSchema := BuildClaimJSONSchema(keys)
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt(schema)},
			{"role": "user", "content": userPrompt(blockText, c.cfg.MaxInputChars)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(jsonSchema)},
		},
	}

	raw, err := c.post(ctx, strings.TrimRight(c.cfg.BaseURL, "/")+"/chat/completions", body)
	if err != nil {
		c.logger.Error("llm extract http error",
			zap.String("event", "llm.extract.http_error"),
			zap.String("req_id", rid),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return extraction.Output{}, err
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return extraction.Output{}, fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return extraction.Output{}, errors.New("no choices in chat response")
	}
	content := []byte(stripFences(cc.Choices[0].Message.Content))

	if err := ValidateJSONAgainstSchema(jsonSchema, content); err != nil {
		c.logger.Error("llm output rejected by schema",
			zap.String("event", "llm.extract.schema_validation_failed"),
			zap.String("req_id", rid),
			zap.Error(err),
		)
		return extraction.Output{}, err
	}

	var out claimFields
	if err := json.Unmarshal(content, &out); err != nil {
		return extraction.Output{}, fmt.Errorf("unmarshal claim fields: %w", err)
	}

	payload := schema.EmptyPayload()
	for k, v := range out.Fields {
		if s, ok := scalar(v); ok {
			payload.Set(k, s)
		}
	}

	c.logger.Info("llm extract ok",
		zap.String("event", "llm.extract.ok"),
		zap.String("req_id", rid),
		zap.String("claim_number", payload.ClaimNumber()),
		zap.Float64("confidence", out.Confidence),
		zap.Duration("elapsed", time.Since(start)),
	)
	return extraction.Output{
		Payload:    payload,
		Confidence: int(out.Confidence + 0.5),
		Raw:        json.RawMessage(content),
	}, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("llm http error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read llm response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("llm status %d: %s", resp.StatusCode, truncate(string(raw), 300))
	}
	return raw, nil
}

func scalar(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		return t, strings.TrimSpace(t) != ""
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
