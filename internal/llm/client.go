// Package llm generates purchase order field maps with the OpenAI chat
// completions API and proxies raw completion requests for the editor.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ginjaninja78/purchase-order-xml/internal/currency"
	"github.com/ginjaninja78/purchase-order-xml/internal/types"
)

// ErrNotConfigured is returned when no API key is available.
var ErrNotConfigured = errors.New("OpenAI API key not configured")

// Defaults for Config.
const (
	DefaultBaseURL      = "https://api.openai.com/v1"
	DefaultModel        = "gpt-4o-mini"
	DefaultMaxTokens    = 2000
	DefaultTemperature  = 0.7
	DefaultTimeout      = 30 * time.Second
	DefaultMaxRetries   = 3
	DefaultRetryBackoff = 2 * time.Second

	DefaultIndustry    = "general business"
	DefaultCompanyType = "medium enterprise"

	// MinRequestInterval spaces out request starts; requests still overlap.
	MinRequestInterval = 100 * time.Millisecond
)

// Config configures a Client. Zero fields take the defaults above.
type Config struct {
	APIKey       string
	BaseURL      string
	Model        string
	MaxTokens    int
	Temperature  float64
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// DefaultConfig returns the defaults with the given key.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:       apiKey,
		BaseURL:      DefaultBaseURL,
		Model:        DefaultModel,
		MaxTokens:    DefaultMaxTokens,
		Temperature:  DefaultTemperature,
		Timeout:      DefaultTimeout,
		MaxRetries:   DefaultMaxRetries,
		RetryBackoff: DefaultRetryBackoff,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig(c.APIKey)
	if c.BaseURL == "" {
		c.BaseURL = def.BaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Model == "" {
		c.Model = def.Model
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = def.MaxTokens
	}
	if c.Temperature == 0 {
		c.Temperature = def.Temperature
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = def.MaxRetries
	}
	if c.RetryBackoff < 0 {
		c.RetryBackoff = 0
	}
	return c
}

// Message is one chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the chat completions request body.
type Request struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response is the subset of the chat completions response that is read.
type Response struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client talks to an OpenAI compatible chat completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
	sleep      func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	lastRequest time.Time
}

// New creates a Client. A nil logger is replaced with a no-op logger.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.cfg.Model
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// =============================================================================
// PROMPTS
// =============================================================================

// SystemPrompt describes the expected JSON document.
func SystemPrompt() string {
	return `You are a professional business data generator. Generate realistic purchase order data in JSON format.

Generate data for these fields:
- Company information (name, address, phone, fax, website)
- PO details (date, number)
- Vendor information (company, contact, address, phone, fax)
- Ship-to information (name, company, address, phone, fax)
- Shipping details (requisitioner, ship via, FOB, shipping terms)
- Line items (5 products with qty, item name, description, unit price, total)
- Financial totals (subtotal, tax, shipping, other, total)
- Comments and contact info

IMPORTANT: Format ALL monetary amounts with exactly ONE dollar sign ($) - for example: "$123.45"
Return ONLY valid JSON with no additional text or formatting.`
}

// UserPrompt asks for a purchase order of the given industry and company
// type and lists the field names to use.
func UserPrompt(industry, companyType string) string {
	if strings.TrimSpace(industry) == "" {
		industry = DefaultIndustry
	}
	if strings.TrimSpace(companyType) == "" {
		companyType = DefaultCompanyType
	}
	return fmt.Sprintf(`Generate a complete purchase order for a %s in the %s industry.

Include:
- Realistic company and vendor names
- Current date for PO date (MM/DD/YYYY)
- 5 line items with appropriate products for this industry
- Calculated totals (subtotal, 8.5%% tax, shipping $25-75, total) - use EXACTLY ONE dollar sign ($)
- Professional comments

Return one flat JSON object using exactly these keys:
%s`, companyType, industry, strings.Join(types.FieldNames(), ", "))
}

// =============================================================================
// COMPLETIONS
// =============================================================================

// Complete sends a system and user prompt and returns the first choice.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	body, err := json.Marshal(Request{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	status, data, err := c.Forward(ctx, body)
	if err != nil {
		return "", err
	}
	var resp Response
	if status != http.StatusOK {
		msg := http.StatusText(status)
		if json.Unmarshal(data, &resp) == nil && resp.Error != nil && resp.Error.Message != "" {
			msg = resp.Error.Message
		}
		return "", fmt.Errorf("OpenAI API error (%d): %s", status, msg)
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("no content received from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Forward posts a raw chat completions body and returns the final status
// and body. Transport errors, 429 and 5xx responses are retried with a
// wait of attempt x RetryBackoff; other statuses are returned as-is.
func (c *Client) Forward(ctx context.Context, body []byte) (int, []byte, error) {
	if !c.Configured() {
		return 0, nil, ErrNotConfigured
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 1 {
			wait := time.Duration(attempt-1) * c.cfg.RetryBackoff
			c.logger.Info("retrying OpenAI request",
				zap.Int("attempt", attempt),
				zap.Duration("wait", wait),
				zap.Error(lastErr))
			if err := c.sleep(ctx, wait); err != nil {
				return 0, nil, err
			}
		}
		if err := c.throttle(ctx); err != nil {
			return 0, nil, err
		}

		status, data, err := c.post(ctx, body)
		if err != nil {
			if ctx.Err() != nil {
				return 0, nil, ctx.Err()
			}
			lastErr = err
			continue
		}
		if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
			lastErr = fmt.Errorf("OpenAI API returned %d", status)
			if attempt == c.cfg.MaxRetries {
				return status, data, nil
			}
			continue
		}

		c.logger.Debug("OpenAI request completed",
			zap.Int("status", status),
			zap.Int("attempts", attempt),
			zap.Duration("elapsed", time.Since(start)))
		return status, data, nil
	}

	c.logger.Error("OpenAI request failed", zap.Int("attempts", c.cfg.MaxRetries), zap.Error(lastErr))
	return 0, nil, fmt.Errorf("OpenAI API failed after %d attempts: %w", c.cfg.MaxRetries, lastErr)
}

// throttle reserves the next request slot and waits for it. The lock only
// guards the slot bookkeeping.
func (c *Client) throttle(ctx context.Context) error {
	c.mu.Lock()
	now := time.Now()
	slot := c.lastRequest.Add(MinRequestInterval)
	if slot.Before(now) {
		slot = now
	}
	c.lastRequest = slot
	c.mu.Unlock()

	return sleepContext(ctx, slot.Sub(now))
}

func (c *Client) post(ctx context.Context, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// =============================================================================
// FIELD GENERATION
// =============================================================================

// Generate asks the model for a purchase order and returns it as a field
// map. Empty industry or company type use the defaults.
func (c *Client) Generate(ctx context.Context, industry, companyType string) (map[string]string, error) {
	content, err := c.Complete(ctx, SystemPrompt(), UserPrompt(industry, companyType))
	if err != nil {
		return nil, err
	}
	fields, err := ParseResponse(content)
	if err != nil {
		c.logger.Warn("unparseable completion", zap.String("content", content))
		return nil, err
	}
	c.logger.Info("generated fields", zap.Int("count", len(fields)))
	return fields, nil
}

// ParseResponse decodes a completion into a field map. Markdown code fences
// are stripped, nested objects are flattened by their inner keys and
// doubled dollar signs are collapsed.
func ParseResponse(content string) (map[string]string, error) {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response as JSON: %w", err)
	}
	out := make(map[string]string, len(raw))
	flatten(raw, out)
	return out, nil
}

func flatten(m map[string]any, out map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]any:
			flatten(v, out)
		case string:
			out[k] = currency.FixDoubleSymbol(strings.TrimSpace(v))
		case float64:
			out[k] = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(v)
		}
	}
}
