package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ZaguanLabs/duotext"
	"github.com/sirupsen/logrus"
)

// DefaultCustomTimeout bounds a single request to a custom endpoint.
const DefaultCustomTimeout = 30 * time.Second

// CustomConfig configures a CustomProvider.
type CustomConfig struct {
	URL     string        // Endpoint receiving POST {"text", "target_lang"}
	APIKey  string        // Sent as a bearer token when set
	Timeout time.Duration // Per-request timeout (default: 30s)
	Logger  *logrus.Logger
}

// CustomProvider translates through a self-hosted HTTP endpoint that takes one
// text per request and answers {"translated_text": "..."}.
type CustomProvider struct {
	url        string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

type customRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

type customResponse struct {
	TranslatedText *string `json:"translated_text"`
}

// NewCustomProvider creates a provider for cfg.URL.
func NewCustomProvider(cfg CustomConfig) *CustomProvider {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultCustomTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &CustomProvider{
		url:        cfg.URL,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Translate sends the texts one by one, in order.
func (p *CustomProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	out := make([]string, 0, len(req.Texts))
	for _, text := range req.Texts {
		translated, err := p.translateOne(ctx, text, req.TargetLang)
		if err != nil {
			return nil, err
		}
		out = append(out, translated)
	}
	return out, nil
}

func (p *CustomProvider) translateOne(ctx context.Context, text, targetLang string) (string, error) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(customRequest{Text: text, TargetLang: targetLang}); err != nil {
		return "", &duotext.ProviderError{Message: "encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, buf)
	if err != nil {
		return "", &duotext.ProviderError{Message: "create request", Cause: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", duotext.UserAgent())
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", &duotext.ProviderError{
			Message:   "request failed",
			Cause:     err,
			Retryable: ctx.Err() == nil,
		}
	}
	defer resp.Body.Close()

	p.logger.WithFields(logrus.Fields{
		"status_code": resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("custom translation request completed")

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &duotext.ProviderError{
			Message:   fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(body)),
			Retryable: resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500,
		}
	}

	var decoded customResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &duotext.ProviderError{Message: "decode response", Cause: err}
	}
	if decoded.TranslatedText == nil {
		return "", &duotext.ProviderError{Message: "response has no translated_text"}
	}
	return stripZeroWidth(*decoded.TranslatedText), nil
}

var _ AIProvider = (*CustomProvider)(nil)
