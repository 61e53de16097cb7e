package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/ZaguanLabs/duotext"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements AIProvider with OpenAI-compatible chat completions.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	temperature float32
}

// OpenAIConfig holds configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey      string  // API key
	Model       string  // Model to use (default: "gpt-4o-mini")
	Temperature float32 // Temperature for generation (default: 0.3)
	BaseURL     string  // Custom base URL for compatible endpoints (optional)
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	temperature := cfg.Temperature
	if temperature == 0 {
		temperature = 0.3
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(config),
		model:       model,
		temperature: temperature,
	}
}

// Model returns the model name sent with each request.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// Translate translates a batch of field originals.
func (p *OpenAIProvider) Translate(ctx context.Context, req TranslateRequest) ([]string, error) {
	if len(req.Texts) == 0 {
		return []string{}, nil
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: p.buildSystemPrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: p.buildUserMessage(req)},
		},
		Temperature: p.temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, &duotext.ProviderError{
			Message:   "chat completion failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return nil, &duotext.ProviderError{
			Message:   "empty response",
			Retryable: true,
		}
	}

	return p.parseResponse(resp.Choices[0].Message.Content, len(req.Texts))
}

func (p *OpenAIProvider) buildSystemPrompt(req TranslateRequest) string {
	sourceLang := req.SourceLang
	if sourceLang == "" {
		sourceLang = "en"
	}
	sourceName := duotext.GetLanguageName(sourceLang)
	targetName := duotext.GetLanguageName(req.TargetLang)

	contextText := "The texts are short user interface strings, labels, spreadsheet cells or code comments."
	if req.Context != "" {
		contextText = fmt.Sprintf("The texts come from: %s. Choose terminology that fits this product.", req.Context)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `# Role
You are a professional software localizer translating from %s to %s.

# Context
%s

# Register
%s

# Task
Translate every input text into natural %s. The result is shown next to the original, so keep it concise and keep the same line structure.

# Rules
- Keep placeholders and format verbs unchanged ({0}, {name}, %%s, %%d, $1, <br>).
- Keep code identifiers, file names, URLs and keyboard shortcuts unchanged.
- Keep leading bullet characters and line breaks.
- Never output a line that consists only of "---".
- Never output zero-width characters (U+200B, U+200C, U+200D).
- If an item has a "context" value, use it only to disambiguate; do not translate or echo it.`,
		sourceName, targetName, contextText, duotext.GetStyleDescription(req.Style), targetName)

	if hint := duotext.GetLocaleClarification(req.TargetLang); hint != "" {
		fmt.Fprintf(&b, "\n- %s", hint)
	}

	if len(req.Glossary) > 0 {
		b.WriteString("\n\n# Glossary\nUse these translations for the following terms:")
		terms := make([]string, 0, len(req.Glossary))
		for term := range req.Glossary {
			terms = append(terms, term)
		}
		sort.Strings(terms)
		for _, term := range terms {
			fmt.Fprintf(&b, "\n- %q → %s", term, req.Glossary[term])
		}
	}

	if len(req.ExcludedTerms) > 0 {
		fmt.Fprintf(&b, "\n\n# Do not translate\n- %s", strings.Join(req.ExcludedTerms, "\n- "))
	}

	b.WriteString(`

# Format
Return a JSON object with a single key "translations" holding an array of strings, one per input, in input order.
Example: {"translations": ["first", "second"]}`)

	return b.String()
}

func (p *OpenAIProvider) buildUserMessage(req TranslateRequest) string {
	hasContexts := false
	for _, c := range req.TextContexts {
		if c != "" {
			hasContexts = true
			break
		}
	}

	if !hasContexts {
		data, _ := json.Marshal(req.Texts)
		return string(data)
	}

	type item struct {
		Text    string `json:"text"`
		Context string `json:"context,omitempty"`
	}

	items := make([]item, len(req.Texts))
	for i, text := range req.Texts {
		items[i].Text = text
		if i < len(req.TextContexts) {
			items[i].Context = req.TextContexts[i]
		}
	}

	data, _ := json.Marshal(map[string][]item{"items": items})
	return string(data)
}

// parseResponse accepts {"translations": [...]}, any object with a single
// array value, or a bare array.
func (p *OpenAIProvider) parseResponse(content string, expectedCount int) ([]string, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		if raw, ok := obj["translations"]; ok {
			return decodeArray(raw, expectedCount)
		}
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if out, err := decodeArray(obj[k], expectedCount); err == nil || isCountMismatch(err) {
				return out, err
			}
		}
	}

	if out, err := decodeArray(json.RawMessage(content), expectedCount); err == nil || isCountMismatch(err) {
		return out, err
	}

	return nil, &duotext.ProviderError{
		Message: "invalid response format",
	}
}

func decodeArray(raw json.RawMessage, expectedCount int) ([]string, error) {
	var arr []interface{}
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, err
	}

	out := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprintf("%v", v)
		}
		out[i] = stripZeroWidth(s)
	}

	if len(out) != expectedCount {
		return nil, &duotext.CountMismatchError{Expected: expectedCount, Got: len(out)}
	}
	return out, nil
}

func isCountMismatch(err error) bool {
	var mismatch *duotext.CountMismatchError
	return errors.As(err, &mismatch)
}

var zeroWidth = strings.NewReplacer("\u200b", "", "\u200c", "", "\u200d", "")

func stripZeroWidth(s string) string {
	return zeroWidth.Replace(s)
}

func isRetryableError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"rate limit", "timeout", "connection refused", "connection reset", "temporary"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

var _ AIProvider = (*OpenAIProvider)(nil)
