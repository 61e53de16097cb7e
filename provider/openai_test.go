package provider

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ZaguanLabs/duotext"
)

func TestBuildSystemPrompt(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test"})

	prompt := p.buildSystemPrompt(TranslateRequest{
		TargetLang:    "es_ES",
		SourceLang:    "en",
		Context:       "Level editor toolbar",
		ExcludedTerms: []string{"Blueprint", "Actor"},
	})

	for _, want := range []string{
		"Spanish (Spain)",
		"English (United States)",
		"Level editor toolbar",
		"Blueprint",
		"Castilian",
		`"---"`,
		"zero-width",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt should contain %q", want)
		}
	}
}

func TestBuildSystemPrompt_GlossaryAndStyle(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test"})

	prompt := p.buildSystemPrompt(TranslateRequest{
		TargetLang: "nb_NO",
		Glossary: map[string]string{
			"viewport": "visningsport",
			"asset":    "ressurs",
		},
		Style: duotext.StyleMarketing,
	})

	if !strings.Contains(prompt, "persuasive") {
		t.Error("prompt should describe the marketing style")
	}
	if !strings.Contains(prompt, "Bokmål") {
		t.Error("prompt should carry the Norwegian locale hint")
	}
	// Glossary terms are listed in sorted order.
	if strings.Index(prompt, `"asset"`) > strings.Index(prompt, `"viewport"`) {
		t.Error("glossary should be sorted")
	}
}

func TestBuildUserMessage(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test"})

	if msg := p.buildUserMessage(TranslateRequest{Texts: []string{"Save", "Open"}}); msg != `["Save","Open"]` {
		t.Errorf("expected plain array, got %s", msg)
	}

	msg := p.buildUserMessage(TranslateRequest{
		Texts:        []string{"Run", "Save"},
		TextContexts: []string{"", "go_comment"},
	})
	if !strings.Contains(msg, `"items"`) || !strings.Contains(msg, `"context":"go_comment"`) {
		t.Errorf("expected item objects with context, got %s", msg)
	}
}

func TestParseResponse(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test"})

	tests := []struct {
		name    string
		content string
		want    []string
		wantErr bool
	}{
		{"translations key", `{"translations": ["Bonjour", "Monde"]}`, []string{"Bonjour", "Monde"}, false},
		{"other key", `{"results": ["Bonjour", "Monde"]}`, []string{"Bonjour", "Monde"}, false},
		{"bare array", `["Bonjour", "Monde"]`, []string{"Bonjour", "Monde"}, false},
		{"fenced", "```json\n{\"translations\": [\"Bonjour\", \"Monde\"]}\n```", []string{"Bonjour", "Monde"}, false},
		{"zero width stripped", `{"translations": ["Bon\u200bjour", "\u200cMonde\u200d"]}`, []string{"Bonjour", "Monde"}, false},
		{"count mismatch", `{"translations": ["Bonjour"]}`, nil, true},
		{"garbage", `not json`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.parseResponse(tt.content, 2)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	_, err := p.parseResponse(`{"translations": ["x"]}`, 2)
	var mismatch *duotext.CountMismatchError
	if !errors.As(err, &mismatch) {
		t.Errorf("expected CountMismatchError, got %v", err)
	}
}

// fakeCompletions serves the chat completions endpoint with a fixed status and body.
func fakeCompletions(t *testing.T, status int, body string, seen *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		if seen != nil {
			data, _ := io.ReadAll(r.Body)
			*seen = append(*seen, string(data))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
}

func completion(content string) string {
	data, _ := json.Marshal(map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "gpt-4o-mini",
		"choices": []map[string]interface{}{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	})
	return string(data)
}

func TestOpenAIProvider_Translate(t *testing.T) {
	var seen []string
	srv := fakeCompletions(t, http.StatusOK, completion(`{"translations": ["Enregistrer", "Ouvrir"]}`), &seen)
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1", Model: "test-model"})
	got, err := p.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Save", "Open"},
		TargetLang: "fr_FR",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if len(got) != 2 || got[0] != "Enregistrer" || got[1] != "Ouvrir" {
		t.Errorf("unexpected translations: %q", got)
	}
	if len(seen) != 1 || !strings.Contains(seen[0], `"model":"test-model"`) {
		t.Errorf("request did not carry the model: %v", seen)
	}
}

func TestOpenAIProvider_EmptyBatch(t *testing.T) {
	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: "http://127.0.0.1:1"})
	got, err := p.Translate(context.Background(), TranslateRequest{})
	if err != nil || len(got) != 0 {
		t.Errorf("empty batch should not hit the API: %v %v", got, err)
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, `{"error": {"message": "slow down", "type": "rate_limit"}}`, true},
		{"server error", http.StatusInternalServerError, `{"error": {"message": "boom", "type": "server_error"}}`, true},
		{"bad key", http.StatusUnauthorized, `{"error": {"message": "invalid key", "type": "auth"}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := fakeCompletions(t, tt.status, tt.body, nil)
			defer srv.Close()

			p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
			_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Save"}, TargetLang: "fr_FR"})

			var provErr *duotext.ProviderError
			if !errors.As(err, &provErr) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if provErr.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", provErr.Retryable, tt.retryable)
			}
		})
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	srv := fakeCompletions(t, http.StatusOK, `{"id": "x", "object": "chat.completion", "choices": []}`, nil)
	defer srv.Close()

	p := NewOpenAIProvider(OpenAIConfig{APIKey: "test", BaseURL: srv.URL + "/v1"})
	_, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Save"}})
	if !duotext.IsRetryable(err) {
		t.Errorf("empty choices should be retryable, got %v", err)
	}
}

func TestMockProvider(t *testing.T) {
	m := NewMockProvider()

	got, err := m.Translate(context.Background(), TranslateRequest{
		Texts:      []string{"Save", "Quit"},
		TargetLang: "fr_FR",
	})
	if err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	if got[0] != "Enregistrer" || got[1] != "[fr_FR] Quit" {
		t.Errorf("unexpected translations: %q", got)
	}
	if m.CallCount() != 1 || m.LastRequest().TargetLang != "fr_FR" {
		t.Errorf("call tracking wrong: %d %+v", m.CallCount(), m.LastRequest())
	}

	m.Err = errors.New("offline")
	if _, err := m.Translate(context.Background(), TranslateRequest{Texts: []string{"Save"}}); err == nil {
		t.Error("expected injected error")
	}

	m.Reset()
	if m.CallCount() != 0 || m.LastRequest() != nil {
		t.Error("Reset should clear tracking")
	}
}
