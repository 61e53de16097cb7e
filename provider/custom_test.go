package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ZaguanLabs/duotext"
)

func TestCustomProvider_Translate(t *testing.T) {
	var auth []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request: %s %s", r.Method, r.Header.Get("Content-Type"))
		}
		auth = append(auth, r.Header.Get("Authorization"))

		var req customRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
			return
		}
		translated := map[string]string{"Save": "Enregistrer", "Open": "Ouvrir" + duotext.MarkerStart}[req.Text]
		json.NewEncoder(w).Encode(map[string]string{"translated_text": translated + " (" + req.TargetLang + ")"})
	}))
	defer srv.Close()

	p := NewCustomProvider(CustomConfig{URL: srv.URL, APIKey: "secret"})
	got, err := p.Translate(context.Background(), TranslateRequest{Texts: []string{"Save", "Open"}, TargetLang: "fr"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != "Enregistrer (fr)" || got[1] != "Ouvrir (fr)" {
		t.Errorf("unexpected translations: %q", got)
	}
	if len(auth) != 2 || auth[0] != "Bearer secret" {
		t.Errorf("authorization headers = %q", auth)
	}
}

func TestCustomProvider_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		retryable bool
	}{
		{"server error", http.StatusBadGateway, `oops`, true},
		{"rate limited", http.StatusTooManyRequests, `slow down`, true},
		{"bad request", http.StatusBadRequest, `no`, false},
		{"missing field", http.StatusOK, `{"result": "Enregistrer"}`, false},
		{"invalid json", http.StatusOK, `{`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewCustomProvider(CustomConfig{URL: srv.URL}).Translate(context.Background(),
				TranslateRequest{Texts: []string{"Save"}, TargetLang: "fr"})
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

func TestCustomProvider_EmptyBatch(t *testing.T) {
	p := NewCustomProvider(CustomConfig{URL: "http://127.0.0.1:0"})
	got, err := p.Translate(context.Background(), TranslateRequest{TargetLang: "fr"})
	if err != nil || len(got) != 0 {
		t.Errorf("empty batch: %q, %v", got, err)
	}
}
