package chat_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"docs-chat/internal/chat"
)

func TestClientSendsWireRequest(t *testing.T) {
	var gotBody map[string]any
	var gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotContentType = r.Header.Get("Content-Type")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{"answer": "A"})
	}))
	defer srv.Close()

	c := chat.NewClient(srv.URL)
	answer, sources, err := c.Ask(context.Background(), "why?")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if answer != "A" {
		t.Errorf("answer = %q, want %q", answer, "A")
	}
	if len(sources) != 0 {
		t.Errorf("sources = %v, want empty", sources)
	}
	if gotContentType != "application/json" {
		t.Errorf("content type = %q", gotContentType)
	}
	if gotBody["question"] != "why?" {
		t.Errorf("question = %v", gotBody["question"])
	}
	if gotBody["top_k"] != float64(3) {
		t.Errorf("top_k = %v, want 3", gotBody["top_k"])
	}
}

func TestClientDecodesSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"answer":"A","sources":[{"id":1,"score":0.87,"text":"x","metadata":{"page":2}}]}`))
	}))
	defer srv.Close()

	c := chat.NewClient(srv.URL)
	_, sources, err := c.Ask(context.Background(), "q")
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if len(sources) != 1 {
		t.Fatalf("sources = %d, want 1", len(sources))
	}
	if sources[0].Score != 0.87 {
		t.Errorf("score = %v", sources[0].Score)
	}
	if sources[0].Metadata["page"] != float64(2) {
		t.Errorf("metadata = %v", sources[0].Metadata)
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := chat.NewClient(srv.URL)
	_, _, err := c.Ask(context.Background(), "q")
	if err == nil {
		t.Fatal("expected an error for status 500")
	}
	if err.Error() != "API error: 500 Internal Server Error" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestClientMalformedBody(t *testing.T) {
	cases := map[string]string{
		"not json":   `{{{`,
		"no answer":  `{"sources":[]}`,
		"wrong type": `{"answer":42}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			c := chat.NewClient(srv.URL)
			_, _, err := c.Ask(context.Background(), "q")
			if err == nil {
				t.Fatal("expected an error for a malformed body")
			}
			if !strings.Contains(err.Error(), "invalid response") {
				t.Errorf("error = %q", err.Error())
			}
		})
	}
}

func TestClientNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := chat.NewClient(srv.URL)
	_, _, err := c.Ask(context.Background(), "q")
	if err == nil {
		t.Fatal("expected an error when the server is unreachable")
	}
}
