package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetch(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		statusCode  int
		wantError   bool
		wantCharset string
	}{
		{
			name:        "successful fetch",
			body:        `<html><body><p>Derzeit werden Anträge bearbeitet</p></body></html>`,
			contentType: "text/html; charset=utf-8",
			statusCode:  http.StatusOK,
			wantCharset: "utf-8",
		},
		{
			name:        "charset from meta tag",
			body:        `<html><head><meta charset="utf-8"></head><body>Stand</body></html>`,
			contentType: "text/html",
			statusCode:  http.StatusOK,
			wantCharset: "utf-8",
		},
		{
			name:       "HTTP error",
			statusCode: http.StatusNotFound,
			wantError:  true,
		},
		{
			name:       "server error",
			statusCode: http.StatusInternalServerError,
			wantError:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if userAgent := r.Header.Get("User-Agent"); !strings.Contains(userAgent, "potsdam-status") {
					t.Errorf("User-Agent = %q, should contain 'potsdam-status'", userAgent)
				}
				if tt.contentType != "" {
					w.Header().Set("Content-Type", tt.contentType)
				}
				w.WriteHeader(tt.statusCode)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			doc, err := New().Fetch(context.Background(), server.URL)

			if tt.wantError {
				if err == nil {
					t.Fatal("Fetch() expected error, got nil")
				}
				if !errors.Is(err, ErrFetch) {
					t.Errorf("Fetch() error = %v, want ErrFetch", err)
				}
				var httpErr *HTTPError
				if !errors.As(err, &httpErr) {
					t.Fatalf("Fetch() error should be *HTTPError, got %T", err)
				}
				if httpErr.StatusCode != tt.statusCode {
					t.Errorf("HTTPError.StatusCode = %d, want %d", httpErr.StatusCode, tt.statusCode)
				}
				return
			}

			if err != nil {
				t.Fatalf("Fetch() unexpected error: %v", err)
			}
			if string(doc.Body) != tt.body {
				t.Errorf("Body = %q, want %q", doc.Body, tt.body)
			}
			if doc.Charset != tt.wantCharset {
				t.Errorf("Charset = %q, want %q", doc.Charset, tt.wantCharset)
			}
			if doc.URL != server.URL {
				t.Errorf("URL = %q, want %q", doc.URL, server.URL)
			}
		})
	}
}

func TestFetch_Latin1(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.Write([]byte("<p>Derzeit werden Antr\xe4ge mit Eingangsdatum bis M\xe4rz 2024</p>"))
	}))
	defer server.Close()

	doc, err := New().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}

	text, err := ExtractDocument(doc)
	if err != nil {
		t.Fatalf("ExtractDocument() error: %v", err)
	}

	want := "Derzeit werden Anträge mit Eingangsdatum bis März 2024"
	if text != want {
		t.Errorf("ExtractDocument() = %q, want %q", text, want)
	}
}

func TestFetch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New().Fetch(context.Background(), url)
	if err == nil {
		t.Fatal("Fetch() expected error for closed server, got nil")
	}
	if !errors.Is(err, ErrFetch) {
		t.Errorf("Fetch() error = %v, want ErrFetch", err)
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Fetch(ctx, server.URL); !errors.Is(err, ErrFetch) {
		t.Errorf("Fetch() error = %v, want ErrFetch", err)
	}
}

func TestNew(t *testing.T) {
	s := New()

	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.client == nil {
		t.Fatal("scraper client is nil")
	}
	if s.client.Timeout != Timeout {
		t.Errorf("client timeout = %v, want %v", s.client.Timeout, Timeout)
	}
	if s.userAgent != UserAgent {
		t.Errorf("userAgent = %q, want %q", s.userAgent, UserAgent)
	}
}

func TestNew_Options(t *testing.T) {
	client := &http.Client{}
	s := New(WithClient(client), WithTimeout(5*time.Second), WithUserAgent("custom/2.0"))

	if s.client != client {
		t.Error("WithClient() did not replace the client")
	}
	if s.client.Timeout != 5*time.Second {
		t.Errorf("client timeout = %v, want 5s", s.client.Timeout)
	}
	if s.userAgent != "custom/2.0" {
		t.Errorf("userAgent = %q, want custom/2.0", s.userAgent)
	}

	// Zero values keep the defaults
	s = New(WithTimeout(0), WithUserAgent(""), WithClient(nil))
	if s.client.Timeout != Timeout || s.userAgent != UserAgent {
		t.Errorf("zero-value options changed defaults: timeout=%v ua=%q", s.client.Timeout, s.userAgent)
	}
}

func TestDocumentText(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		want string
	}{
		{
			name: "utf-8 passthrough",
			doc:  Document{Body: []byte("März"), Charset: "utf-8"},
			want: "März",
		},
		{
			name: "windows-1252",
			doc:  Document{Body: []byte("M\xe4rz"), Charset: "windows-1252"},
			want: "März",
		},
		{
			name: "unknown charset keeps raw bytes",
			doc:  Document{Body: []byte("März"), Charset: "x-unknown"},
			want: "März",
		},
		{
			name: "empty charset keeps raw bytes",
			doc:  Document{Body: []byte("April")},
			want: "April",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.doc.Text()
			if err != nil {
				t.Fatalf("Text() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewDocument(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		want        string
	}{
		{"declared utf-8", "Anträge", "text/html; charset=UTF-8", "utf-8"},
		{"declared latin-1", "Antr\xe4ge", "text/html; charset=ISO-8859-1", "windows-1252"},
		{"meta tag", `<meta http-equiv="Content-Type" content="text/html; charset=iso-8859-1">`, "", "windows-1252"},
		{"undeclared utf-8", "Anträge", "", "utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := NewDocument("file.html", []byte(tt.body), tt.contentType)
			if doc.Charset != tt.want {
				t.Errorf("Charset = %q, want %q", doc.Charset, tt.want)
			}
		})
	}
}
