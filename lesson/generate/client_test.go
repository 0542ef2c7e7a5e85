package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/finaccosolutions/Ai-Tutorial-sub000/lesson"
)

// testClientConfig keeps retries and rate limiting fast enough for tests.
func testClientConfig(url string) ClientConfig {
	return ClientConfig{
		BaseURL:           url,
		RequestsPerMinute: 6000,
		RetryAttempts:     3,
		RetryDelay:        time.Millisecond,
	}
}

func serveLesson(t *testing.T, w http.ResponseWriter) {
	t.Helper()
	p := &lesson.Presentation{
		Title: "Photosynthesis",
		Topic: "photosynthesis",
		Kind:  lesson.KindSlides,
		Slides: []lesson.Slide{
			{Title: "Light", Narration: "Light reactions capture photons from sunlight."},
			{Title: "Carbon", Narration: "The Calvin cycle fixes carbon into sugars."},
		},
	}
	if err := json.NewEncoder(w).Encode(p); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestClientGenerateSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		serveLesson(t, w)
	}))
	defer srv.Close()

	c, err := NewClient(testClientConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	p, err := c.Generate(context.Background(), Request{Topic: "photosynthesis"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if p.Title != "Photosynthesis" {
		t.Errorf("Title = %q, want %q", p.Title, "Photosynthesis")
	}
	if len(p.Slides) != 2 {
		t.Fatalf("len(Slides) = %d, want 2", len(p.Slides))
	}
	// Normalization runs on arrival, so durations exist even though the
	// service never sent any.
	for i, s := range p.Slides {
		if s.Duration <= 0 {
			t.Errorf("slide %d duration = %v, want positive", i, s.Duration)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestClientSendsAuthAndPayload(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		serveLesson(t, w)
	}))
	defer srv.Close()

	cfg := testClientConfig(srv.URL + "/") // trailing slash must not double up
	cfg.APIKey = "sekrit"
	cfg.Model = "tutor-large"
	c, err := NewClient(cfg)
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	if _, err := c.Generate(context.Background(), Request{Topic: " Photosynthesis "}); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if gotAuth != "Bearer sekrit" {
		t.Errorf("Authorization = %q, want bearer token", gotAuth)
	}
	if gotPath != "/v1/lessons" {
		t.Errorf("path = %q, want /v1/lessons", gotPath)
	}
	if gotReq.Topic != "Photosynthesis" {
		t.Errorf("Topic = %q, want trimmed", gotReq.Topic)
	}
	if gotReq.Level != LevelIntermediate {
		t.Errorf("Level = %q, want default applied before send", gotReq.Level)
	}
	if gotReq.SlideCount != defaultSlideCount {
		t.Errorf("SlideCount = %d, want %d", gotReq.SlideCount, defaultSlideCount)
	}
	if gotReq.Model != "tutor-large" {
		t.Errorf("Model = %q, want tutor-large", gotReq.Model)
	}
}

func TestClientRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
			return
		}
		serveLesson(t, w)
	}))
	defer srv.Close()

	c, err := NewClient(testClientConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	p, err := c.Generate(context.Background(), Request{Topic: "photosynthesis"})
	if err != nil {
		t.Fatalf("Generate() error = %v, want recovery on third attempt", err)
	}
	if p == nil || p.Title == "" {
		t.Fatal("no lesson returned after retries")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestClientGivesUpAfterRetryBudget(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"still broken"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewClient(testClientConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = c.Generate(context.Background(), Request{Topic: "photosynthesis"})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Generate() error = %v, want ErrGenerationFailed", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server calls = %d, want 3", got)
	}
}

func TestClientFailsFastOnBadRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"error":"unknown language"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c, err := NewClient(testClientConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = c.Generate(context.Background(), Request{Topic: "photosynthesis", Language: "xx"})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Generate() error = %v, want ErrGenerationFailed", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want no retries on 400", got)
	}
}

func TestClientRejectsUnplayableLesson(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// Decodes fine but has no slides, so it can never play.
		if _, err := w.Write([]byte(`{"title":"Empty","slides":[]}`)); err != nil {
			t.Errorf("writing response: %v", err)
		}
	}))
	defer srv.Close()

	c, err := NewClient(testClientConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = c.Generate(context.Background(), Request{Topic: "photosynthesis"})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Generate() error = %v, want ErrGenerationFailed", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want no retries on invalid payload", got)
	}
}

func TestClientCancelledContext(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		serveLesson(t, w)
	}))
	defer srv.Close()

	c, err := NewClient(testClientConfig(srv.URL))
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = c.Generate(ctx, Request{Topic: "photosynthesis"})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("Generate() error = %v, want ErrGenerationFailed", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("server calls = %d, want none after cancellation", got)
	}
}

func TestClientValidatesConfig(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Error("NewClient() accepted an empty base URL")
	}

	_, err := NewClient(ClientConfig{BaseURL: "http://localhost:0"})
	if err != nil {
		t.Errorf("NewClient() with defaults error = %v", err)
	}
}

func TestClientRejectsEmptyTopic(t *testing.T) {
	c, err := NewClient(ClientConfig{BaseURL: "http://localhost:0"})
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}

	_, err = c.Generate(context.Background(), Request{})
	if !errors.Is(err, ErrGenerationFailed) {
		t.Errorf("Generate() error = %v, want ErrGenerationFailed", err)
	}
}
