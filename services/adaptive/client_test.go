package adaptivesvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	conf := core.NewTestConfig()
	conf.Adaptive.URL = url
	client := NewClient(conf)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestClient_Next(t *testing.T) {
	var gotInput quiz.AdaptiveInput
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/adaptive/next" {
			t.Errorf("path = %s, want /adaptive/next", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotInput); err != nil {
			t.Errorf("decoding request failed, %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(quiz.AdaptiveDecision{
			NextDifficulty: "medium",
			NextTopic:      "fractions",
			Strategy:       "mastery",
			Mastery:        0.7,
			Confidence:     0.9,
		})
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	in := quiz.AdaptiveInput{
		ChildID: "kid-1",
		Subject: "Mathematics",
		Attempts: []quiz.AttemptSummary{
			{Topic: "addition", Difficulty: quiz.Easy, IsCorrect: true},
			{Topic: "addition", Difficulty: quiz.Easy, IsCorrect: true},
		},
	}
	decision, err := client.Next(context.Background(), in)
	if err != nil {
		t.Fatalf("Next() failed, %v", err)
	}
	if decision.NextDifficulty != "medium" || decision.NextTopic != "fractions" {
		t.Errorf("decision = %+v, want medium/fractions", decision)
	}
	if gotInput.ChildID != in.ChildID || len(gotInput.Attempts) != 2 {
		t.Errorf("engine received %+v, want %+v", gotInput, in)
	}
}

func TestClient_Next_ServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	conf := core.NewTestConfig()
	conf.Adaptive.URL = srv.URL
	conf.Adaptive.RetryAttempts = 3
	client := NewClient(conf)
	defer func() { _ = client.Close() }()

	if _, err := client.Next(context.Background(), quiz.AdaptiveInput{}); err == nil {
		t.Fatal("Next() succeeded against a failing engine")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3 retries", got)
	}
}

func TestClient_Next_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if _, err := client.Next(context.Background(), quiz.AdaptiveInput{}); err == nil {
		t.Fatal("Next() succeeded despite the timeout")
	}
}

func TestStaticEngine(t *testing.T) {
	attempt := func(d quiz.Difficulty, correct bool) quiz.AttemptSummary {
		return quiz.AttemptSummary{Topic: "addition", Difficulty: d, IsCorrect: correct}
	}
	tests := []struct {
		name     string
		attempts []quiz.AttemptSummary
		want     string
	}{
		{name: "no history", want: "easy"},
		{name: "single correct holds", attempts: []quiz.AttemptSummary{attempt(quiz.Easy, true)}, want: "easy"},
		{name: "streak steps up", attempts: []quiz.AttemptSummary{attempt(quiz.Easy, true), attempt(quiz.Easy, true)}, want: "medium"},
		{name: "streak tops out at hard", attempts: []quiz.AttemptSummary{attempt(quiz.Hard, true), attempt(quiz.Hard, true)}, want: "hard"},
		{name: "two misses step down", attempts: []quiz.AttemptSummary{attempt(quiz.Medium, false), attempt(quiz.Medium, false)}, want: "easy"},
		{name: "misses bottom out at easy", attempts: []quiz.AttemptSummary{attempt(quiz.Easy, false), attempt(quiz.Easy, false)}, want: "easy"},
		{name: "broken streak holds", attempts: []quiz.AttemptSummary{attempt(quiz.Medium, false), attempt(quiz.Medium, true)}, want: "medium"},
	}
	engine := NewStaticEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision, err := engine.Next(context.Background(), quiz.AdaptiveInput{Attempts: tt.attempts})
			if err != nil {
				t.Fatalf("Next() failed, %v", err)
			}
			if decision.NextDifficulty != tt.want {
				t.Errorf("NextDifficulty = %s, want %s", decision.NextDifficulty, tt.want)
			}
		})
	}
}
