package quiz_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/leaderboard"
	"github.com/trezcool/darasa/core/quiz"
	adaptivesvc "github.com/trezcool/darasa/services/adaptive"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

type failingEngine struct{}

func (failingEngine) Next(context.Context, quiz.AdaptiveInput) (quiz.AdaptiveDecision, error) {
	return quiz.AdaptiveDecision{}, errors.New("engine down")
}

// fixedEngine always proposes the same difficulty.
type fixedEngine struct{ d quiz.Difficulty }

func (e fixedEngine) Next(context.Context, quiz.AdaptiveInput) (quiz.AdaptiveDecision, error) {
	return quiz.AdaptiveDecision{NextDifficulty: string(e.d), NextTopic: "same"}, nil
}

type fixture struct {
	svc      *quiz.Service
	boardSvc *leaderboard.Service
}

func setup(t *testing.T, engine quiz.AdaptiveEngine) *fixture {
	t.Helper()
	db := inmemdb.NewDB()
	boardSvc := leaderboard.NewService(inmemdb.NewLeaderboardRepository(db), nil, core.NopLogger{})
	return &fixture{
		svc:      quiz.NewService(inmemdb.NewQuizRepository(db), boardSvc, engine, core.NopLogger{}),
		boardSvc: boardSvc,
	}
}

func (f *fixture) addQuestions(t *testing.T, subject string, difficulties ...quiz.Difficulty) []quiz.Question {
	t.Helper()
	out := make([]quiz.Question, 0, len(difficulties))
	for i, d := range difficulties {
		q, err := f.svc.AddQuestion(context.Background(), quiz.Question{
			Subject:       subject,
			Topic:         "numbers",
			Difficulty:    d,
			Prompt:        "?",
			Options:       []string{"a", "b"},
			CorrectAnswer: "a",
		})
		if err != nil {
			t.Fatalf("AddQuestion(%d) failed, %v", i, err)
		}
		out = append(out, q)
	}
	return out
}

func TestService_Start(t *testing.T) {
	f := setup(t, adaptivesvc.NewStaticEngine())
	ctx := context.Background()

	// empty pool completes immediately
	round, err := f.svc.Start(ctx, "kid-1", "Mathematics")
	if err != nil {
		t.Fatalf("Start() failed, %v", err)
	}
	if !round.Completed || round.Question != nil {
		t.Error("empty pool must complete the session")
	}

	qs := f.addQuestions(t, "Mathematics", quiz.Easy, quiz.Easy, quiz.Hard)

	// the session opens with the first easy question
	round, err = f.svc.Start(ctx, "kid-1", "Mathematics")
	if err != nil {
		t.Fatalf("Start() failed, %v", err)
	}
	if round.Completed || round.Question == nil {
		t.Fatal("Start() returned no question")
	}
	if round.Question.ID != qs[0].ID {
		t.Errorf("question = %s, want %s", round.Question.ID, qs[0].ID)
	}
	if round.Question.Difficulty != quiz.Easy {
		t.Errorf("difficulty = %s, want %s", round.Question.Difficulty, quiz.Easy)
	}

	// attempted questions are never served again
	if _, err = f.svc.SubmitAnswer(ctx, "kid-1", 3, qs[0].ID, "b"); err != nil {
		t.Fatalf("SubmitAnswer() failed, %v", err)
	}
	round, err = f.svc.Start(ctx, "kid-1", "Mathematics")
	if err != nil {
		t.Fatalf("Start() failed, %v", err)
	}
	if round.Question == nil || round.Question.ID != qs[1].ID {
		t.Errorf("question = %v, want %s", round.Question, qs[1].ID)
	}
}

func TestService_SubmitAnswer_Points(t *testing.T) {
	tests := []struct {
		name       string
		difficulty quiz.Difficulty
		answer     string
		wantPoints int
	}{
		{name: "easy correct", difficulty: quiz.Easy, answer: "a", wantPoints: 10},
		{name: "medium correct", difficulty: quiz.Medium, answer: "a", wantPoints: 20},
		{name: "hard correct", difficulty: quiz.Hard, answer: "a", wantPoints: 30},
		{name: "whitespace is trimmed", difficulty: quiz.Easy, answer: "  a ", wantPoints: 10},
		{name: "wrong answer", difficulty: quiz.Hard, answer: "b", wantPoints: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, adaptivesvc.NewStaticEngine())
			ctx := context.Background()
			q := f.addQuestions(t, "Mathematics", tt.difficulty)[0]

			res, err := f.svc.SubmitAnswer(ctx, "kid-1", 3, q.ID, tt.answer)
			if err != nil {
				t.Fatalf("SubmitAnswer() failed, %v", err)
			}
			if res.Correct != (tt.wantPoints > 0) {
				t.Errorf("Correct = %v, want %v", res.Correct, tt.wantPoints > 0)
			}
			if res.Points != tt.wantPoints {
				t.Errorf("Points = %d, want %d", res.Points, tt.wantPoints)
			}

			// points land on the cohort leaderboard only when correct
			rank, err := f.boardSvc.RankOf(ctx, "kid-1", 3)
			if tt.wantPoints == 0 {
				if err != leaderboard.ErrNotRanked {
					t.Errorf("RankOf() error = %v, wantErr %v", err, leaderboard.ErrNotRanked)
				}
				return
			}
			if err != nil {
				t.Fatalf("RankOf() failed, %v", err)
			}
			if rank.Score != tt.wantPoints {
				t.Errorf("Score = %d, want %d", rank.Score, tt.wantPoints)
			}
		})
	}
}

func TestService_SubmitAnswer_UnknownQuestion(t *testing.T) {
	f := setup(t, adaptivesvc.NewStaticEngine())
	if _, err := f.svc.SubmitAnswer(context.Background(), "kid-1", 3, "nope", "a"); errors.Cause(err) != quiz.ErrQuestionNotFound {
		t.Errorf("SubmitAnswer() error = %v, wantErr %v", err, quiz.ErrQuestionNotFound)
	}
}

func TestService_SubmitAnswer_AdaptiveFallback(t *testing.T) {
	f := setup(t, failingEngine{})
	ctx := context.Background()
	qs := f.addQuestions(t, "Mathematics", quiz.Easy, quiz.Easy, quiz.Hard)

	// a dead engine degrades to easy instead of failing the request
	res, err := f.svc.SubmitAnswer(ctx, "kid-1", 3, qs[0].ID, "a")
	if err != nil {
		t.Fatalf("SubmitAnswer() failed, %v", err)
	}
	want := quiz.FallbackDecision()
	if res.Adaptive != want {
		t.Errorf("Adaptive = %+v, want %+v", res.Adaptive, want)
	}
	if res.Question == nil || res.Question.ID != qs[1].ID {
		t.Errorf("next question = %v, want the remaining easy one", res.Question)
	}
}

func TestService_SubmitAnswer_NextDifficulty(t *testing.T) {
	f := setup(t, fixedEngine{d: quiz.Hard})
	ctx := context.Background()
	qs := f.addQuestions(t, "Mathematics", quiz.Easy, quiz.Easy, quiz.Hard)

	// the engine's difficulty drives the next pick
	res, err := f.svc.SubmitAnswer(ctx, "kid-1", 3, qs[0].ID, "a")
	if err != nil {
		t.Fatalf("SubmitAnswer() failed, %v", err)
	}
	if res.Question == nil || res.Question.ID != qs[2].ID {
		t.Errorf("next question = %v, want the hard one", res.Question)
	}

	// exhausting the requested difficulty completes the session
	res, err = f.svc.SubmitAnswer(ctx, "kid-1", 3, qs[2].ID, "a")
	if err != nil {
		t.Fatalf("SubmitAnswer() failed, %v", err)
	}
	if !res.Completed || res.Question != nil {
		t.Error("exhausted pool must complete the session")
	}
}

func TestService_RecentAttempts(t *testing.T) {
	f := setup(t, adaptivesvc.NewStaticEngine())
	ctx := context.Background()
	qs := f.addQuestions(t, "Mathematics", quiz.Easy, quiz.Easy, quiz.Easy, quiz.Easy, quiz.Easy, quiz.Easy, quiz.Easy)

	for i, q := range qs {
		answer := "a"
		if i%2 == 1 {
			answer = "b"
		}
		if _, err := f.svc.SubmitAnswer(ctx, "kid-1", 3, q.ID, answer); err != nil {
			t.Fatalf("SubmitAnswer(%d) failed, %v", i, err)
		}
	}

	// default window is 5, newest first
	recent, err := f.svc.RecentAttempts(ctx, "kid-1", "Mathematics", 0)
	if err != nil {
		t.Fatalf("RecentAttempts() failed, %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("len(recent) = %d, want 5", len(recent))
	}
	if recent[0].QuestionID != qs[len(qs)-1].ID {
		t.Errorf("recent[0] = %s, want the latest attempt", recent[0].QuestionID)
	}

	recent, err = f.svc.RecentAttempts(ctx, "kid-1", "Mathematics", 2)
	if err != nil {
		t.Fatalf("RecentAttempts() failed, %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("len(recent) = %d, want 2", len(recent))
	}

	// attempts are scoped per subject
	recent, err = f.svc.RecentAttempts(ctx, "kid-1", "Science", 0)
	if err != nil {
		t.Fatalf("RecentAttempts() failed, %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("len(recent) = %d, want 0", len(recent))
	}
}
