package quiz

import "time"

// Difficulty is the level of a quiz question.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// ParseDifficulty normalizes free-form input; anything unknown maps to Easy.
func ParseDifficulty(s string) Difficulty {
	switch Difficulty(s) {
	case Medium:
		return Medium
	case Hard:
		return Hard
	default:
		return Easy
	}
}

// Points returns the score awarded for a correct answer at this difficulty.
func (d Difficulty) Points() int {
	switch d {
	case Medium:
		return 20
	case Hard:
		return 30
	default:
		return 10
	}
}

// Question is a quiz question in a subject's pool. The correct answer is
// never serialized to clients.
type Question struct {
	ID            string     `json:"id"`
	Subject       string     `json:"subject"`
	Topic         string     `json:"topic"`
	Difficulty    Difficulty `json:"difficulty"`
	Prompt        string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer string     `json:"-"`
	IsActive      bool       `json:"-"`
	CreatedAt     time.Time  `json:"-"`
}

// Attempt is one graded answer. The attempt log is append-only; adaptive
// difficulty selection reads the most recent entries.
type Attempt struct {
	ID         string     `json:"id"`
	LearnerID  string     `json:"learner_id"`
	QuestionID string     `json:"question_id"`
	Subject    string     `json:"subject"`
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	IsCorrect  bool       `json:"is_correct"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AttemptSummary is the slimmed attempt shape sent to the adaptive engine.
type AttemptSummary struct {
	Topic      string     `json:"topic"`
	Difficulty Difficulty `json:"difficulty"`
	IsCorrect  bool       `json:"is_correct"`
}

// AdaptiveInput is the request payload for the adaptive engine,
// attempts ordered oldest to newest.
type AdaptiveInput struct {
	ChildID  string           `json:"child_id"`
	Subject  string           `json:"subject"`
	Attempts []AttemptSummary `json:"attempts"`
}

// AdaptiveDecision is the adaptive engine's verdict on what to serve next.
type AdaptiveDecision struct {
	NextDifficulty string  `json:"next_difficulty"`
	NextTopic      string  `json:"next_topic"`
	Strategy       string  `json:"strategy,omitempty"`
	Mastery        float64 `json:"mastery,omitempty"`
	Confidence     float64 `json:"confidence,omitempty"`
	Reason         string  `json:"reason,omitempty"`
}

// FallbackDecision is used whenever the adaptive engine is unreachable, so a
// slow or dead engine degrades difficulty selection but never the request.
func FallbackDecision() AdaptiveDecision {
	return AdaptiveDecision{NextDifficulty: string(Easy), NextTopic: "same"}
}

// Round is what the engine hands back on start and on each answer.
type Round struct {
	Completed bool      `json:"completed"`
	Question  *Question `json:"question,omitempty"`
}

// AnswerResult is the outcome of grading one submitted answer.
type AnswerResult struct {
	Round
	Correct  bool             `json:"correct"`
	Points   int              `json:"points"`
	Adaptive AdaptiveDecision `json:"adaptive"`
}
