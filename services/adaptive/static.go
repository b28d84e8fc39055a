package adaptivesvc

import (
	"context"

	"github.com/trezcool/darasa/core/quiz"
)

// StaticEngine is a local heuristic used when no engine URL is configured:
// two correct answers in a row step the difficulty up, two misses step it
// down, anything else holds steady.
type StaticEngine struct{}

var _ quiz.AdaptiveEngine = StaticEngine{}

func NewStaticEngine() StaticEngine { return StaticEngine{} }

func (StaticEngine) Next(_ context.Context, in quiz.AdaptiveInput) (quiz.AdaptiveDecision, error) {
	if len(in.Attempts) == 0 {
		return decision(quiz.Easy, "no history"), nil
	}

	last := in.Attempts[len(in.Attempts)-1]
	current := last.Difficulty

	streak := 1
	for i := len(in.Attempts) - 2; i >= 0; i-- {
		if in.Attempts[i].IsCorrect != last.IsCorrect {
			break
		}
		streak++
	}

	switch {
	case last.IsCorrect && streak >= 2:
		return decision(stepUp(current), "streak"), nil
	case !last.IsCorrect && streak >= 2:
		return decision(stepDown(current), "struggling"), nil
	default:
		return decision(current, "steady"), nil
	}
}

func decision(d quiz.Difficulty, reason string) quiz.AdaptiveDecision {
	return quiz.AdaptiveDecision{
		NextDifficulty: string(d),
		NextTopic:      "same",
		Strategy:       "static",
		Reason:         reason,
	}
}

func stepUp(d quiz.Difficulty) quiz.Difficulty {
	switch d {
	case quiz.Easy:
		return quiz.Medium
	default:
		return quiz.Hard
	}
}

func stepDown(d quiz.Difficulty) quiz.Difficulty {
	switch d {
	case quiz.Hard:
		return quiz.Medium
	default:
		return quiz.Easy
	}
}
