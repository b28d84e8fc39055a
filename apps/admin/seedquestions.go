package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/fs"
)

const questionFixturePath = "fixtures/quiz_questions.json"

type questionFixture struct {
	Subject       string   `json:"subject"`
	Topic         string   `json:"topic"`
	Difficulty    string   `json:"difficulty"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// seedQuestions loads the bundled question fixtures into the question bank.
func (cli *commandLine) seedQuestions() error {
	data, err := appfs.FS.ReadFile(questionFixturePath)
	if err != nil {
		return errors.Wrap(err, "reading question fixtures")
	}
	var fixtures []questionFixture
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return errors.Wrap(err, "parsing question fixtures")
	}

	ctx := context.Background()
	for _, f := range fixtures {
		q := quiz.Question{
			ID:            uuid.New().String(),
			Subject:       f.Subject,
			Topic:         f.Topic,
			Difficulty:    quiz.ParseDifficulty(f.Difficulty),
			Prompt:        f.Prompt,
			Options:       f.Options,
			CorrectAnswer: f.CorrectAnswer,
			IsActive:      true,
			CreatedAt:     time.Now().UTC(),
		}
		if err := cli.quizRepo.CreateQuestion(ctx, q); err != nil {
			return errors.Wrapf(err, "seeding question %q", f.Prompt)
		}
	}
	fmt.Printf("%d questions seeded\n", len(fixtures))
	return nil
}
