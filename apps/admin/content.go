package main

import (
	"context"
	"fmt"
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/catalog"
)

func (cli *commandLine) addSubject(name string, cohort int) error {
	ctx := context.Background()
	sub, err := cli.catRepo.CreateSubject(ctx, catalog.Subject{
		Name:      core.CleanString(name),
		Cohort:    cohort,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("subject %q created: %s\n", sub.Name, sub.ID)
	return nil
}

func (cli *commandLine) addChapter(subjectID, name, videoURL string) error {
	ctx := context.Background()
	if _, err := cli.catRepo.GetSubject(ctx, subjectID); err != nil {
		return err
	}
	ch, err := cli.catRepo.CreateChapter(ctx, catalog.Chapter{
		SubjectID: subjectID,
		Name:      core.CleanString(name),
		VideoURL:  core.CleanString(videoURL),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("chapter %q created at position %d: %s\n", ch.Name, ch.Position, ch.ID)
	return nil
}
