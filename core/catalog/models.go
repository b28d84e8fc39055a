package catalog

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Subject is a named content area scoped to a class number (cohort).
type Subject struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Cohort    int       `json:"classnumber"`
	CreatedAt time.Time `json:"created_at"`
}

// Chapter belongs to exactly one Subject. Position is the creation sequence;
// the chapter at position 1 is the always-free one.
type Chapter struct {
	ID          string    `json:"id"`
	SubjectID   string    `json:"subject_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	VideoURL    string    `json:"videourl,omitempty"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// IsFree reports whether this is the subject's distinguished first chapter,
// accessible regardless of entitlement or subscription.
func (c Chapter) IsFree() bool { return c.Position == 1 }

// NewSubject contains information needed to create a Subject.
type NewSubject struct {
	Name   string `json:"name" validate:"required"`
	Cohort int    `json:"classnumber" validate:"required,min=1,max=12"`
}

func (ns *NewSubject) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	return validate.Struct(ns)
}

// NewChapter contains information needed to append a Chapter to a Subject.
type NewChapter struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	VideoURL    string `json:"videourl" validate:"omitempty,url"`
}

func (nc *NewChapter) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	return validate.Struct(nc)
}
