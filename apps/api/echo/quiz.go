package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/quiz"
)

type quizApi struct {
	svc      *quiz.Service
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := quizApi{
		svc:      deps.QuizSvc,
		validate: deps.Validate,
	}

	qg := g.Group("/children/:childID/quiz", jwt, parentMiddleware(), ctxChildMiddleware(deps.UserSvc))
	qg.POST("/start", api.start)
	qg.POST("/answer", api.answer)
	qg.GET("/attempts", api.attempts)
}

// Handlers

func (api *quizApi) start(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	var data StartQuizRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartQuizRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	round, err := api.svc.Start(ctx.Request().Context(), child.ID, data.Subject)
	if err != nil {
		return errors.Wrap(err, "starting quiz")
	}
	return ctx.JSON(http.StatusOK, round)
}

func (api *quizApi) answer(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	var data AnswerRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnswerRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	result, err := api.svc.SubmitAnswer(ctx.Request().Context(), child.ID, child.Cohort, data.QuestionID, data.Answer)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, result)
}

func (api *quizApi) attempts(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	subject := core.CleanString(ctx.QueryParam("subject"))
	if subject == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "subject", Error: "subject is required"})
	}

	attempts, err := api.svc.RecentAttempts(ctx.Request().Context(), child.ID, subject, 0)
	if err != nil {
		return errors.Wrap(err, "querying attempts")
	}
	if attempts == nil {
		attempts = []quiz.Attempt{}
	}
	return ctx.JSON(http.StatusOK, attempts)
}

type (
	StartQuizRequest struct {
		Subject string `json:"subject" validate:"required"`
	}

	AnswerRequest struct {
		QuestionID string `json:"question_id" validate:"required"`
		Answer     string `json:"answer" validate:"required"`
	}
)

func (sq *StartQuizRequest) Validate(validate *validator.Validate) error {
	sq.Subject = core.CleanString(sq.Subject)
	return validate.Struct(sq)
}

func (ar *AnswerRequest) Validate(validate *validator.Validate) error {
	ar.QuestionID = core.CleanString(ar.QuestionID)
	return validate.Struct(ar)
}
