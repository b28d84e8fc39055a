package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/catalog"
	"github.com/trezcool/darasa/core/progress"
	"github.com/trezcool/darasa/core/user"
)

type catalogApi struct {
	svc      *catalog.Service
	progress *progress.Service
	resolver *access.Resolver
	logger   core.Logger
	validate *validator.Validate
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := catalogApi{
		svc:      deps.CatalogSvc,
		progress: deps.ProgressSvc,
		resolver: deps.Resolver,
		logger:   deps.Logger,
		validate: deps.Validate,
	}

	sg := g.Group("/subjects", jwt)
	sg.GET("", api.subjects)
	sg.GET("/:id/chapters", api.chapters)

	// learner-scoped content, resolved against the child's entitlements
	cg := g.Group("/children/:childID", jwt, parentMiddleware(), ctxChildMiddleware(deps.UserSvc))
	cg.GET("/subjects", api.subjectsWithStatus)
	cg.GET("/subjects/:subjectID/chapters", api.chaptersWithStatus)
	cg.GET("/chapters/:chapterID", api.chapterWithStatus)
	cg.POST("/chapters/:chapterID/complete", api.completeChapter)
	cg.POST("/chapters/:chapterID/quiz-score", api.recordQuizScore)
	cg.GET("/chapters/:chapterID/quiz-score", api.quizScore)
}

// Handlers

func (api *catalogApi) subjects(ctx echo.Context) error {
	subjects, err := api.svc.Subjects(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []catalog.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *catalogApi) chapters(ctx echo.Context) error {
	chapters, err := api.svc.ListChaptersOrdered(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if chapters == nil {
		chapters = []catalog.Chapter{}
	}
	return ctx.JSON(http.StatusOK, chapters)
}

func (api *catalogApi) subjectsWithStatus(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	subjects, err := api.resolver.SubjectsWithStatus(ctx.Request().Context(), child.ID)
	if err != nil {
		return errors.Wrap(err, "resolving subjects")
	}
	if subjects == nil {
		subjects = []access.SubjectAccess{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *catalogApi) chaptersWithStatus(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	chapters, err := api.resolver.ResolveChapters(ctx.Request().Context(), child.ID, ctx.Param("subjectID"))
	if err != nil {
		return err
	}
	if chapters == nil {
		chapters = []access.ChapterAccess{}
	}
	return ctx.JSON(http.StatusOK, chapters)
}

func (api *catalogApi) chapterWithStatus(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	chapter, err := api.resolver.ResolveChapter(ctx.Request().Context(), child.ID, ctx.Param("chapterID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chapter)
}

func (api *catalogApi) completeChapter(ctx echo.Context) error {
	child, chapter, err := api.accessibleChapter(ctx)
	if err != nil {
		return err
	}

	if err = api.progress.MarkCompleted(ctx.Request().Context(), child.ID, chapter.ID); err != nil {
		return errors.Wrap(err, "marking chapter completed")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Chapter marked as completed."})
}

func (api *catalogApi) recordQuizScore(ctx echo.Context) error {
	child, chapter, err := api.accessibleChapter(ctx)
	if err != nil {
		return err
	}

	var data QuizScoreRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to QuizScoreRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	err = api.progress.RecordQuizScore(ctx.Request().Context(), child.ID, chapter.ID, data.Score, data.TotalMarks)
	if err != nil {
		return core.NewValidationError(err)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Quiz score recorded."})
}

func (api *catalogApi) quizScore(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	qs, err := api.progress.ChapterScore(ctx.Request().Context(), child.ID, ctx.Param("chapterID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, qs)
}

// accessibleChapter loads the chapter and rejects the request when the
// learner has no access to it.
func (api *catalogApi) accessibleChapter(ctx echo.Context) (user.User, access.ChapterAccess, error) {
	child, err := getContextChild(ctx)
	if err != nil {
		return user.User{}, access.ChapterAccess{}, err
	}

	chapter, err := api.resolver.ResolveChapter(ctx.Request().Context(), child.ID, ctx.Param("chapterID"))
	if err != nil {
		return user.User{}, access.ChapterAccess{}, err
	}
	if chapter.Status == access.StatusLocked {
		return user.User{}, access.ChapterAccess{}, errHttpForbidden
	}
	return child, chapter, nil
}

type QuizScoreRequest struct {
	Score      int `json:"score" validate:"min=0"`
	TotalMarks int `json:"total_marks" validate:"required,min=1"`
}

func (qr *QuizScoreRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(qr)
}
