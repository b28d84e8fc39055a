package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/leaderboard"
	"github.com/trezcool/darasa/core/user"
)

type leaderboardApi struct {
	svc     *leaderboard.Service
	userSvc *user.Service
	logger  core.Logger
}

func registerLeaderboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := leaderboardApi{
		svc:     deps.BoardSvc,
		userSvc: deps.UserSvc,
		logger:  deps.Logger,
	}

	lg := g.Group("/children/:childID/leaderboard", jwt, parentMiddleware(), ctxChildMiddleware(deps.UserSvc))
	lg.GET("", api.top)
	lg.GET("/rank", api.rank)
}

// Handlers

// top lists the best scorers of the child's cohort, enriched with names and
// emojis for display.
func (api *leaderboardApi) top(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	entries, err := api.svc.Top(ctx.Request().Context(), child.Cohort, leaderboard.DefaultTopSize)
	if err != nil {
		return errors.Wrap(err, "querying leaderboard")
	}

	board := make([]BoardEntry, 0, len(entries))
	for i, entry := range entries {
		be := BoardEntry{
			Rank:       i + 1,
			LearnerID:  entry.LearnerID,
			TotalScore: entry.TotalScore,
		}
		if i > 0 && entries[i-1].TotalScore == entry.TotalScore {
			be.Rank = board[i-1].Rank // equal scores share a rank
		}
		if learner, lErr := api.userSvc.GetByID(ctx.Request().Context(), entry.LearnerID); lErr == nil {
			be.Name = learner.Name
			be.Emoji = learner.Emoji
		} else {
			api.logger.Warn("leaderboard learner lookup failed", "error", lErr)
		}
		board = append(board, be)
	}
	return ctx.JSON(http.StatusOK, board)
}

func (api *leaderboardApi) rank(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	rank, err := api.svc.RankOf(ctx.Request().Context(), child.ID, child.Cohort)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rank)
}

type BoardEntry struct {
	Rank       int    `json:"rank"`
	LearnerID  string `json:"learner_id"`
	Name       string `json:"name,omitempty"`
	Emoji      string `json:"emoji,omitempty"`
	TotalScore int    `json:"total_score"`
}
