package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/entitlement"
	"github.com/trezcool/darasa/core/user"
)

type userApi struct {
	svc      *user.Service
	entSvc   *entitlement.Service
	resolver *access.Resolver
	conf     *core.Config
	logger   core.Logger
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := userApi{
		svc:      deps.UserSvc,
		entSvc:   deps.EntitlementSvc,
		resolver: deps.Resolver,
		conf:     deps.Conf,
		logger:   deps.Logger,
		validate: deps.Validate,
	}

	ug := g.Group("/users")

	// un-authed endpoints
	ug.POST("/register", api.register)
	ug.POST("/login", api.login)

	ag := ug.Group("", jwt)
	ag.POST("/token-refresh", api.refreshToken)

	// parent endpoints
	pg := g.Group("/parents", jwt, parentMiddleware())
	pg.GET("/me", api.me)
	pg.GET("/subscription", api.subscription)
	pg.POST("/subscription/activate", api.activateSubscription)
	pg.GET("/report", api.academicReport)

	cg := pg.Group("/children")
	cg.POST("", api.createChild)
	cg.GET("", api.children)

	dg := cg.Group("/:childID", ctxChildMiddleware(api.svc))
	dg.GET("", api.child)
	dg.PUT("", api.updateChild)
	dg.POST("/delete-request", api.requestChildDeletion)
	dg.POST("/delete-confirm", api.confirmChildDeletion)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewParent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := authenticate(ctx, data.Email, data.Password, api.svc, api.conf)
	if err != nil {
		return err
	}
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.svc, api.conf)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) createChild(ctx echo.Context) error {
	var data user.NewChild
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChild")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	child, err := api.svc.CreateChild(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return err
	}

	// seed locked entitlements; rows are also created lazily on first access
	if err = api.entSvc.InitForLearner(ctx.Request().Context(), child.ID, child.Cohort); err != nil {
		api.logger.Warn("seeding entitlements failed", "error", err)
	}
	return ctx.JSON(http.StatusCreated, child)
}

func (api *userApi) children(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	children, err := api.svc.Children(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "querying children")
	}
	if children == nil {
		children = []user.User{}
	}
	return ctx.JSON(http.StatusOK, children)
}

func (api *userApi) child(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, child)
}

func (api *userApi) updateChild(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateChild
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateChild")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	child, err = api.svc.UpdateChild(ctx.Request().Context(), child.ParentID, child.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, child)
}

func (api *userApi) requestChildDeletion(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	if err = api.svc.RequestChildDeletion(ctx.Request().Context(), child.ParentID, child.ID); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "A confirmation code has been sent to your email address.",
	})
}

func (api *userApi) confirmChildDeletion(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	var data ConfirmDeletionRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConfirmDeletionRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	if err = api.svc.ConfirmChildDeletion(ctx.Request().Context(), child.ParentID, child.ID, data.Code); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) subscription(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.svc.Subscription(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *userApi) activateSubscription(ctx echo.Context) error {
	var data ActivateSubscriptionRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActivateSubscriptionRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	sub, err := api.svc.ActivateSubscription(ctx.Request().Context(), claims.Subject, user.SubscriptionPlan(data.Plan))
	if err != nil {
		return err
	}

	// fan out: unlock every subject for every learner of this parent
	unlocked, err := api.entSvc.UnlockAllForLearnersOfParent(ctx.Request().Context(), claims.Subject)
	if err != nil {
		// the subscription itself grants access; missing rows unlock lazily
		api.logger.Warn("unlocking learner subjects failed", "error", err)
	}
	return ctx.JSON(http.StatusOK, ActivateSubscriptionResponse{
		Subscription:     sub,
		UnlockedSubjects: unlocked,
	})
}

func (api *userApi) academicReport(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	report, err := api.resolver.AcademicReport(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "building academic report")
	}
	return ctx.JSON(http.StatusOK, report)
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Token string `json:"token"`
	}

	SuccessResponse struct {
		Success string `json:"success"`
	}

	ConfirmDeletionRequest struct {
		Code string `json:"code" validate:"required,len=6"`
	}

	ActivateSubscriptionRequest struct {
		Plan string `json:"type" validate:"required,oneof=monthly yearly"`
	}

	ActivateSubscriptionResponse struct {
		Subscription     user.Subscription `json:"subscription"`
		UnlockedSubjects int               `json:"unlocked_subjects"`
	}
)

func (lr *LoginRequest) Validate(validate *validator.Validate) error {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
	return validate.Struct(lr)
}

func (cd *ConfirmDeletionRequest) Validate(validate *validator.Validate) error {
	cd.Code = core.CleanString(cd.Code)
	return validate.Struct(cd)
}

func (as *ActivateSubscriptionRequest) Validate(validate *validator.Validate) error {
	as.Plan = core.CleanString(as.Plan, true /* lower */)
	return validate.Struct(as)
}
