package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/entitlement"
)

type paymentApi struct {
	svc      *entitlement.Service
	resolver *access.Resolver
	validate *validator.Validate
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := paymentApi{
		svc:      deps.EntitlementSvc,
		resolver: deps.Resolver,
		validate: deps.Validate,
	}

	pg := g.Group("/children/:childID", jwt, parentMiddleware(), ctxChildMiddleware(deps.UserSvc))
	pg.POST("/purchases", api.purchaseSubject)
	pg.GET("/purchases", api.purchases)
	pg.GET("/subjects/:subjectID/unlock", api.checkUnlock)
}

// Handlers

// purchaseSubject records a completed payment and unlocks the subject for
// the learner. Payment processing happens upstream; this trusts the caller.
func (api *paymentApi) purchaseSubject(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	var data PurchaseRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PurchaseRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	ent, err := api.svc.Unlock(ctx.Request().Context(), child.ID, data.SubjectID, entitlement.PurchaseMeta{
		TransactionID: data.TransactionID,
		OrderID:       data.OrderID,
		Amount:        data.Amount,
	})
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, ent)
}

func (api *paymentApi) purchases(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	ents, err := api.svc.ListUnlocked(ctx.Request().Context(), child.ID)
	if err != nil {
		return errors.Wrap(err, "querying purchases")
	}
	if ents == nil {
		ents = []entitlement.Entitlement{}
	}
	return ctx.JSON(http.StatusOK, ents)
}

func (api *paymentApi) checkUnlock(ctx echo.Context) error {
	child, err := getContextChild(ctx)
	if err != nil {
		return err
	}

	locked, err := api.resolver.SubjectLocked(ctx.Request().Context(), child.ID, ctx.Param("subjectID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, UnlockStatusResponse{Unlocked: !locked})
}

type (
	PurchaseRequest struct {
		SubjectID     string  `json:"subject_id" validate:"required"`
		TransactionID string  `json:"transaction_id" validate:"required"`
		OrderID       string  `json:"order_id"`
		Amount        float64 `json:"amount" validate:"min=0"`
	}

	UnlockStatusResponse struct {
		Unlocked bool `json:"unlocked"`
	}
)

func (pr *PurchaseRequest) Validate(validate *validator.Validate) error {
	pr.SubjectID = core.CleanString(pr.SubjectID)
	pr.TransactionID = core.CleanString(pr.TransactionID)
	pr.OrderID = core.CleanString(pr.OrderID)
	return validate.Struct(pr)
}
