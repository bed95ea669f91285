package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/submission"
)

type submissionAPI struct {
	service *submission.Service
}

func registerSubmissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *submission.Service) {
	api := submissionAPI{service: svc}
	grp := g.Group("/submissions", jwt)
	grp.GET("/:assignmentId", api.list)
	grp.POST("", api.create)
	grp.PUT("/:id/status", api.setStatus)
	grp.PUT("/:id/review", api.markReviewed)
}

func (api *submissionAPI) list(ctx echo.Context) error {
	sess, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	subs, err := api.service.List(ctx.Request().Context(), sess, ctx.Param("assignmentId"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionAPI) create(ctx echo.Context) error {
	sess, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	var p submissionPayload
	if err = ctx.Bind(&p); err != nil {
		return err
	}
	sub, err := api.service.Submit(ctx.Request().Context(), sess, p.AssignmentID, p.Answer)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionAPI) setStatus(ctx echo.Context) error {
	sess, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	status, err := bindSubmissionStatus(ctx)
	if err != nil {
		return err
	}
	if status != submission.StatusRedoRequested {
		return core.NewValidationError(
			errors.New("invalid status"),
			core.FieldError{Field: "status", Error: "status must be " + string(submission.StatusRedoRequested)},
		)
	}
	sub, err := api.service.RequestRedo(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionAPI) markReviewed(ctx echo.Context) error {
	sess, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	sub, err := api.service.MarkReviewed(ctx.Request().Context(), sess, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}
