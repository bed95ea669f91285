package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coursework/core"
	"github.com/trezcool/coursework/core/assignment"
)

type assignmentAPI struct {
	service *assignment.Service
}

func registerAssignmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *assignment.Service) {
	api := assignmentAPI{service: svc}
	grp := g.Group("/assignments", jwt)
	grp.GET("", api.query)
	grp.POST("", api.create)
	grp.PUT("/:id", api.update)
	grp.PUT("/:id/status", api.changeStatus)
	grp.DELETE("/:id", api.delete)
}

func (api *assignmentAPI) query(ctx echo.Context) error {
	sess, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	status, ok := assignment.ParseStatus(ctx.QueryParam("status"))
	if !ok {
		return core.NewValidationError(
			errors.New("invalid status"),
			core.FieldError{Field: "status", Error: "status must be one of DRAFT, PUBLISHED or COMPLETED"},
		)
	}
	list, err := api.service.Query(ctx.Request().Context(), sess, status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *assignmentAPI) create(ctx echo.Context) error {
	sess, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	f, err := bindAssignmentFields(ctx)
	if err != nil {
		return err
	}
	a, err := api.service.Create(ctx.Request().Context(), sess, f)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *assignmentAPI) update(ctx echo.Context) error {
	sess, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	f, err := bindAssignmentFields(ctx)
	if err != nil {
		return err
	}
	a, err := api.service.Update(ctx.Request().Context(), sess, ctx.Param("id"), f)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentAPI) changeStatus(ctx echo.Context) error {
	sess, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	status, err := bindAssignmentStatus(ctx)
	if err != nil {
		return err
	}
	a, err := api.service.ChangeStatus(ctx.Request().Context(), sess, ctx.Param("id"), status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, a)
}

func (api *assignmentAPI) delete(ctx echo.Context) error {
	sess, err := contextIdentity(ctx)
	if err != nil {
		return err
	}
	if err = api.service.Delete(ctx.Request().Context(), sess, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
