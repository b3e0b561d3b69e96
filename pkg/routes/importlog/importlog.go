package importlog

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/magnolia/internal/repositories/importlog"
	"github.com/Ramsey-B/magnolia/pkg/tracing"
)

var validate = validator.New()

// Register registers import log routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.GET("/latest", Latest)
	g.GET("/:id", Get)
}

type listQuery struct {
	DataModel string `query:"data_model"`
	Status    string `query:"status" validate:"omitempty,oneof=running finished failed"`
	Page      int    `query:"page"`
	PageSize  int    `query:"page_size"`
}

// List returns import logs, newest first, with optional filters
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "importlog_handler.List")
	defer span.End()

	var query listQuery
	if err := c.Bind(&query); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := validate.Struct(query); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*importlog.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	var dataModel, status *string
	if query.DataModel != "" {
		dataModel = &query.DataModel
	}
	if query.Status != "" {
		status = &query.Status
	}

	response, err := repo.List(ctx, dataModel, status, query.Page, query.PageSize)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, response)
}

// Latest returns the newest run per data model
func Latest(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "importlog_handler.Latest")
	defer span.End()

	ctx, repo, err := ectoinject.GetContext[*importlog.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	logs, err := repo.LatestPerDataModel(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, logs)
}

// Get returns one import log by id
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "importlog_handler.Get")
	defer span.End()

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*importlog.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	log, err := repo.Get(ctx, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, log)
}
