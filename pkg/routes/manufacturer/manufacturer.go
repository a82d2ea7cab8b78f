package manufacturer

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Register registers manufacturer routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.GET("/:id", Get)
	g.PATCH("/:id", Update)
}

// List returns manufacturers for the tenant, optionally filtered by exact
// name or slug
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "manufacturer_handler.List")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	query := models.ManufacturerQuery{}
	if name := c.QueryParam("name"); name != "" {
		query.Name = &name
	}
	if slug := c.QueryParam("slug"); slug != "" {
		query.Slug = &slug
	}

	ctx, st, err := ectoinject.GetContext[store.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get store")
	}

	items, err := st.FetchManufacturers(ctx, tenantID, query)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list manufacturers")
	}

	page, pageSize, window := paginate(c, len(items))
	return c.JSON(http.StatusOK, models.ManufacturerListResponse{
		Items:      items[window[0]:window[1]],
		TotalCount: len(items),
		Page:       page,
		PageSize:   pageSize,
	})
}

// Get returns a single manufacturer by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "manufacturer_handler.Get")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	ctx, st, err := ectoinject.GetContext[store.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get store")
	}

	result, err := st.RetrieveManufacturer(ctx, tenantID, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get manufacturer")
	}
	if result == nil {
		return models.NewManufacturerNotFound(id)
	}

	return c.JSON(http.StatusOK, result)
}

// Update applies a partial update. Nil fields are left unchanged.
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "manufacturer_handler.Update")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	var req models.UpdateManufacturerRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, st, err := ectoinject.GetContext[store.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get store")
	}

	result, err := st.UpdateManufacturer(ctx, tenantID, id, req)
	if err != nil {
		return err
	}
	if result == nil {
		return models.NewManufacturerNotFound(id)
	}

	return c.JSON(http.StatusOK, result)
}

// paginate reads page/page_size query params and clamps a window onto a
// slice of the given length
func paginate(c echo.Context, total int) (int, int, [2]int) {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return page, pageSize, [2]int{start, end}
}
