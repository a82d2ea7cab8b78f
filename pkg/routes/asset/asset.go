package asset

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/compliance"
	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/graph"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/store"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var validate = validator.New()

// Register registers asset routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.GET("/:id", Get)
	g.PATCH("/:id", Update)
	g.GET("/:id/compliance", Compliance)
	g.POST("/:id/links", Link)
	g.DELETE("/:id/links/:target_id", Unlink)
	g.GET("/:id/requirements/:name/candidates", Candidates)
	g.GET("/:id/linked", Linked)
}

// List returns assets for the tenant with optional filters
func List(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "asset_handler.List")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	query := models.AssetQuery{}
	if ids := c.QueryParam("ids"); ids != "" {
		query.IDs = strings.Split(ids, ",")
	}
	if manufacturerID := c.QueryParam("manufacturer_id"); manufacturerID != "" {
		query.ManufacturerID = &manufacturerID
	}
	if assetType := c.QueryParam("asset_type"); assetType != "" {
		query.AssetType = &assetType
	}

	ctx, st, err := ectoinject.GetContext[store.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get store")
	}

	items, err := st.FetchAssets(ctx, tenantID, query)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to list assets")
	}

	page, pageSize, window := paginate(c, len(items))
	return c.JSON(http.StatusOK, models.AssetListResponse{
		Items:      items[window[0]:window[1]],
		TotalCount: len(items),
		Page:       page,
		PageSize:   pageSize,
	})
}

// Get returns a single asset by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "asset_handler.Get")
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

	result, err := st.RetrieveAsset(ctx, tenantID, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get asset")
	}
	if result == nil {
		return models.NewAssetNotFound(id)
	}

	return c.JSON(http.StatusOK, result)
}

// Update applies a partial update. Nil fields are left unchanged.
func Update(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "asset_handler.Update")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	var req models.UpdateAssetRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, st, err := ectoinject.GetContext[store.Store](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get store")
	}

	result, err := st.UpdateAsset(ctx, tenantID, id, req)
	if err != nil {
		return err
	}
	if result == nil {
		return models.NewAssetNotFound(id)
	}

	return c.JSON(http.StatusOK, result)
}

// Compliance evaluates the asset's relationship requirements against its
// current links
func Compliance(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "asset_handler.Compliance")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	ctx, engine, err := ectoinject.GetContext[*compliance.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get compliance engine")
	}

	report, err := engine.Evaluate(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}

// Link links a target asset to this asset for one requirement type
func Link(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "asset_handler.Link")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	var req models.LinkRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, engine, err := ectoinject.GetContext[*compliance.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get compliance engine")
	}

	result, err := engine.Link(ctx, tenantID, id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Unlink removes every link to a target asset. Removing an absent link is a
// no-op success.
func Unlink(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "asset_handler.Unlink")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")
	targetID := c.Param("target_id")

	ctx, engine, err := ectoinject.GetContext[*compliance.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get compliance engine")
	}

	result, err := engine.Unlink(ctx, tenantID, id, targetID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Candidates returns assets that could satisfy the named requirement
func Candidates(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "asset_handler.Candidates")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")
	name := c.Param("name")

	ctx, engine, err := ectoinject.GetContext[*compliance.Engine](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get compliance engine")
	}

	candidates, err := engine.FindCandidates(ctx, tenantID, id, name)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"asset_id":    id,
		"requirement": name,
		"candidates":  candidates,
	})
}

// Linked returns the asset's neighbors from the graph projection
func Linked(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "asset_handler.Linked")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}
	id := c.Param("id")

	ctx, links, err := ectoinject.GetContext[*graph.LinkService](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get link service")
	}

	nodes, err := links.GetLinkedAssets(ctx, tenantID, id)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to read linked assets")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"asset_id": id,
		"linked":   nodes,
	})
}

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
