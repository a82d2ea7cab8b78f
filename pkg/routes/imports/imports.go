package imports

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	fernctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/ingestion"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Register registers import routes
func Register(g *echo.Group) {
	g.POST("/assets", ImportAsset)
	g.POST("/products", ImportProduct)
}

// ImportAsset ingests one asset record, resolving or creating its
// manufacturer in the same transaction
func ImportAsset(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "imports_handler.ImportAsset")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var rec models.AssetImportRecord
	if err := c.Bind(&rec); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*ingestion.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get ingestion service")
	}

	result, err := svc.IngestAsset(ctx, tenantID, rec)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// ImportProduct ingests one product record
func ImportProduct(c echo.Context) error {
	ctx := c.Request().Context()
	ctx, span := tracing.StartSpan(ctx, "imports_handler.ImportProduct")
	defer span.End()

	tenantID := fernctx.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var rec models.ProductImportRecord
	if err := c.Bind(&rec); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*ingestion.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get ingestion service")
	}

	result, err := svc.IngestProduct(ctx, tenantID, rec)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}
