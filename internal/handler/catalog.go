package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/tranqv/restaurant-pos/internal/model"
	"github.com/tranqv/restaurant-pos/internal/repository"
)

// CatalogHandler serves the read-only product catalog.  These routes
// sit behind the response cache middleware: menus change rarely and
// ordering clients poll them aggressively.
type CatalogHandler struct {
	Products *repository.ProductRepo
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(products *repository.ProductRepo) *CatalogHandler {
	if products == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Products: products}
}

func productJSON(p model.Product) echo.Map {
	return echo.Map{
		"id":               p.ID,
		"name":             p.Name,
		"price":            p.Price,
		"large_size_price": p.LargePrice(),
		"description":      p.Description,
		"note":             p.Note,
		"is_available":     p.IsAvailable,
		"has_large_size":   p.HasLargeSize,
	}
}

// List handles GET /v1/products.  Pass ?available=true to hide
// products that cannot currently be ordered.
func (h *CatalogHandler) List(c echo.Context) error {
	products, err := h.Products.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	onlyAvailable := c.QueryParam("available") == "true"
	out := make([]echo.Map, 0, len(products))
	for _, p := range products {
		if onlyAvailable && !p.IsAvailable {
			continue
		}
		out = append(out, productJSON(p))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /v1/products/:id.
func (h *CatalogHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid product id"})
	}
	p, err := h.Products.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, productJSON(*p))
}
