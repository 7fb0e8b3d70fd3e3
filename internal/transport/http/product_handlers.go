package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tramcham/tramcham-server/internal/catalog"
)

// ProductHandlers provides HTTP handlers for the product catalog.
type ProductHandlers struct {
	catalog *catalog.Catalog
	log     *zerolog.Logger
}

// NewProductHandlers creates a new product handlers instance.
func NewProductHandlers(c *catalog.Catalog, logger *zerolog.Logger) *ProductHandlers {
	return &ProductHandlers{
		catalog: c,
		log:     logger,
	}
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl"`
}

func toProductResponse(p catalog.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
}

// ListProducts handles listing the catalog.
// GET /api/products
func (h *ProductHandlers) ListProducts(c *gin.Context) {
	products := h.catalog.All()
	response := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		response = append(response, toProductResponse(p))
	}
	c.JSON(http.StatusOK, response)
}

// GetProduct handles a single product lookup.
// GET /api/products/:id
func (h *ProductHandlers) GetProduct(c *gin.Context) {
	p, err := h.catalog.Get(c.Param("id"))
	if err != nil {
		h.log.Debug().Str("product_id", c.Param("id")).Msg("product not found")
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "product not found", Code: "not_found"})
		return
	}
	c.JSON(http.StatusOK, toProductResponse(p))
}
