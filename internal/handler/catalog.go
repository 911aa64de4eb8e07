// This file defines handlers for the public catalog API.  These routes let
// unauthenticated visitors browse cars; responses carry the assigned sales
// representative's public contact so the portal can hand a booking off to
// WhatsApp without a second lookup, but never internal fields such as
// password hashes or account status.
package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/autodrive/test-drive-portal/internal/repository"
)

// CatalogHandler serves the public car listing and detail endpoints.
type CatalogHandler struct {
	Cars *repository.CarRepo
}

func NewCatalogHandler(cars *repository.CarRepo) *CatalogHandler {
	if cars == nil {
		panic("nil repository passed to NewCatalogHandler")
	}
	return &CatalogHandler{Cars: cars}
}

// PublicSales is the sanitized sales contact embedded in car responses.
type PublicSales struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// PublicCar is a catalog item as exposed to the portal.  Field names match
// the wire format the portal client binds to.
type PublicCar struct {
	ID          uint64      `json:"id"`
	Slug        string      `json:"slug"`
	Name        string      `json:"name"`
	Brand       string      `json:"brand"`
	Image       string      `json:"image"`
	Images      []string    `json:"images,omitempty"`
	Description string      `json:"description"`
	Price       int64       `json:"price"`
	Showroom    string      `json:"showroom"`
	BodyType    string      `json:"body_type"`
	EngineType  string      `json:"engine_type"`
	Capacity    uint8       `json:"capacity"`
	Year        uint16      `json:"year"`
	Sales       PublicSales `json:"sales"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func toPublicCar(cw repository.CarWithSales) PublicCar {
	return PublicCar{
		ID:          cw.Car.ID,
		Slug:        cw.Car.Slug,
		Name:        cw.Car.Name,
		Brand:       cw.Car.Brand,
		Image:       cw.Car.Image,
		Images:      cw.Car.Images,
		Description: cw.Car.Description,
		Price:       cw.Car.Price,
		Showroom:    cw.Car.Showroom,
		BodyType:    cw.Car.BodyType,
		EngineType:  cw.Car.EngineType,
		Capacity:    cw.Car.Capacity,
		Year:        cw.Car.Year,
		Sales: PublicSales{
			ID:    cw.Sales.ID,
			Name:  cw.Sales.Name,
			Email: cw.Sales.Email,
			Phone: cw.Sales.Phone,
		},
		CreatedAt: cw.Car.CreatedAt,
		UpdatedAt: cw.Car.UpdatedAt,
	}
}

// ListCars handles GET /v1/mobil?search=.  The response wraps the list in
// a "data" envelope, the shape the portal client expects.
func (h *CatalogHandler) ListCars(c echo.Context) error {
	rows, err := h.Cars.Search(c.Request().Context(), c.QueryParam("search"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicCar, 0, len(rows))
	for _, cw := range rows {
		out = append(out, toPublicCar(cw))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// GetCarBySlug handles GET /v1/mobil/:slug.  The slug, not the numeric id,
// is the external lookup key.
func (h *CatalogHandler) GetCarBySlug(c echo.Context) error {
	cw, err := h.Cars.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		if err == repository.ErrCarNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"data": toPublicCar(cw)})
}
