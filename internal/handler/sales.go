package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/autodrive/test-drive-portal/internal/model"
	"github.com/autodrive/test-drive-portal/internal/repository"
	"github.com/autodrive/test-drive-portal/internal/utils"
)

// SalesHandler groups the back-office endpoints behind the SALES role:
// dashboard statistics and inventory writes.
type SalesHandler struct {
	Cars     *repository.CarRepo
	Bookings *repository.BookingRepo
}

func NewSalesHandler(cars *repository.CarRepo, bookings *repository.BookingRepo) *SalesHandler {
	if cars == nil || bookings == nil {
		panic("nil repository passed to NewSalesHandler")
	}
	return &SalesHandler{Cars: cars, Bookings: bookings}
}

// Dashboard handles GET /v1/sales/dashboard.  Per-showroom counts are
// included so staff can eyeball overloaded locations: slots are advisory
// and collisions only surface here.
func (h *SalesHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()

	totalCars, err := h.Cars.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	byStatus, err := h.Bookings.CountByStatus(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	byShowroom, err := h.Bookings.CountByShowroom(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	var totalBookings int64
	for _, n := range byStatus {
		totalBookings += n
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_cars":           totalCars,
		"total_bookings":       totalBookings,
		"pending_bookings":     byStatus[model.BookingPending],
		"confirmed_bookings":   byStatus[model.BookingConfirmed],
		"cancelled_bookings":   byStatus[model.BookingCancelled],
		"bookings_by_showroom": byShowroom,
	})
}

type createCarReq struct {
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Showroom    string   `json:"showroom"`
	BodyType    string   `json:"body_type"`
	EngineType  string   `json:"engine_type"`
	Capacity    uint8    `json:"capacity"`
	Year        uint16   `json:"year"`
}

// CreateCar handles POST /v1/sales/mobil.  The authenticated sales user
// becomes the car's assigned representative.  The slug is derived server
// side; clients never pick their own.
func (h *SalesHandler) CreateCar(c echo.Context) error {
	salesID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createCarReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Brand = strings.TrimSpace(req.Brand)
	if req.Name == "" || req.Brand == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and brand required"})
	}
	if req.Price <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be positive"})
	}
	if !model.ValidShowroom(req.Showroom) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown showroom"})
	}
	switch req.BodyType {
	case model.BodySUV, model.BodyMPV, model.BodyHatchback, model.BodySedan, model.BodyCoupe, model.BodyWagon:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown body type"})
	}
	switch req.EngineType {
	case model.EngineBensin, model.EngineHybrid, model.EngineElectric:
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown engine type"})
	}

	id, slug, err := h.Cars.Create(c.Request().Context(), model.Car{
		Name:        req.Name,
		Brand:       req.Brand,
		Image:       req.Image,
		Images:      req.Images,
		Description: req.Description,
		Price:       req.Price,
		Showroom:    req.Showroom,
		BodyType:    req.BodyType,
		EngineType:  req.EngineType,
		Capacity:    req.Capacity,
		Year:        req.Year,
		SalesID:     salesID,
	}, utils.CarSlug)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create car failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "slug": slug})
}
