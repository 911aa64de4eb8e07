package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/autodrive/test-drive-portal/internal/model"
	"github.com/autodrive/test-drive-portal/internal/queue"
	"github.com/autodrive/test-drive-portal/internal/repository"
	queue_publisher "github.com/autodrive/test-drive-portal/internal/service"
)

// BookingHandler owns the booking write path and the listing endpoints.
// All methods assume JWT authentication and role validation have already
// run; they may still return 401 if the user id cannot be extracted from
// the context.
type BookingHandler struct {
	Bookings *repository.BookingRepo
	Cars     *repository.CarRepo
}

func NewBookingHandler(bookings *repository.BookingRepo, cars *repository.CarRepo) *BookingHandler {
	if bookings == nil || cars == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: bookings, Cars: cars}
}

type createBookingReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	CarID    uint64 `json:"car_id"`
	CarName  string `json:"car_name"`
	Showroom string `json:"showroom"`
	Date     string `json:"date"` // YYYY-MM-DD
	TimeSlot string `json:"time"` // HH:MM, member of the fixed slot list
	Notes    string `json:"notes"`
}

// bookingResp mirrors a stored booking on the wire.
type bookingResp struct {
	ID        uint64    `json:"id"`
	Ref       string    `json:"ref"`
	CarID     uint64    `json:"car_id"`
	CarName   string    `json:"car_name"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Showroom  string    `json:"showroom"`
	Date      string    `json:"date"`
	TimeSlot  string    `json:"time"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toBookingResp(b model.Booking) bookingResp {
	return bookingResp{
		ID:        b.ID,
		Ref:       b.Ref,
		CarID:     b.CarID,
		CarName:   b.CarName,
		Name:      b.Name,
		Email:     b.Email,
		Phone:     b.Phone,
		Showroom:  b.Showroom,
		Date:      b.Date.Format("2006-01-02"),
		TimeSlot:  b.TimeSlot,
		Notes:     b.Notes,
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// CreateBooking handles POST /v1/bookings.  The portal validates drafts
// before submitting, but enumeration and date checks are repeated here:
// the server cannot trust an arbitrary client.  Slot collisions are not
// checked; double bookings are accepted and left to sales staff.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Email == "" || req.Phone == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/phone required"})
	}
	if req.CarID == 0 || strings.TrimSpace(req.CarName) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "car_id and car_name required"})
	}
	if !model.ValidShowroom(req.Showroom) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown showroom"})
	}
	if !model.ValidTimeSlot(req.TimeSlot) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown time slot"})
	}
	date, err := time.ParseInLocation("2006-01-02", req.Date, time.UTC)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, want YYYY-MM-DD"})
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if date.Before(today) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date must not be in the past"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	// The car must exist; its stored name wins over the client's copy so a
	// renamed car does not leak a stale name into notifications.
	cw, err := h.Cars.GetByID(ctx, req.CarID)
	if err != nil {
		if err == repository.ErrCarNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "car not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	carName := cw.Car.Name
	salesContact := cw.Sales

	stored, err := h.Bookings.Create(ctx, model.Booking{
		Ref:      uuid.NewString(),
		UserID:   userID,
		CarID:    req.CarID,
		CarName:  carName,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Showroom: req.Showroom,
		Date:     date,
		TimeSlot: req.TimeSlot,
		Notes:    strings.TrimSpace(req.Notes),
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}

	// Best-effort event for the notification log; a broker outage must not
	// fail a booking that is already persisted.
	_ = queue_publisher.PublishBookingCreated(ctx, queue.BookingCreatedEvent{
		BookingID:  stored.ID,
		Ref:        stored.Ref,
		UserID:     stored.UserID,
		CarID:      stored.CarID,
		CarName:    stored.CarName,
		Customer:   stored.Name,
		Phone:      stored.Phone,
		Showroom:   stored.Showroom,
		Date:       stored.Date.Format("2006-01-02"),
		TimeSlot:   stored.TimeSlot,
		SalesName:  salesContact.Name,
		SalesPhone: salesContact.Phone,
		CreatedAt:  stored.CreatedAt.UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusCreated, toBookingResp(stored))
}

// ListBookings handles GET /v1/bookings (SALES only): the full book of
// requests, newest first.
func (h *BookingHandler) ListBookings(c echo.Context) error {
	rows, err := h.Bookings.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]bookingResp, 0, len(rows))
	for _, b := range rows {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, out)
}

// MyBookings handles GET /v1/my-bookings: a client's own requests.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	rows, err := h.Bookings.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]bookingResp, 0, len(rows))
	for _, b := range rows {
		out = append(out, toBookingResp(b))
	}
	return c.JSON(http.StatusOK, out)
}
