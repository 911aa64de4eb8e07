package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to the portal REST API.  It is a thin wire layer: every
// method performs exactly one request and maps the response onto the
// package error taxonomy.  Caching and identity concerns live in Catalog
// and Gate, which wrap this client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs an API client for the given base URL (e.g.
// "http://localhost:8080/v1").  The timeout covers the whole exchange;
// booking writes ride the same budget since there is no retry loop.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx response that did not map to a taxonomy sentinel.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// ----- wire types -----

// Sales is the public contact of a car's assigned representative.
type Sales struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Car is a catalog item as served by the API.
type Car struct {
	ID          uint64   `json:"id"`
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Image       string   `json:"image"`
	Images      []string `json:"images,omitempty"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Showroom    string   `json:"showroom"`
	BodyType    string   `json:"body_type"`
	EngineType  string   `json:"engine_type"`
	Capacity    uint8    `json:"capacity"`
	Year        uint16   `json:"year"`
	Sales       Sales    `json:"sales"`
}

// Booking is a persisted test-drive request.  Everything except the form
// fields is server-assigned.
type Booking struct {
	ID        uint64    `json:"id"`
	Ref       string    `json:"ref"`
	CarID     uint64    `json:"car_id"`
	CarName   string    `json:"car_name"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Showroom  string    `json:"showroom"`
	Date      string    `json:"date"` // YYYY-MM-DD
	TimeSlot  string    `json:"time"`
	Notes     string    `json:"notes,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type wireUser struct {
	ID    uint64 `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Role  string `json:"role"`
}

type wireToken struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authWire struct {
	User    wireUser  `json:"user"`
	Access  wireToken `json:"access"`
	Refresh wireToken `json:"refresh"`
}

type carListWire struct {
	Data []Car `json:"data"`
}

type carWire struct {
	Data Car `json:"data"`
}

// ----- operations -----

// ListCars fetches the catalog, optionally filtered by a search term.
func (c *Client) ListCars(ctx context.Context, search string) ([]Car, error) {
	path := "/mobil"
	if s := strings.TrimSpace(search); s != "" {
		path += "?search=" + url.QueryEscape(s)
	}
	var resp carListWire
	if err := c.doJSON(ctx, http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetCarBySlug fetches one car by its external key.  A 404 surfaces as
// ErrNotFound, never as a network error.
func (c *Client) GetCarBySlug(ctx context.Context, slug string) (Car, error) {
	var resp carWire
	err := c.doJSON(ctx, http.MethodGet, "/mobil/"+url.PathEscape(slug), "", nil, &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return Car{}, fmt.Errorf("car %q: %w", slug, ErrNotFound)
		}
		return Car{}, err
	}
	return resp.Data, nil
}

// Login exchanges credentials for an identity.  A 401 maps to
// ErrInvalidCredentials so callers can distinguish it from transport
// trouble.
func (c *Client) Login(ctx context.Context, email, password string) (Identity, error) {
	payload := map[string]string{"email": email, "password": password}
	var resp authWire
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "", payload, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return Identity{}, ErrInvalidCredentials
		}
		return Identity{}, err
	}
	return identityFromWire(resp), nil
}

// Register creates a CLIENT account and, like login, returns the
// established identity.  Server-side validation messages (duplicate
// email and friends) come back verbatim inside RegistrationError.
func (c *Client) Register(ctx context.Context, name, email, phone, password string) (Identity, error) {
	payload := map[string]string{
		"name":     name,
		"email":    email,
		"phone":    phone,
		"password": password,
		"role":     "CLIENT",
	}
	var resp authWire
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "", payload, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
			return Identity{}, &RegistrationError{Message: apiErr.Message}
		}
		return Identity{}, err
	}
	return identityFromWire(resp), nil
}

// CreateBooking performs the single booking write.  Anything the server
// rejects comes back as a BookingError with the server's reason.
func (c *Client) CreateBooking(ctx context.Context, token string, d Draft) (Booking, error) {
	payload := map[string]any{
		"name":     d.Name,
		"email":    d.Email,
		"phone":    d.Phone,
		"car_id":   d.CarID,
		"car_name": d.CarName,
		"showroom": d.Showroom,
		"date":     d.Date.Format("2006-01-02"),
		"time":     d.TimeSlot,
		"notes":    d.Notes,
	}
	var resp Booking
	if err := c.doJSON(ctx, http.MethodPost, "/bookings", token, payload, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusUnauthorized:
				return Booking{}, ErrUnauthenticated
			case http.StatusForbidden:
				return Booking{}, ErrForbidden
			default:
				return Booking{}, &BookingError{Reason: apiErr.Message}
			}
		}
		return Booking{}, err
	}
	return resp, nil
}

// ListBookings fetches all bookings (requires the SALES role).
func (c *Client) ListBookings(ctx context.Context, token string) ([]Booking, error) {
	var resp []Booking
	if err := c.doJSON(ctx, http.MethodGet, "/bookings", token, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.Status {
			case http.StatusUnauthorized:
				return nil, ErrUnauthenticated
			case http.StatusForbidden:
				return nil, ErrForbidden
			}
		}
		return nil, err
	}
	return resp, nil
}

// Refresh exchanges a refresh token for a new token pair.  The server
// rotates on every use, so the returned identity carries a new refresh
// token and the one passed in is dead afterwards.  A rejected token
// (revoked, expired, unknown) maps to ErrUnauthenticated: the session is
// over and the caller must log in again.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (Identity, error) {
	payload := map[string]string{"refresh_token": refreshToken}
	var resp authWire
	if err := c.doJSON(ctx, http.MethodPost, "/auth/refresh", "", payload, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest) {
			return Identity{}, ErrUnauthenticated
		}
		return Identity{}, err
	}
	return identityFromWire(resp), nil
}

// MyBookings fetches the bookings belonging to the authenticated user.
func (c *Client) MyBookings(ctx context.Context, token string) ([]Booking, error) {
	var resp []Booking
	if err := c.doJSON(ctx, http.MethodGet, "/my-bookings", token, nil, &resp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return resp, nil
}

// Logout notifies the server so the session's refresh token is revoked.
// Best-effort by contract: local teardown happens regardless.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

func identityFromWire(w authWire) Identity {
	return Identity{
		ID:           w.User.ID,
		Name:         w.User.Name,
		Email:        w.User.Email,
		Phone:        w.User.Phone,
		Role:         w.User.Role,
		Token:        w.Access.Token,
		TokenExpires: w.Access.Expires,
		Refresh:      w.Refresh.Token,
		Expires:      w.Refresh.Expires, // session lives as long as the refresh token (30-day cap)
	}
}

// doJSON performs one request/response cycle.  Transport failures wrap
// ErrNetwork; non-2xx statuses become *APIError for the callers above to
// translate.
func (c *Client) doJSON(ctx context.Context, method, path, token string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		msg := errResp.Error
		if msg == "" {
			msg = resp.Status
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrNetwork, err)
	}
	return nil
}
