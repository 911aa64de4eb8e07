package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/autodrive/test-drive-portal/internal/model"
)

// BookingRepo persists test-drive booking requests.  Bookings are
// append-mostly: the portal only creates rows, sales staff flip the
// status.  No uniqueness is enforced on (showroom, date, time_slot);
// collisions are a product decision left to the back office.
type BookingRepo struct{ db *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a booking with PENDING status and returns the stored row
// including server-assigned id and timestamps.
func (r *BookingRepo) Create(ctx context.Context, b model.Booking) (model.Booking, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (ref, user_id, car_id, car_name, name, email, phone,
			showroom, date, time_slot, notes, status)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.Ref, b.UserID, b.CarID, b.CarName, b.Name, b.Email, b.Phone,
		b.Showroom, b.Date.Format("2006-01-02"), b.TimeSlot, b.Notes, model.BookingPending)
	if err != nil {
		return model.Booking{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Booking{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

const bookingSelect = `SELECT id, ref, user_id, car_id, car_name, name, email, phone,
		showroom, date, time_slot, notes, status, created_at, updated_at
	FROM bookings`

// GetByID fetches one booking row.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, bookingSelect+" WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Booking{}, ErrBookingNotFound
	}
	return b, err
}

// ListAll returns every booking, newest first (sales listing).
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, bookingSelect+" ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListByUser returns a client's own bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		bookingSelect+" WHERE user_id=? ORDER BY created_at DESC, id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CountByStatus returns booking totals grouped by status.
func (r *BookingRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM bookings GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

// CountByShowroom returns booking totals per showroom for the dashboard,
// so staff can spot days where the advisory-only slots have collided.
func (r *BookingRepo) CountByShowroom(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT showroom, COUNT(*) FROM bookings GROUP BY showroom")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var showroom string
		var n int64
		if err := rows.Scan(&showroom, &n); err != nil {
			return nil, err
		}
		out[showroom] = n
	}
	return out, rows.Err()
}

func scanBooking(row interface{ Scan(...any) error }) (model.Booking, error) {
	var (
		b     model.Booking
		notes sql.NullString
		date  time.Time
	)
	err := row.Scan(&b.ID, &b.Ref, &b.UserID, &b.CarID, &b.CarName, &b.Name,
		&b.Email, &b.Phone, &b.Showroom, &date, &b.TimeSlot, &notes,
		&b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	b.Date = date
	if notes.Valid {
		b.Notes = notes.String
	}
	return b, nil
}
