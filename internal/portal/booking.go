package portal

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/autodrive/test-drive-portal/internal/model"
)

// Draft is a booking form in progress.  The ID exists only client-side
// and is what the in-flight guard keys on; the server assigns its own
// reference on success.
type Draft struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	CarID    uint64
	CarName  string
	Showroom string
	Date     time.Time
	TimeSlot string
	Notes    string
}

// NewDraft starts a form for the given car.
func NewDraft(car Car) Draft {
	return Draft{
		ID:      uuid.NewString(),
		CarID:   car.ID,
		CarName: car.Name,
	}
}

var emailShape = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Validate checks a draft against the form rules.  It returns nil when
// the draft is submittable; otherwise every failing field is reported at
// once so the form can highlight them together.
func Validate(d Draft, now time.Time) *ValidationError {
	ve := &ValidationError{}

	if len(strings.TrimSpace(d.Name)) < 3 {
		ve.add("name", "nama minimal 3 karakter")
	}
	if !emailShape.MatchString(d.Email) {
		ve.add("email", "format email tidak valid")
	}
	if digitCount(d.Phone) < 10 {
		ve.add("phone", "nomor telepon minimal 10 digit")
	}
	if d.CarID == 0 {
		ve.add("car", "mobil wajib dipilih")
	}
	if !model.ValidShowroom(d.Showroom) {
		ve.add("showroom", "showroom tidak tersedia")
	}
	if !model.ValidTimeSlot(d.TimeSlot) {
		ve.add("time", "jam test drive tidak tersedia")
	}
	today := now.UTC().Truncate(24 * time.Hour)
	if d.Date.IsZero() || d.Date.UTC().Truncate(24*time.Hour).Before(today) {
		ve.add("date", "tanggal harus hari ini atau setelahnya")
	}

	if len(ve.Fields) == 0 {
		return nil
	}
	return ve
}

func digitCount(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// Flow drives a booking from validated draft to confirmed record.  Its
// two jobs beyond the write itself: never let the same draft hit the
// wire twice concurrently, and when the user is anonymous, park the
// draft so it can be replayed exactly once after login.
type Flow struct {
	gate *Gate
	api  *Client

	mu       sync.Mutex
	inFlight map[string]bool
	pending  *Draft
}

// NewFlow wires the submission flow to the identity gate.
func NewFlow(gate *Gate, api *Client) *Flow {
	return &Flow{
		gate:     gate,
		api:      api,
		inFlight: make(map[string]bool),
	}
}

// Submit validates the draft and performs the booking write.  With no
// active session the validated draft is parked and ErrUnauthenticated
// returned; the caller should send the user to login and then call
// ResumeAfterLogin.  Validation failures never reach the network.
func (f *Flow) Submit(ctx context.Context, d Draft) (Booking, error) {
	if ve := Validate(d, time.Now()); ve != nil {
		return Booking{}, ve
	}

	id, err := f.gate.Fresh(ctx)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			f.mu.Lock()
			f.pending = &d
			f.mu.Unlock()
			return Booking{}, ErrUnauthenticated
		}
		return Booking{}, err
	}

	return f.submit(ctx, id, d)
}

// ResumeAfterLogin replays the parked draft, if any, against the
// now-established session.  The draft is consumed before the write
// starts, so a second call never replays it again even if the first
// attempt failed.  The bool reports whether there was anything to
// resume.
func (f *Flow) ResumeAfterLogin(ctx context.Context) (Booking, bool, error) {
	f.mu.Lock()
	d := f.pending
	f.pending = nil
	f.mu.Unlock()
	if d == nil {
		return Booking{}, false, nil
	}

	id, err := f.gate.Fresh(ctx)
	if err != nil {
		return Booking{}, true, err
	}
	b, err := f.submit(ctx, id, *d)
	return b, true, err
}

func (f *Flow) submit(ctx context.Context, id Identity, d Draft) (Booking, error) {
	f.mu.Lock()
	if f.inFlight[d.ID] {
		f.mu.Unlock()
		return Booking{}, ErrSubmitInFlight
	}
	f.inFlight[d.ID] = true
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		delete(f.inFlight, d.ID)
		f.mu.Unlock()
	}()

	return f.api.CreateBooking(ctx, id.Token, d)
}

var indonesianMonths = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// WhatsAppLink builds the handoff URL for a confirmed booking.  The link
// is only ever built after the server accepted the booking; a car whose
// sales contact has no phone number yields ErrMissingSalesContact.
func WhatsAppLink(b Booking, salesPhone string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, salesPhone)
	if digits == "" {
		return "", ErrMissingSalesContact
	}

	date, err := time.Parse("2006-01-02", b.Date)
	if err != nil {
		return "", fmt.Errorf("booking date %q: %w", b.Date, err)
	}
	when := fmt.Sprintf("%d %s %d", date.Day(), indonesianMonths[date.Month()-1], date.Year())

	msg := fmt.Sprintf(
		"Halo, saya %s sudah booking test drive %s pada %s pukul %s (ref %s). Mohon konfirmasinya, ya!",
		b.Name, b.CarName, when, b.TimeSlot, b.Ref,
	)
	// QueryEscape encodes spaces as '+', which WhatsApp renders literally.
	encoded := strings.ReplaceAll(url.QueryEscape(msg), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + encoded, nil
}
