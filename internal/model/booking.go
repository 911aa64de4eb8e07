package model

import "time"

// Booking status values stored in bookings.status.  Every booking starts
// PENDING; sales staff move it to CONFIRMED or CANCELLED from the back
// office.  The portal never mutates a booking after creation.
const (
	BookingPending   = "PENDING"
	BookingConfirmed = "CONFIRMED"
	BookingCancelled = "CANCELLED"
)

// Showrooms is the fixed list of service locations a test drive can be
// booked at.  Both the portal form and the server reject anything else.
var Showrooms = []string{
	"Jakarta Selatan",
	"Jakarta Utara",
	"Jakarta Barat",
	"Jakarta Timur",
	"Jakarta Pusat",
	"Tangerang",
	"Bekasi",
	"Depok",
	"Bogor",
}

// TimeSlots is the fixed list of bookable slots.  No 12:00 slot: showrooms
// close over lunch.
var TimeSlots = []string{
	"09:00", "10:00", "11:00", "13:00", "14:00", "15:00", "16:00",
}

// ValidShowroom reports membership in the Showrooms list.
func ValidShowroom(s string) bool {
	for _, v := range Showrooms {
		if v == s {
			return true
		}
	}
	return false
}

// ValidTimeSlot reports membership in the TimeSlots list.
func ValidTimeSlot(s string) bool {
	for _, v := range TimeSlots {
		if v == s {
			return true
		}
	}
	return false
}

// Booking records a test-drive appointment request in the `bookings`
// table.  The car name is denormalized so listings and notifications do
// not need a join back to the catalog.  Date and time slot are advisory:
// the system intentionally does not enforce slot uniqueness, so two
// clients may book the same showroom/date/time and sales staff resolve
// the collision by phone.
//
// Fields:
//  ID        – primary key identifier.
//  Ref       – opaque public reference code (UUID) shared with the client.
//  UserID    – authenticated user who submitted the request.
//  CarID     – car being test-driven.
//  CarName   – denormalized car name at submission time.
//  Name      – requester display name as entered on the form.
//  Email     – requester email.
//  Phone     – requester phone.
//  Showroom  – chosen service location (one of the fixed showroom list).
//  Date      – requested date (stored as DATE, midnight UTC).
//  TimeSlot  – requested slot, "HH:MM" (one of the fixed slot list).
//  Notes     – optional free-text note.
//  Status    – PENDING, CONFIRMED or CANCELLED.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Booking struct {
	ID        uint64    // bookings.id
	Ref       string    // bookings.ref
	UserID    uint64    // bookings.user_id
	CarID     uint64    // bookings.car_id
	CarName   string    // bookings.car_name
	Name      string    // bookings.name
	Email     string    // bookings.email
	Phone     string    // bookings.phone
	Showroom  string    // bookings.showroom
	Date      time.Time // bookings.date
	TimeSlot  string    // bookings.time_slot
	Notes     string    // bookings.notes
	Status    string    // bookings.status
	CreatedAt time.Time // bookings.created_at
	UpdatedAt time.Time // bookings.updated_at
}
