// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingCreatedEvent is published when a test-drive booking is persisted.
// It carries enough context for downstream consumers to log or notify the
// assigned sales representative without querying the primary database.
type BookingCreatedEvent struct {
	BookingID  uint64 `json:"booking_id"`
	Ref        string `json:"ref"`
	UserID     uint64 `json:"user_id"`
	CarID      uint64 `json:"car_id"`
	CarName    string `json:"car_name"`
	Customer   string `json:"customer"`
	Phone      string `json:"phone"`
	Showroom   string `json:"showroom"`
	Date       string `json:"date"`
	TimeSlot   string `json:"time"`
	SalesName  string `json:"sales_name"`
	SalesPhone string `json:"sales_phone"`
	CreatedAt  string `json:"created_at"`
}
