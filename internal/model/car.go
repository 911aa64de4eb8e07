package model

import "time"

// Vehicle classification values stored in cars.body_type.
const (
	BodySUV       = "SUV"
	BodyMPV       = "MPV"
	BodyHatchback = "Hatchback"
	BodySedan     = "Sedan"
	BodyCoupe     = "Coupe"
	BodyWagon     = "Wagon"
)

// Engine type values stored in cars.engine_type.
const (
	EngineBensin   = "Bensin"
	EngineHybrid   = "Hybrid"
	EngineElectric = "Electric"
)

// Car is a catalog item as stored in the `cars` table.  The slug is the
// external lookup key used by the portal: it is derived from the name and
// the numeric id at creation time and never changes afterwards, so links
// stay valid even when a car is renamed.
//
// Fields:
//  ID          – primary key identifier.
//  Slug        – unique URL key, slugify(name) + "-" + id.
//  Name        – model name (e.g. "Avanza G 1.5").
//  Brand       – manufacturer name.
//  Image       – primary image URL.
//  Images      – optional ordered additional image URLs (cars_images rows).
//  Description – free-form descriptive text.
//  Price       – price in rupiah (smallest currency unit, no decimals).
//  Showroom    – showroom location where the car is on display.
//  BodyType    – vehicle classification (see Body* constants).
//  EngineType  – combustion/hybrid/electric (see Engine* constants).
//  Capacity    – seating capacity.
//  Year        – model year.
//  SalesID     – assigned sales representative (users.id).
//  CreatedAt   – timestamp of creation.
//  UpdatedAt   – timestamp of last update.
type Car struct {
	ID          uint64    // cars.id
	Slug        string    // cars.slug
	Name        string    // cars.name
	Brand       string    // cars.brand
	Image       string    // cars.image
	Images      []string  // cars_images.url, ordered by position
	Description string    // cars.description
	Price       int64     // cars.price
	Showroom    string    // cars.showroom
	BodyType    string    // cars.body_type
	EngineType  string    // cars.engine_type
	Capacity    uint8     // cars.capacity
	Year        uint16    // cars.year
	SalesID     uint64    // cars.sales_id
	CreatedAt   time.Time // cars.created_at
	UpdatedAt   time.Time // cars.updated_at
}

// SalesContact is the subset of a sales representative's user record that
// is denormalized onto catalog responses so the portal can build the
// WhatsApp handoff without a second lookup.
type SalesContact struct {
	ID    uint64 // users.id
	Name  string // users.name
	Email string // users.email
	Phone string // users.phone
}
