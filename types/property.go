package types

import "time"

// Property represents a rental property shown in the public gallery.
type Property struct {
	// ID is the unique identifier of the property.
	ID int `json:"id" db:"id"`

	// Title is the display title of the property listing.
	Title string `json:"title" db:"title"`

	// Address is the property's street address.
	Address string `json:"address" db:"address"`

	// Images holds the object-storage keys of the property's images, in
	// display order.
	Images []string `json:"images" db:"images"`

	// CreatedAt is the timestamp when the listing was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the listing.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
