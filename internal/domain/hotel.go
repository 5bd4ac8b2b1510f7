package domain

import "fmt"

// Hotel is a row of the hotels table. ID is zero until the hotel is
// persisted and is reset to zero once it is deleted.
type Hotel struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

func (h *Hotel) GetName() string { return h.Name }

// Persisted reports whether h is backed by a stored row.
func (h *Hotel) Persisted() bool { return h.ID != 0 }

func (h *Hotel) String() string {
	return fmt.Sprintf("<Hotel %d: %s @%s>", h.ID, h.Name, h.Location)
}

// ValidateHotel checks the attributes a hotel must always carry.
func ValidateHotel(name, location string) error {
	if name == "" {
		return &ValidationError{Entity: "hotel", Field: "name", Reason: "must be a non-empty string"}
	}
	if location == "" {
		return &ValidationError{Entity: "hotel", Field: "location", Reason: "must be a non-empty string"}
	}
	return nil
}
