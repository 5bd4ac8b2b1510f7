package domain

import "fmt"

// Guest is a row of the guests table. HotelID must always name an
// existing hotel; that part is checked by the repository because it needs
// storage.
type Guest struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	HotelID int64  `json:"hotel_id"`
}

func (g *Guest) GetName() string { return g.Name }

func (g *Guest) Persisted() bool { return g.ID != 0 }

func (g *Guest) String() string {
	return fmt.Sprintf("<Guest %d: %s> -- hotel %d", g.ID, g.Name, g.HotelID)
}

// ValidateGuest runs the storage-free checks on a guest's attributes.
func ValidateGuest(name string, hotelID int64) error {
	if name == "" {
		return &ValidationError{Entity: "guest", Field: "name", Reason: "must be a non-empty string"}
	}
	if hotelID <= 0 {
		return &ValidationError{Entity: "guest", Field: "hotel_id", Reason: "must reference a hotel in the database"}
	}
	return nil
}

// DanglingHotel is the error for a hotel_id that passed ValidateGuest but
// matches no stored hotel.
func DanglingHotel(hotelID int64) error {
	return &ValidationError{
		Entity: "guest",
		Field:  "hotel_id",
		Reason: fmt.Sprintf("hotel %d does not exist; create the hotel first", hotelID),
	}
}
