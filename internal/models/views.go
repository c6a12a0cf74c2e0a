package models

// ItemView is an item merged with its comments and, in the owner view, its
// adjacent bookings.
type ItemView struct {
	Item
	LastBooking *Booking   `json:"last_booking,omitempty"`
	NextBooking *Booking   `json:"next_booking,omitempty"`
	Comments    []*Comment `json:"comments"`
}

// RequestView is a request with the items listed in response to it.
type RequestView struct {
	ItemRequest
	Items []*Item `json:"items"`
}
