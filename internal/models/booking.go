package models

import (
	"fmt"
	"strings"
	"time"
)

type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
)

// Terminal reports whether no further transition is allowed.
func (s BookingStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Booking struct {
	ID        int64         `json:"id"`
	ItemID    int64         `json:"item_id"`
	ItemName  string        `json:"item_name"`
	OwnerID   int64         `json:"owner_id"`
	BookerID  int64         `json:"booker_id"`
	Start     time.Time     `json:"start"`
	End       time.Time     `json:"end"`
	Status    BookingStatus `json:"status"`
	Version   int64         `json:"version"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// BookingState is a retrieval filter over bookings. APPROVED is a status,
// not a filter.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// ParseBookingState accepts the filter name in any case. Blank means ALL.
func ParseBookingState(raw string) (BookingState, error) {
	s := BookingState(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case "":
		return StateAll, nil
	case StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected:
		return s, nil
	default:
		return "", fmt.Errorf("unknown state: %s", raw)
	}
}

// Matches classifies b against the filter at instant now. Boundaries are
// strict: a booking starting or ending exactly at now is neither CURRENT,
// PAST nor FUTURE on that side.
func (s BookingState) Matches(b *Booking, now time.Time) bool {
	switch s {
	case StateAll:
		return true
	case StateCurrent:
		return b.Start.Before(now) && b.End.After(now)
	case StatePast:
		return b.End.Before(now)
	case StateFuture:
		return b.Start.After(now)
	case StateWaiting:
		return b.Status == StatusWaiting
	case StateRejected:
		return b.Status == StatusRejected
	default:
		return false
	}
}

// FilterBookings keeps the bookings matching state, preserving order.
func FilterBookings(bookings []*Booking, state BookingState, now time.Time) []*Booking {
	out := make([]*Booking, 0, len(bookings))
	for _, b := range bookings {
		if state.Matches(b, now) {
			out = append(out, b)
		}
	}
	return out
}

// AdjacentBookings picks, among one item's bookings, the latest-ending one
// that already ended (last) and the earliest-starting one that has not
// started yet (next). Either may be nil.
func AdjacentBookings(bookings []*Booking, now time.Time) (last, next *Booking) {
	for _, b := range bookings {
		if b.End.Before(now) && (last == nil || b.End.After(last.End)) {
			last = b
		}
		if b.Start.After(now) && (next == nil || b.Start.Before(next.Start)) {
			next = b
		}
	}
	return last, next
}
