package database

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/models"
)

const bookingSelect = `SELECT b.id, b.item_id, i.name, i.owner_id, b.booker_id, b.start_time, b.end_time,
	b.status, b.version, b.created_at, b.updated_at
	FROM bookings b JOIN items i ON i.id = b.item_id`

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	now := utc(time.Now())
	booking.Start = utc(booking.Start)
	booking.End = utc(booking.End)
	id, err := db.insert(ctx,
		`INSERT INTO bookings (item_id, booker_id, start_time, end_time, status, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ItemID, booking.BookerID, booking.Start, booking.End, string(booking.Status), 1, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	booking.ID = id
	booking.Version = 1
	booking.CreatedAt = now
	booking.UpdatedAt = now
	return nil
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	row := db.queryRow(ctx, bookingSelect+` WHERE b.id = ?`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return nil, notFound(err, "booking %d not found", id)
	}
	return booking, nil
}

// UpdateBookingStatusWithVersion moves the booking to status only if its
// version is still the one the caller read.
func (db *DB) UpdateBookingStatusWithVersion(ctx context.Context, id, version int64, status models.BookingStatus) error {
	res, err := db.exec(ctx,
		`UPDATE bookings SET status = ?, version = version + 1, updated_at = ? WHERE id = ? AND version = ?`,
		string(status), utc(time.Now()), id, version,
	)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (db *DB) GetBookingsByBooker(ctx context.Context, bookerID int64) ([]*models.Booking, error) {
	return db.queryBookings(ctx, bookingSelect+` WHERE b.booker_id = ? ORDER BY b.start_time DESC, b.id DESC`, bookerID)
}

func (db *DB) GetBookingsByOwner(ctx context.Context, ownerID int64) ([]*models.Booking, error) {
	return db.queryBookings(ctx, bookingSelect+` WHERE i.owner_id = ? ORDER BY b.start_time DESC, b.id DESC`, ownerID)
}

func (db *DB) GetBookingsByItemIDs(ctx context.Context, itemIDs []int64) ([]*models.Booking, error) {
	if len(itemIDs) == 0 {
		return []*models.Booking{}, nil
	}
	in, args := inClause(itemIDs)
	return db.queryBookings(ctx, bookingSelect+` WHERE b.item_id IN (`+in+`) ORDER BY b.start_time, b.id`, args...)
}

// HasApprovedOverlap reports whether an APPROVED booking of the item
// intersects [start, end).
func (db *DB) HasApprovedOverlap(ctx context.Context, itemID int64, start, end time.Time) (bool, error) {
	var n int
	err := db.queryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE item_id = ? AND status = ? AND start_time < ? AND end_time > ?`,
		itemID, string(models.StatusApproved), utc(end), utc(start),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check booking overlap: %w", err)
	}
	return n > 0, nil
}

// HasFinishedBooking reports whether the user holds a booking of the item that
// ended before now.
func (db *DB) HasFinishedBooking(ctx context.Context, bookerID, itemID int64, now time.Time) (bool, error) {
	var n int
	err := db.queryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE booker_id = ? AND item_id = ? AND end_time < ?`,
		bookerID, itemID, utc(now),
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check finished bookings: %w", err)
	}
	return n > 0, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...any) ([]*models.Booking, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	bookings := []*models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func scanBooking(s scanner) (*models.Booking, error) {
	var (
		b      models.Booking
		status string
	)
	err := s.Scan(&b.ID, &b.ItemID, &b.ItemName, &b.OwnerID, &b.BookerID, &b.Start, &b.End,
		&status, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = models.BookingStatus(status)
	return &b, nil
}
