package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"shareit/internal/domain"
	"shareit/internal/export"
	"shareit/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	booker, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var body bookingRequest
	if err := decodeJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	in, err := s.validateBooking(body)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	booking, err := s.svc.Bookings.CreateBooking(r.Context(), booker, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(booking))
}

// validateBooking applies the structural checks on a reservation request:
// all fields present, start not in the past and end after start.
func (s *HTTPServer) validateBooking(body bookingRequest) (service.NewBooking, error) {
	switch {
	case body.ItemID == nil:
		return service.NewBooking{}, domain.Validation("itemId is required")
	case body.Start == nil:
		return service.NewBooking{}, domain.Validation("start is required")
	case body.End == nil:
		return service.NewBooking{}, domain.Validation("end is required")
	}

	start, end := body.Start.Time, body.End.Time
	if start.Before(s.now().UTC().Truncate(timestampPrecision)) {
		return service.NewBooking{}, domain.Validation("start must not be in the past")
	}
	if !end.After(start) {
		return service.NewBooking{}, domain.Validation("end must be after start")
	}
	return service.NewBooking{ItemID: *body.ItemID, Start: start, End: end}, nil
}

func (s *HTTPServer) handleChangeBookingStatus(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := pathID(r, "bookingId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	approved, err := strconv.ParseBool(r.URL.Query().Get("approved"))
	if err != nil {
		s.fail(w, r, domain.Validation("approved must be true or false"))
		return
	}

	booking, err := s.svc.Bookings.ChangeStatus(r.Context(), caller, bookingID, approved)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookingID, err := pathID(r, "bookingId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	booking, err := s.svc.Bookings.GetBooking(r.Context(), caller, bookingID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTO(booking))
}

func (s *HTTPServer) handleListBookerBookings(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookings, err := s.svc.Bookings.ListByBooker(r.Context(), caller, r.URL.Query().Get("state"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTOs(bookings))
}

func (s *HTTPServer) handleListOwnerBookings(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookings, err := s.svc.Bookings.ListByOwner(r.Context(), caller, r.URL.Query().Get("state"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBookingDTOs(bookings))
}

// handleExportOwnerBookings renders the owner listing as a spreadsheet. The
// workbook is built in memory so a failure still yields a JSON error.
func (s *HTTPServer) handleExportOwnerBookings(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	bookings, err := s.svc.Bookings.ListByOwner(r.Context(), caller, r.URL.Query().Get("state"))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, bookings, s.now()); err != nil {
		s.fail(w, r, fmt.Errorf("failed to export bookings: %w", err))
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="bookings-%d.xlsx"`, caller))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
