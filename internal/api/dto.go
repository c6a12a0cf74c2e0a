package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shareit/internal/models"
)

const (
	timestampLayout    = "2006-01-02T15:04:05"
	timestampPrecision = time.Second
)

// Timestamp is a wall-clock instant in UTC. It is written without a zone and
// read either without one (taken as UTC) or as RFC 3339.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(timestampLayout))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		t.Time = parsed.UTC()
		return nil
	}
	parsed, err := time.ParseInLocation(timestampLayout, raw, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", raw)
	}
	t.Time = parsed
	return nil
}

// Request bodies.

type userRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type itemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
	RequestID   *int64  `json:"requestId"`
}

type bookingRequest struct {
	ItemID *int64     `json:"itemId"`
	Start  *Timestamp `json:"start"`
	End    *Timestamp `json:"end"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type itemRequestRequest struct {
	Description string `json:"description"`
}

// Response bodies.

type userDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type itemDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	RequestID   *int64 `json:"requestId,omitempty"`
}

type bookingRefDTO struct {
	ID       int64 `json:"id"`
	BookerID int64 `json:"bookerId"`
}

type commentDTO struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorName string    `json:"authorName"`
	Created    Timestamp `json:"created"`
}

type itemViewDTO struct {
	itemDTO
	LastBooking *bookingRefDTO `json:"lastBooking"`
	NextBooking *bookingRefDTO `json:"nextBooking"`
	Comments    []commentDTO   `json:"comments"`
}

type bookingItemDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type bookerDTO struct {
	ID int64 `json:"id"`
}

type bookingDTO struct {
	ID     int64          `json:"id"`
	Start  Timestamp      `json:"start"`
	End    Timestamp      `json:"end"`
	Status string         `json:"status"`
	Item   bookingItemDTO `json:"item"`
	Booker bookerDTO      `json:"booker"`
}

type requestItemDTO struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"ownerId"`
}

type itemRequestDTO struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	Created     Timestamp `json:"created"`
}

type requestViewDTO struct {
	itemRequestDTO
	Items []requestItemDTO `json:"items"`
}

func toUserDTO(u *models.User) userDTO {
	return userDTO{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toUserDTOs(users []*models.User) []userDTO {
	out := make([]userDTO, 0, len(users))
	for _, u := range users {
		out = append(out, toUserDTO(u))
	}
	return out
}

func toItemDTO(i *models.Item) itemDTO {
	return itemDTO{
		ID:          i.ID,
		Name:        i.Name,
		Description: i.Description,
		Available:   i.Available,
		RequestID:   i.RequestID,
	}
}

func toItemDTOs(items []*models.Item) []itemDTO {
	out := make([]itemDTO, 0, len(items))
	for _, i := range items {
		out = append(out, toItemDTO(i))
	}
	return out
}

func toBookingRef(b *models.Booking) *bookingRefDTO {
	if b == nil {
		return nil
	}
	return &bookingRefDTO{ID: b.ID, BookerID: b.BookerID}
}

func toCommentDTO(c *models.Comment) commentDTO {
	return commentDTO{ID: c.ID, Text: c.Text, AuthorName: c.AuthorName, Created: Timestamp{c.Created}}
}

func toItemViewDTO(v *models.ItemView) itemViewDTO {
	comments := make([]commentDTO, 0, len(v.Comments))
	for _, c := range v.Comments {
		comments = append(comments, toCommentDTO(c))
	}
	return itemViewDTO{
		itemDTO:     toItemDTO(&v.Item),
		LastBooking: toBookingRef(v.LastBooking),
		NextBooking: toBookingRef(v.NextBooking),
		Comments:    comments,
	}
}

func toItemViewDTOs(views []*models.ItemView) []itemViewDTO {
	out := make([]itemViewDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toItemViewDTO(v))
	}
	return out
}

func toBookingDTO(b *models.Booking) bookingDTO {
	return bookingDTO{
		ID:     b.ID,
		Start:  Timestamp{b.Start},
		End:    Timestamp{b.End},
		Status: string(b.Status),
		Item:   bookingItemDTO{ID: b.ItemID, Name: b.ItemName},
		Booker: bookerDTO{ID: b.BookerID},
	}
}

func toBookingDTOs(bookings []*models.Booking) []bookingDTO {
	out := make([]bookingDTO, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, toBookingDTO(b))
	}
	return out
}

func toItemRequestDTO(r *models.ItemRequest) itemRequestDTO {
	return itemRequestDTO{ID: r.ID, Description: r.Description, Created: Timestamp{r.Created}}
}

func toItemRequestDTOs(requests []*models.ItemRequest) []itemRequestDTO {
	out := make([]itemRequestDTO, 0, len(requests))
	for _, r := range requests {
		out = append(out, toItemRequestDTO(r))
	}
	return out
}

func toRequestViewDTO(v *models.RequestView) requestViewDTO {
	items := make([]requestItemDTO, 0, len(v.Items))
	for _, i := range v.Items {
		items = append(items, requestItemDTO{ID: i.ID, Name: i.Name, OwnerID: i.OwnerID})
	}
	return requestViewDTO{itemRequestDTO: toItemRequestDTO(&v.ItemRequest), Items: items}
}

func toRequestViewDTOs(views []*models.RequestView) []requestViewDTO {
	out := make([]requestViewDTO, 0, len(views))
	for _, v := range views {
		out = append(out, toRequestViewDTO(v))
	}
	return out
}
