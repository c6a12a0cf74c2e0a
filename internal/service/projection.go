package service

import (
	"context"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// Read views are assembled inside the caller's transaction. Related rows
// for a whole page are fetched in one batch per kind, never per item.

// projectItems merges items with their comments and, when withBookings is
// set, with the last and next booking relative to now.
func projectItems(ctx context.Context, tx domain.Repository, items []*models.Item, withBookings bool, now time.Time) ([]*models.ItemView, error) {
	if len(items) == 0 {
		return []*models.ItemView{}, nil
	}

	ids := make([]int64, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	comments, err := tx.GetCommentsByItemIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	commentsByItem := make(map[int64][]*models.Comment, len(items))
	for _, c := range comments {
		commentsByItem[c.ItemID] = append(commentsByItem[c.ItemID], c)
	}

	bookingsByItem := make(map[int64][]*models.Booking, len(items))
	if withBookings {
		bookings, err := tx.GetBookingsByItemIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, b := range bookings {
			bookingsByItem[b.ItemID] = append(bookingsByItem[b.ItemID], b)
		}
	}

	views := make([]*models.ItemView, len(items))
	for i, item := range items {
		view := &models.ItemView{Item: *item, Comments: commentsByItem[item.ID]}
		if view.Comments == nil {
			view.Comments = []*models.Comment{}
		}
		if withBookings {
			view.LastBooking, view.NextBooking = models.AdjacentBookings(bookingsByItem[item.ID], now)
		}
		views[i] = view
	}
	return views, nil
}

// projectRequests attaches to each request the items listed in response to it.
func projectRequests(ctx context.Context, tx domain.Repository, requests []*models.ItemRequest) ([]*models.RequestView, error) {
	if len(requests) == 0 {
		return []*models.RequestView{}, nil
	}

	ids := make([]int64, len(requests))
	for i, r := range requests {
		ids[i] = r.ID
	}

	items, err := tx.GetItemsByRequestIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byRequest := make(map[int64][]*models.Item, len(requests))
	for _, item := range items {
		if item.RequestID != nil {
			byRequest[*item.RequestID] = append(byRequest[*item.RequestID], item)
		}
	}

	views := make([]*models.RequestView, len(requests))
	for i, r := range requests {
		view := &models.RequestView{ItemRequest: *r, Items: byRequest[r.ID]}
		if view.Items == nil {
			view.Items = []*models.Item{}
		}
		views[i] = view
	}
	return views, nil
}
