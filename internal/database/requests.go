package database

import (
	"context"
	"fmt"
	"time"

	"shareit/internal/models"
)

const requestColumns = `id, description, requester_id, created`

func (db *DB) CreateRequest(ctx context.Context, req *models.ItemRequest) error {
	if req.Created.IsZero() {
		req.Created = time.Now()
	}
	req.Created = utc(req.Created)
	id, err := db.insert(ctx,
		`INSERT INTO requests (description, requester_id, created) VALUES (?, ?, ?)`,
		req.Description, req.RequesterID, req.Created,
	)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.ID = id
	return nil
}

func (db *DB) GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error) {
	var r models.ItemRequest
	err := db.queryRow(ctx, `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id).
		Scan(&r.ID, &r.Description, &r.RequesterID, &r.Created)
	if err != nil {
		return nil, notFound(err, "request %d not found", id)
	}
	return &r, nil
}

func (db *DB) GetRequestsByRequester(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	return db.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE requester_id = ? ORDER BY created DESC, id DESC`, requesterID)
}

func (db *DB) GetRequestsExcept(ctx context.Context, requesterID int64) ([]*models.ItemRequest, error) {
	return db.queryRequests(ctx,
		`SELECT `+requestColumns+` FROM requests WHERE requester_id <> ? ORDER BY created DESC, id DESC`, requesterID)
}

func (db *DB) queryRequests(ctx context.Context, query string, args ...any) ([]*models.ItemRequest, error) {
	rows, err := db.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	requests := []*models.ItemRequest{}
	for rows.Next() {
		var r models.ItemRequest
		if err := rows.Scan(&r.ID, &r.Description, &r.RequesterID, &r.Created); err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, &r)
	}
	return requests, rows.Err()
}
