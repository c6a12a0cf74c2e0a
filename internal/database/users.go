package database

import (
	"context"
	"fmt"

	"shareit/internal/domain"
	"shareit/internal/models"
)

const userColumns = `id, name, email`

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	id, err := db.insert(ctx, `INSERT INTO users (name, email) VALUES (?, ?)`, user.Name, user.Email)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("email %s is already in use", user.Email)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = id
	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, err := db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err, "user %d not found", id)
	}
	return user, nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := db.queryUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, notFound(err, "user with email %s not found", email)
	}
	return user, nil
}

func (db *DB) queryUser(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User
	if err := db.queryRow(ctx, query, args...).Scan(&user.ID, &user.Name, &user.Email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]*models.User, error) {
	rows, err := db.query(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func (db *DB) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := db.exec(ctx, `UPDATE users SET name = ?, email = ? WHERE id = ?`, user.Name, user.Email, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Conflict("email %s is already in use", user.Email)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return domain.NotFound("user %d not found", user.ID)
	}
	return nil
}

// DeleteUser is idempotent: removing an unknown id is not an error.
func (db *DB) DeleteUser(ctx context.Context, id int64) error {
	if _, err := db.exec(ctx, `DELETE FROM users WHERE id = ?`, id); err != nil {
		if isForeignKeyViolation(err) {
			return domain.Conflict("user %d is still referenced", id)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}
