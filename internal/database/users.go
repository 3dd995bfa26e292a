package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/korjavin/tgclasses/internal/schema"
)

// GetUserByTelegramID retrieves a user by their Telegram id.
func (db *DB) GetUserByTelegramID(telegramID int64) (*schema.User, error) {
	user := &schema.User{}
	err := db.QueryRow(
		`SELECT id, telegram_id, first_name, last_name, username FROM users WHERE telegram_id = ?`,
		telegramID,
	).Scan(&user.ID, &user.TelegramID, &user.FirstName, &user.LastName, &user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetOrCreateUser returns the user with the given Telegram id, creating
// the record on first contact. Display fields are refreshed on every
// call so a renamed viewer shows up with their current name.
func (db *DB) GetOrCreateUser(telegramID int64, firstName, lastName, username string) (*schema.User, error) {
	existing := &schema.User{}
	err := db.QueryRow(
		`SELECT id, telegram_id, first_name, last_name, username FROM users WHERE telegram_id = ?`,
		telegramID,
	).Scan(&existing.ID, &existing.TelegramID, &existing.FirstName, &existing.LastName, &existing.Username)
	if err == nil {
		if existing.FirstName != firstName || existing.LastName != lastName || existing.Username != username {
			_, err = db.Exec(
				`UPDATE users SET first_name = ?, last_name = ?, username = ? WHERE id = ?`,
				firstName, lastName, username, existing.ID,
			)
			if err != nil {
				return nil, fmt.Errorf("failed to update user: %w", err)
			}
			existing.FirstName = firstName
			existing.LastName = lastName
			existing.Username = username
		}
		return existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	result, err := db.Exec(
		`INSERT INTO users (telegram_id, first_name, last_name, username) VALUES (?, ?, ?, ?)`,
		telegramID, firstName, lastName, username,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return &schema.User{
		ID:         id,
		TelegramID: telegramID,
		FirstName:  firstName,
		LastName:   lastName,
		Username:   username,
	}, nil
}
