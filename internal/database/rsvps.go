package database

import (
	"fmt"

	"github.com/korjavin/tgclasses/internal/schema"
)

// UpsertRSVP records a user's attendance response, replacing an earlier
// one for the same class. At most one RSVP per (class, user) pair; the
// unique index backs it.
func (db *DB) UpsertRSVP(classID, userID int64, status string) (*schema.RSVP, error) {
	_, err := db.Exec(
		`INSERT INTO rsvps (user_id, class_id, status) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, class_id) DO UPDATE SET status = excluded.status`,
		userID, classID, status,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert rsvp: %w", err)
	}

	rsvp := &schema.RSVP{}
	err = db.QueryRow(
		`SELECT r.id, r.user_id, r.class_id, r.status,
		        u.id, u.telegram_id, u.first_name, u.last_name, u.username
		 FROM rsvps r JOIN users u ON u.id = r.user_id
		 WHERE r.user_id = ? AND r.class_id = ?`,
		userID, classID,
	).Scan(&rsvp.ID, &rsvp.UserID, &rsvp.ClassID, &rsvp.Status,
		&rsvp.User.ID, &rsvp.User.TelegramID, &rsvp.User.FirstName,
		&rsvp.User.LastName, &rsvp.User.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get rsvp: %w", err)
	}
	return rsvp, nil
}

func (db *DB) rsvpsForClass(classID int64) ([]schema.RSVP, error) {
	rows, err := db.Query(
		`SELECT r.id, r.user_id, r.class_id, r.status,
		        u.id, u.telegram_id, u.first_name, u.last_name, u.username
		 FROM rsvps r JOIN users u ON u.id = r.user_id
		 WHERE r.class_id = ? ORDER BY r.id`,
		classID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rsvps: %w", err)
	}
	defer rows.Close()

	rsvps := []schema.RSVP{}
	for rows.Next() {
		var r schema.RSVP
		err := rows.Scan(&r.ID, &r.UserID, &r.ClassID, &r.Status,
			&r.User.ID, &r.User.TelegramID, &r.User.FirstName,
			&r.User.LastName, &r.User.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rsvp: %w", err)
		}
		rsvps = append(rsvps, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rsvps: %w", err)
	}
	return rsvps, nil
}
