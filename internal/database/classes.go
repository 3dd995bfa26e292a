package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/korjavin/tgclasses/internal/schema"
)

const classSelect = `
	SELECT c.id, c.topic, c.description, c.class_time, c.creator_id,
	       u.id, u.telegram_id, u.first_name, u.last_name, u.username
	FROM classes c
	JOIN users u ON u.id = c.creator_id`

// ListClasses returns all classes in id order with nested creator,
// RSVPs and questions, the shape the API serves.
func (db *DB) ListClasses(skip, limit int) ([]schema.Class, error) {
	rows, err := db.Query(classSelect+` ORDER BY c.id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	defer rows.Close()

	classes := []schema.Class{}
	for rows.Next() {
		cls, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *cls)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate classes: %w", err)
	}

	for i := range classes {
		if err := db.loadNested(&classes[i]); err != nil {
			return nil, err
		}
	}
	return classes, nil
}

// GetClass retrieves one class with nested creator, RSVPs and questions.
func (db *DB) GetClass(id int64) (*schema.Class, error) {
	row := db.QueryRow(classSelect+` WHERE c.id = ?`, id)
	cls, err := scanClass(row)
	if err != nil {
		return nil, err
	}
	if err := db.loadNested(cls); err != nil {
		return nil, err
	}
	return cls, nil
}

// CreateClass inserts a class owned by creatorID.
func (db *DB) CreateClass(topic, description string, classTime time.Time, creatorID int64) (*schema.Class, error) {
	result, err := db.Exec(
		`INSERT INTO classes (topic, description, class_time, creator_id) VALUES (?, ?, ?, ?)`,
		topic, description, classTime, creatorID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}
	return db.GetClass(id)
}

// UpdateClass applies the non-nil fields of update to a class.
func (db *DB) UpdateClass(id int64, update schema.ClassUpdate) (*schema.Class, error) {
	cls, err := db.GetClass(id)
	if err != nil {
		return nil, err
	}

	topic := cls.Topic
	description := cls.Description
	classTime := cls.ClassTime
	if update.Topic != nil {
		topic = *update.Topic
	}
	if update.Description != nil {
		description = *update.Description
	}
	if update.ClassTime != nil {
		classTime = *update.ClassTime
	}

	_, err = db.Exec(
		`UPDATE classes SET topic = ?, description = ?, class_time = ? WHERE id = ?`,
		topic, description, classTime, id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update class: %w", err)
	}
	return db.GetClass(id)
}

// DeleteClass removes a class; RSVPs and questions cascade.
func (db *DB) DeleteClass(id int64) error {
	result, err := db.Exec(`DELETE FROM classes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClass(row rowScanner) (*schema.Class, error) {
	cls := &schema.Class{}
	err := row.Scan(
		&cls.ID, &cls.Topic, &cls.Description, &cls.ClassTime, &cls.CreatorID,
		&cls.Creator.ID, &cls.Creator.TelegramID, &cls.Creator.FirstName,
		&cls.Creator.LastName, &cls.Creator.Username,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan class: %w", err)
	}
	return cls, nil
}

func (db *DB) loadNested(cls *schema.Class) error {
	rsvps, err := db.rsvpsForClass(cls.ID)
	if err != nil {
		return err
	}
	questions, err := db.questionsForClass(cls.ID)
	if err != nil {
		return err
	}
	cls.RSVPs = rsvps
	cls.Questions = questions
	return nil
}
