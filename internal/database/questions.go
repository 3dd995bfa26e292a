package database

import (
	"fmt"

	"github.com/korjavin/tgclasses/internal/schema"
)

// CreateQuestion appends a question to a class's thread.
func (db *DB) CreateQuestion(classID, userID int64, text string) (*schema.Question, error) {
	result, err := db.Exec(
		`INSERT INTO questions (user_id, class_id, text) VALUES (?, ?, ?)`,
		userID, classID, text,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get last insert id: %w", err)
	}

	q := &schema.Question{}
	err = db.QueryRow(
		`SELECT q.id, q.user_id, q.class_id, q.text,
		        u.id, u.telegram_id, u.first_name, u.last_name, u.username
		 FROM questions q JOIN users u ON u.id = q.user_id
		 WHERE q.id = ?`,
		id,
	).Scan(&q.ID, &q.UserID, &q.ClassID, &q.Text,
		&q.User.ID, &q.User.TelegramID, &q.User.FirstName,
		&q.User.LastName, &q.User.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

func (db *DB) questionsForClass(classID int64) ([]schema.Question, error) {
	rows, err := db.Query(
		`SELECT q.id, q.user_id, q.class_id, q.text,
		        u.id, u.telegram_id, u.first_name, u.last_name, u.username
		 FROM questions q JOIN users u ON u.id = q.user_id
		 WHERE q.class_id = ? ORDER BY q.id`,
		classID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	questions := []schema.Question{}
	for rows.Next() {
		var q schema.Question
		err := rows.Scan(&q.ID, &q.UserID, &q.ClassID, &q.Text,
			&q.User.ID, &q.User.TelegramID, &q.User.FirstName,
			&q.User.LastName, &q.User.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return questions, nil
}
