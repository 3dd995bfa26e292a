package schema

import "time"

// RSVP status values accepted by the class service.
const (
	StatusYes       = "yes"
	StatusNo        = "no"
	StatusTentative = "tentative"
)

// User is a class-service user as it appears nested in API responses.
// TelegramID is the stable identity key; equality against a class's
// creator is the only ownership check the client performs.
type User struct {
	ID         int64  `json:"id"`
	TelegramID int64  `json:"telegram_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name,omitempty"`
	Username   string `json:"username,omitempty"`
}

// DisplayName returns the name shown in rosters and question threads:
// first name plus the @username handle, with a placeholder when the
// user never set one.
func (u User) DisplayName() string {
	handle := u.Username
	if handle == "" {
		handle = "..."
	}
	return u.FirstName + " (@" + handle + ")"
}

// RSVP is one user's attendance response to a class.
type RSVP struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	ClassID int64  `json:"class_id"`
	Status  string `json:"status"`
	User    User   `json:"user"`
}

// Question is one question asked on a class, with its author.
type Question struct {
	ID      int64  `json:"id"`
	UserID  int64  `json:"user_id"`
	ClassID int64  `json:"class_id"`
	Text    string `json:"text"`
	User    User   `json:"user"`
}

// Class is a scheduled class with its creator, RSVPs and questions,
// exactly as the service returns it.
type Class struct {
	ID          int64      `json:"id"`
	Topic       string     `json:"topic"`
	Description string     `json:"description"`
	ClassTime   time.Time  `json:"class_time"`
	CreatorID   int64      `json:"creator_id"`
	Creator     User       `json:"creator"`
	RSVPs       []RSVP     `json:"rsvps"`
	Questions   []Question `json:"questions"`
}

// ClassCreateRequest is the POST /classes body. The creator's identity
// fields travel with the request; the service creates the user record
// on first contact.
type ClassCreateRequest struct {
	Topic             string    `json:"topic"`
	Description       string    `json:"description"`
	ClassTime         time.Time `json:"class_time"`
	CreatorTelegramID int64     `json:"creator_telegram_id"`
	CreatorFirstName  string    `json:"creator_first_name"`
	CreatorLastName   string    `json:"creator_last_name,omitempty"`
	CreatorUsername   string    `json:"creator_username,omitempty"`
}

// ClassUpdate carries the editable fields of a class. Nil means
// "leave unchanged".
type ClassUpdate struct {
	Topic       *string    `json:"topic,omitempty"`
	Description *string    `json:"description,omitempty"`
	ClassTime   *time.Time `json:"class_time,omitempty"`
}

// ClassUpdateRequest is the PUT /classes/{id} body.
type ClassUpdateRequest struct {
	UpdaterTelegramID int64       `json:"updater_telegram_id"`
	UpdateData        ClassUpdate `json:"update_data"`
}

// RsvpRequest is the POST /classes/{id}/rsvp body.
type RsvpRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Status     string `json:"status"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name,omitempty"`
	Username   string `json:"username,omitempty"`
}

// QuestionCreateRequest is the POST /classes/{id}/questions body.
type QuestionCreateRequest struct {
	Text             string `json:"text"`
	AuthorTelegramID int64  `json:"author_telegram_id"`
	AuthorFirstName  string `json:"author_first_name"`
	AuthorLastName   string `json:"author_last_name,omitempty"`
	AuthorUsername   string `json:"author_username,omitempty"`
}

// ErrorResponse is the error body the service returns on any
// non-success status.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
