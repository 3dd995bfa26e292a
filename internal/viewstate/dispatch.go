package viewstate

import (
	"context"
	"errors"
	"time"

	"github.com/korjavin/tgclasses/internal/classapi"
	"github.com/korjavin/tgclasses/internal/identity"
	"github.com/korjavin/tgclasses/internal/schema"
)

// ErrSubmitInFlight is returned when an action is re-submitted while a
// previous submission of the same form is still on the wire. The second
// submit is rejected so rapid double-clicks cannot issue duplicate
// network calls.
var ErrSubmitInFlight = errors.New("submission already in progress")

const identityUnavailableNotice = "Could not retrieve user data from Telegram."

// actionKey identifies one logical form for the in-flight guard:
// the create form, a class's edit form, its cancel control, its RSVP
// buttons, or its question form.
type actionKey struct {
	kind    string
	classID int64
}

// Every mutating action follows the same protocol: require a resolved
// viewer, build a payload embedding the viewer as the actor, issue the
// request, then on success refresh the affected view and on failure
// surface the message and mutate nothing. One in-flight submission per
// form; nothing is retried automatically.

// CreateClass submits a new class and, on success, refreshes the list.
func (e *Engine) CreateClass(ctx context.Context, topic, description string, classTime time.Time) error {
	viewer, err := e.requireViewer()
	if err != nil {
		return err
	}
	release, err := e.begin(actionKey{kind: "create"})
	if err != nil {
		return err
	}
	defer release()

	_, err = e.api.CreateClass(ctx, schema.ClassCreateRequest{
		Topic:             topic,
		Description:       description,
		ClassTime:         classTime,
		CreatorTelegramID: viewer.ID,
		CreatorFirstName:  viewer.FirstName,
		CreatorLastName:   viewer.LastName,
		CreatorUsername:   viewer.Username,
	})
	if err != nil {
		e.setNotice(userMessage(err))
		return err
	}
	return e.RefreshList(ctx)
}

// UpdateClass submits the editable fields for a class. On success the
// edit surface closes and the list refreshes; on failure it stays open
// for resubmission.
func (e *Engine) UpdateClass(ctx context.Context, id int64, topic, description string, classTime time.Time) error {
	viewer, err := e.requireViewer()
	if err != nil {
		return err
	}
	release, err := e.begin(actionKey{kind: "edit", classID: id})
	if err != nil {
		return err
	}
	defer release()

	_, err = e.api.UpdateClass(ctx, id, schema.ClassUpdateRequest{
		UpdaterTelegramID: viewer.ID,
		UpdateData: schema.ClassUpdate{
			Topic:       &topic,
			Description: &description,
			ClassTime:   &classTime,
		},
	})
	if err != nil {
		e.setNotice(userMessage(err))
		return err
	}

	e.mu.Lock()
	e.editing = nil
	e.mu.Unlock()
	return e.RefreshList(ctx)
}

// CancelClass deletes a class. When the cancel was issued from the
// detail view of that class, navigation resets to the list, since the
// detail target no longer exists; otherwise the list simply refreshes.
func (e *Engine) CancelClass(ctx context.Context, id int64) error {
	viewer, err := e.requireViewer()
	if err != nil {
		return err
	}
	release, err := e.begin(actionKey{kind: "cancel", classID: id})
	if err != nil {
		return err
	}
	defer release()

	if err := e.api.DeleteClass(ctx, id, viewer.ID); err != nil {
		e.setNotice(userMessage(err))
		return err
	}
	e.setNotice("Class cancelled successfully.")

	e.mu.Lock()
	fromDetail := e.route.View == ViewDetail && e.route.ClassID == id
	e.mu.Unlock()

	if fromDetail {
		e.Navigate(ctx, Route{View: ViewList}.Hash())
		return nil
	}
	return e.RefreshList(ctx)
}

// SubmitRSVP records the viewer's attendance response and refreshes the
// list. Any authenticated viewer may RSVP, including the creator.
func (e *Engine) SubmitRSVP(ctx context.Context, classID int64, status string) error {
	viewer, err := e.requireViewer()
	if err != nil {
		return err
	}
	release, err := e.begin(actionKey{kind: "rsvp", classID: classID})
	if err != nil {
		return err
	}
	defer release()

	err = e.api.SubmitRSVP(ctx, classID, schema.RsvpRequest{
		TelegramID: viewer.ID,
		Status:     status,
		FirstName:  viewer.FirstName,
		LastName:   viewer.LastName,
		Username:   viewer.Username,
	})
	if err != nil {
		e.setNotice(userMessage(err))
		return err
	}
	e.setNotice(`You have successfully RSVPed "` + status + `"`)
	return e.RefreshList(ctx)
}

// AskQuestion appends a question to a class's thread and refreshes the
// detail view for that class, not the list.
func (e *Engine) AskQuestion(ctx context.Context, classID int64, text string) error {
	viewer, err := e.requireViewer()
	if err != nil {
		return err
	}
	release, err := e.begin(actionKey{kind: "question", classID: classID})
	if err != nil {
		return err
	}
	defer release()

	err = e.api.PostQuestion(ctx, classID, schema.QuestionCreateRequest{
		Text:             text,
		AuthorTelegramID: viewer.ID,
		AuthorFirstName:  viewer.FirstName,
		AuthorLastName:   viewer.LastName,
		AuthorUsername:   viewer.Username,
	})
	if err != nil {
		e.setNotice(userMessage(err))
		return err
	}
	return e.RefreshDetail(ctx, classID)
}

// requireViewer aborts an action before any network call when no
// identity has been resolved.
func (e *Engine) requireViewer() (identity.User, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.viewer == nil {
		e.notice = identityUnavailableNotice
		return identity.User{}, identity.ErrUnavailable
	}
	return *e.viewer, nil
}

// begin marks a form as Submitting, rejecting re-entry until the
// returned release runs.
func (e *Engine) begin(key actionKey) (func(), error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[key] {
		e.notice = "Submission already in progress."
		return nil, ErrSubmitInFlight
	}
	e.inFlight[key] = true
	return func() {
		e.mu.Lock()
		delete(e.inFlight, key)
		e.mu.Unlock()
	}, nil
}

// userMessage is the one-shot notice for a failed action: the server's
// detail message when it sent one, the generic per-action fallback
// otherwise.
func userMessage(err error) string {
	var apiErr *classapi.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
