package viewstate

import (
	"context"
	"html/template"
	"net/url"
	"sync"
	"time"

	"github.com/korjavin/tgclasses/internal/classapi"
	"github.com/korjavin/tgclasses/internal/identity"
)

// classTimeLayout is the calendar-input representation: zero-padded
// year-month-day-hour-minute, no timezone.
const classTimeLayout = "2006-01-02T15:04"

// displayTimeLayout is how class times are shown in rendered views.
const displayTimeLayout = "Mon, 02 Jan 2006 15:04"

// Engine reconciles the in-memory snapshot of server data with the two
// rendered views. It owns the store, the navigation state and both view
// containers; all reads and writes go through its mutex. The mutex is
// released across network round-trips, so user actions may interleave
// while a refresh is on the wire.
type Engine struct {
	mu        sync.Mutex
	api       *classapi.Client
	store     *Store
	viewer    *identity.User
	route     Route
	editing   *EditForm
	list      Container
	detail    Container
	notice    string
	inFlight  map[actionKey]bool
	formExtra template.HTML
}

func NewEngine(api *classapi.Client) *Engine {
	return &Engine{
		api:      api,
		store:    NewStore(),
		route:    Route{View: ViewList},
		inFlight: make(map[actionKey]bool),
	}
}

// BindViewer records the resolved viewer identity. Until this is called
// every mutating action aborts with identity.ErrUnavailable and
// ownership checks treat the viewer as nobody.
func (e *Engine) BindViewer(u *identity.User) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.viewer = u
}

// Viewer returns the bound identity, or nil.
func (e *Engine) Viewer() *identity.User {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewer
}

// SetFormExtra sets markup injected into every rendered form, such as a
// CSRF token field. Rendering glue, not view state.
func (e *Engine) SetFormExtra(extra template.HTML) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.formExtra = extra
}

// Route returns the current navigation state.
func (e *Engine) Route() Route {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.route
}

// ListContainer returns the list view surface.
func (e *Engine) ListContainer() Container {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.list
}

// DetailContainer returns the detail view surface.
func (e *Engine) DetailContainer() Container {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.detail
}

// TakeNotice returns the pending one-shot notice and clears it.
func (e *Engine) TakeNotice() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := e.notice
	e.notice = ""
	return n
}

func (e *Engine) setNotice(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.notice = msg
}

// Navigate recomputes the route from the hash, makes exactly the
// selected container visible, and refreshes it. Both containers are
// hidden before the selected one is shown, so there is never a moment
// where both or neither are visible.
func (e *Engine) Navigate(ctx context.Context, hash string) {
	route := ParseRoute(hash)

	e.mu.Lock()
	e.route = route
	e.list.Visible = false
	e.detail.Visible = false
	if route.View == ViewDetail {
		e.detail.Visible = true
	} else {
		e.list.Visible = true
	}
	e.mu.Unlock()

	if route.View == ViewDetail {
		e.RefreshDetail(ctx, route.ClassID)
	} else {
		e.RefreshList(ctx)
	}
}

// OpenEdit pre-fills the edit surface for a class from the current
// snapshot, without a fetch. Unknown ids are ignored, matching a stale
// control clicked after the class disappeared.
func (e *Engine) OpenEdit(id int64) {
	e.mu.Lock()
	cls, ok := e.store.Find(id)
	if !ok {
		e.mu.Unlock()
		return
	}
	e.editing = &EditForm{
		ID:          cls.ID,
		Topic:       cls.Topic,
		Description: cls.Description,
		ClassTime:   cls.ClassTime.Format(classTimeLayout),
	}
	e.renderListLocked()
	e.mu.Unlock()
}

// CloseEdit discards the edit surface without submitting.
func (e *Engine) CloseEdit() {
	e.mu.Lock()
	e.editing = nil
	e.renderListLocked()
	e.mu.Unlock()
}

// hashHref turns a navigation hash into the frontend URL that replays
// it, for plain-markup links.
func hashHref(hash string) string {
	return "/app?hash=" + url.QueryEscape(hash)
}

// ParseClassTime parses the calendar-input representation submitted by
// the create and edit forms.
func ParseClassTime(value string) (time.Time, error) {
	return time.Parse(classTimeLayout, value)
}
