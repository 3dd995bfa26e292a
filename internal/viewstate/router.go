package viewstate

import (
	"strconv"
	"strings"
)

// View names one of the two mutually-exclusive views.
type View int

const (
	ViewList View = iota
	ViewDetail
)

// Route is the navigation state derived from the location hash. It is
// recomputed from the hash on every navigation, never diffed against a
// previous value.
type Route struct {
	View    View
	ClassID int64 // set only when View == ViewDetail
}

// ParseRoute maps a navigation hash to a Route. "#/class/<id>" selects
// the detail view for that id; everything else, including a non-integer
// id, selects the list view.
func ParseRoute(hash string) Route {
	path := strings.TrimPrefix(hash, "#")
	rest, ok := strings.CutPrefix(path, "/class/")
	if !ok {
		return Route{View: ViewList}
	}

	// The id is the second path segment; trailing segments don't match.
	if strings.Contains(rest, "/") {
		return Route{View: ViewList}
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return Route{View: ViewList}
	}
	return Route{View: ViewDetail, ClassID: id}
}

// Hash renders the route back into its hash form, for redirects that
// return the viewer to the view they acted from.
func (r Route) Hash() string {
	if r.View == ViewDetail {
		return "#/class/" + strconv.FormatInt(r.ClassID, 10)
	}
	return "#"
}
