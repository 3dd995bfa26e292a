package viewstate

import (
	"html/template"

	"github.com/korjavin/tgclasses/internal/schema"
)

// Container is one of the two view surfaces the engine renders into.
// Exactly one container is visible after any navigation; a render either
// fully replaces HTML or leaves a failure placeholder, never a partial
// view.
type Container struct {
	Visible bool
	HTML    template.HTML
}

// Placeholders rendered when a refresh fails. The store and any
// previously rendered sibling view are left untouched.
const (
	listLoadFailed   = "<li>Failed to load classes.</li>"
	detailLoadFailed = "<h2>Failed to load class details.</h2>"
)

// listItem is one class prepared for the list template: RSVPs already
// partitioned, ownership already decided.
type listItem struct {
	ID          int64
	Topic       string
	Description string
	TimeText    string
	CreatorName string
	DetailHref  string
	Yes         []schema.RSVP
	No          []schema.RSVP
	Tentative   []schema.RSVP
	IsOwner     bool
}

type listData struct {
	Items     []listItem
	Edit      *EditForm
	FormExtra template.HTML
}

type detailData struct {
	ID              int64
	Topic           string
	DescriptionHTML template.HTML
	TimeText        string
	CreatorName     string
	IsOwner         bool
	Questions       []schema.Question
	BackHref        string
	FormExtra       template.HTML
}

// EditForm is the pre-filled edit surface for a class, seeded from the
// current store snapshot. ClassTime is already in the calendar-input
// representation.
type EditForm struct {
	ID          int64
	Topic       string
	Description string
	ClassTime   string
}

var listTmpl = template.Must(template.New("list").Parse(`<h2>Upcoming Classes</h2>
<form action="/actions/create" method="post" id="create-class-form">
  {{.FormExtra}}
  <div class="input-field"><input type="text" name="topic" placeholder="Topic" required></div>
  <div class="input-field"><textarea name="description" placeholder="Description"></textarea></div>
  <div class="input-field"><input type="datetime-local" name="class_time" required></div>
  <button type="submit" class="btn">Create Class</button>
</form>
{{if .Edit}}
<form action="/actions/edit" method="post" id="edit-class-form">
  {{$.FormExtra}}
  <input type="hidden" name="class_id" value="{{.Edit.ID}}">
  <div class="input-field"><input type="text" name="topic" value="{{.Edit.Topic}}" required></div>
  <div class="input-field"><textarea name="description">{{.Edit.Description}}</textarea></div>
  <div class="input-field"><input type="datetime-local" name="class_time" value="{{.Edit.ClassTime}}" required></div>
  <button type="submit" class="btn">Save</button>
</form>
{{end}}
<ul class="collection" id="classes-list">
{{range .Items}}
  <li class="collection-item">
    <a href="{{.DetailHref}}" class="title"><b>{{.Topic}}</b></a>
    <p>{{.Description}}</p>
    <p><b>Time:</b> {{.TimeText}}</p>
    <p><b>Creator:</b> {{.CreatorName}}</p>
    <p>RSVPs: {{len .Yes}} Yes, {{len .Tentative}} Tentative</p>
    <form action="/actions/rsvp" method="post" class="rsvp-buttons">
      {{$.FormExtra}}
      <input type="hidden" name="class_id" value="{{.ID}}">
      <button type="submit" name="status" value="yes" class="btn-small">Yes</button>
      <button type="submit" name="status" value="no" class="btn-small">No</button>
      <button type="submit" name="status" value="tentative" class="btn-small">Tentative</button>
    </form>
{{if .IsOwner}}
    <div class="owner-controls">
      <a href="/app?edit={{.ID}}" class="btn-small edit-button">Edit</a>
      <form action="/actions/cancel" method="post" class="cancel-form">
        {{$.FormExtra}}
        <input type="hidden" name="class_id" value="{{.ID}}">
        <button type="submit" class="btn-small red">Cancel</button>
      </form>
    </div>
    <div class="rsvp-details">
      <h4>RSVP Details:</h4>
      <strong>Yes ({{len .Yes}}):</strong>
      <ul>{{range .Yes}}<li>{{.User.DisplayName}}</li>{{else}}<li>None</li>{{end}}</ul>
      <strong>No ({{len .No}}):</strong>
      <ul>{{range .No}}<li>{{.User.DisplayName}}</li>{{else}}<li>None</li>{{end}}</ul>
      <strong>Tentative ({{len .Tentative}}):</strong>
      <ul>{{range .Tentative}}<li>{{.User.DisplayName}}</li>{{else}}<li>None</li>{{end}}</ul>
    </div>
{{end}}
  </li>
{{else}}
  <li class="collection-item">No classes scheduled yet.</li>
{{end}}
</ul>`))

var detailTmpl = template.Must(template.New("detail").Parse(`<a href="{{.BackHref}}" class="btn-flat">&lt; Back to list</a>
<h2>{{.Topic}}</h2>
<div class="description">{{.DescriptionHTML}}</div>
<p><b>Time:</b> {{.TimeText}}</p>
<p><b>Creator:</b> {{.CreatorName}}</p>
{{if .IsOwner}}
<div class="owner-controls">
  <a href="/app?edit={{.ID}}" class="btn-small edit-button">Edit</a>
  <form action="/actions/cancel" method="post" class="cancel-form">
    {{.FormExtra}}
    <input type="hidden" name="class_id" value="{{.ID}}">
    <button type="submit" class="btn-small red">Cancel</button>
  </form>
</div>
{{end}}
<hr>
<h5>Questions</h5>
<ul class="collection">
{{range .Questions}}
  <li class="collection-item">{{.Text}} <span class="secondary-content">by {{.User.DisplayName}}</span></li>
{{else}}
  <li class="collection-item">No questions yet.</li>
{{end}}
</ul>
<h5>Ask a Question</h5>
<form action="/actions/question" method="post" id="add-question-form">
  {{.FormExtra}}
  <input type="hidden" name="class_id" value="{{.ID}}">
  <div class="input-field"><textarea name="text" required></textarea></div>
  <button type="submit" class="btn">Submit Question</button>
</form>`))
