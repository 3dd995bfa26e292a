package server

import (
	"fmt"
	"html/template"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/csrf"
	"github.com/korjavin/tgclasses/internal/identity"
	"github.com/korjavin/tgclasses/internal/viewstate"
)

var shellTmpl = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Class Scheduler</title>
  <link rel="stylesheet" href="/static/css/app.css">
  <script src="https://telegram.org/js/telegram-web-app.js"></script>
</head>
<body>
{{if .Notice}}<div class="notice">{{.Notice}}</div>{{end}}
<div id="list-view"{{if not .List.Visible}} style="display:none"{{end}}>{{.List.HTML}}</div>
<div id="details-view"{{if not .Detail.Visible}} style="display:none"{{end}}>{{.Detail.HTML}}</div>
{{if not .HasViewer}}
<form id="auth-form" method="post" action="/auth/telegram" style="display:none">
  {{.CSRFField}}
  <input type="hidden" name="init_data" id="init-data">
  <input type="hidden" name="hash" value="{{.Hash}}">
</form>
<script>
  var tg = window.Telegram && window.Telegram.WebApp;
  if (tg && tg.initData) {
    document.getElementById('init-data').value = tg.initData;
    document.getElementById('auth-form').submit();
  }
</script>
{{end}}
<script>
  window.addEventListener('hashchange', function () {
    window.location = '/app?hash=' + encodeURIComponent(window.location.hash);
  });
</script>
</body>
</html>`))

type shellData struct {
	Notice    string
	List      viewstate.Container
	Detail    viewstate.Container
	HasViewer bool
	Hash      string
	CSRFField template.HTML
}

// handleApp navigates the session's engine to the hash carried in the
// query string and renders both containers, exactly one visible.
func (s *Server) handleApp(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/app" {
		http.NotFound(w, r)
		return
	}

	eng := s.engineFor(w, r)
	hash := r.URL.Query().Get("hash")

	eng.SetFormExtra(csrf.TemplateField(r))
	eng.Navigate(r.Context(), hash)

	// The edit affordance: pre-fill from the snapshot just rendered.
	if editStr := r.URL.Query().Get("edit"); editStr != "" {
		if id, err := parseID(editStr); err == nil {
			eng.OpenEdit(id)
		}
	}

	data := shellData{
		Notice:    eng.TakeNotice(),
		List:      eng.ListContainer(),
		Detail:    eng.DetailContainer(),
		HasViewer: eng.Viewer() != nil,
		Hash:      hash,
		CSRFField: csrf.TemplateField(r),
	}
	if err := shellTmpl.Execute(w, data); err != nil {
		log.Printf("Failed to render page: %v", err)
	}
}

// handleAuthTelegram validates the host-supplied initData and binds the
// viewer identity to this session's engine.
func (s *Server) handleAuthTelegram(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/app", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	eng := s.engineFor(w, r)
	user, err := s.validator.Validate(r.FormValue("init_data"))
	if err != nil {
		log.Printf("Failed to validate init data: %v", err)
		http.Error(w, "Could not verify Telegram identity", http.StatusUnauthorized)
		return
	}
	eng.BindViewer(user)

	s.redirectToView(w, r, r.FormValue("hash"))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.actionEngine(w, r)
	if !ok {
		return
	}

	classTime, err := viewstate.ParseClassTime(r.FormValue("class_time"))
	if err != nil {
		http.Error(w, "Invalid class time", http.StatusBadRequest)
		return
	}

	// Errors are surfaced through the engine's one-shot notice; the
	// redirect below re-renders whatever state the action left behind.
	_ = eng.CreateClass(r.Context(), r.FormValue("topic"), r.FormValue("description"), classTime)
	s.redirectToView(w, r, eng.Route().Hash())
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.actionEngine(w, r)
	if !ok {
		return
	}

	id, err := parseID(r.FormValue("class_id"))
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}
	classTime, err := viewstate.ParseClassTime(r.FormValue("class_time"))
	if err != nil {
		http.Error(w, "Invalid class time", http.StatusBadRequest)
		return
	}

	_ = eng.UpdateClass(r.Context(), id, r.FormValue("topic"), r.FormValue("description"), classTime)
	s.redirectToView(w, r, eng.Route().Hash())
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.actionEngine(w, r)
	if !ok {
		return
	}

	id, err := parseID(r.FormValue("class_id"))
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}

	_ = eng.CancelClass(r.Context(), id)
	s.redirectToView(w, r, eng.Route().Hash())
}

func (s *Server) handleRSVP(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.actionEngine(w, r)
	if !ok {
		return
	}

	id, err := parseID(r.FormValue("class_id"))
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}

	_ = eng.SubmitRSVP(r.Context(), id, r.FormValue("status"))
	s.redirectToView(w, r, eng.Route().Hash())
}

func (s *Server) handleQuestion(w http.ResponseWriter, r *http.Request) {
	eng, ok := s.actionEngine(w, r)
	if !ok {
		return
	}

	id, err := parseID(r.FormValue("class_id"))
	if err != nil {
		http.Error(w, "Invalid class ID", http.StatusBadRequest)
		return
	}

	_ = eng.AskQuestion(r.Context(), id, r.FormValue("text"))
	s.redirectToView(w, r, eng.Route().Hash())
}

// actionEngine does the shared front matter of every action handler:
// POST only, parsed form, CSRF token field available to re-renders, and
// a bounded wait for the viewer identity so a slow host binding gets a
// beat to arrive before the action aborts.
func (s *Server) actionEngine(w http.ResponseWriter, r *http.Request) (*viewstate.Engine, bool) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/app", http.StatusSeeOther)
		return nil, false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return nil, false
	}

	eng := s.engineFor(w, r)
	eng.SetFormExtra(csrf.TemplateField(r))

	if eng.Viewer() == nil {
		// Bounded readiness poll; on exhaustion the engine's own
		// identity check aborts the action with a user-facing notice.
		if user, err := identity.Await(r.Context(), engineProvider{eng},
			s.config.IdentityWaitAttempts, s.config.IdentityWaitInterval); err == nil {
			eng.BindViewer(user)
		}
	}
	return eng, true
}

// engineProvider adapts an engine's bound viewer to identity.Provider.
type engineProvider struct {
	eng *viewstate.Engine
}

func (p engineProvider) Resolve() (*identity.User, error) {
	if u := p.eng.Viewer(); u != nil {
		return u, nil
	}
	return nil, identity.ErrUnavailable
}

func (s *Server) redirectToView(w http.ResponseWriter, r *http.Request, hash string) {
	http.Redirect(w, r, "/app?hash="+url.QueryEscape(hash), http.StatusSeeOther)
}

func parseID(idStr string) (int64, error) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid ID format: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid ID: must be positive")
	}
	return id, nil
}
