package classservice

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/korjavin/tgclasses/internal/database"
	"github.com/korjavin/tgclasses/internal/schema"
)

// Service is the class-scheduling REST API the client engine consumes.
// Every error response carries a human-readable {"detail": ...} body.
type Service struct {
	db     *database.DB
	router *http.ServeMux
}

func New(db *database.DB) *Service {
	s := &Service{
		db:     db,
		router: http.NewServeMux(),
	}
	s.setupRoutes()
	return s
}

func (s *Service) setupRoutes() {
	s.router.HandleFunc("GET /api/classes", s.handleListClasses)
	s.router.HandleFunc("GET /api/classes/{id}", s.handleGetClass)
	s.router.HandleFunc("POST /api/classes", s.handleCreateClass)
	s.router.HandleFunc("PUT /api/classes/{id}", s.handleUpdateClass)
	s.router.HandleFunc("DELETE /api/classes/{id}", s.handleDeleteClass)
	s.router.HandleFunc("POST /api/classes/{id}/rsvp", s.handleRSVP)
	s.router.HandleFunc("POST /api/classes/{id}/questions", s.handleQuestion)
	s.router.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func (s *Service) Handler() http.Handler {
	return s.router
}

func (s *Service) Start(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func (s *Service) handleListClasses(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 100)

	classes, err := s.db.ListClasses(skip, limit)
	if err != nil {
		log.Printf("Failed to list classes: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to get classes")
		return
	}
	writeJSON(w, http.StatusOK, classes)
}

func (s *Service) handleGetClass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	cls, err := s.db.GetClass(id)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Class not found")
		return
	}
	writeJSON(w, http.StatusOK, cls)
}

func (s *Service) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var req schema.ClassCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Topic == "" {
		writeDetail(w, http.StatusBadRequest, "topic required")
		return
	}

	creator, err := s.db.GetOrCreateUser(req.CreatorTelegramID, req.CreatorFirstName, req.CreatorLastName, req.CreatorUsername)
	if err != nil {
		log.Printf("Failed to resolve creator: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	cls, err := s.db.CreateClass(req.Topic, req.Description, req.ClassTime, creator.ID)
	if err != nil {
		log.Printf("Failed to create class: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to create class")
		return
	}
	writeJSON(w, http.StatusOK, cls)
}

func (s *Service) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req schema.ClassUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if !s.requireOwner(w, id, req.UpdaterTelegramID, "Not authorized to update this class") {
		return
	}

	cls, err := s.db.UpdateClass(id, req.UpdateData)
	if err != nil {
		log.Printf("Failed to update class %d: %v", id, err)
		writeDetail(w, http.StatusInternalServerError, "Failed to update class")
		return
	}
	writeJSON(w, http.StatusOK, cls)
}

func (s *Service) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	deleterID, err := strconv.ParseInt(r.URL.Query().Get("deleter_telegram_id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid deleter_telegram_id")
		return
	}

	if !s.requireOwner(w, id, deleterID, "Not authorized to delete this class") {
		return
	}

	if err := s.db.DeleteClass(id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeDetail(w, http.StatusNotFound, "Class not found")
			return
		}
		log.Printf("Failed to delete class %d: %v", id, err)
		writeDetail(w, http.StatusInternalServerError, "Failed to cancel class")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted", "class_id": id})
}

func (s *Service) handleRSVP(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req schema.RsvpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	switch req.Status {
	case schema.StatusYes, schema.StatusNo, schema.StatusTentative:
	default:
		writeDetail(w, http.StatusBadRequest, "invalid RSVP status")
		return
	}

	if _, err := s.db.GetClass(id); err != nil {
		writeDetail(w, http.StatusNotFound, "Class not found")
		return
	}

	user, err := s.db.GetOrCreateUser(req.TelegramID, req.FirstName, req.LastName, req.Username)
	if err != nil {
		log.Printf("Failed to resolve user: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	rsvp, err := s.db.UpsertRSVP(id, user.ID, req.Status)
	if err != nil {
		log.Printf("Failed to record RSVP: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to RSVP")
		return
	}
	writeJSON(w, http.StatusOK, rsvp)
}

func (s *Service) handleQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req schema.QuestionCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		writeDetail(w, http.StatusBadRequest, "text required")
		return
	}

	if _, err := s.db.GetClass(id); err != nil {
		writeDetail(w, http.StatusNotFound, "Class not found")
		return
	}

	author, err := s.db.GetOrCreateUser(req.AuthorTelegramID, req.AuthorFirstName, req.AuthorLastName, req.AuthorUsername)
	if err != nil {
		log.Printf("Failed to resolve author: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to create user")
		return
	}

	question, err := s.db.CreateQuestion(id, author.ID, req.Text)
	if err != nil {
		log.Printf("Failed to create question: %v", err)
		writeDetail(w, http.StatusInternalServerError, "Failed to add question")
		return
	}
	writeJSON(w, http.StatusOK, question)
}

// requireOwner checks that the acting Telegram id owns the class. The
// target class itself is checked, not a stand-in.
func (s *Service) requireOwner(w http.ResponseWriter, classID, actorTelegramID int64, forbiddenMsg string) bool {
	user, err := s.db.GetUserByTelegramID(actorTelegramID)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return false
	}

	cls, err := s.db.GetClass(classID)
	if err != nil {
		writeDetail(w, http.StatusNotFound, "Class not found")
		return false
	}

	if cls.CreatorID != user.ID {
		writeDetail(w, http.StatusForbidden, forbiddenMsg)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeDetail(w, http.StatusBadRequest, "Invalid class ID")
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, def int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to write JSON response: %v", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, schema.ErrorResponse{Detail: detail})
}
