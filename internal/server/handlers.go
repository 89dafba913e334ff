package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/spigell/ainterviewer/internal/feedback"
	"github.com/spigell/ainterviewer/internal/ingestion"
	"github.com/spigell/ainterviewer/internal/interview"
	"github.com/spigell/ainterviewer/internal/logger"
)

const maxJSONBodyBytes = 1 << 20

type startRequest struct {
	Resume         string `json:"resume" validate:"required"`
	JobDescription string `json:"job_description" validate:"required"`
}

type answerRequest struct {
	Answer string `json:"answer" validate:"required"`
}

type documentResponse struct {
	Filename string `json:"filename"`
	Text     string `json:"text"`
}

type sessionView struct {
	ID       string             `json:"id"`
	State    interview.State    `json:"state"`
	Question string             `json:"question,omitempty"`
	Turns    []interview.Turn   `json:"turns"`
	Feedback string             `json:"feedback,omitempty"`
	Sections []feedback.Section `json:"sections,omitempty"`
	Busy     bool               `json:"busy"`
}

func newSessionView(id string, d *interview.Driver) *sessionView {
	snap := d.Snapshot()

	view := &sessionView{
		ID:       id,
		State:    snap.State,
		Turns:    snap.Turns,
		Feedback: snap.Feedback,
		Busy:     snap.Busy,
	}

	if view.Turns == nil {
		view.Turns = []interview.Turn{}
	}

	if n := len(snap.Turns); snap.State == interview.StateInterviewing && n > 0 && snap.Turns[n-1].Speaker == interview.SpeakerInterviewer {
		view.Question = snap.Turns[n-1].Text
	}

	if snap.Feedback != "" {
		view.Sections = feedback.Sections(snap.Feedback)
	}

	return view
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.metrics.Snapshot())
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if !s.decode(w, r, &req) {
		return
	}

	id, driver := s.registry.Create()

	if _, err := driver.Start(r.Context(), req.Resume, req.JobDescription); err != nil {
		if errors.Is(err, interview.ErrMissingDocuments) {
			_ = s.registry.Delete(id)
			s.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		s.sessionError(w, id, driver, err)
		return
	}

	s.jsonResponse(w, http.StatusCreated, newSessionView(id, driver))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, driver, ok := s.lookup(w, r)
	if !ok {
		return
	}

	s.jsonResponse(w, http.StatusOK, newSessionView(id, driver))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(r.PathValue("id")); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	id, driver, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req answerRequest
	if !s.decode(w, r, &req) {
		return
	}

	if _, err := driver.Answer(r.Context(), req.Answer); err != nil {
		s.sessionError(w, id, driver, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, newSessionView(id, driver))
}

func (s *Server) handleAskNext(w http.ResponseWriter, r *http.Request) {
	id, driver, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if _, err := driver.AskNext(r.Context()); err != nil {
		s.sessionError(w, id, driver, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, newSessionView(id, driver))
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	id, driver, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if _, err := driver.End(r.Context()); err != nil {
		s.sessionError(w, id, driver, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, newSessionView(id, driver))
}

func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	id, driver, ok := s.lookup(w, r)
	if !ok {
		return
	}

	if err := driver.Restart(); err != nil {
		s.sessionError(w, id, driver, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, newSessionView(id, driver))
}

// handleDocument extracts text from an uploaded resume or job description.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.cfg.MaxUploadBytes {
		s.errorResponse(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		s.errorResponse(w, status, fmt.Sprintf("reading upload: %v", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("reading upload: %v", err))
		return
	}

	text, err := ingestion.Extract(header.Filename, data)
	if err != nil {
		status := HTTPStatus(err)
		if status == http.StatusInternalServerError {
			status = http.StatusUnprocessableEntity
		}
		s.errorResponse(w, status, err.Error())
		return
	}

	s.logger.Debug("document extracted", zap.String("filename", header.Filename), zap.Int("chars", len(text)))

	s.jsonResponse(w, http.StatusOK, documentResponse{Filename: header.Filename, Text: text})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (string, *interview.Driver, bool) {
	id := r.PathValue("id")

	driver, err := s.registry.Get(id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return "", nil, false
	}

	return id, driver, true
}

// decode reads a JSON body into dst and validates it, answering 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	if err := json.NewDecoder(body).Decode(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}

	if err := s.validate.Struct(dst); err != nil {
		s.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return false
	}

	return true
}

// sessionError answers with the mapped status and the current session view so
// clients can offer a retry after a failed model call.
func (s *Server) sessionError(w http.ResponseWriter, id string, driver *interview.Driver, err error) {
	status := HTTPStatus(err)

	if status >= http.StatusInternalServerError {
		s.logger.Warn("session request failed",
			zap.String(logger.FieldSession, id),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	s.jsonResponse(w, status, errorBody{Error: err.Error(), Session: newSessionView(id, driver)})
}
