package server

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lucas/course-foundry/internal/pipeline"
	"github.com/lucas/course-foundry/internal/types"
)

// GenerateRequest is the request body for /api/courses/generate.
type GenerateRequest struct {
	Topic          string `json:"topic"`
	Purpose        string `json:"purpose,omitempty"`
	EducationLevel string `json:"educationLevel,omitempty"`
	PriorKnowledge string `json:"priorKnowledge,omitempty"`
	LearningStyle  string `json:"learningStyle,omitempty"`
}

func (req *GenerateRequest) profile() types.LearnerProfile {
	return types.LearnerProfile{
		Topic:          req.Topic,
		Purpose:        req.Purpose,
		EducationLevel: req.EducationLevel,
		PriorKnowledge: req.PriorKnowledge,
		LearningStyle:  req.LearningStyle,
	}
}

// GenerateResponse is the response for /api/courses/generate. ID is empty
// for ephemeral generations that were not persisted.
type GenerateResponse struct {
	ID     string                `json:"id,omitempty"`
	Course *types.CourseDocument `json:"course"`
}

// ProgressRequest is the request body for /api/courses/progress.
type ProgressRequest struct {
	CourseID  string  `json:"courseId"`
	LessonID  string  `json:"lessonId"`
	Completed bool    `json:"completed"`
	Score     float64 `json:"score"`
}

// handleGenerate runs the full pipeline synchronously. Authenticated courses
// are saved before the response; anonymous ones are returned without being
// stored.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	p := pipeline.New(s.client, s.opts)
	course, err := p.Run(r.Context(), req.profile())
	if err != nil {
		s.logger.Error("generation failed", zap.Error(err))
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	userID, authed := s.userFromRequest(r)
	if !authed || s.db == nil {
		s.jsonResponse(w, http.StatusOK, GenerateResponse{Course: course})
		return
	}

	courseID, err := s.db.SaveCourse(r.Context(), userID, course)
	if err != nil {
		s.logger.Error("failed to save course", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "course generated but could not be saved")
		return
	}

	s.jsonResponse(w, http.StatusCreated, GenerateResponse{ID: courseID.String(), Course: course})
}

// handleGenerateStream runs the pipeline and streams stage progress over
// Server-Sent Events, ending with a complete or error event.
func (s *Server) handleGenerateStream(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	opts := s.opts
	opts.OnProgress = func(event pipeline.ProgressEvent) {
		sse.WriteEvent("progress", event) //nolint:errcheck
	}

	p := pipeline.New(s.client, opts)
	course, err := p.Run(r.Context(), req.profile())
	if err != nil {
		s.logger.Error("generation failed", zap.Error(err))
		sse.WriteError(err.Error())
		return
	}

	userID, authed := s.userFromRequest(r)
	if !authed || s.db == nil {
		sse.WriteComplete("", course)
		return
	}

	courseID, err := s.db.SaveCourse(r.Context(), userID, course)
	if err != nil {
		s.logger.Error("failed to save course", zap.Error(err))
		sse.WriteError("course generated but could not be saved")
		return
	}
	sse.WriteComplete(courseID.String(), course)
}

// handleGetCourse returns a stored course with its full module/lesson tree.
func (s *Server) handleGetCourse(w http.ResponseWriter, r *http.Request) {
	userID, courseID, ok := s.authedCourseRequest(w, r)
	if !ok {
		return
	}

	record, err := s.db.GetCourse(r.Context(), courseID, userID)
	if err != nil {
		s.logger.Error("failed to get course", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to load course")
		return
	}
	if record == nil {
		s.errorResponse(w, http.StatusNotFound, "course not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, record)
}

// handleListCourses returns the authenticated user's courses, newest first.
func (s *Server) handleListCourses(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireAuth(w, r)
	if !ok {
		return
	}

	summaries, err := s.db.ListCourses(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to list courses", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list courses")
		return
	}

	s.jsonResponse(w, http.StatusOK, summaries)
}

// handleDeleteCourse removes a stored course.
func (s *Server) handleDeleteCourse(w http.ResponseWriter, r *http.Request) {
	userID, courseID, ok := s.authedCourseRequest(w, r)
	if !ok {
		return
	}

	if err := s.db.DeleteCourse(r.Context(), courseID, userID); err != nil {
		status := HTTPStatus(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("failed to delete course", zap.Error(err))
		}
		s.errorResponse(w, status, err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleUpsertProgress records lesson completion for the authenticated user.
func (s *Server) handleUpsertProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.requireAuth(w, r)
	if !ok {
		return
	}

	var req ProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	courseID, err := uuid.Parse(req.CourseID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid courseId format")
		return
	}
	lessonID, err := uuid.Parse(req.LessonID)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid lessonId format")
		return
	}

	if err := s.db.UpsertProgress(r.Context(), userID, courseID, lessonID, req.Completed, req.Score); err != nil {
		s.logger.Error("failed to upsert progress", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to save progress")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "saved"})
}

// handleListProgress returns the user's progress records for one course.
func (s *Server) handleListProgress(w http.ResponseWriter, r *http.Request) {
	userID, courseID, ok := s.authedCourseRequest(w, r)
	if !ok {
		return
	}

	records, err := s.db.ListProgress(r.Context(), userID, courseID)
	if err != nil {
		s.logger.Error("failed to list progress", zap.Error(err))
		s.errorResponse(w, http.StatusInternalServerError, "failed to list progress")
		return
	}

	s.jsonResponse(w, http.StatusOK, records)
}

// requireAuth rejects the request unless it carries a valid bearer token and
// persistence is configured.
func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	if s.db == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "persistence is not configured")
		return uuid.Nil, false
	}
	userID, authed := s.userFromRequest(r)
	if !authed {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return uuid.Nil, false
	}
	return userID, true
}

// authedCourseRequest combines auth with parsing the course ID path value.
func (s *Server) authedCourseRequest(w http.ResponseWriter, r *http.Request) (userID, courseID uuid.UUID, ok bool) {
	userID, ok = s.requireAuth(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	courseID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid course ID format")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, courseID, true
}
