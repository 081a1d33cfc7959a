package server

import (
	"errors"
	"net/http"

	"github.com/lucas/course-foundry/internal/db"
	"github.com/lucas/course-foundry/internal/pipeline"
)

// HTTPStatus maps an error to the response status code. Bad learner input is
// the caller's fault; a stage failure means the upstream model could not
// produce a usable course.
func HTTPStatus(err error) int {
	var inputErr *pipeline.InputValidationError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest
	}
	if _, ok := pipeline.AsPipelineError(err); ok {
		return http.StatusBadGateway
	}
	if errors.Is(err, db.ErrNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
