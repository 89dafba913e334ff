package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/spigell/ainterviewer/internal/ai"
	"github.com/spigell/ainterviewer/internal/ingestion"
	"github.com/spigell/ainterviewer/internal/interview"
)

type errorBody struct {
	Error   string       `json:"error"`
	Session *sessionView `json:"session,omitempty"`
}

// HTTPStatus maps domain errors onto response codes.
func HTTPStatus(err error) int {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, errSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, interview.ErrMissingDocuments),
		errors.Is(err, interview.ErrEmptyAnswer),
		errors.Is(err, ingestion.ErrUnsupportedType),
		errors.Is(err, ingestion.ErrEmptyDocument),
		errors.Is(err, ingestion.ErrBinaryText):
		return http.StatusBadRequest
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, interview.ErrInvalidTransition),
		errors.Is(err, interview.ErrWrongState),
		errors.Is(err, interview.ErrQuestionPending),
		errors.Is(err, interview.ErrAnswerPending),
		errors.Is(err, interview.ErrOutOfTurn),
		errors.Is(err, interview.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, ai.ErrQuestionFailed),
		errors.Is(err, ai.ErrAnalysisFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// validationMessage renders validator errors using the json field names.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}

	return strings.Join(msgs, "; ")
}
