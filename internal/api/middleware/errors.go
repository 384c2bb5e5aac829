package middleware

import (
	"errors"
	"net/http"
	"unicode/utf8"

	"github.com/dvloznov/receipt-ledger/internal/domain"
)

// ErrorResponse is the body of every classified error.
type ErrorResponse struct {
	Error     domain.ErrorKind `json:"error"`
	Message   string           `json:"message"`
	Stage     string           `json:"stage,omitempty"`
	Persisted *int             `json:"persisted,omitempty"`
	// Raw is the offending model text, set for MalformedAIOutput only.
	Raw string `json:"raw,omitempty"`
}

// MaxRawBytes bounds the model text echoed back in an error body.
const MaxRawBytes = 2000

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindAIServiceUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindMalformedAIOutput:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteAppError writes err using its kind for the status code. Internal
// errors hide their detail.
func WriteAppError(w http.ResponseWriter, err error) {
	WriteJSON(w, StatusFor(domain.KindOf(err)), NewErrorResponse(err))
}

// WriteIngestionError is WriteAppError for ingestion requests: the body also
// names the failed stage and reports that nothing was persisted.
func WriteIngestionError(w http.ResponseWriter, err error, stage string) {
	resp := NewErrorResponse(err)
	resp.Stage = stage
	persisted := 0
	resp.Persisted = &persisted
	WriteJSON(w, StatusFor(resp.Error), resp)
}

// NewErrorResponse builds the JSON body for err.
func NewErrorResponse(err error) ErrorResponse {
	kind := domain.KindOf(err)
	msg := domain.DetailOf(err)
	if kind == domain.KindInternal {
		msg = "Internal server error"
	}
	resp := ErrorResponse{Error: kind, Message: msg}
	var de *domain.Error
	if kind == domain.KindMalformedAIOutput && errors.As(err, &de) {
		resp.Raw = truncateUTF8(de.Raw, MaxRawBytes)
	}
	return resp
}

func truncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
