package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind domain.ErrorKind
		want int
	}{
		{domain.KindInvalidInput, http.StatusBadRequest},
		{domain.KindNotFound, http.StatusNotFound},
		{domain.KindAIServiceUnavailable, http.StatusServiceUnavailable},
		{domain.KindMalformedAIOutput, http.StatusBadGateway},
		{domain.KindPersistenceError, http.StatusInternalServerError},
		{domain.KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := StatusFor(tt.kind); got != tt.want {
				t.Errorf("StatusFor(%q) = %d, want %d", tt.kind, got, tt.want)
			}
		})
	}
}

func TestWriteAppError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		want       ErrorResponse
	}{
		{
			name:       "classified",
			err:        domain.InvalidInputf("DecodeImages", "no images provided"),
			wantStatus: http.StatusBadRequest,
			want:       ErrorResponse{Error: domain.KindInvalidInput, Message: "no images provided"},
		},
		{
			name:       "wrapped not found",
			err:        fmt.Errorf("GetUser: %w", domain.ErrNotFound),
			wantStatus: http.StatusNotFound,
			want:       ErrorResponse{Error: domain.KindNotFound, Message: "GetUser: record not found"},
		},
		{
			name:       "internal hides detail",
			err:        errors.New("dial tcp: secret host"),
			wantStatus: http.StatusInternalServerError,
			want:       ErrorResponse{Error: domain.KindInternal, Message: "Internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteAppError(rec, tt.err)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var got ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decoding body: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestWriteIngestionError(t *testing.T) {
	rec := httptest.NewRecorder()
	err := &domain.Error{
		Kind:   domain.KindMalformedAIOutput,
		Op:     "ExtractCandidates",
		Detail: "no JSON array found in model output",
		Raw:    "I'm sorry, I could not read the receipt.",
	}

	WriteIngestionError(rec, err, "Extracting")

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadGateway)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	want := map[string]any{
		"error":     "MalformedAIOutput",
		"message":   "no JSON array found in model output",
		"stage":     "Extracting",
		"persisted": float64(0),
		"raw":       "I'm sorry, I could not read the receipt.",
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Errorf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestNewErrorResponse_Raw(t *testing.T) {
	long := strings.Repeat("é", MaxRawBytes)

	tests := []struct {
		name    string
		err     error
		wantRaw string
	}{
		{
			name:    "malformed output carries raw text",
			err:     &domain.Error{Kind: domain.KindMalformedAIOutput, Detail: "bad json", Raw: "[{"},
			wantRaw: "[{",
		},
		{
			name:    "raw text is truncated on a rune boundary",
			err:     &domain.Error{Kind: domain.KindMalformedAIOutput, Raw: long},
			wantRaw: long[:MaxRawBytes],
		},
		{
			name:    "other kinds never carry raw text",
			err:     &domain.Error{Kind: domain.KindInvalidInput, Detail: "nope", Raw: "secret"},
			wantRaw: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewErrorResponse(tt.err).Raw
			if got != tt.wantRaw {
				t.Errorf("Raw = %q (len %d), want len %d", got, len(got), len(tt.wantRaw))
			}
			if !utf8.ValidString(got) {
				t.Error("Raw is not valid UTF-8")
			}
		})
	}
}

func TestCORS(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{name: "no list allows all", origins: nil, origin: "http://a.test", method: http.MethodGet, wantOrigin: "*", wantStatus: http.StatusOK},
		{name: "listed origin echoed", origins: []string{"http://a.test"}, origin: "http://a.test", method: http.MethodGet, wantOrigin: "http://a.test", wantStatus: http.StatusOK},
		{name: "unlisted origin", origins: []string{"http://a.test"}, origin: "http://b.test", method: http.MethodGet, wantOrigin: "", wantStatus: http.StatusOK},
		{name: "preflight", origins: []string{"http://a.test"}, origin: "http://a.test", method: http.MethodOptions, wantOrigin: "http://a.test", wantStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/users", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			CORS(tt.origins)(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	var sawLogger bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawLogger = r.Context().Value(logger.LoggerKey).(zerolog.Logger)
	})
	h := RequestID(zerolog.Nop())(next)

	t.Run("generated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Header().Get(RequestIDHeader) == "" {
			t.Error("expected a generated request id")
		}
		if !sawLogger {
			t.Error("expected a logger in the request context")
		}
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
			t.Errorf("request id = %q, want %q", got, "abc-123")
		}
	})
}

func TestRecovery(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	rec := httptest.NewRecorder()

	Recovery(zerolog.Nop())(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	})

	Chain(final, mark("outer"), mark("inner")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if diff := cmp.Diff([]string{"outer", "inner", "handler"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}
