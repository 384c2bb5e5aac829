package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dvloznov/receipt-ledger/internal/api/middleware"
	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
	"github.com/dvloznov/receipt-ledger/internal/pipeline"
)

// Multipart field names that may carry receipt images.
var receiptFields = []string{"images", "image"}

const defaultMultipartMemory = 32 << 20

// AIHandler handles the model backed endpoints.
type AIHandler struct {
	ingester ReceiptIngester
	advisor  FinanceAdvisor
}

// NewAIHandler creates a new AI handler.
func NewAIHandler(ingester ReceiptIngester, advisor FinanceAdvisor) *AIHandler {
	return &AIHandler{ingester: ingester, advisor: advisor}
}

type promptRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

// Status handles GET /api/ai
func (h *AIHandler) Status(w http.ResponseWriter, r *http.Request) {
	text, err := h.advisor.Status(r.Context())
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("AI status check failed")
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, Envelope{
		Body:    text,
		Message: "AI service is running successfully",
		Success: true,
	})
}

// Prompt handles POST /api/ai/prompt
func (h *AIHandler) Prompt(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := decodeAndValidate(r, "Prompt", &req); err != nil {
		middleware.WriteAppError(w, err)
		return
	}

	text, err := h.advisor.Prompt(r.Context(), req.Prompt)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("AI prompt failed")
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, Envelope{Message: text, Success: true})
}

// AnalyzeReceipt handles POST /api/ai/analyze-receipt. The multipart form
// carries user_id and one or more image files.
func (h *AIHandler) AnalyzeReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(defaultMultipartMemory); err != nil {
		middleware.WriteIngestionError(w,
			domain.NewError(domain.KindInvalidInput, "AnalyzeReceipt", "expected a multipart form", err),
			string(pipeline.StageReceived))
		return
	}
	defer r.MultipartForm.RemoveAll()

	uploads, err := readUploads(r.MultipartForm)
	if err != nil {
		middleware.WriteIngestionError(w, err, string(pipeline.StageReceived))
		return
	}

	result, err := h.ingester.Ingest(ctx, r.FormValue("user_id"), uploads)
	if err != nil {
		stage := ""
		if result != nil {
			stage = string(result.FailedStage)
		}
		middleware.WriteIngestionError(w, err, stage)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// AnalyzeTransactions handles GET /api/ai/analyze-transaction?user_id=
func (h *AIHandler) AnalyzeTransactions(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	text, err := h.advisor.Summarize(r.Context(), userID)
	if err != nil {
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Str("user_id", userID).Msg("Financial summary failed")
		middleware.WriteAppError(w, err)
		return
	}

	middleware.WriteText(w, http.StatusOK, text)
}

// readUploads collects every file under the receipt fields in form order.
func readUploads(form *multipart.Form) ([]domain.ReceiptUpload, error) {
	var uploads []domain.ReceiptUpload
	for _, field := range receiptFields {
		for _, fh := range form.File[field] {
			data, err := readFile(fh)
			if err != nil {
				return nil, domain.NewError(domain.KindInvalidInput, "AnalyzeReceipt",
					fmt.Sprintf("reading upload %q", fh.Filename), err)
			}
			uploads = append(uploads, domain.ReceiptUpload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}
	return uploads, nil
}

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
