package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/fridgelingo/fridgelingo/internal/core"
	"github.com/fridgelingo/fridgelingo/internal/domain"
	"github.com/fridgelingo/fridgelingo/internal/parser"
)

// DefaultMaxUploadBytes bounds multipart uploads when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// Service is the fridge pipeline as seen by the HTTP layer.
type Service interface {
	SubmitImage(ctx context.Context, image []byte, targetLang, nativeLang string) ([]core.EnrichedQuestion, error)
	ImportDocument(ctx context.Context, r io.Reader, filename, targetLang, nativeLang string) (*core.ImportResult, error)
	ListFridge(ctx context.Context) ([]core.FridgeItem, error)
	GetItem(ctx context.Context, wordID int64) (core.FridgeItem, error)
	DeleteItem(ctx context.Context, wordID int64) error
	ReviewItem(ctx context.Context, wordID int64) (core.ReviewAck, error)
	GetQuiz(ctx context.Context, wordID int64) (domain.Quiz, error)
	GetStats(ctx context.Context) (domain.Stats, error)
}

// Handler contains all HTTP handlers.
type Handler struct {
	svc            Service
	maxUploadBytes int64
	log            *slog.Logger
}

// NewHandler creates a Handler. A non-positive maxUploadBytes means
// DefaultMaxUploadBytes.
func NewHandler(svc Service, maxUploadBytes int64, logger *slog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handler{
		svc:            svc,
		maxUploadBytes: maxUploadBytes,
		log:            logger.With("component", "api"),
	}
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/quiz/generate", h.GenerateQuiz)
	mux.HandleFunc("POST /api/import", h.ImportList)
	mux.HandleFunc("GET /api/fridge/items", h.ListItems)
	mux.HandleFunc("GET /api/fridge/items/{wordId}", h.GetItem)
	mux.HandleFunc("DELETE /api/fridge/items/{wordId}", h.DeleteItem)
	mux.HandleFunc("POST /api/fridge/review/{wordId}", h.ReviewItem)
	mux.HandleFunc("GET /api/fridge/quiz-by-word/{wordId}", h.QuizByWord)
	mux.HandleFunc("GET /api/stats", h.GetStats)
}

// GenerateQuiz handles POST /api/quiz/generate.
func (h *Handler) GenerateQuiz(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No image uploaded")
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to read image")
		return
	}
	if len(image) == 0 {
		respondError(w, http.StatusBadRequest, "Image file is empty.")
		return
	}

	questions, err := h.svc.SubmitImage(r.Context(), image, r.FormValue("targetLang"), r.FormValue("nativeLang"))
	if err != nil {
		h.fail(w, r, "generate quiz", err)
		return
	}

	respondJSON(w, http.StatusOK, questions)
}

// ImportList handles POST /api/import.
func (h *Handler) ImportList(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if err := parser.ValidateFilename(header.Filename); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid filename: %v", err))
		return
	}

	if header.Size > parser.MaxFileSize {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("File too large (max %d bytes)", parser.MaxFileSize))
		return
	}

	result, err := h.svc.ImportDocument(r.Context(), file, header.Filename, r.FormValue("targetLang"), r.FormValue("nativeLang"))
	if err != nil {
		h.fail(w, r, "import list", err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ListItems handles GET /api/fridge/items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.ListFridge(r.Context())
	if err != nil {
		h.fail(w, r, "list fridge", err)
		return
	}

	respondJSON(w, http.StatusOK, items)
}

// GetItem handles GET /api/fridge/items/{wordId}.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseWordID(w, r)
	if !ok {
		return
	}

	item, err := h.svc.GetItem(r.Context(), id)
	if err != nil {
		h.fail(w, r, "get item", err)
		return
	}

	respondJSON(w, http.StatusOK, item)
}

// DeleteItem handles DELETE /api/fridge/items/{wordId}.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseWordID(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteItem(r.Context(), id); err != nil {
		h.fail(w, r, "delete item", err)
		return
	}

	respondJSON(w, http.StatusOK, SuccessResponse{Message: "Item deleted successfully"})
}

// ReviewItem handles POST /api/fridge/review/{wordId}.
func (h *Handler) ReviewItem(w http.ResponseWriter, r *http.Request) {
	id, ok := parseWordID(w, r)
	if !ok {
		return
	}

	ack, err := h.svc.ReviewItem(r.Context(), id)
	if err != nil {
		h.fail(w, r, "review item", err)
		return
	}

	respondJSON(w, http.StatusOK, ack)
}

// QuizByWord handles GET /api/fridge/quiz-by-word/{wordId}.
func (h *Handler) QuizByWord(w http.ResponseWriter, r *http.Request) {
	id, ok := parseWordID(w, r)
	if !ok {
		return
	}

	quiz, err := h.svc.GetQuiz(r.Context(), id)
	if err != nil {
		h.fail(w, r, "quiz by word", err)
		return
	}

	respondJSON(w, http.StatusOK, quiz)
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.GetStats(r.Context())
	if err != nil {
		h.fail(w, r, "stats", err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// fail maps a service error to its HTTP status. Server-side failures are
// logged; client errors are only returned.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), op+" failed", slog.String("error", err.Error()))
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUpstreamUnavailable), errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseWordID extracts and validates the "wordId" path parameter.
// Returns the parsed ID and true on success, or writes an error response and returns false.
func parseWordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("wordId"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "Invalid word ID")
		return 0, false
	}
	return id, true
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondError sends an error JSON response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
