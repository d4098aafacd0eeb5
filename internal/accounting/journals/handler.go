package journals

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes journal endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers journal routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/journal-entries", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)
		r.Post("/", h.Post)
	})
}

type postLineRequest struct {
	AccountID   string `json:"account_id" validate:"required,uuid4"`
	Debit       string `json:"debit"`
	Credit      string `json:"credit"`
	Description string `json:"description"`
}

type postRequest struct {
	Date        string            `json:"date"`
	Description string            `json:"description" validate:"required"`
	Type        string            `json:"type"`
	Lines       []postLineRequest `json:"lines" validate:"required,min=2,dive"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: 50}
	if t := r.URL.Query().Get("type"); t != "" {
		filter.Type = EntryType(t)
	}
	entries, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list journal entries", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"journal_entries": entries, "total": total})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid journal entry id")
		return
	}
	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrJournalNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("get journal entry", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, entry)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	in := PostingInput{
		Description: req.Description,
		Type:        EntryType(req.Type),
		UserID:      internalShared.UserFromContext(r.Context()),
	}
	if req.Date != "" {
		date, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid date")
			return
		}
		in.Date = date
	}
	for _, lineReq := range req.Lines {
		accountID, err := uuid.Parse(lineReq.AccountID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
			return
		}
		debit, err := money.ParseNonNegative(lineReq.Debit)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid debit amount")
			return
		}
		credit, err := money.ParseNonNegative(lineReq.Credit)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid credit amount")
			return
		}
		in.Lines = append(in.Lines, PostingLineInput{
			AccountID:   accountID,
			Debit:       debit,
			Credit:      credit,
			Description: lineReq.Description,
		})
	}

	entry, err := h.service.Post(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrUnbalanced),
			errors.Is(err, shared.ErrTooFewLines),
			errors.Is(err, shared.ErrMixedLine),
			errors.Is(err, shared.ErrNegativeAmount):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, shared.ErrUnknownAccount):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Account", err.Error())
		default:
			h.logger.Error("post journal entry", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, entry)
}
