package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes stock and movement endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers inventory routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/stock", func(r chi.Router) {
		r.Get("/", h.ListStock)
		r.Get("/movements", h.ListMovements)
		r.Post("/movements", h.Move)
	})
}

type moveRequest struct {
	ProductID       string `json:"product_id" validate:"required,uuid4"`
	Type            string `json:"type" validate:"required,oneof=IN OUT TRANSFER ADJUSTMENT"`
	Quantity        int64  `json:"quantity" validate:"required,gt=0"`
	FromWarehouseID string `json:"from_warehouse_id" validate:"omitempty,uuid4"`
	ToWarehouseID   string `json:"to_warehouse_id" validate:"omitempty,uuid4"`
	Notes           string `json:"notes"`
}

func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	var warehouseID uuid.UUID
	if raw := r.URL.Query().Get("warehouse_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid warehouse id")
			return
		}
		warehouseID = id
	}
	stock, err := h.service.ListStock(r.Context(), warehouseID)
	if err != nil {
		h.logger.Error("list stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"stock": stock})
}

func (h *Handler) ListMovements(w http.ResponseWriter, r *http.Request) {
	filter := MovementFilter{Limit: 50}
	if raw := r.URL.Query().Get("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
			return
		}
		filter.ProductID = id
	}
	if t := r.URL.Query().Get("type"); t != "" {
		filter.Type = MovementType(t)
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			filter.Limit = limit
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if offset, err := strconv.Atoi(raw); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	movements, total, err := h.service.ListMovements(r.Context(), filter)
	if err != nil {
		h.logger.Error("list stock movements", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"movements": movements, "total": total})
}

func (h *Handler) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
		return
	}
	in := MovementInput{
		ProductID: productID,
		Type:      MovementType(req.Type),
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	}
	if req.FromWarehouseID != "" {
		id, err := uuid.Parse(req.FromWarehouseID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid source warehouse id")
			return
		}
		in.FromWarehouseID = &id
	}
	if req.ToWarehouseID != "" {
		id, err := uuid.Parse(req.ToWarehouseID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid destination warehouse id")
			return
		}
		in.ToWarehouseID = &id
	}

	movement, err := h.service.Apply(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidQuantity),
			errors.Is(err, ErrMissingWarehouse),
			errors.Is(err, ErrUnknownMovementType):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, ErrInsufficientStock):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Insufficient Stock", err.Error())
		case errors.Is(err, internalShared.ErrMissingIdentity):
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
		default:
			h.logger.Error("apply stock movement", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, movement)
}
