package procurement

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	acctShared "github.com/meridian-erp/meridian-erp/internal/accounting/shared"
	"github.com/meridian-erp/meridian-erp/internal/money"
	"github.com/meridian-erp/meridian-erp/internal/platform/httpx"
	internalShared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// Handler exposes purchase order endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers purchase order routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/purchase-orders", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{id}", h.Get)
		r.Post("/{id}/receive", h.Receive)
		r.Post("/{id}/payments", h.Settle)
	})
}

type orderItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid4"`
	Quantity  int64  `json:"quantity" validate:"required,gt=0"`
	UnitPrice string `json:"unit_price"`
}

type createOrderRequest struct {
	SupplierID     string             `json:"supplier_id" validate:"required,uuid4"`
	WarehouseID    string             `json:"warehouse_id" validate:"omitempty,uuid4"`
	DiscountAmount string             `json:"discount_amount"`
	TaxAmount      string             `json:"tax_amount"`
	Notes          string             `json:"notes"`
	Items          []orderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type receiveRequest struct {
	WarehouseID string `json:"warehouse_id" validate:"required,uuid4"`
}

type settleRequest struct {
	PaidAmount string `json:"paid_amount" validate:"required"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{Limit: 50}
	if raw := r.URL.Query().Get("supplier_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier id")
			return
		}
		filter.SupplierID = id
	}
	if status := r.URL.Query().Get("status"); status != "" {
		filter.Status = OrderStatus(status)
	}
	orders, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list purchase orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchase_orders": orders, "total": total})
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
			return
		}
		h.logger.Error("get purchase order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier id")
		return
	}
	discount, err := money.ParseNonNegative(req.DiscountAmount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid discount_amount")
		return
	}
	tax, err := money.ParseNonNegative(req.TaxAmount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tax_amount")
		return
	}

	in := CreateOrderInput{
		SupplierID:     supplierID,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Notes:          req.Notes,
		UserID:         internalShared.UserFromContext(r.Context()),
	}
	if req.WarehouseID != "" {
		id, err := uuid.Parse(req.WarehouseID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid warehouse id")
			return
		}
		in.WarehouseID = &id
	}
	for _, itemReq := range req.Items {
		productID, err := uuid.Parse(itemReq.ProductID)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid product id")
			return
		}
		item := OrderItemInput{ProductID: productID, Quantity: itemReq.Quantity}
		if itemReq.UnitPrice != "" {
			price, err := money.ParseNonNegative(itemReq.UnitPrice)
			if err != nil {
				httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid unit_price")
				return
			}
			item.UnitPrice = &price
		}
		in.Items = append(in.Items, item)
	}

	order, err := h.service.Create(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoItems), errors.Is(err, ErrNegativeAmount):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		case errors.Is(err, ErrUnknownSupplier), errors.Is(err, ErrUnknownProduct):
			httpx.Problem(w, http.StatusUnprocessableEntity, "Unknown Reference", err.Error())
		case errors.Is(err, acctShared.ErrAccountConfigMissing):
			h.logger.Error("posting account missing", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "Configuration Error", err.Error())
		default:
			h.logger.Error("create purchase order", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	var req receiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid warehouse id")
		return
	}

	order, err := h.service.Receive(r.Context(), id, warehouseID, internalShared.UserFromContext(r.Context()))
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, ErrAlreadyReceived):
			httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
		case errors.Is(err, ErrMissingWarehouse):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("receive purchase order", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) Settle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid order id")
		return
	}
	var req settleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	paid, err := money.ParseNonNegative(req.PaidAmount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid paid_amount")
		return
	}

	order, err := h.service.Settle(r.Context(), id, SettleInput{
		PaidAmount: paid,
		UserID:     internalShared.UserFromContext(r.Context()),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotFound):
			httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
		case errors.Is(err, ErrNegativeAmount):
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		default:
			h.logger.Error("settle purchase order", slog.Any("error", err))
			httpx.RespondError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}
