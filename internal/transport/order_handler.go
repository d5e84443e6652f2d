package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NewOrderRequest represents the checkout request payload for both entry
// protocols
type NewOrderRequest struct {
	Method  string `json:"method"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address" validate:"required"`
}

// VerifyPaymentRequest represents the payment confirmation payload
type VerifyPaymentRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

// UpdateStatusRequest represents the admin status update payload
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler handles HTTP requests for checkout and order operations
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
		logger:       logger,
	}
}

// RegisterRoutes registers all order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)

		r.Post("/api/order/new/cod", h.CheckoutCOD)
		r.Post("/api/order/new/online", h.CheckoutOnline)
		r.Post("/api/order/verify/payment", h.VerifyPayment)
		r.Get("/api/order/all", h.ListMine)
		r.Get("/api/order/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Get("/api/order/admin/all", h.ListAll)
			r.Post("/api/order/{id}", h.UpdateStatus)
			r.Get("/api/stats", h.Stats)
		})
	})
}

// CheckoutCOD handles the synchronous cash-on-delivery checkout
func (h *OrderHandler) CheckoutCOD(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	var req NewOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("COD checkout validation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.CheckoutCOD(r.Context(), userID, req.Phone, req.Address)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("Order created",
		zap.String("order_id", order.ID.String()),
		zap.String("method", string(domain.MethodCOD)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Order created successfully",
		"order":   order,
	})
}

// CheckoutOnline handles hosted payment session creation
func (h *OrderHandler) CheckoutOnline(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	var req NewOrderRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Online checkout validation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	url, err := h.orderService.CreatePaymentSession(r.Context(), userID, req.Phone, req.Address)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"url": url})
}

// VerifyPayment handles the idempotent payment confirmation callback
func (h *OrderHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req VerifyPaymentRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Payment verification validation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, created, err := h.orderService.ConfirmPayment(r.Context(), req.SessionID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	message := "Order Created Successfully"
	if !created {
		// Duplicate confirmation is a success no-op so provider retries and
		// client polls stay safe.
		message = "Order already confirmed"
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": message,
		"order":   order,
	})
}

// ListMine handles listing the authenticated user's orders
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	orders, err := h.orderService.ListMine(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// ListAll handles the admin view of every order
func (h *OrderHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListAll(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// Get handles reading a single order with items and user detail
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	order, err := h.orderService.Get(r.Context(), orderID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// UpdateStatus handles the admin status transition
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req UpdateStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Status update validation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.SetStatus(r.Context(), orderID, req.Status)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Order status updated successfully",
		"order":   order,
	})
}

// Stats handles the admin stats view
func (h *OrderHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orderService.Stats(r.Context())
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, stats)
}
