package transport

import (
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest represents the add-to-cart request payload
type AddToCartRequest struct {
	Product string `json:"product" validate:"required,uuid"`
}

// UpdateCartRequest represents the quantity update request payload
type UpdateCartRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// CartHandler handles HTTP requests for cart operations
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers all cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/add", h.Add)
		r.Get("/", h.Fetch)
		r.Put("/", h.Update)
		r.Delete("/{id}", h.Remove)
	})
}

// requestUserID extracts the authenticated user's id from the context.
func requestUserID(r *http.Request) (uuid.UUID, bool) {
	raw, ok := middleware.GetUserID(r.Context())
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// Add handles adding one unit of a product to the cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Add to cart validation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	productID, err := uuid.Parse(req.Product)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.cartService.Add(r.Context(), userID, productID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Product added to cart"})
}

// Fetch handles reading the cart snapshot with totals
func (h *CartHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requestUserID(r)
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	snapshot, err := h.cartService.Snapshot(r.Context(), userID)
	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, snapshot)
}

// Update handles quantity increments and decrements (?action=inc|dec)
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestUserID(r); !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	var req UpdateCartRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Cart update validation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lineID, err := uuid.Parse(req.ID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cart line id")
		return
	}

	switch r.URL.Query().Get("action") {
	case "inc":
		err = h.cartService.Increment(r.Context(), lineID)
	case "dec":
		err = h.cartService.Decrement(r.Context(), lineID)
	default:
		middleware.RespondWithError(w, http.StatusBadRequest, "action must be inc or dec")
		return
	}

	if err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Cart Updated"})
}

// Remove handles deleting a cart line
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if _, ok := requestUserID(r); !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "invalid user context")
		return
	}

	lineID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid cart line id")
		return
	}

	if err := h.cartService.Remove(r.Context(), lineID); err != nil {
		respondServiceError(w, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Product removed from cart"})
}
