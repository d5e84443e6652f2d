package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain"
	"storefront/internal/money"
	"storefront/internal/notification"
	"storefront/internal/payment"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptyCart = errors.New("your cart is empty")

	// ErrPaymentSessionInvalid wraps a provider failure while resolving a
	// checkout session.
	ErrPaymentSessionInvalid = payment.ErrSessionInvalid
)

// OrderStats is the admin stats view.
type OrderStats struct {
	COD    int                    `json:"cod"`
	Online int                    `json:"online"`
	Data   []repository.SoldCount `json:"data"`
}

// OrderService drives the cart-to-order path for both entry protocols. All
// state mutation of a checkout (order row, stock debit, cart clear) happens
// inside one transaction; confirmation notifications are queued after commit
// and never affect the outcome.
type OrderService interface {
	CheckoutCOD(ctx context.Context, userID uuid.UUID, phone, address string) (*domain.Order, error)
	CreatePaymentSession(ctx context.Context, userID uuid.UUID, phone, address string) (string, error)
	ConfirmPayment(ctx context.Context, sessionID string) (order *domain.Order, created bool, err error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	ListAll(ctx context.Context) ([]*domain.Order, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*domain.Order, error)
	Stats(ctx context.Context) (*OrderStats, error)
}

type orderService struct {
	store       repository.CheckoutStore
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	gateway     payment.Gateway
	dispatcher  notification.Dispatcher
	logger      *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	store repository.CheckoutStore,
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	gateway payment.Gateway,
	dispatcher notification.Dispatcher,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		store:       store,
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		gateway:     gateway,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// buildSnapshots converts cart lines into immutable order item snapshots and
// a subtotal. Name and price are copied so later catalog edits cannot reach
// into the order.
func buildSnapshots(lines []*domain.CartLine) ([]domain.OrderItem, decimal.Decimal, error) {
	items := make([]domain.OrderItem, 0, len(lines))
	subTotal := decimal.Zero

	for _, line := range lines {
		price, err := money.Parse(line.Product.Price)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("product %s: %w", line.ProductID, err)
		}
		subTotal = subTotal.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))

		items = append(items, domain.OrderItem{
			ID:        uuid.New(),
			ProductID: line.ProductID,
			Name:      line.Product.Title,
			Price:     line.Product.Price,
			Quantity:  line.Quantity,
		})
	}

	return items, subTotal, nil
}

// debitStock commits the stock decrement for every snapshot item. A product
// that no longer resolves is skipped and logged for reconciliation;
// insufficient stock aborts the whole checkout.
func (s *orderService) debitStock(ctx context.Context, tx repository.CheckoutTx, orderID uuid.UUID, items []domain.OrderItem) error {
	for _, item := range items {
		err := tx.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err == nil {
			continue
		}
		if errors.Is(err, repository.ErrProductNotFound) {
			s.logger.Warn("Stock debit skipped: product no longer exists",
				zap.String("order_id", orderID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
			)
			continue
		}
		return err
	}
	return nil
}

// CheckoutCOD converts the user's cart into a cash-on-delivery order.
func (s *orderService) CheckoutCOD(ctx context.Context, userID uuid.UUID, phone, address string) (*domain.Order, error) {
	var order *domain.Order

	err := s.store.RunCheckout(ctx, func(tx repository.CheckoutTx) error {
		lines, err := tx.LockCart(ctx, userID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		items, subTotal, err := buildSnapshots(lines)
		if err != nil {
			return err
		}

		now := time.Now()
		order = &domain.Order{
			ID:        uuid.New(),
			UserID:    userID,
			Items:     items,
			Method:    domain.MethodCOD,
			Status:    domain.StatusProcessing,
			Phone:     phone,
			Address:   address,
			SubTotal:  subTotal,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := s.debitStock(ctx, tx, order.ID, items); err != nil {
			return err
		}
		return tx.ClearCart(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, order)
	return order, nil
}

// checkoutIntent is the metadata attached to a payment session. It is the
// only channel carrying checkout intent across the external redirect and is
// sufficient to build the order without re-reading the cart: the line
// snapshot captured here is what gets ordered, even if the cart changes
// before the payment confirms.
type checkoutIntent struct {
	UserID   uuid.UUID         `json:"userId"`
	Phone    string            `json:"phone"`
	Address  string            `json:"address"`
	SubTotal string            `json:"subTotal"`
	Items    []checkoutLineRef `json:"items"`
}

type checkoutLineRef struct {
	Product  uuid.UUID `json:"product"`
	Name     string    `json:"name"`
	Price    string    `json:"price"`
	Quantity int       `json:"quantity"`
}

func (in checkoutIntent) toMetadata() (map[string]string, error) {
	items, err := json.Marshal(in.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode checkout items: %w", err)
	}

	return map[string]string{
		"userId":   in.UserID.String(),
		"method":   string(domain.MethodOnline),
		"phone":    in.Phone,
		"address":  in.Address,
		"subTotal": in.SubTotal,
		"items":    string(items),
	}, nil
}

func intentFromMetadata(md map[string]string) (*checkoutIntent, error) {
	userID, err := uuid.Parse(md["userId"])
	if err != nil {
		return nil, fmt.Errorf("session metadata has no valid userId: %w", err)
	}

	intent := &checkoutIntent{
		UserID:   userID,
		Phone:    md["phone"],
		Address:  md["address"],
		SubTotal: md["subTotal"],
	}

	if err := json.Unmarshal([]byte(md["items"]), &intent.Items); err != nil {
		return nil, fmt.Errorf("session metadata has no valid item snapshot: %w", err)
	}
	if len(intent.Items) == 0 {
		return nil, errors.New("session metadata carries an empty item snapshot")
	}

	return intent, nil
}

// CreatePaymentSession builds a provider-hosted checkout session mirroring
// the cart. No local order row is created until the payment confirms.
func (s *orderService) CreatePaymentSession(ctx context.Context, userID uuid.UUID, phone, address string) (string, error) {
	lines, err := s.cartRepo.ListByUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	items, subTotal, err := buildSnapshots(lines)
	if err != nil {
		return "", err
	}

	lineItems := make([]payment.LineItem, 0, len(lines))
	refs := make([]checkoutLineRef, 0, len(items))
	for _, item := range items {
		price, err := money.Parse(item.Price)
		if err != nil {
			return "", err
		}
		lineItems = append(lineItems, payment.LineItem{
			Name:       item.Name,
			UnitAmount: money.MinorUnits(price),
			Quantity:   int64(item.Quantity),
		})
		refs = append(refs, checkoutLineRef{
			Product:  item.ProductID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	metadata, err := checkoutIntent{
		UserID:   userID,
		Phone:    phone,
		Address:  address,
		SubTotal: subTotal.String(),
		Items:    refs,
	}.toMetadata()
	if err != nil {
		return "", err
	}

	session, err := s.gateway.CreateSession(ctx, lineItems, metadata)
	if err != nil {
		return "", err
	}

	return session.URL, nil
}

// ConfirmPayment finishes an online checkout. It is idempotent on the
// session id: a duplicate or concurrent confirmation finds the existing
// order and changes nothing (created == false), with no second stock debit
// and no second notification.
func (s *orderService) ConfirmPayment(ctx context.Context, sessionID string) (*domain.Order, bool, error) {
	session, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, payment.ErrSessionInvalid) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: %v", payment.ErrSessionInvalid, err)
	}

	// Fast path: a prior confirmation already created the order.
	if existing, err := s.orderRepo.FindByPaymentInfo(ctx, session.ID); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, repository.ErrOrderNotFound) {
		return nil, false, err
	}

	intent, err := intentFromMetadata(session.Metadata)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", payment.ErrSessionInvalid, err)
	}

	subTotal, err := decimal.NewFromString(intent.SubTotal)
	if err != nil {
		return nil, false, fmt.Errorf("%w: bad subTotal in session metadata", payment.ErrSessionInvalid)
	}

	var order *domain.Order
	err = s.store.RunCheckout(ctx, func(tx repository.CheckoutTx) error {
		items := make([]domain.OrderItem, 0, len(intent.Items))
		for _, ref := range intent.Items {
			items = append(items, domain.OrderItem{
				ID:        uuid.New(),
				ProductID: ref.Product,
				Name:      ref.Name,
				Price:     ref.Price,
				Quantity:  ref.Quantity,
			})
		}

		now := time.Now()
		order = &domain.Order{
			ID:          uuid.New(),
			UserID:      intent.UserID,
			Items:       items,
			Method:      domain.MethodOnline,
			Status:      domain.StatusProcessing,
			Phone:       intent.Phone,
			Address:     intent.Address,
			SubTotal:    subTotal,
			PaymentInfo: session.ID,
			PaidAt:      &now,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		// The unique index on payment_info makes this insert the atomic
		// idempotency guard: a concurrent confirmation for the same session
		// loses here and rolls back before touching stock.
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}
		if err := s.debitStock(ctx, tx, order.ID, items); err != nil {
			return err
		}
		return tx.ClearCart(ctx, intent.UserID)
	})
	if errors.Is(err, repository.ErrDuplicatePayment) {
		existing, ferr := s.orderRepo.FindByPaymentInfo(ctx, session.ID)
		if ferr != nil {
			return nil, false, fmt.Errorf("duplicate confirmation but prior order unreadable: %w", ferr)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	s.notify(ctx, order)
	return order, true, nil
}

// ListMine returns a user's orders, most recent first.
func (s *orderService) ListMine(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByUser(ctx, userID)
}

// ListAll returns every order with user detail (admin view).
func (s *orderService) ListAll(ctx context.Context) ([]*domain.Order, error) {
	return s.orderRepo.ListAll(ctx)
}

// Get returns a full order with items and user detail resolved.
func (s *orderService) Get(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, id)
}

// SetStatus moves an order through the fulfilment state machine. Unknown
// statuses and transitions outside the table are rejected.
func (s *orderService) SetStatus(ctx context.Context, id uuid.UUID, rawStatus string) (*domain.Order, error) {
	status, err := domain.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(order.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, status)
	}

	if err := s.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	order.Status = status
	return order, nil
}

// Stats returns the admin stats view: order counts per method and per-product
// sold units.
func (s *orderService) Stats(ctx context.Context) (*OrderStats, error) {
	cod, err := s.orderRepo.CountByMethod(ctx, domain.MethodCOD)
	if err != nil {
		return nil, err
	}

	online, err := s.orderRepo.CountByMethod(ctx, domain.MethodOnline)
	if err != nil {
		return nil, err
	}

	data, err := s.productRepo.SoldCounts(ctx)
	if err != nil {
		return nil, err
	}

	return &OrderStats{COD: cod, Online: online, Data: data}, nil
}

// notify queues a best-effort confirmation after the checkout transaction has
// committed. Lookup or delivery failures are logged and swallowed.
func (s *orderService) notify(ctx context.Context, order *domain.Order) {
	user, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil {
		s.logger.Error("Order committed but confirmation recipient unresolved",
			zap.Error(err),
			zap.String("order_id", order.ID.String()),
		)
		return
	}

	summary := notification.OrderSummary{
		OrderID:     order.ID.String(),
		TotalAmount: order.SubTotal.String(),
	}
	for _, item := range order.Items {
		summary.Items = append(summary.Items, notification.ItemSummary{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	s.dispatcher.Enqueue(notification.Message{
		Email:   user.Email,
		Subject: "Order Confirmation",
		Summary: summary,
	})
}
