package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher accepts confirmation messages for asynchronous delivery.
type Dispatcher interface {
	Enqueue(msg Message)
}

// Worker drains a buffered queue of confirmation messages through a Sender.
// Each send is bounded by a timeout; failures are logged distinctly so
// undelivered confirmations can be reconciled, and are never retried here.
type Worker struct {
	sender  Sender
	logger  *zap.Logger
	timeout time.Duration

	jobs chan Message
	once sync.Once
	wg   sync.WaitGroup
}

// NewWorker creates a Worker with the given queue capacity.
func NewWorker(sender Sender, logger *zap.Logger, buffer int, timeout time.Duration) *Worker {
	if buffer <= 0 {
		buffer = 64
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Worker{
		sender:  sender,
		logger:  logger,
		timeout: timeout,
		jobs:    make(chan Message, buffer),
	}
}

// Start launches the delivery goroutine.
func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for msg := range w.jobs {
			w.deliver(msg)
		}
	}()
}

// Enqueue hands a message to the worker without blocking checkout. When the
// queue is full the message is dropped and logged for reconciliation.
func (w *Worker) Enqueue(msg Message) {
	select {
	case w.jobs <- msg:
	default:
		w.logger.Error("Notification queue full, confirmation dropped",
			zap.String("order_id", msg.Summary.OrderID),
			zap.String("email", msg.Email),
		)
	}
}

// Stop closes the queue and waits for in-flight deliveries to finish.
func (w *Worker) Stop() {
	w.once.Do(func() {
		close(w.jobs)
	})
	w.wg.Wait()
}

func (w *Worker) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()

	if err := w.sender.Send(ctx, msg); err != nil {
		w.logger.Error("Order confirmation delivery failed",
			zap.Error(err),
			zap.String("order_id", msg.Summary.OrderID),
			zap.String("email", msg.Email),
		)
		return
	}

	w.logger.Info("Order confirmation sent",
		zap.String("order_id", msg.Summary.OrderID),
		zap.String("email", msg.Email),
	)
}
