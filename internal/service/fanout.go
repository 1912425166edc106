package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"paybridge/internal/domain"
	"paybridge/internal/models"
	"paybridge/pkg/payment"

	"go.uber.org/zap"
)

// PaidOrder is what the fan-out knows about an order once payment is settled.
type PaidOrder struct {
	OrderID       string
	AmountMinor   int64
	Status        string
	GatewayState  string
	TransactionID string
	Source        string
	Customer      payment.Customer
	VerifiedAt    time.Time
	// PointsEarned is what this delivery of the order added; zero on a repeat.
	PointsEarned  int64
}

// PaidOrderFromResult builds the fan-out input from a successful verification.
func PaidOrderFromResult(res *payment.VerificationResult, at time.Time) PaidOrder {
	return PaidOrder{
		OrderID:       res.OrderID,
		AmountMinor:   res.AmountMinor,
		Status:        domain.OrderStatusPaid,
		GatewayState:  res.GatewayState,
		TransactionID: res.TransactionID,
		Source:        domain.OrderSourceVerify,
		Customer:      res.Customer,
		VerifiedAt:    at,
	}
}

func (o PaidOrder) model() *models.Order {
	m := &models.Order{
		OrderID:       o.OrderID,
		AmountMinor:   o.AmountMinor,
		Currency:      domain.DefaultCurrency,
		Status:        o.Status,
		GatewayState:  o.GatewayState,
		Source:        o.Source,
		TransactionID: o.TransactionID,
		CustomerID:    o.Customer.ID,
		CustomerName:  o.Customer.Name,
		CustomerEmail: o.Customer.Email,
		CustomerPhone: o.Customer.Phone,
	}
	if !o.VerifiedAt.IsZero() {
		at := o.VerifiedAt
		m.VerifiedAt = &at
	}
	if m.Status == "" {
		m.Status = domain.OrderStatusPaid
	}
	return m
}

type OrderStore interface {
	Upsert(ctx context.Context, o *models.Order) error
}

type RewardAccruer interface {
	Accrue(ctx context.Context, orderID, customerID string, amountMinor int64) (int64, error)
}

type Mailer interface {
	SendCustomerConfirmation(ctx context.Context, o PaidOrder) error
	SendAdminNotification(ctx context.Context, o PaidOrder) error
}

type Texter interface {
	SendOrderConfirmation(ctx context.Context, o PaidOrder) error
}

type Pusher interface {
	NotifyOrderPaid(ctx context.Context, o PaidOrder) error
}

// FanOutDeps wires the side-effect targets. Any nil member is skipped.
type FanOutDeps struct {
	Orders  OrderStore
	Rewards RewardAccruer
	Mail    Mailer
	SMS     Texter
	Push    Pusher
}

// FanOut runs the best-effort side effects of a settled order. Persistence is
// awaited by the caller; every other task runs in its own goroutine and never
// affects its siblings or the HTTP response.
type FanOut struct {
	deps           FanOutDeps
	log            *zap.Logger
	persistTimeout time.Duration
	taskTimeout    time.Duration
	inflight       sync.WaitGroup
}

func NewFanOut(deps FanOutDeps, taskTimeout time.Duration, log *zap.Logger) *FanOut {
	if taskTimeout <= 0 {
		taskTimeout = 15 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FanOut{deps: deps, log: log, persistTimeout: taskTimeout, taskTimeout: taskTimeout}
}

// Dispatch tracks the background tasks started for one order.
type Dispatch struct {
	wg sync.WaitGroup
}

// Wait blocks until every task of the dispatch has finished.
func (d *Dispatch) Wait() {
	if d != nil {
		d.wg.Wait()
	}
}

// Persist upserts the order and returns the storage error, if any.
func (f *FanOut) Persist(ctx context.Context, o PaidOrder) error {
	if f.deps.Orders == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, f.persistTimeout)
	defer cancel()
	return f.deps.Orders.Upsert(ctx, o.model())
}

// OnVerifiedSuccess persists the order, then launches reward accrual, both
// emails, SMS and the admin push. Persistence failures are reported and swallowed.
func (f *FanOut) OnVerifiedSuccess(ctx context.Context, o PaidOrder) *Dispatch {
	if err := f.Persist(ctx, o); err != nil {
		f.report("persist_order", o, err)
	}
	d := &Dispatch{}
	var accrued chan int64
	if f.deps.Rewards != nil {
		accrued = make(chan int64, 1)
		f.spawn(ctx, d, "reward", o, func(ctx context.Context) error {
			var added int64
			defer func() { accrued <- added }()
			added, err := f.deps.Rewards.Accrue(ctx, o.OrderID, o.Customer.ID, o.AmountMinor)
			if err == nil && added > 0 {
				f.log.Info("reward points added", zap.String("order_id", o.OrderID), zap.String("customer_id", o.Customer.ID), zap.Int64("points", added))
			}
			return err
		})
	}
	if f.deps.Mail != nil {
		f.spawn(ctx, d, "customer_email", o, func(ctx context.Context) error {
			msg := o
			if accrued != nil {
				select {
				case msg.PointsEarned = <-accrued:
				case <-ctx.Done():
				}
			}
			return f.deps.Mail.SendCustomerConfirmation(ctx, msg)
		})
		f.spawn(ctx, d, "admin_email", o, func(ctx context.Context) error {
			return f.deps.Mail.SendAdminNotification(ctx, o)
		})
	}
	if f.deps.SMS != nil {
		f.spawn(ctx, d, "sms", o, func(ctx context.Context) error {
			return f.deps.SMS.SendOrderConfirmation(ctx, o)
		})
	}
	if f.deps.Push != nil {
		f.spawn(ctx, d, "admin_push", o, func(ctx context.Context) error {
			return f.deps.Push.NotifyOrderPaid(ctx, o)
		})
	}
	return d
}

// OnOrderSaved notifies the admin about a manually saved order.
func (f *FanOut) OnOrderSaved(ctx context.Context, o PaidOrder) *Dispatch {
	d := &Dispatch{}
	if f.deps.Mail != nil {
		f.spawn(ctx, d, "admin_email", o, func(ctx context.Context) error {
			return f.deps.Mail.SendAdminNotification(ctx, o)
		})
	}
	return d
}

// Wait blocks until all dispatches started so far have finished. Used on shutdown.
func (f *FanOut) Wait() {
	f.inflight.Wait()
}

func (f *FanOut) spawn(parent context.Context, d *Dispatch, task string, o PaidOrder, fn func(ctx context.Context) error) {
	d.wg.Add(1)
	f.inflight.Add(1)
	go func() {
		defer f.inflight.Done()
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				f.report(task, o, fmt.Errorf("panic: %v", r))
			}
		}()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), f.taskTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			f.report(task, o, err)
		}
	}()
}

func (f *FanOut) report(task string, o PaidOrder, err error) {
	nerr := payment.NewError(payment.KindNotification, "fanout."+task, "side effect failed", nil, err)
	f.log.Warn("notification task failed",
		zap.String("task", task),
		zap.String("order_id", o.OrderID),
		zap.Error(nerr),
	)
}
