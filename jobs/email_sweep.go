package jobs

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/mailer"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/metrics"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const kindPromo = "promo"

// SweepStore is the slice of the store the sweep reads and flags.
type SweepStore interface {
	OrdersAwaitingEmail(ctx context.Context, kind database.OrderEmail, limit int64) ([]models.Order, error)
	MarkOrderEmailSent(ctx context.Context, id primitive.ObjectID, kind database.OrderEmail, at time.Time) (bool, error)
	UsersDueForPromo(ctx context.Context, sentBefore time.Time, limit int64) ([]models.User, error)
	MarkPromoSent(ctx context.Context, id primitive.ObjectID, sentBefore, at time.Time) (bool, error)
}

type SweepOptions struct {
	Interval      time.Duration
	Batch         int64
	PromoInterval time.Duration
}

type SweepHealth struct {
	Running   bool      `json:"running"`
	LastTick  time.Time `json:"lastTick"`
	LastError string    `json:"lastError,omitempty"`
	Sent      int64     `json:"sent"`
	Failed    int64     `json:"failed"`
	Skipped   int64     `json:"skippedTicks"`
}

// EmailSweep periodically sends the order and promotional emails that are
// still unflagged. Each record is flagged after a successful send with a
// conditional update, so repeated ticks and parallel instances do not resend.
type EmailSweep struct {
	store   SweepStore
	mail    mailer.Mailer
	log     logger.Logger
	metrics *metrics.Metrics
	opts    SweepOptions
	now     func() time.Time

	busy atomic.Bool

	mu     sync.Mutex
	health SweepHealth
}

func NewEmailSweep(store SweepStore, mail mailer.Mailer, log logger.Logger, m *metrics.Metrics, opts SweepOptions) *EmailSweep {
	return &EmailSweep{
		store:   store,
		mail:    mail,
		log:     log,
		metrics: m,
		opts:    opts,
		now:     time.Now,
	}
}

// Run ticks until ctx is cancelled and waits for the in-flight tick.
func (s *EmailSweep) Run(ctx context.Context) {
	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.mu.Lock()
	s.health.Running = true
	s.mu.Unlock()
	s.log.Infow("email sweep started", "interval", s.opts.Interval.String(), "batch", s.opts.Batch)

	var wg sync.WaitGroup
	defer func() {
		wg.Wait()
		s.mu.Lock()
		s.health.Running = false
		s.mu.Unlock()
		s.log.Infow("email sweep stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !s.busy.CompareAndSwap(false, true) {
				s.mu.Lock()
				s.health.Skipped++
				s.mu.Unlock()
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer s.busy.Store(false)
				s.Tick(ctx)
			}()
		}
	}
}

// Tick runs one full pass: order received, order delivered, promotions.
func (s *EmailSweep) Tick(ctx context.Context) {
	s.sweepOrders(ctx, database.OrderEmailPending, mailer.OrderReceived)
	s.sweepOrders(ctx, database.OrderEmailDelivered, mailer.OrderDelivered)
	s.sweepPromos(ctx)

	s.mu.Lock()
	s.health.LastTick = s.now()
	s.mu.Unlock()
}

func (s *EmailSweep) Health() SweepHealth {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

func (s *EmailSweep) sweepOrders(ctx context.Context, kind database.OrderEmail, build func(*models.Order) (mailer.Message, error)) {
	orders, err := s.store.OrdersAwaitingEmail(ctx, kind, s.opts.Batch)
	if err != nil {
		s.recordError("list orders", err, "kind", string(kind))
		return
	}
	for i := range orders {
		if ctx.Err() != nil {
			return
		}
		o := &orders[i]
		msg, err := build(o)
		if err == nil {
			err = s.mail.Send(ctx, msg)
		}
		if err != nil {
			s.failed(string(kind), err, "order", o.Reference)
			continue
		}
		won, err := s.store.MarkOrderEmailSent(ctx, o.ID, kind, s.now())
		if err != nil {
			s.recordError("flag order email", err, "kind", string(kind), "order", o.Reference)
			continue
		}
		if !won {
			s.log.Debugw("order email already flagged", "kind", kind, "order", o.Reference)
		}
		s.sent(string(kind))
	}
}

func (s *EmailSweep) sweepPromos(ctx context.Context) {
	if s.opts.PromoInterval <= 0 {
		return
	}
	cutoff := s.now().Add(-s.opts.PromoInterval)
	users, err := s.store.UsersDueForPromo(ctx, cutoff, s.opts.Batch)
	if err != nil {
		s.recordError("list promo users", err)
		return
	}
	for i := range users {
		if ctx.Err() != nil {
			return
		}
		u := &users[i]
		msg, err := mailer.Promotion(u)
		if err == nil {
			err = s.mail.Send(ctx, msg)
		}
		if err != nil {
			s.failed(kindPromo, err, "user", u.Email)
			continue
		}
		if _, err := s.store.MarkPromoSent(ctx, u.ID, cutoff, s.now()); err != nil {
			s.recordError("flag promo email", err, "user", u.Email)
			continue
		}
		s.sent(kindPromo)
	}
}

func (s *EmailSweep) sent(kind string) {
	s.metrics.EmailsSent.WithLabelValues(kind).Inc()
	s.mu.Lock()
	s.health.Sent++
	s.mu.Unlock()
}

func (s *EmailSweep) failed(kind string, err error, kv ...interface{}) {
	s.metrics.EmailsFailed.WithLabelValues(kind).Inc()
	s.log.Warnw("email send failed", append([]interface{}{"kind", kind, "error", err}, kv...)...)
	s.mu.Lock()
	s.health.Failed++
	s.health.LastError = err.Error()
	s.mu.Unlock()
}

func (s *EmailSweep) recordError(op string, err error, kv ...interface{}) {
	s.log.Errorw("email sweep: "+op, append([]interface{}{"error", err}, kv...)...)
	s.mu.Lock()
	s.health.LastError = err.Error()
	s.mu.Unlock()
}
