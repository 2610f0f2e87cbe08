package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Madhav-Gupta-28/shopfront-backend-go/database"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/logger"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/mailer"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/metrics"
	"github.com/Madhav-Gupta-28/shopfront-backend-go/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeMailer struct {
	mu       sync.Mutex
	sent     []mailer.Message
	failNext map[string]int
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext[msg.To] > 0 {
		f.failNext[msg.To]--
		return errors.New("smtp unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeMailer) count(to string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.To == to {
			n++
		}
	}
	return n
}

func newSweep(store SweepStore, mail mailer.Mailer) (*EmailSweep, *metrics.Metrics) {
	m := metrics.New()
	return NewEmailSweep(store, mail, logger.Nop(), m, SweepOptions{
		Interval:      10 * time.Millisecond,
		Batch:         50,
		PromoInterval: 0,
	}), m
}

func TestSweepSendsPendingEmailOnce(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	mail := &fakeMailer{}
	sweep, m := newSweep(store, mail)

	o := &models.Order{Reference: "ORD-1", Email: "ann@example.com", UserID: primitive.NewObjectID()}
	if err := store.InsertOrder(ctx, o); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		sweep.Tick(ctx)
	}
	if n := mail.count("ann@example.com"); n != 1 {
		t.Fatalf("sent %d emails, want 1", n)
	}
	got, _ := store.FindOrder(ctx, o.ID)
	if !got.PendingEmailSent || got.PendingEmailSentAt == nil {
		t.Fatalf("flag not set: %+v", got)
	}
	if v := testutil.ToFloat64(m.EmailsSent.WithLabelValues(string(database.OrderEmailPending))); v != 1 {
		t.Fatalf("sent metric = %v", v)
	}
}

func TestSweepRetriesFailedSendNextTick(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	mail := &fakeMailer{failNext: map[string]int{"bob@example.com": 1}}
	sweep, m := newSweep(store, mail)

	bad := &models.Order{Reference: "ORD-BAD", Email: "bob@example.com"}
	good := &models.Order{Reference: "ORD-OK", Email: "cat@example.com"}
	store.InsertOrder(ctx, bad)
	store.InsertOrder(ctx, good)

	sweep.Tick(ctx)
	if mail.count("cat@example.com") != 1 {
		t.Fatal("failure of one send stopped the batch")
	}
	if mail.count("bob@example.com") != 0 {
		t.Fatal("failed send recorded as sent")
	}
	got, _ := store.FindOrder(ctx, bad.ID)
	if got.PendingEmailSent {
		t.Fatal("failed send was flagged")
	}
	if v := testutil.ToFloat64(m.EmailsFailed.WithLabelValues(string(database.OrderEmailPending))); v != 1 {
		t.Fatalf("failed metric = %v", v)
	}

	sweep.Tick(ctx)
	if mail.count("bob@example.com") != 1 {
		t.Fatal("failed send not retried")
	}
	if h := sweep.Health(); h.Sent != 2 || h.Failed != 1 {
		t.Fatalf("health = %+v", h)
	}
}

func TestSweepDeliveredEmail(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	mail := &fakeMailer{}
	sweep, _ := newSweep(store, mail)

	o := &models.Order{Reference: "ORD-2", Email: "dee@example.com"}
	store.InsertOrder(ctx, o)
	sweep.Tick(ctx)

	if _, err := store.SetOrderStatus(ctx, o.ID, o.Version, models.OrderStatusDelivered); err != nil {
		t.Fatal(err)
	}
	sweep.Tick(ctx)
	sweep.Tick(ctx)

	if n := mail.count("dee@example.com"); n != 2 {
		t.Fatalf("sent %d emails, want received + delivered", n)
	}
}

func TestSweepPromotions(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	mail := &fakeMailer{}
	m := metrics.New()
	sweep := NewEmailSweep(store, mail, logger.Nop(), m, SweepOptions{
		Interval:      time.Second,
		Batch:         10,
		PromoInterval: 24 * time.Hour,
	})

	u := &models.User{Name: "Eve", Email: "eve@example.com"}
	store.InsertUser(ctx, u)

	sweep.Tick(ctx)
	sweep.Tick(ctx)
	if n := mail.count("eve@example.com"); n != 1 {
		t.Fatalf("promo sent %d times", n)
	}

	sweep.now = func() time.Time { return time.Now().Add(25 * time.Hour) }
	sweep.Tick(ctx)
	if n := mail.count("eve@example.com"); n != 2 {
		t.Fatalf("promo not resent after interval: %d", n)
	}
}

func TestSweepRunStopsOnCancel(t *testing.T) {
	store := database.NewMemoryStore()
	mail := &fakeMailer{}
	sweep, _ := newSweep(store, mail)

	ctx, cancel := context.WithCancel(context.Background())
	store.InsertOrder(ctx, &models.Order{Reference: "ORD-3", Email: "fay@example.com"})

	done := make(chan struct{})
	go func() {
		sweep.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for mail.count("fay@example.com") == 0 {
		if time.Now().After(deadline) {
			t.Fatal("sweep never sent")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if sweep.Health().Running {
		t.Fatal("still reported running")
	}
}

// blockingMailer holds the first send until release is closed.
type blockingMailer struct {
	fakeMailer
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingMailer) Send(ctx context.Context, msg mailer.Message) error {
	b.once.Do(func() {
		close(b.entered)
		<-b.release
	})
	return b.fakeMailer.Send(ctx, msg)
}

func TestSweepSkipsTickWhileBusy(t *testing.T) {
	store := database.NewMemoryStore()
	mail := &blockingMailer{entered: make(chan struct{}), release: make(chan struct{})}
	sweep, _ := newSweep(store, mail)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.InsertOrder(ctx, &models.Order{Reference: "ORD-4", Email: "gus@example.com"})

	done := make(chan struct{})
	go func() {
		sweep.Run(ctx)
		close(done)
	}()

	select {
	case <-mail.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep never started sending")
	}
	deadline := time.Now().Add(2 * time.Second)
	for sweep.Health().Skipped == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no tick skipped while a send was blocked")
		}
		time.Sleep(5 * time.Millisecond)
	}
	close(mail.release)

	deadline = time.Now().Add(2 * time.Second)
	for sweep.Health().Sent == 0 {
		if time.Now().After(deadline) {
			t.Fatal("blocked send never completed")
		}
		time.Sleep(5 * time.Millisecond)
	}
	// Let a few more ticks pass over the now-flagged order.
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if n := mail.count("gus@example.com"); n != 1 {
		t.Fatalf("sent %d emails, want 1", n)
	}
}
