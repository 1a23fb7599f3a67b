package booking

import (
	"context"
	"sync"
	"time"

	bookingRepo "servora/database/repository/booking"
	"servora/models"
	"servora/services/payment"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// memBookingRepo is an in-memory BookingRepository with the same
// conditional-update semantics as the Mongo implementation.
type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memBookingRepo) Create(ctx context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bookings[b.ID] = &cp
	return nil
}

func (r *memBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func applyFields(b *models.Booking, fields bson.M) {
	for k, v := range fields {
		switch k {
		case "captured_deposit":
			b.CapturedDeposit = v.(int64)
		case "remaining_to_capture":
			b.RemainingToCapture = v.(int64)
		case "payment_status":
			b.PaymentStatus = v.(models.PaymentStatus)
		case "payment_failure_msg":
			b.PaymentFailureMsg = v.(string)
		case "refund_id":
			b.RefundID = v.(string)
		case "decline_reason":
			b.DeclineReason = v.(string)
		case "completed_at":
			t := v.(time.Time)
			b.CompletedAt = &t
		}
	}
}

func (r *memBookingRepo) Update(ctx context.Context, id string, fields bson.M) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	applyFields(b, fields)
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) Transition(ctx context.Context, id string, allowedFrom []models.BookingStatus, toStatus models.BookingStatus, set bson.M) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	allowed := false
	for _, from := range allowedFrom {
		if b.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, bookingRepo.ErrConflict
	}
	b.Status = toStatus
	applyFields(b, set)
	cp := *b
	return &cp, nil
}

func (r *memBookingRepo) FindExpiredPending(ctx context.Context, now time.Time, limit int64) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.Status == models.BookingPending && b.ProviderResponseDeadline.Before(now) {
			out = append(out, *b)
			if int64(len(out)) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memBookingRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.ProviderID == providerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (r *memBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Booking
	for _, b := range r.bookings {
		if b.CustomerID == customerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

// fakeGateway is a scripted payment gateway that enforces idempotency
// keys the way a real one does: a replayed key returns the recorded
// result instead of moving money again.
type fakeGateway struct {
	mu sync.Mutex

	captures  map[string]int64
	refunds   map[string]string
	transfers map[string]string

	captureErrs  []error
	refundErrs   []error
	transferErrs []error

	resolveReceived int64
	resolveErr      error

	captureCalls  int
	refundCalls   int
	transferCalls int
	authorizeCalls int

	chargedTotal     int64
	transferredTotal int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		captures:  make(map[string]int64),
		refunds:   make(map[string]string),
		transfers: make(map[string]string),
	}
}

func transientErr() error {
	return &payment.GatewayError{Kind: payment.KindTimeout, Retryable: true, Message: "timed out"}
}

func terminalErr() error {
	return &payment.GatewayError{Kind: payment.KindCardDeclined, Retryable: false, Message: "card declined"}
}

func (g *fakeGateway) popErr(errs *[]error) error {
	if len(*errs) == 0 {
		return nil
	}
	err := (*errs)[0]
	*errs = (*errs)[1:]
	return err
}

func (g *fakeGateway) Authorize(ctx context.Context, req models.AuthorizeRequest) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.authorizeCalls++
	return "pi_test", nil
}

func (g *fakeGateway) Capture(ctx context.Context, intentID string, amount int64, key string) (*models.CaptureResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.captureCalls++
	if err := g.popErr(&g.captureErrs); err != nil {
		return nil, err
	}
	if prior, ok := g.captures[key]; ok {
		return &models.CaptureResult{CapturedAmount: prior, AlreadyDone: true}, nil
	}
	g.captures[key] = amount
	g.chargedTotal += amount
	return &models.CaptureResult{CapturedAmount: amount}, nil
}

func (g *fakeGateway) Refund(ctx context.Context, intentID string, amount int64, key string) (*models.RefundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.refundCalls++
	if err := g.popErr(&g.refundErrs); err != nil {
		return nil, err
	}
	if prior, ok := g.refunds[key]; ok {
		return &models.RefundResult{RefundID: prior, Amount: amount}, nil
	}
	id := "re_" + key
	g.refunds[key] = id
	return &models.RefundResult{RefundID: id, Amount: amount}, nil
}

func (g *fakeGateway) Transfer(ctx context.Context, amount int64, destination, key string) (*models.TransferResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transferCalls++
	if err := g.popErr(&g.transferErrs); err != nil {
		return nil, err
	}
	if prior, ok := g.transfers[key]; ok {
		return &models.TransferResult{TransferID: prior, Amount: amount}, nil
	}
	id := "tr_" + key
	g.transfers[key] = id
	g.transferredTotal += amount
	return &models.TransferResult{TransferID: id, Amount: amount}, nil
}

func (g *fakeGateway) ResolveCapture(ctx context.Context, intentID string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.resolveErr != nil {
		return 0, g.resolveErr
	}
	return g.resolveReceived, nil
}

// recordingPublisher collects emitted booking events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []models.BookingEvent
}

func (p *recordingPublisher) PublishBookingEvent(ctx context.Context, event models.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// recordingRefundQueue collects enqueued refund follow-ups.
type recordingRefundQueue struct {
	mu         sync.Mutex
	bookingIDs []string
}

func (q *recordingRefundQueue) EnqueueRefund(ctx context.Context, bookingID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.bookingIDs = append(q.bookingIDs, bookingID)
	return nil
}

func testPolicy() Policy {
	return Policy{
		DepositPercent: 20,
		PlatformFeeBps: 300,
		ResponseWindow: 2 * time.Hour,
		SweepBatchSize: 100,
		CaptureRetry:   RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
		TransferRetry:  RetryPolicy{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond},
	}
}

func newTestService(repo *memBookingRepo, gw *fakeGateway) (*DefaultBookingService, *recordingPublisher, *recordingRefundQueue) {
	pub := &recordingPublisher{}
	queue := &recordingRefundQueue{}
	svc := &DefaultBookingService{
		Repo:    repo,
		Gateway: gw,
		Events:  pub,
		Refunds: queue,
		Policy:  testPolicy(),
		Logger:  zap.NewNop(),
	}
	return svc, pub, queue
}

// seedBooking inserts a booking mirroring the worked example: £100.00
// total with a 20% deposit.
func seedBooking(repo *memBookingRepo, status models.BookingStatus) *models.Booking {
	b := &models.Booking{
		ID:                       "bk_1",
		CustomerID:               "cust_1",
		ProviderID:               "prov_1",
		ServiceID:                "svc_cleaning",
		Status:                   status,
		BaseAmount:               9000,
		TotalAmount:              10000,
		DepositAmount:            2000,
		RemainingToCapture:       10000,
		PaymentIntentID:          "pi_test",
		PaymentStatus:            models.PaymentAuthorized,
		ProviderResponseDeadline: time.Now().Add(2 * time.Hour),
		CreatedAt:                time.Now(),
	}
	repo.bookings[b.ID] = b
	return b
}

// checkAmountInvariant fails the test if captured + remaining exceeds total.
func checkAmountInvariant(t interface {
	Helper()
	Errorf(format string, args ...interface{})
}, b *models.Booking) {
	t.Helper()
	if b.CapturedDeposit+b.RemainingToCapture > b.TotalAmount {
		t.Errorf("amount invariant violated: captured %d + remaining %d > total %d",
			b.CapturedDeposit, b.RemainingToCapture, b.TotalAmount)
	}
}
