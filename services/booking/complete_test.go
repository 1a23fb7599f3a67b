package booking

import (
	"context"
	"errors"
	"testing"

	"servora/models"
)

func seedAcceptedWithDeposit(repo *memBookingRepo) *models.Booking {
	b := seedBooking(repo, models.BookingAccepted)
	b.CapturedDeposit = 2000
	b.RemainingToCapture = 8000
	b.PaymentStatus = models.PaymentDepositCaptured
	return b
}

func TestCompleteCapturesRemainingAndPaysProvider(t *testing.T) {
	repo := newMemBookingRepo()
	gw := newFakeGateway()
	svc, pub, _ := newTestService(repo, gw)
	seedAcceptedWithDeposit(repo)

	result, err := svc.Complete(context.Background(), "bk_1", "prov_1")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	b := result.Booking
	if b.Status != models.BookingCompleted {
		t.Errorf("status = %s, want completed", b.Status)
	}
	if b.CompletedAt == nil {
		t.Error("completed_at not set")
	}
	if b.PaymentStatus != models.PaymentCompleted {
		t.Errorf("payment_status = %s, want completed", b.PaymentStatus)
	}
	if b.RemainingToCapture != 0 {
		t.Errorf("remaining_to_capture = %d, want 0", b.RemainingToCapture)
	}
	if got := gw.captures["capture:remaining:bk_1"]; got != 8000 {
		t.Errorf("remaining capture = %d, want 8000", got)
	}
	// 3% platform fee on 10000 leaves a 9700 payout.
	if gw.transferredTotal != 9700 {
		t.Errorf("transferred = %d, want 9700", gw.transferredTotal)
	}
	if _, ok := gw.transfers["transfer:bk_1"]; !ok {
		t.Error("transfer was not keyed transfer:bk_1")
	}
	if !result.ChargeDone || result.FailedStep != "" {
		t.Errorf("result = %+v, want clean completion", result)
	}
	if result.TransferID == "" {
		t.Error("transfer id missing from result")
	}
	if pub.count() != 1 {
		t.Errorf("events = %d, want 1", pub.count())
	}
	checkAmountInvariant(t, b)
}

func TestCompleteTransferFailsAfterBoundedRetry(t *testing.T) {
	repo := newMemBookingRepo()
	gw := newFakeGateway()
	gw.transferErrs = []error{transientErr(), transientErr()}
	svc, _, _ := newTestService(repo, gw)
	seedAcceptedWithDeposit(repo)

	result, err := svc.Complete(context.Background(), "bk_1", "prov_1")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	// The service was rendered; completion does not reverse.
	if result.Booking.Status != models.BookingCompleted {
		t.Errorf("status = %s, want completed", result.Booking.Status)
	}
	if result.Booking.PaymentStatus != models.PaymentCaptureFailed {
		t.Errorf("payment_status = %s, want capture_failed", result.Booking.PaymentStatus)
	}
	if result.FailedStep != StepTransfer {
		t.Errorf("failed step = %q, want %q", result.FailedStep, StepTransfer)
	}
	if result.FailureDetail == "" {
		t.Error("failure detail missing")
	}
	if !result.ChargeDone {
		t.Error("charge outcome lost: the remaining capture succeeded")
	}
	if gw.transferCalls != 2 {
		t.Errorf("transfer calls = %d, want 2 (one retry)", gw.transferCalls)
	}
}

func TestCompleteChargeStepFailure(t *testing.T) {
	repo := newMemBookingRepo()
	gw := newFakeGateway()
	gw.captureErrs = []error{terminalErr()}
	svc, _, _ := newTestService(repo, gw)
	seedAcceptedWithDeposit(repo)

	result, err := svc.Complete(context.Background(), "bk_1", "prov_1")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if result.FailedStep != StepCharge {
		t.Errorf("failed step = %q, want %q", result.FailedStep, StepCharge)
	}
	if result.ChargeDone {
		t.Error("charge reported done despite terminal failure")
	}
	if gw.transferCalls != 0 {
		t.Errorf("transfer attempted %d times after charge failure", gw.transferCalls)
	}
	if result.Booking.PaymentStatus != models.PaymentCaptureFailed {
		t.Errorf("payment_status = %s, want capture_failed", result.Booking.PaymentStatus)
	}
}

func TestCompleteSkipsCaptureWhenNothingRemains(t *testing.T) {
	repo := newMemBookingRepo()
	gw := newFakeGateway()
	svc, _, _ := newTestService(repo, gw)
	b := seedBooking(repo, models.BookingAccepted)
	b.CapturedDeposit = 10000
	b.RemainingToCapture = 0
	b.PaymentStatus = models.PaymentDepositCaptured

	result, err := svc.Complete(context.Background(), "bk_1", "prov_1")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if gw.captureCalls != 0 {
		t.Errorf("capture called %d times with nothing remaining", gw.captureCalls)
	}
	if gw.transferCalls != 1 {
		t.Errorf("transfer calls = %d, want 1", gw.transferCalls)
	}
	if result.Booking.PaymentStatus != models.PaymentCompleted {
		t.Errorf("payment_status = %s, want completed", result.Booking.PaymentStatus)
	}
}

func TestCompleteRequiresAcceptedStatus(t *testing.T) {
	repo := newMemBookingRepo()
	svc, _, _ := newTestService(repo, newFakeGateway())
	seedBooking(repo, models.BookingPending)

	_, err := svc.Complete(context.Background(), "bk_1", "prov_1")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
}

func TestCompleteForbiddenForOtherProvider(t *testing.T) {
	repo := newMemBookingRepo()
	svc, _, _ := newTestService(repo, newFakeGateway())
	seedAcceptedWithDeposit(repo)

	_, err := svc.Complete(context.Background(), "bk_1", "prov_other")
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("err = %v, want ForbiddenError", err)
	}
}

func TestCancelByCustomerForfeitsDeposit(t *testing.T) {
	repo := newMemBookingRepo()
	gw := newFakeGateway()
	svc, _, _ := newTestService(repo, gw)
	seedAcceptedWithDeposit(repo)

	b, err := svc.Cancel(context.Background(), "bk_1", "cust_1")
	if err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	if b.Status != models.BookingCancelled {
		t.Errorf("status = %s, want cancelled", b.Status)
	}
	// Refunds are reserved for declined and expired bookings.
	if gw.refundCalls != 0 {
		t.Errorf("refund called %d times on cancellation", gw.refundCalls)
	}
}

func TestCancelForbiddenForOtherCustomer(t *testing.T) {
	repo := newMemBookingRepo()
	svc, _, _ := newTestService(repo, newFakeGateway())
	seedAcceptedWithDeposit(repo)

	_, err := svc.Cancel(context.Background(), "bk_1", "cust_other")
	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("err = %v, want ForbiddenError", err)
	}
}

func TestCancelRequiresAcceptedStatus(t *testing.T) {
	repo := newMemBookingRepo()
	svc, _, _ := newTestService(repo, newFakeGateway())
	seedBooking(repo, models.BookingPending)

	_, err := svc.Cancel(context.Background(), "bk_1", "cust_1")
	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
}
