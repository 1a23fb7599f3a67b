package cron

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"servora/config"
	"servora/services/booking"

	"github.com/hibiken/asynq"
)

const (
	TypeExpirySweep   = "booking:expiry_sweep"
	TypeDepositRefund = "booking:deposit_refund"
)

// RefundPayload identifies the booking whose deposit must be refunded.
type RefundPayload struct {
	BookingID string `json:"bookingId"`
}

func redisOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// RefundQueue enqueues refund follow-up tasks. Implements
// booking.RefundQueue so the expiry sweep never touches the gateway.
type RefundQueue struct {
	client *asynq.Client
}

func NewRefundQueue() *RefundQueue {
	return &RefundQueue{client: asynq.NewClient(redisOpts())}
}

func (q *RefundQueue) EnqueueRefund(ctx context.Context, bookingID string) error {
	payload, err := json.Marshal(RefundPayload{BookingID: bookingID})
	if err != nil {
		return err
	}
	task := asynq.NewTask(TypeDepositRefund, payload)
	_, err = q.client.EnqueueContext(ctx, task,
		asynq.MaxRetry(5),
		asynq.Queue("payments"),
		asynq.TaskID("refund:"+bookingID))
	return err
}

func (q *RefundQueue) Close() error {
	return q.client.Close()
}

// InitBookingWorker runs the async worker and the periodic expiry sweep
// in the background.
func InitBookingWorker(svc booking.BookingService) {
	srv := asynq.NewServer(
		redisOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"payments": 2,
				"default":  1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpirySweep, handleExpirySweep(svc))
	mux.HandleFunc(TypeDepositRefund, handleDepositRefund(svc))

	// Start the periodic sweep scheduler.
	go func() {
		scheduler := asynq.NewScheduler(redisOpts(), nil)
		spec := fmt.Sprintf("@every %ds", config.AppConfig.ExpirySweepIntervalSec)
		if _, err := scheduler.Register(spec, asynq.NewTask(TypeExpirySweep, nil)); err != nil {
			log.Fatalf("[BookingWorker] ❗ Failed to register expiry sweep: %v", err)
		}
		if err := scheduler.Run(); err != nil {
			log.Fatalf("[BookingWorker] ❗ Sweep scheduler stopped: %v", err)
		}
	}()

	// Start async worker with retry logic.
	go func() {
		log.Println("[BookingWorker] 🚀 Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[BookingWorker] ❌ Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[BookingWorker] ❗ Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleExpirySweep(svc booking.BookingService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		expired, err := svc.ExpireOverdue(ctx)
		if err != nil {
			log.Printf("[ExpirySweep] 🔴 Sweep failed after expiring %d bookings: %v", expired, err)
			return err
		}
		if expired > 0 {
			log.Printf("[ExpirySweep] ⏰ Expired %d unanswered bookings", expired)
		}
		return nil
	}
}

func handleDepositRefund(svc booking.BookingService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p RefundPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[DepositRefund] 🔴 Invalid payload: %v", err)
			return err
		}

		if err := svc.RefundDeposit(ctx, p.BookingID); err != nil {
			log.Printf("[DepositRefund] ❌ Refund for booking %s failed: %v", p.BookingID, err)
			return err
		}
		return nil
	}
}
