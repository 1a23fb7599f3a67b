package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"servora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FindExpiredPending returns pending bookings whose response deadline has
// passed. The sweep transitions each candidate individually, so returning
// a stale row here is harmless; the CAS catches it.
func (repo *MongoBookingRepo) FindExpiredPending(ctx context.Context, now time.Time, limit int64) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"status":                     models.BookingPending,
		"provider_response_deadline": bson.M{"$lt": now},
	}
	opts := options.Find().
		SetSort(bson.M{"provider_response_deadline": 1}).
		SetLimit(limit)

	cursor, err := repo.coll.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying expired bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding expired bookings: %w", err)
	}
	return bookings, nil
}

// ListByProvider returns all bookings assigned to a provider, newest first.
func (repo *MongoBookingRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error) {
	return repo.listBy(ctx, bson.M{"provider_id": providerID})
}

// ListByCustomer returns all bookings created by a customer, newest first.
func (repo *MongoBookingRepo) ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error) {
	return repo.listBy(ctx, bson.M{"customer_id": customerID})
}

func (repo *MongoBookingRepo) listBy(ctx context.Context, filter bson.M) ([]models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.M{"created_at": -1})
	cursor, err := repo.coll.Find(ctxWithTimeout, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing bookings: %w", err)
	}
	defer cursor.Close(ctxWithTimeout)

	var bookings []models.Booking
	if err := cursor.All(ctxWithTimeout, &bookings); err != nil {
		return nil, fmt.Errorf("error decoding bookings: %w", err)
	}
	return bookings, nil
}
