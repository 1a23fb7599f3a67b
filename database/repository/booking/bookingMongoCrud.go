package bookingRepo

import (
	"context"
	"fmt"
	"time"

	"servora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Create inserts a new booking document.
func (repo *MongoBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := repo.coll.InsertOne(ctxWithTimeout, booking)
	if err != nil {
		return fmt.Errorf("error creating booking: %w", err)
	}
	return nil
}

// GetByID retrieves a booking by its ID.
func (repo *MongoBookingRepo) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var booking models.Booking
	err := repo.coll.FindOne(ctxWithTimeout, bson.M{"id": id}).Decode(&booking)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error fetching booking %s: %w", id, err)
	}
	return &booking, nil
}

// Update sets payment-bookkeeping fields on an existing booking. Status is
// never modified here; lifecycle changes must go through Transition.
func (repo *MongoBookingRepo) Update(ctx context.Context, id string, fields bson.M) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, ok := fields["status"]; ok {
		return nil, fmt.Errorf("error updating booking %s: status updates must use Transition", id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Booking
	err := repo.coll.FindOneAndUpdate(ctxWithTimeout, bson.M{"id": id}, bson.M{"$set": fields}, opts).Decode(&updated)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error updating booking %s: %w", id, err)
	}
	return &updated, nil
}

// Transition conditionally commits a status change. The filter pins the
// current status to the allowed set, so of any number of concurrent
// callers only one can win per row; the rest get ErrConflict.
func (repo *MongoBookingRepo) Transition(ctx context.Context, id string, allowedFrom []models.BookingStatus, toStatus models.BookingStatus, set bson.M) (*models.Booking, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"status": toStatus}
	for k, v := range set {
		update[k] = v
	}

	filter := bson.M{
		"id":     id,
		"status": bson.M{"$in": allowedFrom},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Booking
	err := repo.coll.FindOneAndUpdate(ctxWithTimeout, filter, bson.M{"$set": update}, opts).Decode(&updated)
	if err == nil {
		return &updated, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("error transitioning booking %s: %w", id, err)
	}

	// The condition failed: distinguish a missing row from a lost race.
	count, countErr := repo.coll.CountDocuments(ctxWithTimeout, bson.M{"id": id})
	if countErr != nil {
		return nil, fmt.Errorf("error transitioning booking %s: %w", id, countErr)
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrConflict
}
