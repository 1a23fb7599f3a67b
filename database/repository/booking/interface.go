package bookingRepo

import (
	"context"
	"errors"
	"time"

	"servora/config"
	"servora/database"
	"servora/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	// ErrNotFound is returned when the booking id is unknown.
	ErrNotFound = errors.New("booking not found")
	// ErrConflict is returned when a conditional transition finds the row
	// in a status outside its allowed set. The row is untouched.
	ErrConflict = errors.New("booking status conflict")
)

// BookingRepository is the durable booking store. Transition is the single
// concurrency primitive of the engine: a compare-and-swap on status.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)

	// Update sets payment-bookkeeping fields without touching status.
	Update(ctx context.Context, id string, fields bson.M) (*models.Booking, error)

	// Transition commits toStatus together with the extra field set, but
	// only if the row's current status is in allowedFrom. Returns the
	// updated row, ErrConflict if the condition failed, or ErrNotFound.
	Transition(ctx context.Context, id string, allowedFrom []models.BookingStatus, toStatus models.BookingStatus, set bson.M) (*models.Booking, error)

	// FindExpiredPending returns pending bookings whose provider response
	// deadline has passed, oldest first.
	FindExpiredPending(ctx context.Context, now time.Time, limit int64) ([]models.Booking, error)

	ListByProvider(ctx context.Context, providerID string) ([]models.Booking, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Booking, error)
}

// MongoBookingRepo implements BookingRepository backed by MongoDB.
type MongoBookingRepo struct {
	coll *mongo.Collection
}

// NewMongoBookingRepo returns a new BookingRepository instance using MongoDB.
func NewMongoBookingRepo() *MongoBookingRepo {
	db := database.MongoClient.Database(config.AppConfig.DatabaseName)
	return &MongoBookingRepo{
		coll: db.Collection("bookings"),
	}
}
