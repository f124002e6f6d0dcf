package databases

// go generate: mockery --name BookingDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lexconnect/lexconnect-api/models"
)

const bookingName = "bookings"

// BookingDatabase contains the methods to use with the booking database
type BookingDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Booking, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Booking, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type bookingDatabase struct {
	db DatabaseHelper
}

// NewBookingDatabase initializes a new instance of booking database with the provided db connection
func NewBookingDatabase(db DatabaseHelper) BookingDatabase {
	return &bookingDatabase{
		db: db,
	}
}

func (b *bookingDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Booking, error) {
	booking := &models.Booking{}
	err := b.db.Collection(bookingName).FindOne(ctx, filter, opts...).Decode(&booking)
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (b *bookingDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Booking, error) {
	var bookings []models.Booking
	cr, err := b.db.Collection(bookingName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&bookings)
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func (b *bookingDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := b.db.Collection(bookingName).InsertOne(ctx, document, opts...)
	return res, err
}

func (b *bookingDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return b.db.Collection(bookingName).UpdateOne(ctx, filter, update, opts...)
}
