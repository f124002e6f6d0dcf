package databases

// go generate: mockery --name LawyerProfileDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lexconnect/lexconnect-api/models"
)

const lawyerProfileName = "lawyerProfiles"

// LawyerProfileDatabase contains the methods to use with the lawyer profile database
type LawyerProfileDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.LawyerProfile, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.LawyerProfile, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	UpdateOne(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	UpdateMany(context.Context, interface{}, interface{}, ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)
}

type lawyerProfileDatabase struct {
	db DatabaseHelper
}

// NewLawyerProfileDatabase initializes a new instance of lawyer profile database with the provided db connection
func NewLawyerProfileDatabase(db DatabaseHelper) LawyerProfileDatabase {
	return &lawyerProfileDatabase{
		db: db,
	}
}

func (l *lawyerProfileDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.LawyerProfile, error) {
	profile := &models.LawyerProfile{}
	err := l.db.Collection(lawyerProfileName).FindOne(ctx, filter, opts...).Decode(&profile)
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func (l *lawyerProfileDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.LawyerProfile, error) {
	var profiles []models.LawyerProfile
	cr, err := l.db.Collection(lawyerProfileName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&profiles)
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (l *lawyerProfileDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := l.db.Collection(lawyerProfileName).InsertOne(ctx, document, opts...)
	return res, err
}

func (l *lawyerProfileDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return l.db.Collection(lawyerProfileName).UpdateOne(ctx, filter, update, opts...)
}

func (l *lawyerProfileDatabase) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return l.db.Collection(lawyerProfileName).UpdateMany(ctx, filter, update, opts...)
}

func (l *lawyerProfileDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return l.db.Collection(lawyerProfileName).CountDocuments(ctx, filter, opts...)
}
