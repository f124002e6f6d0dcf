package databases

// go generate: mockery --name SessionDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lexconnect/lexconnect-api/models"
)

const sessionName = "sessions"

// SessionDatabase contains the methods to use with the session database
type SessionDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Session, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
	DeleteMany(context.Context, interface{}, ...*options.DeleteOptions) (int64, error)
}

type sessionDatabase struct {
	db DatabaseHelper
}

// NewSessionDatabase initializes a new instance of session database with the provided db connection
func NewSessionDatabase(db DatabaseHelper) SessionDatabase {
	return &sessionDatabase{
		db: db,
	}
}

func (s *sessionDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Session, error) {
	session := &models.Session{}
	err := s.db.Collection(sessionName).FindOne(ctx, filter, opts...).Decode(&session)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *sessionDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := s.db.Collection(sessionName).InsertOne(ctx, document, opts...)
	return res, err
}

func (s *sessionDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return s.db.Collection(sessionName).DeleteOne(ctx, filter, opts...)
}

func (s *sessionDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return s.db.Collection(sessionName).DeleteMany(ctx, filter, opts...)
}
