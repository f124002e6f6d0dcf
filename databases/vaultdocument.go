package databases

// go generate: mockery --name VaultDocumentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lexconnect/lexconnect-api/models"
)

const vaultDocumentName = "vaultDocuments"

// VaultDocumentDatabase contains the methods to use with the vault document database
type VaultDocumentDatabase interface {
	FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.VaultDocument, error)
	Find(context.Context, interface{}, ...*options.FindOptions) ([]models.VaultDocument, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	DeleteOne(context.Context, interface{}, ...*options.DeleteOptions) error
}

type vaultDocumentDatabase struct {
	db DatabaseHelper
}

// NewVaultDocumentDatabase initializes a new instance of vault document database with the provided db connection
func NewVaultDocumentDatabase(db DatabaseHelper) VaultDocumentDatabase {
	return &vaultDocumentDatabase{
		db: db,
	}
}

func (v *vaultDocumentDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.VaultDocument, error) {
	doc := &models.VaultDocument{}
	err := v.db.Collection(vaultDocumentName).FindOne(ctx, filter, opts...).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (v *vaultDocumentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.VaultDocument, error) {
	var docs []models.VaultDocument
	cr, err := v.db.Collection(vaultDocumentName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cr.Decode(&docs)
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (v *vaultDocumentDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := v.db.Collection(vaultDocumentName).InsertOne(ctx, document, opts...)
	return res, err
}

func (v *vaultDocumentDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) error {
	return v.db.Collection(vaultDocumentName).DeleteOne(ctx, filter, opts...)
}
