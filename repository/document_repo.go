package repository

import (
	"context"

	"github.com/pdfchat/pdfchat-be/types"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DocumentRepo is the registry of uploaded documents. Registry writes are
// best-effort: ingestion does not fail when a save fails.
type DocumentRepo interface {
	SaveDocument(ctx context.Context, doc *types.DocumentRecord) error
	GetDocument(ctx context.Context, id string) (*types.DocumentRecord, error)
	ListDocuments(ctx context.Context, externalUserID string) ([]*types.DocumentRecord, error)
	DeleteDocument(ctx context.Context, id string) error
}

type documentRepo struct {
	collection *mongo.Collection
}

func NewDocumentRepo(db *mongo.Database) DocumentRepo {
	// check if collection does not exist, create one
	collectionNames, err := db.ListCollectionNames(context.Background(), bson.D{})
	if err != nil {
		panic(err)
	}
	collectionExists := false
	for _, name := range collectionNames {
		if name == "documents" {
			collectionExists = true
			break
		}
	}
	collection := db.Collection("documents")
	if !collectionExists {
		indexes := []mongo.IndexModel{
			{
				Keys: bson.D{
					{Key: "external_user_id", Value: 1},
				},
			},
			{
				Keys: bson.D{
					{Key: "uploaded_at", Value: -1},
				},
			},
		}
		_, err = collection.Indexes().CreateMany(context.Background(), indexes)
		if err != nil {
			logrus.Errorf("Error creating indexes: %v", err)
		}
	}

	return &documentRepo{
		collection: collection,
	}
}

func (r *documentRepo) SaveDocument(ctx context.Context, doc *types.DocumentRecord) error {
	_, err := r.collection.ReplaceOne(ctx,
		bson.M{"_id": doc.ID},
		doc,
		// upsert so a re-ingest of the same document overwrites its entry
		options.Replace().SetUpsert(true),
	)
	return err
}

func (r *documentRepo) GetDocument(ctx context.Context, id string) (*types.DocumentRecord, error) {
	var doc types.DocumentRecord
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *documentRepo) ListDocuments(ctx context.Context, externalUserID string) ([]*types.DocumentRecord, error) {
	filter := bson.M{}
	if externalUserID != "" {
		filter["external_user_id"] = externalUserID
	}
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var documents []*types.DocumentRecord
	for cursor.Next(ctx) {
		var doc types.DocumentRecord
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		documents = append(documents, &doc)
	}
	return documents, nil
}

func (r *documentRepo) DeleteDocument(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}
