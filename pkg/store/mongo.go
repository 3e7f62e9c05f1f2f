package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/beltline/beltline/pkg/errors"
	"github.com/beltline/beltline/pkg/plan"
)

const plansCollection = "plans"

// MongoStore keeps plans in a MongoDB collection, one document per plan
// keyed by the plan ID.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and pings it before returning.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connect %s", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "ping %s", uri)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(plansCollection),
	}, nil
}

// Save upserts a plan by ID.
func (s *MongoStore) Save(ctx context.Context, p *plan.Plan) error {
	if p.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "plan has no ID")
	}
	payload := plan.ToPayload(p)
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": p.ID}, payload, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save plan %s", p.ID)
	}
	return nil
}

// Load reads a plan by ID.
func (s *MongoStore) Load(ctx context.Context, id string) (*plan.Plan, error) {
	var payload plan.Payload
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&payload)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodePlanNotFound, "plan %q not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "load plan %s", id)
	}
	return plan.FromPayload(payload)
}

// List returns the IDs of all stored plans.
func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	cursor, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list plans")
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode plan id")
		}
		ids = append(ids, doc.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list plans")
	}
	return ids, nil
}

// Delete removes a plan. Missing plans are not an error.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "delete plan %s", id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements PlanStore.
var _ PlanStore = (*MongoStore)(nil)
