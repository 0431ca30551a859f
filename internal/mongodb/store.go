package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/paypass/paypass-backend/internal/model"
)

// ErrNotConnected indicates an operation needed the database while no
// connection was live.
var ErrNotConnected = errors.New("mongodb: not connected")

// outcomeCollection holds one document per checkout id.
const outcomeCollection = "checkouts"

// OutcomeStore persists checkout outcomes in MongoDB. Writes are upserts
// keyed by checkout id, so repeated returns and webhooks for one checkout
// converge on a single document. The collection handle is resolved per call:
// the store works as soon as the connector's retry loop re-establishes a
// connection, and reports ErrNotConnected in between.
type OutcomeStore struct {
	connector *Connector
}

// NewOutcomeStore creates a store backed by the connector's database.
func NewOutcomeStore(connector *Connector) *OutcomeStore {
	return &OutcomeStore{connector: connector}
}

func (s *OutcomeStore) collection() (*mongo.Collection, error) {
	db := s.connector.Database()
	if db == nil {
		return nil, ErrNotConnected
	}
	return db.Collection(outcomeCollection), nil
}

func (s *OutcomeStore) Upsert(ctx context.Context, outcome model.CheckoutOutcome) error {
	coll, err := s.collection()
	if err != nil {
		return err
	}
	filter := bson.M{"checkout_id": outcome.CheckoutID}
	update := bson.M{"$set": outcome}
	_, err = coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (s *OutcomeStore) Get(ctx context.Context, checkoutID string) (model.CheckoutOutcome, bool, error) {
	var outcome model.CheckoutOutcome
	coll, err := s.collection()
	if err != nil {
		return outcome, false, err
	}
	err = coll.FindOne(ctx, bson.M{"checkout_id": checkoutID}).Decode(&outcome)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return outcome, false, nil
	}
	if err != nil {
		return outcome, false, err
	}
	return outcome, true, nil
}
