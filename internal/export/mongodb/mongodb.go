// Package mongodb stores exported transactions as documents keyed by
// transaction id.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/tewans-kitchen/pos/internal/enum"
	"github.com/tewans-kitchen/pos/internal/export"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Inserter is the part of *mongo.Collection the exporter needs.
type Inserter interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// Connect connects to the mongodb server and returns the client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	timeout := time.Second * 5
	opts := &options.ClientOptions{ServerSelectionTimeout: &timeout}

	client, err := mongo.Connect(ctx, opts.ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}
	return client, nil
}

// Exporter inserts one document per transaction.
type Exporter struct {
	coll Inserter
}

func NewExporter(coll Inserter) *Exporter {
	return &Exporter{coll: coll}
}

func (e *Exporter) Name() string { return enum.SinkMongo }

// Export inserts the payload. A duplicate id means an earlier delivery
// already landed.
func (e *Exporter) Export(ctx context.Context, p export.Payload) error {
	_, err := e.coll.InsertOne(ctx, p)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil
		}
		return fmt.Errorf("insert %s: %w", p.ID, err)
	}
	return nil
}
