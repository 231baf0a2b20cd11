// Package mongostore keeps a canvas in MongoDB.
//
// Nodes and connectors live in the "nodes" and "connectors" collections of
// one database, keyed by their ids. Each document carries a sequence number
// that preserves insertion order and a revision used for optimistic
// read-modify-write updates.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/cardtree/pkg/canvas"
)

const (
	nodesCollection      = "nodes"
	connectorsCollection = "connectors"
	countersCollection   = "counters"

	// maxUpdateRetries bounds optimistic update retries.
	maxUpdateRetries = 16
)

type nodeDoc struct {
	canvas.Node `bson:",inline"`
	Seq         int64 `bson:"seq"`
	Rev         int64 `bson:"rev"`
}

type connDoc struct {
	canvas.Connector `bson:",inline"`
	Seq              int64 `bson:"seq"`
	Rev              int64 `bson:"rev"`
}

// Store is a MongoDB-backed canvas.Store.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	nodes  *mongo.Collection
	conns  *mongo.Collection
	owned  bool
}

// Open connects to uri, selects database and ensures indexes.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := New(client.Database(database))
	s.client = client
	s.owned = true
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

// New uses an existing database handle. Close leaves its client connected.
func New(db *mongo.Database) *Store {
	return &Store{
		client: db.Client(),
		db:     db,
		nodes:  db.Collection(nodesCollection),
		conns:  db.Collection(connectorsCollection),
	}
}

// EnsureIndexes creates the ordering and endpoint indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.nodes.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "seq", Value: 1}}}); err != nil {
		return fmt.Errorf("create node index: %w", err)
	}
	_, err := s.conns.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "connectorStart.endpointNodeId", Value: 1}}},
		{Keys: bson.D{{Key: "connectorEnd.endpointNodeId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create connector indexes: %w", err)
	}
	return nil
}

// nextSeq returns the next value of the named counter.
func (s *Store) nextSeq(ctx context.Context, name string) (int64, error) {
	var out struct {
		Seq int64 `bson:"seq"`
	}
	err := s.db.Collection(countersCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&out)
	return out.Seq, err
}

var bySeq = options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})

// =============================================================================
// Nodes
// =============================================================================

func (s *Store) Node(ctx context.Context, id string) (*canvas.Node, error) {
	var d nodeDoc
	err := s.nodes.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d.Node, nil
}

func (s *Store) Nodes(ctx context.Context) ([]*canvas.Node, error) {
	cur, err := s.nodes.Find(ctx, bson.M{}, bySeq)
	if err != nil {
		return nil, err
	}
	var docs []nodeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*canvas.Node, len(docs))
	for i := range docs {
		out[i] = &docs[i].Node
	}
	return out, nil
}

func (s *Store) PutNode(ctx context.Context, n *canvas.Node) error {
	if n == nil || n.ID == "" {
		return canvas.ErrInvalidNodeID
	}
	seq, err := s.nextSeq(ctx, nodesCollection)
	if err != nil {
		return err
	}
	_, err = s.nodes.UpdateOne(ctx,
		bson.M{"_id": n.ID},
		bson.M{
			"$set": bson.M{
				"x": n.X, "y": n.Y, "width": n.Width, "height": n.Height,
				"visible": n.Visible, "state": n.State, "fields": n.Fields,
			},
			"$inc":         bson.M{"rev": 1},
			"$setOnInsert": bson.M{"seq": seq},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (s *Store) UpdateNode(ctx context.Context, id string, fn func(*canvas.Node)) (*canvas.Node, error) {
	for i := 0; i < maxUpdateRetries; i++ {
		var d nodeDoc
		err := s.nodes.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, canvas.ErrNodeNotFound
		}
		if err != nil {
			return nil, err
		}
		rev := d.Rev
		fn(&d.Node)
		d.ID = id
		d.Rev = rev + 1

		res, err := s.nodes.ReplaceOne(ctx, bson.M{"_id": id, "rev": rev}, d)
		if err != nil {
			return nil, err
		}
		if res.MatchedCount == 1 {
			return &d.Node, nil
		}
	}
	return nil, fmt.Errorf("update node %s: too many concurrent writers", id)
}

func (s *Store) DeleteNode(ctx context.Context, id string) error {
	res, err := s.nodes.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return canvas.ErrNodeNotFound
	}
	return nil
}

// =============================================================================
// Connectors
// =============================================================================

func (s *Store) AttachedConnectors(ctx context.Context, nodeID string) ([]canvas.Connector, error) {
	return s.findConnectors(ctx, bson.M{"$or": bson.A{
		bson.M{"connectorStart.endpointNodeId": nodeID},
		bson.M{"connectorEnd.endpointNodeId": nodeID},
	}})
}

func (s *Store) Connectors(ctx context.Context) ([]canvas.Connector, error) {
	return s.findConnectors(ctx, bson.M{})
}

func (s *Store) findConnectors(ctx context.Context, filter bson.M) ([]canvas.Connector, error) {
	cur, err := s.conns.Find(ctx, filter, bySeq)
	if err != nil {
		return nil, err
	}
	var docs []connDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]canvas.Connector, len(docs))
	for i, d := range docs {
		out[i] = d.Connector
	}
	return out, nil
}

func (s *Store) PutConnector(ctx context.Context, c canvas.Connector) error {
	if c.ID == "" {
		return canvas.ErrInvalidNodeID
	}
	seq, err := s.nextSeq(ctx, connectorsCollection)
	if err != nil {
		return err
	}
	// A replaced connector is re-attached, so it moves to the end of the
	// attachment order.
	_, err = s.conns.ReplaceOne(ctx, bson.M{"_id": c.ID},
		connDoc{Connector: c, Seq: seq}, options.Replace().SetUpsert(true))
	return err
}

func (s *Store) UpdateConnector(ctx context.Context, id string, fn func(*canvas.Connector)) error {
	for i := 0; i < maxUpdateRetries; i++ {
		var d connDoc
		err := s.conns.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return canvas.ErrConnectorNotFound
		}
		if err != nil {
			return err
		}
		rev, before := d.Rev, d.Connector
		fn(&d.Connector)
		d.ID = id
		d.Rev = rev + 1
		if d.Start.NodeID != before.Start.NodeID || d.End.NodeID != before.End.NodeID {
			if d.Seq, err = s.nextSeq(ctx, connectorsCollection); err != nil {
				return err
			}
		}

		res, err := s.conns.ReplaceOne(ctx, bson.M{"_id": id, "rev": rev}, d)
		if err != nil {
			return err
		}
		if res.MatchedCount == 1 {
			return nil
		}
	}
	return fmt.Errorf("update connector %s: too many concurrent writers", id)
}

func (s *Store) DeleteConnector(ctx context.Context, id string) error {
	res, err := s.conns.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return canvas.ErrConnectorNotFound
	}
	return nil
}

// Drop deletes the canvas collections.
func (s *Store) Drop(ctx context.Context) error {
	for _, name := range []string{nodesCollection, connectorsCollection, countersCollection} {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close disconnects the client if Open created it.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

// Ensure Store implements canvas.Store.
var _ canvas.Store = (*Store)(nil)
