package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/radialtree/pkg/tree"
)

// sessionDoc is the stored form of a Session.
type sessionDoc struct {
	ID          string    `bson:"_id"`
	Dataset     string    `bson:"dataset"`
	Expanded    []string  `bson:"expanded"`
	Previous    []string  `bson:"previous,omitempty"`
	AllExpanded bool      `bson:"all_expanded"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
	ExpiresAt   time.Time `bson:"expires_at"`
}

func toDoc(s *Session) sessionDoc {
	return sessionDoc{
		ID:          s.ID,
		Dataset:     s.Dataset,
		Expanded:    s.State.Current.Paths(),
		Previous:    s.State.Previous.Paths(),
		AllExpanded: s.State.AllExpanded,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		ExpiresAt:   s.ExpiresAt,
	}
}

func (d sessionDoc) session() *Session {
	return &Session{
		ID:      d.ID,
		Dataset: d.Dataset,
		State: tree.ExpandAllToggle{
			Current:     tree.NewExpansion(d.Expanded...),
			Previous:    tree.NewExpansion(d.Previous...),
			AllExpanded: d.AllExpanded,
		},
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
		ExpiresAt: d.ExpiresAt,
	}
}

// sessionCollection is the storage seam between MongoStore and the driver.
type sessionCollection interface {
	find(ctx context.Context, id string) (*sessionDoc, error)
	upsert(ctx context.Context, doc sessionDoc) error
	remove(ctx context.Context, id string) error
	removeExpired(ctx context.Context, now time.Time) (int64, error)
}

// MongoStore keeps sessions in a MongoDB collection. A TTL index on
// expires_at lets the server drop stale sessions on its own.
type MongoStore struct {
	coll   sessionCollection
	client *mongo.Client
}

// MongoConfig configures a MongoDB session store.
type MongoConfig struct {
	URI        string
	Database   string // defaults to "radialtree"
	Collection string // defaults to "sessions"
}

// NewMongoStore connects, pings the primary and ensures the TTL index.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "radialtree"
	}
	if cfg.Collection == "" {
		cfg.Collection = "sessions"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ttl index: %w", err)
	}
	return &MongoStore{coll: driverCollection{coll}, client: client}, nil
}

func (m *MongoStore) Get(ctx context.Context, id string) (*Session, error) {
	doc, err := m.coll.find(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("mongo find session: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	s := doc.session()
	if s.IsExpired() {
		return nil, nil
	}
	return s, nil
}

func (m *MongoStore) Set(ctx context.Context, s *Session) error {
	if err := m.coll.upsert(ctx, toDoc(s)); err != nil {
		return fmt.Errorf("mongo upsert session: %w", err)
	}
	return nil
}

func (m *MongoStore) Delete(ctx context.Context, id string) error {
	if err := m.coll.remove(ctx, id); err != nil {
		return fmt.Errorf("mongo delete session: %w", err)
	}
	return nil
}

// Cleanup removes expired sessions ahead of the TTL monitor, which only
// runs once a minute.
func (m *MongoStore) Cleanup(ctx context.Context) error {
	if _, err := m.coll.removeExpired(ctx, time.Now()); err != nil {
		return fmt.Errorf("mongo cleanup sessions: %w", err)
	}
	return nil
}

func (m *MongoStore) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)

// driverCollection adapts *mongo.Collection.
type driverCollection struct{ c *mongo.Collection }

func (d driverCollection) find(ctx context.Context, id string) (*sessionDoc, error) {
	var doc sessionDoc
	err := d.c.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (d driverCollection) upsert(ctx context.Context, doc sessionDoc) error {
	_, err := d.c.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

func (d driverCollection) remove(ctx context.Context, id string) error {
	_, err := d.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (d driverCollection) removeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := d.c.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
