package source

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/matzehuels/creatornet/pkg/errors"
	"github.com/matzehuels/creatornet/pkg/network"
)

// DefaultDatabase is the backend's database when the URI names none.
const DefaultDatabase = "tikhub_xhs"

// networkDocument is one row of creator_networks. Documents written by
// older backends keep their links under "edges".
type networkDocument struct {
	Platform    string `bson:"platform"`
	NetworkData struct {
		Creators      []network.Creator     `bson:"creators"`
		CreatorEdges  []network.CreatorEdge `bson:"creatorEdges"`
		Edges         []network.CreatorEdge `bson:"edges"`
		TrackClusters map[string][]string   `bson:"trackClusters"`
	} `bson:"network_data"`
}

func (d *networkDocument) payload() network.Payload {
	p := network.Payload{
		Creators:      d.NetworkData.Creators,
		CreatorEdges:  d.NetworkData.CreatorEdges,
		TrackClusters: d.NetworkData.TrackClusters,
	}
	if p.CreatorEdges == nil {
		p.CreatorEdges = d.NetworkData.Edges
	}
	return p
}

// Mongo reads the latest network per platform from MongoDB.
type Mongo struct {
	client     *mongo.Client
	coll       *mongo.Collection
	name       string
	ownsClient bool
}

// NewMongo connects to uri and verifies the connection.
func NewMongo(ctx context.Context, uri string, opts Options) (*Mongo, error) {
	opts = opts.withDefaults()
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse mongodb uri")
	}
	db := opts.Database
	if db == "" {
		db = cs.Database
	}
	if db == "" {
		db = DefaultDatabase
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetTimeout(opts.Timeout))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "connect to mongodb")
	}
	pingCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "ping mongodb")
	}

	m := NewMongoFromClient(client, db, opts.Collection)
	m.name = redact(uri)
	m.ownsClient = true
	opts.Logger.Debug("connected to mongodb", "database", db, "collection", opts.Collection)
	return m, nil
}

// NewMongoFromClient uses an existing client. Close leaves it connected.
func NewMongoFromClient(client *mongo.Client, database, collection string) *Mongo {
	return &Mongo{
		client: client,
		coll:   client.Database(database).Collection(collection),
		name:   "mongodb:" + database + "." + collection,
	}
}

func (m *Mongo) Load(ctx context.Context, platform string) (network.Payload, error) {
	platform, err := platformOrDefault(platform)
	if err != nil {
		return network.Payload{}, err
	}

	var doc networkDocument
	err = m.coll.FindOne(ctx,
		bson.D{{Key: "platform", Value: platform}},
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	).Decode(&doc)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return network.Payload{}, nil
	}
	if err != nil {
		if stderrors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) {
			return network.Payload{}, errors.Wrap(errors.ErrCodeTimeout, err, "load network for %s", platform)
		}
		return network.Payload{}, errors.Wrap(errors.ErrCodeSourceUnavailable, err, "load network for %s", platform)
	}
	return doc.payload(), nil
}

// Save inserts p as the newest network for platform.
func (m *Mongo) Save(ctx context.Context, platform string, p network.Payload) error {
	platform, err := platformOrDefault(platform)
	if err != nil {
		return err
	}
	doc := bson.D{
		{Key: "platform", Value: platform},
		{Key: "network_data", Value: bson.D{
			{Key: "creators", Value: nonNil(p.Creators)},
			{Key: "creatorEdges", Value: nonNil(p.CreatorEdges)},
			{Key: "trackClusters", Value: p.TrackClusters},
		}},
		{Key: "created_at", Value: time.Now().UTC()},
	}
	if _, err := m.coll.InsertOne(ctx, doc); err != nil {
		return errors.Wrap(errors.ErrCodeSourceUnavailable, err, "save network for %s", platform)
	}
	return nil
}

func (m *Mongo) Name() string { return m.name }

// Close disconnects the client if NewMongo created it.
func (m *Mongo) Close() error {
	if !m.ownsClient {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
