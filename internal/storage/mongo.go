package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/newsrelay/internal/types"
)

// MongoStore keeps records in MongoDB collections. Numeric IDs come from a
// counters collection so they stay monotonic like the other backends.
type MongoStore struct {
	client   *mongo.Client
	articles *mongo.Collection
	logs     *mongo.Collection
	settings *mongo.Collection
	counters *mongo.Collection
	now      Clock
	logger   *slog.Logger
}

// NewMongoStore connects to MongoDB and prepares indexes.
func NewMongoStore(ctx context.Context, uri, database string, logger *slog.Logger, opts ...Option) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		articles: db.Collection("articles"),
		logs:     db.Collection("logs"),
		settings: db.Collection("settings"),
		counters: db.Collection("counters"),
		now:      buildOptions(opts).now,
		logger:   logger.With("component", "mongo_storage", "database", database),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "scraped_at", Value: -1}, {Key: "_id", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("mongodb article indexes: %w", err)
	}
	_, err = s.logs.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongodb log indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Name() string { return "mongodb" }

// nextID atomically increments the named counter.
func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, err
	}
	return doc.Seq, nil
}

var (
	articleSort = bson.D{{Key: "scraped_at", Value: -1}, {Key: "_id", Value: -1}}
	logSort     = bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}}
)

func (s *MongoStore) ListArticles(ctx context.Context, limit int) ([]types.Article, error) {
	opts := options.Find().SetSort(articleSort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.articles.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr(s.Name(), "list articles", err)
	}
	var out []types.Article
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrapErr(s.Name(), "list articles", err)
	}
	return out, nil
}

func (s *MongoStore) CountArticles(ctx context.Context) (int, error) {
	n, err := s.articles.CountDocuments(ctx, bson.M{})
	return int(n), wrapErr(s.Name(), "count articles", err)
}

func (s *MongoStore) FindArticleByURL(ctx context.Context, url string) (types.Article, bool, error) {
	var a types.Article
	err := s.articles.FindOne(ctx, bson.M{"url": url}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Article{}, false, nil
	}
	if err != nil {
		return types.Article{}, false, wrapErr(s.Name(), "find article", err)
	}
	return a, true, nil
}

func (s *MongoStore) InsertArticle(ctx context.Context, c types.Candidate) (types.Article, error) {
	id, err := s.nextID(ctx, "articles")
	if err != nil {
		return types.Article{}, wrapErr(s.Name(), "insert article", err)
	}
	// BSON dates carry millisecond precision.
	a := types.NewArticle(id, c, s.now().Truncate(time.Millisecond))
	if _, err := s.articles.InsertOne(ctx, a); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.Article{}, wrapErr(s.Name(), "insert article", types.ErrDuplicate)
		}
		return types.Article{}, wrapErr(s.Name(), "insert article", err)
	}
	s.logger.Debug("article stored", "id", a.ID, "url", a.URL)
	return a, nil
}

// trimCollection deletes every document beyond the first keep in sort order.
func (s *MongoStore) trimCollection(ctx context.Context, coll *mongo.Collection, sort bson.D, keep int) (int, error) {
	cur, err := coll.Find(ctx, bson.M{}, options.Find().
		SetSort(sort).
		SetSkip(int64(max(keep, 0))).
		SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return 0, err
	}
	var stale []struct {
		ID int64 `bson:"_id"`
	}
	if err := cur.All(ctx, &stale); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}
	ids := make([]int64, len(stale))
	for i, d := range stale {
		ids[i] = d.ID
	}
	res, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

func (s *MongoStore) TrimArticles(ctx context.Context, keep int) (int, error) {
	n, err := s.trimCollection(ctx, s.articles, articleSort, keep)
	return n, wrapErr(s.Name(), "trim articles", err)
}

func (s *MongoStore) ListLogs(ctx context.Context, limit int) ([]types.LogEntry, error) {
	opts := options.Find().SetSort(logSort)
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.logs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, wrapErr(s.Name(), "list logs", err)
	}
	var out []types.LogEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrapErr(s.Name(), "list logs", err)
	}
	return out, nil
}

func (s *MongoStore) AppendLog(ctx context.Context, level types.LogLevel, message string) (types.LogEntry, error) {
	id, err := s.nextID(ctx, "logs")
	if err != nil {
		return types.LogEntry{}, wrapErr(s.Name(), "append log", err)
	}
	entry := types.LogEntry{ID: id, Level: level, Message: message, Timestamp: s.now().Truncate(time.Millisecond)}
	if _, err := s.logs.InsertOne(ctx, entry); err != nil {
		return types.LogEntry{}, wrapErr(s.Name(), "append log", err)
	}
	return entry, nil
}

func (s *MongoStore) TrimLogs(ctx context.Context, keep int) (int, error) {
	n, err := s.trimCollection(ctx, s.logs, logSort, keep)
	return n, wrapErr(s.Name(), "trim logs", err)
}

func (s *MongoStore) GetSetting(ctx context.Context, key string) (string, bool, error) {
	var st types.Setting
	err := s.settings.FindOne(ctx, bson.M{"_id": key}).Decode(&st)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, wrapErr(s.Name(), "get setting", err)
	}
	return st.Value, true, nil
}

// UpsertSetting updates an existing key in place and allocates an ID only
// when the key is new. Two writers racing on the same new key may leave
// one unused counter value.
func (s *MongoStore) UpsertSetting(ctx context.Context, key, value string) (types.Setting, error) {
	set := bson.M{"$set": bson.M{"value": value, "updated_at": s.now().Truncate(time.Millisecond)}}
	after := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var st types.Setting
	err := s.settings.FindOneAndUpdate(ctx, bson.M{"_id": key}, set, after).Decode(&st)
	if err == nil {
		return st, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return types.Setting{}, wrapErr(s.Name(), "upsert setting", err)
	}

	id, err := s.nextID(ctx, "settings")
	if err != nil {
		return types.Setting{}, wrapErr(s.Name(), "upsert setting", err)
	}
	set["$setOnInsert"] = bson.M{"id": id}
	err = s.settings.FindOneAndUpdate(ctx, bson.M{"_id": key}, set, after.SetUpsert(true)).Decode(&st)
	if err != nil {
		return types.Setting{}, wrapErr(s.Name(), "upsert setting", err)
	}
	return st, nil
}

func (s *MongoStore) ListSettings(ctx context.Context) ([]types.Setting, error) {
	cur, err := s.settings.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, wrapErr(s.Name(), "list settings", err)
	}
	var out []types.Setting
	if err := cur.All(ctx, &out); err != nil {
		return nil, wrapErr(s.Name(), "list settings", err)
	}
	return out, nil
}

func (s *MongoStore) Close() error {
	s.logger.Info("mongodb storage closing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
