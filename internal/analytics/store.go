// Package analytics stores reading telemetry in MongoDB, separate from the
// relational catalog. Sessions are free-form documents (device, duration,
// highlights) and the reports are computed server-side with aggregation
// pipelines.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/entities"
)

var (
	ErrAnalyticsDisabled = errors.New("analytics store is not configured")
	ErrInvalidSession    = errors.New("invalid reading session")
)

const connectTimeout = 10 * time.Second

// Store provides access to the reading-session collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewStore connects to MongoDB and prepares the reading-session collection.
// Returns ErrAnalyticsDisabled when no URI is configured.
func NewStore(ctx context.Context, cfg config.Analytics) (*Store, error) {
	if cfg.URI == "" {
		return nil, ErrAnalyticsDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	collection := client.Database(cfg.Database).Collection(cfg.Collection)

	store := &Store{client: client, collection: collection}
	if err := store.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return store, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "started_at", Value: -1}}},
		{Keys: bson.D{{Key: "book_id", Value: 1}}},
	}

	_, err := s.collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// InsertSession records a single reading session.
func (s *Store) InsertSession(ctx context.Context, session *entities.ReadingSession) error {
	if session.UserID == 0 || session.BookID == 0 {
		return ErrInvalidSession
	}
	if session.DurationSeconds < 0 || session.PagesRead < 0 || session.Highlights < 0 {
		return ErrInvalidSession
	}
	if session.ProgressPercent < 0 || session.ProgressPercent > 100 {
		return ErrInvalidSession
	}

	if session.ID.IsZero() {
		session.ID = primitive.NewObjectID()
	}
	if session.StartedAt.IsZero() {
		session.StartedAt = time.Now()
	}
	session.CreatedAt = time.Now()

	_, err := s.collection.InsertOne(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to insert reading session: %w", err)
	}
	return nil
}

// ListSessionsByUser returns a user's sessions, newest first.
func (s *Store) ListSessionsByUser(ctx context.Context, userID uint, limit, offset int64) ([]entities.ReadingSession, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "started_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reading sessions: %w", err)
	}
	defer cursor.Close(ctx)

	var sessions []entities.ReadingSession
	if err := cursor.All(ctx, &sessions); err != nil {
		return nil, fmt.Errorf("failed to decode reading sessions: %w", err)
	}
	return sessions, nil
}
