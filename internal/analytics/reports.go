package analytics

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// UserSummary aggregates a single user's reading activity.
type UserSummary struct {
	UserID          uint    `bson:"-" json:"user_id"`
	TotalSessions   int     `bson:"total_sessions" json:"total_sessions"`
	TotalDuration   int     `bson:"total_duration" json:"total_duration_seconds"`
	TotalPagesRead  int     `bson:"total_pages_read" json:"total_pages_read"`
	TotalHighlights int     `bson:"total_highlights" json:"total_highlights"`
	DistinctBooks   int     `bson:"distinct_books" json:"distinct_books"`
	AvgProgress     float64 `bson:"avg_progress" json:"avg_progress_percent"`
}

// BookEngagement aggregates session activity for one book across all users.
type BookEngagement struct {
	BookID          uint `bson:"_id" json:"book_id"`
	Sessions        int  `bson:"sessions" json:"sessions"`
	TotalDuration   int  `bson:"total_duration" json:"total_duration_seconds"`
	TotalHighlights int  `bson:"total_highlights" json:"total_highlights"`
	DistinctReaders int  `bson:"distinct_readers" json:"distinct_readers"`
}

// userSummaryPipeline groups all of a user's sessions into one summary row.
func userSummaryPipeline(userID uint) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "user_id", Value: userID}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "total_sessions", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total_duration", Value: bson.D{{Key: "$sum", Value: "$duration_seconds"}}},
			{Key: "total_pages_read", Value: bson.D{{Key: "$sum", Value: "$pages_read"}}},
			{Key: "total_highlights", Value: bson.D{{Key: "$sum", Value: "$highlights"}}},
			{Key: "avg_progress", Value: bson.D{{Key: "$avg", Value: "$progress_percent"}}},
			{Key: "books", Value: bson.D{{Key: "$addToSet", Value: "$book_id"}}},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "distinct_books", Value: bson.D{{Key: "$size", Value: "$books"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "books", Value: 0}}}},
	}
}

// bookEngagementPipeline groups sessions per book, optionally filtered to a
// single book, ordered descending by sortField.
func bookEngagementPipeline(bookID uint, sortField string, limit int64) mongo.Pipeline {
	pipeline := mongo.Pipeline{}

	if bookID != 0 {
		pipeline = append(pipeline, bson.D{
			{Key: "$match", Value: bson.D{{Key: "book_id", Value: bookID}}},
		})
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$book_id"},
			{Key: "sessions", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "total_duration", Value: bson.D{{Key: "$sum", Value: "$duration_seconds"}}},
			{Key: "total_highlights", Value: bson.D{{Key: "$sum", Value: "$highlights"}}},
			{Key: "readers", Value: bson.D{{Key: "$addToSet", Value: "$user_id"}}},
		}}},
		bson.D{{Key: "$addFields", Value: bson.D{
			{Key: "distinct_readers", Value: bson.D{{Key: "$size", Value: "$readers"}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{{Key: "readers", Value: 0}}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: sortField, Value: -1}}}},
	)

	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: limit}})
	}

	return pipeline
}

// GetUserSummary computes a reading summary for one user. Returns an empty
// summary when the user has no sessions.
func (s *Store) GetUserSummary(ctx context.Context, userID uint) (*UserSummary, error) {
	cursor, err := s.collection.Aggregate(ctx, userSummaryPipeline(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate user summary: %w", err)
	}
	defer cursor.Close(ctx)

	var results []UserSummary
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode user summary: %w", err)
	}

	if len(results) == 0 {
		return &UserSummary{UserID: userID}, nil
	}

	summary := results[0]
	summary.UserID = userID
	return &summary, nil
}

// GetBookEngagement computes engagement numbers for a single book.
func (s *Store) GetBookEngagement(ctx context.Context, bookID uint) (*BookEngagement, error) {
	cursor, err := s.collection.Aggregate(ctx, bookEngagementPipeline(bookID, "total_duration", 1))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate book engagement: %w", err)
	}
	defer cursor.Close(ctx)

	var results []BookEngagement
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode book engagement: %w", err)
	}

	if len(results) == 0 {
		return &BookEngagement{BookID: bookID}, nil
	}
	return &results[0], nil
}

// GetTopBooks returns the most-read books by total session duration.
func (s *Store) GetTopBooks(ctx context.Context, limit int64) ([]BookEngagement, error) {
	if limit <= 0 {
		limit = 10
	}

	cursor, err := s.collection.Aggregate(ctx, bookEngagementPipeline(0, "total_duration", limit))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate top books: %w", err)
	}
	defer cursor.Close(ctx)

	results := []BookEngagement{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode top books: %w", err)
	}
	return results, nil
}

// GetBookHighlightCounts ranks books by how many highlights readers made in
// them.
func (s *Store) GetBookHighlightCounts(ctx context.Context, limit int64) ([]BookEngagement, error) {
	if limit <= 0 {
		limit = 10
	}

	cursor, err := s.collection.Aggregate(ctx, bookEngagementPipeline(0, "total_highlights", limit))
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate highlight counts: %w", err)
	}
	defer cursor.Close(ctx)

	results := []BookEngagement{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode highlight counts: %w", err)
	}
	return results, nil
}
