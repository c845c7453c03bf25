package entities

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReadingSession is a per-session telemetry document stored in MongoDB.
// It is linked to the relational entities only by numeric user/book IDs.
type ReadingSession struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          uint               `bson:"user_id" json:"user_id"`
	BookID          uint               `bson:"book_id" json:"book_id"`
	Device          string             `bson:"device" json:"device"` // e.g. "web", "ereader", "phone"
	DurationSeconds int                `bson:"duration_seconds" json:"duration_seconds"`
	PagesRead       int                `bson:"pages_read" json:"pages_read"`
	Highlights      int                `bson:"highlights" json:"highlights"`
	Bookmarks       int                `bson:"bookmarks" json:"bookmarks"`
	ProgressPercent float64            `bson:"progress_percent" json:"progress_percent"` // 0-100
	StartedAt       time.Time          `bson:"started_at" json:"started_at"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
}
