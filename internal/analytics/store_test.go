package analytics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openshelf/openshelf/internal/config"
	"github.com/openshelf/openshelf/internal/entities"
)

func TestNewStore_DisabledWithoutURI(t *testing.T) {
	_, err := NewStore(context.Background(), config.Analytics{})
	assert.ErrorIs(t, err, ErrAnalyticsDisabled)
}

func TestInsertSession_Validation(t *testing.T) {
	// Validation happens before any database call, so a nil collection is fine.
	store := &Store{}
	ctx := context.Background()

	cases := []struct {
		name    string
		session entities.ReadingSession
	}{
		{"missing user", entities.ReadingSession{BookID: 1, DurationSeconds: 60}},
		{"missing book", entities.ReadingSession{UserID: 1, DurationSeconds: 60}},
		{"negative duration", entities.ReadingSession{UserID: 1, BookID: 1, DurationSeconds: -1}},
		{"negative pages", entities.ReadingSession{UserID: 1, BookID: 1, PagesRead: -1}},
		{"negative highlights", entities.ReadingSession{UserID: 1, BookID: 1, Highlights: -2}},
		{"progress over 100", entities.ReadingSession{UserID: 1, BookID: 1, ProgressPercent: 101}},
		{"negative progress", entities.ReadingSession{UserID: 1, BookID: 1, ProgressPercent: -0.5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.InsertSession(ctx, &tc.session)
			assert.ErrorIs(t, err, ErrInvalidSession)
		})
	}
}
