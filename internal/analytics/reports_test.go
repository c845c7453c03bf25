package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// stageKey returns the operator name of a pipeline stage, e.g. "$match".
func stageKey(t *testing.T, stage bson.D) string {
	t.Helper()
	require.Len(t, stage, 1)
	return stage[0].Key
}

func TestUserSummaryPipeline(t *testing.T) {
	pipeline := userSummaryPipeline(42)
	require.Len(t, pipeline, 4)

	assert.Equal(t, "$match", stageKey(t, pipeline[0]))
	match := pipeline[0][0].Value.(bson.D)
	assert.Equal(t, "user_id", match[0].Key)
	assert.Equal(t, uint(42), match[0].Value)

	assert.Equal(t, "$group", stageKey(t, pipeline[1]))
	group := pipeline[1][0].Value.(bson.D)

	fields := map[string]bool{}
	for _, f := range group {
		fields[f.Key] = true
	}
	for _, want := range []string{"total_sessions", "total_duration", "total_pages_read", "total_highlights", "avg_progress", "books"} {
		assert.True(t, fields[want], "missing group field %s", want)
	}

	assert.Equal(t, "$addFields", stageKey(t, pipeline[2]))
	assert.Equal(t, "$project", stageKey(t, pipeline[3]))
}

func TestBookEngagementPipeline_SingleBook(t *testing.T) {
	pipeline := bookEngagementPipeline(7, "total_duration", 1)
	require.Len(t, pipeline, 6)

	assert.Equal(t, "$match", stageKey(t, pipeline[0]))
	match := pipeline[0][0].Value.(bson.D)
	assert.Equal(t, "book_id", match[0].Key)
	assert.Equal(t, uint(7), match[0].Value)

	assert.Equal(t, "$group", stageKey(t, pipeline[1]))
	group := pipeline[1][0].Value.(bson.D)
	assert.Equal(t, "_id", group[0].Key)
	assert.Equal(t, "$book_id", group[0].Value)

	assert.Equal(t, "$sort", stageKey(t, pipeline[4]))
	sort := pipeline[4][0].Value.(bson.D)
	assert.Equal(t, "total_duration", sort[0].Key)
	assert.Equal(t, -1, sort[0].Value)

	assert.Equal(t, "$limit", stageKey(t, pipeline[5]))
}

func TestBookEngagementPipeline_AllBooks(t *testing.T) {
	pipeline := bookEngagementPipeline(0, "total_duration", 10)

	// No $match stage when not filtering to a single book
	assert.Equal(t, "$group", stageKey(t, pipeline[0]))

	last := pipeline[len(pipeline)-1]
	assert.Equal(t, "$limit", stageKey(t, last))
	assert.Equal(t, int64(10), last[0].Value)
}

func TestBookEngagementPipeline_NoLimit(t *testing.T) {
	pipeline := bookEngagementPipeline(0, "total_duration", 0)

	for _, stage := range pipeline {
		assert.NotEqual(t, "$limit", stageKey(t, stage))
	}
}

func TestBookEngagementPipeline_HighlightSort(t *testing.T) {
	pipeline := bookEngagementPipeline(0, "total_highlights", 5)

	var sort bson.D
	for _, stage := range pipeline {
		if stageKey(t, stage) == "$sort" {
			sort = stage[0].Value.(bson.D)
		}
	}
	require.NotNil(t, sort)
	assert.Equal(t, "total_highlights", sort[0].Key)
	assert.Equal(t, -1, sort[0].Value)
}
