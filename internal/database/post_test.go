package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencircle/opencircle/internal/models"
)

func TestAttachTags(t *testing.T) {
	posts := []models.Post{{ID: 1}, {ID: 2}, {ID: 3}}
	byPost := map[int64][]models.Tag{
		1: {{UserID: 2, FullName: "Bob"}, {UserID: 3, FullName: "Carol"}},
		3: {{UserID: 2, FullName: "Bob"}},
	}

	attachTags(posts, byPost)

	assert.Len(t, posts[0].Tags, 2)
	assert.Equal(t, int64(2), posts[0].Tags[0].UserID)
	assert.NotNil(t, posts[1].Tags, "untagged posts get an empty list, not null")
	assert.Empty(t, posts[1].Tags)
	assert.Len(t, posts[2].Tags, 1)
}
