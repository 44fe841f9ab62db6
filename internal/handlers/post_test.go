package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencircle/opencircle/internal/models"
)

func TestClassifyMedia(t *testing.T) {
	assert.Equal(t, models.MediaTypeImage, classifyMedia("image/png"))
	assert.Equal(t, models.MediaTypeImage, classifyMedia("IMAGE/JPEG"))
	assert.Equal(t, models.MediaTypeVideo, classifyMedia("video/mp4"))
	assert.Equal(t, models.MediaTypeFile, classifyMedia("application/pdf"))
	assert.Equal(t, models.MediaTypeFile, classifyMedia("text/plain"))
	assert.Equal(t, models.MediaTypeFile, classifyMedia(""))
}

func TestParseTaggedIDs(t *testing.T) {
	ids, err := parseTaggedIDs("[2,3]")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids)

	ids, err = parseTaggedIDs("2, 3")
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, ids)

	ids, err = parseTaggedIDs("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseTaggedIDs("[2,")
	assert.Error(t, err)

	_, err = parseTaggedIDs("2,x")
	assert.Error(t, err)
}
