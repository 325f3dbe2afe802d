package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compare-service/backend/internal/revision"
)

func TestParseFixtures(t *testing.T) {
	f, err := parseFixtures([]byte(`
pages:
  - title: Foo
    revisions:
      - text: "one\n"
        comment: created
      - text: "two\n"
        hide_text: true
        hide_comment: true
  - title: Data:Config.json
    model: json
    revisions:
      - text: '{"a": 1}'
`))
	require.NoError(t, err)
	require.Len(t, f.Pages, 2)

	assert.Equal(t, revision.ModelWikitext, f.Pages[0].Model)
	assert.Equal(t, "created", f.Pages[0].Revisions[0].Comment)
	assert.Zero(t, f.Pages[0].Revisions[0].deletedBits())
	assert.Equal(t, revision.DeletedText|revision.DeletedComment, f.Pages[0].Revisions[1].deletedBits())
	assert.Equal(t, revision.ModelJSON, f.Pages[1].Model)
}

func TestParseFixtures_Invalid(t *testing.T) {
	_, err := parseFixtures([]byte(`pages: [{revisions: [{text: x}]}]`))
	assert.ErrorContains(t, err, "missing title")

	_, err = parseFixtures([]byte(`pages: [{title: Foo}]`))
	assert.ErrorContains(t, err, "no revisions")

	_, err = parseFixtures([]byte(`pages: {`))
	assert.Error(t, err)
}
