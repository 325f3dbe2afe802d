package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compare-service/backend/internal/revision"
	"compare-service/backend/internal/title"
)

func TestRevision_ToRecord(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rev := Revision{
		ID: 7, PageID: 3, ParentID: 6, Timestamp: ts, Deleted: revision.DeletedText,
		Slots: []Slot{{RevisionID: 7, Role: revision.SlotMain, Model: revision.ModelJSON, ContentID: 11, Size: 2}},
	}
	rec := rev.toRecord()
	assert.Equal(t, int64(7), rec.ID)
	assert.Equal(t, int64(6), rec.ParentID)
	assert.Equal(t, revision.ModelJSON, rec.MainModel())
	assert.True(t, rec.IsDeleted(revision.DeletedText))
	assert.False(t, rec.IsDeleted(revision.DeletedComment))

	s, ok := rec.Slot(revision.SlotMain)
	require.True(t, ok)
	assert.Equal(t, uint64(11), s.ContentID)
}

func TestContentSha1(t *testing.T) {
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", ContentSha1(""))
	assert.Equal(t, ContentSha1("abc"), ContentSha1("abc"))
	assert.NotEqual(t, ContentSha1("abc"), ContentSha1("abd"))
}

// 需要真实 MySQL：COMPARE_TEST_MYSQL_DSN="user:pass@tcp(127.0.0.1:3306)/compare_test?parseTime=true"
func TestRevisionStore_MySQL(t *testing.T) {
	dsn := os.Getenv("COMPARE_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("skip: COMPARE_TEST_MYSQL_DSN not set")
	}
	ctx := context.Background()
	db, sqlDB, err := OpenMySQL(ctx, MySQLOptions{DSN: dsn, AutoMigrate: true})
	if err != nil {
		t.Skipf("skip: mysql not available: %v", err)
	}
	defer sqlDB.Close()

	contents := NewContentStore(sqlDB)
	revs := NewRevisionStore(db)

	tt, err := title.NewParser(true).Parse("Store test " + time.Now().Format("150405.000000"))
	require.NoError(t, err)

	_, exists, err := revs.LatestRevisionID(ctx, tt)
	require.NoError(t, err)
	assert.False(t, exists)

	id1, sum1, err := contents.SaveContent(ctx, "first")
	require.NoError(t, err)
	// 相同内容复用同一行
	again, _, err := contents.SaveContent(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, id1, again)

	r1, err := revs.InsertRevision(ctx, NewRevision{Title: tt, ContentID: id1, Size: 5, Sha1: sum1})
	require.NoError(t, err)

	id2, sum2, err := contents.SaveContent(ctx, "second")
	require.NoError(t, err)
	r2, err := revs.InsertRevision(ctx, NewRevision{Title: tt, ContentID: id2, Size: 6, Sha1: sum2})
	require.NoError(t, err)

	latest, exists, err := revs.LatestRevisionID(ctx, tt)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, r2, latest)

	rec, err := revs.GetRevisionByID(ctx, r2)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, r1, rec.ParentID)
	assert.Equal(t, revision.ModelWikitext, rec.MainModel())

	text, err := contents.LoadContent(ctx, rec.Slots[revision.SlotMain].ContentID)
	require.NoError(t, err)
	assert.Equal(t, "second", text)

	missing, err := revs.GetRevisionByID(ctx, 1<<60)
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = contents.LoadContent(ctx, 1<<60)
	assert.ErrorIs(t, err, ErrContentNotFound)
}
