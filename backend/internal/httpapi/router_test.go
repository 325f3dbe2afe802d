package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"compare-service/backend/internal/compare"
	"compare-service/backend/internal/content"
	"compare-service/backend/internal/httpapi/handlers"
	"compare-service/backend/internal/revision"
	"compare-service/backend/internal/title"
)

type memRevisions map[int64]*revision.Record

func (m memRevisions) GetRevisionByID(ctx context.Context, id int64) (*revision.Record, error) {
	return m[id], nil
}

type memContents map[uint64]string

func (m memContents) LoadContent(ctx context.Context, id uint64) (string, error) {
	s, ok := m[id]
	if !ok {
		return "", errors.New("no such content")
	}
	return s, nil
}

type memPages map[string]int64

func (m memPages) LatestRevisionID(ctx context.Context, t title.Title) (int64, bool, error) {
	id, ok := m[t.PrefixedText()]
	return id, ok, nil
}

func rec(id int64, contentID uint64) *revision.Record {
	return &revision.Record{
		ID:     id,
		PageID: 1,
		Slots: map[string]revision.Slot{
			revision.SlotMain: {Role: revision.SlotMain, Model: revision.ModelWikitext, ContentID: contentID},
		},
	}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	revs := memRevisions{
		5:  rec(5, 50),
		42: rec(42, 420),
	}
	deps := content.Deps{
		Revisions: revs,
		Contents: memContents{
			50:  "Hello\nworld\n",
			420: "Hello\n<b>wiki</b>\n",
		},
	}
	svc := compare.NewService(
		revs,
		compare.NewTitleResolver(title.NewParser(true), memPages{"Foo": 42}),
		content.NewRegistry(deps, false),
		nil,
	)
	return NewRouter(handlers.NewCompareHandler(svc), RouterOptions{})
}

func get(r http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestComparePage_EmptyForm(t *testing.T) {
	w := get(newTestRouter(), "/compare", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `name="page1"`)
	assert.NotContains(t, body, `class="diff"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestComparePage_RendersDiff(t *testing.T) {
	w := get(newTestRouter(), "/compare?rev1=5&page2=Foo", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `data-old="5"`)
	assert.Contains(t, body, `data-new="42"`)
	assert.Contains(t, body, "&lt;b&gt;wiki&lt;/b&gt;")
	assert.NotContains(t, body, "<b>wiki</b>")
	assert.Contains(t, body, `class="diff-currentversion"`)
}

func TestComparePage_DiffOnly(t *testing.T) {
	w := get(newTestRouter(), "/compare?rev1=5&rev2=42&diffonly=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `class="diff-currentversion"`)
	assert.Contains(t, w.Body.String(), `name="diffonly" value="1"`)
}

func TestComparePage_FieldError(t *testing.T) {
	w := get(newTestRouter(), "/compare?page1=Foo&page2=Bar", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "The title you specified does not exist.")
	assert.NotContains(t, body, `class="diff-view"`)
	assert.Contains(t, body, `value="Bar"`)
}

func TestComparePage_ETag(t *testing.T) {
	r := newTestRouter()
	first := get(r, "/compare?rev1=5&rev2=42", nil)
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	second := get(r, "/compare?rev1=5&rev2=42", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusNotModified, second.Code)
	assert.Empty(t, second.Body.String())

	other := get(r, "/compare?rev1=42&rev2=5", http.Header{"If-None-Match": {etag}})
	assert.Equal(t, http.StatusOK, other.Code)
}

func TestCompareAPI(t *testing.T) {
	w := get(newTestRouter(), "/v1/compare?rev1=5&page2=Foo", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Outcome  string `json:"outcome"`
		Resolved struct {
			Old int64 `json:"old"`
			New int64 `json:"new"`
		} `json:"resolved"`
		Diff struct {
			Model   string `json:"model"`
			Added   int    `json:"added"`
			Removed int    `json:"removed"`
		} `json:"diff"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, compare.OutcomeRendered, resp.Outcome)
	assert.Equal(t, int64(5), resp.Resolved.Old)
	assert.Equal(t, int64(42), resp.Resolved.New)
	assert.Equal(t, revision.ModelWikitext, resp.Diff.Model)
	assert.Equal(t, 1, resp.Diff.Added)
	assert.Equal(t, 1, resp.Diff.Removed)
}

func TestCompareAPI_FieldErrors(t *testing.T) {
	w := get(newTestRouter(), "/v1/compare?rev1=abc&page2=Bar", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Outcome string `json:"outcome"`
		Errors  map[string]struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
		Diff json.RawMessage `json:"diff"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, compare.OutcomeInvalid, resp.Outcome)
	assert.Equal(t, "htmlform-int-invalid", resp.Errors["rev1"].Code)
	assert.Equal(t, "compare-title-not-exists", resp.Errors["page2"].Code)
	assert.Empty(t, resp.Diff)
}

func TestHealthz(t *testing.T) {
	w := get(newTestRouter(), "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
