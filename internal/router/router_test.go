package router

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"imagematch/app"
	"imagematch/domain"
	"imagematch/infra/database"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, unlabeled int) (*fiber.App, *database.Repository) {
	t.Helper()

	repo, err := database.NewSqliteRepository(filepath.Join(t.TempDir(), "images.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	require.NoError(t, repo.Migrate(context.Background()))

	for i := 0; i < unlabeled; i++ {
		_, err := repo.CreateImage(context.Background(), fmt.Sprintf("Z%d", i), fmt.Sprintf("http://x/%d.jpg", i))
		require.NoError(t, err)
	}

	return New(Dependencies{
		Repository:  repo,
		BatchSize:   app.DefaultBatchSize,
		ServiceName: "imagematch",
	}), repo
}

func do(t *testing.T, fiberApp *fiber.App, req *http.Request) (int, string) {
	t.Helper()

	res, err := fiberApp.Test(req, -1)
	require.NoError(t, err)
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res.StatusCode, string(body)
}

var hiddenIDField = regexp.MustCompile(`name="(images-\d+-id)" value="(\d+)"`)

func TestReviewPageEndToEnd(t *testing.T) {
	fiberApp, _ := newTestApp(t, 60)

	status, body := do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, status)

	matches := hiddenIDField.FindAllStringSubmatch(body, -1)
	require.Len(t, matches, 50)
	assert.NotContains(t, body, "Z0")
	assert.Contains(t, body, "http://x/0.jpg")
	for _, c := range domain.Categories() {
		assert.Contains(t, body, fmt.Sprintf(`<option value="%s">`, c))
	}

	form := url.Values{}
	for _, m := range matches {
		form.Set(m[1], m[2])
		form.Set(strings.TrimSuffix(m[1], "-id")+"-category", "Exterior")
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, body = do(t, fiberApp, req)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Saved 50, skipped 0")
	assert.Len(t, hiddenIDField.FindAllStringSubmatch(body, -1), 10)

	status, body = do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, hiddenIDField.FindAllStringSubmatch(body, -1), 10)
}

func TestReviewPageSkipsBlankAndInvalidChoices(t *testing.T) {
	fiberApp, repo := newTestApp(t, 3)

	form := url.Values{}
	form.Set("images-0-id", "1")
	form.Set("images-0-category", "")
	form.Set("images-1-id", "2")
	form.Set("images-1-category", "Basement")
	form.Set("images-2-id", "3")
	form.Set("images-2-category", "Garden")
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	status, body := do(t, fiberApp, req)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Saved 1, skipped 2")

	img, err := repo.GetImage(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, img.Category)
	img, err = repo.GetImage(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, img.Category)
	assert.Equal(t, domain.CategoryGarden, *img.Category)
}

func TestReviewPageEmptyStore(t *testing.T) {
	fiberApp, _ := newTestApp(t, 0)

	status, body := do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "No unlabeled images remain.")
}

func TestReviewPageShowsReviewer(t *testing.T) {
	fiberApp, _ := newTestApp(t, 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Reviewer", "robin")
	_, body := do(t, fiberApp, req)
	assert.Contains(t, body, "Reviewer: robin")
}

func TestReviewPageStoreFailure(t *testing.T) {
	fiberApp, repo := newTestApp(t, 1)
	require.NoError(t, repo.Close())

	status, body := do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "review.batch.failed")
}

func TestAPIUnlabeledBatch(t *testing.T) {
	fiberApp, _ := newTestApp(t, 60)

	status, body := do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/api/v1/images/unlabeled", nil))
	require.Equal(t, http.StatusOK, status)

	var res app.GetUnlabeledBatchResponse
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, 50, res.Form.Total)
	assert.Len(t, res.Form.Choices, 9)
	assert.NotContains(t, body, "zillow")

	status, body = do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/api/v1/images/unlabeled?limit=5", nil))
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, 5, res.Form.Total)
}

func TestAPIUnlabeledBatchBadLimit(t *testing.T) {
	fiberApp, _ := newTestApp(t, 1)

	status, body := do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/api/v1/images/unlabeled?limit=lots", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "request.invalid_query_params")
}

func TestAPIApplyLabels(t *testing.T) {
	fiberApp, repo := newTestApp(t, 2)

	payload := `{"labels":[{"id":"1","category":"Map"},{"id":"2","category":""},{"id":"99","category":"Map"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/images/labels", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	status, body := do(t, fiberApp, req)
	require.Equal(t, http.StatusOK, status)

	var res app.ApplyLabelsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Equal(t, 1, res.Saved)
	assert.Equal(t, 2, res.Rejected)

	img, err := repo.GetImage(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryMap, *img.Category)
}

func TestAPIApplyLabelsMalformedBody(t *testing.T) {
	fiberApp, _ := newTestApp(t, 1)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images/labels", strings.NewReader(`{"labels":`))
	req.Header.Set("Content-Type", "application/json")

	status, body := do(t, fiberApp, req)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "request.invalid_body")
}

func TestAPICategoriesAndStats(t *testing.T) {
	fiberApp, repo := newTestApp(t, 3)
	require.NoError(t, repo.UpdateImageCategory(context.Background(), 2, domain.CategoryView))

	status, body := do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"categories":["Interior","Exterior","Garden","Land","Map","FloorPlan","View","Other"]}`, body)

	status, body = do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, status)

	var stats app.GetLabelStatsResponse
	require.NoError(t, json.Unmarshal([]byte(body), &stats))
	assert.Equal(t, 2, stats.Unlabeled)
	assert.Equal(t, 1, stats.Labeled)
}

func TestHealthz(t *testing.T) {
	fiberApp, repo := newTestApp(t, 0)

	status, body := do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)

	require.NoError(t, repo.Close())
	status, body = do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Contains(t, body, "health.store_unavailable")
}

func TestHiddenIDsAreImageIDs(t *testing.T) {
	fiberApp, _ := newTestApp(t, 2)

	_, body := do(t, fiberApp, httptest.NewRequest(http.MethodGet, "/", nil))
	matches := hiddenIDField.FindAllStringSubmatch(body, -1)
	require.Len(t, matches, 2)
	for i, m := range matches {
		assert.Equal(t, fmt.Sprintf("images-%d-id", i), m[1])
		assert.Equal(t, strconv.Itoa(i+1), m[2])
	}
}
