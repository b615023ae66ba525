package middleware

import (
	"encoding/base64"
	"io"
	"net/http/httptest"
	"testing"

	"imagematch/app"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reviewerApp() *fiber.App {
	a := fiber.New()
	a.Use(NewReviewerMiddleware())
	a.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(app.ReviewerFromContext(c.UserContext()))
	})
	return a
}

func reviewerFor(t *testing.T, headers map[string]string) string {
	t.Helper()

	req := httptest.NewRequest("GET", "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := reviewerApp().Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return string(body)
}

func TestReviewerMiddleware(t *testing.T) {
	basic := "Basic " + base64.StdEncoding.EncodeToString([]byte("lee:secret"))

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"anonymous", nil, "anonymous"},
		{"header", map[string]string{"X-Reviewer": " kim "}, "kim"},
		{"basic auth", map[string]string{"Authorization": basic}, "lee"},
		{"header wins", map[string]string{"X-Reviewer": "kim", "Authorization": basic}, "kim"},
		{"bearer ignored", map[string]string{"Authorization": "Bearer abc"}, "anonymous"},
		{"garbage basic", map[string]string{"Authorization": "Basic !!!"}, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, reviewerFor(t, tt.headers))
		})
	}
}
