package middleware

import (
	"context"
	"encoding/base64"
	"strings"

	"imagematch/app"

	"github.com/gofiber/fiber/v2"
)

const ReviewerHeader = "X-Reviewer"

// NewReviewerMiddleware tags the request context with who is labeling. The
// name comes from X-Reviewer, else the basic-auth user, else "anonymous".
// It identifies; it does not authenticate.
func NewReviewerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reviewer := strings.TrimSpace(c.Get(ReviewerHeader))
		if reviewer == "" {
			reviewer = basicAuthUser(c.Get(fiber.HeaderAuthorization))
		}
		if reviewer == "" {
			reviewer = app.AnonymousReviewer
		}

		userCtx := c.UserContext()
		if userCtx == nil {
			userCtx = context.Background()
		}

		c.SetUserContext(app.WithReviewer(userCtx, reviewer))
		c.Locals("reviewer", reviewer)
		return c.Next()
	}
}

func basicAuthUser(authorization string) string {
	encoded, ok := strings.CutPrefix(strings.TrimSpace(authorization), "Basic ")
	if !ok {
		return ""
	}
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return ""
	}
	user, _, _ := strings.Cut(string(decoded), ":")
	return strings.TrimSpace(user)
}
