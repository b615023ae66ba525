package router

import (
	"errors"

	"imagematch/app"
	"imagematch/pkg/httperror"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type reviewPages struct {
	batch *app.GetUnlabeledBatchHandler
	apply *app.ApplyLabelsHandler
}

func (p *reviewPages) show(c *fiber.Ctx) error {
	return p.render(c, nil)
}

// submit applies the posted form and then shows the next batch, the same way
// a plain GET would.
func (p *reviewPages) submit(c *fiber.Ctx) error {
	values := make(map[string]string)
	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		values[string(key)] = string(value)
	})

	res, err := p.apply.Handle(c.UserContext(), &app.ApplyLabelsRequest{
		Labels: app.DecodeReviewForm(values),
	})
	if err != nil {
		return renderError(c, err)
	}

	zap.L().Info("Review batch submitted",
		zap.String("reviewer", app.ReviewerFromContext(c.UserContext())),
		zap.Int("saved", res.Saved),
		zap.Int("rejected", res.Rejected),
	)

	return p.render(c, &res.SubmissionResult)
}

func (p *reviewPages) render(c *fiber.Ctx, summary *app.SubmissionResult) error {
	res, err := p.batch.Handle(c.UserContext(), &app.GetUnlabeledBatchRequest{})
	if err != nil {
		return renderError(c, err)
	}

	return c.Render("views/review", fiber.Map{
		"Form":     res.Form,
		"Summary":  summary,
		"Reviewer": app.ReviewerFromContext(c.UserContext()),
	})
}

func renderError(c *fiber.Ctx, err error) error {
	var httpErr *httperror.Error
	if !errors.As(err, &httpErr) {
		httpErr = httperror.InternalServerError("internal_server_error", "Internal server error.", nil)
	}

	if httpErr.Status >= fiber.StatusInternalServerError {
		zap.L().Error("Review page failed", zap.String("code", httpErr.Code), zap.Error(err))
	} else {
		zap.L().Warn("Review page rejected request", zap.String("code", httpErr.Code), zap.Error(err))
	}

	return c.Status(httpErr.Status).Render("views/error", fiber.Map{
		"Code":    httpErr.Code,
		"Message": httpErr.Message,
	})
}
