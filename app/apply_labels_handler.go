package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"imagematch/domain"
	"imagematch/pkg/events"
	"imagematch/pkg/httperror"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

type ApplyLabelsHandler struct {
	repository     Repository
	eventPublisher events.Publisher
	serviceName    string
}

type ApplyLabelsRequest struct {
	Labels []LabelSubmission `json:"labels" validate:"max=1000"`
}

type ApplyLabelsResponse struct {
	SubmissionResult
}

// NewApplyLabelsHandler builds the submit path. eventPublisher may be nil.
func NewApplyLabelsHandler(repository Repository, eventPublisher events.Publisher, serviceName string) *ApplyLabelsHandler {
	return &ApplyLabelsHandler{
		repository:     repository,
		eventPublisher: eventPublisher,
		serviceName:    serviceName,
	}
}

func (h *ApplyLabelsHandler) Handle(ctx context.Context, req *ApplyLabelsRequest) (*ApplyLabelsResponse, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	if err := validate.Struct(req); err != nil {
		if ve, ok := err.(validator.ValidationErrors); ok {
			return nil, httperror.BadRequest(
				"review.apply.validation_failed",
				"Validation failed for the request",
				ve.Error(),
			)
		}

		return nil, httperror.InternalServerError(
			"review.apply.validation_error",
			"An unexpected validation error occurred",
			nil,
		)
	}

	result, err := h.Apply(ctx, req.Labels)
	if err != nil {
		zap.L().Error("Failed to apply labels",
			zap.Int("saved", result.Saved),
			zap.Int("rejected", result.Rejected),
			zap.Error(err),
		)
		return nil, httperror.InternalServerError(
			"review.apply.store_failed",
			"An error occurred while saving labels",
			resultDetails(result),
		)
	}

	return &ApplyLabelsResponse{SubmissionResult: result}, nil
}

// Apply persists every valid submission, one update per item, and skips the
// rest. Items are independent: a rejected item never stops the loop, and
// labels saved before a store failure stay saved.
func (h *ApplyLabelsHandler) Apply(ctx context.Context, submissions []LabelSubmission) (SubmissionResult, error) {
	var result SubmissionResult
	reviewer := ReviewerFromContext(ctx)

	for _, submission := range submissions {
		label, err := bindLabel(submission)
		if err != nil {
			result.Rejected++
			if errors.Is(err, ErrInvalidImageID) {
				zap.L().Warn("Skipping label with unusable image id",
					zap.String("reviewer", reviewer),
					zap.Error(err),
				)
			} else {
				zap.L().Debug("Skipping invalid label",
					zap.String("reviewer", reviewer),
					zap.Error(err),
				)
			}
			continue
		}

		image, err := h.repository.GetImage(ctx, label.imageID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				result.Rejected++
				zap.L().Warn("Skipping label for unknown image",
					zap.Int64("imageId", label.imageID),
					zap.String("reviewer", reviewer),
				)
				continue
			}
			return result, fmt.Errorf("resolve image %d: %w", label.imageID, err)
		}

		if err := h.repository.UpdateImageCategory(ctx, image.ID, label.category); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				result.Rejected++
				continue
			}
			return result, fmt.Errorf("update image %d: %w", image.ID, err)
		}

		result.Saved++
		zap.L().Debug("Image labeled",
			zap.Int64("imageId", image.ID),
			zap.String("category", label.category.String()),
			zap.String("reviewer", reviewer),
		)

		h.publishLabeled(ctx, image, label.category, reviewer)
	}

	return result, nil
}

func (h *ApplyLabelsHandler) publishLabeled(ctx context.Context, image domain.Image, category domain.Category, reviewer string) {
	if h.eventPublisher == nil {
		return
	}

	headers := events.NewHeaders(h.serviceName)
	event := events.NewEvent(
		events.ImageLabeledEvent,
		events.EventVersionV1,
		events.ImageLabeledPayload{
			ID:        image.ID,
			ZillowID:  image.ZillowID,
			URL:       image.URL,
			Category:  category.String(),
			Reviewer:  reviewer,
			LabeledAt: time.Now().UTC(),
		},
		headers,
	)

	if err := h.eventPublisher.Publish(ctx, events.ImageExchange, event, headers); err != nil {
		zap.L().Error("Failed to publish image.labeled event",
			zap.Int64("imageId", image.ID),
			zap.Error(err),
		)
	}
}

func resultDetails(result SubmissionResult) map[string]int {
	return map[string]int{
		"saved":    result.Saved,
		"rejected": result.Rejected,
	}
}
