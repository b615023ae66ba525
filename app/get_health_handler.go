package app

import (
	"context"

	"imagematch/pkg/httperror"
)

type GetHealthHandler struct {
	repository Repository
}

func NewGetHealthHandler(repository Repository) *GetHealthHandler {
	return &GetHealthHandler{
		repository: repository,
	}
}

type GetHealthRequest struct{}

type GetHealthResponse struct {
	Status string `json:"status"`
}

func (h *GetHealthHandler) Handle(ctx context.Context, req *GetHealthRequest) (*GetHealthResponse, error) {
	if err := h.repository.Ping(ctx); err != nil {
		return nil, httperror.ServiceUnavailable(
			"health.store_unavailable",
			"Image store is unavailable",
			nil,
		)
	}

	return &GetHealthResponse{Status: "ok"}, nil
}
