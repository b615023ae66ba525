package app

import (
	"context"

	"imagematch/domain"
)

type GetCategoriesHandler struct{}

func NewGetCategoriesHandler() *GetCategoriesHandler {
	return &GetCategoriesHandler{}
}

type GetCategoriesRequest struct{}

type GetCategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
}

func (h *GetCategoriesHandler) Handle(ctx context.Context, req *GetCategoriesRequest) (*GetCategoriesResponse, error) {
	return &GetCategoriesResponse{
		Categories: domain.Categories(),
	}, nil
}
