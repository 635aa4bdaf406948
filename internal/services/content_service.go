package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artisans-backend/internal/clients/ai"
)

var ErrAIUnavailable = errors.New("ai assistant is not configured")

type RefineRequest struct {
	Context      ai.RefineContext `json:"context" validate:"required,max=50"`
	CurrentValue string           `json:"current_value" validate:"max=10000"`
	UserPrompt   string           `json:"user_prompt" validate:"required,max=2000"`
	Additional   ai.RefineExtra   `json:"additional_context"`
}

type RefineResponse struct {
	RefinedContent string `json:"refined_content"`
}

// ContentService rewrites shop and product copy with the AI assistant.
type ContentService struct {
	ai *ai.Client
}

func NewContentService(client *ai.Client) *ContentService {
	return &ContentService{ai: client}
}

func (s *ContentService) Refine(ctx context.Context, userID uuid.UUID, req *RefineRequest) (*RefineResponse, error) {
	if s.ai == nil || !s.ai.Enabled() {
		return nil, ErrAIUnavailable
	}

	out, err := s.ai.Refine(ctx, req.Context, req.CurrentValue, strings.TrimSpace(req.UserPrompt), req.Additional)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"context": req.Context,
		}).Error("Content refinement failed")
		return nil, err
	}
	return &RefineResponse{RefinedContent: strings.TrimSpace(out)}, nil
}
