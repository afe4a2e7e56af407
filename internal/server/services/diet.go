package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dharitri/backend/internal/common"
)

// DietAnswerer is satisfied by analysis.DietAdvisor.
type DietAnswerer interface {
	Ask(ctx context.Context, question, reportText string) (string, error)
}

type DietService struct {
	advisor DietAnswerer
}

func NewDietService(advisor DietAnswerer) *DietService {
	return &DietService{advisor: advisor}
}

// Consult answers question, optionally grounded in reportText.
func (s *DietService) Consult(ctx context.Context, question, reportText string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is required", common.ErrorValidation)
	}
	return s.advisor.Ask(ctx, question, reportText)
}
