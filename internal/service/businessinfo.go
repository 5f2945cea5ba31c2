package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/relayline-ai/relayline/internal/domain"
)

// BusinessInfoService serves the business profile the receptionist injects
// into its prompt.
type BusinessInfoService struct {
	repo BusinessInfoRepositoryAPI
}

func NewBusinessInfoService(repo BusinessInfoRepositoryAPI) *BusinessInfoService {
	return &BusinessInfoService{repo: repo}
}

func (s *BusinessInfoService) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return domain.NewDomainError(domain.ErrCodeValidation, "business info key cannot be empty")
	}
	return s.repo.Upsert(ctx, key, value)
}

func (s *BusinessInfoService) List(ctx context.Context) ([]*domain.BusinessInfo, error) {
	return s.repo.ListAll(ctx)
}

// Profile renders the whole table as "key: value" lines for prompt
// injection.
func (s *BusinessInfoService) Profile(ctx context.Context) (string, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s: %s\n", e.Key, e.Value)
	}
	return b.String(), nil
}
