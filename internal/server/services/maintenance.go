package services

import (
	"context"

	"github.com/dmitrijs2005/authbridge/internal/logging"
	"github.com/dmitrijs2005/authbridge/internal/server/provider"
	"github.com/google/uuid"
)

// ThrowawayAccounts is how many accounts HitTheLimit creates.
const ThrowawayAccounts = 30

// MaintenanceResult counts the outcome of HitTheLimit.
type MaintenanceResult struct {
	Created int `json:"created"`
	Failed  int `json:"failed"`
}

// MaintenanceService holds operational helpers that exercise the provider.
type MaintenanceService struct {
	provider IdentityProvider
	log      logging.Logger
	newEmail func() string
}

// NewMaintenanceService constructs a MaintenanceService.
func NewMaintenanceService(p IdentityProvider, log logging.Logger) *MaintenanceService {
	return &MaintenanceService{
		provider: p,
		log:      log.With("module", "maintenance"),
		newEmail: func() string { return uuid.NewString() + "@gmail.com" },
	}
}

// HitTheLimit creates ThrowawayAccounts password-less accounts with random
// addresses, to probe the provider's rate limits and quotas.
func (s *MaintenanceService) HitTheLimit(ctx context.Context) MaintenanceResult {
	var res MaintenanceResult

	for i := 0; i < ThrowawayAccounts; i++ {
		if ctx.Err() != nil {
			res.Failed += ThrowawayAccounts - i
			break
		}

		email := s.newEmail()
		s.log.Info(ctx, "Creating user", "email", email)

		_, err := s.provider.CreateUser(ctx, provider.CreateUserParams{
			EmailAddress:            []string{email},
			SkipPasswordChecks:      true,
			SkipPasswordRequirement: true,
		})
		if err != nil {
			res.Failed++
			s.log.Error(ctx, "create throwaway user", "email", email, "error", err)
			continue
		}
		res.Created++
	}

	return res
}
