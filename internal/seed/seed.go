package seed

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/shield-staffing/shield/backend/internal/config"
	"github.com/shield-staffing/shield/backend/internal/domain"
	"github.com/shield-staffing/shield/backend/internal/repository"
	"github.com/shield-staffing/shield/backend/internal/utils"
)

// SeedDemoData fills an empty database with a small believable marketplace:
// a few managers, a pool of personnel, upcoming open shifts, and pending
// offers fanned out to random personnel. All seeded accounts share the
// configured seed password.
func SeedDemoData(ctx context.Context, cfg *config.Config, repo *repository.Repository) {
	managers := make([]*domain.User, 0, 3)
	for i := 0; i < 3; i++ {
		manager, err := utils.GenerateRandomUser(domain.RoleManager, cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("cannot generate manager", "error", err)
			continue
		}
		if err := repo.CreateUser(ctx, manager); err != nil {
			slog.Error("cannot insert manager", "error", err)
			continue
		}
		managers = append(managers, manager)
	}

	personnel := make([]*domain.User, 0, 12)
	for i := 0; i < 12; i++ {
		p, err := utils.GenerateRandomUser(domain.RolePersonnel, cfg.Seed.User.Password, cfg.Email.UserDomain)
		if err != nil {
			slog.Error("cannot generate personnel", "error", err)
			continue
		}
		if err := repo.CreateUser(ctx, p); err != nil {
			slog.Error("cannot insert personnel", "error", err)
			continue
		}
		personnel = append(personnel, p)
	}

	if len(managers) == 0 || len(personnel) == 0 {
		slog.Error("not enough seeded accounts to create shifts")
		return
	}

	shiftCount := 0
	offerCount := 0
	for i := 0; i < 8; i++ {
		manager := managers[rand.Intn(len(managers))]
		shift := utils.GenerateRandomShift(manager.ID)
		if err := repo.CreateShift(ctx, shift); err != nil {
			slog.Error("cannot insert shift", "error", err)
			continue
		}
		shiftCount++

		// offer each shift to a random subset of the pool
		expiresAt := time.Now().Add(time.Duration(cfg.Offers.DefaultExpiration) * time.Second)
		for _, p := range pickRandomPersonnel(personnel, rand.Intn(4)+2) {
			offer := &domain.ShiftOffer{
				ShiftID:     shift.ID,
				PersonnelID: p.ID,
				ExpiresAt:   expiresAt,
			}
			if err := repo.CreateOffer(ctx, offer); err != nil {
				slog.Error("cannot insert offer", "error", err)
				continue
			}
			offerCount++
		}
	}

	slog.Info("demo data seeded",
		"managers", len(managers),
		"personnel", len(personnel),
		"shifts", shiftCount,
		"offers", offerCount,
	)
}

// pickRandomPersonnel returns up to n distinct users via a partial
// Fisher-Yates shuffle.
func pickRandomPersonnel(pool []*domain.User, n int) []*domain.User {
	poolCopy := append([]*domain.User{}, pool...)

	if n > len(poolCopy) {
		n = len(poolCopy)
	}

	for i := 0; i < n; i++ {
		j := rand.Intn(len(poolCopy)-i) + i
		poolCopy[i], poolCopy[j] = poolCopy[j], poolCopy[i]
	}

	return poolCopy[:n]
}
