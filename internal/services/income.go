package services

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"eventra/internal/domain"
)

var (
	hostShare     = decimal.RequireFromString("0.90")
	platformShare = decimal.RequireFromString("0.10")
)

// SplitIncome returns the host and platform cuts of amount. Each cut is
// rounded to 2 places on its own.
func SplitIncome(amount decimal.Decimal) (hostCut, platformCut decimal.Decimal) {
	return amount.Mul(hostShare).Round(2), amount.Mul(platformShare).Round(2)
}

// distributeIncome credits the host and the admin aggregate for a payment
// that has just become PAID. It must run in the same transaction.
func distributeIncome(ctx context.Context, repos domain.Repositories, pay *domain.Payment) error {
	hostCut, platformCut := SplitIncome(pay.Amount)
	if err := repos.Hosts.AddIncome(ctx, pay.HostID, hostCut); err != nil {
		return fmt.Errorf("credit host %s: %w", pay.HostID, err)
	}
	admin, err := repos.Admins.First(ctx)
	if err != nil {
		return fmt.Errorf("load admin: %w", err)
	}
	if err := repos.Admins.AddIncome(ctx, admin.ID, platformCut); err != nil {
		return fmt.Errorf("credit admin: %w", err)
	}
	return nil
}
