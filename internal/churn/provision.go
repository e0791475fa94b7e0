package churn

import (
	"context"
	"fmt"

	klog "github.com/Klingon-tech/churn/internal/log"
	"github.com/Klingon-tech/churn/pkg/xmr"
)

// AccountCreator creates wallet accounts.
type AccountCreator interface {
	CreateAccount(ctx context.Context) (*xmr.NewAccount, error)
}

// EnsureAccounts creates accounts until the wallet has at least requested of
// them. It reports whether any were created; the caller must re-fetch the
// account list in that case. The first creation failure aborts.
func EnsureAccounts(ctx context.Context, creator AccountCreator, requested int, current []xmr.Account) (bool, error) {
	missing := requested - len(current)
	if missing <= 0 {
		return false, nil
	}

	klog.Churn.Info().
		Int("have", len(current)).
		Int("need", requested).
		Msg("Creating accounts to churn with")

	for i := 0; i < missing; i++ {
		acct, err := creator.CreateAccount(ctx)
		if err != nil {
			return false, fmt.Errorf("create account %d of %d: %w", i+1, missing, err)
		}
		klog.Churn.Info().
			Uint32("account_index", acct.Index).
			Str("address", acct.Address).
			Msg("Created a new account")
	}
	return true, nil
}
