package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/billgate/billgate/internal/account"
	"github.com/billgate/billgate/internal/flags"
	"github.com/billgate/billgate/internal/gate"
	"github.com/billgate/billgate/internal/requirements"
)

type repoFixture struct {
	registry *flags.Registry
	source   *requirements.MemorySource
	repo     *account.GuardedRepository
}

func newRepoFixture(t *testing.T, setup func(*requirements.MemorySource)) *repoFixture {
	t.Helper()

	registry := flags.NewRegistry()
	source := requirements.NewMemorySource()
	if setup != nil {
		setup(source)
	}
	provider := requirements.NewProvider(requirements.ProviderConfig{
		Source: source,
		Logger: zerolog.Nop(),
	})

	guard, err := gate.NewGuard(gate.GuardConfig{
		Layer:        requirements.LayerRepository,
		Selectors:    account.RepositorySelectors(),
		Registry:     registry,
		Requirements: provider,
		CacheTTL:     time.Minute,
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)

	return &repoFixture{
		registry: registry,
		source:   source,
		repo:     account.NewGuardedRepository(account.NewInMemoryRepository(), guard),
	}
}

func newAccount(id string, accountType account.Type) *account.Account {
	return &account.Account{
		ID:           id,
		UserID:       "user-1",
		Name:         "Everyday",
		Type:         accountType,
		BalanceCents: 10_000,
		Currency:     "EUR",
	}
}

func TestGuardedRepository_CreateDeniedByAccountType(t *testing.T) {
	f := newRepoFixture(t, func(s *requirements.MemorySource) {
		s.Require(requirements.LayerRepository, flags.FlagBankingV2, account.SelectorCreateAccount, string(account.TypeCredit))
	})

	err := f.repo.Create(context.Background(), newAccount("acc_1", account.TypeCredit))
	denied, ok := gate.IsDenied(err)
	require.True(t, ok)
	assert.Equal(t, flags.FlagBankingV2, denied.Flag)
	assert.Equal(t, requirements.LayerRepository, denied.Layer)
	assert.Equal(t, string(account.TypeCredit), denied.Discriminator)

	// An ungated account type delegates untouched.
	require.NoError(t, f.repo.Create(context.Background(), newAccount("acc_2", account.TypeSavings)))
	got, err := f.repo.GetByUserAndID(context.Background(), "user-1", "acc_2")
	require.NoError(t, err)
	assert.Equal(t, account.TypeSavings, got.Type)
}

func TestGuardedRepository_CreatePassesWhenEnabled(t *testing.T) {
	f := newRepoFixture(t, func(s *requirements.MemorySource) {
		s.Require(requirements.LayerRepository, flags.FlagBankingV2, account.SelectorCreateAccount, string(account.TypeCredit))
	})
	f.registry.Apply(flags.Flag{Name: flags.FlagBankingV2, Kind: flags.KindBoolean, Enabled: true})

	acc := newAccount("acc_1", account.TypeCredit)
	require.NoError(t, f.repo.Create(context.Background(), acc))

	got, err := f.repo.GetByUserAndID(context.Background(), "user-1", "acc_1")
	require.NoError(t, err)
	assert.Equal(t, account.TypeCredit, got.Type)
}

func TestGuardedRepository_ReadGatedByWildcardOnly(t *testing.T) {
	f := newRepoFixture(t, func(s *requirements.MemorySource) {
		// Reads carry no subtype, so only a wildcard requirement can
		// govern them.
		s.Require(requirements.LayerRepository, flags.FlagBankingV2, account.SelectorGetAccount)
		s.Require(requirements.LayerRepository, flags.FlagBankingV2, account.SelectorListAccounts, string(account.TypeCredit))
	})

	_, err := f.repo.GetByUserAndID(context.Background(), "user-1", "acc_1")
	denied, ok := gate.IsDenied(err)
	require.True(t, ok)
	assert.Equal(t, flags.FlagBankingV2, denied.Flag)
	assert.Equal(t, requirements.Wildcard, denied.Discriminator)

	// A subtype-scoped requirement cannot match a read's wildcard
	// discriminator; the empty list comes from the repository.
	accounts, err := f.repo.List(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestGuardedRepository_UpdateAndDelete(t *testing.T) {
	f := newRepoFixture(t, func(s *requirements.MemorySource) {
		s.Require(requirements.LayerRepository, flags.FlagBankingV2, account.SelectorUpdateAccount, string(account.TypeCredit))
		s.Require(requirements.LayerRepository, flags.FlagBankingV2, account.SelectorDeleteAccount)
	})

	savings := newAccount("acc_1", account.TypeSavings)
	require.NoError(t, f.repo.Create(context.Background(), savings))

	savings.Name = "Rainy day"
	require.NoError(t, f.repo.Update(context.Background(), savings), "ungated subtype must pass")

	err := f.repo.Update(context.Background(), newAccount("acc_2", account.TypeCredit))
	_, ok := gate.IsDenied(err)
	assert.True(t, ok)

	err = f.repo.Delete(context.Background(), "user-1", "acc_1")
	denied, ok := gate.IsDenied(err)
	require.True(t, ok)
	assert.Equal(t, flags.FlagBankingV2, denied.Flag)
}

func TestGuardedRepository_FlagFlipChangesOutcome(t *testing.T) {
	f := newRepoFixture(t, func(s *requirements.MemorySource) {
		s.Require(requirements.LayerRepository, flags.FlagBankingV2, account.SelectorCreateAccount, string(account.TypeCredit))
	})

	_, ok := gate.IsDenied(f.repo.Create(context.Background(), newAccount("acc_1", account.TypeCredit)))
	require.True(t, ok)

	f.registry.Apply(flags.Flag{Name: flags.FlagBankingV2, Kind: flags.KindBoolean, Enabled: true})
	assert.NoError(t, f.repo.Create(context.Background(), newAccount("acc_2", account.TypeCredit)))

	f.registry.Apply(flags.Flag{Name: flags.FlagBankingV2, Kind: flags.KindBoolean, Enabled: false})
	_, ok = gate.IsDenied(f.repo.Create(context.Background(), newAccount("acc_3", account.TypeCredit)))
	assert.True(t, ok)
}
