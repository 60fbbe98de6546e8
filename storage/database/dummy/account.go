package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/account"
)

type accountRepository struct {
	db *DB
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) account.Repository {
	return &accountRepository{db: db}
}

func (repo *accountRepository) CreateBankAccount(_ context.Context, acc account.BankAccount, _ ...core.DBExecutor) (account.BankAccount, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, a := range repo.db.banks {
		if a.AccountNumber == acc.AccountNumber {
			return account.BankAccount{}, account.ErrBankAccountExists
		}
	}
	acc.ID = repo.db.nextID()
	repo.db.banks[acc.ID] = acc
	return acc, nil
}

func (repo *accountRepository) QueryBankAccounts(_ context.Context, _ ...core.DBExecutor) ([]account.BankAccount, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	accs := make([]account.BankAccount, 0, len(repo.db.banks))
	for _, a := range repo.db.banks {
		accs = append(accs, a)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].ID < accs[j].ID })
	return accs, nil
}

func (repo *accountRepository) GetBankAccountByID(_ context.Context, id int, _ ...core.DBExecutor) (account.BankAccount, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if acc, ok := repo.db.banks[id]; ok {
		return acc, nil
	}
	return account.BankAccount{}, account.ErrBankAccountNotFound
}

func (repo *accountRepository) DeleteBankAccount(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.banks[id]; !ok {
		return account.ErrBankAccountNotFound
	}
	for _, p := range repo.db.payments {
		if p.BankAccountID != nil && *p.BankAccountID == id {
			return account.ErrInUse
		}
	}
	delete(repo.db.banks, id)
	return nil
}

func (repo *accountRepository) CreateMfsAccount(_ context.Context, acc account.MfsAccount, _ ...core.DBExecutor) (account.MfsAccount, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, a := range repo.db.mfs {
		if a.MfsType == acc.MfsType && a.MfsNumber == acc.MfsNumber {
			return account.MfsAccount{}, account.ErrMfsAccountExists
		}
	}
	acc.ID = repo.db.nextID()
	repo.db.mfs[acc.ID] = acc
	return acc, nil
}

func (repo *accountRepository) QueryMfsAccounts(_ context.Context, _ ...core.DBExecutor) ([]account.MfsAccount, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	accs := make([]account.MfsAccount, 0, len(repo.db.mfs))
	for _, a := range repo.db.mfs {
		accs = append(accs, a)
	}
	sort.Slice(accs, func(i, j int) bool { return accs[i].ID < accs[j].ID })
	return accs, nil
}

func (repo *accountRepository) GetMfsAccountByID(_ context.Context, id int, _ ...core.DBExecutor) (account.MfsAccount, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if acc, ok := repo.db.mfs[id]; ok {
		return acc, nil
	}
	return account.MfsAccount{}, account.ErrMfsAccountNotFound
}

func (repo *accountRepository) DeleteMfsAccount(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.mfs[id]; !ok {
		return account.ErrMfsAccountNotFound
	}
	for _, p := range repo.db.payments {
		if p.MfsID != nil && *p.MfsID == id {
			return account.ErrInUse
		}
	}
	delete(repo.db.mfs, id)
	return nil
}
