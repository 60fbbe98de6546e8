package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/account"
	"github.com/trezcool/bursary/core/ledger"
)

const (
	bankAccountColumns = `id, bank_name, account_name, account_number, branch, created_at`
	mfsAccountColumns  = `id, account_name, mfs_number, mfs_type, created_at`
)

type bankAccountRow struct {
	ID            int       `db:"id"`
	BankName      string    `db:"bank_name"`
	AccountName   string    `db:"account_name"`
	AccountNumber string    `db:"account_number"`
	Branch        string    `db:"branch"`
	CreatedAt     time.Time `db:"created_at"`
}

func (row bankAccountRow) toBankAccount() account.BankAccount {
	return account.BankAccount{
		ID:            row.ID,
		BankName:      row.BankName,
		AccountName:   row.AccountName,
		AccountNumber: row.AccountNumber,
		Branch:        row.Branch,
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

type mfsAccountRow struct {
	ID          int       `db:"id"`
	AccountName string    `db:"account_name"`
	MfsNumber   string    `db:"mfs_number"`
	MfsType     string    `db:"mfs_type"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row mfsAccountRow) toMfsAccount() account.MfsAccount {
	return account.MfsAccount{
		ID:          row.ID,
		AccountName: row.AccountName,
		MfsNumber:   row.MfsNumber,
		MfsType:     ledger.Method(row.MfsType),
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

type accountRepository struct {
	baseRepo
}

var _ account.Repository = (*accountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) account.Repository {
	return &accountRepository{baseRepo{db: db}}
}

func (repo *accountRepository) CreateBankAccount(ctx context.Context, acc account.BankAccount, exec ...core.DBExecutor) (account.BankAccount, error) {
	q := `INSERT INTO bank_accounts (bank_name, account_name, account_number, branch, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(ctx, q, acc.BankName, acc.AccountName, acc.AccountNumber, acc.Branch, acc.CreatedAt).
		Scan(&acc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return account.BankAccount{}, account.ErrBankAccountExists
		}
		return account.BankAccount{}, errors.Wrap(err, "inserting bank account")
	}
	return acc, nil
}

func (repo *accountRepository) QueryBankAccounts(ctx context.Context, exec ...core.DBExecutor) ([]account.BankAccount, error) {
	var rows []bankAccountRow
	q := `SELECT ` + bankAccountColumns + ` FROM bank_accounts ORDER BY bank_name, id`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying bank accounts")
	}
	accs := make([]account.BankAccount, 0, len(rows))
	for _, row := range rows {
		accs = append(accs, row.toBankAccount())
	}
	return accs, nil
}

func (repo *accountRepository) GetBankAccountByID(ctx context.Context, id int, exec ...core.DBExecutor) (account.BankAccount, error) {
	var row bankAccountRow
	q := `SELECT ` + bankAccountColumns + ` FROM bank_accounts WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, id); err != nil {
		return account.BankAccount{}, trapNoRowsErr(err, account.ErrBankAccountNotFound, "fetching bank account")
	}
	return row.toBankAccount(), nil
}

func (repo *accountRepository) DeleteBankAccount(ctx context.Context, id int, exec ...core.DBExecutor) error {
	return repo.delete(ctx, `DELETE FROM bank_accounts WHERE id = $1`, id, account.ErrBankAccountNotFound, exec)
}

func (repo *accountRepository) CreateMfsAccount(ctx context.Context, acc account.MfsAccount, exec ...core.DBExecutor) (account.MfsAccount, error) {
	q := `INSERT INTO mfs_accounts (account_name, mfs_number, mfs_type, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(ctx, q, acc.AccountName, acc.MfsNumber, string(acc.MfsType), acc.CreatedAt).
		Scan(&acc.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return account.MfsAccount{}, account.ErrMfsAccountExists
		}
		return account.MfsAccount{}, errors.Wrap(err, "inserting mfs account")
	}
	return acc, nil
}

func (repo *accountRepository) QueryMfsAccounts(ctx context.Context, exec ...core.DBExecutor) ([]account.MfsAccount, error) {
	var rows []mfsAccountRow
	q := `SELECT ` + mfsAccountColumns + ` FROM mfs_accounts ORDER BY mfs_type, id`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying mfs accounts")
	}
	accs := make([]account.MfsAccount, 0, len(rows))
	for _, row := range rows {
		accs = append(accs, row.toMfsAccount())
	}
	return accs, nil
}

func (repo *accountRepository) GetMfsAccountByID(ctx context.Context, id int, exec ...core.DBExecutor) (account.MfsAccount, error) {
	var row mfsAccountRow
	q := `SELECT ` + mfsAccountColumns + ` FROM mfs_accounts WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, id); err != nil {
		return account.MfsAccount{}, trapNoRowsErr(err, account.ErrMfsAccountNotFound, "fetching mfs account")
	}
	return row.toMfsAccount(), nil
}

func (repo *accountRepository) DeleteMfsAccount(ctx context.Context, id int, exec ...core.DBExecutor) error {
	return repo.delete(ctx, `DELETE FROM mfs_accounts WHERE id = $1`, id, account.ErrMfsAccountNotFound, exec)
}

// delete removes one account; accounts referenced by payments yield account.ErrInUse.
func (repo *accountRepository) delete(ctx context.Context, q string, id int, notFound error, exec []core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, q, id)
	if err != nil {
		if isFKViolation(err) {
			return account.ErrInUse
		}
		return errors.Wrap(err, "deleting account")
	}
	return affected(res, notFound)
}
