package account

import (
	"context"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/ledger"
)

var (
	// errors
	ErrBankAccountNotFound = errors.New("bank account not found")
	ErrMfsAccountNotFound  = errors.New("mfs account not found")
	ErrBankAccountExists   = errors.New("a bank account with this number already exists")
	ErrMfsAccountExists    = errors.New("an mfs account with this number already exists")
	ErrInUse               = errors.New("account has payments recorded against it")
	ErrInvalidRange        = errors.New("from date must not be after to date")
)

type (
	Repository interface {
		CreateBankAccount(ctx context.Context, acc BankAccount, exec ...core.DBExecutor) (BankAccount, error)
		QueryBankAccounts(ctx context.Context, exec ...core.DBExecutor) ([]BankAccount, error)
		GetBankAccountByID(ctx context.Context, id int, exec ...core.DBExecutor) (BankAccount, error)
		DeleteBankAccount(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateMfsAccount(ctx context.Context, acc MfsAccount, exec ...core.DBExecutor) (MfsAccount, error)
		QueryMfsAccounts(ctx context.Context, exec ...core.DBExecutor) ([]MfsAccount, error)
		GetMfsAccountByID(ctx context.Context, id int, exec ...core.DBExecutor) (MfsAccount, error)
		DeleteMfsAccount(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		CreateBankAccount(ctx context.Context, nba NewBankAccount) (BankAccount, error)
		QueryBankAccounts(ctx context.Context) ([]BankAccount, error)
		DeleteBankAccount(ctx context.Context, id int) error

		CreateMfsAccount(ctx context.Context, nma NewMfsAccount) (MfsAccount, error)
		QueryMfsAccounts(ctx context.Context) ([]MfsAccount, error)
		DeleteMfsAccount(ctx context.Context, id int) error

		// Summary totals payments by method; a zero filter covers the current month.
		Summary(ctx context.Context, filter SummaryFilter) (Summary, error)
	}

	service struct {
		repo        Repository
		paymentRepo ledger.PaymentRepository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, paymentRepo ledger.PaymentRepository) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(paymentRepo, "paymentRepo"),
	).CheckAndPanic()

	return &service{repo: repo, paymentRepo: paymentRepo}
}

// NotFound turns the account sentinels into a *core.NotFoundError.
func NotFound(err error, id int) error {
	switch errors.Cause(err) {
	case ErrBankAccountNotFound:
		return core.NewNotFoundError(ErrBankAccountNotFound, "bank account", id)
	case ErrMfsAccountNotFound:
		return core.NewNotFoundError(ErrMfsAccountNotFound, "mfs account", id)
	}
	return err
}

func conflict(err error, field string) error {
	switch cause := errors.Cause(err); cause {
	case ErrBankAccountExists, ErrMfsAccountExists, ErrInUse:
		return core.NewValidationError(cause, core.FieldError{Field: field, Error: cause.Error()})
	}
	return err
}

func (svc *service) CreateBankAccount(ctx context.Context, nba NewBankAccount) (BankAccount, error) {
	acc, err := svc.repo.CreateBankAccount(ctx, BankAccount{
		BankName:      nba.BankName,
		AccountName:   nba.AccountName,
		AccountNumber: nba.AccountNumber,
		Branch:        nba.Branch,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return BankAccount{}, conflict(errors.Wrap(err, "inserting bank account"), "account_number")
	}
	return acc, nil
}

func (svc *service) QueryBankAccounts(ctx context.Context) ([]BankAccount, error) {
	return svc.repo.QueryBankAccounts(ctx)
}

func (svc *service) DeleteBankAccount(ctx context.Context, id int) error {
	return conflict(NotFound(svc.repo.DeleteBankAccount(ctx, id), id), "id")
}

func (svc *service) CreateMfsAccount(ctx context.Context, nma NewMfsAccount) (MfsAccount, error) {
	acc, err := svc.repo.CreateMfsAccount(ctx, MfsAccount{
		AccountName: nma.AccountName,
		MfsNumber:   nma.MfsNumber,
		MfsType:     nma.MfsType,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return MfsAccount{}, conflict(errors.Wrap(err, "inserting mfs account"), "mfs_number")
	}
	return acc, nil
}

func (svc *service) QueryMfsAccounts(ctx context.Context) ([]MfsAccount, error) {
	return svc.repo.QueryMfsAccounts(ctx)
}

func (svc *service) DeleteMfsAccount(ctx context.Context, id int) error {
	return conflict(NotFound(svc.repo.DeleteMfsAccount(ctx, id), id), "id")
}

func (svc *service) Summary(ctx context.Context, filter SummaryFilter) (Summary, error) {
	from, to := filter.From, filter.To
	if from.IsZero() || to.IsZero() {
		start, end := core.MonthRange(time.Now())
		if from.IsZero() {
			from = core.NewDate(start)
		}
		if to.IsZero() {
			to = core.NewDate(end.AddDate(0, 0, -1))
		}
	}
	if from.After(to.Time) {
		return Summary{}, core.NewValidationError(ErrInvalidRange, core.FieldError{Field: "from", Error: ErrInvalidRange.Error()})
	}

	totals, err := svc.paymentRepo.SumPaymentsByMethod(ctx, from.Time, to.AddDate(0, 0, 1))
	if err != nil {
		return Summary{}, errors.Wrap(err, "summing payments")
	}
	return NewSummary(from, to, totals), nil
}
