package collection

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/kat-co/vala"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/account"
	"github.com/trezcool/bursary/core/ledger"
	"github.com/trezcool/bursary/core/student"
)

var (
	// errors
	ErrEmptyBatch          = errors.New("at least one payment is required")
	ErrStudentMismatch     = errors.New("student fee record does not belong to this student")
	ErrBankAccountRequired = errors.New("bank account is required for bank payments")
	ErrMfsAccountRequired  = errors.New("mfs account is required for mobile payments")
	ErrMfsTypeMismatch     = errors.New("mfs account type does not match the payment method")
	ErrUnexpectedFunding   = errors.New("cash payments cannot reference a funding account")
	ErrInvalidBankAccount  = errors.New("invalid bank account")
	ErrInvalidMfsAccount   = errors.New("invalid mfs account")
)

const receiptTemplate = "payment_receipt"

type (
	Service interface {
		// Collect applies every request in one transaction: all are recorded or none is.
		// Requests may target the same ledger entry; each one sees the previous one's result.
		Collect(ctx context.Context, batch Batch, collectedBy *int) ([]Result, error)
	}

	service struct {
		conf        *core.Config
		log         core.Logger
		tx          core.TxRunner
		ledgerRepo  ledger.Repository
		paymentRepo ledger.PaymentRepository
		studentRepo student.Repository
		accountRepo account.Repository
		mailSvc     core.EmailService
	}

	// collected is what a successful request left behind, kept to send receipts after commit.
	collected struct {
		student student.Student
		payment ledger.Payment
		entry   ledger.Entry
	}
)

var _ Service = (*service)(nil)

func NewService(
	conf *core.Config,
	log core.Logger,
	tx core.TxRunner,
	ledgerRepo ledger.Repository,
	paymentRepo ledger.PaymentRepository,
	studentRepo student.Repository,
	accountRepo account.Repository,
	mailSvc core.EmailService,
) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(conf, "conf"),
		vala.IsNotNil(log, "log"),
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(ledgerRepo, "ledgerRepo"),
		vala.IsNotNil(paymentRepo, "paymentRepo"),
		vala.IsNotNil(studentRepo, "studentRepo"),
		vala.IsNotNil(accountRepo, "accountRepo"),
		vala.IsNotNil(mailSvc, "mailSvc"),
	).CheckAndPanic()

	return &service{
		conf:        conf,
		log:         log,
		tx:          tx,
		ledgerRepo:  ledgerRepo,
		paymentRepo: paymentRepo,
		studentRepo: studentRepo,
		accountRepo: accountRepo,
		mailSvc:     mailSvc,
	}
}

// fieldError reports err on field, prefixed by the item's position when the batch has several items.
func fieldError(err error, field string, index, size int) error {
	if size > 1 {
		field = fmt.Sprintf("[%d].%s", index, field)
	}
	return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
}

func (svc *service) Collect(ctx context.Context, batch Batch, collectedBy *int) ([]Result, error) {
	if len(batch) == 0 {
		return nil, core.NewValidationError(ErrEmptyBatch)
	}

	results := make([]Result, 0, len(batch))
	done := make([]collected, 0, len(batch))

	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		now := time.Now().UTC()
		for i, req := range batch {
			c, err := svc.collectOne(ctx, req, collectedBy, now, i, len(batch), exec)
			if err != nil {
				return err
			}
			done = append(done, c)
			results = append(results, Result{
				LedgerEntryID:   c.entry.ID,
				ReceiptNo:       c.payment.ReceiptNo,
				PaidAmount:      c.entry.PaidAmount,
				RemainingAmount: c.entry.RemainingAmount,
				Status:          c.entry.Status,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if svc.conf.Fees.SendReceipts {
		svc.sendReceipts(done)
	}
	return results, nil
}

func (svc *service) collectOne(
	ctx context.Context,
	req Request,
	collectedBy *int,
	now time.Time,
	index, size int,
	exec core.DBExecutor,
) (collected, error) {
	entry, err := svc.ledgerRepo.GetEntryForUpdate(ctx, req.LedgerEntryID, exec)
	if err != nil {
		if errors.Cause(err) == ledger.ErrEntryNotFound {
			return collected{}, core.NewNotFoundError(ledger.ErrEntryNotFound, "student fee record", req.LedgerEntryID)
		}
		return collected{}, errors.Wrap(err, "fetching student fee record")
	}
	if req.StudentID != 0 && req.StudentID != entry.StudentID {
		return collected{}, fieldError(ErrStudentMismatch, "student_id", index, size)
	}

	if err = svc.checkFunding(ctx, req, index, size, exec); err != nil {
		return collected{}, err
	}

	var (
		updated ledger.Entry
		delta   decimal.Decimal
	)
	switch req.PaymentType {
	case FullSettle:
		// settling a Paid entry still records a zero payment
		updated, delta = entry.Settle(now)
	case PartialAmount:
		if updated, err = entry.ApplyPartial(req.PaidAmount, now); err != nil {
			return collected{}, fieldError(err, "paid_amount", index, size)
		}
		delta = req.PaidAmount
	default:
		return collected{}, fieldError(errors.Errorf("invalid payment type %q", req.PaymentType), "payment_type", index, size)
	}
	if err = updated.Check(); err != nil {
		return collected{}, errors.Wrap(err, "applying payment")
	}

	std, err := svc.studentRepo.GetStudentByID(ctx, entry.StudentID, exec)
	if err != nil {
		return collected{}, errors.Wrap(student.NotFound(err, entry.StudentID), "fetching student")
	}

	if err = svc.ledgerRepo.UpdateEntryBalance(ctx, updated, exec); err != nil {
		return collected{}, errors.Wrap(err, "updating student fee record")
	}

	pmtDate := req.PaymentDate
	if pmtDate.IsZero() {
		pmtDate = core.NewDate(now)
	}
	pmt, err := svc.paymentRepo.CreatePayment(ctx, ledger.Payment{
		ReceiptNo:     uuid.New().String(),
		LedgerEntryID: entry.ID,
		StudentID:     entry.StudentID,
		ClassID:       std.ClassID,
		SectionID:     std.SectionID,
		SessionID:     std.SessionID,
		Method:        req.Method,
		BankAccountID: req.BankAccountID,
		MfsID:         req.MfsID,
		PaymentDate:   pmtDate,
		PaidAmount:    delta,
		Remarks:       req.Remarks,
		CreatedBy:     collectedBy,
		CreatedAt:     now,
	}, exec)
	if err != nil {
		return collected{}, errors.Wrap(err, "recording payment")
	}

	return collected{student: std, payment: pmt, entry: updated}, nil
}

// checkFunding verifies the funding account matching the payment method.
func (svc *service) checkFunding(ctx context.Context, req Request, index, size int, exec core.DBExecutor) error {
	switch {
	case req.Method == ledger.MethodCash:
		if req.BankAccountID != nil || req.MfsID != nil {
			return fieldError(ErrUnexpectedFunding, "method", index, size)
		}

	case req.Method == ledger.MethodBank:
		if req.BankAccountID == nil {
			return fieldError(ErrBankAccountRequired, "bank_account_id", index, size)
		}
		if req.MfsID != nil {
			return fieldError(ErrUnexpectedFunding, "mfs_id", index, size)
		}
		if _, err := svc.accountRepo.GetBankAccountByID(ctx, *req.BankAccountID, exec); err != nil {
			if errors.Cause(err) == account.ErrBankAccountNotFound {
				return fieldError(ErrInvalidBankAccount, "bank_account_id", index, size)
			}
			return errors.Wrap(err, "fetching bank account")
		}

	case req.Method.IsMFS():
		if req.MfsID == nil {
			return fieldError(ErrMfsAccountRequired, "mfs_id", index, size)
		}
		if req.BankAccountID != nil {
			return fieldError(ErrUnexpectedFunding, "bank_account_id", index, size)
		}
		acc, err := svc.accountRepo.GetMfsAccountByID(ctx, *req.MfsID, exec)
		if err != nil {
			if errors.Cause(err) == account.ErrMfsAccountNotFound {
				return fieldError(ErrInvalidMfsAccount, "mfs_id", index, size)
			}
			return errors.Wrap(err, "fetching mfs account")
		}
		if acc.MfsType != req.Method {
			return fieldError(ErrMfsTypeMismatch, "mfs_id", index, size)
		}

	default:
		return fieldError(errors.Errorf("invalid payment method %q", req.Method), "method", index, size)
	}
	return nil
}

// sendReceipts emails one receipt per student to their guardian.
func (svc *service) sendReceipts(done []collected) {
	var (
		order    []int
		byStd    = make(map[int]*receiptData)
		rcptTo   = make(map[int]mail.Address)
		messages []*core.EmailMessage
	)
	for _, c := range done {
		addr, ok := c.student.GuardianAddress()
		if !ok {
			svc.log.Info(fmt.Sprintf("no guardian email for student %d, skipping receipt", c.student.ID))
			continue
		}
		data, ok := byStd[c.student.ID]
		if !ok {
			data = &receiptData{
				StudentName: c.student.FullName(),
				RollNo:      c.student.RollNo,
				Currency:    svc.conf.Fees.Currency,
				Total:       decimal.Zero,
			}
			byStd[c.student.ID] = data
			rcptTo[c.student.ID] = addr
			order = append(order, c.student.ID)
		}
		data.Lines = append(data.Lines, receiptLine{
			ReceiptNo:       c.payment.ReceiptNo,
			PaymentDate:     c.payment.PaymentDate,
			Method:          c.payment.Method,
			PaidAmount:      c.payment.PaidAmount,
			RemainingAmount: c.entry.RemainingAmount,
			Status:          c.entry.Status,
		})
		data.Total = data.Total.Add(c.payment.PaidAmount)
	}

	for _, id := range order {
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{rcptTo[id]},
			Subject:      "Payment receipt",
			TemplateName: receiptTemplate,
			TemplateData: *byStd[id],
		})
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
}
