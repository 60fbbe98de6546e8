package student

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/class"
	"github.com/trezcool/bursary/core/fees"
	"github.com/trezcool/bursary/core/ledger"
)

var (
	// errors
	ErrNotFound           = errors.New("student not found")
	ErrAdmissionNoExists  = errors.New("a student with this admission number already exists")
	errInvalidFeesMaster  = "invalid feesMasterId: %d"
	feesMasterIDsField    = "fees_master_ids"
	admissionNoFieldError = core.FieldError{Field: "admission_no", Error: ErrAdmissionNoExists.Error()}
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		QueryStudents(ctx context.Context, filter QueryFilter, exec ...core.DBExecutor) ([]Student, error)
		GetStudentByID(ctx context.Context, id int, exec ...core.DBExecutor) (Student, error)
		UpdateStudent(ctx context.Context, std Student, exec ...core.DBExecutor) (Student, error)
		// DeleteStudent removes the student with their ledger entries, payments & promotion records.
		DeleteStudent(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		Create(ctx context.Context, ns NewStudent) (Detail, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Student, error)
		GetByID(ctx context.Context, id int) (Student, error)
		GetDetail(ctx context.Context, id int) (Detail, error)
		Update(ctx context.Context, id int, us UpdateStudent) (Student, error)
		Delete(ctx context.Context, id int) error
		Fees(ctx context.Context, id int) ([]ledger.EntryDetail, error)
		Payments(ctx context.Context, id int) ([]ledger.Payment, error)
	}

	service struct {
		tx          core.TxRunner
		repo        Repository
		ledgerRepo  ledger.Repository
		paymentRepo ledger.PaymentRepository
		feesRepo    fees.Repository
		classRepo   class.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(
	tx core.TxRunner,
	repo Repository,
	ledgerRepo ledger.Repository,
	paymentRepo ledger.PaymentRepository,
	feesRepo fees.Repository,
	classRepo class.Repository,
) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(ledgerRepo, "ledgerRepo"),
		vala.IsNotNil(paymentRepo, "paymentRepo"),
		vala.IsNotNil(feesRepo, "feesRepo"),
		vala.IsNotNil(classRepo, "classRepo"),
	).CheckAndPanic()

	return &service{
		tx:          tx,
		repo:        repo,
		ledgerRepo:  ledgerRepo,
		paymentRepo: paymentRepo,
		feesRepo:    feesRepo,
		classRepo:   classRepo,
	}
}

// NotFound wraps the student sentinel into a *core.NotFoundError.
func NotFound(err error, id int) error {
	if errors.Cause(err) == ErrNotFound {
		return core.NewNotFoundError(ErrNotFound, "student", id)
	}
	return err
}

func trapDuplicate(err error) error {
	if errors.Cause(err) == ErrAdmissionNoExists {
		return core.NewValidationError(ErrAdmissionNoExists, admissionNoFieldError)
	}
	return err
}

// OpenLedger inserts one Unpaid entry per fees master, each owing the master's amount.
// An unknown fees master id yields a *core.ValidationError on fees_master_ids.
func OpenLedger(
	ctx context.Context,
	feesRepo fees.Repository,
	ledgerRepo ledger.Repository,
	studentID int,
	feesMasterIDs []int,
	now time.Time,
	exec core.DBExecutor,
) ([]ledger.Entry, error) {
	if len(feesMasterIDs) == 0 {
		return []ledger.Entry{}, nil
	}

	entries := make([]ledger.Entry, 0, len(feesMasterIDs))
	for _, id := range feesMasterIDs {
		mst, err := feesRepo.GetMasterByID(ctx, id, exec)
		if err != nil {
			if errors.Cause(err) == fees.ErrMasterNotFound {
				msg := invalidFeesMaster(id)
				return nil, core.NewValidationError(errors.Wrap(err, msg), core.FieldError{Field: feesMasterIDsField, Error: msg})
			}
			return nil, errors.Wrap(err, "fetching fees master")
		}
		entries = append(entries, ledger.NewEntry(studentID, mst.ID, mst.Amount, now))
	}
	return ledgerRepo.CreateEntries(ctx, entries, exec)
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Detail, error) {
	now := time.Now().UTC()
	std := ns.apply(Student{IsActive: true, AdmissionDate: core.NewDate(now), CreatedAt: now, UpdatedAt: now})

	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		placement := class.PlacementOf(std.ClassID, std.SectionID, std.SessionID)
		if err := class.CheckPlacement(ctx, svc.classRepo, placement, exec); err != nil {
			return err
		}

		var err error
		if std, err = svc.repo.CreateStudent(ctx, std, exec); err != nil {
			return trapDuplicate(errors.Wrap(err, "inserting student"))
		}

		_, err = OpenLedger(ctx, svc.feesRepo, svc.ledgerRepo, std.ID, ns.FeesMasterIDs, now, exec)
		return err
	})
	if err != nil {
		return Detail{}, err
	}
	return svc.GetDetail(ctx, std.ID)
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Student, error) {
	filter.Clean()
	return svc.repo.QueryStudents(ctx, filter)
}

func (svc *service) GetByID(ctx context.Context, id int) (Student, error) {
	std, err := svc.repo.GetStudentByID(ctx, id)
	return std, NotFound(err, id)
}

func (svc *service) GetDetail(ctx context.Context, id int) (Detail, error) {
	std, err := svc.GetByID(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	entries, err := svc.ledgerRepo.QueryEntryDetails(ctx, id)
	if err != nil {
		return Detail{}, errors.Wrap(err, "querying student fees")
	}
	return Detail{Student: std, Fees: withFines(entries, time.Now())}, nil
}

func (svc *service) Update(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	var std Student
	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		orig, err := svc.repo.GetStudentByID(ctx, id, exec)
		if err != nil {
			return NotFound(err, id)
		}
		orig = us.apply(orig)
		orig.UpdatedAt = time.Now().UTC()

		placement := class.PlacementOf(orig.ClassID, orig.SectionID, orig.SessionID)
		if err = class.CheckPlacement(ctx, svc.classRepo, placement, exec); err != nil {
			return err
		}
		if std, err = svc.repo.UpdateStudent(ctx, orig, exec); err != nil {
			return trapDuplicate(NotFound(err, id))
		}
		return nil
	})
	if err != nil {
		return Student{}, err
	}
	return std, nil
}

func (svc *service) Delete(ctx context.Context, id int) error {
	return NotFound(svc.repo.DeleteStudent(ctx, id), id)
}

func (svc *service) Fees(ctx context.Context, id int) ([]ledger.EntryDetail, error) {
	if _, err := svc.GetByID(ctx, id); err != nil {
		return nil, err
	}
	entries, err := svc.ledgerRepo.QueryEntryDetails(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "querying student fees")
	}
	return withFines(entries, time.Now()), nil
}

func (svc *service) Payments(ctx context.Context, id int) ([]ledger.Payment, error) {
	if _, err := svc.GetByID(ctx, id); err != nil {
		return nil, err
	}
	pmts, err := svc.paymentRepo.QueryPayments(ctx, ledger.PaymentFilter{StudentID: id})
	return pmts, errors.Wrap(err, "querying student payments")
}

// withFines fills the late fine of each unpaid or partially paid entry as of asOf.
func withFines(entries []ledger.EntryDetail, asOf time.Time) []ledger.EntryDetail {
	for i, e := range entries {
		if e.IsPaid() {
			continue
		}
		entries[i].Fine = e.Master.FineAsOf(asOf)
	}
	return entries
}

func invalidFeesMaster(id int) string {
	return fmt.Sprintf(errInvalidFeesMaster, id)
}
