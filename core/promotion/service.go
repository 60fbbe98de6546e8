package promotion

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
	"github.com/trezcool/bursary/core/student"
)

const (
	unknownStudentName  = "Unknown"
	studentNotFoundText = "Student not found"
	unpaidFeesText      = "All fees of this session is not paid of name: %s, roll: %d"
)

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record, exec ...core.DBExecutor) (Record, error)
		QueryRecords(ctx context.Context, filter RecordFilter, exec ...core.DBExecutor) ([]Record, error)
	}

	Service interface {
		// Promote moves every fully-paid candidate in one transaction and reports the others as rejected.
		// A candidate whose class, section or session does not exist is rejected on its own;
		// an unknown fees master aborts the whole batch with a *core.FatalBatchError.
		Promote(ctx context.Context, in Input) (Outcome, error)
		Records(ctx context.Context, filter RecordFilter) ([]Record, error)
	}

	service struct {
		tx          core.TxRunner
		repo        Repository
		studentRepo student.Repository
		ledgerRepo  ledger.Repository
		feesRepo    fees.Repository
		classRepo   class.Repository
	}
)

var _ Service = (*service)(nil)

func NewService(
	tx core.TxRunner,
	repo Repository,
	studentRepo student.Repository,
	ledgerRepo ledger.Repository,
	feesRepo fees.Repository,
	classRepo class.Repository,
) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(repo, "repo"),
		vala.IsNotNil(studentRepo, "studentRepo"),
		vala.IsNotNil(ledgerRepo, "ledgerRepo"),
		vala.IsNotNil(feesRepo, "feesRepo"),
		vala.IsNotNil(classRepo, "classRepo"),
	).CheckAndPanic()

	return &service{
		tx:          tx,
		repo:        repo,
		studentRepo: studentRepo,
		ledgerRepo:  ledgerRepo,
		feesRepo:    feesRepo,
		classRepo:   classRepo,
	}
}

// allPaid reports whether entries is non-empty and fully settled.
func allPaid(entries []ledger.Entry) bool {
	if len(entries) == 0 {
		return false
	}
	for _, e := range entries {
		if !e.IsPaid() {
			return false
		}
	}
	return true
}

func (svc *service) Promote(ctx context.Context, in Input) (Outcome, error) {
	var out Outcome

	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		// reset on every attempt so a rolled back batch reports nothing
		out = Outcome{Promoted: []Promoted{}, Rejected: []Rejected{}}
		now := time.Now().UTC()

		for i, cand := range in.Students {
			std, err := svc.studentRepo.GetStudentByID(ctx, cand.StudentID, exec)
			if err != nil {
				if errors.Cause(err) != student.ErrNotFound {
					return errors.Wrap(err, "fetching student")
				}
				out.Rejected = append(out.Rejected, Rejected{
					StudentID:   cand.StudentID,
					StudentName: unknownStudentName,
					Message:     studentNotFoundText,
				})
				continue
			}

			entries, err := svc.ledgerRepo.QueryEntriesByStudent(ctx, std.ID, exec)
			if err != nil {
				return errors.Wrap(err, "fetching student fees")
			}
			if !allPaid(entries) {
				out.Rejected = append(out.Rejected, Rejected{
					StudentID:   std.ID,
					StudentName: std.FullName(),
					RollNo:      std.RollNo,
					Message:     fmt.Sprintf(unpaidFeesText, std.FullName(), std.RollNo),
				})
				continue
			}

			placement := class.Placement{ClassID: cand.ClassID, SectionID: cand.SectionID, SessionID: cand.SessionID}
			if err = class.CheckPlacement(ctx, svc.classRepo, placement, exec); err != nil {
				verr, ok := errors.Cause(err).(*core.ValidationError)
				if !ok || len(verr.Fields) == 0 {
					return err
				}
				out.Rejected = append(out.Rejected, Rejected{
					StudentID:   std.ID,
					StudentName: std.FullName(),
					RollNo:      std.RollNo,
					Message:     verr.Fields[0].Error,
				})
				continue
			}

			if err = svc.promoteOne(ctx, i, std, cand, in.FeesMasterIDs, now, exec); err != nil {
				return err
			}
			out.Promoted = append(out.Promoted, Promoted{
				StudentID:   std.ID,
				StudentName: std.FullName(),
				RollNo:      std.RollNo,
			})
		}
		return nil
	})
	if err != nil {
		return Outcome{}, err
	}
	return out, nil
}

func (svc *service) promoteOne(
	ctx context.Context,
	index int,
	std student.Student,
	cand Candidate,
	feesMasterIDs []int,
	now time.Time,
	exec core.DBExecutor,
) error {
	classID, sectionID, sessionID := cand.ClassID, cand.SectionID, cand.SessionID
	std.ClassID, std.SectionID, std.SessionID = &classID, &sectionID, &sessionID
	std.UpdatedAt = now
	if _, err := svc.studentRepo.UpdateStudent(ctx, std, exec); err != nil {
		return errors.Wrap(err, "moving student")
	}

	if _, err := svc.ledgerRepo.DeleteEntriesByStudent(ctx, std.ID, exec); err != nil {
		return errors.Wrap(err, "clearing student fees")
	}

	if _, err := student.OpenLedger(ctx, svc.feesRepo, svc.ledgerRepo, std.ID, feesMasterIDs, now, exec); err != nil {
		if verr, ok := errors.Cause(err).(*core.ValidationError); ok && len(verr.Fields) > 0 {
			return core.NewFatalBatchError(errors.New(verr.Fields[0].Error), index)
		}
		return errors.Wrap(err, "opening student fees")
	}

	_, err := svc.repo.CreateRecord(ctx, Record{
		StudentID:     std.ID,
		SessionID:     cand.SessionID,
		CurrentResult: cand.CurrentResult,
		NextSession:   cand.NextSession,
		CreatedAt:     now,
	}, exec)
	return errors.Wrap(err, "recording promotion")
}

func (svc *service) Records(ctx context.Context, filter RecordFilter) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, filter)
}
