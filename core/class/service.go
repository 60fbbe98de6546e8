package class

import (
	"context"
	"fmt"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core"
)

var (
	// errors
	ErrClassNotFound       = errors.New("class not found")
	ErrSectionNotFound     = errors.New("section not found")
	ErrSessionNotFound     = errors.New("session not found")
	ErrClassExists         = errors.New("a class with this code already exists")
	ErrSectionExists       = errors.New("a section with this name already exists")
	ErrSessionExists       = errors.New("a session with this name already exists")
	ErrInUse               = errors.New("still referenced by other records")
	ErrInvalidSessionDates = errors.New("end date must be after start date")
)

type (
	Repository interface {
		// CreateClass inserts the class along with its section links.
		CreateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]Class, error)
		GetClassByID(ctx context.Context, id int, exec ...core.DBExecutor) (Class, error)
		// UpdateClass replaces the class's section links with cls.SectionIDs.
		UpdateClass(ctx context.Context, cls Class, exec ...core.DBExecutor) (Class, error)
		// DeleteClass fails with ErrInUse while students or payments reference the class.
		DeleteClass(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateSection(ctx context.Context, sec Section, exec ...core.DBExecutor) (Section, error)
		// QuerySections lists every section, or only those of classID when it is not 0.
		QuerySections(ctx context.Context, classID int, exec ...core.DBExecutor) ([]Section, error)
		GetSectionByID(ctx context.Context, id int, exec ...core.DBExecutor) (Section, error)

		CreateSession(ctx context.Context, sess Session, exec ...core.DBExecutor) (Session, error)
		QuerySessions(ctx context.Context, exec ...core.DBExecutor) ([]Session, error)
		GetSessionByID(ctx context.Context, id int, exec ...core.DBExecutor) (Session, error)
	}

	Service interface {
		CreateClass(ctx context.Context, in ClassInput) (Class, error)
		QueryClasses(ctx context.Context) ([]Class, error)
		GetClass(ctx context.Context, id int) (Class, error)
		UpdateClass(ctx context.Context, id int, in ClassInput) (Class, error)
		DeleteClass(ctx context.Context, id int) error

		CreateSection(ctx context.Context, in SectionInput) (Section, error)
		// QuerySections lists the sections of classID, or all of them when classID is 0.
		QuerySections(ctx context.Context, classID int) ([]Section, error)

		CreateSession(ctx context.Context, in SessionInput) (Session, error)
		QuerySessions(ctx context.Context) ([]Session, error)
	}

	service struct {
		tx   core.TxRunner
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(tx core.TxRunner, repo Repository) Service {
	vala.BeginValidation().Validate(
		vala.IsNotNil(tx, "tx"),
		vala.IsNotNil(repo, "repo"),
	).CheckAndPanic()

	return &service{tx: tx, repo: repo}
}

// notFound turns the repository sentinels into a *core.NotFoundError.
func notFound(err error, id int) error {
	switch errors.Cause(err) {
	case ErrClassNotFound:
		return core.NewNotFoundError(ErrClassNotFound, "class", id)
	case ErrSectionNotFound:
		return core.NewNotFoundError(ErrSectionNotFound, "section", id)
	case ErrSessionNotFound:
		return core.NewNotFoundError(ErrSessionNotFound, "session", id)
	}
	return err
}

func fieldError(err error, field string) error {
	switch cause := errors.Cause(err); cause {
	case ErrInUse, ErrClassExists, ErrSectionExists, ErrSessionExists:
		return core.NewValidationError(cause, core.FieldError{Field: field, Error: cause.Error()})
	}
	return err
}

// CheckPlacement verifies that the class, section & session of p exist and that the section is taught in the class.
// The first failure is returned as a *core.ValidationError on class_id, section_id or session_id.
func CheckPlacement(ctx context.Context, repo Repository, p Placement, exec core.DBExecutor) error {
	invalid := func(field, msg string) error {
		return core.NewValidationError(errors.New(msg), core.FieldError{Field: field, Error: msg})
	}

	var cls Class
	if p.ClassID != 0 {
		var err error
		if cls, err = repo.GetClassByID(ctx, p.ClassID, exec); err != nil {
			if errors.Cause(err) == ErrClassNotFound {
				return invalid("class_id", fmt.Sprintf("class not found for ID %d", p.ClassID))
			}
			return errors.Wrap(err, "fetching class")
		}
	}
	if p.SectionID != 0 {
		if _, err := repo.GetSectionByID(ctx, p.SectionID, exec); err != nil {
			if errors.Cause(err) == ErrSectionNotFound {
				return invalid("section_id", fmt.Sprintf("section not found for ID %d", p.SectionID))
			}
			return errors.Wrap(err, "fetching section")
		}
		if p.ClassID != 0 && !cls.HasSection(p.SectionID) {
			return invalid("section_id", fmt.Sprintf("section %d is not taught in class %d", p.SectionID, p.ClassID))
		}
	}
	if p.SessionID != 0 {
		if _, err := repo.GetSessionByID(ctx, p.SessionID, exec); err != nil {
			if errors.Cause(err) == ErrSessionNotFound {
				return invalid("session_id", fmt.Sprintf("session not found for ID %d", p.SessionID))
			}
			return errors.Wrap(err, "fetching session")
		}
	}
	return nil
}

// checkSections makes sure every section of ids exists.
func (svc *service) checkSections(ctx context.Context, ids []int, exec core.DBExecutor) error {
	for _, id := range ids {
		if _, err := svc.repo.GetSectionByID(ctx, id, exec); err != nil {
			if errors.Cause(err) == ErrSectionNotFound {
				msg := fmt.Sprintf("section not found for ID %d", id)
				return core.NewValidationError(errors.New(msg), core.FieldError{Field: "section_ids", Error: msg})
			}
			return errors.Wrap(err, "fetching section")
		}
	}
	return nil
}

// Classes

func (svc *service) CreateClass(ctx context.Context, in ClassInput) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		IsActive:    in.IsActive == nil || *in.IsActive,
		SectionIDs:  in.SectionIDs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.checkSections(ctx, in.SectionIDs, exec); err != nil {
			return err
		}
		var err error
		if cls, err = svc.repo.CreateClass(ctx, cls, exec); err != nil {
			return fieldError(errors.Wrap(err, "inserting class"), "code")
		}
		return nil
	})
	if err != nil {
		return Class{}, err
	}
	return cls, nil
}

func (svc *service) QueryClasses(ctx context.Context) ([]Class, error) {
	return svc.repo.QueryClasses(ctx)
}

func (svc *service) GetClass(ctx context.Context, id int) (Class, error) {
	cls, err := svc.repo.GetClassByID(ctx, id)
	return cls, notFound(err, id)
}

func (svc *service) UpdateClass(ctx context.Context, id int, in ClassInput) (Class, error) {
	var cls Class
	err := svc.tx.RunInTx(ctx, func(exec core.DBExecutor) error {
		orig, err := svc.repo.GetClassByID(ctx, id, exec)
		if err != nil {
			return notFound(err, id)
		}
		if err = svc.checkSections(ctx, in.SectionIDs, exec); err != nil {
			return err
		}

		orig.Name = in.Name
		orig.Code = in.Code
		orig.Description = in.Description
		if in.IsActive != nil {
			orig.IsActive = *in.IsActive
		}
		orig.SectionIDs = in.SectionIDs
		orig.UpdatedAt = time.Now().UTC()
		if cls, err = svc.repo.UpdateClass(ctx, orig, exec); err != nil {
			return fieldError(notFound(err, id), "code")
		}
		return nil
	})
	if err != nil {
		return Class{}, err
	}
	return cls, nil
}

func (svc *service) DeleteClass(ctx context.Context, id int) error {
	return fieldError(notFound(svc.repo.DeleteClass(ctx, id), id), "id")
}

// Sections

func (svc *service) CreateSection(ctx context.Context, in SectionInput) (Section, error) {
	now := time.Now().UTC()
	sec, err := svc.repo.CreateSection(ctx, Section{
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Section{}, fieldError(errors.Wrap(err, "inserting section"), "name")
	}
	return sec, nil
}

func (svc *service) QuerySections(ctx context.Context, classID int) ([]Section, error) {
	if classID != 0 {
		if _, err := svc.GetClass(ctx, classID); err != nil {
			return nil, err
		}
	}
	return svc.repo.QuerySections(ctx, classID)
}

// Sessions

func (svc *service) CreateSession(ctx context.Context, in SessionInput) (Session, error) {
	sess, err := svc.repo.CreateSession(ctx, Session{
		Name:      in.Name,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return Session{}, fieldError(errors.Wrap(err, "inserting session"), "name")
	}
	return sess, nil
}

func (svc *service) QuerySessions(ctx context.Context) ([]Session, error) {
	return svc.repo.QuerySessions(ctx)
}
