package fees

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core"
)

var (
	// errors
	ErrGroupNotFound  = errors.New("fees group not found")
	ErrTypeNotFound   = errors.New("fees type not found")
	ErrMasterNotFound = errors.New("fees master not found")
	ErrGroupExists    = errors.New("a fees group with this name already exists")
	ErrTypeExists     = errors.New("a fees type with this code already exists")
	ErrInUse          = errors.New("still referenced by other records")
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, grp Group, exec ...core.DBExecutor) (Group, error)
		QueryGroups(ctx context.Context, exec ...core.DBExecutor) ([]Group, error)
		GetGroupByID(ctx context.Context, id int, exec ...core.DBExecutor) (Group, error)
		UpdateGroup(ctx context.Context, grp Group, exec ...core.DBExecutor) (Group, error)
		DeleteGroup(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateType(ctx context.Context, typ Type, exec ...core.DBExecutor) (Type, error)
		QueryTypes(ctx context.Context, exec ...core.DBExecutor) ([]Type, error)
		GetTypeByID(ctx context.Context, id int, exec ...core.DBExecutor) (Type, error)
		UpdateType(ctx context.Context, typ Type, exec ...core.DBExecutor) (Type, error)
		DeleteType(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateMaster(ctx context.Context, mst Master, exec ...core.DBExecutor) (Master, error)
		QueryMasters(ctx context.Context, filter MasterFilter, exec ...core.DBExecutor) ([]Master, error)
		// GetMasterByID returns the Master joined to its group and type names.
		GetMasterByID(ctx context.Context, id int, exec ...core.DBExecutor) (Master, error)
		UpdateMaster(ctx context.Context, mst Master, exec ...core.DBExecutor) (Master, error)
		// DeleteMaster fails with ErrInUse while ledger entries reference the Master.
		DeleteMaster(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		CreateGroup(ctx context.Context, in GroupInput) (Group, error)
		QueryGroups(ctx context.Context) ([]Group, error)
		GetGroup(ctx context.Context, id int) (Group, error)
		UpdateGroup(ctx context.Context, id int, in GroupInput) (Group, error)
		DeleteGroup(ctx context.Context, id int) error

		CreateType(ctx context.Context, in TypeInput) (Type, error)
		QueryTypes(ctx context.Context) ([]Type, error)
		GetType(ctx context.Context, id int) (Type, error)
		UpdateType(ctx context.Context, id int, in TypeInput) (Type, error)
		DeleteType(ctx context.Context, id int) error

		CreateMaster(ctx context.Context, in MasterInput) (Master, error)
		QueryMasters(ctx context.Context, filter MasterFilter) ([]Master, error)
		GetMaster(ctx context.Context, id int) (Master, error)
		UpdateMaster(ctx context.Context, id int, in MasterInput) (Master, error)
		DeleteMaster(ctx context.Context, id int) error
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// notFound turns the repository sentinels into a *core.NotFoundError.
func notFound(err error, id int) error {
	switch errors.Cause(err) {
	case ErrGroupNotFound:
		return core.NewNotFoundError(ErrGroupNotFound, "fees group", id)
	case ErrTypeNotFound:
		return core.NewNotFoundError(ErrTypeNotFound, "fees type", id)
	case ErrMasterNotFound:
		return core.NewNotFoundError(ErrMasterNotFound, "fees master", id)
	}
	return err
}

func inUse(err error, field string) error {
	switch errors.Cause(err) {
	case ErrInUse, ErrGroupExists, ErrTypeExists:
		cause := errors.Cause(err)
		return core.NewValidationError(cause, core.FieldError{Field: field, Error: cause.Error()})
	}
	return err
}

// Groups

func (svc *service) CreateGroup(ctx context.Context, in GroupInput) (Group, error) {
	now := time.Now().UTC()
	grp, err := svc.repo.CreateGroup(ctx, Group{
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Group{}, inUse(errors.Wrap(err, "inserting fees group"), "name")
	}
	return grp, nil
}

func (svc *service) QueryGroups(ctx context.Context) ([]Group, error) {
	return svc.repo.QueryGroups(ctx)
}

func (svc *service) GetGroup(ctx context.Context, id int) (Group, error) {
	grp, err := svc.repo.GetGroupByID(ctx, id)
	return grp, notFound(err, id)
}

func (svc *service) UpdateGroup(ctx context.Context, id int, in GroupInput) (Group, error) {
	grp, err := svc.repo.UpdateGroup(ctx, Group{
		ID:          id,
		Name:        in.Name,
		Description: in.Description,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return Group{}, inUse(notFound(err, id), "name")
	}
	return grp, nil
}

func (svc *service) DeleteGroup(ctx context.Context, id int) error {
	return inUse(notFound(svc.repo.DeleteGroup(ctx, id), id), "id")
}

// Types

func (svc *service) CreateType(ctx context.Context, in TypeInput) (Type, error) {
	now := time.Now().UTC()
	typ, err := svc.repo.CreateType(ctx, Type{
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Type{}, inUse(errors.Wrap(err, "inserting fees type"), "code")
	}
	return typ, nil
}

func (svc *service) QueryTypes(ctx context.Context) ([]Type, error) {
	return svc.repo.QueryTypes(ctx)
}

func (svc *service) GetType(ctx context.Context, id int) (Type, error) {
	typ, err := svc.repo.GetTypeByID(ctx, id)
	return typ, notFound(err, id)
}

func (svc *service) UpdateType(ctx context.Context, id int, in TypeInput) (Type, error) {
	typ, err := svc.repo.UpdateType(ctx, Type{
		ID:          id,
		Name:        in.Name,
		Code:        in.Code,
		Description: in.Description,
		UpdatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return Type{}, inUse(notFound(err, id), "code")
	}
	return typ, nil
}

func (svc *service) DeleteType(ctx context.Context, id int) error {
	return inUse(notFound(svc.repo.DeleteType(ctx, id), id), "id")
}

// Masters

// checkRefs makes sure the group & type referenced by in exist.
func (svc *service) checkRefs(ctx context.Context, in MasterInput) error {
	if _, err := svc.repo.GetGroupByID(ctx, in.FeesGroupID); err != nil {
		return notFound(err, in.FeesGroupID)
	}
	if _, err := svc.repo.GetTypeByID(ctx, in.FeesTypeID); err != nil {
		return notFound(err, in.FeesTypeID)
	}
	return nil
}

func (svc *service) CreateMaster(ctx context.Context, in MasterInput) (Master, error) {
	if err := svc.checkRefs(ctx, in); err != nil {
		return Master{}, err
	}

	now := time.Now().UTC()
	mst, err := svc.repo.CreateMaster(ctx, Master{
		FeesGroupID:          in.FeesGroupID,
		FeesTypeID:           in.FeesTypeID,
		DueDate:              in.DueDate,
		Amount:               in.Amount,
		FineType:             in.FineType,
		PercentageFineAmount: in.PercentageFineAmount,
		FixedFineAmount:      in.FixedFineAmount,
		PerDay:               in.PerDay,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
	if err != nil {
		return Master{}, errors.Wrap(err, "inserting fees master")
	}
	return svc.GetMaster(ctx, mst.ID)
}

func (svc *service) QueryMasters(ctx context.Context, filter MasterFilter) ([]Master, error) {
	return svc.repo.QueryMasters(ctx, filter)
}

func (svc *service) GetMaster(ctx context.Context, id int) (Master, error) {
	mst, err := svc.repo.GetMasterByID(ctx, id)
	return mst, notFound(err, id)
}

// UpdateMaster changes the catalog line only: existing ledger entries keep the amount they were created with.
func (svc *service) UpdateMaster(ctx context.Context, id int, in MasterInput) (Master, error) {
	if err := svc.checkRefs(ctx, in); err != nil {
		return Master{}, err
	}

	_, err := svc.repo.UpdateMaster(ctx, Master{
		ID:                   id,
		FeesGroupID:          in.FeesGroupID,
		FeesTypeID:           in.FeesTypeID,
		DueDate:              in.DueDate,
		Amount:               in.Amount,
		FineType:             in.FineType,
		PercentageFineAmount: in.PercentageFineAmount,
		FixedFineAmount:      in.FixedFineAmount,
		PerDay:               in.PerDay,
		UpdatedAt:            time.Now().UTC(),
	})
	if err != nil {
		return Master{}, notFound(err, id)
	}
	return svc.GetMaster(ctx, id)
}

func (svc *service) DeleteMaster(ctx context.Context, id int) error {
	return inUse(notFound(svc.repo.DeleteMaster(ctx, id), id), "id")
}
