package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/fees"
)

const (
	groupColumns = `id, name, description, created_at, updated_at`
	typeColumns  = `id, name, code, description, created_at, updated_at`

	masterSelect = `SELECT m.id, m.fees_group_id, g.name AS fees_group_name, m.fees_type_id, t.name AS fees_type_name,
		m.due_date, m.amount, m.fine_type, m.percentage_fine_amount, m.fixed_fine_amount, m.per_day,
		m.created_at, m.updated_at
	FROM fees_master m
	JOIN fees_groups g ON g.id = m.fees_group_id
	JOIN fees_types t ON t.id = m.fees_type_id`
)

type groupRow struct {
	ID          int       `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row groupRow) toGroup() fees.Group {
	return fees.Group{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type typeRow struct {
	ID          int       `db:"id"`
	Name        string    `db:"name"`
	Code        string    `db:"code"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (row typeRow) toType() fees.Type {
	return fees.Type{
		ID:          row.ID,
		Name:        row.Name,
		Code:        row.Code,
		Description: row.Description,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type masterRow struct {
	ID                   int             `db:"id"`
	FeesGroupID          int             `db:"fees_group_id"`
	FeesGroupName        string          `db:"fees_group_name"`
	FeesTypeID           int             `db:"fees_type_id"`
	FeesTypeName         string          `db:"fees_type_name"`
	DueDate              core.Date       `db:"due_date"`
	Amount               decimal.Decimal `db:"amount"`
	FineType             string          `db:"fine_type"`
	PercentageFineAmount decimal.Decimal `db:"percentage_fine_amount"`
	FixedFineAmount      decimal.Decimal `db:"fixed_fine_amount"`
	PerDay               bool            `db:"per_day"`
	CreatedAt            time.Time       `db:"created_at"`
	UpdatedAt            time.Time       `db:"updated_at"`
}

func (row masterRow) toMaster() fees.Master {
	return fees.Master{
		ID:                   row.ID,
		FeesGroupID:          row.FeesGroupID,
		FeesGroupName:        row.FeesGroupName,
		FeesTypeID:           row.FeesTypeID,
		FeesTypeName:         row.FeesTypeName,
		DueDate:              row.DueDate,
		Amount:               row.Amount,
		FineType:             row.FineType,
		PercentageFineAmount: row.PercentageFineAmount,
		FixedFineAmount:      row.FixedFineAmount,
		PerDay:               row.PerDay,
		CreatedAt:            row.CreatedAt.UTC(),
		UpdatedAt:            row.UpdatedAt.UTC(),
	}
}

type feesRepository struct {
	baseRepo
}

var _ fees.Repository = (*feesRepository)(nil) // interface compliance check

func NewFeesRepository(db *sqlx.DB) fees.Repository {
	return &feesRepository{baseRepo{db: db}}
}

// fees groups

func (repo *feesRepository) CreateGroup(ctx context.Context, grp fees.Group, exec ...core.DBExecutor) (fees.Group, error) {
	q := `INSERT INTO fees_groups (name, description, created_at, updated_at) VALUES ($1, $2, $3, $4) RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(ctx, q, grp.Name, grp.Description, grp.CreatedAt, grp.UpdatedAt).Scan(&grp.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fees.Group{}, fees.ErrGroupExists
		}
		return fees.Group{}, errors.Wrap(err, "inserting fees group")
	}
	return grp, nil
}

func (repo *feesRepository) QueryGroups(ctx context.Context, exec ...core.DBExecutor) ([]fees.Group, error) {
	var rows []groupRow
	q := `SELECT ` + groupColumns + ` FROM fees_groups ORDER BY name`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying fees groups")
	}
	grps := make([]fees.Group, 0, len(rows))
	for _, row := range rows {
		grps = append(grps, row.toGroup())
	}
	return grps, nil
}

func (repo *feesRepository) GetGroupByID(ctx context.Context, id int, exec ...core.DBExecutor) (fees.Group, error) {
	var row groupRow
	q := `SELECT ` + groupColumns + ` FROM fees_groups WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, id); err != nil {
		return fees.Group{}, trapNoRowsErr(err, fees.ErrGroupNotFound, "fetching fees group")
	}
	return row.toGroup(), nil
}

func (repo *feesRepository) UpdateGroup(ctx context.Context, grp fees.Group, exec ...core.DBExecutor) (fees.Group, error) {
	q := `UPDATE fees_groups SET name = $1, description = $2, updated_at = $3 WHERE id = $4
		RETURNING ` + groupColumns
	var updated groupRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &updated, q, grp.Name, grp.Description, grp.UpdatedAt, grp.ID); err != nil {
		if isUniqueViolation(err) {
			return fees.Group{}, fees.ErrGroupExists
		}
		return fees.Group{}, trapNoRowsErr(err, fees.ErrGroupNotFound, "updating fees group")
	}
	return updated.toGroup(), nil
}

func (repo *feesRepository) DeleteGroup(ctx context.Context, id int, exec ...core.DBExecutor) error {
	return repo.delete(ctx, `DELETE FROM fees_groups WHERE id = $1`, id, fees.ErrGroupNotFound, exec)
}

// fees types

func (repo *feesRepository) CreateType(ctx context.Context, typ fees.Type, exec ...core.DBExecutor) (fees.Type, error) {
	q := `INSERT INTO fees_types (name, code, description, created_at, updated_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(ctx, q, typ.Name, typ.Code, typ.Description, typ.CreatedAt, typ.UpdatedAt).Scan(&typ.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fees.Type{}, fees.ErrTypeExists
		}
		return fees.Type{}, errors.Wrap(err, "inserting fees type")
	}
	return typ, nil
}

func (repo *feesRepository) QueryTypes(ctx context.Context, exec ...core.DBExecutor) ([]fees.Type, error) {
	var rows []typeRow
	q := `SELECT ` + typeColumns + ` FROM fees_types ORDER BY name`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying fees types")
	}
	typs := make([]fees.Type, 0, len(rows))
	for _, row := range rows {
		typs = append(typs, row.toType())
	}
	return typs, nil
}

func (repo *feesRepository) GetTypeByID(ctx context.Context, id int, exec ...core.DBExecutor) (fees.Type, error) {
	var row typeRow
	q := `SELECT ` + typeColumns + ` FROM fees_types WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, id); err != nil {
		return fees.Type{}, trapNoRowsErr(err, fees.ErrTypeNotFound, "fetching fees type")
	}
	return row.toType(), nil
}

func (repo *feesRepository) UpdateType(ctx context.Context, typ fees.Type, exec ...core.DBExecutor) (fees.Type, error) {
	q := `UPDATE fees_types SET name = $1, code = $2, description = $3, updated_at = $4 WHERE id = $5
		RETURNING ` + typeColumns
	var updated typeRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &updated, q, typ.Name, typ.Code, typ.Description, typ.UpdatedAt, typ.ID); err != nil {
		if isUniqueViolation(err) {
			return fees.Type{}, fees.ErrTypeExists
		}
		return fees.Type{}, trapNoRowsErr(err, fees.ErrTypeNotFound, "updating fees type")
	}
	return updated.toType(), nil
}

func (repo *feesRepository) DeleteType(ctx context.Context, id int, exec ...core.DBExecutor) error {
	return repo.delete(ctx, `DELETE FROM fees_types WHERE id = $1`, id, fees.ErrTypeNotFound, exec)
}

// fees masters

func (repo *feesRepository) CreateMaster(ctx context.Context, mst fees.Master, exec ...core.DBExecutor) (fees.Master, error) {
	q := `INSERT INTO fees_master (fees_group_id, fees_type_id, due_date, amount, fine_type,
			percentage_fine_amount, fixed_fine_amount, per_day, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(
		ctx, q,
		mst.FeesGroupID, mst.FeesTypeID, mst.DueDate, mst.Amount, mst.FineType,
		mst.PercentageFineAmount, mst.FixedFineAmount, mst.PerDay, mst.CreatedAt, mst.UpdatedAt,
	).Scan(&mst.ID)
	if err != nil {
		return fees.Master{}, errors.Wrap(err, "inserting fees master")
	}
	return mst, nil
}

func (repo *feesRepository) QueryMasters(ctx context.Context, filter fees.MasterFilter, exec ...core.DBExecutor) ([]fees.Master, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.FeesGroupID != 0 {
		where = append(where, `m.fees_group_id = ?`)
		args = append(args, filter.FeesGroupID)
	}
	if filter.FeesTypeID != 0 {
		where = append(where, `m.fees_type_id = ?`)
		args = append(args, filter.FeesTypeID)
	}
	q := masterSelect
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY m.due_date, m.id`

	ext := repo.getExec(exec)
	var rows []masterRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying fees masters")
	}
	msts := make([]fees.Master, 0, len(rows))
	for _, row := range rows {
		msts = append(msts, row.toMaster())
	}
	return msts, nil
}

func (repo *feesRepository) GetMasterByID(ctx context.Context, id int, exec ...core.DBExecutor) (fees.Master, error) {
	var row masterRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, masterSelect+` WHERE m.id = $1`, id); err != nil {
		return fees.Master{}, trapNoRowsErr(err, fees.ErrMasterNotFound, "fetching fees master")
	}
	return row.toMaster(), nil
}

func (repo *feesRepository) UpdateMaster(ctx context.Context, mst fees.Master, exec ...core.DBExecutor) (fees.Master, error) {
	q := `UPDATE fees_master SET fees_group_id = $1, fees_type_id = $2, due_date = $3, amount = $4, fine_type = $5,
			percentage_fine_amount = $6, fixed_fine_amount = $7, per_day = $8, updated_at = $9
		WHERE id = $10`
	res, err := repo.getExec(exec).ExecContext(
		ctx, q,
		mst.FeesGroupID, mst.FeesTypeID, mst.DueDate, mst.Amount, mst.FineType,
		mst.PercentageFineAmount, mst.FixedFineAmount, mst.PerDay, mst.UpdatedAt, mst.ID,
	)
	if err != nil {
		return fees.Master{}, errors.Wrap(err, "updating fees master")
	}
	return mst, affected(res, fees.ErrMasterNotFound)
}

func (repo *feesRepository) DeleteMaster(ctx context.Context, id int, exec ...core.DBExecutor) error {
	return repo.delete(ctx, `DELETE FROM fees_master WHERE id = $1`, id, fees.ErrMasterNotFound, exec)
}

// delete runs a single-row delete; rows still referenced elsewhere yield fees.ErrInUse.
func (repo *feesRepository) delete(ctx context.Context, q string, id int, notFound error, exec []core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, q, id)
	if err != nil {
		if isFKViolation(err) {
			return fees.ErrInUse
		}
		return errors.Wrap(err, "deleting")
	}
	return affected(res, notFound)
}
