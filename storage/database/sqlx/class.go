package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/class"
)

const (
	classSelect = `SELECT c.id, c.name, c.code, c.description, c.is_active, c.created_at, c.updated_at,
		COALESCE(array_agg(cs.section_id ORDER BY cs.section_id) FILTER (WHERE cs.section_id IS NOT NULL), '{}') AS section_ids
	FROM classes c
	LEFT JOIN class_sections cs ON cs.class_id = c.id`
	classGroupBy = ` GROUP BY c.id`

	sectionColumns = `s.id, s.name, s.code, s.description, s.is_active, s.created_at, s.updated_at`
	sessionColumns = `id, name, start_date, end_date, is_active, created_at`
)

type classRow struct {
	ID          int           `db:"id"`
	Name        string        `db:"name"`
	Code        null.String   `db:"code"`
	Description string        `db:"description"`
	IsActive    bool          `db:"is_active"`
	SectionIDs  pq.Int64Array `db:"section_ids"`
	CreatedAt   time.Time     `db:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at"`
}

func (row classRow) toClass() class.Class {
	ids := make([]int, 0, len(row.SectionIDs))
	for _, id := range row.SectionIDs {
		ids = append(ids, int(id))
	}
	return class.Class{
		ID:          row.ID,
		Name:        row.Name,
		Code:        row.Code.String,
		Description: row.Description,
		IsActive:    row.IsActive,
		SectionIDs:  ids,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type sectionRow struct {
	ID          int         `db:"id"`
	Name        string      `db:"name"`
	Code        null.String `db:"code"`
	Description string      `db:"description"`
	IsActive    bool        `db:"is_active"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (row sectionRow) toSection() class.Section {
	return class.Section{
		ID:          row.ID,
		Name:        row.Name,
		Code:        row.Code.String,
		Description: row.Description,
		IsActive:    row.IsActive,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

type sessionRow struct {
	ID        int       `db:"id"`
	Name      string    `db:"name"`
	StartDate core.Date `db:"start_date"`
	EndDate   core.Date `db:"end_date"`
	IsActive  bool      `db:"is_active"`
	CreatedAt time.Time `db:"created_at"`
}

func (row sessionRow) toSession() class.Session {
	return class.Session{
		ID:        row.ID,
		Name:      row.Name,
		StartDate: row.StartDate,
		EndDate:   row.EndDate,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt.UTC(),
	}
}

type classRepository struct {
	baseRepo
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) class.Repository {
	return &classRepository{baseRepo{db: db}}
}

// classes

// linkSections replaces the sections of the class.
func (repo *classRepository) linkSections(ctx context.Context, ext sqlx.ExtContext, classID int, sectionIDs []int) error {
	if _, err := ext.ExecContext(ctx, `DELETE FROM class_sections WHERE class_id = $1`, classID); err != nil {
		return errors.Wrap(err, "unlinking sections")
	}
	for _, id := range sectionIDs {
		q := `INSERT INTO class_sections (class_id, section_id) VALUES ($1, $2)`
		if _, err := ext.ExecContext(ctx, q, classID, id); err != nil {
			if isFKViolation(err) {
				return class.ErrSectionNotFound
			}
			return errors.Wrap(err, "linking section")
		}
	}
	return nil
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class, exec ...core.DBExecutor) (class.Class, error) {
	ext := repo.getExec(exec)
	q := `INSERT INTO classes (name, code, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := ext.QueryRowxContext(
		ctx, q, cls.Name, null.NewString(cls.Code, cls.Code != ""), cls.Description, cls.IsActive, cls.CreatedAt, cls.UpdatedAt,
	).Scan(&cls.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return class.Class{}, class.ErrClassExists
		}
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	if err = repo.linkSections(ctx, ext, cls.ID, cls.SectionIDs); err != nil {
		return class.Class{}, err
	}
	return cls, nil
}

func (repo *classRepository) QueryClasses(ctx context.Context, exec ...core.DBExecutor) ([]class.Class, error) {
	var rows []classRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, classSelect+classGroupBy+` ORDER BY c.id`); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	clss := make([]class.Class, 0, len(rows))
	for _, row := range rows {
		clss = append(clss, row.toClass())
	}
	return clss, nil
}

func (repo *classRepository) GetClassByID(ctx context.Context, id int, exec ...core.DBExecutor) (class.Class, error) {
	var row classRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, classSelect+` WHERE c.id = $1`+classGroupBy, id); err != nil {
		return class.Class{}, trapNoRowsErr(err, class.ErrClassNotFound, "fetching class")
	}
	return row.toClass(), nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class, exec ...core.DBExecutor) (class.Class, error) {
	ext := repo.getExec(exec)
	q := `UPDATE classes SET name = $1, code = $2, description = $3, is_active = $4, updated_at = $5 WHERE id = $6`
	res, err := ext.ExecContext(
		ctx, q, cls.Name, null.NewString(cls.Code, cls.Code != ""), cls.Description, cls.IsActive, cls.UpdatedAt, cls.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return class.Class{}, class.ErrClassExists
		}
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	if err = affected(res, class.ErrClassNotFound); err != nil {
		return class.Class{}, err
	}
	if err = repo.linkSections(ctx, ext, cls.ID, cls.SectionIDs); err != nil {
		return class.Class{}, err
	}
	return cls, nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, id int, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		if isFKViolation(err) {
			return class.ErrInUse
		}
		return errors.Wrap(err, "deleting class")
	}
	return affected(res, class.ErrClassNotFound)
}

// sections

func (repo *classRepository) CreateSection(ctx context.Context, sec class.Section, exec ...core.DBExecutor) (class.Section, error) {
	q := `INSERT INTO sections (name, code, description, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(
		ctx, q, sec.Name, null.NewString(sec.Code, sec.Code != ""), sec.Description, sec.IsActive, sec.CreatedAt, sec.UpdatedAt,
	).Scan(&sec.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return class.Section{}, class.ErrSectionExists
		}
		return class.Section{}, errors.Wrap(err, "inserting section")
	}
	return sec, nil
}

func (repo *classRepository) QuerySections(ctx context.Context, classID int, exec ...core.DBExecutor) ([]class.Section, error) {
	q := `SELECT ` + sectionColumns + ` FROM sections s`
	var args []interface{}
	if classID != 0 {
		q += ` JOIN class_sections cs ON cs.section_id = s.id WHERE cs.class_id = $1`
		args = append(args, classID)
	}
	q += ` ORDER BY s.name`

	var rows []sectionRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying sections")
	}
	secs := make([]class.Section, 0, len(rows))
	for _, row := range rows {
		secs = append(secs, row.toSection())
	}
	return secs, nil
}

func (repo *classRepository) GetSectionByID(ctx context.Context, id int, exec ...core.DBExecutor) (class.Section, error) {
	var row sectionRow
	q := `SELECT ` + sectionColumns + ` FROM sections s WHERE s.id = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, id); err != nil {
		return class.Section{}, trapNoRowsErr(err, class.ErrSectionNotFound, "fetching section")
	}
	return row.toSection(), nil
}

// sessions

func (repo *classRepository) CreateSession(ctx context.Context, sess class.Session, exec ...core.DBExecutor) (class.Session, error) {
	q := `INSERT INTO sessions (name, start_date, end_date, is_active, created_at) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(
		ctx, q, sess.Name, sess.StartDate, sess.EndDate, sess.IsActive, sess.CreatedAt,
	).Scan(&sess.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return class.Session{}, class.ErrSessionExists
		}
		return class.Session{}, errors.Wrap(err, "inserting session")
	}
	return sess, nil
}

func (repo *classRepository) QuerySessions(ctx context.Context, exec ...core.DBExecutor) ([]class.Session, error) {
	var rows []sessionRow
	q := `SELECT ` + sessionColumns + ` FROM sessions ORDER BY start_date DESC`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	sessions := make([]class.Session, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, row.toSession())
	}
	return sessions, nil
}

func (repo *classRepository) GetSessionByID(ctx context.Context, id int, exec ...core.DBExecutor) (class.Session, error) {
	var row sessionRow
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, id); err != nil {
		return class.Session{}, trapNoRowsErr(err, class.ErrSessionNotFound, "fetching session")
	}
	return row.toSession(), nil
}
