package sqlxrepos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/student"
)

const studentColumns = `id, admission_no, roll_no, class_id, section_id, session_id, first_name, last_name, gender,
	date_of_birth, phone_number, email, address, admission_date, is_active, father_name, father_phone, father_email,
	mother_name, mother_phone, mother_email, created_at, updated_at`

type studentRow struct {
	ID            int       `db:"id"`
	AdmissionNo   int       `db:"admission_no"`
	RollNo        int       `db:"roll_no"`
	ClassID       null.Int  `db:"class_id"`
	SectionID     null.Int  `db:"section_id"`
	SessionID     null.Int  `db:"session_id"`
	FirstName     string    `db:"first_name"`
	LastName      string    `db:"last_name"`
	Gender        string    `db:"gender"`
	DateOfBirth   core.Date `db:"date_of_birth"`
	PhoneNumber   string    `db:"phone_number"`
	Email         string    `db:"email"`
	Address       string    `db:"address"`
	AdmissionDate core.Date `db:"admission_date"`
	IsActive      bool      `db:"is_active"`
	FatherName    string    `db:"father_name"`
	FatherPhone   string    `db:"father_phone"`
	FatherEmail   string    `db:"father_email"`
	MotherName    string    `db:"mother_name"`
	MotherPhone   string    `db:"mother_phone"`
	MotherEmail   string    `db:"mother_email"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

func (row studentRow) toStudent() student.Student {
	return student.Student{
		ID:            row.ID,
		AdmissionNo:   row.AdmissionNo,
		RollNo:        row.RollNo,
		ClassID:       row.ClassID.Ptr(),
		SectionID:     row.SectionID.Ptr(),
		SessionID:     row.SessionID.Ptr(),
		FirstName:     row.FirstName,
		LastName:      row.LastName,
		Gender:        row.Gender,
		DateOfBirth:   row.DateOfBirth,
		PhoneNumber:   row.PhoneNumber,
		Email:         row.Email,
		Address:       row.Address,
		AdmissionDate: row.AdmissionDate,
		IsActive:      row.IsActive,
		FatherName:    row.FatherName,
		FatherPhone:   row.FatherPhone,
		FatherEmail:   row.FatherEmail,
		MotherName:    row.MotherName,
		MotherPhone:   row.MotherPhone,
		MotherEmail:   row.MotherEmail,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

// studentValues lists the writable columns in studentColumns order, from admission_no to mother_email.
func studentValues(std student.Student) []interface{} {
	return []interface{}{
		std.AdmissionNo, std.RollNo,
		null.IntFromPtr(std.ClassID), null.IntFromPtr(std.SectionID), null.IntFromPtr(std.SessionID),
		std.FirstName, std.LastName, std.Gender, std.DateOfBirth, std.PhoneNumber, std.Email, std.Address,
		std.AdmissionDate, std.IsActive,
		std.FatherName, std.FatherPhone, std.FatherEmail, std.MotherName, std.MotherPhone, std.MotherEmail,
	}
}

type studentRepository struct {
	baseRepo
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) student.Repository {
	return &studentRepository{baseRepo{db: db}}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	q := `INSERT INTO students (admission_no, roll_no, class_id, section_id, session_id, first_name, last_name, gender,
			date_of_birth, phone_number, email, address, admission_date, is_active, father_name, father_phone, father_email,
			mother_name, mother_phone, mother_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING id`
	args := append(studentValues(std), std.CreatedAt, std.UpdatedAt)
	if err := repo.getExec(exec).QueryRowxContext(ctx, q, args...).Scan(&std.ID); err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrAdmissionNoExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter student.QueryFilter, exec ...core.DBExecutor) ([]student.Student, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.ClassID != 0 {
		where = append(where, `class_id = ?`)
		args = append(args, filter.ClassID)
	}
	if filter.SectionID != 0 {
		where = append(where, `section_id = ?`)
		args = append(args, filter.SectionID)
	}
	if filter.SessionID != 0 {
		where = append(where, `session_id = ?`)
		args = append(args, filter.SessionID)
	}
	if filter.Search != "" {
		if roll, err := strconv.Atoi(filter.Search); err == nil {
			where = append(where, `roll_no = ?`)
			args = append(args, roll)
		} else {
			where = append(where, `(first_name || ' ' || last_name) ILIKE ?`)
			args = append(args, "%"+filter.Search+"%")
		}
	}

	q := `SELECT ` + studentColumns + ` FROM students`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY roll_no, id`

	ext := repo.getExec(exec)
	var rows []studentRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	stds := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		stds = append(stds, row.toStudent())
	}
	return stds, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id int, exec ...core.DBExecutor) (student.Student, error) {
	var row studentRow
	q := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "fetching student")
	}
	return row.toStudent(), nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	q := `UPDATE students SET admission_no = $1, roll_no = $2, class_id = $3, section_id = $4, session_id = $5,
			first_name = $6, last_name = $7, gender = $8, date_of_birth = $9, phone_number = $10, email = $11,
			address = $12, admission_date = $13, is_active = $14, father_name = $15, father_phone = $16,
			father_email = $17, mother_name = $18, mother_phone = $19, mother_email = $20, updated_at = $21
		WHERE id = $22`
	args := append(studentValues(std), std.UpdatedAt, std.ID)
	res, err := repo.getExec(exec).ExecContext(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrAdmissionNoExists
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	return std, affected(res, student.ErrNotFound)
}

// DeleteStudent relies on ON DELETE CASCADE for the student's fees, payments & promotions.
func (repo *studentRepository) DeleteStudent(ctx context.Context, id int, exec ...core.DBExecutor) error {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return affected(res, student.ErrNotFound)
}
