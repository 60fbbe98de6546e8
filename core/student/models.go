package student

import (
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/ledger"
)

const (
	GenderMale   = "male"
	GenderFemale = "female"
)

type Student struct {
	ID            int       `json:"id"`
	AdmissionNo   int       `json:"admission_no"`
	RollNo        int       `json:"roll_no"`
	ClassID       *int      `json:"class_id"`
	SectionID     *int      `json:"section_id"`
	SessionID     *int      `json:"session_id"`
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Gender        string    `json:"gender"`
	DateOfBirth   core.Date `json:"date_of_birth"`
	PhoneNumber   string    `json:"phone_number"`
	Email         string    `json:"email"`
	Address       string    `json:"address"`
	AdmissionDate core.Date `json:"admission_date"`
	IsActive      bool      `json:"is_active"`
	FatherName    string    `json:"father_name"`
	FatherPhone   string    `json:"father_phone"`
	FatherEmail   string    `json:"father_email"`
	MotherName    string    `json:"mother_name"`
	MotherPhone   string    `json:"mother_phone"`
	MotherEmail   string    `json:"mother_email"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// GuardianAddress is where receipts are sent: father, then mother, then the student.
func (s Student) GuardianAddress() (mail.Address, bool) {
	switch {
	case s.FatherEmail != "":
		return mail.Address{Name: s.FatherName, Address: s.FatherEmail}, true
	case s.MotherEmail != "":
		return mail.Address{Name: s.MotherName, Address: s.MotherEmail}, true
	case s.Email != "":
		return mail.Address{Name: s.FullName(), Address: s.Email}, true
	}
	return mail.Address{}, false
}

// Detail is a Student with their fee ledger.
type Detail struct {
	Student
	Fees []ledger.EntryDetail `json:"fees"`
}

// Details holds the student fields shared by NewStudent & UpdateStudent.
type Details struct {
	AdmissionNo   int       `json:"admission_no" validate:"required,gt=0"`
	RollNo        int       `json:"roll_no" validate:"required,gt=0"`
	ClassID       *int      `json:"class_id" validate:"omitempty,gt=0"`
	SectionID     *int      `json:"section_id" validate:"omitempty,gt=0"`
	SessionID     *int      `json:"session_id" validate:"omitempty,gt=0"`
	FirstName     string    `json:"first_name" validate:"required,max=100"`
	LastName      string    `json:"last_name" validate:"max=100"`
	Gender        string    `json:"gender" validate:"required,oneof=male female"`
	DateOfBirth   core.Date `json:"date_of_birth"`
	PhoneNumber   string    `json:"phone_number" validate:"max=30"`
	Email         string    `json:"email" validate:"omitempty,email"`
	Address       string    `json:"address" validate:"max=255"`
	AdmissionDate core.Date `json:"admission_date"`
	IsActive      *bool     `json:"is_active"`
	FatherName    string    `json:"father_name" validate:"max=100"`
	FatherPhone   string    `json:"father_phone" validate:"max=30"`
	FatherEmail   string    `json:"father_email" validate:"omitempty,email"`
	MotherName    string    `json:"mother_name" validate:"max=100"`
	MotherPhone   string    `json:"mother_phone" validate:"max=30"`
	MotherEmail   string    `json:"mother_email" validate:"omitempty,email"`
}

func (d *Details) clean() {
	d.FirstName = core.CleanString(d.FirstName)
	d.LastName = core.CleanString(d.LastName)
	d.Gender = core.CleanString(d.Gender, true /* lower */)
	d.PhoneNumber = core.CleanString(d.PhoneNumber)
	d.Email = core.CleanString(d.Email, true /* lower */)
	d.Address = core.CleanString(d.Address)
	d.FatherName = core.CleanString(d.FatherName)
	d.FatherPhone = core.CleanString(d.FatherPhone)
	d.FatherEmail = core.CleanString(d.FatherEmail, true /* lower */)
	d.MotherName = core.CleanString(d.MotherName)
	d.MotherPhone = core.CleanString(d.MotherPhone)
	d.MotherEmail = core.CleanString(d.MotherEmail, true /* lower */)
}

func (d Details) apply(s Student) Student {
	s.AdmissionNo = d.AdmissionNo
	s.RollNo = d.RollNo
	s.ClassID = d.ClassID
	s.SectionID = d.SectionID
	s.SessionID = d.SessionID
	s.FirstName = d.FirstName
	s.LastName = d.LastName
	s.Gender = d.Gender
	s.DateOfBirth = d.DateOfBirth
	s.PhoneNumber = d.PhoneNumber
	s.Email = d.Email
	s.Address = d.Address
	if !d.AdmissionDate.IsZero() {
		s.AdmissionDate = d.AdmissionDate
	}
	if d.IsActive != nil {
		s.IsActive = *d.IsActive
	}
	s.FatherName = d.FatherName
	s.FatherPhone = d.FatherPhone
	s.FatherEmail = d.FatherEmail
	s.MotherName = d.MotherName
	s.MotherPhone = d.MotherPhone
	s.MotherEmail = d.MotherEmail
	return s
}

// NewStudent contains information needed to admit a Student and open their fee ledger.
type NewStudent struct {
	Details
	FeesMasterIDs []int `json:"fees_master_ids" validate:"dive,gt=0"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.clean()
	return validate.Struct(ns)
}

// UpdateStudent changes a Student's details; the fee ledger is left untouched.
type UpdateStudent struct {
	Details
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.clean()
	return validate.Struct(us)
}

type QueryFilter struct {
	ClassID   int    `query:"class_id"`
	SectionID int    `query:"section_id"`
	SessionID int    `query:"session_id"`
	Search    string `query:"search"` // name or roll number
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
