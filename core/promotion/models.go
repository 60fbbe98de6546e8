package promotion

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type (
	Result      string
	NextSession string
)

const (
	ResultPass Result = "Pass"
	ResultFail Result = "Fail"

	NextSessionContinue NextSession = "Continue"
	NextSessionLeave    NextSession = "Leave"
)

// Record is the audit trail of a successful promotion.
type Record struct {
	ID            int         `json:"id"`
	StudentID     int         `json:"student_id"`
	SessionID     int         `json:"session_id"`
	CurrentResult Result      `json:"current_result"`
	NextSession   NextSession `json:"next_session"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Candidate is a student to move to a new class, section & session.
type Candidate struct {
	StudentID     int         `json:"student_id" validate:"required,gt=0"`
	ClassID       int         `json:"class_id" validate:"required,gt=0"`
	SectionID     int         `json:"section_id" validate:"required,gt=0"`
	SessionID     int         `json:"session_id" validate:"required,gt=0"`
	CurrentResult Result      `json:"current_result" validate:"required,exam_result"`
	NextSession   NextSession `json:"next_session" validate:"required,next_session"`
}

// Input is a promotion batch: every promoted student gets a fresh ledger from FeesMasterIDs.
type Input struct {
	Students      []Candidate `json:"students" validate:"required,min=1,dive"`
	FeesMasterIDs []int       `json:"fees_master_ids" validate:"dive,gt=0"`
}

func (in *Input) Validate(validate *validator.Validate) error {
	return validate.Struct(in)
}

type Promoted struct {
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name"`
	RollNo      int    `json:"roll_no"`
}

type Rejected struct {
	StudentID   int    `json:"student_id"`
	StudentName string `json:"student_name"`
	RollNo      int    `json:"roll_no"`
	Message     string `json:"message"`
}

// Outcome splits a batch into promoted & rejected students.
type Outcome struct {
	Promoted []Promoted `json:"promoted_students"`
	Rejected []Rejected `json:"not_promoted_students"`
}

type RecordFilter struct {
	StudentID int `query:"student_id"`
	SessionID int `query:"session_id"`
}
