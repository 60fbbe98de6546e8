package class

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bursary/core"
)

type Class struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	SectionIDs  []int     `json:"section_ids"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasSection reports whether the section is taught in c.
func (c Class) HasSection(sectionID int) bool {
	for _, id := range c.SectionIDs {
		if id == sectionID {
			return true
		}
	}
	return false
}

type Section struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Session is an academic year.
type Session struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	StartDate core.Date `json:"start_date"`
	EndDate   core.Date `json:"end_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Placement is where a student sits; a zero ID is left unchecked.
type Placement struct {
	ClassID   int
	SectionID int
	SessionID int
}

// PlacementOf builds a Placement from optional IDs.
func PlacementOf(classID, sectionID, sessionID *int) Placement {
	deref := func(id *int) int {
		if id == nil {
			return 0
		}
		return *id
	}
	return Placement{ClassID: deref(classID), SectionID: deref(sectionID), SessionID: deref(sessionID)}
}

// ClassInput is used to create or update a Class; SectionIDs replaces the class's sections.
type ClassInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	Code        string `json:"code" validate:"omitempty,max=20,alphanum_"`
	Description string `json:"description" validate:"max=255"`
	IsActive    *bool  `json:"is_active"`
	SectionIDs  []int  `json:"section_ids" validate:"dive,gt=0"`
}

func (in *ClassInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Code = core.CleanString(in.Code, true /* lower */)
	in.Description = core.CleanString(in.Description)

	seen := make(map[int]bool, len(in.SectionIDs))
	ids := make([]int, 0, len(in.SectionIDs))
	for _, id := range in.SectionIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	in.SectionIDs = ids
	return validate.Struct(in)
}

type SectionInput struct {
	Name        string `json:"name" validate:"required,max=50"`
	Code        string `json:"code" validate:"omitempty,max=20,alphanum_"`
	Description string `json:"description" validate:"max=255"`
}

func (in *SectionInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	in.Code = core.CleanString(in.Code, true /* lower */)
	in.Description = core.CleanString(in.Description)
	return validate.Struct(in)
}

type SessionInput struct {
	Name      string    `json:"name" validate:"required,max=50"`
	StartDate core.Date `json:"start_date" validate:"required"`
	EndDate   core.Date `json:"end_date" validate:"required"`
}

func (in *SessionInput) Validate(validate *validator.Validate) error {
	in.Name = core.CleanString(in.Name)
	if err := validate.Struct(in); err != nil {
		return err
	}
	if !in.EndDate.After(in.StartDate.Time) {
		return core.NewValidationError(ErrInvalidSessionDates, core.FieldError{Field: "end_date", Error: ErrInvalidSessionDates.Error()})
	}
	return nil
}

type SectionFilter struct {
	ClassID int `query:"class_id"`
}
