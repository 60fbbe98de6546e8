package dummydb

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) admissionNoTaken(std student.Student) bool {
	for _, s := range repo.db.students {
		if s.ID != std.ID && s.AdmissionNo == std.AdmissionNo {
			return true
		}
	}
	return false
}

func (repo *studentRepository) CreateStudent(_ context.Context, std student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.admissionNoTaken(std) {
		return student.Student{}, student.ErrAdmissionNoExists
	}
	std.ID = repo.db.nextID()
	repo.db.students[std.ID] = std
	return std, nil
}

func matchesID(want int, got *int) bool {
	return want == 0 || (got != nil && *got == want)
}

func (repo *studentRepository) QueryStudents(_ context.Context, filter student.QueryFilter, _ ...core.DBExecutor) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	roll, rollErr := strconv.Atoi(filter.Search)
	search := strings.ToLower(filter.Search)

	stds := make([]student.Student, 0)
	for _, s := range repo.db.students {
		if !matchesID(filter.ClassID, s.ClassID) ||
			!matchesID(filter.SectionID, s.SectionID) ||
			!matchesID(filter.SessionID, s.SessionID) {
			continue
		}
		if search != "" {
			if rollErr == nil {
				if s.RollNo != roll {
					continue
				}
			} else if !strings.Contains(strings.ToLower(s.FullName()), search) {
				continue
			}
		}
		stds = append(stds, s)
	}
	sort.Slice(stds, func(i, j int) bool {
		if stds[i].RollNo == stds[j].RollNo {
			return stds[i].ID < stds[j].ID
		}
		return stds[i].RollNo < stds[j].RollNo
	})
	return stds, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id int, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if std, ok := repo.db.students[id]; ok {
		return std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) UpdateStudent(_ context.Context, std student.Student, _ ...core.DBExecutor) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.students[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	if repo.admissionNoTaken(std) {
		return student.Student{}, student.ErrAdmissionNoExists
	}
	std.CreatedAt = orig.CreatedAt
	repo.db.students[std.ID] = std
	return std, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return student.ErrNotFound
	}
	// cascade
	for eid, e := range repo.db.entries {
		if e.StudentID == id {
			delete(repo.db.entries, eid)
		}
	}
	for pid, p := range repo.db.payments {
		if p.StudentID == id {
			delete(repo.db.payments, pid)
		}
	}
	for rid, r := range repo.db.promotions {
		if r.StudentID == id {
			delete(repo.db.promotions, rid)
		}
	}
	delete(repo.db.students, id)
	return nil
}
