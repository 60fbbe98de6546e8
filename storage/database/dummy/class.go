package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/class"
)

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db}
}

func copyClass(cls class.Class) class.Class {
	cls.SectionIDs = append([]int{}, cls.SectionIDs...)
	return cls
}

// classes

// checkClass enforces the unique code & the section links of cls; callers hold the write lock.
func (repo *classRepository) checkClass(cls class.Class) error {
	for _, c := range repo.db.classes {
		if c.ID != cls.ID && cls.Code != "" && c.Code == cls.Code {
			return class.ErrClassExists
		}
	}
	for _, id := range cls.SectionIDs {
		if _, ok := repo.db.sections[id]; !ok {
			return class.ErrSectionNotFound
		}
	}
	return nil
}

func (repo *classRepository) CreateClass(_ context.Context, cls class.Class, _ ...core.DBExecutor) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if err := repo.checkClass(cls); err != nil {
		return class.Class{}, err
	}
	cls.ID = repo.db.nextID()
	cls = copyClass(cls)
	repo.db.classes[cls.ID] = cls
	return copyClass(cls), nil
}

func (repo *classRepository) QueryClasses(_ context.Context, _ ...core.DBExecutor) ([]class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	clss := make([]class.Class, 0, len(repo.db.classes))
	for _, c := range repo.db.classes {
		clss = append(clss, copyClass(c))
	}
	sort.Slice(clss, func(i, j int) bool { return clss[i].ID < clss[j].ID })
	return clss, nil
}

func (repo *classRepository) GetClassByID(_ context.Context, id int, _ ...core.DBExecutor) (class.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if cls, ok := repo.db.classes[id]; ok {
		return copyClass(cls), nil
	}
	return class.Class{}, class.ErrClassNotFound
}

func (repo *classRepository) UpdateClass(_ context.Context, cls class.Class, _ ...core.DBExecutor) (class.Class, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.classes[cls.ID]
	if !ok {
		return class.Class{}, class.ErrClassNotFound
	}
	if err := repo.checkClass(cls); err != nil {
		return class.Class{}, err
	}
	cls.CreatedAt = orig.CreatedAt
	cls = copyClass(cls)
	repo.db.classes[cls.ID] = cls
	return copyClass(cls), nil
}

func (repo *classRepository) DeleteClass(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.classes[id]; !ok {
		return class.ErrClassNotFound
	}
	for _, s := range repo.db.students {
		if s.ClassID != nil && *s.ClassID == id {
			return class.ErrInUse
		}
	}
	for _, p := range repo.db.payments {
		if p.ClassID != nil && *p.ClassID == id {
			return class.ErrInUse
		}
	}
	delete(repo.db.classes, id)
	return nil
}

// sections

func (repo *classRepository) CreateSection(_ context.Context, sec class.Section, _ ...core.DBExecutor) (class.Section, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, s := range repo.db.sections {
		if s.Name == sec.Name {
			return class.Section{}, class.ErrSectionExists
		}
	}
	sec.ID = repo.db.nextID()
	repo.db.sections[sec.ID] = sec
	return sec, nil
}

func (repo *classRepository) QuerySections(_ context.Context, classID int, _ ...core.DBExecutor) ([]class.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	secs := make([]class.Section, 0)
	for _, s := range repo.db.sections {
		if classID != 0 && !repo.db.classes[classID].HasSection(s.ID) {
			continue
		}
		secs = append(secs, s)
	}
	sort.Slice(secs, func(i, j int) bool { return secs[i].Name < secs[j].Name })
	return secs, nil
}

func (repo *classRepository) GetSectionByID(_ context.Context, id int, _ ...core.DBExecutor) (class.Section, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sec, ok := repo.db.sections[id]; ok {
		return sec, nil
	}
	return class.Section{}, class.ErrSectionNotFound
}

// sessions

func (repo *classRepository) CreateSession(_ context.Context, sess class.Session, _ ...core.DBExecutor) (class.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, s := range repo.db.sessions {
		if s.Name == sess.Name {
			return class.Session{}, class.ErrSessionExists
		}
	}
	sess.ID = repo.db.nextID()
	repo.db.sessions[sess.ID] = sess
	return sess, nil
}

func (repo *classRepository) QuerySessions(_ context.Context, _ ...core.DBExecutor) ([]class.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	sessions := make([]class.Session, 0, len(repo.db.sessions))
	for _, s := range repo.db.sessions {
		sessions = append(sessions, s)
	}
	// latest academic year first
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].StartDate.After(sessions[j].StartDate.Time) })
	return sessions, nil
}

func (repo *classRepository) GetSessionByID(_ context.Context, id int, _ ...core.DBExecutor) (class.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sess, ok := repo.db.sessions[id]; ok {
		return sess, nil
	}
	return class.Session{}, class.ErrSessionNotFound
}
