package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/fees"
)

type feesRepository struct {
	db *DB
}

var _ fees.Repository = (*feesRepository)(nil) // interface compliance check

func NewFeesRepository(db *DB) fees.Repository {
	return &feesRepository{db: db}
}

// groups

func (repo *feesRepository) CreateGroup(_ context.Context, grp fees.Group, _ ...core.DBExecutor) (fees.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, g := range repo.db.groups {
		if g.Name == grp.Name {
			return fees.Group{}, fees.ErrGroupExists
		}
	}
	grp.ID = repo.db.nextID()
	repo.db.groups[grp.ID] = grp
	return grp, nil
}

func (repo *feesRepository) QueryGroups(_ context.Context, _ ...core.DBExecutor) ([]fees.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	grps := make([]fees.Group, 0, len(repo.db.groups))
	for _, g := range repo.db.groups {
		grps = append(grps, g)
	}
	sort.Slice(grps, func(i, j int) bool { return grps[i].Name < grps[j].Name })
	return grps, nil
}

func (repo *feesRepository) GetGroupByID(_ context.Context, id int, _ ...core.DBExecutor) (fees.Group, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if grp, ok := repo.db.groups[id]; ok {
		return grp, nil
	}
	return fees.Group{}, fees.ErrGroupNotFound
}

func (repo *feesRepository) UpdateGroup(_ context.Context, grp fees.Group, _ ...core.DBExecutor) (fees.Group, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.groups[grp.ID]
	if !ok {
		return fees.Group{}, fees.ErrGroupNotFound
	}
	for _, g := range repo.db.groups {
		if g.ID != grp.ID && g.Name == grp.Name {
			return fees.Group{}, fees.ErrGroupExists
		}
	}
	orig.Name = grp.Name
	orig.Description = grp.Description
	orig.UpdatedAt = grp.UpdatedAt
	repo.db.groups[grp.ID] = orig
	return orig, nil
}

func (repo *feesRepository) DeleteGroup(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.groups[id]; !ok {
		return fees.ErrGroupNotFound
	}
	for _, m := range repo.db.masters {
		if m.FeesGroupID == id {
			return fees.ErrInUse
		}
	}
	delete(repo.db.groups, id)
	return nil
}

// types

func (repo *feesRepository) CreateType(_ context.Context, typ fees.Type, _ ...core.DBExecutor) (fees.Type, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, t := range repo.db.types {
		if t.Code == typ.Code {
			return fees.Type{}, fees.ErrTypeExists
		}
	}
	typ.ID = repo.db.nextID()
	repo.db.types[typ.ID] = typ
	return typ, nil
}

func (repo *feesRepository) QueryTypes(_ context.Context, _ ...core.DBExecutor) ([]fees.Type, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	typs := make([]fees.Type, 0, len(repo.db.types))
	for _, t := range repo.db.types {
		typs = append(typs, t)
	}
	sort.Slice(typs, func(i, j int) bool { return typs[i].Name < typs[j].Name })
	return typs, nil
}

func (repo *feesRepository) GetTypeByID(_ context.Context, id int, _ ...core.DBExecutor) (fees.Type, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if typ, ok := repo.db.types[id]; ok {
		return typ, nil
	}
	return fees.Type{}, fees.ErrTypeNotFound
}

func (repo *feesRepository) UpdateType(_ context.Context, typ fees.Type, _ ...core.DBExecutor) (fees.Type, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.types[typ.ID]
	if !ok {
		return fees.Type{}, fees.ErrTypeNotFound
	}
	for _, t := range repo.db.types {
		if t.ID != typ.ID && t.Code == typ.Code {
			return fees.Type{}, fees.ErrTypeExists
		}
	}
	orig.Name = typ.Name
	orig.Code = typ.Code
	orig.Description = typ.Description
	orig.UpdatedAt = typ.UpdatedAt
	repo.db.types[typ.ID] = orig
	return orig, nil
}

func (repo *feesRepository) DeleteType(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.types[id]; !ok {
		return fees.ErrTypeNotFound
	}
	for _, m := range repo.db.masters {
		if m.FeesTypeID == id {
			return fees.ErrInUse
		}
	}
	delete(repo.db.types, id)
	return nil
}

// masters

// joinMaster fills the group & type names of m; callers hold a lock.
func joinMaster(t *tables, m fees.Master) fees.Master {
	m.FeesGroupName = t.groups[m.FeesGroupID].Name
	m.FeesTypeName = t.types[m.FeesTypeID].Name
	return m
}

func (repo *feesRepository) CreateMaster(_ context.Context, mst fees.Master, _ ...core.DBExecutor) (fees.Master, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.groups[mst.FeesGroupID]; !ok {
		return fees.Master{}, fees.ErrGroupNotFound
	}
	if _, ok := repo.db.types[mst.FeesTypeID]; !ok {
		return fees.Master{}, fees.ErrTypeNotFound
	}
	mst.ID = repo.db.nextID()
	repo.db.masters[mst.ID] = mst
	return joinMaster(repo.db.tables, mst), nil
}

func (repo *feesRepository) QueryMasters(_ context.Context, filter fees.MasterFilter, _ ...core.DBExecutor) ([]fees.Master, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	msts := make([]fees.Master, 0, len(repo.db.masters))
	for _, m := range repo.db.masters {
		if filter.FeesGroupID != 0 && m.FeesGroupID != filter.FeesGroupID {
			continue
		}
		if filter.FeesTypeID != 0 && m.FeesTypeID != filter.FeesTypeID {
			continue
		}
		msts = append(msts, joinMaster(repo.db.tables, m))
	}
	sort.Slice(msts, func(i, j int) bool {
		if msts[i].DueDate.Equal(msts[j].DueDate.Time) {
			return msts[i].ID < msts[j].ID
		}
		return msts[i].DueDate.Before(msts[j].DueDate.Time)
	})
	return msts, nil
}

func (repo *feesRepository) GetMasterByID(_ context.Context, id int, _ ...core.DBExecutor) (fees.Master, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if mst, ok := repo.db.masters[id]; ok {
		return joinMaster(repo.db.tables, mst), nil
	}
	return fees.Master{}, fees.ErrMasterNotFound
}

func (repo *feesRepository) UpdateMaster(_ context.Context, mst fees.Master, _ ...core.DBExecutor) (fees.Master, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.masters[mst.ID]
	if !ok {
		return fees.Master{}, fees.ErrMasterNotFound
	}
	mst.CreatedAt = orig.CreatedAt
	repo.db.masters[mst.ID] = mst
	return joinMaster(repo.db.tables, mst), nil
}

func (repo *feesRepository) DeleteMaster(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.masters[id]; !ok {
		return fees.ErrMasterNotFound
	}
	for _, e := range repo.db.entries {
		if e.FeesMasterID == id {
			return fees.ErrInUse
		}
	}
	delete(repo.db.masters, id)
	return nil
}
