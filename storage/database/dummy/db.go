package dummydb

import (
	"context"
	"sync"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/account"
	"github.com/trezcool/bursary/core/class"
	"github.com/trezcool/bursary/core/fees"
	"github.com/trezcool/bursary/core/ledger"
	"github.com/trezcool/bursary/core/promotion"
	"github.com/trezcool/bursary/core/student"
	"github.com/trezcool/bursary/core/user"
)

type (
	// DB is an in-memory stand-in for the postgres database, used by tests.
	DB struct {
		sync.RWMutex
		txMu sync.Mutex // one transaction at a time
		*tables
	}

	tables struct {
		seq        int
		users      map[int]user.User
		groups     map[int]fees.Group
		types      map[int]fees.Type
		masters    map[int]fees.Master
		students   map[int]student.Student
		entries    map[int]ledger.Entry
		payments   map[int]ledger.Payment
		banks      map[int]account.BankAccount
		mfs        map[int]account.MfsAccount
		promotions map[int]promotion.Record
		classes    map[int]class.Class
		sections   map[int]class.Section
		sessions   map[int]class.Session
	}
)

var _ core.TxRunner = (*DB)(nil)

func Open() *DB {
	return &DB{tables: newTables()}
}

func newTables() *tables {
	return &tables{
		users:      make(map[int]user.User),
		groups:     make(map[int]fees.Group),
		types:      make(map[int]fees.Type),
		masters:    make(map[int]fees.Master),
		students:   make(map[int]student.Student),
		entries:    make(map[int]ledger.Entry),
		payments:   make(map[int]ledger.Payment),
		banks:      make(map[int]account.BankAccount),
		mfs:        make(map[int]account.MfsAccount),
		promotions: make(map[int]promotion.Record),
		classes:    make(map[int]class.Class),
		sections:   make(map[int]class.Section),
		sessions:   make(map[int]class.Session),
	}
}

// nextID hands out primary keys; callers hold the write lock.
func (t *tables) nextID() int {
	t.seq++
	return t.seq
}

func (t *tables) clone() *tables {
	c := newTables()
	c.seq = t.seq
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.groups {
		c.groups[k] = v
	}
	for k, v := range t.types {
		c.types[k] = v
	}
	for k, v := range t.masters {
		c.masters[k] = v
	}
	for k, v := range t.students {
		c.students[k] = v
	}
	for k, v := range t.entries {
		c.entries[k] = v
	}
	for k, v := range t.payments {
		c.payments[k] = v
	}
	for k, v := range t.banks {
		c.banks[k] = v
	}
	for k, v := range t.mfs {
		c.mfs[k] = v
	}
	for k, v := range t.promotions {
		c.promotions[k] = v
	}
	for k, v := range t.classes {
		v.SectionIDs = append([]int(nil), v.SectionIDs...)
		c.classes[k] = v
	}
	for k, v := range t.sections {
		c.sections[k] = v
	}
	for k, v := range t.sessions {
		c.sessions[k] = v
	}
	return c
}

// RunInTx restores every table to its state before fn when fn fails.
// Transactions are serialized, which also stands in for row locks.
func (db *DB) RunInTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	db.RLock()
	snapshot := db.tables.clone()
	db.RUnlock()

	if err := fn(nil); err != nil {
		db.Lock()
		db.tables = snapshot
		db.Unlock()
		return err
	}
	return nil
}

// Reset drops all the data.
func (db *DB) Reset() {
	db.Lock()
	defer db.Unlock()
	db.tables = newTables()
}
