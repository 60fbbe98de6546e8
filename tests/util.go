package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/account"
	"github.com/trezcool/bursary/core/class"
	"github.com/trezcool/bursary/core/collection"
	"github.com/trezcool/bursary/core/fees"
	"github.com/trezcool/bursary/core/ledger"
	"github.com/trezcool/bursary/core/promotion"
	"github.com/trezcool/bursary/core/student"
	"github.com/trezcool/bursary/core/user"
	"github.com/trezcool/bursary/storage/database/dummy"
)

var seq int64

func next() int {
	return int(atomic.AddInt64(&seq, 1))
}

// Repos bundles the dummy repositories sharing one in-memory DB.
type Repos struct {
	DB        *dummydb.DB
	Users     user.Repository
	Fees      fees.Repository
	Students  student.Repository
	Ledger    ledger.Repository
	Payments  ledger.PaymentRepository
	Accounts  account.Repository
	Promotion promotion.Repository
	Classes   class.Repository
}

func OpenRepos() Repos {
	db := dummydb.Open()
	return Repos{
		DB:        db,
		Users:     dummydb.NewUserRepository(db),
		Fees:      dummydb.NewFeesRepository(db),
		Students:  dummydb.NewStudentRepository(db),
		Ledger:    dummydb.NewLedgerRepository(db),
		Payments:  dummydb.NewPaymentRepository(db),
		Accounts:  dummydb.NewAccountRepository(db),
		Promotion: dummydb.NewPromotionRepository(db),
		Classes:   dummydb.NewClassRepository(db),
	}
}

func ResetDB(t *testing.T, db *dummydb.DB) {
	t.Helper()
	db.Reset()
}

// NewValidator returns a validator with every custom rule & translation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")

	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	fees.InitValidators(validate, translator)
	account.InitValidators(validate, translator)
	collection.InitValidators(validate, translator)
	promotion.InitValidators(validate, translator)
	return validate, translator
}

func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Dec(%q) failed: %v", s, err)
	}
	return d
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateFeesMaster creates a fees master, along with a fresh group & type, owing amount by due.
func CreateFeesMaster(t *testing.T, repo fees.Repository, amount string, due time.Time) fees.Master {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	n := next()

	grp, err := repo.CreateGroup(ctx, fees.Group{Name: fmt.Sprintf("Group %d", n), CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreateFeesMaster() failed: %v", err)
	}
	typ, err := repo.CreateType(ctx, fees.Type{Name: fmt.Sprintf("Type %d", n), Code: fmt.Sprintf("type_%d", n), CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreateFeesMaster() failed: %v", err)
	}
	mst, err := repo.CreateMaster(ctx, fees.Master{
		FeesGroupID: grp.ID,
		FeesTypeID:  typ.ID,
		DueDate:     core.NewDate(due),
		Amount:      Dec(t, amount),
		FineType:    fees.FineNone,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateFeesMaster() failed: %v", err)
	}
	mst, err = repo.GetMasterByID(ctx, mst.ID)
	if err != nil {
		t.Fatalf("CreateFeesMaster() failed: %v", err)
	}
	return mst
}

// CreatePlacement creates a class teaching one fresh section, plus a session.
func CreatePlacement(t *testing.T, repo class.Repository) class.Placement {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	n := next()

	sec, err := repo.CreateSection(ctx, class.Section{Name: fmt.Sprintf("Section %d", n), IsActive: true, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		t.Fatalf("CreatePlacement() failed: %v", err)
	}
	cls, err := repo.CreateClass(ctx, class.Class{
		Name:       fmt.Sprintf("Class %d", n),
		Code:       fmt.Sprintf("class_%d", n),
		IsActive:   true,
		SectionIDs: []int{sec.ID},
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		t.Fatalf("CreatePlacement() failed: %v", err)
	}
	start := time.Date(2020+n%50, time.January, 1, 0, 0, 0, 0, time.UTC)
	sess, err := repo.CreateSession(ctx, class.Session{
		Name:      fmt.Sprintf("Session %d", n),
		StartDate: core.NewDate(start),
		EndDate:   core.NewDate(start.AddDate(1, 0, -1)),
		IsActive:  true,
		CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreatePlacement() failed: %v", err)
	}
	return class.Placement{ClassID: cls.ID, SectionID: sec.ID, SessionID: sess.ID}
}

// CreateStudent admits a student in class 1, section 1, session 1 with a guardian email.
func CreateStudent(t *testing.T, repo student.Repository, firstName string, rollNo int) student.Student {
	t.Helper()
	now := time.Now().UTC()
	classID, sectionID, sessionID := 1, 1, 1
	std, err := repo.CreateStudent(context.Background(), student.Student{
		AdmissionNo:   1000 + next(),
		RollNo:        rollNo,
		ClassID:       &classID,
		SectionID:     &sectionID,
		SessionID:     &sessionID,
		FirstName:     firstName,
		LastName:      "Test",
		Gender:        student.GenderFemale,
		AdmissionDate: core.NewDate(now),
		IsActive:      true,
		FatherName:    "Father of " + firstName,
		FatherEmail:   fmt.Sprintf("father%d@test.cd", rollNo),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

// OpenLedger opens one Unpaid entry per master for the student.
func OpenLedger(t *testing.T, repos Repos, studentID int, masters ...fees.Master) []ledger.Entry {
	t.Helper()
	ids := make([]int, 0, len(masters))
	for _, m := range masters {
		ids = append(ids, m.ID)
	}
	entries, err := student.OpenLedger(context.Background(), repos.Fees, repos.Ledger, studentID, ids, time.Now().UTC(), nil)
	if err != nil {
		t.Fatalf("OpenLedger() failed: %v", err)
	}
	return entries
}

func GetEntry(t *testing.T, repo ledger.Repository, id int) ledger.Entry {
	t.Helper()
	e, err := repo.GetEntryByID(context.Background(), id)
	if err != nil {
		t.Fatalf("GetEntry() failed: %v", err)
	}
	return e
}
