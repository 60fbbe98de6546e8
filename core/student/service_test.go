package student_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/fees"
	"github.com/trezcool/bursary/core/ledger"
	"github.com/trezcool/bursary/core/student"
	"github.com/trezcool/bursary/tests"
)

func setup(t *testing.T) (testutil.Repos, student.Service) {
	repos := testutil.OpenRepos()
	svc := student.NewService(repos.DB, repos.Students, repos.Ledger, repos.Payments, repos.Fees, repos.Classes)
	return repos, svc
}

func newStudent(admissionNo int, feesMasterIDs ...int) student.NewStudent {
	return student.NewStudent{
		Details: student.Details{
			AdmissionNo: admissionNo,
			RollNo:      admissionNo % 100,
			FirstName:   "Kofi",
			LastName:    "Mensah",
			Gender:      student.GenderMale,
			MotherName:  "Ama",
			MotherEmail: "ama@test.cd",
		},
		FeesMasterIDs: feesMasterIDs,
	}
}

func Test_service_Create(t *testing.T) {
	repos, svc := setup(t)
	ctx := context.Background()
	m1 := testutil.CreateFeesMaster(t, repos.Fees, "1000", time.Now().AddDate(0, 1, 0))
	m2 := testutil.CreateFeesMaster(t, repos.Fees, "250", time.Now().AddDate(0, 2, 0))

	t.Run("opens a ledger", func(t *testing.T) {
		detail, err := svc.Create(ctx, newStudent(101, m1.ID, m2.ID))
		require.NoError(t, err)
		assert.NotZero(t, detail.ID)
		assert.True(t, detail.IsActive)
		assert.Equal(t, core.NewDate(time.Now()), detail.AdmissionDate)
		require.Len(t, detail.Fees, 2)
		assert.Equal(t, m1.ID, detail.Fees[0].FeesMasterID)
		assert.Equal(t, m1.FeesGroupName, detail.Fees[0].Master.FeesGroupName)
		for _, e := range detail.Fees {
			assert.Equal(t, ledger.StatusUnpaid, e.Status)
			assert.True(t, e.Amount.Equal(e.RemainingAmount))
			assert.True(t, e.Fine.IsZero())
		}
	})

	t.Run("no fees", func(t *testing.T) {
		detail, err := svc.Create(ctx, newStudent(102))
		require.NoError(t, err)
		assert.Empty(t, detail.Fees)
	})

	t.Run("duplicate admission number", func(t *testing.T) {
		_, err := svc.Create(ctx, newStudent(101))
		require.True(t, core.IsValidation(err), "got %v", err)
	})

	t.Run("unknown fees master rolls back", func(t *testing.T) {
		_, err := svc.Create(ctx, newStudent(103, m1.ID, 9999))
		require.True(t, core.IsValidation(err), "got %v", err)
		verr := errors.Cause(err).(*core.ValidationError)
		assert.Equal(t, []core.FieldError{{Field: "fees_master_ids", Error: "invalid feesMasterId: 9999"}}, verr.Fields)

		stds, err := svc.Filter(ctx, student.QueryFilter{})
		require.NoError(t, err)
		assert.Len(t, stds, 2)
	})

	t.Run("placed in a class", func(t *testing.T) {
		p := testutil.CreatePlacement(t, repos.Classes)
		ns := newStudent(104)
		ns.ClassID, ns.SectionID, ns.SessionID = &p.ClassID, &p.SectionID, &p.SessionID
		detail, err := svc.Create(ctx, ns)
		require.NoError(t, err)
		assert.Equal(t, p.ClassID, *detail.ClassID)
		assert.Equal(t, p.SessionID, *detail.SessionID)
	})

	t.Run("unknown class", func(t *testing.T) {
		ns := newStudent(105)
		unknown := 9999
		ns.ClassID = &unknown
		_, err := svc.Create(ctx, ns)
		require.True(t, core.IsValidation(err), "got %v", err)
		verr := errors.Cause(err).(*core.ValidationError)
		assert.Equal(t, []core.FieldError{{Field: "class_id", Error: "class not found for ID 9999"}}, verr.Fields)

		stds, err := svc.Filter(ctx, student.QueryFilter{})
		require.NoError(t, err)
		assert.Len(t, stds, 3)
	})
}

func Test_service_GetDetail_fines(t *testing.T) {
	repos, svc := setup(t)
	ctx := context.Background()

	now := time.Now().UTC()
	mst, err := repos.Fees.CreateMaster(ctx, fees.Master{
		FeesGroupID:     testutil.CreateFeesMaster(t, repos.Fees, "1", now).FeesGroupID,
		FeesTypeID:      testutil.CreateFeesMaster(t, repos.Fees, "1", now).FeesTypeID,
		DueDate:         core.NewDate(now.AddDate(0, 0, -3)),
		Amount:          decimal.NewFromInt(1000),
		FineType:        fees.FineFixed,
		FixedFineAmount: decimal.NewFromInt(20),
		PerDay:          true,
	})
	require.NoError(t, err)

	detail, err := svc.Create(ctx, newStudent(201, mst.ID))
	require.NoError(t, err)
	require.Len(t, detail.Fees, 1)
	assert.True(t, decimal.NewFromInt(60).Equal(detail.Fees[0].Fine), "fine = %s", detail.Fees[0].Fine)

	// paid entries carry no fine
	paid, _ := detail.Fees[0].Entry.Settle(now)
	require.NoError(t, repos.Ledger.UpdateEntryBalance(ctx, paid))
	entries, err := svc.Fees(ctx, detail.ID)
	require.NoError(t, err)
	assert.True(t, entries[0].Fine.IsZero())
}

func Test_service_UpdateDelete(t *testing.T) {
	repos, svc := setup(t)
	ctx := context.Background()
	mst := testutil.CreateFeesMaster(t, repos.Fees, "1000", time.Now())

	detail, err := svc.Create(ctx, newStudent(301, mst.ID))
	require.NoError(t, err)
	other, err := svc.Create(ctx, newStudent(302))
	require.NoError(t, err)

	t.Run("update keeps the ledger", func(t *testing.T) {
		us := student.UpdateStudent{Details: newStudent(301).Details}
		us.FirstName = "Kwame"
		std, err := svc.Update(ctx, detail.ID, us)
		require.NoError(t, err)
		assert.Equal(t, "Kwame Mensah", std.FullName())

		entries, err := svc.Fees(ctx, detail.ID)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("update to a section outside the class", func(t *testing.T) {
		p := testutil.CreatePlacement(t, repos.Classes)
		elsewhere := testutil.CreatePlacement(t, repos.Classes)
		us := student.UpdateStudent{Details: newStudent(301).Details}
		us.ClassID, us.SectionID = &p.ClassID, &elsewhere.SectionID
		_, err := svc.Update(ctx, detail.ID, us)
		require.True(t, core.IsValidation(err), "got %v", err)
		verr := errors.Cause(err).(*core.ValidationError)
		assert.Equal(t, "section_id", verr.Fields[0].Field)

		std, err := svc.GetByID(ctx, detail.ID)
		require.NoError(t, err)
		assert.Nil(t, std.ClassID)
	})

	t.Run("update to a taken admission number", func(t *testing.T) {
		_, err := svc.Update(ctx, other.ID, student.UpdateStudent{Details: newStudent(301).Details})
		assert.True(t, core.IsValidation(err), "got %v", err)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := svc.Update(ctx, 9999, student.UpdateStudent{Details: newStudent(399).Details})
		assert.True(t, core.IsNotFound(err), "got %v", err)
		_, err = svc.Payments(ctx, 9999)
		assert.True(t, core.IsNotFound(err), "got %v", err)
	})

	t.Run("delete cascades", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, detail.ID))
		_, err := svc.GetByID(ctx, detail.ID)
		assert.True(t, core.IsNotFound(err))

		entries, err := repos.Ledger.QueryEntriesByStudent(ctx, detail.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)

		assert.True(t, core.IsNotFound(svc.Delete(ctx, detail.ID)))
	})
}

func TestStudent_GuardianAddress(t *testing.T) {
	tests := []struct {
		name string
		std  student.Student
		want string
		ok   bool
	}{
		{name: "father first", std: student.Student{FatherEmail: "f@test.cd", MotherEmail: "m@test.cd", Email: "s@test.cd"}, want: "f@test.cd", ok: true},
		{name: "then mother", std: student.Student{MotherEmail: "m@test.cd", Email: "s@test.cd"}, want: "m@test.cd", ok: true},
		{name: "then student", std: student.Student{Email: "s@test.cd"}, want: "s@test.cd", ok: true},
		{name: "nobody", std: student.Student{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, ok := tt.std.GuardianAddress()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, addr.Address)
		})
	}
}
