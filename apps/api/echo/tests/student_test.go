package tests

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursary/core/ledger"
	"github.com/trezcool/bursary/core/student"
	"github.com/trezcool/bursary/core/user"
	"github.com/trezcool/bursary/tests"
)

func newStudentBody(t *testing.T, admissionNo int, first string, masterIDs ...int) []byte {
	return marchallObj(t, student.NewStudent{
		Details: student.Details{
			AdmissionNo: admissionNo,
			RollNo:      admissionNo % 100,
			FirstName:   first,
			LastName:    "Okafor",
			Gender:      student.GenderFemale,
			FatherEmail: "dad@test.cd",
		},
		FeesMasterIDs: masterIDs,
	})
}

func Test_studentApi(t *testing.T) {
	testutil.ResetDB(t, repos.DB)

	_, principalToken := staff(t, "principal", user.RoleAdminPrincipal)
	_, accToken := staff(t, "cashier", user.RoleAdminAccountant)
	_, teacherToken := staff(t, "teacher", user.RoleTeacher)

	m1 := testutil.CreateFeesMaster(t, repos.Fees, "700", time.Now().AddDate(0, 1, 0))
	m2 := testutil.CreateFeesMaster(t, repos.Fees, "300", time.Now().AddDate(0, 2, 0))

	var detail student.Detail
	t.Run("admitted with a ledger", func(t *testing.T) {
		rec := serve(http.MethodPost, "/v1/students", principalToken, newStudentBody(t, 501, "Ngozi", m1.ID, m2.ID))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &detail)
		assert.Equal(t, "Ngozi", detail.FirstName)
		assert.True(t, detail.IsActive)
		require.Len(t, detail.Fees, 2)
		assert.Equal(t, m1.ID, detail.Fees[0].FeesMasterID)
		assert.Equal(t, ledger.StatusUnpaid, detail.Fees[0].Status)
		assert.True(t, decimal.NewFromInt(700).Equal(detail.Fees[0].RemainingAmount))
	})

	path := "/v1/students/" + strconv.Itoa(detail.ID)

	runHTTPTests(t, []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "accountant cannot admit", method: http.MethodPost, path: "/v1/students", token: accToken,
			body: newStudentBody(t, 502, "Chidi"), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "duplicate admission number", method: http.MethodPost, path: "/v1/students", token: principalToken,
			body:     newStudentBody(t, 501, "Chidi"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"admission_no": student.ErrAdmissionNoExists.Error()}),
		},
		{
			name: "unknown fees master", method: http.MethodPost, path: "/v1/students", token: principalToken,
			body:     newStudentBody(t, 503, "Chidi", 9999),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"fees_master_ids": "invalid feesMasterId: 9999"}),
		},
		{name: "missing fields", method: http.MethodPost, path: "/v1/students", token: principalToken, body: []byte(`{}`), wantCode: http.StatusBadRequest},
		{name: "teacher can view", method: http.MethodGet, path: path, token: teacherToken},
		{name: "teacher cannot view fees", method: http.MethodGet, path: path + "/fees", token: teacherToken, wantCode: http.StatusForbidden},
		{name: "unknown student", method: http.MethodGet, path: "/v1/students/9999", token: teacherToken, wantCode: http.StatusNotFound},
		{name: "no payments yet", method: http.MethodGet, path: path + "/payments", token: accToken, wantData: []byte("[]")},
	})

	t.Run("search", func(t *testing.T) {
		rec := serve(http.MethodGet, "/v1/students?search=ngo", teacherToken)
		require.Equal(t, http.StatusOK, rec.Code)
		var stds []student.Student
		unmarshal(t, rec, &stds)
		require.Len(t, stds, 1)
		assert.Equal(t, detail.ID, stds[0].ID)
	})

	t.Run("fees", func(t *testing.T) {
		rec := serve(http.MethodGet, path+"/fees", accToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var entries []ledger.EntryDetail
		unmarshal(t, rec, &entries)
		require.Len(t, entries, 2)
		assert.Equal(t, m2.FeesTypeName, entries[1].Master.FeesTypeName)
		assert.True(t, entries[1].Fine.IsZero())
	})

	t.Run("update", func(t *testing.T) {
		body := marchallObj(t, student.UpdateStudent{Details: student.Details{
			AdmissionNo: 501, RollNo: 7, FirstName: "Ngozi", LastName: "Eze", Gender: student.GenderFemale,
		}})
		rec := serve(http.MethodPut, path, principalToken, body)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var std student.Student
		unmarshal(t, rec, &std)
		assert.Equal(t, "Ngozi Eze", std.FullName())
		assert.Equal(t, 7, std.RollNo)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, serve(http.MethodDelete, path, accToken).Code)
		assert.Equal(t, http.StatusNoContent, serve(http.MethodDelete, path, principalToken).Code)
		assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, path, principalToken).Code)
	})
}
