package tests

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursary/core/class"
	"github.com/trezcool/bursary/core/user"
	"github.com/trezcool/bursary/tests"
)

func Test_classApi(t *testing.T) {
	testutil.ResetDB(t, repos.DB)

	_, principalToken := staff(t, "principal", user.RoleAdminPrincipal)
	_, accToken := staff(t, "cashier", user.RoleAdminAccountant)
	_, teacherToken := staff(t, "teacher", user.RoleTeacher)

	var (
		sec  class.Section
		cls  class.Class
		sess class.Session
	)
	t.Run("create", func(t *testing.T) {
		rec := serve(http.MethodPost, "/v1/sections", principalToken, marchallObj(t, class.SectionInput{Name: " A "}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &sec)
		assert.Equal(t, "A", sec.Name)

		rec = serve(http.MethodPost, "/v1/classes", principalToken, marchallObj(t, class.ClassInput{
			Name: "Class One", Code: "ONE", SectionIDs: []int{sec.ID},
		}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &cls)
		assert.Equal(t, "one", cls.Code)
		assert.Equal(t, []int{sec.ID}, cls.SectionIDs)

		rec = serve(http.MethodPost, "/v1/sessions", principalToken, []byte(`{"name": "2024", "start_date": "2024-01-01", "end_date": "2024-12-31"}`))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		unmarshal(t, rec, &sess)
		assert.Equal(t, "2024-12-31", sess.EndDate.String())
	})

	classPath := "/v1/classes/" + strconv.Itoa(cls.ID)

	runHTTPTests(t, []httpTest{
		{name: "auth required", method: http.MethodGet, path: "/v1/classes", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "teacher can view", method: http.MethodGet, path: classPath, token: teacherToken},
		{
			name: "accountant cannot manage", method: http.MethodPost, path: "/v1/sections", token: accToken,
			body: marchallObj(t, class.SectionInput{Name: "B"}), wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "duplicate code", method: http.MethodPost, path: "/v1/classes", token: principalToken,
			body:     marchallObj(t, class.ClassInput{Name: "Other", Code: "one"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"code": class.ErrClassExists.Error()}),
		},
		{
			name: "unknown section", method: http.MethodPost, path: "/v1/classes", token: principalToken,
			body:     marchallObj(t, class.ClassInput{Name: "Other", SectionIDs: []int{9999}}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"section_ids": "section not found for ID 9999"}),
		},
		{
			name: "session dates", method: http.MethodPost, path: "/v1/sessions", token: principalToken,
			body:     []byte(`{"name": "2025", "start_date": "2025-12-31", "end_date": "2025-01-01"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"end_date": class.ErrInvalidSessionDates.Error()}),
		},
		{name: "unknown class", method: http.MethodGet, path: "/v1/classes/9999", token: teacherToken, wantCode: http.StatusNotFound},
		{name: "bad section filter", method: http.MethodGet, path: "/v1/sections?class_id=abc", token: teacherToken, wantCode: http.StatusBadRequest},
	})

	t.Run("sections of a class", func(t *testing.T) {
		for _, path := range []string{classPath + "/sections", "/v1/sections?class_id=" + strconv.Itoa(cls.ID)} {
			rec := serve(http.MethodGet, path, teacherToken)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			var secs []class.Section
			unmarshal(t, rec, &secs)
			require.Len(t, secs, 1, path)
			assert.Equal(t, sec.ID, secs[0].ID)
		}
	})

	t.Run("students must sit in a known class", func(t *testing.T) {
		body := []byte(`{"admission_no": 700, "roll_no": 1, "first_name": "Zara", "gender": "female", "class_id": ` +
			strconv.Itoa(cls.ID) + `, "section_id": 9999}`)
		rec := serve(http.MethodPost, "/v1/students", principalToken, body)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"section_id": "section not found for ID 9999"}),
		}, rec)

		body = []byte(`{"admission_no": 700, "roll_no": 1, "first_name": "Zara", "gender": "female", "class_id": ` +
			strconv.Itoa(cls.ID) + `, "section_id": ` + strconv.Itoa(sec.ID) + `, "session_id": ` + strconv.Itoa(sess.ID) + `}`)
		rec = serve(http.MethodPost, "/v1/students", principalToken, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		// the class now has a student
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"id": class.ErrInUse.Error()}),
		}, serve(http.MethodDelete, classPath, principalToken))
	})

	t.Run("update & delete", func(t *testing.T) {
		rec := serve(http.MethodPost, "/v1/classes", principalToken, marchallObj(t, class.ClassInput{Name: "Spare"}))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var spare class.Class
		unmarshal(t, rec, &spare)
		path := "/v1/classes/" + strconv.Itoa(spare.ID)

		rec = serve(http.MethodPut, path, principalToken, marchallObj(t, class.ClassInput{Name: "Spare", SectionIDs: []int{sec.ID}}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		unmarshal(t, rec, &spare)
		assert.Equal(t, []int{sec.ID}, spare.SectionIDs)
		assert.True(t, spare.IsActive)

		assert.Equal(t, http.StatusNoContent, serve(http.MethodDelete, path, principalToken).Code)
		assert.Equal(t, http.StatusNotFound, serve(http.MethodGet, path, principalToken).Code)
	})
}
