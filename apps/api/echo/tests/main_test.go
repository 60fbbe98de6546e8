package tests

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bursary/apps/api/echo"
	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/account"
	"github.com/trezcool/bursary/core/class"
	"github.com/trezcool/bursary/core/collection"
	"github.com/trezcool/bursary/core/fees"
	"github.com/trezcool/bursary/core/promotion"
	"github.com/trezcool/bursary/core/student"
	"github.com/trezcool/bursary/core/user"
	"github.com/trezcool/bursary/services/email"
	"github.com/trezcool/bursary/services/logger"
	"github.com/trezcool/bursary/tests"
)

var (
	conf    *core.Config
	repos   testutil.Repos
	mailSvc *emailsvc.ConsoleServiceMock
	app     *echoapi.Server

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errForbidden    = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf = core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)

	// set up DB & repos
	repos = testutil.OpenRepos()

	// set up services
	mailSvc = emailsvc.NewConsoleServiceMock(conf, logger)
	validate, translator := testutil.NewValidator()

	// set up server
	app = echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       user.NewService(repos.Users),
		FeesSvc:       fees.NewService(repos.Fees),
		ClassSvc:      class.NewService(repos.DB, repos.Classes),
		StudentSvc:    student.NewService(repos.DB, repos.Students, repos.Ledger, repos.Payments, repos.Fees, repos.Classes),
		AccountSvc:    account.NewService(repos.Accounts, repos.Payments),
		CollectionSvc: collection.NewService(conf, logger, repos.DB, repos.Ledger, repos.Payments, repos.Students, repos.Accounts, mailSvc),
		PromotionSvc:  promotion.NewService(repos.DB, repos.Promotion, repos.Students, repos.Ledger, repos.Fees, repos.Classes),

		DisableReqLogs: true,
	})

	// run tests
	os.Exit(m.Run())
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func serve(method, path, token string, data ...[]byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, data...)
	app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	token, err := echoapi.GenerateToken(conf, usr)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

// staff creates an active user holding role and returns them with a token.
func staff(t *testing.T, uname, role string) (user.User, string) {
	usr := testutil.CreateUser(t, repos.Users, uname, uname, uname+"@test.cd", "", []string{role}, true)
	return usr, getToken(t, usr)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, into interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), into); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	assert.Equal(t, tt.wantCode, rec.Code, "body: %s", rec.Body.String())
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
