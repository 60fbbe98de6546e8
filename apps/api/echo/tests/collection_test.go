package tests

import (
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursary/core/collection"
	"github.com/trezcool/bursary/core/ledger"
	"github.com/trezcool/bursary/core/user"
	"github.com/trezcool/bursary/tests"
)

const collectPath = "/v1/student-fees/collect"

type collectReq struct {
	LedgerEntryID int    `json:"student_fees_id"`
	StudentID     int    `json:"student_id,omitempty"`
	PaymentType   string `json:"payment_type"`
	PaidAmount    string `json:"paid_amount,omitempty"`
	Method        string `json:"method"`
	PaymentDate   string `json:"payment_date,omitempty"`
}

func Test_collectionApi_collect(t *testing.T) {
	testutil.ResetDB(t, repos.DB)
	mailSvc.Reset()

	_, token := staff(t, "cashier", user.RoleAdminAccountant)
	_, principalToken := staff(t, "principal", user.RoleAdminPrincipal)

	mst := testutil.CreateFeesMaster(t, repos.Fees, "1000", time.Now().AddDate(0, 1, 0))
	std := testutil.CreateStudent(t, repos.Students, "Amina", 1)
	entry := testutil.OpenLedger(t, repos, std.ID, mst)[0]

	runHTTPTests(t, []httpTest{
		{name: "auth required", method: http.MethodPost, path: collectPath, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "capability required", method: http.MethodPost, path: collectPath, token: principalToken,
			body:     marchallObj(t, collectReq{LedgerEntryID: entry.ID, PaymentType: "Paid", Method: "cash"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "empty body", method: http.MethodPost, path: collectPath, token: token,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: collection.ErrEmptyBatch.Error()}),
		},
		{
			name: "empty array", method: http.MethodPost, path: collectPath, token: token, body: []byte("[]"),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: collection.ErrEmptyBatch.Error()}),
		},
		{name: "malformed body", method: http.MethodPost, path: collectPath, token: token, body: []byte("{lol"), wantCode: http.StatusBadRequest},
		{
			name: "invalid payment type", method: http.MethodPost, path: collectPath, token: token,
			body:     marchallObj(t, collectReq{LedgerEntryID: entry.ID, PaymentType: "Half", Method: "cash"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"payment_type": "payment type must be either Paid or Partial"}),
		},
		{
			name: "unknown entry", method: http.MethodPost, path: collectPath, token: token,
			body:     marchallObj(t, collectReq{LedgerEntryID: 9999, PaymentType: "Paid", Method: "cash"}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "student fee record not found for ID 9999"}),
		},
		{
			name: "overpayment", method: http.MethodPost, path: collectPath, token: token,
			body:     marchallObj(t, collectReq{LedgerEntryID: entry.ID, PaymentType: "Partial", PaidAmount: "1000.01", Method: "cash"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"paid_amount": ledger.ErrOverpayment.Error()}),
		},
	})
	assert.Empty(t, mailSvc.SentMessages())

	t.Run("object in, object out", func(t *testing.T) {
		rec := serve(http.MethodPost, collectPath, token, marchallObj(t, collectReq{
			LedgerEntryID: entry.ID, PaymentType: "Partial", PaidAmount: "400", Method: "CASH", PaymentDate: "2021-03-05",
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res collection.Result
		unmarshal(t, rec, &res)
		assert.Equal(t, entry.ID, res.LedgerEntryID)
		assert.Equal(t, ledger.StatusPartial, res.Status)
		assert.True(t, decimal.NewFromInt(400).Equal(res.PaidAmount))
		assert.True(t, decimal.NewFromInt(600).Equal(res.RemainingAmount))
		assert.NotEmpty(t, res.ReceiptNo)
	})

	t.Run("array in, array out", func(t *testing.T) {
		rec := serve(http.MethodPost, collectPath, token, marchallObj(t, []collectReq{
			{LedgerEntryID: entry.ID, PaymentType: "Partial", PaidAmount: "100", Method: "cash"},
			{LedgerEntryID: entry.ID, PaymentType: "Paid", Method: "cash"},
		}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res []collection.Result
		unmarshal(t, rec, &res)
		require.Len(t, res, 2)
		assert.Equal(t, ledger.StatusPartial, res[0].Status)
		assert.Equal(t, ledger.StatusPaid, res[1].Status)
		assert.True(t, res[1].RemainingAmount.IsZero())
	})

	t.Run("payments recorded", func(t *testing.T) {
		rec := serve(http.MethodGet, "/v1/students/"+strconv.Itoa(std.ID)+"/payments", token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var pmts []ledger.Payment
		unmarshal(t, rec, &pmts)
		require.Len(t, pmts, 3)
		assert.Equal(t, "2021-03-05", pmts[0].PaymentDate.String())
		assert.True(t, decimal.NewFromInt(500).Equal(pmts[2].PaidAmount), "settlement records the remainder")
		for _, p := range pmts {
			assert.Equal(t, ledger.MethodCash, p.Method)
			assert.NotNil(t, p.CreatedBy)
		}
	})

	t.Run("receipts sent", func(t *testing.T) {
		sent := mailSvc.SentMessages()
		require.Len(t, sent, 2, "one per collect call")
		assert.Equal(t, "father1@test.cd", sent[0].To[0].Address)
	})

	t.Run("settle again", func(t *testing.T) {
		rec := serve(http.MethodPost, collectPath, token, marchallObj(t, collectReq{LedgerEntryID: entry.ID, PaymentType: "Paid", Method: "cash"}))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res collection.Result
		unmarshal(t, rec, &res)
		assert.Equal(t, ledger.StatusPaid, res.Status)
		assert.True(t, decimal.NewFromInt(1000).Equal(res.PaidAmount))
		assert.True(t, res.RemainingAmount.IsZero())
	})

	t.Run("sub-cent amount", func(t *testing.T) {
		other := testutil.OpenLedger(t, repos, std.ID, mst)[0]
		rec := serve(http.MethodPost, collectPath, token, marchallObj(t, collectReq{
			LedgerEntryID: other.ID, PaymentType: "Partial", PaidAmount: "0.001", Method: "cash",
		}))
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"paid_amount": ledger.ErrAmountScale.Error()}),
		}, rec)
		assert.Equal(t, ledger.StatusUnpaid, testutil.GetEntry(t, repos.Ledger, other.ID).Status)
	})
}

func Test_collectionApi_collect_rollback(t *testing.T) {
	testutil.ResetDB(t, repos.DB)

	_, token := staff(t, "cashier", user.RoleAdminAccountant)
	mst := testutil.CreateFeesMaster(t, repos.Fees, "500", time.Now())
	e1 := testutil.OpenLedger(t, repos, testutil.CreateStudent(t, repos.Students, "Ali", 1).ID, mst)[0]
	e2 := testutil.OpenLedger(t, repos, testutil.CreateStudent(t, repos.Students, "Ben", 2).ID, mst)[0]

	rec := serve(http.MethodPost, collectPath, token, marchallObj(t, []collectReq{
		{LedgerEntryID: e1.ID, PaymentType: "Paid", Method: "cash"},
		{LedgerEntryID: e2.ID, PaymentType: "Partial", PaidAmount: "501", Method: "cash"},
	}))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"[1].paid_amount": ledger.ErrOverpayment.Error()}),
	}, rec)

	assert.Equal(t, ledger.StatusUnpaid, testutil.GetEntry(t, repos.Ledger, e1.ID).Status)
	assert.Equal(t, ledger.StatusUnpaid, testutil.GetEntry(t, repos.Ledger, e2.ID).Status)

	// field errors name the item too
	rec = serve(http.MethodPost, collectPath, token, marchallObj(t, []collectReq{
		{LedgerEntryID: e1.ID, PaymentType: "Paid", Method: "cash"},
		{LedgerEntryID: e2.ID, PaymentType: "Paid", Method: "cheque"},
	}))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"[1].method": "method must be one of cash, bank, bkash, nagad or rocket"}),
	}, rec)
}
