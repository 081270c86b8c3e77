package api

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stretchr/testify/require"

	"scholarship/internal/auth"
	"scholarship/internal/host"
	"scholarship/internal/ledger"
	"scholarship/internal/models"
	"scholarship/internal/storage"
)

const testContractID = "CSCHOLARSHIPAPI"

type testAPI struct {
	t       *testing.T
	handler http.Handler
	clock   *host.ManualClock
	admin   *keypair.Full
	nonce   uint64
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	clock := host.NewManualClock(1_700_000_000)
	h := host.New(storage.NewMemoryBackend(), clock, host.Config{
		ContractID:        testContractID,
		NetworkPassphrase: network.TestNetworkPassphrase,
		TemporaryTTL:      time.Hour,
	})
	srv := NewServer(0, ledger.NewClient(h))

	return &testAPI{
		t:       t,
		handler: srv.Handler(),
		clock:   clock,
		admin:   keypair.MustRandom(),
	}
}

func (a *testAPI) do(method, path string, body []byte) *httptest.ResponseRecorder {
	a.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) envelope() ledger.Envelope {
	a.nonce++
	return ledger.Envelope{
		ContractID: testContractID,
		Nonce:      a.nonce,
		ValidUntil: a.clock.Timestamp() + 300,
	}
}

func (a *testAPI) invokeBody(inv auth.Invocation, signer *keypair.Full) []byte {
	a.t.Helper()
	sig, err := auth.Sign(signer, network.TestNetworkPassphrase, inv)
	require.NoError(a.t, err)
	req, err := models.NewInvokeRequest(inv, sig)
	require.NoError(a.t, err)
	body, err := json.Marshal(req)
	require.NoError(a.t, err)
	return body
}

func (a *testAPI) initialize() {
	a.t.Helper()
	inv, err := ledger.InitializeInvocation(a.envelope(), a.admin.Address())
	require.NoError(a.t, err)
	rec := a.do(http.MethodPost, "/invoke", a.invokeBody(inv, a.admin))
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
}

func (a *testAPI) release(student string, amount int64) *httptest.ResponseRecorder {
	a.t.Helper()
	inv, err := ledger.ReleaseScholarshipInvocation(a.envelope(), a.admin.Address(), student, big.NewInt(amount))
	require.NoError(a.t, err)
	return a.do(http.MethodPost, "/invoke", a.invokeBody(inv, a.admin))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestIndexAndHealth(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	info := decode[map[string]interface{}](t, rec)
	require.Equal(t, ledger.Description, info["description"])
	require.Equal(t, testContractID, info["contract_id"])

	rec = a.do(http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "healthy")

	rec = a.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(http.MethodGet, "/nope", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(http.MethodGet, "/stats", nil)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/scholarships/abc", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)

	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	require.Equal(t, "req-123", decode[models.ErrorResponse](t, rec).RequestID)
}

func TestContractLifecycle(t *testing.T) {
	a := newTestAPI(t)
	s1 := keypair.MustRandom().Address()
	s2 := keypair.MustRandom().Address()

	contract := decode[models.ContractResponse](t, a.do(http.MethodGet, "/contract", nil))
	require.False(t, contract.Initialized)
	require.Nil(t, contract.Admin)

	a.initialize()

	contract = decode[models.ContractResponse](t, a.do(http.MethodGet, "/contract", nil))
	require.True(t, contract.Initialized)
	require.NotNil(t, contract.Admin)
	require.Equal(t, a.admin.Address(), *contract.Admin)

	for i, tc := range []struct {
		student string
		amount  int64
	}{{s1, 1000}, {s2, 1500}, {s1, 500}} {
		rec := a.release(tc.student, tc.amount)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[models.InvokeResponse](t, rec)
		require.NotNil(t, resp.ScholarshipID)
		require.Equal(t, uint64(i+1), *resp.ScholarshipID)
	}

	stats := decode[models.ContractStatsResponse](t, a.do(http.MethodGet, "/stats", nil))
	require.Equal(t, models.ContractStatsResponse{
		TotalDisbursed:    "3000",
		TotalStudents:     2,
		TotalScholarships: 3,
		LastScholarshipID: 3,
	}, stats)

	total := decode[models.AmountResponse](t, a.do(http.MethodGet, "/stats/total-disbursed", nil))
	require.Equal(t, "3000", total.Amount)

	amount := decode[models.AmountResponse](t, a.do(http.MethodGet, "/students/"+s1+"/amount", nil))
	require.Equal(t, "1500", amount.Amount)

	count := decode[models.CountResponse](t, a.do(http.MethodGet, "/students/"+s1+"/scholarship-count", nil))
	require.Equal(t, uint32(2), count.Count)

	profile := decode[models.StudentProfileResponse](t, a.do(http.MethodGet, "/students/"+s2, nil))
	require.Equal(t, "1500", profile.TotalReceived)
	require.Equal(t, uint32(1), profile.ScholarshipCount)
	require.NotNil(t, profile.LastScholarshipAt)

	record := decode[models.ScholarshipRecordResponse](t, a.do(http.MethodGet, "/scholarships/2", nil))
	require.Equal(t, s2, record.Student)
	require.Equal(t, "1500", record.Amount)

	rec := a.do(http.MethodGet, "/scholarships/recent?count=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decode[struct {
		Count        uint32                             `json:"count"`
		Scholarships []models.ScholarshipRecordResponse `json:"scholarships"`
	}](t, rec)
	require.Len(t, recent.Scholarships, 2)
	require.Equal(t, uint64(2), recent.Scholarships[0].ScholarshipID)
	require.Equal(t, uint64(3), recent.Scholarships[1].ScholarshipID)

	activity := decode[models.LastActivityResponse](t, a.do(http.MethodGet, "/last-activity", nil))
	require.Equal(t, a.clock.Timestamp(), activity.Timestamp)
}

func TestQueryNotFoundAndBadInput(t *testing.T) {
	a := newTestAPI(t)
	a.initialize()
	stranger := keypair.MustRandom().Address()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"absent profile", "/students/" + stranger, http.StatusNotFound},
		{"absent record", "/scholarships/99", http.StatusNotFound},
		{"no activity yet", "/last-activity", http.StatusNotFound},
		{"bad id", "/scholarships/abc", http.StatusBadRequest},
		{"bad count", "/scholarships/recent?count=-1", http.StatusBadRequest},
		{"count over limit", "/scholarships/recent?count=101", http.StatusBadRequest},
		{"bad address", "/students/not-an-address/amount", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(http.MethodGet, tt.path, nil)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	amount := decode[models.AmountResponse](t, a.do(http.MethodGet, "/students/"+stranger+"/amount", nil))
	require.Equal(t, "0", amount.Amount)

	rec := a.do(http.MethodGet, "/students/not-an-address", nil)
	require.Equal(t, ledger.ErrorCode(ledger.ErrInvalidAddress), decode[models.ErrorResponse](t, rec).Code)
}

func TestInvokeErrors(t *testing.T) {
	a := newTestAPI(t)
	student := keypair.MustRandom().Address()

	rec := a.release(student, 10)
	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	require.Equal(t, 2, decode[models.ErrorResponse](t, rec).Code)

	a.initialize()

	inv, err := ledger.InitializeInvocation(a.envelope(), a.admin.Address())
	require.NoError(t, err)
	rec = a.do(http.MethodPost, "/invoke", a.invokeBody(inv, a.admin))
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = a.release(student, 0)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 5, decode[models.ErrorResponse](t, rec).Code)

	// signed correctly, but by someone who is not the admin
	outsider := keypair.MustRandom()
	inv, err = ledger.ReleaseScholarshipInvocation(a.envelope(), outsider.Address(), student, big.NewInt(10))
	require.NoError(t, err)
	rec = a.do(http.MethodPost, "/invoke", a.invokeBody(inv, outsider))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, 4, decode[models.ErrorResponse](t, rec).Code)

	// replay of an applied envelope
	inv, err = ledger.ReleaseScholarshipInvocation(a.envelope(), a.admin.Address(), student, big.NewInt(10))
	require.NoError(t, err)
	body := a.invokeBody(inv, a.admin)
	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/invoke", body).Code)
	rec = a.do(http.MethodPost, "/invoke", body)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, 3, decode[models.ErrorResponse](t, rec).Code)
}

func TestInvokeRejectsMalformedRequests(t *testing.T) {
	a := newTestAPI(t)
	valid := models.InvokeRequest{
		ContractID: testContractID,
		Function:   ledger.FnInitialize,
		Args:       []string{},
		Nonce:      1,
		ValidUntil: a.clock.Timestamp() + 60,
		Signatures: []auth.Signature{{Address: a.admin.Address(), Signature: []byte{1, 2, 3}}},
	}

	tests := []struct {
		name   string
		mutate func(r *models.InvokeRequest)
	}{
		{"unknown function", func(r *models.InvokeRequest) { r.Function = "withdraw" }},
		{"no signatures", func(r *models.InvokeRequest) { r.Signatures = nil }},
		{"missing contract", func(r *models.InvokeRequest) { r.ContractID = "" }},
		{"missing validity", func(r *models.InvokeRequest) { r.ValidUntil = 0 }},
		{"argument not base64", func(r *models.InvokeRequest) { r.Args = []string{"%%%"} }},
		{"argument not xdr", func(r *models.InvokeRequest) { r.Args = []string{"AAAA"} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			body, err := json.Marshal(req)
			require.NoError(t, err)

			rec := a.do(http.MethodPost, "/invoke", body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := a.do(http.MethodPost, "/invoke", []byte("{not json"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodGet, "/invoke", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	require.True(t, strings.Contains(rec.Header().Get("Allow"), http.MethodPost))
}
