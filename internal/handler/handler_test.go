package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
	"github.com/iliyamo/atom-referral-tracker/internal/handler"
	"github.com/iliyamo/atom-referral-tracker/internal/notify"
	"github.com/iliyamo/atom-referral-tracker/internal/router"
	"github.com/iliyamo/atom-referral-tracker/internal/service"
)

const adminKey = "admin-secret"

type discard struct{}

func (discard) Notify(context.Context, notify.Message) error { return nil }

func newServer(t *testing.T) *echo.Echo {
	t.Helper()
	disp := notify.NewDispatcher(discard{}, time.Second)
	t.Cleanup(disp.Wait)
	svc := service.New(docstore.NewMemoryStore(), disp, service.Options{
		AdminKey:     adminKey,
		AdminEmail:   "admin@atom.test",
		JWTSecret:    "jwt-secret",
		AccessTTLMin: 60,
		BcryptCost:   4,
		UPIPayeeVPA:  "atom@upi",
		UPIPayeeName: "Atom Studio",
	})
	e := echo.New()
	e.HTTPErrorHandler = handler.HTTPErrorHandler
	router.RegisterRoutes(e)
	router.RegisterAPI(e, handler.New(svc), router.Deps{JWTSecret: "jwt-secret"})
	return e
}

func call(t *testing.T, e *echo.Echo, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var payload string
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		payload = string(raw)
	}
	req := httptest.NewRequest(method, path, strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

// onboard creates a referrer, a referred client and logs the client in.
func onboard(t *testing.T, e *echo.Echo) (code, token string) {
	t.Helper()
	status, body := call(t, e, http.MethodPost, "/api/generateReferralCode", "", map[string]any{
		"email": "ref@x.com", "phone": "9876543210", "upiId": "ref@okaxis", "password": "abc123",
	})
	require.Equal(t, http.StatusCreated, status, body)
	code = body["referralCode"].(string)

	status, body = call(t, e, http.MethodPost, "/api/clientSignup", "", map[string]any{
		"referralCode": code, "name": "Client", "email": "c@y.com", "phone": "9123456780", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, status, body)

	status, body = call(t, e, http.MethodPost, "/api/clientLogin", "", map[string]any{
		"email": "c@y.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, status, body)
	return code, body["token"].(string)
}

func TestHealth(t *testing.T) {
	e := newServer(t)
	status, body := call(t, e, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestGenerateAndValidateCode(t *testing.T) {
	e := newServer(t)
	code, _ := onboard(t, e)
	assert.Regexp(t, `^ATOM\d{4}$`, code)

	status, body := call(t, e, http.MethodPost, "/api/validateReferralCode", "", map[string]any{"referralCode": code})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "referral code already used", body["error"])

	status, body = call(t, e, http.MethodPost, "/api/generateReferralCode", "", map[string]any{
		"email": "ref@x.com", "phone": "9876543210", "upiId": "ref@okaxis", "password": "abc123",
	})
	require.Equal(t, http.StatusCreated, status, body)
	status, body = call(t, e, http.MethodPost, "/api/validateReferralCode", "", map[string]any{"referralCode": strings.ToLower(body["referralCode"].(string))})
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["valid"])
	assert.EqualValues(t, 25, body["discount"])

	status, body = call(t, e, http.MethodPost, "/api/validateReferralCode", "", map[string]any{"referralCode": "nope"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.NotEmpty(t, body["error"])
}

func TestSignupWithUsedCodeIsBadRequest(t *testing.T) {
	e := newServer(t)
	code, _ := onboard(t, e)
	status, body := call(t, e, http.MethodPost, "/api/clientSignup", "", map[string]any{
		"referralCode": code, "name": "Other", "email": "d@y.com", "phone": "9123456781", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "referral code already used", body["error"])
}

func TestLoginFailures(t *testing.T) {
	e := newServer(t)
	onboard(t, e)

	status, _ := call(t, e, http.MethodPost, "/api/clientLogin", "", map[string]any{"email": "c@y.com", "password": "wrong1"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, e, http.MethodPost, "/api/clientLogin", "", map[string]any{"email": "ghost@y.com", "password": "secret1"})
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = call(t, e, http.MethodPost, "/api/updateClientStatus", "", map[string]any{"adminKey": adminKey, "email": "c@y.com", "active": false})
	require.Equal(t, http.StatusOK, status)
	status, body := call(t, e, http.MethodPost, "/api/clientLogin", "", map[string]any{"email": "c@y.com", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "account is deactivated", body["error"])
}

func TestPortalRequiresSession(t *testing.T) {
	e := newServer(t)
	_, token := onboard(t, e)

	status, _ := call(t, e, http.MethodPost, "/api/getClientPayments", "", map[string]any{"clientEmail": "c@y.com"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, e, http.MethodPost, "/api/getClientPayments", "garbage", map[string]any{"clientEmail": "c@y.com"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, e, http.MethodPost, "/api/getClientPayments", token, map[string]any{"clientEmail": "someone@else.com"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body := call(t, e, http.MethodPost, "/api/getClientPayments", token, map[string]any{})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
}

func TestPaymentFlowOverHTTP(t *testing.T) {
	e := newServer(t)
	code, token := onboard(t, e)

	status, body := call(t, e, http.MethodPost, "/api/createProject", "", map[string]any{
		"adminKey": adminKey, "name": "Site", "clientEmail": "c@y.com", "budget": 10000,
	})
	require.Equal(t, http.StatusCreated, status, body)
	projectID := body["project"].(map[string]any)["id"].(string)

	status, body = call(t, e, http.MethodPost, "/api/generatePaymentQR", token, map[string]any{
		"clientEmail": "c@y.com", "projectId": projectID, "paymentStep": 1,
	})
	require.Equal(t, http.StatusCreated, status, body)
	assert.EqualValues(t, 3000, body["amount"])
	assert.True(t, strings.HasPrefix(body["upiLink"].(string), "upi://pay?"))
	paymentID := body["payment"].(map[string]any)["id"].(string)

	status, body = call(t, e, http.MethodPost, "/api/submitPaymentProof", token, map[string]any{
		"paymentId": paymentID, "transactionId": "UTR123", "paymentMethod": "UPI",
	})
	require.Equal(t, http.StatusOK, status, body)

	status, _ = call(t, e, http.MethodPost, "/api/verifyPayment", "", map[string]any{
		"adminKey": "wrong", "paymentId": paymentID, "approved": true,
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body = call(t, e, http.MethodPost, "/api/verifyPayment", "", map[string]any{
		"adminKey": adminKey, "paymentId": paymentID, "approved": true,
	})
	require.Equal(t, http.StatusOK, status, body)

	status, body = call(t, e, http.MethodPost, "/api/approveReferralReward", "", map[string]any{
		"adminKey": adminKey, "referralCode": code,
	})
	require.Equal(t, http.StatusOK, status, body)

	status, body = call(t, e, http.MethodPost, "/api/approveReferralReward", "", map[string]any{
		"adminKey": adminKey, "referralCode": code,
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "reward already paid", body["error"])
}

func TestAdminDashboard(t *testing.T) {
	e := newServer(t)
	onboard(t, e)

	status, _ := call(t, e, http.MethodGet, "/api/adminDashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body := call(t, e, http.MethodGet, "/api/adminDashboard?adminKey="+adminKey, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["clients"], 1)
}

func TestUnknownRouteAndMethodUseErrorShape(t *testing.T) {
	e := newServer(t)
	status, body := call(t, e, http.MethodGet, "/api/clientSignup", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, status)
	assert.NotEmpty(t, body["error"])

	status, body = call(t, e, http.MethodPost, "/api/nope", "", map[string]any{})
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["error"])
}
