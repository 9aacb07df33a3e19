package service

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

func (e *env) project(t *testing.T, clientEmail string, budget int64) model.Project {
	t.Helper()
	p, err := e.svc.CreateProject(context.Background(), testAdminKey, ProjectInput{Name: "Website", ClientEmail: clientEmail, Budget: budget})
	require.NoError(t, err)
	return p
}

// payStep requests, proves and approves one installment.
func (e *env) payStep(t *testing.T, clientEmail, projectID string, step int) VerifyResult {
	t.Helper()
	ctx := context.Background()
	pay, err := e.svc.RequestPayment(ctx, clientEmail, projectID, step)
	require.NoError(t, err)
	_, err = e.svc.SubmitProof(ctx, SubmitProofInput{PaymentID: pay.ID, ClientEmail: clientEmail, TransactionID: "UTR" + strconv.Itoa(step)})
	require.NoError(t, err)
	res, err := e.svc.VerifyPayment(ctx, testAdminKey, pay.ID, true, "")
	require.NoError(t, err)
	return res
}

func TestStepAmount(t *testing.T) {
	cases := []struct {
		total int64
		step  int
		want  int64
	}{
		{50000, 1, 15000},
		{50000, 2, 20000},
		{50000, 3, 15000},
		{10001, 1, 3000},
		{10005, 2, 4002},
		{999, 3, 300},
		{100, 4, 0},
		{100, 0, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, StepAmount(c.total, c.step), "total=%d step=%d", c.total, c.step)
	}
	for total := int64(0); total <= 5000; total += 7 {
		sum := StepAmount(total, 1) + StepAmount(total, 2) + StepAmount(total, 3)
		assert.InDelta(t, total, sum, 2, "total=%d", total)
	}
}

func TestRequestPaymentFromBudget(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client(t, "c@y.com", "")
	p := e.project(t, "c@y.com", 50000)
	e.payStep(t, "c@y.com", p.ID, 1)

	pay, err := e.svc.RequestPayment(ctx, "c@y.com", p.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), pay.Amount)
	assert.Equal(t, model.PaymentStatePending, pay.Status)
	assert.Equal(t, p.ID+"_step2_"+strconv.FormatInt(e.clock.now().UnixMilli(), 10), pay.ID)
	assert.Equal(t, e.clock.now().Add(7*24*time.Hour), pay.DueDate)
	assert.Equal(t, "upi://pay?pa=atom%40upi&pn=Atom+Studio&am=20000&cu=INR&tn=Website+step+2", pay.UPILink)

	_, err = e.svc.RequestPayment(ctx, "c@y.com", p.ID, 2)
	requireKind(t, err, KindConflict)
}

func TestRequestPaymentErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client(t, "c@y.com", "")
	e.client(t, "other@y.com", "")
	p := e.project(t, "c@y.com", 50000)
	empty := e.project(t, "other@y.com", 0)

	_, err := e.svc.RequestPayment(ctx, "c@y.com", p.ID, 4)
	requireKind(t, err, KindValidation)
	_, err = e.svc.RequestPayment(ctx, "other@y.com", p.ID, 1)
	requireKind(t, err, KindForbidden)
	_, err = e.svc.RequestPayment(ctx, "c@y.com", "missing", 1)
	requireKind(t, err, KindNotFound)
	_, err = e.svc.RequestPayment(ctx, "other@y.com", empty.ID, 1)
	requireKind(t, err, KindValidation)
	assert.Equal(t, "invalid amount", err.Error())
}

func TestRequestPaymentEnforcesStepOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.referrer(t, "r@x.com", "9876543210")
	e.client(t, "c@y.com", code)
	p := e.project(t, "c@y.com", 10000)

	_, err := e.svc.RequestPayment(ctx, "c@y.com", p.ID, 3)
	requireKind(t, err, KindConflict)
	_, err = e.svc.RequestPayment(ctx, "c@y.com", p.ID, 2)
	requireKind(t, err, KindConflict)

	// an open step 1 does not unlock step 2
	pay, err := e.svc.RequestPayment(ctx, "c@y.com", p.ID, 1)
	require.NoError(t, err)
	_, err = e.svc.RequestPayment(ctx, "c@y.com", p.ID, 2)
	requireKind(t, err, KindConflict)

	_, err = e.svc.SubmitProof(ctx, SubmitProofInput{PaymentID: pay.ID, ClientEmail: "c@y.com", TransactionID: "UTR1"})
	require.NoError(t, err)
	res, err := e.svc.VerifyPayment(ctx, testAdminKey, pay.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPaidStep1, res.Client.PaymentStatus)
	assert.True(t, res.RewardEligible)

	_, err = e.svc.RequestPayment(ctx, "c@y.com", p.ID, 3)
	requireKind(t, err, KindConflict)
	assert.Equal(t, model.PaymentPartiallyPaid, e.payStep(t, "c@y.com", p.ID, 2).Client.PaymentStatus)
	last := e.payStep(t, "c@y.com", p.ID, 3).Client
	assert.Equal(t, model.PaymentFullyPaid, last.PaymentStatus)
	assert.Equal(t, int64(10000), last.PaidAmount)

	_, err = e.svc.ApproveReward(ctx, testAdminKey, code)
	require.NoError(t, err)
}

func TestPaymentLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.referrer(t, "r@x.com", "9876543210")
	e.client(t, "c@y.com", code)
	p := e.project(t, "c@y.com", 10000)

	pay, err := e.svc.RequestPayment(ctx, "c@y.com", p.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), pay.Amount)

	// verify before proof is refused
	_, err = e.svc.VerifyPayment(ctx, testAdminKey, pay.ID, true, "")
	requireKind(t, err, KindConflict)

	_, err = e.svc.SubmitProof(ctx, SubmitProofInput{PaymentID: pay.ID, ClientEmail: "intruder@y.com", TransactionID: "T1"})
	requireKind(t, err, KindForbidden)
	_, err = e.svc.SubmitProof(ctx, SubmitProofInput{PaymentID: pay.ID, ClientEmail: "c@y.com"})
	requireKind(t, err, KindValidation)

	sub, err := e.svc.SubmitProof(ctx, SubmitProofInput{PaymentID: pay.ID, ClientEmail: "c@y.com", TransactionID: "UPI123", Method: "gpay"})
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStateProofSubmitted, sub.Status)
	assert.NotNil(t, sub.ProofSubmittedAt)

	_, err = e.svc.SubmitProof(ctx, SubmitProofInput{PaymentID: pay.ID, ClientEmail: "c@y.com", TransactionID: "UPI124"})
	requireKind(t, err, KindConflict)

	_, err = e.svc.VerifyPayment(ctx, "wrong", pay.ID, true, "")
	requireKind(t, err, KindUnauthorized)

	res, err := e.svc.VerifyPayment(ctx, testAdminKey, pay.ID, true, "ok")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStateApproved, res.Payment.Status)
	assert.Equal(t, int64(3000), res.Client.PaidAmount)
	assert.Equal(t, int64(10000), res.Client.TotalAmount, "budget adopted as total")
	assert.Equal(t, model.PaymentPaidStep1, res.Client.PaymentStatus)
	assert.NotNil(t, res.Client.LastPaymentDate)
	assert.True(t, res.RewardEligible)

	_, err = e.svc.VerifyPayment(ctx, testAdminKey, pay.ID, true, "")
	requireKind(t, err, KindConflict)

	_, err = e.svc.RequestPayment(ctx, "c@y.com", p.ID, 1)
	requireKind(t, err, KindConflict)

	kinds := e.sent()
	assert.Contains(t, kinds, MsgProofSubmitted)
	assert.Contains(t, kinds, MsgPaymentApproved)
	assert.Contains(t, kinds, MsgRewardEligible)
	assert.Contains(t, kinds, MsgRewardEligibleAdmin)
	assert.Len(t, e.rec.byKind(MsgProofSubmitted), 1)
}

func TestRejectedPaymentCanBeReopened(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client(t, "c@y.com", "")
	p := e.project(t, "c@y.com", 10000)

	pay, err := e.svc.RequestPayment(ctx, "c@y.com", p.ID, 1)
	require.NoError(t, err)
	_, err = e.svc.SubmitProof(ctx, SubmitProofInput{PaymentID: pay.ID, ClientEmail: "c@y.com", TransactionID: "BAD"})
	require.NoError(t, err)

	_, err = e.svc.ReopenPayment(ctx, pay.ID, "c@y.com")
	requireKind(t, err, KindConflict)

	res, err := e.svc.VerifyPayment(ctx, testAdminKey, pay.ID, false, "no such transaction")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStateRejected, res.Payment.Status)
	assert.Equal(t, int64(0), res.Client.PaidAmount)
	assert.False(t, res.RewardEligible)

	_, err = e.svc.ReopenPayment(ctx, pay.ID, "someone@y.com")
	requireKind(t, err, KindForbidden)

	e.clock.advance(time.Hour)
	re, err := e.svc.ReopenPayment(ctx, pay.ID, "c@y.com")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatePending, re.Status)
	assert.Empty(t, re.TransactionID)
	assert.Nil(t, re.ProofSubmittedAt)
	assert.NotNil(t, re.ReopenedAt)
	assert.Equal(t, e.clock.now().Add(7*24*time.Hour), re.DueDate)

	_, err = e.svc.SubmitProof(ctx, SubmitProofInput{PaymentID: pay.ID, ClientEmail: "c@y.com", TransactionID: "GOOD"})
	require.NoError(t, err)

	e.sent()
	assert.Len(t, e.rec.byKind(MsgPaymentRejected), 1)
}

func TestListPaymentsNewestFirst(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client(t, "c@y.com", "")
	p := e.project(t, "c@y.com", 10000)

	first := e.payStep(t, "c@y.com", p.ID, 1).Payment
	e.clock.advance(time.Minute)
	second, err := e.svc.RequestPayment(ctx, "c@y.com", p.ID, 2)
	require.NoError(t, err)

	list, err := e.svc.ListPayments(ctx, "c@y.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestSendPaymentReminders(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client(t, "c@y.com", "")
	p := e.project(t, "c@y.com", 10000)
	_, err := e.svc.RequestPayment(ctx, "c@y.com", p.ID, 1)
	require.NoError(t, err)

	n, err := e.svc.SendPaymentReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "not yet due")

	e.clock.advance(8 * 24 * time.Hour)
	n, err = e.svc.SendPaymentReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e.clock.advance(time.Hour)
	n, err = e.svc.SendPaymentReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "at most one reminder a day")

	e.clock.advance(24 * time.Hour)
	n, err = e.svc.SendPaymentReminders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	e.sent()
	reminders := e.rec.byKind(MsgPaymentReminder)
	require.Len(t, reminders, 2)
	assert.Equal(t, "c@y.com", reminders[0].To)
}

func TestDeactivatedClientLosesPortalAccess(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client(t, "c@y.com", "")
	p := e.project(t, "c@y.com", 10000)

	open, err := e.svc.RequestPayment(ctx, "c@y.com", p.ID, 1)
	require.NoError(t, err)
	_, err = e.svc.SetActive(ctx, testAdminKey, "c@y.com", false)
	require.NoError(t, err)

	_, err = e.svc.SubmitProof(ctx, SubmitProofInput{PaymentID: open.ID, ClientEmail: "c@y.com", TransactionID: "UTR1"})
	requireKind(t, err, KindForbidden)
	_, err = e.svc.ReopenPayment(ctx, open.ID, "c@y.com")
	requireKind(t, err, KindForbidden)
	_, err = e.svc.ListPayments(ctx, "c@y.com")
	requireKind(t, err, KindForbidden)
	_, err = e.svc.ListChangeRequests(ctx, "c@y.com")
	requireKind(t, err, KindForbidden)
	_, err = e.svc.SubmitChangeRequest(ctx, ChangeRequestInput{ClientEmail: "c@y.com", Title: "Logo", Description: "bigger"})
	requireKind(t, err, KindForbidden)
	_, err = e.svc.ProjectDetails(ctx, "c@y.com")
	requireKind(t, err, KindForbidden)

	stored, err := e.svc.repos.Payments.Get(ctx, e.store, open.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatePending, stored.Status)

	_, err = e.svc.SetActive(ctx, testAdminKey, "c@y.com", true)
	require.NoError(t, err)
	_, err = e.svc.SubmitProof(ctx, SubmitProofInput{PaymentID: open.ID, ClientEmail: "c@y.com", TransactionID: "UTR1"})
	require.NoError(t, err)
}
