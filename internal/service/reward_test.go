package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

func i64(v int64) *int64 { return &v }

func status(s model.PaymentStatus) *model.PaymentStatus { return &s }

func TestEligibilityFiresAtBoundary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.referrer(t, "r@x.com", "9876543210")
	e.client(t, "c@y.com", code)

	// (10000*0.75)/3 = 2500; one rupee short must not qualify
	res, err := e.svc.UpdatePaymentStatus(ctx, testAdminKey, "c@y.com", PaymentStatusUpdate{
		TotalAmount: i64(10000), PaidAmount: i64(2499), PaymentStatus: status(model.PaymentPaidStep1),
	})
	require.NoError(t, err)
	assert.False(t, res.RewardEligible)
	rc, err := e.svc.repos.Codes.Get(ctx, e.store, code)
	require.NoError(t, err)
	assert.False(t, rc.RewardEligible)

	res, err = e.svc.UpdatePaymentStatus(ctx, testAdminKey, "c@y.com", PaymentStatusUpdate{PaidAmount: i64(2500)})
	require.NoError(t, err)
	assert.True(t, res.RewardEligible)
	assert.Equal(t, int64(2500), res.Client.PaidAmount)

	rc, err = e.svc.repos.Codes.Get(ctx, e.store, code)
	require.NoError(t, err)
	assert.True(t, rc.RewardEligible)
	assert.False(t, rc.RewardPaid)
	assert.Equal(t, model.BonusEligible, rc.BonusStatus)
	assert.Equal(t, "Client c@y.com", rc.ClientName)
	assert.NotNil(t, rc.EligibleAt)

	// a later update does not fire again
	res, err = e.svc.UpdatePaymentStatus(ctx, testAdminKey, "c@y.com", PaymentStatusUpdate{PaidAmount: i64(2600)})
	require.NoError(t, err)
	assert.False(t, res.RewardEligible)

	e.sent()
	assert.Len(t, e.rec.byKind(MsgRewardEligible), 1)
	assert.Len(t, e.rec.byKind(MsgRewardEligibleAdmin), 1)
}

func TestEligibilityRequiresPaidStep1(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.referrer(t, "r@x.com", "9876543210")
	e.client(t, "c@y.com", code)

	res, err := e.svc.UpdatePaymentStatus(ctx, testAdminKey, "c@y.com", PaymentStatusUpdate{
		TotalAmount: i64(10000), PaidAmount: i64(5000), PaymentStatus: status(model.PaymentPartiallyPaid),
	})
	require.NoError(t, err)
	assert.False(t, res.RewardEligible)
}

func TestUpdatePaymentStatusValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.client(t, "c@y.com", "")

	_, err := e.svc.UpdatePaymentStatus(ctx, testAdminKey, "c@y.com", PaymentStatusUpdate{})
	requireKind(t, err, KindValidation)
	_, err = e.svc.UpdatePaymentStatus(ctx, testAdminKey, "c@y.com", PaymentStatusUpdate{TotalAmount: i64(-1)})
	requireKind(t, err, KindValidation)
	_, err = e.svc.UpdatePaymentStatus(ctx, testAdminKey, "c@y.com", PaymentStatusUpdate{PaymentStatus: status("Half Paid")})
	requireKind(t, err, KindValidation)
	_, err = e.svc.UpdatePaymentStatus(ctx, testAdminKey, "ghost@y.com", PaymentStatusUpdate{PaidAmount: i64(1)})
	requireKind(t, err, KindNotFound)

	_, err = e.svc.UpdatePaymentStatus(ctx, testAdminKey, "c@y.com", PaymentStatusUpdate{PaidAmount: i64(500)})
	require.NoError(t, err)
	_, err = e.svc.UpdatePaymentStatus(ctx, testAdminKey, "c@y.com", PaymentStatusUpdate{PaidAmount: i64(400)})
	requireKind(t, err, KindValidation)
	assert.Equal(t, "paid amount cannot decrease", err.Error())
}

// eligibleCode returns a code whose reward is ready for approval.
func (e *env) eligibleCode(t *testing.T, referrer, phone, client string) string {
	t.Helper()
	code := e.referrer(t, referrer, phone)
	e.client(t, client, code)
	res, err := e.svc.UpdatePaymentStatus(context.Background(), testAdminKey, client, PaymentStatusUpdate{
		TotalAmount: i64(10000), PaidAmount: i64(3000), PaymentStatus: status(model.PaymentPaidStep1),
	})
	require.NoError(t, err)
	require.True(t, res.RewardEligible)
	return code
}

func TestApproveRewardOnce(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.eligibleCode(t, "r@x.com", "9876543210", "c@y.com")

	_, err := e.svc.ApproveReward(ctx, "wrong", code)
	requireKind(t, err, KindUnauthorized)

	res, err := e.svc.ApproveReward(ctx, testAdminKey, code)
	require.NoError(t, err)
	assert.True(t, res.Code.RewardPaid)
	assert.Equal(t, model.BonusPaid, res.Code.BonusStatus)
	assert.Equal(t, 1, res.Referrer.TotalRewards)

	_, err = e.svc.ApproveReward(ctx, testAdminKey, code)
	requireKind(t, err, KindConflict)
	assert.Equal(t, "reward already paid", err.Error())

	ref, err := e.svc.repos.Referrers.Get(ctx, e.store, "r@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, ref.TotalRewards)
	e.sent()
	assert.Len(t, e.rec.byKind(MsgRewardPaid), 1)
}

func TestApproveRewardRequiresEligibility(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.referrer(t, "r@x.com", "9876543210")

	_, err := e.svc.ApproveReward(ctx, testAdminKey, code)
	requireKind(t, err, KindConflict)
	assert.Equal(t, "reward is not eligible", err.Error())
	_, err = e.svc.ApproveReward(ctx, testAdminKey, "ATOM9999")
	requireKind(t, err, KindNotFound)
}

func TestRewardCap(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.eligibleCode(t, "r@x.com", "9876543210", "c@y.com")

	// a second code used by another client, not yet eligible
	second := e.referrer(t, "r@x.com", "9876543210")
	e.client(t, "d@y.com", second)

	ref, err := e.svc.repos.Referrers.Get(ctx, e.store, "r@x.com")
	require.NoError(t, err)
	ref.TotalRewards = model.MaxRewardsPerReferrer
	require.NoError(t, e.svc.repos.Referrers.Save(ctx, e.store, ref))

	_, err = e.svc.ApproveReward(ctx, testAdminKey, code)
	requireKind(t, err, KindConflict)
	assert.Equal(t, "referrer reward limit reached", err.Error())

	rc, err := e.svc.repos.Codes.Get(ctx, e.store, code)
	require.NoError(t, err)
	assert.False(t, rc.RewardPaid, "failed approval must not mark the code paid")

	res, err := e.svc.UpdatePaymentStatus(ctx, testAdminKey, "d@y.com", PaymentStatusUpdate{
		TotalAmount: i64(10000), PaidAmount: i64(3000), PaymentStatus: status(model.PaymentPaidStep1),
	})
	require.NoError(t, err)
	assert.False(t, res.RewardEligible, "no eligibility once the referrer is capped")

	ref, err = e.svc.repos.Referrers.Get(ctx, e.store, "r@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.MaxRewardsPerReferrer, ref.TotalRewards)
}

func TestBonusStatusPaidSharesPayoutPath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.eligibleCode(t, "r@x.com", "9876543210", "c@y.com")

	rc, err := e.svc.UpdateBonusStatus(ctx, testAdminKey, code, model.BonusProcessing)
	require.NoError(t, err)
	assert.Equal(t, model.BonusProcessing, rc.BonusStatus)
	assert.True(t, rc.RewardEligible)

	rc, err = e.svc.UpdateBonusStatus(ctx, testAdminKey, code, model.BonusPaid)
	require.NoError(t, err)
	assert.True(t, rc.RewardPaid)

	_, err = e.svc.ApproveReward(ctx, testAdminKey, code)
	requireKind(t, err, KindConflict)
	_, err = e.svc.UpdateBonusStatus(ctx, testAdminKey, code, model.BonusPaid)
	requireKind(t, err, KindConflict)
	_, err = e.svc.UpdateBonusStatus(ctx, testAdminKey, code, model.BonusRejected)
	requireKind(t, err, KindConflict)

	ref, err := e.svc.repos.Referrers.Get(ctx, e.store, "r@x.com")
	require.NoError(t, err)
	assert.Equal(t, 1, ref.TotalRewards, "a reward is credited once whichever endpoint pays it")
}

func TestBonusStatusLabels(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.referrer(t, "r@x.com", "9876543210")

	_, err := e.svc.UpdateBonusStatus(ctx, testAdminKey, code, "Bogus")
	requireKind(t, err, KindValidation)
	_, err = e.svc.UpdateBonusStatus(ctx, testAdminKey, code, model.BonusEligible)
	requireKind(t, err, KindConflict)

	rc, err := e.svc.UpdateBonusStatus(ctx, testAdminKey, code, model.BonusRejected)
	require.NoError(t, err)
	assert.Equal(t, model.BonusRejected, rc.BonusStatus)
	assert.False(t, rc.RewardEligible)
}

func TestAuthorize(t *testing.T) {
	e := newEnv(t)
	assert.NoError(t, e.svc.Authorize(testAdminKey))
	requireKind(t, e.svc.Authorize(""), KindUnauthorized)
	requireKind(t, e.svc.Authorize(testAdminKey+"x"), KindUnauthorized)

	locked := New(e.store, e.disp, Options{})
	requireKind(t, locked.Authorize(""), KindUnauthorized)
}
