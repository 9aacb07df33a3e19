package service

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReferralSignupAppliesDiscount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	res, err := e.svc.GenerateCode(ctx, GenerateCodeInput{Email: "R@X.com", Phone: "9876543210", UPI: "r@okaxis", Password: "abc123"})
	require.NoError(t, err)
	assert.Equal(t, "ATOM1234", res.Code)
	assert.True(t, res.NewReferrer)
	assert.Equal(t, "r@x.com", res.Referrer.Email)
	assert.Equal(t, 9, res.CodesRemaining)

	client, err := e.svc.Signup(ctx, SignupInput{ReferralCode: "atom1234", Name: "Cee", Email: "c@y.com", Phone: "9123456780", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, 25, client.Discount)
	require.NotNil(t, client.ReferralCode)
	assert.Equal(t, "ATOM1234", *client.ReferralCode)

	code, err := e.svc.repos.Codes.Get(ctx, e.store, "ATOM1234")
	require.NoError(t, err)
	assert.True(t, code.Used)
	require.NotNil(t, code.ClientEmail)
	assert.Equal(t, "c@y.com", *code.ClientEmail)
	assert.NotNil(t, code.UsedAt)

	assert.ElementsMatch(t, []string{MsgCodeIssued, MsgCodeUsed, MsgNewClient}, e.sent())
}

func TestGenerateCodeFormatAndUniqueness(t *testing.T) {
	// first two draws collide, so the second code must skip ATOM1000
	e := newEnv(t, WithRand(seqRand(0, 0, 1)))
	ctx := context.Background()
	pattern := regexp.MustCompile(`^ATOM\d{4}$`)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		res, err := e.svc.GenerateCode(ctx, GenerateCodeInput{Email: "r@x.com", Phone: "9876543210", UPI: "r@okaxis", Password: "abc123"})
		require.NoError(t, err, "code %d", i+1)
		assert.Regexp(t, pattern, res.Code)
		assert.False(t, seen[res.Code], "duplicate %s", res.Code)
		seen[res.Code] = true
	}
	assert.True(t, seen["ATOM1000"])
	assert.True(t, seen["ATOM1001"])

	_, err := e.svc.GenerateCode(ctx, GenerateCodeInput{Email: "r@x.com", Phone: "9876543210", UPI: "r@okaxis", Password: "abc123"})
	requireKind(t, err, KindConflict)
	assert.Equal(t, "referral code limit reached", err.Error())

	ref, err := e.svc.repos.Referrers.Get(ctx, e.store, "r@x.com")
	require.NoError(t, err)
	assert.Len(t, ref.ReferralCodes, 10)
}

func TestGenerateCodeExhaustedSpace(t *testing.T) {
	e := newEnv(t, WithRand(func(int) int { return 0 }))
	ctx := context.Background()
	e.referrer(t, "a@x.com", "9876543210")

	_, err := e.svc.GenerateCode(ctx, GenerateCodeInput{Email: "b@x.com", Phone: "9876543211", UPI: "b@okaxis", Password: "abc123"})
	requireKind(t, err, KindInternal)

	// rolled back: no referrer was created for b
	_, err = e.svc.repos.Referrers.Get(ctx, e.store, "b@x.com")
	assert.Error(t, err)
}

func TestGenerateCodeReturningReferrer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.referrer(t, "r@x.com", "9876543210")

	t.Run("wrong password", func(t *testing.T) {
		_, err := e.svc.GenerateCode(ctx, GenerateCodeInput{Email: "r@x.com", Phone: "9876543210", UPI: "r@okaxis", Password: "nope123"})
		requireKind(t, err, KindUnauthorized)
	})
	t.Run("phone mismatch", func(t *testing.T) {
		_, err := e.svc.GenerateCode(ctx, GenerateCodeInput{Email: "r@x.com", Phone: "9000000000", UPI: "r@okaxis", Password: "abc123"})
		requireKind(t, err, KindValidation)
	})
	t.Run("phone owned by another referrer", func(t *testing.T) {
		_, err := e.svc.GenerateCode(ctx, GenerateCodeInput{Email: "other@x.com", Phone: "9876543210", UPI: "o@okaxis", Password: "abc123"})
		requireKind(t, err, KindConflict)
		assert.Equal(t, "phone already registered", err.Error())
	})
	t.Run("second code", func(t *testing.T) {
		res, err := e.svc.GenerateCode(ctx, GenerateCodeInput{Email: "r@x.com", Phone: "9876543210", UPI: "r@okaxis", Password: "abc123"})
		require.NoError(t, err)
		assert.False(t, res.NewReferrer)
		assert.Len(t, res.Referrer.ReferralCodes, 2)
	})
}

func TestGenerateCodeValidation(t *testing.T) {
	e := newEnv(t)
	cases := []GenerateCodeInput{
		{Email: "bad", Phone: "9876543210", UPI: "r@okaxis", Password: "abc123"},
		{Email: "r@x.com", Phone: "1234567890", UPI: "r@okaxis", Password: "abc123"},
		{Email: "r@x.com", Phone: "98765", UPI: "r@okaxis", Password: "abc123"},
		{Email: "r@x.com", Phone: "9876543210", UPI: "", Password: "abc123"},
		{Email: "r@x.com", Phone: "9876543210", UPI: "not a upi", Password: "abc123"},
		{Email: "r@x.com", Phone: "9876543210", UPI: "r@okaxis", Password: "abc"},
	}
	for i, in := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := e.svc.GenerateCode(context.Background(), in)
			requireKind(t, err, KindValidation)
		})
	}
	assert.Empty(t, e.sent())
}

func TestValidateCode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	code := e.referrer(t, "r@x.com", "9876543210")

	got, err := e.svc.ValidateCode(ctx, " atom1234 ")
	require.NoError(t, err)
	assert.Equal(t, CodeCheck{Code: code, Valid: true, Discount: 25}, got)

	_, err = e.svc.ValidateCode(ctx, "ATOM12")
	requireKind(t, err, KindValidation)
	_, err = e.svc.ValidateCode(ctx, "ATOM9999")
	requireKind(t, err, KindNotFound)

	e.client(t, "c@y.com", code)
	_, err = e.svc.ValidateCode(ctx, code)
	requireKind(t, err, KindConflict)
	assert.Equal(t, "referral code already used", err.Error())
}
