package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Endpoint scopes used as rate-limit keys and as lookups into
// RateLimitConfig.Limits.
const (
	ScopeGenerateCode      = "generateReferralCode"
	ScopeValidateCode      = "validateReferralCode"
	ScopeClientSignup      = "clientSignup"
	ScopeDirectSignup      = "directClientSignup"
	ScopeClientLogin       = "clientLogin"
	ScopePaymentQR         = "generatePaymentQR"
	ScopeSubmitProof       = "submitPaymentProof"
	ScopeReopenPayment     = "reopenPayment"
	ScopeReferrerStatus    = "getReferrerStatus"
	ScopeClientPayments    = "getClientPayments"
	ScopeClientProject     = "getClientProjectDetails"
	ScopeSubmitChange      = "submitChangeRequest"
	ScopeListChangeRequest = "listChangeRequests"
)

// defaultLimits holds the maximum number of requests per window for each
// scope. Account creation is the strictest, read views the loosest.
var defaultLimits = map[string]int{
	ScopeGenerateCode:      5,
	ScopeValidateCode:      20,
	ScopeClientSignup:      3,
	ScopeDirectSignup:      3,
	ScopeClientLogin:       10,
	ScopePaymentQR:         10,
	ScopeSubmitProof:       5,
	ScopeReopenPayment:     5,
	ScopeReferrerStatus:    10,
	ScopeClientPayments:    20,
	ScopeClientProject:     20,
	ScopeSubmitChange:      5,
	ScopeListChangeRequest: 20,
}

type RateLimitConfig struct {
	Enabled    bool
	Window     time.Duration
	Limits     map[string]int
	Prefix     string
	PruneEvery string // cron spec for evicting expired in-process windows
	Debug      bool
}

// Limit returns the configured maximum for scope, falling back to 10.
func (c RateLimitConfig) Limit(scope string) int {
	if n, ok := c.Limits[scope]; ok && n > 0 {
		return n
	}
	return 10
}

// LoadRateLimitConfig builds the limiter settings. Each scope can be
// overridden with RATE_LIMIT_<SCOPE> where SCOPE is the upper-cased
// endpoint name, e.g. RATE_LIMIT_CLIENTSIGNUP=5.
func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:    envBool("RATE_LIMIT_ENABLED", true),
		Window:     envDur("RATE_LIMIT_WINDOW", 15*time.Minute),
		Limits:     make(map[string]int, len(defaultLimits)),
		Prefix:     envStr("RATE_LIMIT_PREFIX", "rl"),
		PruneEvery: envStr("RATE_LIMIT_PRUNE_SPEC", "0 * * * * *"),
		Debug:      envBool("RATE_LIMIT_DEBUG", false),
	}
	for scope, n := range defaultLimits {
		def.Limits[scope] = envInt("RATE_LIMIT_"+strings.ToUpper(scope), n)
	}
	if def.Window < time.Second {
		def.Window = time.Second
	}
	return def
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}
