package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/atom-referral-tracker/internal/config"     // endpoint scope names
	"github.com/iliyamo/atom-referral-tracker/internal/handler"    // handlers that call into the service layer
	"github.com/iliyamo/atom-referral-tracker/internal/middleware" // rate limiting, client sessions, caching
	"github.com/iliyamo/atom-referral-tracker/internal/utils"      // role names
)

// Deps carries what route registration needs besides the handler.
type Deps struct {
	Limiter   *middleware.RateLimiter
	JWTSecret string
	// DashboardCache wraps the admin dashboard; nil disables caching.
	DashboardCache echo.MiddlewareFunc
}

// RegisterRoutes registers the health check, which lives outside /api so
// load balancers can check it without CORS or rate limits.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers every endpoint under /api. Public and referrer
// endpoints are rate limited per caller; client portal endpoints also need
// the bearer token from clientLogin; admin endpoints are authorized by the
// adminKey in the body, checked in the service.
func RegisterAPI(e *echo.Echo, h *handler.Handler, d Deps) {
	api := e.Group("/api")
	rl := d.Limiter.For

	// Referral codes and referrers.
	api.POST("/generateReferralCode", h.GenerateReferralCode, rl(config.ScopeGenerateCode))
	api.POST("/validateReferralCode", h.ValidateReferralCode, rl(config.ScopeValidateCode))
	api.POST("/getReferrerStatus", h.GetReferrerStatus, rl(config.ScopeReferrerStatus))

	// Client accounts.
	api.POST("/clientSignup", h.ClientSignup, rl(config.ScopeClientSignup))
	api.POST("/directClientSignup", h.DirectClientSignup, rl(config.ScopeDirectSignup))
	api.POST("/clientLogin", h.ClientLogin, rl(config.ScopeClientLogin))

	// Client portal: rate limit first so bad tokens are throttled too.
	session := []echo.MiddlewareFunc{middleware.ClientAuth(d.JWTSecret), middleware.RequireRole(utils.RoleClient)}
	portal := func(path string, fn echo.HandlerFunc, scope string) {
		api.POST(path, fn, append([]echo.MiddlewareFunc{rl(scope)}, session...)...)
	}
	portal("/generatePaymentQR", h.GeneratePaymentQR, config.ScopePaymentQR)
	portal("/submitPaymentProof", h.SubmitPaymentProof, config.ScopeSubmitProof)
	portal("/reopenPayment", h.ReopenPayment, config.ScopeReopenPayment)
	portal("/getClientPayments", h.GetClientPayments, config.ScopeClientPayments)
	portal("/getClientProjectDetails", h.GetClientProjectDetails, config.ScopeClientProject)
	portal("/submitChangeRequest", h.SubmitChangeRequest, config.ScopeSubmitChange)
	portal("/listChangeRequests", h.ListChangeRequests, config.ScopeListChangeRequest)

	// Admin.
	api.POST("/updatePaymentStatus", h.UpdatePaymentStatus)
	api.POST("/verifyPayment", h.VerifyPayment)
	api.POST("/approveReferralReward", h.ApproveReferralReward)
	api.POST("/createProject", h.CreateProject)
	api.POST("/updateProject", h.UpdateProject)
	api.POST("/deleteProject", h.DeleteProject)
	api.POST("/updateClientStatus", h.UpdateClientStatus)
	api.POST("/updateReferrerInfo", h.UpdateReferrerInfo)
	api.POST("/updateReferralBonusStatus", h.UpdateReferralBonusStatus)
	api.POST("/updateChangeRequestStatus", h.UpdateChangeRequestStatus)
	if d.DashboardCache != nil {
		api.GET("/adminDashboard", h.AdminDashboard, d.DashboardCache)
	} else {
		api.GET("/adminDashboard", h.AdminDashboard)
	}
}
