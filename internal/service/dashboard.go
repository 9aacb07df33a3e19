package service

import (
	"context"
	"sort"

	"github.com/iliyamo/atom-referral-tracker/internal/model"
)

type DashboardStats struct {
	Referrers             int   `json:"referrers"`
	ReferralCodes         int   `json:"referralCodes"`
	UsedCodes             int   `json:"usedCodes"`
	EligibleRewards       int   `json:"eligibleRewards"`
	PaidRewards           int   `json:"paidRewards"`
	Clients               int   `json:"clients"`
	ActiveClients         int   `json:"activeClients"`
	ReferredClients       int   `json:"referredClients"`
	Projects              int   `json:"projects"`
	TotalRevenue          int64 `json:"totalRevenue"`
	CollectedRevenue      int64 `json:"collectedRevenue"`
	PendingPayments       int   `json:"pendingPayments"`
	ProofsAwaitingReview  int   `json:"proofsAwaitingReview"`
	PendingChangeRequests int   `json:"pendingChangeRequests"`
}

type Dashboard struct {
	Stats           DashboardStats        `json:"stats"`
	ProofsToReview  []model.Payment       `json:"proofsToReview"`
	RewardsToPay    []model.ReferralCode  `json:"rewardsToPay"`
	ChangeRequests  []model.ChangeRequest `json:"pendingChangeRequests"`
	Clients         []model.ClientView    `json:"clients"`
	ProjectsByState map[string]int        `json:"projectsByStatus"`
}

// Dashboard aggregates the admin overview. It reads outside a transaction
// so figures may be a moment apart from each other.
func (s *Service) Dashboard(ctx context.Context, adminKey string) (Dashboard, error) {
	if err := s.Authorize(adminKey); err != nil {
		return Dashboard{}, err
	}
	q := s.store
	refs, err := s.repos.Referrers.List(ctx, q)
	if err != nil {
		return Dashboard{}, classify("list referrers", err)
	}
	codes, err := s.repos.Codes.List(ctx, q)
	if err != nil {
		return Dashboard{}, classify("list codes", err)
	}
	clients, err := s.repos.Clients.List(ctx, q)
	if err != nil {
		return Dashboard{}, classify("list clients", err)
	}
	projects, err := s.repos.Projects.List(ctx, q)
	if err != nil {
		return Dashboard{}, classify("list projects", err)
	}
	pending, err := s.repos.Payments.ListByStatus(ctx, q, model.PaymentStatePending)
	if err != nil {
		return Dashboard{}, classify("list payments", err)
	}
	proofs, err := s.repos.Payments.ListByStatus(ctx, q, model.PaymentStateProofSubmitted)
	if err != nil {
		return Dashboard{}, classify("list payments", err)
	}
	crs, err := s.repos.ChangeRequests.ListByStatus(ctx, q, model.ChangePending)
	if err != nil {
		return Dashboard{}, classify("list change requests", err)
	}

	d := Dashboard{
		ProofsToReview:  proofs,
		RewardsToPay:    []model.ReferralCode{},
		ChangeRequests:  crs,
		Clients:         make([]model.ClientView, 0, len(clients)),
		ProjectsByState: map[string]int{},
	}
	st := &d.Stats
	st.Referrers = len(refs)
	st.ReferralCodes = len(codes)
	st.Clients = len(clients)
	st.Projects = len(projects)
	st.PendingPayments = len(pending)
	st.ProofsAwaitingReview = len(proofs)
	st.PendingChangeRequests = len(crs)
	for _, c := range codes {
		if c.Used {
			st.UsedCodes++
		}
		if c.RewardPaid {
			st.PaidRewards++
		} else if c.RewardEligible {
			st.EligibleRewards++
			d.RewardsToPay = append(d.RewardsToPay, c)
		}
	}
	for _, c := range clients {
		if c.Active {
			st.ActiveClients++
		}
		if c.ReferralCode != nil {
			st.ReferredClients++
		}
		st.TotalRevenue += c.TotalAmount
		st.CollectedRevenue += c.PaidAmount
		d.Clients = append(d.Clients, c.View())
	}
	sort.SliceStable(d.Clients, func(i, j int) bool { return d.Clients[i].CreatedAt.After(d.Clients[j].CreatedAt) })
	for _, p := range projects {
		d.ProjectsByState[string(p.Status)]++
	}
	return d, nil
}
