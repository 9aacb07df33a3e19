// Package repository gives typed access to each collection of the document
// store. Repositories hold no state: the docstore.Querier passed to each
// method decides whether the call runs on its own or inside a transaction.
//
// Every Get translates docstore.ErrNotFound into an entity-specific sentinel
// so handlers can tell a missing client from a missing project.
package repository

import (
	"errors"

	"github.com/iliyamo/atom-referral-tracker/internal/docstore"
)

var (
	ErrReferrerNotFound      = errors.New("referrer not found")
	ErrReferralCodeNotFound  = errors.New("referral code not found")
	ErrClientNotFound        = errors.New("client not found")
	ErrProjectNotFound       = errors.New("project not found")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrChangeRequestNotFound = errors.New("change request not found")
)

// ErrExists is returned by Create when the key is already taken.
var ErrExists = docstore.ErrExists

func notFound(err, sentinel error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return sentinel
	}
	return err
}

// Repos bundles every repository.
type Repos struct {
	Referrers      ReferrerRepo
	Codes          ReferralCodeRepo
	Clients        ClientRepo
	Projects       ProjectRepo
	Payments       PaymentRepo
	ChangeRequests ChangeRequestRepo
}
