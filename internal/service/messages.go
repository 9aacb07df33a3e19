package service

import (
	"fmt"

	"github.com/iliyamo/atom-referral-tracker/internal/model"
	"github.com/iliyamo/atom-referral-tracker/internal/notify"
)

// Notification kinds, also used as log labels by the notifiers.
const (
	MsgCodeIssued          = "referral_code_issued"
	MsgNewClient           = "new_client"
	MsgCodeUsed            = "referral_code_used"
	MsgProofSubmitted      = "payment_proof_submitted"
	MsgPaymentApproved     = "payment_approved"
	MsgPaymentRejected     = "payment_rejected"
	MsgPaymentReminder     = "payment_reminder"
	MsgRewardEligible      = "reward_eligible"
	MsgRewardEligibleAdmin = "reward_eligible_admin"
	MsgRewardPaid          = "reward_paid"
	MsgChangeRequest       = "change_request"
	MsgChangeRequestUpdate = "change_request_updated"
)

func (s *Service) adminMessage(kind, subject, text string) notify.Message {
	return notify.Message{Kind: kind, To: s.opts.AdminEmail, ToName: "Admin", Subject: subject, Text: text}
}

func codeIssuedMessage(ref model.Referrer, code string) notify.Message {
	return notify.Message{
		Kind:    MsgCodeIssued,
		To:      ref.Email,
		Subject: "Your Atom referral code: " + code,
		Text: fmt.Sprintf("Share %s with people who need a project built. They get %d%% off and you earn a reward once they pay their first installment. You have used %d of %d codes.",
			code, model.ReferralDiscountPercent, len(ref.ReferralCodes), model.MaxCodesPerReferrer),
	}
}

func codeUsedMessage(code model.ReferralCode, client model.Client) notify.Message {
	return notify.Message{
		Kind:    MsgCodeUsed,
		To:      code.ReferrerEmail,
		Subject: "Your referral code " + code.Code + " was used",
		Text:    fmt.Sprintf("%s signed up with your code %s. Your reward becomes eligible once they complete their first payment.", client.Name, code.Code),
	}
}

func paymentVerifiedMessage(p model.Payment, client model.Client) notify.Message {
	if p.Status == model.PaymentStateApproved {
		return notify.Message{
			Kind:    MsgPaymentApproved,
			To:      client.Email,
			ToName:  client.Name,
			Subject: fmt.Sprintf("Payment for step %d confirmed", p.PaymentStep),
			Text:    fmt.Sprintf("We received your step %d payment of Rs %d (transaction %s). Thank you!", p.PaymentStep, p.Amount, p.TransactionID),
		}
	}
	text := fmt.Sprintf("We could not verify your step %d payment (transaction %s).", p.PaymentStep, p.TransactionID)
	if p.AdminNotes != "" {
		text += " Notes: " + p.AdminNotes
	}
	text += " You can reopen the payment from your portal and submit it again."
	return notify.Message{
		Kind:    MsgPaymentRejected,
		To:      client.Email,
		ToName:  client.Name,
		Subject: fmt.Sprintf("Payment for step %d could not be verified", p.PaymentStep),
		Text:    text,
	}
}

func reminderMessage(p model.Payment) notify.Message {
	return notify.Message{
		Kind:    MsgPaymentReminder,
		To:      p.ClientEmail,
		Subject: fmt.Sprintf("Reminder: step %d payment is overdue", p.PaymentStep),
		Text: fmt.Sprintf("Your step %d payment of Rs %d was due on %s. Pay using %s and submit the transaction id in your portal.",
			p.PaymentStep, p.Amount, p.DueDate.Format("2 Jan 2006"), p.UPILink),
	}
}

func rewardEligibleMessage(code model.ReferralCode) notify.Message {
	return notify.Message{
		Kind:    MsgRewardEligible,
		To:      code.ReferrerEmail,
		Subject: "Your referral reward is eligible",
		Text:    fmt.Sprintf("%s completed their first payment using your code %s. Your reward will be paid once an admin approves it.", code.ClientName, code.Code),
	}
}

func rewardPaidMessage(code model.ReferralCode, ref model.Referrer) notify.Message {
	return notify.Message{
		Kind:    MsgRewardPaid,
		To:      ref.Email,
		Subject: "Your referral reward has been paid",
		Text: fmt.Sprintf("The reward for code %s has been sent to %s. Rewards paid so far: %d of %d.",
			code.Code, ref.UPI, ref.TotalRewards, model.MaxRewardsPerReferrer),
	}
}
