package wallet

import (
	"fmt"
	"html"

	"stash-backend/domain"
	"stash-backend/internal/utils/mailing"

	"go.uber.org/zap"
)

type (
	// RedemptionNotifier tells the fulfillment team about a new pending redemption.
	RedemptionNotifier interface {
		NotifyRedemption(userID string, redemption domain.RedeemResponse)
	}

	mailNotifier struct {
		mailer mailing.Mailer
		to     string
	}

	nopNotifier struct{}
)

// NewMailNotifier sends notices to the given address in the background.
func NewMailNotifier(mailer mailing.Mailer, to string) RedemptionNotifier {
	return &mailNotifier{mailer: mailer, to: to}
}

func (n *mailNotifier) NotifyRedemption(userID string, redemption domain.RedeemResponse) {
	subject := fmt.Sprintf("Redemption pending fulfillment: %s", redemption.RewardName)
	body := fmt.Sprintf(
		"<p>User <b>%s</b> redeemed <b>%s</b> (%s) for %d points.</p><p>Redemption ID: %s</p>",
		html.EscapeString(userID),
		html.EscapeString(redemption.RewardName),
		html.EscapeString(redemption.RewardID),
		redemption.PointsSpent,
		redemption.RedemptionID,
	)

	go func() {
		if err := n.mailer.SendMail(n.to, subject, body); err != nil {
			zap.L().Warn("failed to send fulfillment notice",
				zap.String("redemption_id", redemption.RedemptionID),
				zap.Error(err),
			)
		}
	}()
}

func NewNopNotifier() RedemptionNotifier {
	return nopNotifier{}
}

func (nopNotifier) NotifyRedemption(string, domain.RedeemResponse) {}
