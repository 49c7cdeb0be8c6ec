package wallet

import (
	"errors"
	"testing"
	"time"

	"stash-backend/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMail struct {
	to, subject, body string
}

type chanMailer struct {
	sent chan sentMail
	err  error
}

func (m *chanMailer) SendMail(toEmail, subject, body string) error {
	m.sent <- sentMail{to: toEmail, subject: subject, body: body}
	return m.err
}

func TestMailNotifier_SendsNotice(t *testing.T) {
	mailer := &chanMailer{sent: make(chan sentMail, 1)}
	notifier := NewMailNotifier(mailer, "fulfillment@stash.test")

	notifier.NotifyRedemption("<user-1>", domain.RedeemResponse{
		RedemptionID: "r-1",
		RewardID:     "amazon_5",
		RewardName:   "$5 Amazon Gift Card",
		PointsSpent:  500,
	})

	select {
	case mail := <-mailer.sent:
		assert.Equal(t, "fulfillment@stash.test", mail.to)
		assert.Equal(t, "Redemption pending fulfillment: $5 Amazon Gift Card", mail.subject)
		assert.Contains(t, mail.body, "&lt;user-1&gt;")
		assert.Contains(t, mail.body, "500 points")
	case <-time.After(2 * time.Second):
		require.Fail(t, "notice was not sent")
	}
}

func TestMailNotifier_FailureIsSwallowed(t *testing.T) {
	mailer := &chanMailer{sent: make(chan sentMail, 1), err: errors.New("smtp down")}
	notifier := NewMailNotifier(mailer, "fulfillment@stash.test")

	require.NotPanics(t, func() {
		notifier.NotifyRedemption("user-1", domain.RedeemResponse{RedemptionID: "r-1"})
	})

	select {
	case <-mailer.sent:
	case <-time.After(2 * time.Second):
		require.Fail(t, "notice was not attempted")
	}
}
