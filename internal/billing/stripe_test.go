package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testSecret = "whsec_test"

type fakeSessions struct {
	created *stripe.CheckoutSessionParams
	session *stripe.CheckoutSession
	err     error
}

func (f *fakeSessions) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.created = params
	return f.session, f.err
}

func (f *fakeSessions) Get(id string, _ *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if f.err != nil {
		return nil, f.err
	}
	cs := *f.session
	cs.ID = id
	return &cs, nil
}

func TestCreateCheckoutSession(t *testing.T) {
	fake := &fakeSessions{session: &stripe.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}}
	g := &Gateway{sessions: fake}

	cs, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{
		Username:   "alice",
		Email:      "alice@example.com",
		PriceID:    "price_123",
		SuccessURL: "http://localhost:8000/?checkout=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://localhost:8000/#pricing",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", cs.URL)

	p := fake.created
	require.NotNil(t, p)
	assert.Equal(t, "subscription", *p.Mode)
	require.Len(t, p.LineItems, 1)
	assert.Equal(t, "price_123", *p.LineItems[0].Price)
	assert.EqualValues(t, 1, *p.LineItems[0].Quantity)
	assert.Equal(t, "alice", *p.ClientReferenceID)
	assert.Equal(t, "alice", p.Metadata["username"])
	assert.Equal(t, "alice@example.com", *p.CustomerEmail)
}

func TestCreateCheckoutSessionError(t *testing.T) {
	g := &Gateway{sessions: &fakeSessions{err: errors.New("card_declined")}}

	_, err := g.CreateCheckoutSession(context.Background(), CheckoutRequest{Username: "alice", PriceID: "price_123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "card_declined")
}

func TestGetCheckoutSession(t *testing.T) {
	fake := &fakeSessions{session: &stripe.CheckoutSession{
		Mode:          stripe.CheckoutSessionModeSubscription,
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		Metadata:      map[string]string{"username": "bob"},
	}}
	g := &Gateway{sessions: fake}

	cs, err := g.GetCheckoutSession(context.Background(), "cs_2")
	require.NoError(t, err)
	assert.Equal(t, "cs_2", cs.ID)
	assert.True(t, cs.Paid())
	assert.Equal(t, "bob", cs.Username())
}

func TestCheckoutSessionPaid(t *testing.T) {
	cases := []struct {
		name string
		cs   *CheckoutSession
		want bool
	}{
		{"paid subscription", &CheckoutSession{Mode: "subscription", PaymentStatus: "paid"}, true},
		{"complete subscription", &CheckoutSession{Mode: "subscription", PaymentStatus: "unpaid", Status: "complete"}, true},
		{"unpaid open", &CheckoutSession{Mode: "subscription", PaymentStatus: "unpaid", Status: "open"}, false},
		{"one-off payment", &CheckoutSession{Mode: "payment", PaymentStatus: "paid"}, false},
		{"nil", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.cs.Paid())
		})
	}
}

func TestCheckoutSessionUsernameFallback(t *testing.T) {
	cs := &CheckoutSession{ClientReferenceID: "carol"}
	assert.Equal(t, "carol", cs.Username())

	cs.Metadata = map[string]string{"username": "dave"}
	assert.Equal(t, "dave", cs.Username())
}

func completedEventPayload() []byte {
	return []byte(`{
  "id": "evt_1",
  "object": "event",
  "type": "checkout.session.completed",
  "data": {
    "object": {
      "id": "cs_live_1",
      "object": "checkout.session",
      "mode": "subscription",
      "payment_status": "paid",
      "status": "complete",
      "client_reference_id": "alice",
      "metadata": {"username": "alice"}
    }
  }
}`)
}

func TestParseWebhookValidSignature(t *testing.T) {
	g := &Gateway{webhookSecret: testSecret}
	payload := completedEventPayload()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    testSecret,
		Timestamp: time.Now(),
	})

	ev, err := g.ParseWebhook(payload, signed.Header)
	require.NoError(t, err)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	require.NotNil(t, ev.Session)
	assert.Equal(t, "cs_live_1", ev.Session.ID)
	assert.Equal(t, "alice", ev.Session.Username())
	assert.True(t, ev.Session.Paid())
}

func TestParseWebhookRejectsBadSignature(t *testing.T) {
	g := &Gateway{webhookSecret: testSecret}
	payload := completedEventPayload()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    "whsec_other",
		Timestamp: time.Now(),
	})

	_, err := g.ParseWebhook(payload, signed.Header)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSignature))

	_, err = g.ParseWebhook(payload, "")
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestParseWebhookWithoutSecret(t *testing.T) {
	g := &Gateway{}
	_, err := g.ParseWebhook(completedEventPayload(), "t=1,v1=abc")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}
