package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	Provider               = "stripe"
	EventCheckoutCompleted = "checkout.session.completed"
)

var ErrInvalidSignature = errors.New("invalid webhook signature")

type CheckoutRequest struct {
	Username   string
	Email      string
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// CheckoutSession is the subset of a Stripe checkout session the app reads.
type CheckoutSession struct {
	ID                string
	URL               string
	Mode              string
	PaymentStatus     string
	Status            string
	ClientReferenceID string
	Metadata          map[string]string
}

// Username resolves the buyer: metadata first, then client_reference_id.
func (s *CheckoutSession) Username() string {
	if s == nil {
		return ""
	}
	if u := s.Metadata["username"]; u != "" {
		return u
	}
	return s.ClientReferenceID
}

// Paid reports whether a subscription checkout has settled.
func (s *CheckoutSession) Paid() bool {
	if s == nil || s.Mode != string(stripe.CheckoutSessionModeSubscription) {
		return false
	}
	return s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid) ||
		s.Status == string(stripe.CheckoutSessionStatusComplete)
}

type Event struct {
	ID      string
	Type    string
	Session *CheckoutSession
	Raw     []byte
}

type sessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type Gateway struct {
	sessions      sessionAPI
	webhookSecret string
}

func NewGateway(secretKey, webhookSecret string) *Gateway {
	sc := client.New(secretKey, nil)
	return &Gateway{sessions: sc.CheckoutSessions, webhookSecret: webhookSecret}
}

func (g *Gateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.Username),
		Metadata:          map[string]string{"username": req.Username},
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	cs, err := g.sessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return fromStripe(cs), nil
}

func (g *Gateway) GetCheckoutSession(ctx context.Context, id string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	cs, err := g.sessions.Get(id, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session %s: %w", id, err)
	}
	return fromStripe(cs), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// Checkout completion events carry the session.
func (g *Gateway) ParseWebhook(payload []byte, signature string) (*Event, error) {
	if g.webhookSecret == "" {
		return nil, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}

	ev, err := webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type), Raw: payload}
	if out.Type == EventCheckoutCompleted && ev.Data != nil {
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.Session = fromStripe(&cs)
	}
	return out, nil
}

func fromStripe(cs *stripe.CheckoutSession) *CheckoutSession {
	if cs == nil {
		return nil
	}
	return &CheckoutSession{
		ID:                cs.ID,
		URL:               cs.URL,
		Mode:              string(cs.Mode),
		PaymentStatus:     string(cs.PaymentStatus),
		Status:            string(cs.Status),
		ClientReferenceID: cs.ClientReferenceID,
		Metadata:          cs.Metadata,
	}
}
