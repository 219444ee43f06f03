package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/digkill/wallify/internal/billing"
	"github.com/digkill/wallify/internal/metrics"
	"github.com/digkill/wallify/internal/models"
)

type PaymentService struct {
	log      *slog.Logger
	users    UserStore
	payments PaymentStore
	gateway  CheckoutGateway
	priceID  string
	baseURL  string
}

// ReturnResult describes a checkout-return verification.
type ReturnResult struct {
	Username string
	Upgraded bool
}

func NewPaymentService(log *slog.Logger, users UserStore, payments PaymentStore, gateway CheckoutGateway, priceID, baseURL string) *PaymentService {
	return &PaymentService{
		log:      log,
		users:    users,
		payments: payments,
		gateway:  gateway,
		priceID:  priceID,
		baseURL:  baseURL,
	}
}

// CreateCheckout opens a subscription checkout and returns the hosted page URL.
func (s *PaymentService) CreateCheckout(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", fmt.Errorf("%w: sign in to subscribe", ErrAuth)
	}

	var email string
	if user, err := s.users.FindByUsername(ctx, username); err != nil {
		s.log.Warn("checkout email lookup failed", "username", username, "err", err)
	} else if user != nil {
		email = user.Email
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, billing.CheckoutRequest{
		Username:   username,
		Email:      email,
		PriceID:    s.priceID,
		SuccessURL: s.baseURL + "/?checkout=success&session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  s.baseURL + "/#pricing",
	})
	if err != nil {
		s.log.Error("create checkout session failed", "username", username, "err", err)
		return "", fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}
	if session.URL == "" {
		return "", fmt.Errorf("%w: checkout session %s has no url", ErrPaymentGateway, session.ID)
	}
	s.log.Info("checkout session created", "username", username, "session_id", session.ID)
	return session.URL, nil
}

// HandleWebhook only fails on verification. Once the signature checks out the
// delivery is acknowledged even if processing fails.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			metrics.WebhookEvents.WithLabelValues("invalid").Inc()
			s.log.Warn("rejected billing webhook", "err", err)
			return fmt.Errorf("%w: %v", ErrWebhookVerification, err)
		}
		s.log.Error("failed to decode billing webhook", "err", err)
		return nil
	}
	metrics.WebhookEvents.WithLabelValues(event.Type).Inc()

	if event.Type != billing.EventCheckoutCompleted {
		s.log.Debug("ignoring billing event", "type", event.Type, "event_id", event.ID)
		return nil
	}
	username := event.Session.Username()
	if username == "" {
		s.log.Warn("checkout completed without username", "event_id", event.ID)
		return nil
	}

	if err := s.upgrade(ctx, username, models.PaymentSourceWebhook); err != nil {
		s.log.Error("premium upgrade from webhook failed", "username", username, "err", err)
		return nil
	}
	s.record(ctx, event.Session, username, models.PaymentSourceWebhook, event.Raw)
	return nil
}

// VerifyReturn confirms a checkout the browser came back from and upgrades
// the buyer when the session is settled.
func (s *PaymentService) VerifyReturn(ctx context.Context, sessionID string) (*ReturnResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", ErrValidation)
	}
	session, err := s.gateway.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	result := &ReturnResult{Username: session.Username()}
	if !session.Paid() || result.Username == "" {
		return result, nil
	}
	if err := s.upgrade(ctx, result.Username, models.PaymentSourceReturn); err != nil {
		return nil, err
	}
	result.Upgraded = true

	raw, err := json.Marshal(session)
	if err != nil {
		raw = []byte("{}")
	}
	s.record(ctx, session, result.Username, models.PaymentSourceReturn, raw)
	return result, nil
}

func (s *PaymentService) upgrade(ctx context.Context, username string, source models.PaymentSource) error {
	found, err := s.users.SetPremium(ctx, username)
	if err != nil {
		return fmt.Errorf("%w: set premium: %v", ErrPersistence, err)
	}
	if !found {
		return fmt.Errorf("%w: user %s", ErrNotFound, username)
	}
	metrics.PremiumUpgrades.WithLabelValues(string(source)).Inc()
	s.log.Info("user upgraded to premium", "username", username, "source", source)
	return nil
}

// record keeps a best-effort audit row; failures never undo the upgrade.
func (s *PaymentService) record(ctx context.Context, session *billing.CheckoutSession, username string, source models.PaymentSource, raw []byte) {
	status := session.PaymentStatus
	if status == "" {
		status = session.Status
	}
	err := s.payments.Record(ctx, &models.Payment{
		Username:          username,
		Provider:          billing.Provider,
		CheckoutSessionID: session.ID,
		Status:            status,
		Source:            source,
		RawPayload:        string(raw),
	})
	if err != nil {
		s.log.Error("failed to record payment", "session_id", session.ID, "err", err)
	}
}
