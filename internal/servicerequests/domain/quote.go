package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Quote statuses. A quote is priced by staff, then accepted or declined by
// the customer.
const (
	QuoteStatusQuoted   = "Quoted"
	QuoteStatusAccepted = "Accepted"
	QuoteStatusDeclined = "Declined"
)

// QuoteValidity is how long a customer has to accept a priced quote.
const QuoteValidity = 7 * 24 * time.Hour

// Service preferences a customer picks when accepting.
const (
	PreferenceHomePickup    = "home_pickup"
	PreferenceServiceCenter = "service_center"
)

// PickupTier is the urgency a customer pays for on home pickup.
type PickupTier string

const (
	TierRegular   PickupTier = "Regular"
	TierPriority  PickupTier = "Priority"
	TierEmergency PickupTier = "Emergency"
)

var pickupCosts = map[PickupTier]float64{
	TierRegular:   0,
	TierPriority:  500,
	TierEmergency: 1000,
}

// PickupCost returns the surcharge for tier.
func PickupCost(tier PickupTier) (float64, bool) {
	cost, ok := pickupCosts[tier]
	return cost, ok
}

var (
	ErrNotQuoteRequest          = errors.New("service request is not a quote request")
	ErrQuoteAnswered            = errors.New("quote has already been answered")
	ErrQuoteNotOpen             = errors.New("quote is not awaiting a response")
	ErrQuoteExpired             = errors.New("quote has expired")
	ErrInvalidServicePreference = errors.New("valid service preference is required (home_pickup or service_center)")
	ErrPickupTierRequired       = errors.New("pickup tier is required for home pickup service")
	ErrInvalidPickupTier        = errors.New("invalid pickup tier, must be Regular, Priority, or Emergency")
)

const (
	queuedForDropoffMessage = "Your service request has been queued. Please bring your TV to our service center."
	visitScheduledMessage   = "Your visit is scheduled for %s. Please bring your TV to our service center."
	visitDateLayout         = "Monday, January 2, 2006"
)

// QuoteState is the persisted state quote operations are planned against.
type QuoteState struct {
	Snapshot
	QuoteStatus    string
	QuoteAmount    float64
	QuoteExpiresAt *time.Time
}

// StageMove is a stage change carried out as part of a quote operation.
type StageMove struct {
	From Stage
	To   Stage
}

// QuoteOffer is a validated pricing.
type QuoteOffer struct {
	QuotedAt  time.Time
	ExpiresAt time.Time
	// Move is set when the request has not yet reached awaiting_customer.
	Move *StageMove
}

// PlanQuoteOffer validates pricing a quote at now. A quote may be repriced
// until the customer answers it.
func PlanQuoteOffer(st QuoteState, now time.Time) (QuoteOffer, error) {
	sel := SelectFlow(st.Intent, st.Mode)
	if sel.Intent != IntentQuote {
		return QuoteOffer{}, ErrNotQuoteRequest
	}
	if st.QuoteStatus == QuoteStatusAccepted || st.QuoteStatus == QuoteStatusDeclined {
		return QuoteOffer{}, ErrQuoteAnswered
	}

	offer := QuoteOffer{QuotedAt: now, ExpiresAt: now.Add(QuoteValidity)}
	from := st.CurrentStage()
	if i := sel.Flow.IndexOf(from); i >= 0 && i < sel.Flow.IndexOf(StageAwaitingCustomer) {
		offer.Move = &StageMove{From: from, To: StageAwaitingCustomer}
	}
	return offer, nil
}

// QuoteAcceptance is a validated customer acceptance.
type QuoteAcceptance struct {
	ServicePreference string
	// PickupTier is nil for service center visits.
	PickupTier     *string
	PickupCost     float64
	TotalAmount    float64
	ScheduledVisit *time.Time
	TrackingStatus string
	Message        string
	// Move is set when the request waits at awaiting_customer.
	Move *StageMove
}

// PlanQuoteAcceptance validates a customer's acceptance. Home pickup needs
// a tier whose cost is added to the quote; a service center visit may
// carry a preferred date.
func PlanQuoteAcceptance(st QuoteState, preference, tier string, visit *time.Time, now time.Time) (QuoteAcceptance, error) {
	sel := SelectFlow(st.Intent, st.Mode)
	if sel.Intent != IntentQuote {
		return QuoteAcceptance{}, ErrNotQuoteRequest
	}
	if st.QuoteStatus != QuoteStatusQuoted {
		return QuoteAcceptance{}, ErrQuoteNotOpen
	}
	if st.QuoteExpiresAt != nil && now.After(*st.QuoteExpiresAt) {
		return QuoteAcceptance{}, ErrQuoteExpired
	}

	acc := QuoteAcceptance{ServicePreference: preference}
	switch preference {
	case PreferenceHomePickup:
		tier = strings.TrimSpace(tier)
		if tier == "" {
			return QuoteAcceptance{}, ErrPickupTierRequired
		}
		cost, ok := PickupCost(PickupTier(tier))
		if !ok {
			return QuoteAcceptance{}, ErrInvalidPickupTier
		}
		acc.PickupTier = &tier
		acc.PickupCost = cost
		acc.TrackingStatus = TrackingArrivingToReceive
		acc.Message = trackingMessages[TrackingArrivingToReceive]
	case PreferenceServiceCenter:
		acc.TrackingStatus = TrackingQueued
		acc.Message = queuedForDropoffMessage
		if visit != nil {
			v := *visit
			acc.ScheduledVisit = &v
			acc.Message = fmt.Sprintf(visitScheduledMessage, v.Format(visitDateLayout))
		}
	default:
		return QuoteAcceptance{}, ErrInvalidServicePreference
	}

	acc.TotalAmount = st.QuoteAmount + acc.PickupCost
	if st.CurrentStage() == StageAwaitingCustomer && sel.Flow.Contains(StageAuthorized) {
		acc.Move = &StageMove{From: StageAwaitingCustomer, To: StageAuthorized}
	}
	return acc, nil
}

// PlanQuoteDecline validates a customer's refusal. Declining closes the
// request.
func PlanQuoteDecline(st QuoteState) error {
	if SelectFlow(st.Intent, st.Mode).Intent != IntentQuote {
		return ErrNotQuoteRequest
	}
	if st.QuoteStatus != QuoteStatusQuoted {
		return ErrQuoteNotOpen
	}
	return nil
}
