// Package checkout drives the challenge purchase flow: create an order,
// hand off to the payment provider when approval happens off-site, and
// capture to activate the challenge.
package checkout

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"tradesense-go/internal/api"
	"tradesense-go/internal/models"
)

// Payment methods accepted by the backend.
const (
	MethodMock   = "mock"
	MethodPayPal = "paypal"
)

// API is the slice of the backend client the checkout flow needs.
type API interface {
	CreateOrder(planType, paymentMethod string) (*api.Order, error)
	CaptureOrder(orderID, paymentMethod, planType string) (*api.CaptureResult, error)
}

// PlanStorage persists the chosen plan across the off-site payment redirect.
// The provider's callback only carries the order token, so the plan must
// survive locally or the capture cannot complete.
type PlanStorage interface {
	PendingPlan() (string, error)
	SetPendingPlan(plan string) error
	ClearPendingPlan() error
}

// Catalog returns the purchasable challenge tiers. Mirrors the server-side
// catalog so pricing renders without a round trip.
func Catalog() []models.Plan {
	return []models.Plan{
		{
			ID: models.PlanStarter, Name: "Starter", Balance: 5000, Price: 200, Currency: "DH",
			Features: []string{
				"Solde initial de 5 000 $",
				"Perte max journaliere: 5%",
				"Perte max totale: 10%",
				"Objectif de profit: 10%",
				"Support par email",
			},
		},
		{
			ID: models.PlanPro, Name: "Pro", Balance: 10000, Price: 500, Currency: "DH", Popular: true,
			Features: []string{
				"Solde initial de 10 000 $",
				"Perte max journaliere: 5%",
				"Perte max totale: 10%",
				"Objectif de profit: 10%",
				"Support prioritaire",
				"Signaux IA premium",
			},
		},
		{
			ID: models.PlanElite, Name: "Elite", Balance: 25000, Price: 1000, Currency: "DH",
			Features: []string{
				"Solde initial de 25 000 $",
				"Perte max journaliere: 5%",
				"Perte max totale: 10%",
				"Objectif de profit: 10%",
				"Support VIP 24/7",
				"Signaux IA premium",
				"Acces MasterClass complet",
			},
		},
	}
}

// Local validation errors, raised before any network call.
var (
	ErrUnknownPlan   = errors.New("unknown plan type")
	ErrNoPendingPlan = errors.New("no pending plan stored")
	ErrMissingOrder  = errors.New("missing order token")
)

// Result is the outcome of a purchase attempt. Exactly one of Challenge or
// ApprovalURL is set: a challenge when the payment captured immediately, an
// approval URL when the user must approve off-site first.
type Result struct {
	Challenge   *models.Challenge
	ApprovalURL string
}

// Flow orchestrates order creation and capture against the backend.
type Flow struct {
	api    API
	plans  PlanStorage
	logger *zap.Logger
}

// NewFlow creates a checkout flow.
func NewFlow(backend API, plans PlanStorage, logger *zap.Logger) *Flow {
	return &Flow{api: backend, plans: plans, logger: logger}
}

// Purchase starts the checkout for a plan. PayPal orders with an approval
// URL persist the chosen plan locally before handing the URL back, so the
// callback page can complete the capture after the off-site redirect. All
// other methods capture immediately.
func (f *Flow) Purchase(planType, method string) (*Result, error) {
	if !models.ValidPlan(planType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planType)
	}

	order, err := f.api.CreateOrder(planType, method)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	if method == MethodPayPal && order.ApprovalURL != "" {
		// The plan must be durable before we leave the app.
		if err := f.plans.SetPendingPlan(planType); err != nil {
			return nil, fmt.Errorf("failed to persist pending plan: %w", err)
		}
		f.logger.Info("Redirecting for payment approval",
			zap.String("plan", planType), zap.String("order_id", order.OrderID))
		return &Result{ApprovalURL: order.ApprovalURL}, nil
	}

	capture, err := f.api.CaptureOrder(order.OrderID, method, planType)
	if err != nil {
		return nil, fmt.Errorf("failed to capture order: %w", err)
	}

	f.logger.Info("Challenge activated",
		zap.String("plan", planType), zap.String("payment_reference", capture.PaymentReference))
	return &Result{Challenge: capture.Challenge}, nil
}

// CompleteCallback finishes a PayPal purchase after the provider redirects
// back with the order token. The pending plan persisted by Purchase is
// required; it is cleared once the capture succeeds.
func (f *Flow) CompleteCallback(orderToken string) (*models.Challenge, error) {
	if orderToken == "" {
		return nil, ErrMissingOrder
	}

	planType, err := f.plans.PendingPlan()
	if err != nil {
		return nil, fmt.Errorf("failed to read pending plan: %w", err)
	}
	if planType == "" {
		return nil, ErrNoPendingPlan
	}

	capture, err := f.api.CaptureOrder(orderToken, MethodPayPal, planType)
	if err != nil {
		return nil, fmt.Errorf("failed to capture order: %w", err)
	}

	if err := f.plans.ClearPendingPlan(); err != nil {
		f.logger.Error("Failed to clear pending plan", zap.Error(err))
	}

	f.logger.Info("Payment captured", zap.String("payment_reference", capture.PaymentReference))
	return capture.Challenge, nil
}
