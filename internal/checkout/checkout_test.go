package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"tradesense-go/internal/api"
	"tradesense-go/internal/models"
	"tradesense-go/internal/storage"
)

// MockAPI is a mock implementation of the checkout API slice.
type MockAPI struct {
	mock.Mock
}

func (m *MockAPI) CreateOrder(planType, paymentMethod string) (*api.Order, error) {
	args := m.Called(planType, paymentMethod)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.Order), args.Error(1)
}

func (m *MockAPI) CaptureOrder(orderID, paymentMethod, planType string) (*api.CaptureResult, error) {
	args := m.Called(orderID, paymentMethod, planType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*api.CaptureResult), args.Error(1)
}

func setupTest(t *testing.T) (*Flow, *MockAPI, *storage.Store) {
	t.Helper()
	st, err := storage.Open("file::memory:")
	assert.NoError(t, err)
	mockAPI := new(MockAPI)
	return NewFlow(mockAPI, st, zap.NewNop()), mockAPI, st
}

func TestCatalog(t *testing.T) {
	plans := Catalog()

	assert.Len(t, plans, 3)
	assert.Equal(t, models.PlanStarter, plans[0].ID)
	assert.Equal(t, 10000.0, plans[1].Balance)
	assert.True(t, plans[1].Popular)
	assert.Equal(t, 1000.0, plans[2].Price)
}

func TestPurchase_PayPalPersistsPlanBeforeRedirect(t *testing.T) {
	flow, mockAPI, st := setupTest(t)

	mockAPI.On("CreateOrder", "pro", MethodPayPal).Return(&api.Order{
		OrderID:       "PP-123",
		PaymentMethod: MethodPayPal,
		ApprovalURL:   "https://www.sandbox.paypal.com/checkoutnow?token=PP-123",
	}, nil)

	result, err := flow.Purchase("pro", MethodPayPal)

	assert.NoError(t, err)
	assert.NotEmpty(t, result.ApprovalURL)
	assert.Nil(t, result.Challenge)

	// The chosen plan must survive the off-site redirect.
	pending, err := st.PendingPlan()
	assert.NoError(t, err)
	assert.Equal(t, "pro", pending)

	// Capture is deferred until the provider calls back.
	mockAPI.AssertNotCalled(t, "CaptureOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestPurchase_MockCapturesImmediately(t *testing.T) {
	flow, mockAPI, st := setupTest(t)

	mockAPI.On("CreateOrder", "starter", MethodMock).Return(&api.Order{
		OrderID:       "MOCK-1-1700000000",
		PaymentMethod: MethodMock,
	}, nil)
	mockAPI.On("CaptureOrder", "MOCK-1-1700000000", MethodMock, "starter").Return(&api.CaptureResult{
		Challenge:        &models.Challenge{ID: 9, PlanType: "starter", Status: models.ChallengeActive},
		PaymentReference: "MOCK-1-1700000000",
	}, nil)

	result, err := flow.Purchase("starter", MethodMock)

	assert.NoError(t, err)
	assert.Empty(t, result.ApprovalURL)
	assert.Equal(t, models.ChallengeActive, result.Challenge.Status)

	pending, _ := st.PendingPlan()
	assert.Empty(t, pending, "immediate captures never persist a pending plan")
}

func TestPurchase_UnknownPlan(t *testing.T) {
	flow, mockAPI, _ := setupTest(t)

	_, err := flow.Purchase("platinum", MethodMock)

	assert.ErrorIs(t, err, ErrUnknownPlan)
	mockAPI.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestCompleteCallback_ReadsPersistedPlan(t *testing.T) {
	flow, mockAPI, st := setupTest(t)
	assert.NoError(t, st.SetPendingPlan("elite"))

	mockAPI.On("CaptureOrder", "PP-456", MethodPayPal, "elite").Return(&api.CaptureResult{
		Challenge:        &models.Challenge{ID: 10, PlanType: "elite", Status: models.ChallengeActive},
		PaymentReference: "PP-456",
	}, nil)

	challenge, err := flow.CompleteCallback("PP-456")

	assert.NoError(t, err)
	assert.Equal(t, "elite", challenge.PlanType)

	pending, _ := st.PendingPlan()
	assert.Empty(t, pending, "pending plan cleared after a successful capture")
}

func TestCompleteCallback_NoPendingPlan(t *testing.T) {
	flow, mockAPI, _ := setupTest(t)

	_, err := flow.CompleteCallback("PP-789")

	assert.ErrorIs(t, err, ErrNoPendingPlan)
	mockAPI.AssertNotCalled(t, "CaptureOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteCallback_MissingOrderToken(t *testing.T) {
	flow, mockAPI, st := setupTest(t)
	assert.NoError(t, st.SetPendingPlan("pro"))

	_, err := flow.CompleteCallback("")

	assert.ErrorIs(t, err, ErrMissingOrder)
	mockAPI.AssertNotCalled(t, "CaptureOrder", mock.Anything, mock.Anything, mock.Anything)
}

func TestCompleteCallback_CaptureFailureKeepsPendingPlan(t *testing.T) {
	flow, mockAPI, st := setupTest(t)
	assert.NoError(t, st.SetPendingPlan("pro"))

	mockAPI.On("CaptureOrder", "PP-999", MethodPayPal, "pro").
		Return(nil, &api.Error{StatusCode: 400, Message: "PayPal payment capture failed"})

	_, err := flow.CompleteCallback("PP-999")

	assert.Error(t, err)

	// The user may retry; the plan stays until a capture succeeds.
	pending, _ := st.PendingPlan()
	assert.Equal(t, "pro", pending)
}
