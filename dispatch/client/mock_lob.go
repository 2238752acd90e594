package client

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/creditarchitect/dispatch-app/dispatch/models"
)

// MockMailClient is a testify mock of MailClient for tests that must not
// reach the provider.
type MockMailClient struct {
	mock.Mock
}

func (m *MockMailClient) VerifyAddress(ctx context.Context, addr models.Address) (models.VerificationResult, error) {
	args := m.Called(ctx, addr)
	return args.Get(0).(models.VerificationResult), args.Error(1)
}

func (m *MockMailClient) SendLetter(ctx context.Context, from, to models.Address, letterHTML string, opts SendOptions) (models.SendResult, error) {
	args := m.Called(ctx, from, to, letterHTML, opts)
	return args.Get(0).(models.SendResult), args.Error(1)
}

func (m *MockMailClient) FetchStatus(ctx context.Context, providerID string) (models.DeliveryStatus, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).(models.DeliveryStatus), args.Error(1)
}
