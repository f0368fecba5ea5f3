package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/amazon-ynab-reconciler/internal/domain/shared"
	"github.com/amazon-ynab-reconciler/internal/platform/messaging/consumers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockProcessingService struct {
	mock.Mock
}

func (m *MockProcessingService) ProcessReconciliation(ctx context.Context, request *shared.ReconciliationRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

type MockDeadLetterPublisher struct {
	mock.Mock
}

func (m *MockDeadLetterPublisher) PublishToDLQ(ctx context.Context, key string, value []byte, reason string) error {
	args := m.Called(ctx, key, value, reason)
	return args.Error(0)
}

func (m *MockDeadLetterPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestHandleMessage(t *testing.T) {
	logger := slog.Default()

	validRequest := &shared.ReconciliationRequest{
		RunID:          uuid.New(),
		Fragments:      []string{"Order #111-2223334-5556667"},
		Invoices:       map[string]string{"111-2223334-5556667": "<html></html>"},
		IdempotencyKey: "key1",
		CorrelationID:  "corr1",
		Timestamp:      time.Now(),
	}

	validJSON, err := json.Marshal(validRequest)
	require.NoError(t, err)

	tests := []struct {
		name          string
		key           []byte
		value         []byte
		setupMocks    func(svc *MockProcessingService, dlq *MockDeadLetterPublisher)
		expectedError string
	}{
		{
			name:  "successful processing",
			key:   []byte("test-key"),
			value: validJSON,
			setupMocks: func(svc *MockProcessingService, dlq *MockDeadLetterPublisher) {
				svc.On("ProcessReconciliation", mock.Anything, mock.MatchedBy(func(req *shared.ReconciliationRequest) bool {
					return req.RunID == validRequest.RunID &&
						req.Invoices["111-2223334-5556667"] == "<html></html>" &&
						len(req.Fragments) == 1
				})).Return(nil)
			},
		},
		{
			name:  "processing error",
			key:   []byte("test-key"),
			value: validJSON,
			setupMocks: func(svc *MockProcessingService, dlq *MockDeadLetterPublisher) {
				svc.On("ProcessReconciliation", mock.Anything, mock.Anything).Return(errors.New("processing error"))
			},
			expectedError: "processing run",
		},
		{
			name:  "unmarshal error with successful DLQ publish",
			key:   []byte("test-key"),
			value: []byte("invalid json"),
			setupMocks: func(svc *MockProcessingService, dlq *MockDeadLetterPublisher) {
				dlq.On("PublishToDLQ", mock.Anything, "test-key", []byte("invalid json"), mock.Anything).Return(nil)
			},
		},
		{
			name:  "unmarshal error with DLQ publish failure",
			key:   []byte("test-key"),
			value: []byte("invalid json"),
			setupMocks: func(svc *MockProcessingService, dlq *MockDeadLetterPublisher) {
				dlq.On("PublishToDLQ", mock.Anything, "test-key", []byte("invalid json"), mock.Anything).Return(errors.New("dlq error"))
			},
			expectedError: "failed to unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockProcessingService{}
			dlq := &MockDeadLetterPublisher{}
			tt.setupMocks(svc, dlq)

			handler := NewRequestHandler(logger, svc, dlq)
			err := handler.HandleMessage(context.Background(), tt.key, tt.value)

			if tt.expectedError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			svc.AssertExpectations(t)
			dlq.AssertExpectations(t)
		})
	}
}

func TestHandleMessage_WithoutDLQ(t *testing.T) {
	handler := NewRequestHandler(slog.Default(), &MockProcessingService{}, nil)

	err := handler.HandleMessage(context.Background(), []byte("k"), []byte("{"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal")
}

func TestRequestHandler_IsMessageHandler(t *testing.T) {
	handler := NewRequestHandler(slog.Default(), &MockProcessingService{}, nil)
	var _ consumers.MessageHandler = handler.HandleMessage
}
