package billingwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/otcpublishing/writing-detector/internal/services/billing"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ProcessEvent(ctx context.Context, event billing.Event) error {
	return m.Called(ctx, event).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const testSecret = "test-webhook-secret"

func sign(body string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(body))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestWebhookHandler(t *testing.T) {
	validBody := `{"event":"subscription.activated","object":{"id":"sub-1","plan":"pro","metadata":{"user_uid":"uid-1","email":"user@example.com"}}}`

	tests := []struct {
		name           string
		body           string
		signature      string
		setupMock      func(*MockService)
		expectedStatus int
	}{
		{
			name:      "успешная обработка события",
			body:      validBody,
			signature: sign(validBody),
			setupMock: func(m *MockService) {
				m.On("ProcessEvent", mock.Anything, billing.Event{
					Type:    "subscription.activated",
					UserUID: "uid-1",
					Email:   "user@example.com",
					Plan:    "pro",
				}).Return(nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "отсутствует подпись",
			body:           validBody,
			signature:      "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "неверная подпись",
			body:           validBody,
			signature:      sign(validBody + "tampered"),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "некорректный JSON",
			body:           `{"event":`,
			signature:      sign(`{"event":`),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "отсутствует user_uid",
			body:           `{"event":"subscription.canceled","object":{"metadata":{}}}`,
			signature:      sign(`{"event":"subscription.canceled","object":{"metadata":{}}}`),
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:      "незнакомое событие игнорируется",
			body:      validBody,
			signature: sign(validBody),
			setupMock: func(m *MockService) {
				m.On("ProcessEvent", mock.Anything, mock.Anything).
					Return(billing.ErrUnknownEvent)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:      "ошибка применения события",
			body:      validBody,
			signature: sign(validBody),
			setupMock: func(m *MockService) {
				m.On("ProcessEvent", mock.Anything, mock.Anything).
					Return(errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService, testSecret)

			req := httptest.NewRequest(http.MethodPost, "/billing/webhook", strings.NewReader(tt.body))
			if tt.signature != "" {
				req.Header.Set("X-Api-Signature", tt.signature)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			mockService.AssertExpectations(t)
		})
	}
}
