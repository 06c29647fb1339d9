// Package billingwebhook реализует HTTP-обработчик входящих событий
// платёжного провайдера. Подлинность события подтверждается HMAC-подписью
// тела запроса в заголовке X-Api-Signature.
package billingwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/otcpublishing/writing-detector/internal/lib/sl"
	"github.com/otcpublishing/writing-detector/internal/services/billing"
)

// Service описывает интерфейс применения события к статусу подписки.
type Service interface {
	ProcessEvent(ctx context.Context, event billing.Event) error
}

// Handler обрабатывает webhook-запросы платёжного провайдера.
type Handler struct {
	log           *slog.Logger // Логгер для записи информации и ошибок
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Payload — тело webhook-события провайдера.
type Payload struct {
	Event  string `json:"event"`
	Object struct {
		ID       string            `json:"id"`       // идентификатор подписки или платежа
		Plan     string            `json:"plan"`     // тариф: "active", "pro" или "business"
		Metadata map[string]string `json:"metadata"` // user_uid, email
	} `json:"object"`
}

// Проверка подписи webhook (X-Api-Signature)
func (h *Handler) verifySignature(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(h.webhookSecret))
	mac.Write(body)
	expectedSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expectedSig), []byte(signature))
}

// ServeHTTP godoc
// @Summary Webhook платёжного провайдера
// @Description Принимает события подписки и переводит пользователя в соответствующий статус.
// @Tags Billing
// @Accept  json
// @Param X-Api-Signature header string true "HMAC-SHA256 подпись тела запроса"
// @Success 200 "Событие обработано"
// @Failure 400 "Некорректное тело события"
// @Failure 401 "Отсутствует или неверна подпись"
// @Failure 500 "Ошибка применения события"
// @Router /billing/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.webhook"
	log := h.log.With(slog.String("op", op))

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get("X-Api-Signature")
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	userUID := payload.Object.Metadata["user_uid"]
	if userUID == "" {
		log.Error("webhook payload missing user_uid")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event := billing.Event{
		Type:    strings.ToLower(payload.Event),
		UserUID: userUID,
		Email:   payload.Object.Metadata["email"],
		Plan:    payload.Object.Plan,
	}
	if err := h.service.ProcessEvent(r.Context(), event); err != nil {
		if errors.Is(err, billing.ErrUnknownEvent) {
			log.Info("ignored webhook event", slog.String("event", payload.Event))
			w.WriteHeader(http.StatusOK)
			return
		}
		log.Error("failed to process webhook event", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("webhook processed successfully",
		slog.String("event", payload.Event), slog.String("user_uid", userUID))
	w.WriteHeader(http.StatusOK)
}
