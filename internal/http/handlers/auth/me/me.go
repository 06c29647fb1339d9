// Package me реализует HTTP-обработчик для получения профиля текущего
// пользователя вместе со счётчиком выполненных анализов.
package me

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/otcpublishing/writing-detector/internal/http/middlewarectx"
	"github.com/otcpublishing/writing-detector/internal/http/response"
	"github.com/otcpublishing/writing-detector/internal/lib/sl"
)

// UsageCounter описывает интерфейс подсчёта выполненных анализов.
type UsageCounter interface {
	Count(ctx context.Context, userUID string) (int, error)
}

// Handler возвращает публичный профиль пользователя из контекста запроса.
type Handler struct {
	log   *slog.Logger
	usage UsageCounter
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, usage UsageCounter) *Handler {
	return &Handler{log: log, usage: usage}
}

// ServeHTTP godoc
// @Summary Профиль текущего пользователя
// @Description Возвращает публичный профиль пользователя и количество выполненных анализов.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Профиль пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Router /auth/me [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.me"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	data := map[string]any{
		"user": user.Public(),
	}
	// Счётчик вторичен: его недоступность не должна ломать профиль.
	if count, err := h.usage.Count(r.Context(), user.UUID); err != nil {
		log.Error("failed to count usage records", sl.Err(err))
	} else {
		data["analyses_count"] = count
	}

	log.Info("profile returned", slog.String("email", user.Email))
	render.JSON(w, r, response.StatusOKWithData(data))
}
