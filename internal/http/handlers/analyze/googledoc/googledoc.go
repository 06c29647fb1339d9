// Package googledoc реализует HTTP-обработчик загрузки текста публичного
// Google-документа для последующего анализа.
//
// Операция платная: перед загрузкой проверяется право доступа пользователя,
// и при отказе возвращается 402 с причиной, различающей истёкший пробный
// период и истёкшую подписку. После успешной загрузки фиксируется запись
// об использовании.
package googledoc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/otcpublishing/writing-detector/internal/docfetch"
	"github.com/otcpublishing/writing-detector/internal/entitlement"
	"github.com/otcpublishing/writing-detector/internal/http/middlewarectx"
	"github.com/otcpublishing/writing-detector/internal/http/response"
	"github.com/otcpublishing/writing-detector/internal/lib/sl"
	"github.com/otcpublishing/writing-detector/internal/models"
)

// Request — входные данные: ссылка на Google-документ в любом из
// поддерживаемых форматов. Форма ссылки проверяется не валидатором,
// а извлечением идентификатора документа, чтобы некорректная ссылка
// давала тот же ответ, что и ссылка без идентификатора.
type Request struct {
	DocURL string `json:"doc_url" validate:"required"`
}

// Entitlements описывает интерфейс проверки права доступа.
type Entitlements interface {
	Check(ctx context.Context, u *models.User) (entitlement.Decision, error)
}

// Fetcher описывает интерфейс загрузки содержимого документа.
type Fetcher interface {
	Fetch(ctx context.Context, docID string) (string, error)
}

// UsageRecorder описывает интерфейс журнала использований.
type UsageRecorder interface {
	Record(ctx context.Context, userUID string, analysisType models.AnalysisType,
		fileSize *int64, processingTime *float64) error
}

// Handler обрабатывает запросы на анализ Google-документов.
type Handler struct {
	log          *slog.Logger        // Логгер для записи операций и ошибок
	entitlements Entitlements        // Проверка права доступа
	fetcher      Fetcher             // Клиент загрузки документов
	usage        UsageRecorder       // Журнал использований
	validate     *validator.Validate // Валидатор для проверки входных данных
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, entitlements Entitlements, fetcher Fetcher, usage UsageRecorder) *Handler {
	return &Handler{
		log:          log,
		entitlements: entitlements,
		fetcher:      fetcher,
		usage:        usage,
		validate:     validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Загрузить текст Google-документа
// @Description Загружает плоский текст публичного Google-документа по ссылке. Требует активного доступа.
// @Tags Analyze
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body Request true "Ссылка на Google-документ"
// @Success 200 {object} map[string]any "Содержимое документа"
// @Failure 400 {object} response.ErrorResponse "Некорректная ссылка или ошибка загрузки"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 402 {object} response.ErrorResponse "Пробный период или подписка истекли"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /analyze/google-doc [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.analyze.googledoc"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.String("doc_url", req.DocURL))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	user, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		log.Error("user not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	decision, err := h.entitlements.Check(r.Context(), user)
	if err != nil {
		log.Error("entitlement check failed", sl.Err(err))
	}
	if !decision.Allowed {
		log.Info("access denied",
			slog.String("user_uid", user.UUID),
			slog.String("reason", string(decision.Reason)))
		w.WriteHeader(http.StatusPaymentRequired)
		render.JSON(w, r, response.Error(decision.Reason.Message()))
		return
	}

	docID, err := docfetch.ExtractDocID(req.DocURL)
	if err != nil {
		log.Info("invalid document url", slog.String("doc_url", req.DocURL))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(docfetch.UserMessage(err)))
		return
	}

	started := time.Now()
	content, err := h.fetcher.Fetch(r.Context(), docID)
	if err != nil {
		log.Error("failed to fetch document", slog.String("doc_id", docID), sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error(docfetch.UserMessage(err)))
		return
	}
	elapsed := time.Since(started).Seconds()

	fileSize := int64(len(content))
	if err := h.usage.Record(r.Context(), user.UUID, models.AnalysisExternalDocFetch,
		&fileSize, &elapsed); err != nil {
		log.Error("failed to record usage", sl.Err(err))
	}

	log.Info("document fetched",
		slog.String("user_uid", user.UUID),
		slog.String("doc_id", docID),
		slog.Int64("file_size", fileSize))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"content": content,
		"doc_id":  docID,
		"title":   docTitle(docID),
	}))
}

func docTitle(docID string) string {
	if len(docID) > 8 {
		docID = docID[:8]
	}
	return fmt.Sprintf("Google Doc %s...", docID)
}
