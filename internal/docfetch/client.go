// Package docfetch реализует клиент для загрузки текста публичных
// Google-документов через export-endpoint.
//
// Вызов однократный, без ретраев; ограниченный таймаут защищает от
// неограниченного ожидания внешнего сервиса. Категоризированные ошибки
// позволяют вернуть пользователю конкретную причину отказа.
package docfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// Категории ошибок загрузки документа.
var (
	// ErrInvalidURL — из ссылки не удалось извлечь идентификатор документа.
	ErrInvalidURL = errors.New("invalid document url")
	// ErrNotFound — документ не существует.
	ErrNotFound = errors.New("document not found")
	// ErrPermissionDenied — документ закрыт для доступа по ссылке.
	ErrPermissionDenied = errors.New("document permission denied")
	// ErrTimeout — внешний сервис не ответил за отведённое время.
	ErrTimeout = errors.New("document fetch timeout")
	// ErrEmptyDocument — документ пуст или его содержимое недоступно.
	ErrEmptyDocument = errors.New("document is empty")
)

// StatusError — неожиданный HTTP-статус от export-endpoint, не попадающий
// ни в одну из именованных категорий.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.Code)
}

// UserMessage возвращает текст для пользователя по категории ошибки.
func UserMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("Failed to access document. Status code: %d", statusErr.Code)
	}
	switch {
	case errors.Is(err, ErrInvalidURL):
		return "Invalid Google Docs URL. Please provide a valid Google Docs link."
	case errors.Is(err, ErrNotFound):
		return "Document not found. Please check the URL."
	case errors.Is(err, ErrPermissionDenied):
		return "Document is private or permission denied. Please make sure the document is shared with 'Anyone with the link can view'."
	case errors.Is(err, ErrTimeout):
		return "Request timeout. The document may be too large or Google Docs is temporarily unavailable."
	case errors.Is(err, ErrEmptyDocument):
		return "Document appears to be empty or inaccessible"
	}
	return "Failed to access document."
}

var docIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/document/d/([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`id=([a-zA-Z0-9-_]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9-_]+)`),
}

// ExtractDocID извлекает идентификатор документа из ссылки в одном из
// поддерживаемых форматов. Возвращает ErrInvalidURL, если ни один не подошёл.
func ExtractDocID(rawURL string) (string, error) {
	for _, pattern := range docIDPatterns {
		if m := pattern.FindStringSubmatch(rawURL); m != nil {
			return m[1], nil
		}
	}
	return "", ErrInvalidURL
}

// Client загружает содержимое документов по их идентификатору.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент с ограниченным таймаутом на запрос.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch загружает плоский текст документа по его идентификатору.
func (c *Client) Fetch(ctx context.Context, docID string) (string, error) {
	const op = "docfetch.Fetch"

	exportURL := fmt.Sprintf("%s/document/d/%s/export?format=txt", c.baseURL, docID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, exportURL, nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%s: %w", op, ErrTimeout)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	case http.StatusForbidden:
		return "", fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	default:
		return "", fmt.Errorf("%s: %w", op, &StatusError{Code: resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%s: %w", op, ErrTimeout)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	content := string(body)
	if len(strings.TrimSpace(content)) < 10 {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyDocument)
	}
	return content, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
