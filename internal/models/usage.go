// Package models содержит доменные структуры, описывающие учёт использования сервиса.
package models

import "time"

// AnalysisType перечисляет типы тарифицируемых действий.
type AnalysisType string

// Допустимые типы анализа.
const (
	AnalysisDocumentUpload   AnalysisType = "document-upload"
	AnalysisExternalDocFetch AnalysisType = "external-doc-fetch"
)

// Valid сообщает, является ли значение одним из определённых типов анализа.
func (t AnalysisType) Valid() bool {
	return t == AnalysisDocumentUpload || t == AnalysisExternalDocFetch
}

// UsageRecord — запись об одном выполненном анализе.
// Записи только добавляются, никогда не изменяются и не удаляются.
type UsageRecord struct {
	UserUID        string       // Идентификатор пользователя, выполнившего анализ
	AnalysisDate   time.Time    // Момент выполнения анализа
	AnalysisType   AnalysisType // Тип анализа
	FileSize       *int64       // Размер обработанного документа в байтах (опционально)
	ProcessingTime *float64     // Время обработки в секундах (опционально)
}
