// Package usage отвечает за журнал выполненных анализов.
// Журнал append-only: записи создаются и подсчитываются, но никогда
// не изменяются и не удаляются.
package usage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/otcpublishing/writing-detector/internal/models"
)

// Repository описывает контракт для хранения записей об использовании.
type Repository interface {
	InsertUsageRecord(ctx context.Context, record models.UsageRecord) error
	CountUsageRecords(ctx context.Context, userUID string) (int, error)
}

// Service записывает факты выполненных анализов.
type Service struct {
	records Repository
	log     *slog.Logger
}

// New создает новый экземпляр Service.
func New(records Repository, log *slog.Logger) *Service {
	return &Service{records: records, log: log}
}

// Record добавляет запись о выполненном анализе. fileSize и processingTime
// опциональны: nil означает, что метрика неприменима к данному типу анализа.
func (s *Service) Record(ctx context.Context, userUID string, analysisType models.AnalysisType,
	fileSize *int64, processingTime *float64) error {
	const op = "usage.Record"

	if !analysisType.Valid() {
		return fmt.Errorf("%s: unknown analysis type %q", op, analysisType)
	}

	record := models.UsageRecord{
		UserUID:        userUID,
		AnalysisDate:   time.Now().UTC(),
		AnalysisType:   analysisType,
		FileSize:       fileSize,
		ProcessingTime: processingTime,
	}
	if err := s.records.InsertUsageRecord(ctx, record); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("usage recorded",
		slog.String("user_uid", userUID),
		slog.String("analysis_type", string(analysisType)))
	return nil
}

// Count возвращает количество анализов, выполненных пользователем.
func (s *Service) Count(ctx context.Context, userUID string) (int, error) {
	const op = "usage.Count"

	n, err := s.records.CountUsageRecords(ctx, userUID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
