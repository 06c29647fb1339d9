package repository

import (
	"context"
	"fmt"

	"github.com/otcpublishing/writing-detector/internal/models"
)

// InsertUsageRecord добавляет запись об использовании сервиса.
// Таблица только для добавления, записи не изменяются и не удаляются.
func (s *Storage) InsertUsageRecord(ctx context.Context, record models.UsageRecord) error {
	const op = "storage.InsertUsageRecord"

	query := `INSERT INTO usage_records (user_uid, analysis_date, analysis_type,
			      file_size, processing_time)
			  VALUES ($1, $2, $3, $4, $5);`
	_, err := s.DB.ExecContext(ctx, query,
		record.UserUID, record.AnalysisDate, record.AnalysisType,
		record.FileSize, record.ProcessingTime)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountUsageRecords возвращает количество записей пользователя.
// Используется в отчётах и интеграционных тестах.
func (s *Storage) CountUsageRecords(ctx context.Context, userUID string) (int, error) {
	const op = "storage.CountUsageRecords"

	var count int
	query := `SELECT COUNT(*) FROM usage_records WHERE user_uid = $1`
	if err := s.DB.QueryRowContext(ctx, query, userUID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
