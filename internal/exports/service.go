// Package exports produces CSV extracts of the lead book, either streamed
// directly or uploaded to object storage behind a presigned link.
package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"previdas_backend/internal/leads/domain"
	"previdas_backend/internal/leads/repository"
	"previdas_backend/platform/config"
	"previdas_backend/platform/logger"
	"previdas_backend/platform/storage"
)

const exportsFolder = "csv"

var csvHeader = []string{"phone", "name", "status", "score", "source", "created_at", "updated_at"}

// LeadLister is the slice of the lead queries this module needs.
type LeadLister interface {
	List(ctx context.Context, params repository.ListParams) ([]domain.Contact, error)
}

// Service builds lead exports.
type Service struct {
	leads   LeadLister
	storage storage.Service
	cfg     config.MinIOConfig
	log     *logger.Logger
}

// New creates the export service. storage may be nil when MinIO is not
// configured; only the presigned upload flow needs it.
func New(leads LeadLister, store storage.Service, cfg config.MinIOConfig, log *logger.Logger) *Service {
	return &Service{leads: leads, storage: store, cfg: cfg, log: log}
}

// BuildCSV renders the filtered lead book as CSV.
func (s *Service) BuildCSV(ctx context.Context, params repository.ListParams) ([]byte, error) {
	leads, err := s.leads.List(ctx, params)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, lead := range leads {
		record := []string{
			lead.Identity,
			lead.Name,
			string(lead.Status),
			strconv.Itoa(lead.Score),
			lead.Source,
			lead.CreatedAt.UTC().Format(time.RFC3339),
			lead.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UploadCSV builds the export, stores it in the exports bucket and returns a
// presigned download link.
func (s *Service) UploadCSV(ctx context.Context, params repository.ListParams) (*storage.PresignedURL, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	data, err := s.BuildCSV(ctx, params)
	if err != nil {
		return nil, err
	}

	bucket := s.cfg.GetMinIOBucketLeadExports()
	if err := s.storage.EnsureBucketExists(ctx, bucket); err != nil {
		return nil, fmt.Errorf("ensure exports bucket: %w", err)
	}

	fileName := fmt.Sprintf("leads-%s.csv", time.Now().UTC().Format("20060102-150405"))
	fileKey, err := s.storage.UploadFile(ctx, bucket, exportsFolder, fileName, "text/csv", bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	s.log.Info("lead export uploaded", "fileKey", fileKey, "bytes", len(data))

	return s.storage.GenerateDownloadURL(ctx, bucket, fileKey)
}
