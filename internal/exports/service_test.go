package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"
	"time"

	"previdas_backend/internal/leads/domain"
	"previdas_backend/internal/leads/repository"
	"previdas_backend/platform/logger"
	"previdas_backend/platform/storage"
)

type staticLister struct {
	leads []domain.Contact
	got   repository.ListParams
}

func (s *staticLister) List(_ context.Context, params repository.ListParams) ([]domain.Contact, error) {
	s.got = params
	return s.leads, nil
}

type fakeStorage struct {
	buckets  []string
	uploaded []byte
	fileKey  string
}

func (f *fakeStorage) UploadFile(_ context.Context, _, folder, fileName, _ string, reader io.Reader, _ int64) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.uploaded = data
	f.fileKey = folder + "/" + fileName
	return f.fileKey, nil
}

func (f *fakeStorage) GenerateDownloadURL(_ context.Context, bucket, fileKey string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{
		URL:       "https://minio.local/" + bucket + "/" + fileKey,
		FileKey:   fileKey,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}, nil
}

func (f *fakeStorage) DeleteObject(_ context.Context, _, _ string) error { return nil }

func (f *fakeStorage) EnsureBucketExists(_ context.Context, bucket string) error {
	f.buckets = append(f.buckets, bucket)
	return nil
}

type exportConfig struct{}

func (exportConfig) GetMinIOEndpoint() string          { return "minio.local:9000" }
func (exportConfig) GetMinIOAccessKey() string         { return "ak" }
func (exportConfig) GetMinIOSecretKey() string         { return "sk" }
func (exportConfig) GetMinIOUseSSL() bool              { return false }
func (exportConfig) GetMinIOBucketLeadExports() string { return "lead-exports" }
func (exportConfig) IsMinIOEnabled() bool              { return true }

func sampleLeads() []domain.Contact {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return []domain.Contact{
		{Identity: "5511999998888", Name: "Maria", Status: domain.StatusQualified, Score: 92, Source: "whatsapp", CreatedAt: now, UpdatedAt: now},
		{Identity: "5511988887777", Name: "", Status: domain.StatusCold, Score: 20, Source: "site", CreatedAt: now, UpdatedAt: now},
	}
}

func TestBuildCSV(t *testing.T) {
	lister := &staticLister{leads: sampleLeads()}
	svc := New(lister, nil, exportConfig{}, logger.New("test"))

	data, err := svc.BuildCSV(context.Background(), repository.ListParams{Status: "qualified", Limit: 100})
	if err != nil {
		t.Fatalf("BuildCSV: %v", err)
	}
	if lister.got.Status != "qualified" {
		t.Fatalf("filter not forwarded, got %+v", lister.got)
	}

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header plus 2 rows", len(records))
	}
	if records[0][0] != "phone" || records[0][3] != "score" {
		t.Fatalf("unexpected header: %v", records[0])
	}
	if records[1][0] != "5511999998888" || records[1][2] != "qualified" || records[1][3] != "92" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
}

func TestUploadCSV(t *testing.T) {
	store := &fakeStorage{}
	svc := New(&staticLister{leads: sampleLeads()}, store, exportConfig{}, logger.New("test"))

	url, err := svc.UploadCSV(context.Background(), repository.ListParams{})
	if err != nil {
		t.Fatalf("UploadCSV: %v", err)
	}
	if len(store.buckets) != 1 || store.buckets[0] != "lead-exports" {
		t.Fatalf("bucket not ensured: %v", store.buckets)
	}
	if !strings.HasPrefix(store.fileKey, "csv/leads-") || !strings.HasSuffix(store.fileKey, ".csv") {
		t.Fatalf("unexpected file key %q", store.fileKey)
	}
	if !bytes.Contains(store.uploaded, []byte("5511988887777")) {
		t.Fatal("uploaded CSV missing lead row")
	}
	if url == nil || !strings.Contains(url.URL, store.fileKey) {
		t.Fatalf("presigned URL does not reference the file key: %+v", url)
	}
}

func TestUploadCSVWithoutStorage(t *testing.T) {
	svc := New(&staticLister{}, nil, exportConfig{}, logger.New("test"))
	if _, err := svc.UploadCSV(context.Background(), repository.ListParams{}); err == nil {
		t.Fatal("expected error when storage is not configured")
	}
}
