package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/internal/azure"
	"github.com/vitaltrack/backend/internal/pdf"
	"github.com/vitaltrack/backend/internal/repository"
	"github.com/vitaltrack/backend/pkg/model"
)

// ReportService manages health report generation
type ReportService struct {
	readings    ReadingRepositoryInterface
	medications MedicationRepositoryInterface
	patients    PatientRepositoryInterface
	analysis    *AnalysisService
	blobClient  azure.BlobStorage
	pdfGen      *pdf.PDFGenerator
	logger      *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	readings ReadingRepositoryInterface,
	medications MedicationRepositoryInterface,
	patients PatientRepositoryInterface,
	analysis *AnalysisService,
	blobClient azure.BlobStorage,
	pdfGen *pdf.PDFGenerator,
	logger *zap.Logger,
) *ReportService {
	return &ReportService{
		readings:    readings,
		medications: medications,
		patients:    patients,
		analysis:    analysis,
		blobClient:  blobClient,
		pdfGen:      pdfGen,
		logger:      logger,
	}
}

// GenerateReport builds a PDF health report for the period and uploads it
// to blob storage. It returns the blob path of the stored report.
func (s *ReportService) GenerateReport(ctx context.Context, patientID string, startDate, endDate time.Time) (string, error) {
	s.logger.Info("generating health report",
		zap.String("patient_id", patientID),
		zap.Time("start_date", startDate),
		zap.Time("end_date", endDate),
	)

	if endDate.Before(startDate) {
		return "", fmt.Errorf("report period end %s is before start %s",
			endDate.Format("2006-01-02"), startDate.Format("2006-01-02"))
	}

	patient, err := s.patients.FindByID(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to get patient for report",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return "", fmt.Errorf("failed to get patient: %w", err)
	}

	readings, err := s.readings.FindByPatient(ctx, patientID, repository.ReadingQuery{Since: &startDate})
	if err != nil {
		s.logger.Error("failed to get readings for report",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return "", fmt.Errorf("failed to get readings: %w", err)
	}
	readings = filterBefore(readings, endDate)

	medications, err := s.medications.FindByPatient(ctx, patientID)
	if err != nil {
		s.logger.Error("failed to get medications for report",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return "", fmt.Errorf("failed to get medications: %w", err)
	}

	// The analysis section is best-effort; a report without it still
	// carries the raw readings and medication list.
	analysis, err := s.analysis.ComprehensiveAnalysis(ctx, patientID)
	if err != nil {
		s.logger.Warn("comprehensive analysis unavailable for report",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		analysis = nil
	}

	dateRange := fmt.Sprintf("%s to %s", startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	reportData := &pdf.ReportData{
		PatientName: patient.Name,
		DateRange:   dateRange,
		Analysis:    analysis,
		Readings:    readings,
		Medications: medications,
	}

	pdfBytes, err := s.pdfGen.Generate(reportData)
	if err != nil {
		s.logger.Error("failed to generate PDF",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return "", fmt.Errorf("failed to generate PDF: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.pdf", uuid.New().String(), time.Now().Format("20060102"))
	blobPath, err := s.blobClient.UploadReport(ctx, filename, pdfBytes)
	if err != nil {
		s.logger.Error("failed to upload PDF to blob storage",
			zap.Error(err),
			zap.String("patient_id", patientID),
		)
		return "", fmt.Errorf("failed to upload PDF: %w", err)
	}

	s.logger.Info("health report generated successfully",
		zap.String("patient_id", patientID),
		zap.String("blob_path", blobPath),
	)

	return blobPath, nil
}

// GetReport retrieves a stored report PDF for download
func (s *ReportService) GetReport(ctx context.Context, blobPath string) ([]byte, error) {
	s.logger.Info("retrieving report",
		zap.String("blob_path", blobPath),
	)

	pdfBytes, err := s.blobClient.DownloadReport(ctx, blobPath)
	if err != nil {
		s.logger.Error("failed to download PDF from blob storage",
			zap.Error(err),
			zap.String("blob_path", blobPath),
		)
		return nil, fmt.Errorf("failed to download PDF: %w", err)
	}

	return pdfBytes, nil
}

// filterBefore drops readings recorded after the report period end.
func filterBefore(readings []model.Reading, cutoff time.Time) []model.Reading {
	filtered := readings[:0]
	for _, r := range readings {
		if !r.RecordedAt.After(cutoff) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}
