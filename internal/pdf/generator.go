package pdf

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"go.uber.org/zap"

	"github.com/vitaltrack/backend/pkg/model"
)

// PDFGenerator generates professional medical reports
type PDFGenerator struct {
	logger *zap.Logger
}

// NewPDFGenerator creates a new PDFGenerator
func NewPDFGenerator(logger *zap.Logger) *PDFGenerator {
	return &PDFGenerator{
		logger: logger,
	}
}

// ReportData contains all data needed for report generation
type ReportData struct {
	PatientName string
	DateRange   string
	Analysis    *model.AnalysisResult
	Readings    []model.Reading
	Medications []model.Medication
}

// Generate creates a PDF report from the provided data
func (g *PDFGenerator) Generate(data *ReportData) ([]byte, error) {
	g.logger.Info("generating PDF report",
		zap.String("patient_name", data.PatientName),
		zap.String("date_range", data.DateRange),
	)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()

	g.addTitle(pdf, "Health Report", data.PatientName, data.DateRange)
	g.addRiskSummary(pdf, data.Analysis)
	g.addTrends(pdf, data.Analysis)
	g.addReadingsByType(pdf, data.Readings)
	g.addAdherence(pdf, data.Analysis)
	g.addMedicationList(pdf, data.Medications)
	g.addRecommendations(pdf, data.Analysis)

	var buf bytes.Buffer
	err := pdf.Output(&buf)
	if err != nil {
		g.logger.Error("failed to generate PDF", zap.Error(err))
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	g.logger.Info("PDF report generated successfully",
		zap.Int("size_bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

// addTitle adds the report title and header information
func (g *PDFGenerator) addTitle(pdf *gofpdf.Fpdf, title, patientName, dateRange string) {
	pdf.SetFont("Arial", "B", 20)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 12)
	pdf.CellFormat(0, 8, fmt.Sprintf("Patient: %s", patientName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Period: %s", dateRange), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated: %s", time.Now().Format("2006-01-02 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(10)
}

// addSectionHeader adds a section header
func (g *PDFGenerator) addSectionHeader(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(0, 10, title, "", 1, "L", true, 0, "")
	pdf.Ln(3)
	pdf.SetFont("Arial", "", 10)
}

// addRiskSummary adds the overall risk level and insights
func (g *PDFGenerator) addRiskSummary(pdf *gofpdf.Fpdf, analysis *model.AnalysisResult) {
	g.addSectionHeader(pdf, "Risk Summary")

	if analysis == nil {
		pdf.CellFormat(0, 8, "No analysis available for this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Overall Risk Level: %s", strings.ToUpper(string(analysis.RiskLevel))), "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)

	for _, insight := range analysis.Insights {
		pdf.CellFormat(0, 5, fmt.Sprintf("  - %s", insight), "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

// addTrends adds the per-type trend section
func (g *PDFGenerator) addTrends(pdf *gofpdf.Fpdf, analysis *model.AnalysisResult) {
	g.addSectionHeader(pdf, "Trends")

	if analysis == nil || len(analysis.Trends) == 0 {
		pdf.CellFormat(0, 8, "Not enough data to detect trends.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	types := make([]model.DataType, 0, len(analysis.Trends))
	for dataType := range analysis.Trends {
		types = append(types, dataType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, dataType := range types {
		trend := analysis.Trends[dataType]
		line := fmt.Sprintf("%s: %s (%s confidence)", readableType(dataType), trend.Direction, trend.Confidence)
		if trend.Direction != model.TrendInsufficientData {
			line = fmt.Sprintf("%s, %.1f%% change", line, trend.PercentageChange)
		}
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(5)
}

// addReadingsByType adds the recent readings per data type
func (g *PDFGenerator) addReadingsByType(pdf *gofpdf.Fpdf, readings []model.Reading) {
	g.addSectionHeader(pdf, "Recent Readings")

	if len(readings) == 0 {
		pdf.CellFormat(0, 8, "No readings recorded during this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	byType := make(map[model.DataType][]model.Reading)
	for _, reading := range readings {
		byType[reading.DataType] = append(byType[reading.DataType], reading)
	}

	types := make([]model.DataType, 0, len(byType))
	for dataType := range byType {
		types = append(types, dataType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, dataType := range types {
		group := byType[dataType]
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("%s (%d readings)", readableType(dataType), len(group)), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)

		// Most recent first, at most ten per type
		sort.Slice(group, func(i, j int) bool { return group[i].RecordedAt.After(group[j].RecordedAt) })
		maxReadings := 10
		if len(group) < maxReadings {
			maxReadings = len(group)
		}
		for i := 0; i < maxReadings; i++ {
			reading := group[i]
			pdf.CellFormat(0, 5, fmt.Sprintf("  %s: %s %s (%s)",
				reading.RecordedAt.Format("2006-01-02 15:04"),
				reading.Value.String(), reading.Unit, reading.RiskLevel), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
	pdf.Ln(5)
}

// addAdherence adds the medication adherence section
func (g *PDFGenerator) addAdherence(pdf *gofpdf.Fpdf, analysis *model.AnalysisResult) {
	g.addSectionHeader(pdf, "Medication Adherence")

	if analysis == nil || analysis.AdherenceScore == nil {
		pdf.CellFormat(0, 8, "No adherence data recorded.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	pdf.CellFormat(0, 6, fmt.Sprintf("Adherence over the last week: %d%%", *analysis.AdherenceScore), "", 1, "L", false, 0, "")
	pdf.Ln(5)
}

// addMedicationList adds medication list section
func (g *PDFGenerator) addMedicationList(pdf *gofpdf.Fpdf, medications []model.Medication) {
	g.addSectionHeader(pdf, "Medication List")

	if len(medications) == 0 {
		pdf.CellFormat(0, 8, "No medications recorded.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	for _, med := range medications {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, med.Name, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 5, fmt.Sprintf("  Dosage: %s", med.Dosage), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("  Dose Times: %s", strings.Join(med.DoseTimes, ", ")), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("  Start Date: %s", med.StartDate.Format("2006-01-02")), "", 1, "L", false, 0, "")
		if med.EndDate != nil {
			pdf.CellFormat(0, 5, fmt.Sprintf("  End Date: %s", med.EndDate.Format("2006-01-02")), "", 1, "L", false, 0, "")
		}
		if med.Notes != nil && *med.Notes != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Notes: %s", *med.Notes), "", 1, "L", false, 0, "")
		}
		pdf.Ln(3)
	}
	pdf.Ln(5)
}

// addRecommendations adds the recommendations section
func (g *PDFGenerator) addRecommendations(pdf *gofpdf.Fpdf, analysis *model.AnalysisResult) {
	g.addSectionHeader(pdf, "Recommendations")

	if analysis == nil || len(analysis.Recommendations) == 0 {
		pdf.CellFormat(0, 8, "No recommendations for this period.", "", 1, "L", false, 0, "")
		pdf.Ln(5)
		return
	}

	for _, rec := range analysis.Recommendations {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(0, 6, fmt.Sprintf("[%s] %s", strings.ToUpper(string(rec.Priority)), rec.Message), "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		if rec.Action != "" {
			pdf.CellFormat(0, 5, fmt.Sprintf("  Action: %s", rec.Action), "", 1, "L", false, 0, "")
		}
		pdf.Ln(2)
	}
	pdf.Ln(5)
}

func readableType(dt model.DataType) string {
	return strings.ReplaceAll(string(dt), "_", " ")
}
