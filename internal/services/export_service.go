package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tetex-tech/exam-service/internal/utils"
)

type exportService struct {
	logger utils.Logger
}

func NewExportService(logger utils.Logger) ExportService {
	return &exportService{
		logger: logger.With("service", "export"),
	}
}

// ExportWorkbook renders a decoded submission as an xlsx workbook with a
// summary sheet and a per-question answer sheet.
func (s *exportService) ExportWorkbook(ctx context.Context, decoded *DecodedSubmission) ([]byte, error) {
	if decoded == nil || decoded.Payload.Result == nil {
		return nil, fmt.Errorf("%w: nothing to export", ErrExportFailed)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f := excelize.NewFile()

	if err := s.writeSummarySheet(f, decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}
	if err := s.writeAnswerSheet(f, decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	// excelize creates "Sheet1" by default; everything lives on our own sheets.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	s.logger.Info("Workbook exported",
		"exam_id", decoded.Payload.ExamID,
		"username", decoded.Payload.Username,
		"questions", len(decoded.Review))

	return buf.Bytes(), nil
}

func (s *exportService) writeSummarySheet(f *excelize.File, decoded *DecodedSubmission) error {
	const sheetName = "Summary"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)

	payload := decoded.Payload
	report := payload.Result

	rows := [][]interface{}{
		{"Exam ID", payload.ExamID},
		{"Username", payload.Username},
		{"Submitted At", time.UnixMilli(payload.Timestamp).UTC().Format("2006-01-02 15:04:05")},
		{"Total Points", report.TotalPoints},
		{"Earned Points", report.EarnedPoints},
		{"Percentage", fmt.Sprintf("%.2f%%", report.Percentage)},
		{"Answered", report.AnsweredCount},
		{"Total Questions", report.TotalQuestions},
	}
	if report.SkippedQuestions > 0 {
		rows = append(rows, []interface{}{"Skipped (no answer key)", report.SkippedQuestions})
	}
	if decoded.TimeLimit != nil {
		rows = append(rows, []interface{}{"Time Limit (minutes)", *decoded.TimeLimit})
	}
	rows = append(rows,
		[]interface{}{"User Agent", payload.Metadata.UserAgent},
		[]interface{}{"Platform", payload.Metadata.Platform},
		[]interface{}{"Language", payload.Metadata.Language},
	)

	for rowIndex, row := range rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+1)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(sheetName, "A", "B", 32)
}

func (s *exportService) writeAnswerSheet(f *excelize.File, decoded *DecodedSubmission) error {
	const sheetName = "Answers"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	headers := []string{
		"Question ID", "Question", "Type", "Given Answer", "Correct Answer",
		"Earned", "Possible", "Status",
	}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return err
		}
	}

	for rowIndex, row := range decoded.Review {
		values := []interface{}{
			row.QuestionID,
			row.QuestionText,
			row.QuestionType,
			row.GivenAnswer,
			row.CorrectAnswer,
			row.EarnedPoints,
			row.PossiblePoints,
			row.Status,
		}
		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}

	return f.SetColWidth(sheetName, "B", "E", 40)
}
