// Package export writes finished attempt results to XLSX workbooks.
package export

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/quizpath/internal/quiz"
)

// SummarySheet lists one row per attempt.
const SummarySheet = "Results"

const timeLayout = "2006-01-02 15:04:05"

var summaryHeaders = []string{
	"Attempt", "Quiz", "Started At", "Submitted At",
	"Correct", "Total", "Score (%)", "Time Spent (minutes)",
}

var detailHeaders = []string{
	"#", "Question", "Type", "Your Answer", "Correct Answer", "Result",
}

// ErrNoResults is returned when there is nothing to export.
var ErrNoResults = errors.New("no results to export")

// Workbook builds a workbook with a summary sheet and one detail sheet per
// attempt.
func Workbook(results []*quiz.AttemptResult) (*excelize.File, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(SummarySheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		f.Close()
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	if err := writeRow(f, SummarySheet, 1, toRow(summaryHeaders)); err != nil {
		f.Close()
		return nil, err
	}
	for i, r := range results {
		if err := writeRow(f, SummarySheet, i+2, summaryRow(r)); err != nil {
			f.Close()
			return nil, err
		}
		if err := writeDetail(f, r); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

// Bytes renders results as an XLSX document.
func Bytes(results []*quiz.AttemptResult) ([]byte, error) {
	f, err := Workbook(results)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile saves results to path.
func WriteFile(path string, results []*quiz.AttemptResult) error {
	data, err := Bytes(results)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DetailSheet names the per-attempt sheet.
func DetailSheet(attemptID int64) string {
	return fmt.Sprintf("Attempt %d", attemptID)
}

func summaryRow(r *quiz.AttemptResult) []any {
	submitted := ""
	if r.CompletedAt != nil {
		submitted = r.CompletedAt.Format(timeLayout)
	}
	return []any{
		r.AttemptID,
		r.QuizTitle,
		r.StartedAt.Format(timeLayout),
		submitted,
		r.CorrectAnswers,
		r.TotalQuestions,
		r.Score,
		r.AttemptTime / 60,
	}
}

func writeDetail(f *excelize.File, r *quiz.AttemptResult) error {
	sheet := DetailSheet(r.AttemptID)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := writeRow(f, sheet, 1, toRow(detailHeaders)); err != nil {
		return err
	}
	for i, q := range r.Questions {
		row := []any{i + 1, q.Text, string(q.Type), given(q), expected(q), verdict(q)}
		if err := writeRow(f, sheet, i+2, row); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "B", "B", 60)
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toRow(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func given(q quiz.QuestionResult) string {
	if q.Type == quiz.OpenEnded {
		return q.TextResponse
	}
	var picked []string
	for _, a := range q.Answers {
		if a.IsSelected {
			picked = append(picked, a.Text)
		}
	}
	return strings.Join(picked, "; ")
}

func expected(q quiz.QuestionResult) string {
	var correct []string
	for _, a := range q.Answers {
		if a.IsCorrect {
			correct = append(correct, a.Text)
		}
	}
	return strings.Join(correct, "; ")
}

func verdict(q quiz.QuestionResult) string {
	switch {
	case q.IsCorrect:
		return "Correct"
	case q.Type == quiz.OpenEnded && q.TextResponse == "":
		return "Unanswered"
	case q.Type != quiz.OpenEnded && given(q) == "":
		return "Unanswered"
	default:
		return "Incorrect"
	}
}
