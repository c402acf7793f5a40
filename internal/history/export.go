package history

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "QuizHistory"

// ExportFilename is the spreadsheet download name.
const ExportFilename = "Quiz_History.xlsx"

var exportHeader = []string{"Name", "Employee No", "Score", "Total", "Result", "Time"}

// ExportXLSX renders attempt records as a spreadsheet, one row per
// attempt in the order given (callers list newest-first).
func ExportXLSX(records []Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return nil, err
	}
	for col, h := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, err
		}
	}

	for i, r := range records {
		result := "Fail"
		if r.Passed {
			result = "Pass"
		}
		values := []interface{}{
			r.Name,
			r.EmployeeNo,
			r.Score,
			r.Total,
			result,
			r.Timestamp.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}
