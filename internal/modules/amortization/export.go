package amortization

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// ScheduleHeader is the column order of schedule exports.
var ScheduleHeader = []string{
	"period",
	"payment",
	"principal",
	"interest",
	"additional_cost",
	"balance",
	"cumulative_interest",
}

// WriteScheduleCSV writes the schedule as comma-separated values with a
// header row and one row per period.
func WriteScheduleCSV(w io.Writer, schedule []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ScheduleHeader); err != nil {
		return fmt.Errorf("failed to write schedule header: %w", err)
	}

	for _, e := range schedule {
		record := []string{
			strconv.Itoa(e.Period),
			cents(e.Payment),
			cents(e.Principal),
			cents(e.Interest),
			cents(e.AdditionalCost),
			cents(e.Balance),
			cents(e.CumulativeInterest),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write period %d: %w", e.Period, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

const (
	scheduleSheet = "Schedule"
	summarySheet  = "Summary"
)

// WriteScheduleXLSX writes a workbook with the schedule and a summary sheet.
func WriteScheduleXLSX(w io.Writer, result Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return fmt.Errorf("failed to name schedule sheet: %w", err)
	}

	for col, title := range ScheduleHeader {
		if err := setCell(f, scheduleSheet, col+1, 1, title); err != nil {
			return err
		}
	}
	for i, e := range result.Schedule {
		row := i + 2
		values := []interface{}{
			e.Period, e.Payment, e.Principal, e.Interest,
			e.AdditionalCost, e.Balance, e.CumulativeInterest,
		}
		for col, v := range values {
			if err := setCell(f, scheduleSheet, col+1, row, v); err != nil {
				return err
			}
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	summary := [][2]interface{}{
		{"principal", result.Principal},
		{"frequency", string(result.Frequency)},
		{"base_payment", result.BasePayment},
		{"additional_cost", result.AdditionalCost},
		{"periodic_payment", result.PeriodicPayment},
		{"total_interest", result.TotalInterest},
		{"total_cost", result.TotalCost},
		{"periods", len(result.Schedule)},
	}
	for i, kv := range summary {
		if err := setCell(f, summarySheet, 1, i+1, kv[0]); err != nil {
			return err
		}
		if err := setCell(f, summarySheet, 2, i+1, kv[1]); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, value interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("invalid cell %d,%d: %w", col, row, err)
	}
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("failed to set %s!%s: %w", sheet, cell, err)
	}
	return nil
}

func cents(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
