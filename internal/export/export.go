package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"festreg/internal/models"
)

const xlsxSheet = "Registrations"

func WriteCSV(w io.Writer, regs []models.Registration, games GameLookup) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Rows(regs, games)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// WriteXLSX writes a single-sheet workbook with a frozen header row.
func WriteXLSX(w io.Writer, regs []models.Registration, games GameLookup) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), xlsxSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for idx, row := range Rows(regs, games) {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		if err != nil {
			return err
		}
		cells := make([]interface{}, len(row))
		for i, v := range row {
			cells[i] = v
		}
		if err := f.SetSheetRow(xlsxSheet, axis, &cells); err != nil {
			return fmt.Errorf("write row %d: %w", idx+1, err)
		}
	}

	if err := f.SetPanes(xlsxSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}
