package permission

import (
	"context"
	"fmt"

	common_models "go-bizsuite/internal/common/models"

	"github.com/xuri/excelize/v2"
)

const matrixSheet = "Permissions"

// ExportMatrix renders the caller's organization matrix as an XLSX workbook
func (s *PermissionServiceImpl) ExportMatrix(ctx context.Context, actor common_models.Subject) ([]byte, string, error) {
	m, err := s.Matrix(ctx, actor)
	if err != nil {
		return nil, "", err
	}
	data, err := MatrixToExcel(m)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("permissions-%s.xlsx", m.OrgID), nil
}

// MatrixToExcel writes one row per key and one column per role, followed by
// a sheet with the plan and resolution settings
func MatrixToExcel(m *Matrix) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(matrixSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	allowStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
	})

	headers := []string{"Permission"}
	for _, role := range m.Roles {
		headers = append(headers, string(role))
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(matrixSheet, cell, h)
		f.SetCellStyle(matrixSheet, cell, cell, headerStyle)
	}

	for rowIdx, key := range m.Keys {
		cell, _ := excelize.CoordinatesToCellName(1, rowIdx+2)
		f.SetCellValue(matrixSheet, cell, key)
		for colIdx, role := range m.Roles {
			cell, _ := excelize.CoordinatesToCellName(colIdx+2, rowIdx+2)
			allowed := m.Values[string(role)][key]
			f.SetCellValue(matrixSheet, cell, allowed)
			if allowed {
				f.SetCellStyle(matrixSheet, cell, cell, allowStyle)
			}
		}
	}

	f.SetColWidth(matrixSheet, "A", "A", 32)
	for i := range m.Roles {
		col, _ := excelize.ColumnNumberToName(i + 2)
		f.SetColWidth(matrixSheet, col, col, 12)
	}

	const settingsSheet = "Settings"
	if _, err := f.NewSheet(settingsSheet); err != nil {
		return nil, err
	}
	rows := [][]any{
		{"Organization", m.OrgID},
		{"Plan", m.Plan},
		{"Use global defaults", m.Settings.UseGlobalDefaults},
		{"Override plan presets", m.Settings.OverridePlanPresets},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(settingsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
