package server

import (
	"fmt"

	"toytrack/internal/models"

	"github.com/xuri/excelize/v2"
)

// OrdersExportHeader 订单导出表头
var OrdersExportHeader = []string{
	"Order ID",
	"Toy ID",
	"Toy Name",
	"Category",
	"RFID UID",
	"Assigned Person",
	"Department",
	"Total Amount",
	"Status",
	"Created At",
}

// GenerateOrdersExport 生成订单清单 Excel 文件
func GenerateOrdersExport(orders []models.Order) ([]byte, error) {
	f := excelize.NewFile()
	// WriteToBuffer 之前不能 Close

	sheetName := "Orders"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	// 删除默认的 Sheet1
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	// 表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range OrdersExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to build cell name: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	lastHeaderCell, _ := excelize.CoordinatesToCellName(len(OrdersExportHeader), 1)
	if err := f.SetCellStyle(sheetName, "A1", lastHeaderCell, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to apply header style: %w", err)
	}

	for rowIdx, order := range orders {
		values := []interface{}{
			order.ID,
			order.ToyID,
			order.ToyName,
			order.Category,
			order.RFIDUID,
			order.AssignedPerson,
			order.Department,
			order.TotalAmount,
			order.Status,
			order.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write order row: %w", err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	f.Close()
	return buf.Bytes(), nil
}
