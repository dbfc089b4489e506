package service

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

var orderExportHeaders = []string{
	"订单ID", "需求ID", "报价ID", "买方ID", "供应商ID",
	"成交金额", "交付日期", "付款条款", "状态", "下单时间",
}

// ExportOrders 导出订单为Excel
func (s *ProcurementService) ExportOrders(ctx context.Context, filters map[string]string) (*excelize.File, string, error) {
	orders, err := s.orderRepo.FindAll(ctx, filters)
	if err != nil {
		return nil, "", fmt.Errorf("查询订单失败: %w", err)
	}

	f := excelize.NewFile()
	sheet := "Orders"
	f.SetSheetName("Sheet1", sheet)

	boldStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, h := range orderExportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}

	for row, order := range orders {
		values := []interface{}{
			order.ID, order.RequestID, order.QuoteID, order.BuyerID, order.VendorID,
			order.FinalPrice, order.DeliveryDate, order.PaymentTerms, order.Status,
			order.OrderDate.Format("2006-01-02 15:04:05"),
		}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row+2), v)
		}
	}

	widths := []float64{34, 34, 34, 34, 34, 14, 14, 16, 12, 20}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}

	filename := fmt.Sprintf("orders_%s.xlsx", time.Now().Format("20060102_150405"))
	return f, filename, nil
}
