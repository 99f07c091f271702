// Package export renders a batch run as an XLSX report for review.
package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/pdmoraes/jurisdigest/constants"
	"github.com/pdmoraes/jurisdigest/internal/docs"
)

type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// BatchReportXLSX returns an XLSX workbook (as bytes) with one row per
// processed document.
func (s *Service) BatchReportXLSX(batch *docs.BatchResult) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Documentos"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		_, err := f.NewSheet(sheet)
		if err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	// Drop the default sheet so the report opens on Documentos.
	_ = f.DeleteSheet("Sheet1")

	headers := []string{
		"Arquivo",
		"Status",
		"Tipo de Documento",
		"Nº do Processo",
		"Tribunal",
		"Palavras",
		"Trechos com Falha",
		"Avisos",
		"Resumo Executivo",
		"Erro",
		"Duração (s)",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	for _, r := range batch.Results {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(sheet, cell, v)
		}

		resumo := ""
		failedChunks := 0
		warnings := 0
		if r.Summary != nil {
			if v, ok := r.Summary.Fields[constants.ExecutiveSummaryField].(string); ok {
				resumo = v
			}
			failedChunks = len(r.Summary.FailedChunks)
			warnings = len(r.Summary.Warnings)
		}

		write(1, r.FilePath)
		write(2, string(r.Status))
		write(3, string(r.DocType))
		write(4, r.Metadata.ProcessNumber)
		write(5, r.Metadata.Tribunal)
		write(6, r.WordCount)
		write(7, failedChunks)
		write(8, warnings)
		write(9, truncate(resumo, 500))
		write(10, truncate(r.ErrorMessage, 140))
		write(11, r.Elapsed.Seconds())

		row++
	}

	// Widen a few columns
	_ = f.SetColWidth(sheet, "A", "A", 48) // path
	_ = f.SetColWidth(sheet, "B", "C", 18) // status, type
	_ = f.SetColWidth(sheet, "D", "D", 28) // process number
	_ = f.SetColWidth(sheet, "I", "I", 80) // summary
	_ = f.SetColWidth(sheet, "J", "J", 48) // error

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(batch.Results),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
