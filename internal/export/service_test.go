package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/pdmoraes/jurisdigest/constants"
	"github.com/pdmoraes/jurisdigest/internal/docs"
	"github.com/pdmoraes/jurisdigest/internal/metadata"
	"github.com/pdmoraes/jurisdigest/internal/summarize"
)

func TestBatchReportXLSX(t *testing.T) {
	batch := &docs.BatchResult{
		Results: []docs.DocumentResult{
			{
				FilePath: "/docs/sentenca.pdf",
				Status:   constants.StatusSuccess,
				DocType:  constants.Sentenca,
				Metadata: metadata.Metadata{ProcessNumber: "0001234-56.2023.8.26.0100", Tribunal: "TJSP"},
				Summary: &summarize.StructuredSummary{
					Fields: map[string]any{constants.ExecutiveSummaryField: "Sentença de procedência."},
				},
				WordCount: 4200,
			},
			{
				FilePath:     "/docs/corrompido.pdf",
				Status:       constants.StatusError,
				ErrorMessage: "extract /docs/corrompido.pdf: CORRUPTED",
			},
		},
	}

	data, err := NewService(nil).BatchReportXLSX(batch)
	if err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a readable workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Documentos")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 documents", len(rows))
	}
	if rows[1][3] != "0001234-56.2023.8.26.0100" {
		t.Errorf("process number cell = %q", rows[1][3])
	}
	if rows[2][1] != string(constants.StatusError) {
		t.Errorf("status cell = %q", rows[2][1])
	}
}
