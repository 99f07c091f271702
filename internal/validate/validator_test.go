package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/pdmoraes/jurisdigest/constants"
)

const validSentenca = `{
	"resumo_executivo": "Sentença de procedência parcial em ação indenizatória movida contra instituição financeira, condenando a ré ao pagamento de R$ 15.000,00 a título de danos morais por inscrição indevida em cadastro de inadimplentes.",
	"relatorio": "Ação ajuizada em 2023 relatando inscrição indevida.",
	"fundamentacao": "Aplicação do CDC e da Súmula 385 do STJ.",
	"decisao": "Julgo parcialmente procedente o pedido.",
	"valor_condenacao": "R$ 15.000,00"
}`

func TestValidateAcceptsWellFormedSummary(t *testing.T) {
	res, err := Validate(validSentenca, constants.Sentenca)
	if err != nil {
		t.Fatalf("expected valid summary, got %v", err)
	}
	if res.Fields["decisao"] != "Julgo parcialmente procedente o pedido." {
		t.Errorf("fields not preserved: %v", res.Fields["decisao"])
	}
	if len(res.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", res.Warnings)
	}
}

func TestValidateRepairsFencedJSON(t *testing.T) {
	fenced := "Aqui está o resumo solicitado:\n```json\n" + validSentenca + "\n```\nEspero ter ajudado."
	res, err := Validate(fenced, constants.Sentenca)
	if err != nil {
		t.Fatalf("fenced JSON should be repaired, got %v", err)
	}
	if _, ok := res.Fields["relatorio"]; !ok {
		t.Errorf("repaired parse lost fields: %v", res.Fields)
	}
}

func TestValidateRepairsTrailingComma(t *testing.T) {
	broken := `{"resumo_executivo": "` + strings.Repeat("Resumo detalhado. ", 10) + `", "materia_decidida": "tutela", "fundamentacao": "art. 300 CPC", "decisao": "defiro", "prazo": "15 dias",}`
	if _, err := Validate(broken, constants.Despacho); err != nil {
		t.Fatalf("trailing comma should be repaired, got %v", err)
	}
}

func TestValidateRejectsNonJSON(t *testing.T) {
	_, err := Validate("I cannot summarize this document.", constants.Sentenca)
	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedOutputError, got %v", err)
	}
	if malformed.Raw == "" {
		t.Errorf("raw output should be preserved for diagnostics")
	}
}

func TestValidateNamesMissingField(t *testing.T) {
	missing := `{"resumo_executivo": "` + strings.Repeat("Resumo suficientemente longo. ", 5) + `", "relatorio": "ok", "fundamentacao": "ok", "decisao": ""}`
	_, err := Validate(missing, constants.Sentenca)
	var mf *MissingFieldError
	if !errors.As(err, &mf) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if mf.Field != "decisao" {
		t.Errorf("field = %q, want decisao (first empty required field)", mf.Field)
	}
}

func TestValidateShortSummaryCountsRunes(t *testing.T) {
	// 90 runes but 180 bytes; a byte count would miss the length warning.
	resumo := strings.Repeat("çãé", 30)
	res, err := Validate(`{"resumo_executivo": "`+resumo+`"}`, constants.Outro)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, w := range res.Warnings {
		if strings.Contains(w, "muito curto") && strings.Contains(w, "90 caracteres") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a 90-character length warning, got %v", res.Warnings)
	}
}

func TestValidateWarnsWithoutRejecting(t *testing.T) {
	short := `{"resumo_executivo": "O documento trata de um processo que talvez envolva danos."}`
	res, err := Validate(short, constants.Outro)
	if err != nil {
		t.Fatalf("quality issues must warn, not reject: %v", err)
	}
	if len(res.Warnings) < 3 {
		t.Errorf("expected short + vague + generic warnings, got %v", res.Warnings)
	}
}
