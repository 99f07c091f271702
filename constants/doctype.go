package constants

import "strings"

// DocType is the canonical kind of a Brazilian legal document. It drives
// prompt selection and the required-field set the validator enforces.
type DocType string

// Stable values (store these exact strings in DB / cache payloads).
const (
	PeticaoInicial DocType = "PETICAO_INICIAL"
	Sentenca       DocType = "SENTENCA"
	Acordao        DocType = "ACORDAO"
	Despacho       DocType = "DESPACHO"
	Outro          DocType = "OUTRO"
)

var allDocTypes = []DocType{
	PeticaoInicial,
	Sentenca,
	Acordao,
	Despacho,
	Outro,
}

// ExecutiveSummaryField is required for every document type.
const ExecutiveSummaryField = "resumo_executivo"

// requiredFields maps a document type to the fields the final structured
// summary must carry, beyond resumo_executivo.
var requiredFields = map[DocType][]string{
	PeticaoInicial: {"partes", "tipo_acao", "fatos_relevantes", "fundamentacao", "pedidos"},
	Sentenca:       {"relatorio", "fundamentacao", "decisao", "valor_condenacao"},
	Acordao:        {"relatorio", "votos", "fundamentacao", "decisao", "reforma"},
	Despacho:       {"materia_decidida", "fundamentacao", "decisao", "prazo"},
	Outro:          {},
}

// RequiredFields returns the full required-field list for a document type,
// resumo_executivo first.
func RequiredFields(dt DocType) []string {
	extra := requiredFields[dt]
	out := make([]string, 0, len(extra)+1)
	out = append(out, ExecutiveSummaryField)
	out = append(out, extra...)
	return out
}

// DocTypesAsStrings returns all document types as plain strings.
func DocTypesAsStrings() []string {
	result := make([]string, len(allDocTypes))
	for i, dt := range allDocTypes {
		result[i] = string(dt)
	}
	return result
}

// ParseDocType canonicalizes free-form input ("sentença", "acórdão",
// "peticao inicial") into a DocType. Unknown input maps to Outro.
func ParseDocType(input string) (DocType, bool) {
	if input == "" {
		return Outro, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))
	normalized = strings.NewReplacer(
		"ç", "c", "ã", "a", "á", "a", "â", "a",
		"é", "e", "ê", "e", "í", "i", "ó", "o", "ô", "o", "ú", "u",
	).Replace(normalized)

	synonyms := map[string]DocType{
		"peticao inicial":        PeticaoInicial,
		"peticao":                PeticaoInicial,
		"inicial":                PeticaoInicial,
		"sentenca":               Sentenca,
		"acordao":                Acordao,
		"despacho":               Despacho,
		"decisao interlocutoria": Despacho,
		"outro":                  Outro,
		"outros":                 Outro,
	}
	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	upper := strings.ToUpper(strings.ReplaceAll(normalized, " ", "_"))
	for _, dt := range allDocTypes {
		if upper == string(dt) {
			return dt, true
		}
	}
	return Outro, false
}
