// Package metadata extracts structured legal metadata (CNJ process number,
// tribunal, document type) from raw document text using patterns of the
// Brazilian judiciary. It runs before summarization so these anchors can be
// injected into prompts and cross-checked against model output.
package metadata

import (
	"regexp"
	"strings"

	"github.com/pdmoraes/jurisdigest/constants"
)

// Metadata holds what the regex pass could identify.
type Metadata struct {
	ProcessNumber string
	Tribunal      string
	DocType       constants.DocType
}

// CNJ unified numbering: NNNNNNN-DD.AAAA.J.TR.OOOO.
var processNumberRe = regexp.MustCompile(`\b\d{7}[-.]?\d{2}[./]?\d{4}[./]?\d{1}[./]?\d{2}[./]?\d{4}\b`)

var tribunalPatterns = []struct {
	sigla string
	re    *regexp.Regexp
}{
	{"STF", regexp.MustCompile(`(?i)Supremo Tribunal Federal|\bSTF\b`)},
	{"STJ", regexp.MustCompile(`(?i)Superior Tribunal de Justiça|\bSTJ\b`)},
	{"TST", regexp.MustCompile(`(?i)Tribunal Superior do Trabalho|\bTST\b`)},
	{"TJSP", regexp.MustCompile(`(?i)Tribunal de Justiça de São Paulo|TJSP|TJ/SP`)},
	{"TJRJ", regexp.MustCompile(`(?i)Tribunal de Justiça do Rio de Janeiro|TJRJ|TJ/RJ`)},
	{"TJMG", regexp.MustCompile(`(?i)Tribunal de Justiça de Minas Gerais|TJMG|TJ/MG`)},
	{"TRF1", regexp.MustCompile(`(?i)Tribunal Regional Federal da 1ª Região|TRF1|TRF-1`)},
	{"TRF2", regexp.MustCompile(`(?i)Tribunal Regional Federal da 2ª Região|TRF2|TRF-2`)},
	{"TRF3", regexp.MustCompile(`(?i)Tribunal Regional Federal da 3ª Região|TRF3|TRF-3`)},
	{"TRF4", regexp.MustCompile(`(?i)Tribunal Regional Federal da 4ª Região|TRF4|TRF-4`)},
	{"TRF5", regexp.MustCompile(`(?i)Tribunal Regional Federal da 5ª Região|TRF5|TRF-5`)},
}

// Ordered: more specific types first, Despacho last among decisions since
// its markers also appear inside sentenças.
var docTypePatterns = []struct {
	dt constants.DocType
	re *regexp.Regexp
}{
	{constants.PeticaoInicial, regexp.MustCompile(`(?im)^\s*EXCELENT[IÍ]SSIMO|PETI[CÇ][AÃ]O\s+INICIAL|^\s*AO\s+DOUTO\s+JU[IÍ]ZO`)},
	{constants.Acordao, regexp.MustCompile(`(?im)AC[OÓ]RD[AÃ]O|A\s+C\s+[OÓ]\s+R\s+D\s+[AÃ]\s+O|^\s*EMENTA\s*:|acordam\s+os|dou\s+provimento`)},
	{constants.Sentenca, regexp.MustCompile(`(?im)^\s*SENTEN[CÇ]A\b|S\s+E\s+N\s+T\s+E\s+N\s+[CÇ]\s+A|VISTOS[,.]?\s*etc|julgo\s+(im)?procedente`)},
	{constants.Despacho, regexp.MustCompile(`(?i)\bdespacho\b|decis[aã]o\s+interlocut[oó]ria`)},
}

// Extract runs all pattern tables over the text.
func Extract(text string) Metadata {
	return Metadata{
		ProcessNumber: extractProcessNumber(text),
		Tribunal:      extractTribunal(text),
		DocType:       DetectDocType(text),
	}
}

// DetectDocType guesses the document type from its opening section. The
// first 4000 characters are enough for the heading markers; full-text
// decision verbs are checked as a fallback.
func DetectDocType(text string) constants.DocType {
	head := text
	if len(head) > 4000 {
		head = head[:4000]
	}
	for _, p := range docTypePatterns {
		if p.re.MatchString(head) {
			return p.dt
		}
	}
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "julgo procedente") || strings.Contains(lower, "julgo improcedente"):
		return constants.Sentenca
	case strings.Contains(lower, "acordam os") || strings.Contains(lower, "dou provimento"):
		return constants.Acordao
	}
	return constants.Outro
}

func extractProcessNumber(text string) string {
	return processNumberRe.FindString(text)
}

func extractTribunal(text string) string {
	for _, p := range tribunalPatterns {
		if p.re.MatchString(text) {
			return p.sigla
		}
	}
	return ""
}
