// Package validate parses the final model output as structured JSON, checks
// required-field presence per document type and flags low-quality content.
package validate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pdmoraes/jurisdigest/constants"
)

// MalformedOutputError means the model output is not JSON even after the
// repair pass. Raw is kept for diagnostics and manual review.
type MalformedOutputError struct {
	Raw   string
	Cause error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("validate: output is not valid JSON: %v", e.Cause)
}

func (e *MalformedOutputError) Unwrap() error { return e.Cause }

// MissingFieldError names the first required field absent or empty.
type MissingFieldError struct {
	Field string
	Raw   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("validate: required field %q is missing or empty", e.Field)
}

// Result is a parsed and checked summary plus quality warnings. Warnings
// never reject a summary; automated quality judgment is too ambiguous for
// a hard failure.
type Result struct {
	Fields   map[string]any
	Warnings []string
	Raw      json.RawMessage
}

// MinExecutiveSummaryLen is the threshold under which resumo_executivo is
// flagged as implausibly short.
const MinExecutiveSummaryLen = 100

var vagueIndicators = []string{
	"provavelmente",
	"possivelmente",
	"talvez",
	"pode ser",
	"não está claro",
	"não foi possível determinar",
}

var hallucinationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^O documento trata`),
	regexp.MustCompile(`(?i)^Este é um documento`),
	regexp.MustCompile(`(?i)^O processo\b`),
}

var (
	codeFenceOpen  = regexp.MustCompile("(?s)^```(?:json)?\\s*")
	codeFenceClose = regexp.MustCompile("\\s*```$")
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
)

// Validate runs the three validation steps: strict parse with one repair
// attempt, required-field presence per document type, and the heuristic
// quality check.
func Validate(raw string, dt constants.DocType) (*Result, error) {
	fields, cleaned, err := parseWithRepair(raw)
	if err != nil {
		return nil, err
	}

	if schemaErr := validateJSONAgainstSchema(BuildSummarySchema(dt), []byte(cleaned)); schemaErr != nil {
		// Name the offending field instead of surfacing the schema trace.
		if f := firstMissingField(fields, dt); f != "" {
			return nil, &MissingFieldError{Field: f, Raw: raw}
		}
		return nil, &MalformedOutputError{Raw: raw, Cause: schemaErr}
	}
	if f := firstMissingField(fields, dt); f != "" {
		// Present per schema but empty (e.g. "" or []).
		return nil, &MissingFieldError{Field: f, Raw: raw}
	}

	return &Result{
		Fields:   fields,
		Warnings: qualityWarnings(fields),
		Raw:      json.RawMessage(cleaned),
	}, nil
}

// parseWithRepair tries a strict parse, then a single repair-and-reparse.
func parseWithRepair(raw string) (map[string]any, string, error) {
	var fields map[string]any
	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), &fields); err == nil {
		return fields, trimmed, nil
	}

	repaired := Repair(trimmed)
	if err := json.Unmarshal([]byte(repaired), &fields); err != nil {
		return nil, "", &MalformedOutputError{Raw: raw, Cause: err}
	}
	return fields, repaired, nil
}

// Repair strips the usual model noise around a JSON object: markdown code
// fences, leading/trailing prose and trailing commas.
func Repair(raw string) string {
	s := strings.TrimSpace(raw)
	s = codeFenceOpen.ReplaceAllString(s, "")
	s = codeFenceClose.ReplaceAllString(s, "")

	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			s = s[start : end+1]
		}
	}

	s = trailingComma.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

func firstMissingField(fields map[string]any, dt constants.DocType) string {
	for _, f := range constants.RequiredFields(dt) {
		v, ok := fields[f]
		if !ok || isEmptyValue(v) {
			return f
		}
	}
	return ""
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

func qualityWarnings(fields map[string]any) []string {
	resumo, _ := fields[constants.ExecutiveSummaryField].(string)
	var warnings []string

	// Rune count, not bytes: accented Portuguese would inflate a byte count.
	if n := utf8.RuneCountInString(resumo); n < MinExecutiveSummaryLen {
		warnings = append(warnings, fmt.Sprintf(
			"resumo executivo muito curto (%d caracteres, mínimo %d)", n, MinExecutiveSummaryLen))
	}

	lower := strings.ToLower(resumo)
	for _, indicator := range vagueIndicators {
		if strings.Contains(lower, indicator) {
			warnings = append(warnings, fmt.Sprintf("possível informação vaga detectada: %q", indicator))
		}
	}

	for _, p := range hallucinationPatterns {
		if p.MatchString(resumo) {
			warnings = append(warnings, "resumo muito genérico, pode não conter informações específicas")
			break
		}
	}

	return warnings
}
