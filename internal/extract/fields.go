package extract

import (
	"regexp"
	"strings"
)

// fieldSpec is an ordered set of label-anchored patterns for one field. The
// first pattern that yields any candidate wins; later patterns are fallbacks
// for layout variants. Each pattern must have exactly one capture group.
type fieldSpec struct {
	name       string
	patterns   []*regexp.Regexp
	preferLast bool
}

var fieldSpecs = []fieldSpec{
	{
		name: FieldQuoteNumber,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`Número\s+([0-9]{4}-[0-9]{8})`),
			regexp.MustCompile(`(?:No\.|Cotización)\s*:?\s*([A-ZÁÉÍÓÚÑ]*-?[0-9][0-9A-Z-]*)`),
		},
	},
	{
		name: FieldIssueDate,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`Fecha de Emisión\s+([0-9]{2}/[0-9]{2}/[0-9]{4})`),
			regexp.MustCompile(`Fecha\s*:?\s*([0-9]{1,2}[/-][0-9]{1,2}[/-][0-9]{4}|[0-9]{4}-[0-9]{2}-[0-9]{2})`),
		},
	},
	{
		name: FieldSalesperson,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`Vendedor\s*:\s*(.+)$`),
		},
	},
	{
		name: FieldCustomer,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`Apellido y Nombre / Razón Social\s*:.*?([A-ZÁÉÍÓÚÑ][A-ZÁÉÍÓÚÑ0-9\. ]*)$`),
			regexp.MustCompile(`Cliente\s*:\s*(.+)$`),
		},
	},
	{
		name: FieldTotal,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bTOTAL\b[\s:]*(?:\$|ARS|U\$S|USD)?\s*([\d][\d\.,]*)`),
		},
		// Quotation layouts repeat subtotals; the grand total is the last
		// currency token on the page.
		preferLast: true,
	},
}

// Scan applies the per-field rule sets to reading-order lines. Each field is
// independent: zero candidates leave the field absent, multiple candidates
// pick the first (or last for the total) in document order, and the field is
// flagged ambiguous only when candidates disagree after normalization.
func Scan(lines []string) Result {
	res := Result{
		Fields:    make(map[string]string),
		Ambiguous: make(map[string]bool),
	}

	for _, spec := range fieldSpecs {
		candidates := collect(spec, lines)
		if len(candidates) == 0 {
			continue
		}

		chosen := candidates[0]
		if spec.preferLast {
			chosen = candidates[len(candidates)-1]
		}
		res.Fields[spec.name] = chosen

		if disagree(candidates) {
			res.Ambiguous[spec.name] = true
		}
	}
	return res
}

func collect(spec fieldSpec, lines []string) []string {
	for _, re := range spec.patterns {
		var candidates []string
		for _, line := range lines {
			if m := re.FindStringSubmatch(line); m != nil {
				if v := strings.TrimSpace(m[1]); v != "" {
					candidates = append(candidates, v)
				}
			}
		}
		if len(candidates) > 0 {
			return candidates
		}
	}
	return nil
}

func disagree(candidates []string) bool {
	if len(candidates) < 2 {
		return false
	}
	first := normalize(candidates[0])
	for _, c := range candidates[1:] {
		if normalize(c) != first {
			return true
		}
	}
	return false
}

func normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
