package state

import "strings"

// Label is one of the fixed business-domain tags a message is classified into.
type Label string

const (
	LabelLegal      Label = "legal"
	LabelTechnology Label = "technology"
	LabelSales      Label = "sales"
	LabelMarketing  Label = "marketing"
	LabelOperations Label = "operations"
	LabelHR         Label = "hr"
	LabelFinance    Label = "finance"
	LabelExecutive  Label = "executive"
)

// Labels lists the closed set in classification-prompt order.
var Labels = []Label{
	LabelExecutive,
	LabelFinance,
	LabelHR,
	LabelOperations,
	LabelMarketing,
	LabelSales,
	LabelTechnology,
	LabelLegal,
}

func (l Label) String() string {
	return string(l)
}

// Valid reports whether l is a member of the closed label set.
func (l Label) Valid() bool {
	switch l {
	case LabelLegal, LabelTechnology, LabelSales, LabelMarketing,
		LabelOperations, LabelHR, LabelFinance, LabelExecutive:
		return true
	default:
		return false
	}
}

// ParseLabel normalizes raw model output (case, whitespace, surrounding quotes)
// and reports whether it names a known label. The normalized value is returned
// either way so callers can report what was received.
func ParseLabel(raw string) (Label, bool) {
	normalized := strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"'`+"`"))
	l := Label(strings.TrimSpace(normalized))
	return l, l.Valid()
}
