package filter

import (
	"strings"

	"github.com/expr-lang/expr/vm"

	"github.com/almhov/flowerhub/portal"
)

// consumptionFilter implements ConsumptionFilter using a compiled expr program
type consumptionFilter struct {
	expression string
	program    *vm.Program
}

// Match evaluates the filter against a consumption record
func (f *consumptionFilter) Match(record portal.ConsumptionRecord) bool {
	return runProgram(f.program, consumptionEnvironment(record))
}

// Expression returns the original expression
func (f *consumptionFilter) Expression() string {
	return f.expression
}

// consumptionEnvironment builds the runtime environment for one consumption
// record.
func consumptionEnvironment(record portal.ConsumptionRecord) map[string]any {
	env := make(map[string]any, 24)
	addHelperFunctions(env)

	env["Record"] = record

	volume := 0.0
	if record.Volume != nil {
		volume = *record.Volume
	}

	env["SiteID"] = record.SiteID
	env["ValidFrom"] = parseDate(record.ValidFrom)
	env["ValidTo"] = parseDate(stringValue(record.ValidTo))
	env["InvoicedMonth"] = record.InvoicedMonth
	env["Volume"] = volume
	env["HasVolume"] = record.Volume != nil
	env["Type"] = record.Type

	env["isReading"] = func() bool {
		return strings.EqualFold(record.Type, "reading")
	}
	env["isCalculated"] = func() bool {
		return strings.EqualFold(record.Type, "calculated")
	}

	return env
}

// containsFold is a case-insensitive substring check.
func containsFold(str, substr string) bool {
	return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
}
