package filter

import (
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// CompilerOption configures a Compiler
type CompilerOption func(*Compiler)

// WithCache enables compiled-program caching with the specified size
func WithCache(size int) CompilerOption {
	return func(c *Compiler) {
		if size > 0 {
			c.cache = newLRUCache(size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) CompilerOption {
	return func(c *Compiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// Compiler compiles expr-based filters for invoices and consumption records
type Compiler struct {
	helperFuncs map[string]any
	cache       *lruCache
}

// NewCompiler creates a new expr-based filter compiler
func NewCompiler(opts ...CompilerOption) *Compiler {
	c := &Compiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// CompileInvoice compiles an expression into an invoice filter
func (c *Compiler) CompileInvoice(expression string) (InvoiceFilter, error) {
	program, err := c.compile("invoice\x00" + expression)
	if err != nil {
		return nil, err
	}
	return &invoiceFilter{expression: strings.TrimSpace(expression), program: program}, nil
}

// CompileConsumption compiles an expression into a consumption filter
func (c *Compiler) CompileConsumption(expression string) (ConsumptionFilter, error) {
	program, err := c.compile("consumption\x00" + expression)
	if err != nil {
		return nil, err
	}
	return &consumptionFilter{expression: strings.TrimSpace(expression), program: program}, nil
}

// compile turns a cache-keyed expression into a program. The key prefix keeps
// invoice and consumption compilations of the same text apart.
func (c *Compiler) compile(key string) (*vm.Program, error) {
	expression := strings.TrimSpace(key[strings.IndexByte(key, 0)+1:])
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(key); ok {
			return cached.(*vm.Program), nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(c.helperFuncs),
		expr.AllowUndefinedVariables(), // Record fields are injected at runtime
		expr.AsBool(),                  // Ensure boolean result
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	if c.cache != nil {
		c.cache.Put(key, program)
	}

	return program, nil
}

// Clear removes all cached programs
func (c *Compiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached programs
func (c *Compiler) Size() int {
	if c.cache != nil {
		return c.cache.Size()
	}
	return 0
}

// runProgram evaluates a compiled program against a prepared environment. A
// runtime failure skips the record rather than aborting the whole listing.
func runProgram(program *vm.Program, env map[string]any) bool {
	result, err := expr.Run(program, env)
	if err != nil {
		return false
	}
	// Result is guaranteed to be bool due to AsBool() during compilation
	return result.(bool)
}

// createHelperFunctions creates the static helper functions used during
// compilation
func createHelperFunctions() map[string]any {
	funcs := make(map[string]any, 16)
	addHelperFunctions(funcs)
	return funcs
}

// addHelperFunctions adds all helper functions to the provided map
func addHelperFunctions(env map[string]any) {
	// Date helpers
	env["daysSince"] = func(t time.Time) int {
		return int(time.Since(t).Hours() / 24)
	}
	env["daysAgo"] = func(days int) time.Time {
		return time.Now().AddDate(0, 0, -days)
	}
	env["monthsAgo"] = func(months int) time.Time {
		return time.Now().AddDate(0, -months, 0)
	}
	env["yearsAgo"] = func(years int) time.Time {
		return time.Now().AddDate(-years, 0, 0)
	}
	env["parseDate"] = parseDate
	// String helpers
	env["contains"] = func(str, substr string) bool {
		return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
	}
	env["startsWith"] = func(str, prefix string) bool {
		return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
	}
	env["endsWith"] = func(str, suffix string) bool {
		return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
	}
	env["lower"] = strings.ToLower
	env["upper"] = strings.ToUpper
	// Money helper for ad hoc comparisons against portal amount strings
	env["amount"] = func(s string) float64 {
		return moneyString(s)
	}
	// Current time
	env["now"] = time.Now
}

// parseDate accepts the date shapes the portal uses: a plain day, a month, or
// a full RFC 3339 timestamp. Unparseable input yields the zero time.
func parseDate(dateStr string) time.Time {
	for _, layout := range []string{"2006-01-02", "2006-01", time.RFC3339} {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t
		}
	}
	return time.Time{}
}

// moneyString parses the portal's monetary strings, which may carry spaces as
// thousand separators and a comma decimal. Unparseable input yields zero.
func moneyString(s string) float64 {
	cleaned := strings.NewReplacer(" ", "", " ", "", ",", ".").Replace(strings.TrimSpace(s))
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return v
}

// moneyValue is moneyString for the optional amount fields.
func moneyValue(s *string) float64 {
	if s == nil {
		return 0
	}
	return moneyString(*s)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
