package mcp

// DefaultTokenBudget is the default response budget in estimated tokens,
// per spec §4.G's token-budget streaming builder.
const DefaultTokenBudget = 25000

// estimateTokens gives a byte-pair-style approximation: roughly 4 bytes
// per token for English/code mixes, which is the same rule of thumb the
// teacher's telemetry package uses for prompt-size logging.
func estimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	n := len(s) / 4
	if n == 0 {
		n = 1
	}
	return n
}

// budgetBuilder accumulates EntityResult candidates into a response,
// stopping before the estimated token budget is exceeded and recording
// whether it had to truncate.
type budgetBuilder struct {
	budget    int
	spent     int
	results   []EntityResult
	truncated bool
}

func newBudgetBuilder(budget int) *budgetBuilder {
	if budget <= 0 {
		budget = DefaultTokenBudget
	}
	return &budgetBuilder{budget: budget}
}

// Add tries to commit a candidate. It returns false once the budget is
// exhausted, at which point the caller should stop calling Add — the
// builder itself does not keep accepting after truncating.
func (b *budgetBuilder) Add(r EntityResult) bool {
	if b.truncated {
		return false
	}
	cost := estimateTokens(r.Content) + estimateTokens(r.Name) + estimateTokens(r.SourcePath)
	if b.spent+cost > b.budget {
		b.truncated = true
		return false
	}
	b.spent += cost
	b.results = append(b.results, r)
	return true
}

func (b *budgetBuilder) Results() []EntityResult {
	if b.results == nil {
		return []EntityResult{}
	}
	return b.results
}

func (b *budgetBuilder) Truncated() bool {
	return b.truncated
}
