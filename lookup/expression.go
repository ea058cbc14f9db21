package lookup

// Expression is a composable filter. Every Expression is also a
// SearchOption that appends itself to SearchConfig.Filters.
type Expression interface {
	SearchOption
	expr()
}

type filter struct{}

func (filter) expr() {}

func appendFilter(cfg *SearchConfig, e Expression) {
	cfg.Filters = append(cfg.Filters, e)
}

// AndExpr matches when every child matches.
type AndExpr struct {
	filter
	Exprs []Expression
}

func (a AndExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, a) }

// And combines expressions with AND.
func And(exprs ...Expression) Expression {
	return AndExpr{Exprs: exprs}
}

// OrExpr matches when any child matches.
type OrExpr struct {
	filter
	Exprs []Expression
}

func (o OrExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, o) }

// Or combines expressions with OR.
func Or(exprs ...Expression) Expression {
	return OrExpr{Exprs: exprs}
}

// NotExpr negates Inner.
type NotExpr struct {
	filter
	Inner Expression
}

func (n NotExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, n) }

// Not negates an expression.
func Not(e Expression) Expression {
	return NotExpr{Inner: e}
}

// EqExpr matches documents whose Field equals Value. For array fields it
// matches when any element equals Value, which is how group membership is
// expressed.
type EqExpr struct {
	filter
	Field string
	Value any
}

func (e EqExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, e) }

// Eq creates an equality filter.
func Eq(field string, value any) Expression {
	return EqExpr{Field: field, Value: value}
}

// NeExpr is the negation of EqExpr.
type NeExpr struct {
	filter
	Field string
	Value any
}

func (n NeExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, n) }

// Ne creates a not-equal filter.
func Ne(field string, value any) Expression {
	return NeExpr{Field: field, Value: value}
}

// InExpr matches when Field equals any of Values.
type InExpr struct {
	filter
	Field  string
	Values []any
}

func (i InExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, i) }

// In creates a set-membership filter. An empty set matches nothing.
func In(field string, values ...any) Expression {
	return InExpr{Field: field, Values: values}
}

// ExistsExpr matches documents that carry Field.
type ExistsExpr struct {
	filter
	Field string
}

func (e ExistsExpr) Apply(cfg *SearchConfig) { appendFilter(cfg, e) }

// Exists creates a field existence filter.
func Exists(field string) Expression {
	return ExistsExpr{Field: field}
}
