package repository

import "strings"

// whereBuilder accumulates AND-ed predicates together with their bound
// arguments so that variable parts of a query never reach the SQL text.
type whereBuilder struct {
	conds []string
	args  []any
}

// add appends a predicate.  The number of ? placeholders in cond must match
// len(args).
func (w *whereBuilder) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

// sql returns the WHERE clause (without the keyword) and its arguments.
func (w *whereBuilder) sql() (string, []any) {
	if len(w.conds) == 0 {
		return "1=1", nil
	}
	return strings.Join(w.conds, " AND "), w.args
}

// setBuilder collects "col = ?" assignments for UPDATE statements.
type setBuilder struct {
	cols []string
	args []any
}

func (s *setBuilder) set(col string, val any) {
	s.cols = append(s.cols, col+" = ?")
	s.args = append(s.args, val)
}

func (s *setBuilder) empty() bool { return len(s.cols) == 0 }

func (s *setBuilder) sql() (string, []any) {
	return strings.Join(s.cols, ", "), s.args
}
