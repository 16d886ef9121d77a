package manifest

// Invocation is a single `name arg arg ...` call: a command, a condition,
// or a with-wrapper head, depending on where it appears.
type Invocation struct {
	Loc  Location
	Name string
	Args []Argument
}

// Condition is the evaluated form of an `if`/`with` head: either a single
// Invocation or a negation of another Condition ("!cond", which may
// stack: "!!cond").
type Condition struct {
	Loc      Location
	Negate   bool
	Inner    *Condition // set when this Condition is a negation
	Call     *Invocation
}

// IfClause is one `if`/`else if` branch: a condition and the statements
// to run when it holds.
type IfClause struct {
	Cond Condition
	Body []Statement
}

// Statement is the sum type described by the core data model:
// Command | If | CommandAssignment | ValueAssignment | With.
// Exactly one of the typed fields is non-nil on any given Statement.
type Statement struct {
	Loc Location

	Command           *Invocation
	If                *IfStatement
	CommandAssignment *CommandAssignment
	ValueAssignment   *ValueAssignment
	With              *WithStatement
}

// IfStatement is `if cond { ... } else if cond { ... } ... else { ... }`.
type IfStatement struct {
	Clauses []IfClause
	Else    []Statement // nil if there is no else branch
}

// CommandAssignment is `var = $(cmd args)`.
type CommandAssignment struct {
	Var string
	Cmd Invocation
}

// ValueAssignment is `var = literal`.
type ValueAssignment struct {
	Var   string
	Value Argument
}

// WithStatement is `with wrapper args { body }`.
type WithStatement struct {
	Wrapper Invocation
	Body    []Statement
}

// Manifest is a fully parsed manifest file: a flat list of top-level
// statements.
type Manifest struct {
	Statements []Statement
}
