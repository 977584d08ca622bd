package roasted

// Plugin observes evaluation. After each dated statement is folded into the
// state, every registered plugin sees the statement, its Result and the
// state so far. Plugins must treat the state as read-only.
type Plugin interface {
	Name() string
	Observe(s Statement, r Result, state *LedgerState)
}
