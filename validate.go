package roasted

// validate walks the statement stream once in textual order and rejects the
// journal on builder-level semantic violations: units referenced before
// anything made them known, duplicate opens, and broken close statements.
// Date-sensitive account checks compare dates rather than stream positions,
// since statements may appear in any textual order.
func (j *Journal) validate() error {
	knownUnits := make(map[UnitID]bool)
	know := func(u UnitID) {
		if u != NoUnit {
			knownUnits[u] = true
		}
	}

	opens := make(map[AccountID]*Open)
	closes := make(map[AccountID]*Close)

	for _, s := range j.Statements {
		switch st := s.(type) {
		case *UnitDecl:
			know(st.Unit)
		case *Commodity:
			know(st.Unit)
		case *Price:
			know(st.Base)
			know(st.Quote)
		case *Transaction:
			for _, p := range st.Postings {
				if p.Amount != nil {
					know(p.Amount.Unit)
				}
				if p.Price != nil {
					know(p.Price.Unit)
				}
			}
		case *Open:
			if st.Unit != NoUnit && !knownUnits[st.Unit] {
				return &UnknownUnitError{Pos: st.Pos, Unit: j.Symbols.UnitName(st.Unit)}
			}
			if prev, ok := opens[st.Account]; ok {
				return &DuplicateOpenError{Pos: st.Pos, Prev: prev.Pos, Account: j.Symbols.AccountName(st.Account)}
			}
			opens[st.Account] = st
		case *Close:
			if prev, ok := closes[st.Account]; ok {
				return &SemanticError{Pos: st.Pos,
					Msg: "account " + j.Symbols.AccountName(st.Account) + " is already closed at " + prev.Pos.String()}
			}
			closes[st.Account] = st
		case *Balance:
			if !knownUnits[st.Amount.Unit] {
				return &UnknownUnitError{Pos: st.Pos, Unit: j.Symbols.UnitName(st.Amount.Unit)}
			}
		}
	}

	for acct, cl := range closes {
		op, ok := opens[acct]
		if !ok {
			return &SemanticError{Pos: cl.Pos,
				Msg: "account " + j.Symbols.AccountName(acct) + " was never opened"}
		}
		if cl.Date.Before(op.Date) {
			return &SemanticError{Pos: cl.Pos,
				Msg: "account " + j.Symbols.AccountName(acct) + " cannot close before it opens"}
		}
	}
	return nil
}
