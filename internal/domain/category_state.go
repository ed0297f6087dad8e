package domain

type CategoryState int

const (
	CategoryPending CategoryState = iota
	CategoryExploring
	CategoryBranching
	CategoryLeafPaginating
	CategoryDone
	CategoryFailed
)

func (s CategoryState) String() string {
	switch s {
	case CategoryPending:
		return "pending"
	case CategoryExploring:
		return "exploring"
	case CategoryBranching:
		return "branching"
	case CategoryLeafPaginating:
		return "leaf-paginating"
	case CategoryDone:
		return "done"
	case CategoryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether no further transition is possible
func (s CategoryState) IsTerminal() bool {
	return s == CategoryDone || s == CategoryFailed
}
