package orders

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
)

// COMPLETED is terminal.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusCompleted: true},
	StatusCompleted: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// Source tells who rang the order up.
type Source string

const (
	SourceStaff   Source = "STAFF"
	SourceVisitor Source = "VISITOR"
)
