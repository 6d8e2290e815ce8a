package orders

type Status string

const (
	StatusCreated   Status = "CREATED"
	StatusConfirmed Status = "CONFIRMED"
)

var validNext = map[Status]map[Status]bool{
	StatusCreated:   {StatusConfirmed: true},
	StatusConfirmed: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
