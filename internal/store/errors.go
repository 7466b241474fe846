package store

// Op names a store operation.
type Op string

const (
	OpCreate Op = "create"
	OpList   Op = "list"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

var opMessages = map[Op]string{
	OpCreate: "failed to create todo",
	OpList:   "failed to fetch todos",
	OpUpdate: "failed to update todo",
	OpDelete: "failed to delete todo",
}

// OpError is the single error kind surfaced by the adapter. Its message only
// names the failed operation; the cause stays reachable through Unwrap.
type OpError struct {
	Op  Op
	Err error
}

func (e *OpError) Error() string {
	if msg, ok := opMessages[e.Op]; ok {
		return msg
	}
	return "operation failed"
}

// Unwrap returns the underlying error.
func (e *OpError) Unwrap() error {
	return e.Err
}
