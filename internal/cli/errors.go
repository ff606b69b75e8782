package cli

import "fmt"

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type usageError struct {
	arg    string
	reason string
}

func (e usageError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.arg, e.reason)
}

func errUsage(arg, reason string) error {
	return usageError{arg: arg, reason: reason}
}
