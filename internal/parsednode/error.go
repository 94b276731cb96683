package parsednode

import (
	"errors"
	"fmt"
)

// ParseError is the failure type every pipeline stage reports. ProblemNode
// points at the most specific node known to be involved; it is shared with
// the tree, never copied.
type ParseError struct {
	Message     string
	Cause       error
	ProblemNode *Node
}

// NewParseError builds a ParseError. cause and node may be nil.
func NewParseError(message string, cause error, node *Node) *ParseError {
	return &ParseError{Message: message, Cause: cause, ProblemNode: node}
}

// Errorf builds a ParseError located at node with a formatted message.
func Errorf(node *Node, format string, args ...any) *ParseError {
	return &ParseError{Message: fmt.Sprintf(format, args...), ProblemNode: node}
}

func (e *ParseError) Error() string {
	if e.Message == "" && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Wrap adds context in front of err. If err already carries a problem node
// the new error keeps it.
func Wrap(err error, message string) *ParseError {
	return &ParseError{
		Message:     message + ": " + err.Error(),
		Cause:       err,
		ProblemNode: ProblemNodeOf(err),
	}
}

// AsParseError returns err itself when it is a *ParseError and otherwise
// wraps it in one with no problem node.
func AsParseError(err error) *ParseError {
	var pe *ParseError
	if errors.As(err, &pe) {
		if pe == err {
			return pe
		}
		return &ParseError{Message: err.Error(), Cause: err, ProblemNode: pe.ProblemNode}
	}
	return &ParseError{Message: err.Error(), Cause: err}
}

// ProblemNodeOf digs through wrapped errors for the innermost problem node.
func ProblemNodeOf(err error) *Node {
	var node *Node
	for err != nil {
		var pe *ParseError
		if !errors.As(err, &pe) {
			break
		}
		if pe.ProblemNode != nil {
			node = pe.ProblemNode
		}
		err = pe.Cause
	}
	return node
}
