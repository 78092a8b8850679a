package interpreter

import "errors"

// Every error returned by Step wraps exactly one of these.
var (
	ErrUnknownObject         = errors.New("unknown object")
	ErrUnknownField          = errors.New("unknown field")
	ErrUnknownVariable       = errors.New("unknown variable")
	ErrUnknownClass          = errors.New("unknown class")
	ErrUnknownMethod         = errors.New("unknown method")
	ErrParameterCount        = errors.New("mismatched number of parameters")
	ErrMalformedContinuation = errors.New("malformed continuation")
	ErrUnsupportedConstruct  = errors.New("unsupported construct")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrKnowledgeBaseContract = errors.New("knowledge base contract violation")
	ErrMaxStepsExceeded      = errors.New("maximum steps exceeded")
)
