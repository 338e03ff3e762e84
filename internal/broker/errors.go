package broker

import "fmt"

// ClassNotFoundError is returned when a class is neither indexed nor built in
type ClassNotFoundError struct {
	ClassName string
}

func (e *ClassNotFoundError) Error() string {
	return fmt.Sprintf("class %s not found", e.ClassName)
}

// FunctionNotFoundError is returned when a function is neither indexed nor built in
type FunctionNotFoundError struct {
	FunctionName string
}

func (e *FunctionNotFoundError) Error() string {
	return fmt.Sprintf("function %s not found", e.FunctionName)
}
