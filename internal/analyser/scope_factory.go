package analyser

import (
	"strings"

	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/broker"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// ScopeFactory creates scopes sharing one broker, type specifier and set of
// constants whose value depends on the environment
type ScopeFactory struct {
	broker               *broker.Broker
	typeSpecifier        *TypeSpecifier
	dynamicConstantNames map[string]struct{}
}

func NewScopeFactory(b *broker.Broker, typeSpecifier *TypeSpecifier, dynamicConstantNames []string) *ScopeFactory {
	names := make(map[string]struct{}, len(dynamicConstantNames))
	for _, name := range dynamicConstantNames {
		names[strings.TrimPrefix(name, "\\")] = struct{}{}
	}
	return &ScopeFactory{
		broker:               b,
		typeSpecifier:        typeSpecifier,
		dynamicConstantNames: names,
	}
}

func (f *ScopeFactory) Broker() *broker.Broker { return f.broker }

func (f *ScopeFactory) isDynamicConstant(name string) bool {
	_, ok := f.dynamicConstantNames[strings.TrimPrefix(name, "\\")]
	return ok
}

type ScopeOption func(*Scope)

func WithDeclareStrictTypes(strict bool) ScopeOption {
	return func(s *Scope) { s.declareStrictTypes = strict }
}

func WithFunction(function reflection.FunctionReflection) ScopeOption {
	return func(s *Scope) { s.function = function }
}

func WithNamespace(namespace string) ScopeOption {
	return func(s *Scope) { s.namespace = strings.Trim(namespace, "\\") }
}

// WithVariableTypes defines the given variables with certainty
func WithVariableTypes(variables map[string]types.PHPType) ScopeOption {
	return func(s *Scope) {
		for name, t := range variables {
			s.variables[name] = variableTypeHolder{typ: t, certainty: types.Yes}
		}
	}
}

// WithMoreSpecificTypes remembers narrowed types of expressions by their printed key
func WithMoreSpecificTypes(moreSpecificTypes map[string]types.PHPType) ScopeOption {
	return func(s *Scope) {
		for key, t := range moreSpecificTypes {
			s.moreSpecificTypes[key] = t
		}
	}
}

func WithInClosureBind(inClosureBind bool) ScopeOption {
	return func(s *Scope) { s.inClosureBind = inClosureBind }
}

func WithAnonymousFunction(closure *ast.Closure) ScopeOption {
	return func(s *Scope) { s.anonymousFunction = closure }
}

func WithInFirstLevelStatement(inFirstLevelStatement bool) ScopeOption {
	return func(s *Scope) { s.inFirstLevelStatement = inFirstLevelStatement }
}

func WithCurrentlyAssignedExpressions(exprs ...ast.Expr) ScopeOption {
	return func(s *Scope) {
		for _, expr := range exprs {
			s.currentlyAssigned[ast.Print(expr)] = struct{}{}
		}
	}
}

// Create returns a scope at the top of context. Scopes start in a first level
// statement.
func (f *ScopeFactory) Create(context ScopeContext, opts ...ScopeOption) *Scope {
	s := &Scope{
		factory:               f,
		context:               context,
		variables:             make(map[string]variableTypeHolder),
		moreSpecificTypes:     make(map[string]types.PHPType),
		currentlyAssigned:     make(map[string]struct{}),
		inFirstLevelStatement: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
