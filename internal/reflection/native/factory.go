package native

import (
	"strings"

	"github.com/shopware/php-analyser/internal/cache"
	"github.com/shopware/php-analyser/internal/observability"
	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// MethodReflectionFactory creates method reflections from declarations and their
// resolved doc comment types
type MethodReflectionFactory interface {
	Create(
		declaringClass *reflection.ClassReflection,
		declaringTrait *reflection.ClassReflection,
		decl *php.MethodDecl,
		phpDocParameterTypes map[string]types.PHPType,
		phpDocReturnType types.PHPType,
		phpDocThrowType types.PHPType,
		isDeprecated, isInternal, isFinal bool,
	) reflection.MethodReflection
}

// FunctionReflectionFactory creates function reflections from declarations and their
// resolved doc comment types
type FunctionReflectionFactory interface {
	Create(
		decl *php.FunctionDecl,
		phpDocParameterTypes map[string]types.PHPType,
		phpDocReturnType types.PHPType,
		phpDocThrowType types.PHPType,
		isDeprecated, isInternal, isFinal bool,
	) reflection.FunctionReflection
}

// DefaultMethodReflectionFactory returns the same instance for the same declaring
// class and method name
type DefaultMethodReflectionFactory struct {
	body      *bodyAnalyser
	instances map[string]*MethodReflection
}

func NewMethodReflectionFactory(parser *php.Parser, c *cache.Cache) *DefaultMethodReflectionFactory {
	return &DefaultMethodReflectionFactory{
		body:      newBodyAnalyser(parser, c),
		instances: make(map[string]*MethodReflection),
	}
}

func (f *DefaultMethodReflectionFactory) Create(
	declaringClass *reflection.ClassReflection,
	declaringTrait *reflection.ClassReflection,
	decl *php.MethodDecl,
	phpDocParameterTypes map[string]types.PHPType,
	phpDocReturnType types.PHPType,
	phpDocThrowType types.PHPType,
	isDeprecated, isInternal, isFinal bool,
) reflection.MethodReflection {
	key := strings.ToLower(declaringClass.Name() + "::" + decl.Name)
	if method, ok := f.instances[key]; ok {
		return method
	}

	method := &MethodReflection{
		declaringClass:       declaringClass,
		declaringTrait:       declaringTrait,
		decl:                 decl,
		body:                 f.body,
		phpDocParameterTypes: phpDocParameterTypes,
		phpDocReturnType:     phpDocReturnType,
		phpDocThrowType:      phpDocThrowType,
		deprecated:           isDeprecated,
		internal:             isInternal,
		final:                isFinal,
	}
	f.instances[key] = method
	observability.ReflectionsCreated.WithLabelValues("method").Inc()
	return method
}

// DefaultFunctionReflectionFactory returns the same instance for the same function name.
// It needs the registry for class hierarchy checks, see SetBroker.
type DefaultFunctionReflectionFactory struct {
	body      *bodyAnalyser
	hierarchy types.ClassHierarchy
	instances map[string]*FunctionReflection
}

func NewFunctionReflectionFactory(parser *php.Parser, c *cache.Cache) *DefaultFunctionReflectionFactory {
	return &DefaultFunctionReflectionFactory{
		body:      newBodyAnalyser(parser, c),
		instances: make(map[string]*FunctionReflection),
	}
}

func (f *DefaultFunctionReflectionFactory) SetBroker(registry reflection.Registry) {
	f.hierarchy = registry
}

func (f *DefaultFunctionReflectionFactory) Create(
	decl *php.FunctionDecl,
	phpDocParameterTypes map[string]types.PHPType,
	phpDocReturnType types.PHPType,
	phpDocThrowType types.PHPType,
	isDeprecated, isInternal, isFinal bool,
) reflection.FunctionReflection {
	key := strings.ToLower(decl.Name)
	if function, ok := f.instances[key]; ok {
		return function
	}

	function := &FunctionReflection{
		decl:                 decl,
		body:                 f.body,
		hierarchy:            f.hierarchy,
		phpDocParameterTypes: phpDocParameterTypes,
		phpDocReturnType:     phpDocReturnType,
		phpDocThrowType:      phpDocThrowType,
		deprecated:           isDeprecated,
		internal:             isInternal,
		final:                isFinal,
	}
	f.instances[key] = function
	observability.ReflectionsCreated.WithLabelValues("function").Inc()
	return function
}
