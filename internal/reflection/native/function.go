package native

import (
	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// FunctionReflection is a function declared in PHP source
type FunctionReflection struct {
	decl      *php.FunctionDecl
	body      *bodyAnalyser
	hierarchy types.ClassHierarchy

	phpDocParameterTypes map[string]types.PHPType
	phpDocReturnType     types.PHPType
	phpDocThrowType      types.PHPType
	deprecated           bool
	internal             bool
	final                bool

	parameters []reflection.ParameterReflection
	returnType types.PHPType
	variadic   *bool
}

func (f *FunctionReflection) Decl() *php.FunctionDecl  { return f.decl }
func (f *FunctionReflection) Name() string             { return f.decl.Name }
func (f *FunctionReflection) FileName() string         { return f.decl.File }
func (f *FunctionReflection) ThrowType() types.PHPType { return f.phpDocThrowType }
func (f *FunctionReflection) IsDeprecated() bool       { return f.deprecated }
func (f *FunctionReflection) IsInternal() bool         { return f.internal }
func (f *FunctionReflection) IsFinal() bool            { return f.final }
func (f *FunctionReflection) ReturnsByReference() bool { return f.decl.ByRefReturn }

func (f *FunctionReflection) Parameters() []reflection.ParameterReflection {
	if f.parameters == nil {
		f.parameters = buildParameters(f.hierarchy, f.decl.Params, f.phpDocParameterTypes, "", "")
	}
	return f.parameters
}

func (f *FunctionReflection) IsVariadic() bool {
	if f.variadic != nil {
		return *f.variadic
	}

	variadic := false
	for _, param := range f.decl.Params {
		if param.Variadic {
			variadic = true
			break
		}
	}
	if !variadic {
		variadic = f.body.callsVariadicFunctions(f.decl.Name, f.decl.File, &f.decl.FunctionLike)
	}

	f.variadic = &variadic
	return variadic
}

func (f *FunctionReflection) ReturnType() types.PHPType {
	if f.returnType == nil {
		f.returnType = mergeTypes(f.hierarchy, nativeType(f.decl.ReturnType, "", ""), f.phpDocReturnType)
	}
	return f.returnType
}
