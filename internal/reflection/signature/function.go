package signature

import (
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// FunctionReflection is a built-in function
type FunctionReflection struct {
	signature  *FunctionSignature
	parameters []reflection.ParameterReflection
}

func NewFunctionReflection(signature *FunctionSignature) *FunctionReflection {
	parameters := make([]reflection.ParameterReflection, 0, len(signature.Parameters))
	for i := range signature.Parameters {
		parameters = append(parameters, &parameter{signature: &signature.Parameters[i]})
	}
	return &FunctionReflection{signature: signature, parameters: parameters}
}

func (f *FunctionReflection) Name() string                                 { return f.signature.Name }
func (f *FunctionReflection) Parameters() []reflection.ParameterReflection { return f.parameters }
func (f *FunctionReflection) IsVariadic() bool                             { return f.signature.Variadic }
func (f *FunctionReflection) ReturnType() types.PHPType                    { return f.signature.ReturnType }
func (f *FunctionReflection) ThrowType() types.PHPType                     { return nil }
func (f *FunctionReflection) IsDeprecated() bool                           { return false }
func (f *FunctionReflection) IsInternal() bool                             { return false }
func (f *FunctionReflection) IsFinal() bool                                { return false }

type parameter struct {
	signature *ParameterSignature
}

func (p *parameter) Name() string              { return p.signature.Name }
func (p *parameter) Type() types.PHPType       { return p.signature.Type }
func (p *parameter) NativeType() types.PHPType { return p.signature.Type }
func (p *parameter) PhpDocType() types.PHPType { return nil }
func (p *parameter) IsOptional() bool          { return p.signature.Optional }
func (p *parameter) PassedByReference() bool   { return p.signature.ByRef }
func (p *parameter) IsVariadic() bool          { return p.signature.Variadic }
func (p *parameter) HasDefault() bool          { return p.signature.Optional && !p.signature.Variadic }
