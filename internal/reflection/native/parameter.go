package native

import (
	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

type parameterReflection struct {
	name       string
	nativeType types.PHPType
	phpDocType types.PHPType
	typ        types.PHPType
	optional   bool
	byRef      bool
	variadic   bool
	hasDefault bool
}

func (p *parameterReflection) Name() string              { return p.name }
func (p *parameterReflection) Type() types.PHPType       { return p.typ }
func (p *parameterReflection) NativeType() types.PHPType { return p.nativeType }
func (p *parameterReflection) PhpDocType() types.PHPType { return p.phpDocType }
func (p *parameterReflection) IsOptional() bool          { return p.optional }
func (p *parameterReflection) PassedByReference() bool   { return p.byRef }
func (p *parameterReflection) IsVariadic() bool          { return p.variadic }
func (p *parameterReflection) HasDefault() bool          { return p.hasDefault }

// buildParameters combines the declared parameters with their @param types. A
// parameter with a default is only optional when every parameter after it is too.
func buildParameters(h types.ClassHierarchy, decls []*php.ParamDecl, phpDocTypes map[string]types.PHPType, className, parentName string) []reflection.ParameterReflection {
	parameters := make([]reflection.ParameterReflection, len(decls))

	optionalTail := true
	for i := len(decls) - 1; i >= 0; i-- {
		decl := decls[i]

		native := nativeType(decl.Type, className, parentName)
		phpDoc := phpDocTypes[decl.Name]

		typ := mergeTypes(h, native, phpDoc)
		if decl.DefaultIsNull() {
			typ = types.Union(typ, types.NewNullType())
			native = types.Union(native, types.NewNullType())
		}

		optionalTail = optionalTail && (decl.HasDefault || decl.Variadic)

		parameters[i] = &parameterReflection{
			name:       decl.Name,
			nativeType: native,
			phpDocType: phpDoc,
			typ:        typ,
			optional:   optionalTail,
			byRef:      decl.ByRef,
			variadic:   decl.Variadic,
			hasDefault: decl.HasDefault,
		}
	}

	return parameters
}
