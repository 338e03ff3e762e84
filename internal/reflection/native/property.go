package native

import (
	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// PropertyReflection is a property declared in PHP source, including promoted
// constructor parameters
type PropertyReflection struct {
	declaringClass *reflection.ClassReflection
	declaringTrait *reflection.ClassReflection
	decl           *php.PropertyDecl

	nativeType types.PHPType
	phpDocType types.PHPType
	typ        types.PHPType
}

func (p *PropertyReflection) DeclaringClass() *reflection.ClassReflection { return p.declaringClass }
func (p *PropertyReflection) DeclaringTrait() *reflection.ClassReflection { return p.declaringTrait }
func (p *PropertyReflection) Decl() *php.PropertyDecl                     { return p.decl }
func (p *PropertyReflection) IsStatic() bool                              { return p.decl.Static }
func (p *PropertyReflection) IsPrivate() bool                             { return p.decl.Visibility == php.Private }
func (p *PropertyReflection) IsPublic() bool                              { return p.decl.Visibility == php.Public }
func (p *PropertyReflection) IsReadOnly() bool                            { return p.decl.Readonly }
func (p *PropertyReflection) Type() types.PHPType                         { return p.typ }
func (p *PropertyReflection) NativeType() types.PHPType                   { return p.nativeType }
func (p *PropertyReflection) PhpDocType() types.PHPType                   { return p.phpDocType }
func (p *PropertyReflection) IsReadable() bool                            { return true }
func (p *PropertyReflection) IsWritable() bool                            { return true }
