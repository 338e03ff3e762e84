// Package crates treats configured classes as universal object crates: every property
// exists on them and holds anything.
package crates

import (
	"strings"

	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// Property is a property of a universal object crate
type Property struct {
	declaringClass *reflection.ClassReflection
}

func (p *Property) DeclaringClass() *reflection.ClassReflection { return p.declaringClass }
func (p *Property) IsStatic() bool                              { return false }
func (p *Property) IsPrivate() bool                             { return false }
func (p *Property) IsPublic() bool                              { return true }
func (p *Property) Type() types.PHPType                         { return types.NewMixedType() }
func (p *Property) IsReadable() bool                            { return true }
func (p *Property) IsWritable() bool                            { return true }

var _ reflection.UniversalObjectCrateExtension = (*Extension)(nil)

type Extension struct {
	classes []string
}

func NewExtension(classes []string) *Extension {
	normalized := make([]string, 0, len(classes))
	for _, class := range classes {
		normalized = append(normalized, strings.TrimPrefix(class, "\\"))
	}
	return &Extension{classes: normalized}
}

// IsCrate reports whether class is one of the crate classes or extends one
func (e *Extension) IsCrate(class *reflection.ClassReflection) bool {
	for _, name := range class.AncestorNames() {
		for _, crate := range e.classes {
			if strings.EqualFold(name, crate) {
				return true
			}
		}
	}
	return false
}

func (e *Extension) HasProperty(class *reflection.ClassReflection, propertyName string) bool {
	return e.IsCrate(class)
}

func (e *Extension) GetProperty(class *reflection.ClassReflection, propertyName string) reflection.PropertyReflection {
	return &Property{declaringClass: class}
}
