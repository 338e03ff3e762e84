// Package native builds reflections from parsed PHP declarations and their doc comments.
package native

import (
	"github.com/shopware/php-analyser/internal/types"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("php-analyser.reflection.native")

// nativeType turns a declared type hint into a type bound to the declaring class.
// Missing declarations are mixed.
func nativeType(declared, className, parentName string) types.PHPType {
	return types.ResolveSpecial(types.NewPHPType(declared), className, parentName)
}

// mergeTypes picks the type a declaration effectively has. The doc type is used only
// when the native type is certainly a supertype of it, a nullable native type keeps
// its null.
func mergeTypes(h types.ClassHierarchy, native, phpDoc types.PHPType) types.PHPType {
	if phpDoc == nil {
		return native
	}
	if _, ok := native.(*types.VoidType); ok {
		return native
	}
	if _, ok := phpDoc.(*types.VoidType); ok {
		if _, mixed := native.(*types.MixedType); mixed {
			return phpDoc
		}
		return native
	}

	result := native
	if native.IsSuperTypeOf(h, phpDoc).IsYes() {
		result = phpDoc
	}
	if types.IsNullable(native) {
		return types.Union(result, types.NewNullType())
	}
	return result
}
