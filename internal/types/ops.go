package types

import (
	"strings"
)

// Union combines the given types into a normalized type.
// Nested unions are flattened, mixed absorbs everything, never disappears and
// true|false collapses into bool.
func Union(types ...PHPType) PHPType {
	flat := make([]PHPType, 0, len(types))
	for _, t := range types {
		if t == nil {
			continue
		}
		if u, ok := t.(*UnionType); ok {
			flat = append(flat, u.types...)
			continue
		}
		flat = append(flat, t)
	}

	seen := make(map[string]struct{}, len(flat))
	members := make([]PHPType, 0, len(flat))
	hasTrue, hasFalse, hasBool := false, false, false
	for _, t := range flat {
		switch b := t.(type) {
		case *MixedType:
			return t
		case *NeverType:
			continue
		case *BoolType:
			value, constant := b.Constant()
			switch {
			case !constant:
				hasBool = true
			case value:
				hasTrue = true
			default:
				hasFalse = true
			}
			continue
		}
		key := strings.ToLower(t.Name())
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		members = append(members, t)
	}

	switch {
	case hasBool || (hasTrue && hasFalse):
		members = append(members, NewBoolType())
	case hasTrue:
		members = append(members, NewConstantBoolType(true))
	case hasFalse:
		members = append(members, NewConstantBoolType(false))
	}

	switch len(members) {
	case 0:
		return NewNeverType()
	case 1:
		return members[0]
	}
	return NewUnionType(members...)
}

// Intersect returns the type of values that belong to both a and b
func Intersect(h ClassHierarchy, a, b PHPType) PHPType {
	if _, ok := a.(*MixedType); ok {
		return b
	}
	if _, ok := b.(*MixedType); ok {
		return a
	}
	if _, ok := a.(*NeverType); ok {
		return a
	}
	if _, ok := b.(*NeverType); ok {
		return b
	}

	if u, ok := a.(*UnionType); ok {
		parts := make([]PHPType, 0, len(u.types))
		for _, member := range u.types {
			parts = append(parts, Intersect(h, member, b))
		}
		return Union(parts...)
	}
	if u, ok := b.(*UnionType); ok {
		parts := make([]PHPType, 0, len(u.types))
		for _, member := range u.types {
			parts = append(parts, Intersect(h, a, member))
		}
		return Union(parts...)
	}

	if b.IsSuperTypeOf(h, a).IsYes() {
		return a
	}
	if a.IsSuperTypeOf(h, b).IsYes() {
		return b
	}

	if isObjectLike(a) && isObjectLike(b) {
		if disjointClasses(h, a, b) {
			return NewNeverType()
		}
		return NewIntersectionType(a, b)
	}

	if a.IsSuperTypeOf(h, b).IsMaybe() || b.IsSuperTypeOf(h, a).IsMaybe() {
		if isPseudoType(a) {
			return b
		}
		return a
	}

	return NewNeverType()
}

// Remove returns from without the values described by t
func Remove(h ClassHierarchy, from, t PHPType) PHPType {
	if u, ok := from.(*UnionType); ok {
		remaining := make([]PHPType, 0, len(u.types))
		for _, member := range u.types {
			remaining = append(remaining, Remove(h, member, t))
		}
		return Union(remaining...)
	}

	if b, ok := from.(*BoolType); ok {
		if _, constant := b.Constant(); !constant {
			if removed, ok := t.(*BoolType); ok {
				if value, constant := removed.Constant(); constant {
					return NewConstantBoolType(!value)
				}
			}
		}
	}

	if t.IsSuperTypeOf(h, from).IsYes() {
		return NewNeverType()
	}
	return from
}

// Accepts reports whether a value of type value may be passed where target is declared.
// Unlike IsSuperTypeOf it follows the coercions PHP performs, int is accepted as float.
func Accepts(h ClassHierarchy, target, value PHPType) TrinaryLogic {
	if u, ok := value.(*UnionType); ok {
		results := make([]TrinaryLogic, 0, len(u.types))
		for _, member := range u.types {
			results = append(results, Accepts(h, target, member))
		}
		return ExtremeIdentity(results...)
	}

	result := target.IsSuperTypeOf(h, value)
	if result.IsYes() {
		return result
	}
	if _, ok := value.(*IntType); ok && target.IsSuperTypeOf(h, NewFloatType()).IsYes() {
		return Yes
	}
	return result
}

// ResolveStatic replaces static and $this with the type of the expression a method was called on
func ResolveStatic(t PHPType, caller PHPType) PHPType {
	return Traverse(t, func(inner PHPType) (PHPType, bool) {
		switch o := inner.(type) {
		case *StaticType:
			return resolveLateBinding(o.baseClass, caller), true
		case *ThisType:
			return resolveLateBinding(o.baseClass, caller), true
		}
		return nil, false
	})
}

func resolveLateBinding(baseClass string, caller PHPType) PHPType {
	if caller == nil {
		return NewObjectType(baseClass)
	}
	if _, ok := caller.(*MixedType); ok {
		return NewObjectType(baseClass)
	}
	return caller
}

// ResolveSpecial binds self, static, parent and $this to the class the declaration lives in.
// Without a class context they degrade to mixed.
func ResolveSpecial(t PHPType, className, parentName string) PHPType {
	return Traverse(t, func(inner PHPType) (PHPType, bool) {
		special, ok := inner.(*SpecialType)
		if !ok {
			return nil, false
		}
		if className == "" {
			return NewMixedType(), true
		}
		switch special.name {
		case "self":
			return NewObjectType(className), true
		case "static":
			return NewStaticType(className), true
		case "$this":
			return NewThisType(className), true
		case "parent":
			if parentName == "" {
				return NewMixedType(), true
			}
			return NewObjectType(parentName), true
		}
		return nil, false
	})
}

// Traverse rebuilds t bottom-up, replacing every type the callback handles
func Traverse(t PHPType, cb func(PHPType) (PHPType, bool)) PHPType {
	if t == nil {
		return nil
	}
	if replaced, ok := cb(t); ok {
		return replaced
	}

	switch o := t.(type) {
	case *UnionType:
		members := make([]PHPType, 0, len(o.types))
		for _, member := range o.types {
			members = append(members, Traverse(member, cb))
		}
		return Union(members...)
	case *IntersectionType:
		members := make([]PHPType, 0, len(o.types))
		for _, member := range o.types {
			members = append(members, Traverse(member, cb))
		}
		return NewIntersectionType(members...)
	case *ArrayType:
		return NewArrayType(Traverse(o.keyType, cb), Traverse(o.itemType, cb))
	case *IterableType:
		return NewIterableType(Traverse(o.itemType, cb))
	case *GenericObjectType:
		args := make([]PHPType, 0, len(o.types))
		for _, arg := range o.types {
			args = append(args, Traverse(arg, cb))
		}
		return NewGenericObjectType(o.className, args)
	}
	return t
}

// ClassNames returns the classes referenced by object types in t
func ClassNames(t PHPType) []string {
	var names []string
	seen := make(map[string]struct{})
	var walk func(PHPType)
	walk = func(inner PHPType) {
		switch o := inner.(type) {
		case *UnionType:
			for _, member := range o.types {
				walk(member)
			}
		case *IntersectionType:
			for _, member := range o.types {
				walk(member)
			}
		default:
			className, ok := objectClassName(inner)
			if !ok {
				return
			}
			key := strings.ToLower(className)
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			names = append(names, className)
		}
	}
	walk(t)
	return names
}

// IsNullable reports whether null is one of the possible values of t
func IsNullable(t PHPType) bool {
	return NewNullType().IsSuperTypeOf(nil, t).IsYes() || containsNull(t)
}

func containsNull(t PHPType) bool {
	if u, ok := t.(*UnionType); ok {
		for _, member := range u.types {
			if _, isNull := member.(*NullType); isNull {
				return true
			}
		}
	}
	return false
}

// disjointClasses reports whether a and b are two unrelated classes. Only interfaces
// can be combined with an unrelated type, so the hierarchy has to know class kinds.
func disjointClasses(h ClassHierarchy, a, b PHPType) bool {
	kinds, ok := h.(ClassKindChecker)
	if !ok {
		return false
	}
	aClass, aOk := a.(*ObjectType)
	bClass, bOk := b.(*ObjectType)
	if !aOk || !bOk {
		return false
	}
	return !kinds.IsInterface(aClass.className) && !kinds.IsInterface(bClass.className)
}

func isPseudoType(t PHPType) bool {
	switch t.(type) {
	case *CallableType, *IterableType, *ObjectWithoutClassType:
		return true
	}
	return false
}
