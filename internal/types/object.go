package types

import (
	"strings"
)

// ObjectType represents an instance of a named class or interface
type ObjectType struct {
	BaseType
	className string
}

// NewObjectType creates a new object type for the given class name
func NewObjectType(className string) *ObjectType {
	className = normalizeClassName(className)
	return &ObjectType{
		BaseType:  BaseType{name: className},
		className: className,
	}
}

// ClassName returns the class name without a leading backslash
func (t *ObjectType) ClassName() string {
	return t.className
}

func (t *ObjectType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if className, ok := objectClassName(other); ok {
		if instanceOf(h, className, t.className) {
			return Yes
		}
		if instanceOf(h, t.className, className) {
			return Maybe
		}
		return No
	}

	switch other.(type) {
	case *ObjectWithoutClassType, *CallableType:
		return Maybe
	case *IterableType:
		if instanceOf(h, t.className, "Traversable") {
			return Maybe
		}
		return No
	}

	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// GenericObjectType represents a class with template arguments, e.g. Collection<int, Foo>
type GenericObjectType struct {
	BaseType
	className string
	types     []PHPType
}

// NewGenericObjectType creates a new generic object type
func NewGenericObjectType(className string, types []PHPType) *GenericObjectType {
	className = normalizeClassName(className)
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name())
	}
	return &GenericObjectType{
		BaseType:  BaseType{name: className + "<" + strings.Join(names, ", ") + ">"},
		className: className,
		types:     types,
	}
}

func (t *GenericObjectType) ClassName() string   { return t.className }
func (t *GenericObjectType) TypeArgs() []PHPType { return t.types }

func (t *GenericObjectType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if o, ok := other.(*GenericObjectType); ok && sameClass(o.className, t.className) {
		if len(o.types) != len(t.types) {
			return Maybe
		}
		result := Yes
		for i := range t.types {
			result = result.And(t.types[i].IsSuperTypeOf(h, o.types[i]))
		}
		return result
	}
	if className, ok := objectClassName(other); ok {
		if instanceOf(h, className, t.className) || instanceOf(h, t.className, className) {
			return Maybe
		}
		return No
	}
	if _, ok := other.(*ObjectWithoutClassType); ok {
		return Maybe
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// StaticType represents late static binding, static(Foo) is Foo or one of its children
type StaticType struct {
	BaseType
	baseClass string
}

// NewStaticType creates a new static type bound to the given base class
func NewStaticType(baseClass string) *StaticType {
	baseClass = normalizeClassName(baseClass)
	return &StaticType{BaseType: BaseType{name: "static(" + baseClass + ")"}, baseClass: baseClass}
}

func (t *StaticType) BaseClass() string { return t.baseClass }

func (t *StaticType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	switch o := other.(type) {
	case *StaticType:
		if instanceOf(h, o.baseClass, t.baseClass) {
			return Yes
		}
		return Maybe
	case *ThisType:
		if instanceOf(h, o.baseClass, t.baseClass) {
			return Yes
		}
		return Maybe
	}
	return NewObjectType(t.baseClass).IsSuperTypeOf(h, other).And(Maybe)
}

// ThisType represents $this, the exact instance the method was called on
type ThisType struct {
	BaseType
	baseClass string
}

// NewThisType creates a new $this type bound to the given base class
func NewThisType(baseClass string) *ThisType {
	baseClass = normalizeClassName(baseClass)
	return &ThisType{BaseType: BaseType{name: "$this(" + baseClass + ")"}, baseClass: baseClass}
}

func (t *ThisType) BaseClass() string { return t.baseClass }

func (t *ThisType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if o, ok := other.(*ThisType); ok {
		if instanceOf(h, o.baseClass, t.baseClass) {
			return Yes
		}
		return Maybe
	}
	return NewObjectType(t.baseClass).IsSuperTypeOf(h, other).And(Maybe)
}

// ObjectWithoutClassType represents the PHP object type
type ObjectWithoutClassType struct {
	BaseType
}

// NewObjectWithoutClassType creates a new object type without a class
func NewObjectWithoutClassType() *ObjectWithoutClassType {
	return &ObjectWithoutClassType{BaseType: BaseType{name: "object"}}
}

func (t *ObjectWithoutClassType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if isObjectLike(other) {
		return Yes
	}
	switch other.(type) {
	case *CallableType, *IterableType:
		return Maybe
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// objectClassName returns the class a value of t is guaranteed to be an instance of
func objectClassName(t PHPType) (string, bool) {
	switch o := t.(type) {
	case *ObjectType:
		return o.className, true
	case *GenericObjectType:
		return o.className, true
	case *StaticType:
		return o.baseClass, true
	case *ThisType:
		return o.baseClass, true
	}
	return "", false
}

func isObjectLike(t PHPType) bool {
	switch o := t.(type) {
	case *ObjectType, *GenericObjectType, *StaticType, *ThisType, *ObjectWithoutClassType:
		return true
	case *IntersectionType:
		for _, member := range o.types {
			if !isObjectLike(member) {
				return false
			}
		}
		return true
	}
	return false
}
