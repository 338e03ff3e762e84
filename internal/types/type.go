// Package types models statically known PHP types.
package types

import (
	"strings"
)

// PHPType represents a PHP type with methods to compare and match against other types
type PHPType interface {
	// Name returns the canonical string representation of the type
	Name() string

	// Equals reports structural equality through the canonical name
	Equals(other PHPType) bool

	// IsSuperTypeOf determines whether every value of other is also a value of this type
	IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic
}

// ClassHierarchy answers class ancestry questions for object type comparisons.
// A nil hierarchy only knows that a class is an instance of itself.
type ClassHierarchy interface {
	InstanceOf(className, parentName string) bool
}

// ClassKindChecker is implemented by hierarchies that know which names are interfaces
type ClassKindChecker interface {
	IsInterface(className string) bool
}

// BaseType provides common functionality for PHP types
type BaseType struct {
	name string
}

// Name returns the string name of the type
func (t *BaseType) Name() string {
	return t.name
}

// Equals compares canonical names, class names are case-insensitive in PHP
func (t *BaseType) Equals(other PHPType) bool {
	if other == nil {
		return false
	}
	return strings.EqualFold(t.name, other.Name())
}

func normalizeClassName(className string) string {
	return strings.TrimPrefix(strings.TrimSpace(className), "\\")
}

func sameClass(a, b string) bool {
	return strings.EqualFold(normalizeClassName(a), normalizeClassName(b))
}

func instanceOf(h ClassHierarchy, className, parentName string) bool {
	if sameClass(className, parentName) {
		return true
	}
	if h == nil {
		return false
	}
	return h.InstanceOf(normalizeClassName(className), normalizeClassName(parentName))
}

// compoundSubject handles the cases where the other type decides the answer on its own.
func compoundSubject(h ClassHierarchy, t PHPType, other PHPType) (TrinaryLogic, bool) {
	switch o := other.(type) {
	case *UnionType:
		results := make([]TrinaryLogic, 0, len(o.types))
		for _, member := range o.types {
			results = append(results, t.IsSuperTypeOf(h, member))
		}
		return ExtremeIdentity(results...), true
	case *IntersectionType:
		results := make([]TrinaryLogic, 0, len(o.types))
		for _, member := range o.types {
			results = append(results, t.IsSuperTypeOf(h, member))
		}
		strongest := Maximum(results...)
		if !strongest.IsYes() && isObjectLike(t) {
			// an unrelated interface may still be implemented by every value
			return Maybe, true
		}
		return strongest, true
	case *MixedType:
		return Maybe, true
	case *NeverType:
		return Yes, true
	}
	return No, false
}

// NewPHPType creates a new PHPType from a native declaration such as "?int", "string|false"
// or "Foo&Bar". Doc-comment syntax (generics, shapes) is handled by the phpdoc package.
func NewPHPType(typeName string) PHPType {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return NewMixedType()
	}

	// Handle nullable types (e.g., ?string, ?int, ?string|int)
	isNullable := false
	if strings.HasPrefix(typeName, "?") {
		isNullable = true
		typeName = typeName[1:]
	}

	if strings.Contains(typeName, "|") {
		typeNames := strings.Split(typeName, "|")
		members := make([]PHPType, 0, len(typeNames)+1)
		for _, name := range typeNames {
			members = append(members, NewPHPType(strings.Trim(name, "()")))
		}
		if isNullable {
			members = append(members, NewNullType())
		}
		return Union(members...)
	}

	var baseType PHPType
	if strings.Contains(typeName, "&") {
		typeNames := strings.Split(typeName, "&")
		members := make([]PHPType, 0, len(typeNames))
		for _, name := range typeNames {
			members = append(members, NewPHPType(name))
		}
		baseType = NewIntersectionType(members...)
	} else if strings.HasSuffix(typeName, "[]") {
		baseType = NewArrayType(nil, NewPHPType(strings.TrimSuffix(typeName, "[]")))
	} else {
		baseType = newSimpleType(typeName)
	}

	if isNullable {
		return Union(baseType, NewNullType())
	}
	return baseType
}

func newSimpleType(typeName string) PHPType {
	switch strings.ToLower(typeName) {
	case "string":
		return NewStringType()
	case "int", "integer":
		return NewIntType()
	case "float", "double":
		return NewFloatType()
	case "bool", "boolean":
		return NewBoolType()
	case "true":
		return NewConstantBoolType(true)
	case "false":
		return NewConstantBoolType(false)
	case "array":
		return NewArrayType(nil, nil)
	case "object":
		return NewObjectWithoutClassType()
	case "callable":
		return NewCallableType()
	case "iterable":
		return NewIterableType(nil)
	case "resource":
		return NewResourceType()
	case "void":
		return NewVoidType()
	case "null":
		return NewNullType()
	case "mixed":
		return NewMixedType()
	case "never":
		return NewNeverType()
	case "self", "static", "parent", "$this":
		return NewSpecialType(strings.ToLower(typeName))
	default:
		// If not a recognized primitive type, assume it's a class/interface
		return NewObjectType(typeName)
	}
}

// MixedType represents the PHP mixed type, the top of the lattice
type MixedType struct {
	BaseType
}

// NewMixedType creates a new mixed type
func NewMixedType() *MixedType {
	return &MixedType{BaseType: BaseType{name: "mixed"}}
}

func (t *MixedType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	return Yes
}

// NeverType represents the bottom type, the result of impossible narrowing
type NeverType struct {
	BaseType
}

// NewNeverType creates a new never type
func NewNeverType() *NeverType {
	return &NeverType{BaseType: BaseType{name: "never"}}
}

func (t *NeverType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if _, ok := other.(*NeverType); ok {
		return Yes
	}
	return No
}

// VoidType represents the PHP void return type
type VoidType struct {
	BaseType
}

// NewVoidType creates a new void type
func NewVoidType() *VoidType {
	return &VoidType{BaseType: BaseType{name: "void"}}
}

func (t *VoidType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if _, ok := other.(*VoidType); ok {
		return Yes
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// NullType represents the PHP null type
type NullType struct {
	BaseType
}

// NewNullType creates a new null type
func NewNullType() *NullType {
	return &NullType{BaseType: BaseType{name: "null"}}
}

func (t *NullType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if _, ok := other.(*NullType); ok {
		return Yes
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// BoolType represents bool, or one of the constants true and false
type BoolType struct {
	BaseType
	constant bool
	value    bool
}

// NewBoolType creates a new boolean type
func NewBoolType() *BoolType {
	return &BoolType{BaseType: BaseType{name: "bool"}}
}

// NewConstantBoolType creates the type of the literal true or false
func NewConstantBoolType(value bool) *BoolType {
	name := "false"
	if value {
		name = "true"
	}
	return &BoolType{BaseType: BaseType{name: name}, constant: true, value: value}
}

// Constant returns the literal value and whether the type is a literal at all
func (t *BoolType) Constant() (value bool, ok bool) {
	return t.value, t.constant
}

func (t *BoolType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if o, ok := other.(*BoolType); ok {
		switch {
		case !t.constant:
			return Yes
		case !o.constant:
			return Maybe
		case o.value == t.value:
			return Yes
		default:
			return No
		}
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// IntType represents the PHP integer type
type IntType struct {
	BaseType
}

// NewIntType creates a new integer type
func NewIntType() *IntType {
	return &IntType{BaseType: BaseType{name: "int"}}
}

func (t *IntType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if _, ok := other.(*IntType); ok {
		return Yes
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// FloatType represents the PHP float type
type FloatType struct {
	BaseType
}

// NewFloatType creates a new float type
func NewFloatType() *FloatType {
	return &FloatType{BaseType: BaseType{name: "float"}}
}

func (t *FloatType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if _, ok := other.(*FloatType); ok {
		return Yes
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// StringType represents the PHP string type
type StringType struct {
	BaseType
}

// NewStringType creates a new string type
func NewStringType() *StringType {
	return &StringType{BaseType: BaseType{name: "string"}}
}

func (t *StringType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if _, ok := other.(*StringType); ok {
		return Yes
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// ResourceType represents the PHP resource type
type ResourceType struct {
	BaseType
}

func NewResourceType() *ResourceType {
	return &ResourceType{BaseType: BaseType{name: "resource"}}
}

func (t *ResourceType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if _, ok := other.(*ResourceType); ok {
		return Yes
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// CallableType represents the PHP callable type
type CallableType struct {
	BaseType
}

// NewCallableType creates a new callable type
func NewCallableType() *CallableType {
	return &CallableType{BaseType: BaseType{name: "callable"}}
}

func (t *CallableType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	switch o := other.(type) {
	case *CallableType:
		return Yes
	case *StringType, *ArrayType, *ObjectWithoutClassType:
		return Maybe
	case *ObjectType:
		if sameClass(o.className, "Closure") {
			return Yes
		}
		return Maybe
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// ArrayType represents the PHP array type with its key and item types
type ArrayType struct {
	BaseType
	keyType  PHPType
	itemType PHPType
}

// NewArrayType creates a new array type, nil key or item types mean mixed
func NewArrayType(keyType, itemType PHPType) *ArrayType {
	if keyType == nil {
		keyType = NewMixedType()
	}
	if itemType == nil {
		itemType = NewMixedType()
	}

	_, mixedKey := keyType.(*MixedType)
	_, mixedItem := itemType.(*MixedType)

	var name string
	switch {
	case mixedKey && mixedItem:
		name = "array"
	case mixedKey:
		name = wrapCompound(itemType) + "[]"
	default:
		name = "array<" + keyType.Name() + ", " + itemType.Name() + ">"
	}

	return &ArrayType{
		BaseType: BaseType{name: name},
		keyType:  keyType,
		itemType: itemType,
	}
}

func (t *ArrayType) KeyType() PHPType  { return t.keyType }
func (t *ArrayType) ItemType() PHPType { return t.itemType }

func (t *ArrayType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	switch o := other.(type) {
	case *ArrayType:
		return t.keyType.IsSuperTypeOf(h, o.keyType).And(t.itemType.IsSuperTypeOf(h, o.itemType))
	case *IterableType:
		return Maybe
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// IterableType represents the PHP iterable pseudo type
type IterableType struct {
	BaseType
	itemType PHPType
}

// NewIterableType creates a new iterable type, nil item type means mixed
func NewIterableType(itemType PHPType) *IterableType {
	if itemType == nil {
		itemType = NewMixedType()
	}
	name := "iterable"
	if _, ok := itemType.(*MixedType); !ok {
		name = "iterable<" + itemType.Name() + ">"
	}
	return &IterableType{BaseType: BaseType{name: name}, itemType: itemType}
}

func (t *IterableType) ItemType() PHPType { return t.itemType }

func (t *IterableType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	switch o := other.(type) {
	case *ArrayType:
		return t.itemType.IsSuperTypeOf(h, o.itemType)
	case *IterableType:
		return t.itemType.IsSuperTypeOf(h, o.itemType)
	case *ObjectType:
		if instanceOf(h, o.className, "Traversable") {
			if _, ok := t.itemType.(*MixedType); ok {
				return Yes
			}
		}
		return Maybe
	case *GenericObjectType, *ObjectWithoutClassType:
		return Maybe
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

// SpecialType represents self, static, parent and $this before they are resolved
// against a class context
type SpecialType struct {
	BaseType
}

// NewSpecialType creates a new special type
func NewSpecialType(typeName string) *SpecialType {
	return &SpecialType{BaseType: BaseType{name: typeName}}
}

func (t *SpecialType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	if o, ok := other.(*SpecialType); ok && o.name == t.name {
		return Yes
	}
	if result, ok := compoundSubject(h, t, other); ok {
		return result
	}
	return No
}

func wrapCompound(t PHPType) string {
	switch t.(type) {
	case *UnionType, *IntersectionType:
		return "(" + t.Name() + ")"
	}
	return t.Name()
}
