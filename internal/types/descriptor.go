package types

import (
	"fmt"
)

// Kind identifies the concrete type stored in a Descriptor
type Kind uint8

const (
	KindMixed Kind = iota
	KindNever
	KindVoid
	KindNull
	KindBool
	KindTrue
	KindFalse
	KindInt
	KindFloat
	KindString
	KindResource
	KindCallable
	KindArray
	KindIterable
	KindObjectWithoutClass
	KindObject
	KindGenericObject
	KindStatic
	KindThis
	KindSpecial
	KindUnion
	KindIntersection
)

// Descriptor is the serializable form of a PHPType, used by caches
type Descriptor struct {
	Kind    Kind         `msgpack:"k"`
	Name    string       `msgpack:"n,omitempty"`
	Members []Descriptor `msgpack:"m,omitempty"`
}

// Describe converts a type into its serializable form
func Describe(t PHPType) Descriptor {
	switch o := t.(type) {
	case nil:
		return Descriptor{Kind: KindMixed}
	case *MixedType:
		return Descriptor{Kind: KindMixed}
	case *NeverType:
		return Descriptor{Kind: KindNever}
	case *VoidType:
		return Descriptor{Kind: KindVoid}
	case *NullType:
		return Descriptor{Kind: KindNull}
	case *BoolType:
		value, constant := o.Constant()
		switch {
		case !constant:
			return Descriptor{Kind: KindBool}
		case value:
			return Descriptor{Kind: KindTrue}
		default:
			return Descriptor{Kind: KindFalse}
		}
	case *IntType:
		return Descriptor{Kind: KindInt}
	case *FloatType:
		return Descriptor{Kind: KindFloat}
	case *StringType:
		return Descriptor{Kind: KindString}
	case *ResourceType:
		return Descriptor{Kind: KindResource}
	case *CallableType:
		return Descriptor{Kind: KindCallable}
	case *ArrayType:
		return Descriptor{Kind: KindArray, Members: []Descriptor{Describe(o.keyType), Describe(o.itemType)}}
	case *IterableType:
		return Descriptor{Kind: KindIterable, Members: []Descriptor{Describe(o.itemType)}}
	case *ObjectWithoutClassType:
		return Descriptor{Kind: KindObjectWithoutClass}
	case *ObjectType:
		return Descriptor{Kind: KindObject, Name: o.className}
	case *GenericObjectType:
		return Descriptor{Kind: KindGenericObject, Name: o.className, Members: describeAll(o.types)}
	case *StaticType:
		return Descriptor{Kind: KindStatic, Name: o.baseClass}
	case *ThisType:
		return Descriptor{Kind: KindThis, Name: o.baseClass}
	case *SpecialType:
		return Descriptor{Kind: KindSpecial, Name: o.name}
	case *UnionType:
		return Descriptor{Kind: KindUnion, Members: describeAll(o.types)}
	case *IntersectionType:
		return Descriptor{Kind: KindIntersection, Members: describeAll(o.types)}
	}
	panic(fmt.Sprintf("cannot describe type %T", t))
}

func describeAll(types []PHPType) []Descriptor {
	out := make([]Descriptor, 0, len(types))
	for _, t := range types {
		out = append(out, Describe(t))
	}
	return out
}

// Type rebuilds the PHPType described by d
func (d Descriptor) Type() PHPType {
	switch d.Kind {
	case KindNever:
		return NewNeverType()
	case KindVoid:
		return NewVoidType()
	case KindNull:
		return NewNullType()
	case KindBool:
		return NewBoolType()
	case KindTrue:
		return NewConstantBoolType(true)
	case KindFalse:
		return NewConstantBoolType(false)
	case KindInt:
		return NewIntType()
	case KindFloat:
		return NewFloatType()
	case KindString:
		return NewStringType()
	case KindResource:
		return NewResourceType()
	case KindCallable:
		return NewCallableType()
	case KindArray:
		if len(d.Members) == 2 {
			return NewArrayType(d.Members[0].Type(), d.Members[1].Type())
		}
		return NewArrayType(nil, nil)
	case KindIterable:
		if len(d.Members) == 1 {
			return NewIterableType(d.Members[0].Type())
		}
		return NewIterableType(nil)
	case KindObjectWithoutClass:
		return NewObjectWithoutClassType()
	case KindObject:
		return NewObjectType(d.Name)
	case KindGenericObject:
		return NewGenericObjectType(d.Name, typesOf(d.Members))
	case KindStatic:
		return NewStaticType(d.Name)
	case KindThis:
		return NewThisType(d.Name)
	case KindSpecial:
		return NewSpecialType(d.Name)
	case KindUnion:
		return Union(typesOf(d.Members)...)
	case KindIntersection:
		return NewIntersectionType(typesOf(d.Members)...)
	}
	return NewMixedType()
}

func typesOf(descriptors []Descriptor) []PHPType {
	out := make([]PHPType, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, d.Type())
	}
	return out
}
