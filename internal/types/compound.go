package types

import (
	"sort"
	"strings"
)

// UnionType represents a union of multiple PHP types
type UnionType struct {
	BaseType
	types []PHPType
}

// NewUnionType creates a new union type from the given members as-is.
// Use Union to get a normalized type.
func NewUnionType(types ...PHPType) *UnionType {
	sorted := make([]PHPType, len(types))
	copy(sorted, types)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name()) < strings.ToLower(sorted[j].Name())
	})

	names := make([]string, 0, len(sorted))
	for _, t := range sorted {
		if _, ok := t.(*IntersectionType); ok {
			names = append(names, "("+t.Name()+")")
			continue
		}
		names = append(names, t.Name())
	}

	return &UnionType{
		BaseType: BaseType{name: strings.Join(names, "|")},
		types:    sorted,
	}
}

// Types returns the member types of the union
func (t *UnionType) Types() []PHPType {
	return t.types
}

func (t *UnionType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	switch o := other.(type) {
	case *UnionType:
		result := Yes
		for _, member := range o.types {
			result = result.And(t.IsSuperTypeOf(h, member))
		}
		return result
	case *MixedType:
		return Maybe
	case *NeverType:
		return Yes
	}

	results := make([]TrinaryLogic, 0, len(t.types))
	for _, member := range t.types {
		results = append(results, member.IsSuperTypeOf(h, other))
	}
	return Maximum(results...)
}

// IntersectionType represents a value that satisfies all member types at once
type IntersectionType struct {
	BaseType
	types []PHPType
}

// NewIntersectionType creates a new intersection type
func NewIntersectionType(types ...PHPType) *IntersectionType {
	flat := make([]PHPType, 0, len(types))
	for _, t := range types {
		if inner, ok := t.(*IntersectionType); ok {
			flat = append(flat, inner.types...)
			continue
		}
		flat = append(flat, t)
	}
	sort.SliceStable(flat, func(i, j int) bool {
		return strings.ToLower(flat[i].Name()) < strings.ToLower(flat[j].Name())
	})

	names := make([]string, 0, len(flat))
	for _, t := range flat {
		names = append(names, t.Name())
	}

	return &IntersectionType{
		BaseType: BaseType{name: strings.Join(names, "&")},
		types:    flat,
	}
}

// Types returns the member types of the intersection
func (t *IntersectionType) Types() []PHPType {
	return t.types
}

func (t *IntersectionType) IsSuperTypeOf(h ClassHierarchy, other PHPType) TrinaryLogic {
	result := Yes
	for _, member := range t.types {
		result = result.And(member.IsSuperTypeOf(h, other))
	}
	return result
}
