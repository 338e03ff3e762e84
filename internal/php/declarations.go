package php

import "strings"

type Visibility int

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

type ClassKind int

const (
	KindClass ClassKind = iota
	KindInterface
	KindTrait
	KindEnum
)

// File is everything the analyser needs to know about one parsed PHP file
type File struct {
	Path             string          `msgpack:"path"`
	Hash             uint64          `msgpack:"hash"`
	StrictTypes      bool            `msgpack:"strict_types"`
	Classes          []*ClassDecl    `msgpack:"classes"`
	Functions        []*FunctionDecl `msgpack:"functions"`
	AnonymousClasses []*ClassDecl    `msgpack:"anonymous_classes"`
}

// NameContext is the namespace and use statements a declaration was written in.
// FunctionUses holds the `use function` imports.
type NameContext struct {
	Namespace    string            `msgpack:"namespace"`
	Uses         map[string]string `msgpack:"uses"`
	FunctionUses map[string]string `msgpack:"function_uses"`
}

// Resolver returns an alias resolver for the context
func (c NameContext) Resolver() *AliasResolver {
	return NewAliasResolver(c.Namespace, c.Uses).WithFunctionUses(c.FunctionUses)
}

type ClassDecl struct {
	NameContext `msgpack:",inline"`

	// Name is the fully qualified class name, empty for anonymous classes
	Name       string          `msgpack:"name"`
	Kind       ClassKind       `msgpack:"kind"`
	File       string          `msgpack:"file"`
	StartLine  int             `msgpack:"start_line"`
	EndLine    int             `msgpack:"end_line"`
	Parent     string          `msgpack:"parent"`
	Interfaces []string        `msgpack:"interfaces"`
	Traits     []string        `msgpack:"traits"`
	Abstract   bool            `msgpack:"abstract"`
	Final      bool            `msgpack:"final"`
	Anonymous  bool            `msgpack:"anonymous"`
	DocComment string          `msgpack:"doc_comment"`
	Properties []*PropertyDecl `msgpack:"properties"`
	Methods    []*MethodDecl   `msgpack:"methods"`
	Constants  []*ConstantDecl `msgpack:"constants"`
}

func (c *ClassDecl) FindMethod(name string) *MethodDecl {
	for _, m := range c.Methods {
		if strings.EqualFold(m.Name, name) {
			return m
		}
	}
	return nil
}

func (c *ClassDecl) FindProperty(name string) *PropertyDecl {
	for _, p := range c.Properties {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (c *ClassDecl) FindConstant(name string) *ConstantDecl {
	for _, constant := range c.Constants {
		if constant.Name == name {
			return constant
		}
	}
	return nil
}

type PropertyDecl struct {
	Name       string     `msgpack:"name"`
	Type       string     `msgpack:"type"`
	Visibility Visibility `msgpack:"visibility"`
	Static     bool       `msgpack:"static"`
	Readonly   bool       `msgpack:"readonly"`
	Promoted   bool       `msgpack:"promoted"`
	DocComment string     `msgpack:"doc_comment"`
	Line       int        `msgpack:"line"`
}

type ConstantDecl struct {
	Name       string     `msgpack:"name"`
	Value      string     `msgpack:"value"`
	Visibility Visibility `msgpack:"visibility"`
	DocComment string     `msgpack:"doc_comment"`
	Line       int        `msgpack:"line"`
}

type ParamDecl struct {
	Name       string `msgpack:"name"`
	Type       string `msgpack:"type"`
	ByRef      bool   `msgpack:"by_ref"`
	Variadic   bool   `msgpack:"variadic"`
	HasDefault bool   `msgpack:"has_default"`
	// DefaultValue is the default expression as written
	DefaultValue string `msgpack:"default_value"`
	Promoted     bool   `msgpack:"promoted"`
}

// DefaultIsNull reports whether the parameter defaults to null
func (p *ParamDecl) DefaultIsNull() bool {
	return p.HasDefault && strings.EqualFold(strings.TrimPrefix(p.DefaultValue, "\\"), "null")
}

// FunctionLike holds what functions and methods have in common
type FunctionLike struct {
	Name        string       `msgpack:"name"`
	Params      []*ParamDecl `msgpack:"params"`
	ReturnType  string       `msgpack:"return_type"`
	ByRefReturn bool         `msgpack:"by_ref_return"`
	DocComment  string       `msgpack:"doc_comment"`
	StartLine   int          `msgpack:"start_line"`
	HasBody     bool         `msgpack:"has_body"`
	BodyStart   uint         `msgpack:"body_start"`
	BodyEnd     uint         `msgpack:"body_end"`
}

type MethodDecl struct {
	FunctionLike `msgpack:",inline"`

	Visibility Visibility `msgpack:"visibility"`
	Static     bool       `msgpack:"static"`
	Abstract   bool       `msgpack:"abstract"`
	Final      bool       `msgpack:"final"`
}

type FunctionDecl struct {
	FunctionLike `msgpack:",inline"`
	NameContext  `msgpack:",inline"`

	File string `msgpack:"file"`
}
