package reflection

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	classes    map[string]*ClassReflection
	properties []PropertiesClassReflectionExtension
	methods    []MethodsClassReflectionExtension
}

func newFakeRegistry(decls ...*php.ClassDecl) *fakeRegistry {
	r := &fakeRegistry{classes: make(map[string]*ClassReflection)}
	for _, decl := range decls {
		r.classes[strings.ToLower(decl.Name)] = NewClassReflection(r, decl, decl.Name)
	}
	return r
}

func (r *fakeRegistry) GetClass(name string) (*ClassReflection, error) {
	class, ok := r.classes[strings.ToLower(strings.TrimPrefix(name, "\\"))]
	if !ok {
		return nil, fmt.Errorf("class %s not found", name)
	}
	return class, nil
}

func (r *fakeRegistry) HasClass(name string) bool {
	_, err := r.GetClass(name)
	return err == nil
}

func (r *fakeRegistry) InstanceOf(className, parentName string) bool {
	class, err := r.GetClass(className)
	return err == nil && class.Is(parentName)
}

func (r *fakeRegistry) PropertiesExtensions() []PropertiesClassReflectionExtension {
	return r.properties
}

func (r *fakeRegistry) MethodsExtensions() []MethodsClassReflectionExtension {
	return r.methods
}

func (r *fakeRegistry) class(t *testing.T, name string) *ClassReflection {
	t.Helper()
	class, err := r.GetClass(name)
	require.NoError(t, err)
	return class
}

type stubProperty struct {
	declaringClass *ClassReflection
	typ            types.PHPType
}

func (p *stubProperty) DeclaringClass() *ClassReflection { return p.declaringClass }
func (p *stubProperty) IsStatic() bool                   { return false }
func (p *stubProperty) IsPrivate() bool                  { return false }
func (p *stubProperty) IsPublic() bool                   { return true }
func (p *stubProperty) Type() types.PHPType              { return p.typ }
func (p *stubProperty) IsReadable() bool                 { return true }
func (p *stubProperty) IsWritable() bool                 { return true }

// stubPropertiesExtension knows a fixed set of property names and counts lookups
type stubPropertiesExtension struct {
	names map[string]types.PHPType
	gets  int
}

func (e *stubPropertiesExtension) HasProperty(class *ClassReflection, propertyName string) bool {
	_, ok := e.names[propertyName]
	return ok
}

func (e *stubPropertiesExtension) GetProperty(class *ClassReflection, propertyName string) PropertyReflection {
	e.gets++
	return &stubProperty{declaringClass: class, typ: e.names[propertyName]}
}

func hierarchyFixture() *fakeRegistry {
	return newFakeRegistry(
		&php.ClassDecl{Name: "App\\Countable", Kind: php.KindInterface, Constants: []*php.ConstantDecl{{Name: "LIMIT", Value: "10", Visibility: php.Public}}},
		&php.ClassDecl{Name: "App\\Sized", Kind: php.KindInterface, Interfaces: []string{"App\\Countable"}},
		&php.ClassDecl{Name: "App\\Base", Abstract: true, Interfaces: []string{"App\\Sized", "Vendor\\Missing"}, Constants: []*php.ConstantDecl{{Name: "TYPE", Value: "'base'", Visibility: php.Protected}}},
		&php.ClassDecl{Name: "App\\Product", Parent: "App\\Base", Final: true, Traits: []string{"App\\Timestamps", "App\\Unknown"}},
		&php.ClassDecl{Name: "App\\Timestamps", Kind: php.KindTrait},
		&php.ClassDecl{Name: "App\\Orphan", Parent: "Vendor\\Gone"},
		&php.ClassDecl{Name: "App\\LoopA", Parent: "App\\LoopB"},
		&php.ClassDecl{Name: "App\\LoopB", Parent: "App\\LoopA"},
	)
}

func TestClassKinds(t *testing.T) {
	registry := hierarchyFixture()

	assert.True(t, registry.class(t, "App\\Sized").IsInterface())
	assert.True(t, registry.class(t, "App\\Sized").IsAbstract())
	assert.True(t, registry.class(t, "App\\Base").IsAbstract())
	assert.True(t, registry.class(t, "App\\Base").IsClass())
	assert.True(t, registry.class(t, "App\\Product").IsFinal())
	assert.True(t, registry.class(t, "App\\Timestamps").IsTrait())
}

func TestParents(t *testing.T) {
	registry := hierarchyFixture()

	product := registry.class(t, "App\\Product")
	require.NotNil(t, product.ParentClass())
	assert.Equal(t, "App\\Base", product.ParentClass().Name())
	assert.Len(t, product.Parents(), 1)

	orphan := registry.class(t, "App\\Orphan")
	assert.Nil(t, orphan.ParentClass())
	assert.Equal(t, "Vendor\\Gone", orphan.ParentClassName())

	loop := registry.class(t, "App\\LoopA")
	assert.Len(t, loop.Parents(), 1)
}

func TestInterfaces(t *testing.T) {
	registry := hierarchyFixture()

	var names []string
	for _, iface := range registry.class(t, "App\\Product").Interfaces() {
		names = append(names, iface.Name())
	}
	assert.Equal(t, []string{"App\\Sized", "App\\Countable"}, names)
}

func TestTraits(t *testing.T) {
	registry := hierarchyFixture()

	traits := registry.class(t, "App\\Product").Traits()
	require.Len(t, traits, 1)
	assert.Equal(t, "App\\Timestamps", traits[0].Name())
}

func TestAncestorNames(t *testing.T) {
	registry := hierarchyFixture()

	assert.Equal(t,
		[]string{"App\\Product", "App\\Base", "App\\Sized", "App\\Countable", "Vendor\\Missing"},
		registry.class(t, "App\\Product").AncestorNames(),
	)
	assert.Equal(t, []string{"App\\Orphan", "Vendor\\Gone"}, registry.class(t, "App\\Orphan").AncestorNames())
	assert.Equal(t, []string{"App\\LoopA", "App\\LoopB"}, registry.class(t, "App\\LoopA").AncestorNames())
}

func TestIsSubclassOf(t *testing.T) {
	registry := hierarchyFixture()
	product := registry.class(t, "App\\Product")

	tests := []struct {
		className string
		subclass  bool
		is        bool
	}{
		{className: "App\\Product", subclass: false, is: true},
		{className: "\\app\\product", subclass: false, is: true},
		{className: "App\\Base", subclass: true, is: true},
		{className: "\\App\\Countable", subclass: true, is: true},
		{className: "Vendor\\Missing", subclass: true, is: true},
		{className: "App\\Timestamps", subclass: false, is: false},
		{className: "App\\Orphan", subclass: false, is: false},
	}

	for _, tt := range tests {
		t.Run(tt.className, func(t *testing.T) {
			assert.Equal(t, tt.subclass, product.IsSubclassOf(tt.className))
			assert.Equal(t, tt.is, product.Is(tt.className))
		})
	}
}

func TestDisplayName(t *testing.T) {
	decl := &php.ClassDecl{Name: "", File: "src/a.php", StartLine: 7, Anonymous: true}
	registry := newFakeRegistry()
	class := NewClassReflection(registry, decl, "AnonymousClass0123")

	assert.Equal(t, "AnonymousClass0123", class.Name())
	assert.Equal(t, "class@anonymous/src/a.php:7", class.DisplayName())
	assert.True(t, class.IsAnonymous())
}

func TestGetConstant(t *testing.T) {
	registry := hierarchyFixture()
	product := registry.class(t, "App\\Product")

	constant, ok := product.GetConstant("TYPE")
	require.True(t, ok)
	assert.Equal(t, "App\\Base", constant.DeclaringClass().Name())
	assert.Equal(t, "'base'", constant.Value())
	assert.False(t, constant.IsPublic())
	assert.True(t, constant.IsStatic())

	constant, ok = product.GetConstant("LIMIT")
	require.True(t, ok)
	assert.Equal(t, "App\\Countable", constant.DeclaringClass().Name())

	assert.False(t, product.HasConstant("limit"))
	assert.False(t, product.HasConstant("MISSING"))
}

func TestPropertyExtensionChain(t *testing.T) {
	registry := hierarchyFixture()
	first := &stubPropertiesExtension{names: map[string]types.PHPType{"name": types.NewStringType()}}
	second := &stubPropertiesExtension{names: map[string]types.PHPType{"name": types.NewIntType(), "id": types.NewIntType()}}
	registry.properties = []PropertiesClassReflectionExtension{first, second}

	product := registry.class(t, "App\\Product")

	property, ok := product.GetProperty("name")
	require.True(t, ok)
	assert.Equal(t, "string", property.Type().Name())

	property, ok = product.GetProperty("id")
	require.True(t, ok)
	assert.Equal(t, "int", property.Type().Name())

	again, ok := product.GetProperty("name")
	require.True(t, ok)
	assert.Equal(t, "string", again.Type().Name())
	assert.Same(t, product, again.DeclaringClass())
	assert.Equal(t, 1, first.gets)

	assert.True(t, product.HasProperty("id"))
	assert.False(t, product.HasProperty("missing"))
	_, ok = product.GetProperty("missing")
	assert.False(t, ok)
}
