package broker_test

import (
	"errors"
	"testing"

	"github.com/shopware/php-analyser/internal/analysistest"
	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/broker"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/reflection/crates"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const brokerSource = `<?php
namespace App;

interface Named
{
    public function name(): string;
}

abstract class Base implements Named
{
}

class Impl extends Base
{
    public function name(): string
    {
        return 'impl';
    }
}

class Bag extends \stdClass
{
}

function helper(): int
{
    return 1;
}

$anonymous = new class extends Base {
    public function name(): string
    {
        return 'anonymous';
    }
};
`

// namespaceScope is a program point that only knows its namespace
type namespaceScope struct {
	namespace string
}

func (s namespaceScope) GetType(expr ast.Expr) types.PHPType       { return types.NewMixedType() }
func (s namespaceScope) GetVariableType(name string) types.PHPType { return types.NewMixedType() }
func (s namespaceScope) Namespace() string                         { return s.namespace }
func (s namespaceScope) File() string                              { return "" }
func (s namespaceScope) IsDeclareStrictTypes() bool                { return false }

func newBroker(t *testing.T, dynamicMethodReturnTypeExtensions ...reflection.DynamicMethodReturnTypeExtension) (*analysistest.Harness, *broker.Broker) {
	t.Helper()

	h := analysistest.New(t)
	h.LoadSources(map[string]string{"src/app.php": brokerSource})
	return h, h.CreateBroker(dynamicMethodReturnTypeExtensions, nil)
}

func TestGetClass(t *testing.T) {
	_, b := newBroker(t)

	class, err := b.GetClass("App\\Impl")
	require.NoError(t, err)
	assert.Equal(t, "App\\Impl", class.Name())
	assert.True(t, class.IsClass())

	again, err := b.GetClass("\\app\\impl")
	require.NoError(t, err)
	assert.Same(t, class, again)

	named, err := b.GetClass("App\\Named")
	require.NoError(t, err)
	assert.True(t, named.IsInterface())
	assert.True(t, b.HasClass("App\\Base"))
}

func TestGetClassNotFound(t *testing.T) {
	_, b := newBroker(t)

	_, err := b.GetClass("App\\Missing")
	var notFound *broker.ClassNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "App\\Missing", notFound.ClassName)
	assert.EqualError(t, err, "class App\\Missing not found")
	assert.False(t, b.HasClass("App\\Missing"))
	assert.False(t, b.HasClass(""))
}

func TestGetBuiltInClass(t *testing.T) {
	_, b := newBroker(t)

	class, err := b.GetClass("datetime")
	require.NoError(t, err)
	assert.Equal(t, "DateTime", class.Name())
	assert.True(t, class.Is("DateTimeInterface"))

	method, ok := class.GetMethod("format")
	require.True(t, ok)
	assert.Equal(t, "string", method.ReturnType().Name())
}

func TestAnonymousClass(t *testing.T) {
	h, b := newBroker(t)

	decls := h.GetIndex().AnonymousClasses(h.Path("src/app.php"))
	require.Len(t, decls, 1)

	class, err := b.GetAnonymousClassReflection(decls[0])
	require.NoError(t, err)
	assert.True(t, class.IsAnonymous())
	assert.Equal(t, h.GetAnonymousClassNameHelper().GetAnonymousClassName(h.Path("src/app.php"), decls[0].StartLine), class.Name())
	assert.True(t, class.Is("App\\Named"))

	byName, err := b.GetClass(class.Name())
	require.NoError(t, err)
	assert.Same(t, class, byName)

	_, err = b.GetAnonymousClassReflection(h.File("src/app.php").Classes[0])
	assert.Error(t, err)
}

func TestGetFunction(t *testing.T) {
	_, b := newBroker(t)
	inApp := namespaceScope{namespace: "App"}

	function, err := b.GetFunction("helper", inApp)
	require.NoError(t, err)
	assert.Equal(t, "App\\helper", function.Name())
	assert.Equal(t, "int", function.ReturnType().Name())

	qualified, err := b.GetFunction("\\App\\helper", nil)
	require.NoError(t, err)
	assert.Same(t, function, qualified)

	builtIn, err := b.GetFunction("strlen", inApp)
	require.NoError(t, err)
	assert.Equal(t, "strlen", builtIn.Name())
	assert.Equal(t, "int", builtIn.ReturnType().Name())
	assert.True(t, b.HasFunction("STRLEN", nil))
}

func TestGetFunctionNotFound(t *testing.T) {
	_, b := newBroker(t)

	for _, name := range []string{"missing", "Sub\\helper", "\\helper"} {
		t.Run(name, func(t *testing.T) {
			_, err := b.GetFunction(name, namespaceScope{namespace: "App"})
			var notFound *broker.FunctionNotFoundError
			require.True(t, errors.As(err, &notFound))
			assert.Equal(t, name, notFound.FunctionName)
			assert.False(t, b.HasFunction(name, namespaceScope{namespace: "App"}))
		})
	}
}

func TestResolveFunctionName(t *testing.T) {
	_, b := newBroker(t)

	name, ok := b.ResolveFunctionName("helper", "App")
	require.True(t, ok)
	assert.Equal(t, "App\\helper", name)

	name, ok = b.ResolveFunctionName("Strlen", "App")
	require.True(t, ok)
	assert.Equal(t, "strlen", name)

	_, ok = b.ResolveFunctionName("helper", "")
	assert.False(t, ok)
}

func TestClassHierarchy(t *testing.T) {
	_, b := newBroker(t)

	assert.True(t, b.InstanceOf("App\\Impl", "App\\Named"))
	assert.True(t, b.InstanceOf("\\App\\Impl", "app\\base"))
	assert.False(t, b.InstanceOf("App\\Base", "App\\Impl"))
	assert.True(t, b.InstanceOf("App\\Unknown", "App\\Unknown"))
	assert.False(t, b.InstanceOf("App\\Unknown", "App\\Named"))

	assert.True(t, b.IsInterface("App\\Named"))
	assert.False(t, b.IsInterface("App\\Impl"))
	assert.True(t, b.IsInterface("App\\Unknown"))
}

func TestUniversalObjectCrates(t *testing.T) {
	_, b := newBroker(t)

	assert.True(t, b.IsUniversalObjectCrate("stdClass"))
	assert.True(t, b.IsUniversalObjectCrate("App\\Bag"))
	assert.False(t, b.IsUniversalObjectCrate("App\\Impl"))
	assert.False(t, b.IsUniversalObjectCrate("App\\Unknown"))

	bag, err := b.GetClass("App\\Bag")
	require.NoError(t, err)
	property, ok := bag.GetProperty("anything")
	require.True(t, ok)
	assert.Equal(t, "mixed", property.Type().Name())
}

func TestUniversalObjectCratesComeFromThePropertiesChain(t *testing.T) {
	h := analysistest.New(t)
	h.LoadSources(map[string]string{"src/app.php": brokerSource})
	index := h.GetIndex()

	withoutCrates := broker.New(broker.Options{Index: index, AnonymousClassNamer: h.GetAnonymousClassNameHelper()})
	assert.False(t, withoutCrates.IsUniversalObjectCrate("stdClass"))
	assert.False(t, withoutCrates.IsUniversalObjectCrate("App\\Bag"))

	onlyImpl := broker.New(broker.Options{
		Index:               index,
		AnonymousClassNamer: h.GetAnonymousClassNameHelper(),
		PropertiesExtensions: []reflection.PropertiesClassReflectionExtension{
			crates.NewExtension([]string{"\\App\\Impl"}),
		},
	})
	assert.True(t, onlyImpl.IsUniversalObjectCrate("App\\Impl"))
	assert.False(t, onlyImpl.IsUniversalObjectCrate("stdClass"))
	assert.False(t, onlyImpl.IsUniversalObjectCrate("App\\Bag"))
}

type nameReturnsString struct {
	class    string
	registry reflection.Registry
}

func (e *nameReturnsString) SetBroker(registry reflection.Registry) { e.registry = registry }
func (e *nameReturnsString) GetClass() string                       { return e.class }

func (e *nameReturnsString) IsMethodSupported(method reflection.MethodReflection) bool {
	return method.Name() == "name"
}

func (e *nameReturnsString) GetTypeFromMethodCall(method reflection.MethodReflection, call *ast.MethodCall, scope reflection.Scope) types.PHPType {
	return types.NewStringType()
}

func TestDynamicMethodReturnTypeExtensionsForClass(t *testing.T) {
	onBase := &nameReturnsString{class: "\\App\\Base"}
	onNamed := &nameReturnsString{class: "App\\Named"}
	onBag := &nameReturnsString{class: "App\\Bag"}
	_, b := newBroker(t, onBase, onNamed, onBag)

	assert.Same(t, b, onBase.registry)

	extensions := b.GetDynamicMethodReturnTypeExtensionsForClass("App\\Impl")
	require.Len(t, extensions, 2)
	assert.Same(t, onBase, extensions[0])
	assert.Same(t, onNamed, extensions[1])

	assert.Len(t, b.GetDynamicMethodReturnTypeExtensionsForClass("App\\Bag"), 1)
	assert.Empty(t, b.GetDynamicMethodReturnTypeExtensionsForClass("App\\Unknown"))
	assert.Empty(t, b.GetDynamicStaticMethodReturnTypeExtensionsForClass("App\\Impl"))
	assert.Empty(t, b.GetDynamicFunctionReturnTypeExtensions())
}

func TestResolveMethod(t *testing.T) {
	_, b := newBroker(t)

	method, ok := b.ResolveMethod("App\\Impl", "NAME")
	require.True(t, ok)
	assert.Equal(t, "name", method.Name())
	assert.Equal(t, "App\\Impl", method.DeclaringClass().Name())

	method, ok = b.ResolveMethod("App\\Base", "name")
	require.True(t, ok)
	assert.Equal(t, "App\\Named", method.DeclaringClass().Name())

	_, ok = b.ResolveMethod("App\\Unknown", "name")
	assert.False(t, ok)
}
