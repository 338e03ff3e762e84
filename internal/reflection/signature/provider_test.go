package signature

import (
	"testing"

	"github.com/shopware/php-analyser/internal/php"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFunctionSignature(t *testing.T) {
	provider := NewProvider()

	tests := []struct {
		name       string
		function   string
		returnType string
		params     []string
		variadic   bool
	}{
		{name: "simple", function: "strlen", returnType: "int", params: []string{"string"}},
		{name: "case insensitive", function: "STRLEN", returnType: "int", params: []string{"string"}},
		{name: "leading backslash", function: "\\count", returnType: "int", params: []string{"value", "mode"}},
		{name: "doc syntax return", function: "explode", returnType: "array<int, string>", params: []string{"separator", "string", "limit"}},
		{name: "variadic", function: "sprintf", returnType: "string", params: []string{"format", "values"}, variadic: true},
		{name: "no params", function: "func_get_args", returnType: "array<int, mixed>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signature, ok := provider.GetFunctionSignature(tt.function)
			require.True(t, ok)

			var params []string
			for _, param := range signature.Parameters {
				params = append(params, param.Name)
			}
			assert.Equal(t, tt.params, params)
			assert.Equal(t, tt.variadic, signature.Variadic)
			assert.Equal(t, tt.returnType, signature.ReturnType.Name())
		})
	}
}

func TestGetFunctionSignatureParameters(t *testing.T) {
	provider := NewProvider()

	signature, ok := provider.GetFunctionSignature("preg_match")
	require.True(t, ok)
	require.Len(t, signature.Parameters, 5)

	matches := signature.Parameters[2]
	assert.Equal(t, "matches", matches.Name)
	assert.True(t, matches.ByRef)
	assert.True(t, matches.Optional)
	assert.Equal(t, "array|null", matches.Type.Name())
	assert.False(t, signature.Parameters[0].Optional)
	assert.Equal(t, "false|int", signature.ReturnType.Name())
}

func TestGetFunctionSignatureCachesInstances(t *testing.T) {
	provider := NewProvider()

	first, ok := provider.GetFunctionSignature("strlen")
	require.True(t, ok)
	second, ok := provider.GetFunctionSignature("Strlen")
	require.True(t, ok)
	assert.Same(t, first, second)
}

func TestUnknownNames(t *testing.T) {
	provider := NewProvider()

	for _, name := range []string{"", "does_not_exist", "App\\strlen", "str*", "strlen.return", "#", "strlen|count"} {
		assert.False(t, provider.HasFunction(name), name)
		_, ok := provider.GetFunctionSignature(name)
		assert.False(t, ok, name)
		assert.False(t, provider.HasClass(name), name)
	}
}

func TestFunctionNames(t *testing.T) {
	names := NewProvider().FunctionNames()

	assert.Contains(t, names, "strlen")
	assert.Contains(t, names, "func_get_args")
	assert.IsNonDecreasing(t, names)
}

func TestGetClass(t *testing.T) {
	provider := NewProvider()

	decl, ok := provider.GetClass("\\datetime")
	require.True(t, ok)
	assert.Equal(t, "DateTime", decl.Name)
	assert.Equal(t, php.KindClass, decl.Kind)
	assert.Equal(t, []string{"DateTimeInterface"}, decl.Interfaces)
	assert.Empty(t, decl.File)

	format := decl.FindMethod("FORMAT")
	require.NotNil(t, format)
	assert.Equal(t, "string", format.ReturnType)
	assert.Equal(t, php.Public, format.Visibility)
	assert.False(t, format.HasBody)
	require.Len(t, format.Params, 1)
	assert.Equal(t, "format", format.Params[0].Name)

	createFromFormat := decl.FindMethod("createFromFormat")
	require.NotNil(t, createFromFormat)
	assert.True(t, createFromFormat.Static)
	assert.True(t, createFromFormat.Params[2].HasDefault)

	again, ok := provider.GetClass("DateTime")
	require.True(t, ok)
	assert.Same(t, decl, again)
}

func TestGetClassHierarchy(t *testing.T) {
	provider := NewProvider()

	iface, ok := provider.GetClass("Iterator")
	require.True(t, ok)
	assert.Equal(t, php.KindInterface, iface.Kind)
	assert.Equal(t, []string{"Traversable"}, iface.Interfaces)
	assert.True(t, iface.FindMethod("current").Abstract)

	exception, ok := provider.GetClass("InvalidArgumentException")
	require.True(t, ok)
	assert.Equal(t, "LogicException", exception.Parent)

	closure, ok := provider.GetClass("Closure")
	require.True(t, ok)
	assert.True(t, closure.Final)
}

func TestFunctionReflection(t *testing.T) {
	provider := NewProvider()

	signature, ok := provider.GetFunctionSignature("array_push")
	require.True(t, ok)
	function := NewFunctionReflection(signature)

	assert.Equal(t, "array_push", function.Name())
	assert.True(t, function.IsVariadic())
	assert.Equal(t, "int", function.ReturnType().Name())
	assert.Nil(t, function.ThrowType())

	params := function.Parameters()
	require.Len(t, params, 2)
	assert.True(t, params[0].PassedByReference())
	assert.False(t, params[0].HasDefault())
	assert.True(t, params[1].IsVariadic())
	assert.True(t, params[1].IsOptional())
	assert.False(t, params[1].HasDefault())
	assert.Nil(t, params[1].PhpDocType())
	assert.Equal(t, "mixed", params[1].NativeType().Name())
}
