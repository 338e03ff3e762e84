package native

import (
	"testing"

	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParameters(t *testing.T) {
	decls := []*php.ParamDecl{
		{Name: "id", Type: "int"},
		{Name: "name", Type: "string", HasDefault: true, DefaultValue: "''"},
		{Name: "items", Type: "array"},
		{Name: "parent", Type: "self", HasDefault: true, DefaultValue: "null"},
		{Name: "rest", Variadic: true, ByRef: true},
	}
	phpDoc := map[string]types.PHPType{
		"items": types.NewArrayType(nil, types.NewStringType()),
		"id":    types.NewStringType(),
	}

	params := buildParameters(nil, decls, phpDoc, "App\\Node", "")
	require.Len(t, params, 5)

	tests := []struct {
		name       string
		typ        string
		native     string
		optional   bool
		hasDefault bool
	}{
		{name: "id", typ: "int", native: "int"},
		{name: "name", typ: "string", native: "string", hasDefault: true},
		{name: "items", typ: "string[]", native: "array"},
		{name: "parent", typ: "App\\Node|null", native: "App\\Node|null", optional: true, hasDefault: true},
		{name: "rest", typ: "mixed", native: "mixed", optional: true},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			param := params[i]
			assert.Equal(t, tt.name, param.Name())
			assert.Equal(t, tt.typ, param.Type().Name())
			assert.Equal(t, tt.native, param.NativeType().Name())
			assert.Equal(t, tt.optional, param.IsOptional())
			assert.Equal(t, tt.hasDefault, param.HasDefault())
		})
	}

	assert.Nil(t, params[1].PhpDocType())
	assert.Equal(t, "string", params[0].PhpDocType().Name())
	assert.True(t, params[4].IsVariadic())
	assert.True(t, params[4].PassedByReference())
}
