package phpdoc

import (
	"testing"

	"github.com/shopware/php-analyser/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeStringResolver(t *testing.T) {
	scope := NewNameScope("App", map[string]string{"Collection": "Doctrine\\Collection"}, "App\\Foo", "App\\Base")
	resolver := NewTypeStringResolver()

	testCases := []struct {
		typeText string
		expected string
	}{
		{"int", "int"},
		{"integer", "int"},
		{"?string", "null|string"},
		{"int|string", "int|string"},
		{"int | string", "int|string"},
		{"Bar", "App\\Bar"},
		{"\\DateTime", "DateTime"},
		{"Collection<int, Bar>", "Doctrine\\Collection<int, App\\Bar>"},
		{"Bar[]", "App\\Bar[]"},
		{"Bar[][]", "App\\Bar[][]"},
		{"array<string, int>", "array<string, int>"},
		{"array<int>", "int[]"},
		{"list<string>", "array<int, string>"},
		{"array{a: int, b?: string}", "(int|string)[]"},
		{"array{}", "array"},
		{"callable(int, string): void", "callable"},
		{"callable(int &$a, string ...$rest): ?int", "callable"},
		{"Closure(int): bool", "Closure"},
		{"self", "App\\Foo"},
		{"static", "static(App\\Foo)"},
		{"$this", "$this(App\\Foo)"},
		{"parent", "App\\Base"},
		{"scalar", "bool|float|int|string"},
		{"array-key", "int|string"},
		{"positive-int", "int"},
		{"int<0, max>", "int"},
		{"class-string<Bar>", "string"},
		{"(A|B)[]", "(App\\A|App\\B)[]"},
		{"A&B", "App\\A&App\\B"},
		{"self::TYPE_*", "mixed"},
		{"iterable<Bar>", "iterable<App\\Bar>"},
		{"true|false", "bool"},
		{"'foo'|'bar'", "string"},
		{"1|2.5", "float|int"},
		{"null", "null"},
		{"never-return", "never"},
	}

	for _, tc := range testCases {
		t.Run(tc.typeText, func(t *testing.T) {
			resolved, err := resolver.Resolve(tc.typeText, scope)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, resolved.Name())
		})
	}
}

func TestTypeStringResolverWithoutClassContext(t *testing.T) {
	resolver := NewTypeStringResolver()

	resolved, err := resolver.Resolve("self|int", NewNameScope("", nil, "", ""))
	require.NoError(t, err)
	assert.Equal(t, "mixed", resolved.Name())

	resolved, err = resolver.Resolve("Foo", nil)
	require.NoError(t, err)
	assert.Equal(t, "Foo", resolved.Name())
}

func TestTypeStringResolverTemplateTypes(t *testing.T) {
	resolver := NewTypeStringResolver()
	scope := NewNameScope("App", nil, "", "")

	resolved, err := resolver.Resolve("T[]", scope)
	require.NoError(t, err)
	assert.Equal(t, "App\\T[]", resolved.Name())

	bound, err := resolver.Resolve("Bar", scope)
	require.NoError(t, err)
	withTemplates := scope.WithTemplateTypes(map[string]types.PHPType{"T": bound})

	resolved, err = resolver.Resolve("T[]", withTemplates)
	require.NoError(t, err)
	assert.Equal(t, "App\\Bar[]", resolved.Name())

	assert.Empty(t, scope.TemplateTypes)
}

func TestTypeStringResolverMalformed(t *testing.T) {
	resolver := NewTypeStringResolver()

	for _, typeText := range []string{"", "array<int", "int|", "Foo<>", "(int", "array{a: int", "int string", "callable(int", "'open", "Foo::"} {
		t.Run(typeText, func(t *testing.T) {
			_, err := resolver.Resolve(typeText, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedType)
		})
	}
}
