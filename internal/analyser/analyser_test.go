package analyser_test

import (
	"testing"

	"github.com/shopware/php-analyser/internal/analyser"
	"github.com/shopware/php-analyser/internal/analysistest"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/stretchr/testify/require"
)

const classesSource = `<?php
namespace App;

interface Shape
{
}

class A
{
    const LIMIT = 10;
    const LABEL = 'a';

    public ?string $name = null;
    public ?B $b = null;
    public static int $instances = 0;

    public function self(): static
    {
        return $this;
    }

    public function has(mixed $value): bool
    {
        return true;
    }

    public static function create(): static
    {
        return new static();
    }
}

class B
{
    public int $count = 0;
}

final class Box implements \ArrayAccess
{
    public function offsetExists(mixed $offset): bool
    {
        return true;
    }

    public function offsetGet(mixed $offset): string
    {
        return '';
    }

    public function offsetSet(mixed $offset, mixed $value): void
    {
    }

    public function offsetUnset(mixed $offset): void
    {
    }
}

function sum(int ...$values): int
{
    return array_sum($values);
}

$anonymous = new class {
    public int $id = 0;
};
`

type fixture struct {
	harness *analysistest.Harness
	factory *analyser.ScopeFactory
	file    string
}

func newFixture(t *testing.T, dynamicConstantNames ...string) *fixture {
	t.Helper()

	h := analysistest.New(t)
	h.LoadSources(map[string]string{"src/classes.php": classesSource})
	return &fixture{
		harness: h,
		factory: h.CreateDefaultScopeFactory(dynamicConstantNames...),
		file:    h.Path("src/classes.php"),
	}
}

// scope returns a scope in namespace App with the given variables
func (f *fixture) scope(t *testing.T, variables map[string]string) *analyser.Scope {
	t.Helper()

	resolved := make(map[string]types.PHPType, len(variables))
	for name, typeText := range variables {
		resolved[name] = f.harness.ResolveType(typeText)
	}
	return f.factory.Create(
		analyser.NewScopeContext(f.file),
		analyser.WithNamespace("App"),
		analyser.WithVariableTypes(resolved),
	)
}

func (f *fixture) classScope(t *testing.T, className string) *analyser.Scope {
	t.Helper()

	class, err := f.factory.Broker().GetClass(className)
	require.NoError(t, err)
	return f.scope(t, nil).EnterClass(class)
}
