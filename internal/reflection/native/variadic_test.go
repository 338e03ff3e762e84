package native

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopware/php-analyser/internal/cache"
	"github.com/shopware/php-analyser/internal/php"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const variadicSource = `<?php
namespace App;

function fixed($a) { return $a; }

function dynamic() {
    return func_get_args();
}

abstract class Base {
    abstract public function run();
}
`

func parseFixture(t *testing.T, parser *php.Parser, source string) (string, *php.File) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "functions.php")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))

	file, err := parser.ParseSource(path, []byte(source))
	require.NoError(t, err)
	return path, file
}

func findFunction(t *testing.T, file *php.File, name string) *php.FunctionDecl {
	t.Helper()
	for _, fn := range file.Functions {
		if fn.Name == name {
			return fn
		}
	}
	t.Fatalf("function %s not found", name)
	return nil
}

func TestCallsVariadicFunctions(t *testing.T) {
	parser, err := php.NewParser()
	require.NoError(t, err)
	defer parser.Close()

	path, file := parseFixture(t, parser, variadicSource)
	analyser := newBodyAnalyser(parser, nil)

	assert.False(t, analyser.callsVariadicFunctions("fixed", path, &findFunction(t, file, "App\\fixed").FunctionLike))
	assert.True(t, analyser.callsVariadicFunctions("dynamic", path, &findFunction(t, file, "App\\dynamic").FunctionLike))

	require.Len(t, file.Classes, 1)
	run := file.Classes[0].FindMethod("run")
	require.NotNil(t, run)
	assert.False(t, analyser.callsVariadicFunctions("Base::run", path, &run.FunctionLike))
}

func TestCallsVariadicFunctionsIsCached(t *testing.T) {
	parser, err := php.NewParser()
	require.NoError(t, err)
	defer parser.Close()

	path, file := parseFixture(t, parser, variadicSource)
	storage := cache.NewMemoryStorage()
	analyser := newBodyAnalyser(parser, cache.New(storage))
	dynamic := findFunction(t, file, "App\\dynamic")

	assert.True(t, analyser.callsVariadicFunctions("dynamic", path, &dynamic.FunctionLike))
	assert.Equal(t, 1, storage.Len())

	cached := newBodyAnalyser(parser, cache.New(storage))
	assert.True(t, cached.callsVariadicFunctions("dynamic", path, &dynamic.FunctionLike))
	assert.Equal(t, 1, storage.Len())
}

func TestCallsVariadicFunctionsUnreadableFile(t *testing.T) {
	parser, err := php.NewParser()
	require.NoError(t, err)
	defer parser.Close()

	_, file := parseFixture(t, parser, variadicSource)
	analyser := newBodyAnalyser(parser, nil)
	analyser.readFile = func(string) ([]byte, error) { return nil, errors.New("gone") }

	assert.False(t, analyser.callsVariadicFunctions("dynamic", "functions.php", &findFunction(t, file, "App\\dynamic").FunctionLike))
}

func TestCallsVariadicFunctionsStaleBody(t *testing.T) {
	parser, err := php.NewParser()
	require.NoError(t, err)
	defer parser.Close()

	_, file := parseFixture(t, parser, variadicSource)
	analyser := newBodyAnalyser(parser, nil)
	analyser.readFile = func(string) ([]byte, error) { return []byte("<?php\n"), nil }

	assert.False(t, analyser.callsVariadicFunctions("dynamic", "functions.php", &findFunction(t, file, "App\\dynamic").FunctionLike))
}
