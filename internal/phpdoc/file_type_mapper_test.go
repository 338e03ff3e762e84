package phpdoc

import (
	"fmt"
	"testing"

	"github.com/shopware/php-analyser/internal/cache"
	"github.com/shopware/php-analyser/internal/php"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapperSource = `<?php
namespace App\Model;

use Doctrine\Common\Collections\Collection;

class Base {}

class Product extends Base
{
    use \App\Traits\Timestamps;
}

function make_product() {}

$anonymous = new class {};
`

const traitSource = `<?php
namespace App\Traits;

use Carbon\Carbon;

trait Timestamps {}
`

type lineNamer struct{}

func (lineNamer) GetAnonymousClassName(fileName string, startLine int) string {
	return fmt.Sprintf("class@anonymous/%s:%d", fileName, startLine)
}

func newTestMapper(t *testing.T, c *cache.Cache) *FileTypeMapper {
	t.Helper()

	parser, err := php.NewParser()
	require.NoError(t, err)
	defer parser.Close()

	idx := php.NewIndex()
	_, err = idx.AddSource(parser, "src/Product.php", []byte(mapperSource))
	require.NoError(t, err)
	_, err = idx.AddSource(parser, "src/Timestamps.php", []byte(traitSource))
	require.NoError(t, err)

	return NewFileTypeMapper(idx, c, lineNamer{})
}

func TestFileTypeMapperResolvesInClassContext(t *testing.T) {
	mapper := newTestMapper(t, cache.New(cache.NewMemoryStorage()))

	doc := `/**
 * @param Collection<int, Product> $items
 * @param self $other
 * @return static
 * @throws \RuntimeException
 * @throws InvalidState
 */`

	resolved, err := mapper.GetResolvedPhpDoc("src/Product.php", "App\\Model\\Product", "", "merge", doc)
	require.NoError(t, err)

	params := resolved.ParamTypes()
	assert.Equal(t, "Doctrine\\Common\\Collections\\Collection<int, App\\Model\\Product>", params["items"].Name())
	assert.Equal(t, "App\\Model\\Product", params["other"].Name())
	assert.Equal(t, "static(App\\Model\\Product)", resolved.ReturnType.Name())
	assert.Equal(t, "App\\Model\\InvalidState|RuntimeException", resolved.ThrowType.Name())
}

func TestFileTypeMapperParentAndTemplates(t *testing.T) {
	mapper := newTestMapper(t, nil)

	doc := `/**
 * @template T of Base
 * @param T $item
 * @return parent
 */`

	resolved, err := mapper.GetResolvedPhpDoc("src/Product.php", "App\\Model\\Product", "", "wrap", doc)
	require.NoError(t, err)

	assert.Equal(t, "App\\Model\\Base", resolved.TemplateTypes["T"].Name())
	assert.Equal(t, "App\\Model\\Base", resolved.ParamTypes()["item"].Name())
	assert.Equal(t, "App\\Model\\Base", resolved.ReturnType.Name())
}

func TestFileTypeMapperTraitContext(t *testing.T) {
	mapper := newTestMapper(t, nil)

	doc := `/**
 * @return Carbon
 * @param self $other
 */`

	resolved, err := mapper.GetResolvedPhpDoc("src/Timestamps.php", "App\\Model\\Product", "App\\Traits\\Timestamps", "touch", doc)
	require.NoError(t, err)

	// names resolve in the trait's file, self is the using class
	assert.Equal(t, "Carbon\\Carbon", resolved.ReturnType.Name())
	assert.Equal(t, "App\\Model\\Product", resolved.ParamTypes()["other"].Name())
}

func TestFileTypeMapperFunctionAndFileContext(t *testing.T) {
	mapper := newTestMapper(t, nil)

	resolved, err := mapper.GetResolvedPhpDoc("src/Product.php", "", "", "App\\Model\\make_product", "/** @return Collection */")
	require.NoError(t, err)
	assert.Equal(t, "Doctrine\\Common\\Collections\\Collection", resolved.ReturnType.Name())

	resolved, err = mapper.GetResolvedPhpDoc("src/Product.php", "", "", "", "/** @var Product $product */")
	require.NoError(t, err)
	varType, ok := resolved.VarType("product")
	require.True(t, ok)
	assert.Equal(t, "App\\Model\\Product", varType.Name())

	// self has no meaning outside a class
	resolved, err = mapper.GetResolvedPhpDoc("src/Product.php", "", "", "", "/** @var self */")
	require.NoError(t, err)
	varType, ok = resolved.VarType("anything")
	require.True(t, ok)
	assert.Equal(t, "mixed", varType.Name())
}

func TestFileTypeMapperAnonymousClass(t *testing.T) {
	mapper := newTestMapper(t, nil)

	name := lineNamer{}.GetAnonymousClassName("src/Product.php", 15)
	resolved, err := mapper.GetResolvedPhpDoc("src/Product.php", name, "", "run", "/** @return self|Collection */")
	require.NoError(t, err)

	assert.Equal(t, "class@anonymous/src/Product.php:15|Doctrine\\Common\\Collections\\Collection", resolved.ReturnType.Name())
}

func TestFileTypeMapperUnknownContext(t *testing.T) {
	mapper := newTestMapper(t, nil)

	_, err := mapper.GetResolvedPhpDoc("src/Product.php", "App\\Missing", "", "", "/** @return int */")
	assert.ErrorIs(t, err, ErrUnknownContext)

	_, err = mapper.GetResolvedPhpDoc("src/Product.php", "App\\Model\\Product", "App\\MissingTrait", "", "/** @return int */")
	assert.ErrorIs(t, err, ErrUnknownContext)
}

func TestFileTypeMapperMalformedTypeOnlyAffectsItsTag(t *testing.T) {
	mapper := newTestMapper(t, nil)

	doc := `/**
 * @param array<int $broken
 * @param int $fine
 * @return string
 */`

	resolved, err := mapper.GetResolvedPhpDoc("src/Product.php", "App\\Model\\Product", "", "mixed", doc)
	require.NoError(t, err)

	assert.Equal(t, "mixed", resolved.ParamTypes()["broken"].Name())
	assert.Equal(t, "int", resolved.ParamTypes()["fine"].Name())
	assert.Equal(t, "string", resolved.ReturnType.Name())
}

func TestFileTypeMapperEmptyDocComment(t *testing.T) {
	mapper := newTestMapper(t, nil)

	resolved, err := mapper.GetResolvedPhpDoc("src/Product.php", "App\\Missing", "", "", "  ")
	require.NoError(t, err)
	assert.Nil(t, resolved.ReturnType)
	assert.Nil(t, resolved.ThrowType)
	assert.Empty(t, resolved.ParamTags)
}

func TestFileTypeMapperReturnsSameInstanceForSameKey(t *testing.T) {
	mapper := newTestMapper(t, nil)

	first, err := mapper.GetResolvedPhpDoc("src/Product.php", "App\\Model\\Product", "", "a", "/** @return int */")
	require.NoError(t, err)
	second, err := mapper.GetResolvedPhpDoc("src/Product.php", "App\\Model\\Product", "", "a", "/** @return int */")
	require.NoError(t, err)
	assert.Same(t, first, second)

	other, err := mapper.GetResolvedPhpDoc("src/Product.php", "App\\Model\\Product", "", "a", "/** @return string */")
	require.NoError(t, err)
	assert.NotSame(t, first, other)
	assert.Equal(t, "string", other.ReturnType.Name())
}

func TestFileTypeMapperUsesPersistentCache(t *testing.T) {
	storage := cache.NewMemoryStorage()

	doc := `/**
 * @param Collection<int, Product> $items
 * @property-read int $id
 * @method static Product create(string ...$names)
 * @deprecated
 */`

	first, err := newTestMapper(t, cache.New(storage)).GetResolvedPhpDoc("src/Product.php", "App\\Model\\Product", "", "", doc)
	require.NoError(t, err)
	assert.Equal(t, 1, storage.Len())

	// a fresh mapper loads the resolved doc from storage
	second, err := newTestMapper(t, cache.New(storage)).GetResolvedPhpDoc("src/Product.php", "App\\Model\\Product", "", "", doc)
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	assert.Equal(t, first.ParamTypes()["items"].Name(), second.ParamTypes()["items"].Name())
	assert.Equal(t, first.PropertyTags["id"].Type.Name(), second.PropertyTags["id"].Type.Name())
	assert.Equal(t, first.PropertyTags["id"].Writable, second.PropertyTags["id"].Writable)
	assert.True(t, second.Deprecated)

	method, ok := second.MethodTags["create"]
	require.True(t, ok)
	assert.True(t, method.IsStatic)
	assert.Equal(t, "App\\Model\\Product", method.ReturnType.Name())
	require.Len(t, method.Parameters, 1)
	assert.True(t, method.Parameters[0].Variadic)
	assert.Equal(t, "string", method.Parameters[0].Type.Name())
}
