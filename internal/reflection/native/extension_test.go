package native_test

import (
	"testing"

	"github.com/shopware/php-analyser/internal/analysistest"
	"github.com/shopware/php-analyser/internal/broker"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/reflection/native"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const modelSource = `<?php
namespace App\Model;

use App\Model\Tag as Label;

trait Timestamps
{
    /** @var \DateTimeInterface|null */
    public $createdAt;

    public function touch(): static
    {
        return $this;
    }
}

class Tag
{
}

abstract class Entity
{
    /** @var int */
    protected $id;

    /**
     * @param Label[] $tags
     * @return Label[]
     */
    abstract public function tags(array $tags): array;
}

class Post extends Entity
{
    use Timestamps;

    /** @var string */
    public int $title = 0;

    /** @var Label */
    public ?object $tag = null;

    /**
     * @param Label[] $labels
     */
    public function __construct(private string $slug, public array $labels = [])
    {
    }

    /**
     * {@inheritDoc}
     */
    public function tags(array $tags): array
    {
        return $tags;
    }

    public function slug(): string
    {
        return $this->slug;
    }
}
`

func newModel(t *testing.T) *broker.Broker {
	t.Helper()

	h := analysistest.New(t)
	h.LoadSources(map[string]string{"src/Model.php": modelSource})
	return h.CreateBroker(nil, nil)
}

func getClass(t *testing.T, b *broker.Broker, name string) *reflection.ClassReflection {
	t.Helper()

	class, err := b.GetClass(name)
	require.NoError(t, err)
	return class
}

func TestProperties(t *testing.T) {
	post := getClass(t, newModel(t), "App\\Model\\Post")

	tests := []struct {
		name           string
		typ            string
		declaringClass string
	}{
		// the doc type does not fit the native one
		{"title", "int", "App\\Model\\Post"},
		{"tag", "App\\Model\\Tag|null", "App\\Model\\Post"},
		{"labels", "App\\Model\\Tag[]", "App\\Model\\Post"},
		{"slug", "string", "App\\Model\\Post"},
		{"createdAt", "DateTimeInterface|null", "App\\Model\\Post"},
		{"id", "int", "App\\Model\\Entity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			property, ok := post.GetProperty(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.typ, property.Type().Name())
			assert.Equal(t, tt.declaringClass, property.DeclaringClass().Name())
		})
	}

	_, ok := post.GetProperty("missing")
	assert.False(t, ok)
}

func TestPropertySources(t *testing.T) {
	post := getClass(t, newModel(t), "App\\Model\\Post")

	property, ok := post.GetProperty("title")
	require.True(t, ok)
	title := property.(*native.PropertyReflection)
	assert.Equal(t, "int", title.NativeType().Name())
	assert.Equal(t, "string", title.PhpDocType().Name())
	assert.Nil(t, title.DeclaringTrait())

	property, ok = post.GetProperty("labels")
	require.True(t, ok)
	labels := property.(*native.PropertyReflection)
	assert.True(t, labels.Decl().Promoted)
	assert.True(t, labels.IsPublic())

	property, ok = post.GetProperty("slug")
	require.True(t, ok)
	assert.True(t, property.IsPrivate())
	assert.Nil(t, property.(*native.PropertyReflection).PhpDocType())

	property, ok = post.GetProperty("createdAt")
	require.True(t, ok)
	createdAt := property.(*native.PropertyReflection)
	require.NotNil(t, createdAt.DeclaringTrait())
	assert.Equal(t, "App\\Model\\Timestamps", createdAt.DeclaringTrait().Name())
}

func TestMethods(t *testing.T) {
	b := newModel(t)
	post := getClass(t, b, "App\\Model\\Post")

	method, ok := post.GetMethod("TOUCH")
	require.True(t, ok)
	touch := method.(*native.MethodReflection)
	assert.Equal(t, "static(App\\Model\\Post)", touch.ReturnType().Name())
	assert.Equal(t, "App\\Model\\Post", touch.DeclaringClass().Name())
	require.NotNil(t, touch.DeclaringTrait())
	assert.Equal(t, "App\\Model\\Timestamps", touch.DeclaringTrait().Name())

	method, ok = post.GetMethod("__construct")
	require.True(t, ok)
	assert.Equal(t, "void", method.ReturnType().Name())
	require.Len(t, method.Parameters(), 2)
	assert.Equal(t, "App\\Model\\Tag[]", method.Parameters()[1].Type().Name())
	assert.True(t, method.Parameters()[1].IsOptional())

	method, ok = post.GetMethod("slug")
	require.True(t, ok)
	assert.Equal(t, "string", method.ReturnType().Name())
	assert.False(t, method.IsVariadic())
	assert.Nil(t, method.(*native.MethodReflection).PhpDocReturnType())
}

func TestInheritedDocComment(t *testing.T) {
	b := newModel(t)
	post := getClass(t, b, "App\\Model\\Post")

	method, ok := post.GetMethod("tags")
	require.True(t, ok)
	tags := method.(*native.MethodReflection)
	assert.Equal(t, "App\\Model\\Post", tags.DeclaringClass().Name())
	assert.Equal(t, "array", tags.NativeReturnType().Name())
	assert.Equal(t, "App\\Model\\Tag[]", tags.ReturnType().Name())
	require.Len(t, tags.Parameters(), 1)
	assert.Equal(t, "App\\Model\\Tag[]", tags.Parameters()[0].Type().Name())

	entity := getClass(t, b, "App\\Model\\Entity")
	method, ok = entity.GetMethod("tags")
	require.True(t, ok)
	assert.True(t, method.(*native.MethodReflection).IsAbstract())
	assert.Equal(t, "App\\Model\\Tag[]", method.ReturnType().Name())
}

func TestMemberReflectionsAreReused(t *testing.T) {
	post := getClass(t, newModel(t), "App\\Model\\Post")

	first, ok := post.GetMethod("slug")
	require.True(t, ok)
	second, ok := post.GetMethod("Slug")
	require.True(t, ok)
	assert.Same(t, first, second)

	property, ok := post.GetProperty("title")
	require.True(t, ok)
	again, ok := post.GetProperty("title")
	require.True(t, ok)
	assert.Same(t, property, again)
}
