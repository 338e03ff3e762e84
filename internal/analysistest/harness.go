// Package analysistest wires brokers, type specifiers and scope factories the way an
// analysis run does, over PHP sources written to a temporary working directory.
package analysistest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopware/php-analyser/internal/analyser"
	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/broker"
	"github.com/shopware/php-analyser/internal/cache"
	"github.com/shopware/php-analyser/internal/config"
	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/phpdoc"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/reflection/annotations"
	"github.com/shopware/php-analyser/internal/reflection/crates"
	"github.com/shopware/php-analyser/internal/reflection/native"
	"github.com/shopware/php-analyser/internal/reflection/phpdefect"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/stretchr/testify/require"
)

// UniversalObjectCratesClasses are the crate classes of every harness broker
var UniversalObjectCratesClasses = config.Default().UniversalObjectCratesClasses

type Harness struct {
	t testing.TB

	parser         *php.Parser
	index          *php.Index
	storage        *cache.MemoryStorage
	cache          *cache.Cache
	fileHelper     *broker.FileHelper
	namer          *broker.AnonymousClassNameHelper
	fileTypeMapper *phpdoc.FileTypeMapper
	files          map[string]*php.File
}

func New(t testing.TB) *Harness {
	t.Helper()

	parser, err := php.NewParser()
	require.NoError(t, err)
	t.Cleanup(parser.Close)

	index := php.NewIndex()
	storage := cache.NewMemoryStorage()
	c := cache.New(storage)
	fileHelper := broker.NewFileHelper(t.TempDir())
	namer := broker.NewAnonymousClassNameHelper(fileHelper)

	return &Harness{
		t:              t,
		parser:         parser,
		index:          index,
		storage:        storage,
		cache:          c,
		fileHelper:     fileHelper,
		namer:          namer,
		fileTypeMapper: phpdoc.NewFileTypeMapper(index, c, namer),
		files:          make(map[string]*php.File),
	}
}

func (h *Harness) GetCurrentWorkingDirectory() string        { return h.fileHelper.WorkingDirectory() }
func (h *Harness) GetFileHelper() *broker.FileHelper         { return h.fileHelper }
func (h *Harness) GetParser() *php.Parser                    { return h.parser }
func (h *Harness) GetIndex() *php.Index                      { return h.index }
func (h *Harness) GetCache() *cache.Cache                    { return h.cache }
func (h *Harness) GetCacheStorage() *cache.MemoryStorage     { return h.storage }
func (h *Harness) GetFileTypeMapper() *phpdoc.FileTypeMapper { return h.fileTypeMapper }

func (h *Harness) GetAnonymousClassNameHelper() *broker.AnonymousClassNameHelper {
	return h.namer
}

// Path returns the absolute path of a file relative to the working directory
func (h *Harness) Path(relPath string) string {
	return h.fileHelper.AbsolutizePath(relPath)
}

// LoadSources writes each source below the working directory and indexes it. Keys are
// paths relative to the working directory.
func (h *Harness) LoadSources(sources map[string]string) {
	h.t.Helper()

	for relPath, source := range sources {
		path := h.Path(relPath)
		require.NoError(h.t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(h.t, os.WriteFile(path, []byte(source), 0o644))

		file, err := h.index.AddSource(h.parser, path, []byte(source))
		require.NoError(h.t, err)
		h.files[relPath] = file
	}
}

// File returns the declarations parsed from a loaded source
func (h *Harness) File(relPath string) *php.File {
	h.t.Helper()

	file, ok := h.files[relPath]
	require.True(h.t, ok, "source %s was not loaded", relPath)
	return file
}

// CreateBroker builds a broker with the extension chain of an analysis run:
// native members first, then runtime quirks of built-in classes, universal object
// crates and finally @property and @method tags.
func (h *Harness) CreateBroker(
	dynamicMethodReturnTypeExtensions []reflection.DynamicMethodReturnTypeExtension,
	dynamicStaticMethodReturnTypeExtensions []reflection.DynamicStaticMethodReturnTypeExtension,
	dynamicFunctionReturnTypeExtensions ...reflection.DynamicFunctionReturnTypeExtension,
) *broker.Broker {
	methodFactory := native.NewMethodReflectionFactory(h.parser, h.cache)
	functionFactory := native.NewFunctionReflectionFactory(h.parser, h.cache)
	nativeExtension := native.NewClassReflectionExtension(methodFactory, h.fileTypeMapper)
	annotationsProperties := annotations.NewPropertiesExtension(h.fileTypeMapper)
	annotationsMethods := annotations.NewMethodsExtension(h.fileTypeMapper)

	return broker.New(broker.Options{
		Index:                     h.index,
		FileTypeMapper:            h.fileTypeMapper,
		FunctionReflectionFactory: functionFactory,
		AnonymousClassNamer:       h.namer,
		PropertiesExtensions: []reflection.PropertiesClassReflectionExtension{
			nativeExtension,
			phpdefect.NewExtension(h.fileTypeMapper.TypeStringResolver()),
			crates.NewExtension(UniversalObjectCratesClasses),
			annotationsProperties,
		},
		MethodsExtensions: []reflection.MethodsClassReflectionExtension{
			nativeExtension,
			annotationsMethods,
		},
		DynamicMethodReturnTypeExtensions:       dynamicMethodReturnTypeExtensions,
		DynamicStaticMethodReturnTypeExtensions: dynamicStaticMethodReturnTypeExtensions,
		DynamicFunctionReturnTypeExtensions:     dynamicFunctionReturnTypeExtensions,
	})
}

// CreateTypeSpecifier registers the is_* function extension ahead of the given ones
func (h *Harness) CreateTypeSpecifier(
	b *broker.Broker,
	methodExtensions []analyser.MethodTypeSpecifyingExtension,
	staticMethodExtensions []analyser.StaticMethodTypeSpecifyingExtension,
	functionExtensions ...analyser.FunctionTypeSpecifyingExtension,
) *analyser.TypeSpecifier {
	functions := append([]analyser.FunctionTypeSpecifyingExtension{analyser.NewIsTypeFunctionExtension()}, functionExtensions...)
	return analyser.NewTypeSpecifier(b, functions, methodExtensions, staticMethodExtensions)
}

func (h *Harness) CreateScopeFactory(b *broker.Broker, typeSpecifier *analyser.TypeSpecifier, dynamicConstantNames ...string) *analyser.ScopeFactory {
	return analyser.NewScopeFactory(b, typeSpecifier, dynamicConstantNames)
}

// CreateDefaultScopeFactory is a scope factory over a broker without dynamic
// extensions
func (h *Harness) CreateDefaultScopeFactory(dynamicConstantNames ...string) *analyser.ScopeFactory {
	b := h.CreateBroker(nil, nil)
	return h.CreateScopeFactory(b, h.CreateTypeSpecifier(b, nil, nil), dynamicConstantNames...)
}

// ParseExpression parses code written in namespace
func (h *Harness) ParseExpression(code, namespace string) ast.Expr {
	h.t.Helper()

	expr, err := php.ParseExpression(code, namespace, nil)
	require.NoError(h.t, err)
	return expr
}

// ParseExpressionIn parses code with the namespace and imports of context
func (h *Harness) ParseExpressionIn(code string, context php.NameContext) ast.Expr {
	h.t.Helper()

	expr, err := php.ParseExpressionIn(code, context)
	require.NoError(h.t, err)
	return expr
}

// ResolveType resolves a fully qualified doc comment type
func (h *Harness) ResolveType(typeText string) types.PHPType {
	h.t.Helper()

	t, err := h.fileTypeMapper.TypeStringResolver().Resolve(typeText, nil)
	require.NoError(h.t, err)
	return t
}
