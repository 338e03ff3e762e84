package phpdoc

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/shopware/php-analyser/internal/cache"
	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/types"
)

// ErrUnknownContext is returned when the class or trait a doc comment belongs to is not indexed
var ErrUnknownContext = errors.New("unknown doc comment context")

// AnonymousClassNamer names anonymous classes by the file and line they are declared on
type AnonymousClassNamer interface {
	GetAnonymousClassName(fileName string, startLine int) string
}

// FileTypeMapper resolves doc comments in the context of the file, class, trait and
// function they were written in
type FileTypeMapper struct {
	index        *php.Index
	cache        *cache.Cache
	namer        AnonymousClassNamer
	docResolver  *PhpDocStringResolver
	typeResolver *TypeStringResolver

	resolved map[string]*ResolvedPhpDoc
}

func NewFileTypeMapper(index *php.Index, c *cache.Cache, namer AnonymousClassNamer) *FileTypeMapper {
	return &FileTypeMapper{
		index:        index,
		cache:        c,
		namer:        namer,
		docResolver:  NewPhpDocStringResolver(),
		typeResolver: NewTypeStringResolver(),
		resolved:     make(map[string]*ResolvedPhpDoc),
	}
}

// TypeStringResolver returns the resolver used for individual type strings
func (m *FileTypeMapper) TypeStringResolver() *TypeStringResolver {
	return m.typeResolver
}

// GetResolvedPhpDoc resolves docComment. className is the class the comment is used in,
// traitName the trait it was written in when it comes from a trait. Malformed types
// fall back to mixed for that tag only.
func (m *FileTypeMapper) GetResolvedPhpDoc(fileName, className, traitName, functionName, docComment string) (*ResolvedPhpDoc, error) {
	if strings.TrimSpace(docComment) == "" {
		return emptyResolvedPhpDoc(), nil
	}

	key := cacheKey(fileName, className, traitName, functionName, docComment)
	if resolved, ok := m.resolved[key]; ok {
		return resolved, nil
	}

	var record resolvedRecord
	if m.cache != nil && m.cache.Load(key, &record) {
		resolved := record.resolved()
		m.resolved[key] = resolved
		return resolved, nil
	}

	scope, err := m.nameScope(fileName, className, traitName, functionName)
	if err != nil {
		return nil, err
	}

	resolved := m.resolve(m.docResolver.Resolve(docComment), scope)
	m.resolved[key] = resolved

	if m.cache != nil {
		if err := m.cache.Save(key, resolved.record()); err != nil {
			log.Warningf("failed to cache doc comment of %s: %v", fileName, err)
		}
	}
	return resolved, nil
}

// ResolveType resolves a single type string in the given name scope, malformed types become mixed
func (m *FileTypeMapper) ResolveType(typeText string, scope *NameScope) types.PHPType {
	t, err := m.typeResolver.Resolve(typeText, scope)
	if err != nil {
		log.Debugf("falling back to mixed: %v", err)
		return types.NewMixedType()
	}
	return t
}

func cacheKey(fileName, className, traitName, functionName, docComment string) string {
	h := xxhash.New()
	for _, part := range []string{fileName, className, traitName, functionName, docComment} {
		_, _ = h.WriteString(part)
		_, _ = h.WriteString("|")
	}
	return "phpdoc-" + strconv.FormatUint(h.Sum64(), 16)
}

// nameScope finds the namespace and imports in effect where the doc comment was written
func (m *FileTypeMapper) nameScope(fileName, className, traitName, functionName string) (*NameScope, error) {
	var context php.NameContext
	var parentName string

	if className != "" {
		class, ok := m.findClass(fileName, className)
		if !ok {
			return nil, fmt.Errorf("%w: class %s in %s", ErrUnknownContext, className, fileName)
		}
		context = class.NameContext
		parentName = class.Parent
	}

	if traitName != "" {
		trait, ok := m.index.FindClass(traitName)
		if !ok {
			return nil, fmt.Errorf("%w: trait %s", ErrUnknownContext, traitName)
		}
		context = trait.NameContext
	}

	if className == "" && traitName == "" {
		if function, ok := m.index.FindFunction(functionName); ok && functionName != "" {
			context = function.NameContext
		} else if file, ok := m.index.File(fileName); ok {
			context = fileContext(file)
		}
	}

	return NewNameScope(context.Namespace, context.Uses, className, parentName), nil
}

func (m *FileTypeMapper) findClass(fileName, className string) (*php.ClassDecl, bool) {
	if class, ok := m.index.FindClass(className); ok {
		return class, true
	}
	if m.namer == nil {
		return nil, false
	}
	for _, class := range m.index.AnonymousClasses(fileName) {
		if strings.EqualFold(m.namer.GetAnonymousClassName(fileName, class.StartLine), className) {
			return class, true
		}
	}
	return nil, false
}

func fileContext(file *php.File) php.NameContext {
	if len(file.Classes) > 0 {
		return file.Classes[0].NameContext
	}
	if len(file.Functions) > 0 {
		return file.Functions[0].NameContext
	}
	return php.NameContext{}
}

func (m *FileTypeMapper) resolve(node *PhpDocNode, scope *NameScope) *ResolvedPhpDoc {
	resolved := emptyResolvedPhpDoc()

	for _, tag := range node.TemplateTags {
		bound := types.PHPType(types.NewMixedType())
		if tag.Bound != "" {
			bound = m.ResolveType(tag.Bound, scope)
		}
		resolved.TemplateTypes[tag.Name] = bound
	}
	scope = scope.WithTemplateTypes(resolved.TemplateTypes)

	for _, tag := range node.ParamTags {
		resolved.ParamTags[tag.Name] = ParamTag{Type: m.ResolveType(tag.Type, scope), IsVariadic: tag.IsVariadic}
	}

	if node.ReturnTag != "" {
		resolved.ReturnType = m.ResolveType(node.ReturnTag, scope)
	}

	if len(node.ThrowsTags) > 0 {
		throws := make([]types.PHPType, 0, len(node.ThrowsTags))
		for _, tag := range node.ThrowsTags {
			throws = append(throws, m.ResolveType(tag, scope))
		}
		resolved.ThrowType = types.Union(throws...)
	}

	for _, tag := range node.VarTags {
		resolved.VarTags[tag.Name] = m.ResolveType(tag.Type, scope)
	}

	for _, tag := range node.PropertyTags {
		resolved.PropertyTags[tag.Name] = PropertyTag{
			Type:     m.ResolveType(tag.Type, scope),
			Readable: tag.Readable,
			Writable: tag.Writable,
		}
	}

	for _, tag := range node.MethodTags {
		method := MethodTag{Name: tag.Name, IsStatic: tag.IsStatic, ReturnType: types.NewMixedType()}
		if tag.ReturnType != "" {
			method.ReturnType = m.ResolveType(tag.ReturnType, scope)
		}
		for _, param := range tag.Parameters {
			paramType := types.PHPType(types.NewMixedType())
			if param.Type != "" {
				paramType = m.ResolveType(param.Type, scope)
			}
			method.Parameters = append(method.Parameters, MethodTagParameter{
				Name:     param.Name,
				Type:     paramType,
				ByRef:    param.ByRef,
				Optional: param.Optional,
				Variadic: param.Variadic,
			})
		}
		resolved.MethodTags[strings.ToLower(tag.Name)] = method
	}

	resolved.Deprecated = node.Deprecated
	resolved.DeprecatedMessage = node.DeprecatedMessage
	resolved.Internal = node.Internal
	resolved.Final = node.Final

	return resolved
}
