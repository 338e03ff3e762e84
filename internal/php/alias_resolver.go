package php

import (
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("php-analyser.php")

// AliasResolver handles the resolution of PHP names to their fully qualified class names (FQCN).
// It knows the namespace a declaration lives in and the use statements in effect there.
type AliasResolver struct {
	// Map of lowercased alias to fully qualified class name
	uses map[string]string
	// Map of lowercased alias to fully qualified function name
	functionUses map[string]string
	// Current namespace
	currentNamespace string
}

// NewAliasResolver creates a new alias resolver with the given namespace and use statements.
//
// Parameters:
//   - namespace: The current PHP namespace (e.g., "App\Controller")
//   - uses: Map of alias (as written, or the last segment of the imported name) to FQCN
func NewAliasResolver(namespace string, uses map[string]string) *AliasResolver {
	normalized := make(map[string]string, len(uses))
	for alias, fqcn := range uses {
		normalized[strings.ToLower(alias)] = strings.TrimPrefix(fqcn, "\\")
	}

	return &AliasResolver{
		uses:             normalized,
		currentNamespace: strings.Trim(namespace, "\\"),
	}
}

// WithFunctionUses returns a resolver that also knows the given `use function` imports
func (r *AliasResolver) WithFunctionUses(functionUses map[string]string) *AliasResolver {
	resolver := *r
	resolver.functionUses = make(map[string]string, len(functionUses))
	for alias, fqn := range functionUses {
		resolver.functionUses[strings.ToLower(alias)] = strings.TrimPrefix(fqn, "\\")
	}
	return &resolver
}

// FunctionUses returns the `use function` imports, keyed by lowercased alias
func (r *AliasResolver) FunctionUses() map[string]string {
	return r.functionUses
}

// ImportedFunction returns the function an unqualified name was imported as
func (r *AliasResolver) ImportedFunction(name string) (string, bool) {
	fqn, ok := r.functionUses[strings.ToLower(name)]
	return fqn, ok
}

// Namespace returns the namespace names are resolved against
func (r *AliasResolver) Namespace() string {
	return r.currentNamespace
}

// Uses returns the use statements in effect, keyed by lowercased alias
func (r *AliasResolver) Uses() map[string]string {
	return r.uses
}

// ResolveType resolves a PHP type name to its fully qualified class name (FQCN).
// It handles various PHP type resolution scenarios including:
// - Primitive types (string, int, etc.) and special types (self, static, parent)
// - Fully qualified names (with a leading backslash)
// - Aliased and imported types, also as the first segment of a qualified name
// - Types in the current namespace
func (r *AliasResolver) ResolveType(typeName string) string {
	typeName = strings.TrimSpace(typeName)
	if typeName == "" {
		return typeName
	}

	// Skip resolution for primitive types and special types
	if isPrimitiveType(typeName) || isSpecialType(typeName) {
		return strings.ToLower(typeName)
	}

	if strings.HasPrefix(typeName, "\\") {
		return typeName[1:]
	}

	if strings.HasPrefix(strings.ToLower(typeName), "namespace\\") {
		return r.qualify(typeName[len("namespace\\"):])
	}

	first, rest, qualified := strings.Cut(typeName, "\\")
	if fqcn, ok := r.uses[strings.ToLower(first)]; ok {
		if qualified {
			return fqcn + "\\" + rest
		}
		return fqcn
	}

	resolved := r.qualify(typeName)
	log.Debugf("resolved %s relative to namespace: %s", typeName, resolved)
	return resolved
}

func (r *AliasResolver) qualify(name string) string {
	if r.currentNamespace == "" {
		return name
	}
	return r.currentNamespace + "\\" + name
}

// ResolveFunctionName returns the namespaced candidate for a function name.
// The second result is false when the name is fully qualified or imported and PHP
// will not fall back to the global namespace.
func (r *AliasResolver) ResolveFunctionName(name string) (string, bool) {
	if strings.HasPrefix(name, "\\") {
		return name[1:], false
	}
	if fqn, ok := r.ImportedFunction(name); ok {
		return fqn, false
	}
	if strings.Contains(name, "\\") {
		return r.ResolveType(name), false
	}
	return r.qualify(name), r.currentNamespace != ""
}

// isPrimitiveType checks if the given type is a PHP primitive type.
// PHP primitive types don't need to be resolved to FQCNs.
func isPrimitiveType(typeName string) bool {
	switch strings.ToLower(typeName) {
	case "string", "int", "integer", "float", "double", "bool", "boolean",
		"array", "object", "callable", "iterable", "void", "null",
		"mixed", "never", "resource", "false", "true":
		return true
	default:
		return false
	}
}

// isSpecialType checks if the given type is a PHP special type.
// PHP special types are keywords that refer to the current class context.
func isSpecialType(typeName string) bool {
	switch strings.ToLower(typeName) {
	case "self", "static", "parent", "$this":
		return true
	default:
		return false
	}
}
