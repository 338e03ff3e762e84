package phpdoc

import (
	"errors"
	"maps"

	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("php-analyser.phpdoc")

// ErrMalformedType is wrapped by every error about an unparsable doc type
var ErrMalformedType = errors.New("malformed type")

// NameScope is everything needed to turn a name written in a doc comment into a
// fully qualified class name
type NameScope struct {
	Namespace       string
	Uses            map[string]string
	ClassName       string
	ParentClassName string
	TemplateTypes   map[string]types.PHPType

	resolver *php.AliasResolver
}

func NewNameScope(namespace string, uses map[string]string, className, parentClassName string) *NameScope {
	return &NameScope{
		Namespace:       namespace,
		Uses:            uses,
		ClassName:       className,
		ParentClassName: parentClassName,
	}
}

// ResolveClassName qualifies name with the namespace and use statements of the scope
func (s *NameScope) ResolveClassName(name string) string {
	if s.resolver == nil {
		s.resolver = php.NewAliasResolver(s.Namespace, s.Uses)
	}
	return s.resolver.ResolveType(name)
}

// WithTemplateTypes returns a copy of the scope that also knows the given template types
func (s *NameScope) WithTemplateTypes(templates map[string]types.PHPType) *NameScope {
	if len(templates) == 0 {
		return s
	}

	scope := *s
	scope.TemplateTypes = make(map[string]types.PHPType, len(s.TemplateTypes)+len(templates))
	maps.Copy(scope.TemplateTypes, s.TemplateTypes)
	maps.Copy(scope.TemplateTypes, templates)
	return &scope
}

func (s *NameScope) templateType(name string) (types.PHPType, bool) {
	t, ok := s.TemplateTypes[name]
	return t, ok
}
