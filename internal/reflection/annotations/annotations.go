// Package annotations provides the magic properties and methods that classes declare
// with @property and @method tags.
package annotations

import (
	"strings"

	"github.com/shopware/php-analyser/internal/phpdoc"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("php-analyser.reflection.annotations")

// docSource is a class doc comment together with the context it has to be resolved in
type docSource struct {
	declaringClass *reflection.ClassReflection
	trait          *reflection.ClassReflection
}

// docSources lists where tags of class can come from in lookup order: the class, its
// traits, its parents with their traits and finally its interfaces
func docSources(class *reflection.ClassReflection) []docSource {
	var sources []docSource
	for _, current := range append([]*reflection.ClassReflection{class}, class.Parents()...) {
		sources = append(sources, docSource{declaringClass: current})
		for _, trait := range current.Traits() {
			sources = append(sources, docSource{declaringClass: current, trait: trait})
		}
	}
	for _, iface := range class.Interfaces() {
		sources = append(sources, docSource{declaringClass: iface})
	}
	return sources
}

func resolveClassDoc(mapper *phpdoc.FileTypeMapper, source docSource) *phpdoc.ResolvedPhpDoc {
	decl := source.declaringClass.Decl()
	traitName := ""
	if source.trait != nil {
		decl = source.trait.Decl()
		traitName = source.trait.Name()
	}
	if strings.TrimSpace(decl.DocComment) == "" {
		return nil
	}

	resolved, err := mapper.GetResolvedPhpDoc(decl.File, source.declaringClass.Name(), traitName, "", decl.DocComment)
	if err != nil {
		log.Debugf("ignoring doc comment of %s: %v", source.declaringClass.Name(), err)
		return nil
	}
	return resolved
}
