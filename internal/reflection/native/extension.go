package native

import (
	"strings"

	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/phpdoc"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// ClassReflectionExtension provides the properties and methods written in PHP source:
// the class's own members, the members of the traits it uses and everything
// inherited from parents and interfaces.
type ClassReflectionExtension struct {
	methodFactory  MethodReflectionFactory
	fileTypeMapper *phpdoc.FileTypeMapper
}

func NewClassReflectionExtension(methodFactory MethodReflectionFactory, fileTypeMapper *phpdoc.FileTypeMapper) *ClassReflectionExtension {
	return &ClassReflectionExtension{
		methodFactory:  methodFactory,
		fileTypeMapper: fileTypeMapper,
	}
}

// memberLocation is where a member was found: the class it belongs to and the trait
// it was copied from
type memberLocation struct {
	class *reflection.ClassReflection
	trait *reflection.ClassReflection
}

func (l memberLocation) declaringDecl() *php.ClassDecl {
	if l.trait != nil {
		return l.trait.Decl()
	}
	return l.class.Decl()
}

func (l memberLocation) fileName() string {
	return l.declaringDecl().File
}

func (l memberLocation) traitName() string {
	if l.trait != nil {
		return l.trait.Name()
	}
	return ""
}

func (e *ClassReflectionExtension) HasProperty(class *reflection.ClassReflection, propertyName string) bool {
	_, _, ok := e.findProperty(class, propertyName)
	return ok
}

func (e *ClassReflectionExtension) GetProperty(class *reflection.ClassReflection, propertyName string) reflection.PropertyReflection {
	location, decl, ok := e.findProperty(class, propertyName)
	if !ok {
		return nil
	}

	declaringClass := location.class
	native := nativeType(decl.Type, declaringClass.Name(), declaringClass.ParentClassName())

	var phpDoc types.PHPType
	if decl.Promoted {
		if constructor := location.declaringDecl().FindMethod("__construct"); constructor != nil {
			if resolved := e.resolvePhpDoc(location, "__construct", constructor.DocComment); resolved != nil {
				if tag, ok := resolved.ParamTags[decl.Name]; ok {
					phpDoc = tag.Type
				}
			}
		}
	} else if resolved := e.resolvePhpDoc(location, "", decl.DocComment); resolved != nil {
		if varType, ok := resolved.VarType(decl.Name); ok {
			phpDoc = varType
		}
	}

	return &PropertyReflection{
		declaringClass: declaringClass,
		declaringTrait: location.trait,
		decl:           decl,
		nativeType:     native,
		phpDocType:     phpDoc,
		typ:            mergeTypes(class.Registry(), native, phpDoc),
	}
}

func (e *ClassReflectionExtension) HasMethod(class *reflection.ClassReflection, methodName string) bool {
	_, _, ok := e.findMethod(class, methodName)
	return ok
}

func (e *ClassReflectionExtension) GetMethod(class *reflection.ClassReflection, methodName string) reflection.MethodReflection {
	location, decl, ok := e.findMethod(class, methodName)
	if !ok {
		return nil
	}

	var (
		paramTypes      map[string]types.PHPType
		returnType      types.PHPType
		throwType       types.PHPType
		deprecated      bool
		internal, final bool
	)
	if resolved := e.methodPhpDoc(location, decl); resolved != nil {
		paramTypes = resolved.ParamTypes()
		returnType = resolved.ReturnType
		throwType = resolved.ThrowType
		deprecated = resolved.Deprecated
		internal = resolved.Internal
		final = resolved.Final
	}

	return e.methodFactory.Create(location.class, location.trait, decl, paramTypes, returnType, throwType, deprecated, internal, final)
}

// findProperty searches the class, its traits and then its parents
func (e *ClassReflectionExtension) findProperty(class *reflection.ClassReflection, propertyName string) (memberLocation, *php.PropertyDecl, bool) {
	for _, current := range append([]*reflection.ClassReflection{class}, class.Parents()...) {
		if decl := current.Decl().FindProperty(propertyName); decl != nil {
			return memberLocation{class: current}, decl, true
		}
		if trait, decl := findInTraits(current, map[string]bool{}, func(d *php.ClassDecl) *php.PropertyDecl {
			return d.FindProperty(propertyName)
		}); decl != nil {
			return memberLocation{class: current, trait: trait}, decl, true
		}
	}
	return memberLocation{}, nil, false
}

// findMethod searches the class, its traits, its parents and finally its interfaces
func (e *ClassReflectionExtension) findMethod(class *reflection.ClassReflection, methodName string) (memberLocation, *php.MethodDecl, bool) {
	for _, current := range append([]*reflection.ClassReflection{class}, class.Parents()...) {
		if decl := current.Decl().FindMethod(methodName); decl != nil {
			return memberLocation{class: current}, decl, true
		}
		if trait, decl := findInTraits(current, map[string]bool{}, func(d *php.ClassDecl) *php.MethodDecl {
			return d.FindMethod(methodName)
		}); decl != nil {
			return memberLocation{class: current, trait: trait}, decl, true
		}
	}
	for _, iface := range class.Interfaces() {
		if decl := iface.Decl().FindMethod(methodName); decl != nil {
			return memberLocation{class: iface}, decl, true
		}
	}
	return memberLocation{}, nil, false
}

// findInTraits looks through the traits of class, including traits used by traits
func findInTraits[T any](class *reflection.ClassReflection, seen map[string]bool, find func(*php.ClassDecl) *T) (*reflection.ClassReflection, *T) {
	for _, trait := range class.Traits() {
		key := strings.ToLower(trait.Name())
		if seen[key] {
			continue
		}
		seen[key] = true

		if member := find(trait.Decl()); member != nil {
			return trait, member
		}
		if nested, member := findInTraits(trait, seen, find); member != nil {
			return nested, member
		}
	}
	return nil, nil
}

// methodPhpDoc resolves the doc comment of a method. Methods without their own doc
// comment, or with only {@inheritDoc}, use the one of the method they override.
func (e *ClassReflectionExtension) methodPhpDoc(location memberLocation, decl *php.MethodDecl) *phpdoc.ResolvedPhpDoc {
	if !inheritsDoc(decl.DocComment) {
		return e.resolvePhpDoc(location, decl.Name, decl.DocComment)
	}

	ancestors := append(location.class.Parents(), location.class.Interfaces()...)
	for _, ancestor := range ancestors {
		inherited := ancestor.Decl().FindMethod(decl.Name)
		if inherited == nil || inheritsDoc(inherited.DocComment) {
			continue
		}
		return e.resolvePhpDoc(memberLocation{class: ancestor}, inherited.Name, inherited.DocComment)
	}
	return e.resolvePhpDoc(location, decl.Name, decl.DocComment)
}

func (e *ClassReflectionExtension) resolvePhpDoc(location memberLocation, functionName, docComment string) *phpdoc.ResolvedPhpDoc {
	if e.fileTypeMapper == nil || strings.TrimSpace(docComment) == "" {
		return nil
	}
	resolved, err := e.fileTypeMapper.GetResolvedPhpDoc(location.fileName(), location.class.Name(), location.traitName(), functionName, docComment)
	if err != nil {
		log.Debugf("ignoring doc comment of %s::%s: %v", location.class.Name(), functionName, err)
		return nil
	}
	return resolved
}

func inheritsDoc(docComment string) bool {
	text := strings.TrimSpace(docComment)
	if text == "" {
		return true
	}
	text = strings.TrimSuffix(strings.TrimPrefix(text, "/**"), "*/")
	text = strings.Trim(strings.ReplaceAll(text, "*", ""), " \t\r\n")
	return strings.EqualFold(text, "{@inheritdoc}") || strings.EqualFold(text, "@inheritdoc")
}
