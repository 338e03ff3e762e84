package reflection

import (
	"fmt"
	"strings"

	"github.com/shopware/php-analyser/internal/php"
)

// ClassReflection is a class, interface, trait or enum as resolved by the registry.
// Members are looked up through the registry's extension chains on first use and
// remembered afterwards.
type ClassReflection struct {
	registry Registry
	decl     *php.ClassDecl
	name     string

	parentResolved bool
	parent         *ClassReflection

	interfaces []*ClassReflection
	ancestors  []string

	properties map[string]PropertyReflection
	methods    map[string]MethodReflection
	constants  map[string]ConstantReflection
}

// NewClassReflection wraps decl. name is the fully qualified name, or the generated
// name of an anonymous class.
func NewClassReflection(registry Registry, decl *php.ClassDecl, name string) *ClassReflection {
	return &ClassReflection{
		registry:   registry,
		decl:       decl,
		name:       name,
		properties: make(map[string]PropertyReflection),
		methods:    make(map[string]MethodReflection),
		constants:  make(map[string]ConstantReflection),
	}
}

func (c *ClassReflection) Name() string { return c.name }

// DisplayName is the name shown to users, anonymous classes are shown by location
func (c *ClassReflection) DisplayName() string {
	if c.decl.Anonymous {
		return fmt.Sprintf("class@anonymous/%s:%d", c.decl.File, c.decl.StartLine)
	}
	return c.name
}

func (c *ClassReflection) Decl() *php.ClassDecl { return c.decl }
func (c *ClassReflection) Registry() Registry   { return c.registry }
func (c *ClassReflection) FileName() string     { return c.decl.File }

func (c *ClassReflection) IsAnonymous() bool { return c.decl.Anonymous }
func (c *ClassReflection) IsInterface() bool { return c.decl.Kind == php.KindInterface }
func (c *ClassReflection) IsTrait() bool     { return c.decl.Kind == php.KindTrait }
func (c *ClassReflection) IsEnum() bool      { return c.decl.Kind == php.KindEnum }
func (c *ClassReflection) IsClass() bool     { return c.decl.Kind == php.KindClass }
func (c *ClassReflection) IsAbstract() bool  { return c.decl.Abstract || c.IsInterface() }
func (c *ClassReflection) IsFinal() bool     { return c.decl.Final }

// ParentClassName is the declared parent, also when the parent cannot be resolved
func (c *ClassReflection) ParentClassName() string {
	return c.decl.Parent
}

// ParentClass returns nil when there is no parent or it is unknown
func (c *ClassReflection) ParentClass() *ClassReflection {
	if c.parentResolved {
		return c.parent
	}
	c.parentResolved = true

	if c.decl.Parent == "" || strings.EqualFold(c.decl.Parent, c.name) {
		return nil
	}
	parent, err := c.registry.GetClass(c.decl.Parent)
	if err != nil {
		log.Debugf("parent of %s: %v", c.name, err)
		return nil
	}
	c.parent = parent
	return c.parent
}

// Parents returns the chain of resolvable parent classes, nearest first
func (c *ClassReflection) Parents() []*ClassReflection {
	var parents []*ClassReflection
	seen := map[string]bool{strings.ToLower(c.name): true}
	for parent := c.ParentClass(); parent != nil; parent = parent.ParentClass() {
		key := strings.ToLower(parent.Name())
		if seen[key] {
			break
		}
		seen[key] = true
		parents = append(parents, parent)
	}
	return parents
}

// Interfaces returns every resolvable interface the class implements, including the
// ones inherited from parents and extended by other interfaces
func (c *ClassReflection) Interfaces() []*ClassReflection {
	if c.interfaces != nil {
		return c.interfaces
	}

	seen := map[string]bool{}
	interfaces := []*ClassReflection{}
	var visit func(names []string)
	visit = func(names []string) {
		for _, name := range names {
			key := strings.ToLower(name)
			if seen[key] || strings.EqualFold(name, c.name) {
				continue
			}
			seen[key] = true
			iface, err := c.registry.GetClass(name)
			if err != nil {
				log.Debugf("interface of %s: %v", c.name, err)
				continue
			}
			interfaces = append(interfaces, iface)
			visit(iface.decl.Interfaces)
		}
	}

	visit(c.decl.Interfaces)
	for _, parent := range c.Parents() {
		visit(parent.decl.Interfaces)
	}

	c.interfaces = interfaces
	return c.interfaces
}

// Traits returns the resolvable traits used directly by the class
func (c *ClassReflection) Traits() []*ClassReflection {
	traits := make([]*ClassReflection, 0, len(c.decl.Traits))
	for _, name := range c.decl.Traits {
		trait, err := c.registry.GetClass(name)
		if err != nil {
			log.Debugf("trait of %s: %v", c.name, err)
			continue
		}
		traits = append(traits, trait)
	}
	return traits
}

// AncestorNames lists the class itself, its parents and all its interfaces, including
// names that cannot be resolved to a declaration
func (c *ClassReflection) AncestorNames() []string {
	if c.ancestors != nil {
		return c.ancestors
	}

	seen := map[string]bool{}
	var names []string
	add := func(name string) bool {
		key := strings.ToLower(strings.TrimPrefix(name, "\\"))
		if name == "" || seen[key] {
			return false
		}
		seen[key] = true
		names = append(names, strings.TrimPrefix(name, "\\"))
		return true
	}

	var visitInterfaces func(decl *php.ClassDecl)
	visitInterfaces = func(decl *php.ClassDecl) {
		for _, name := range decl.Interfaces {
			if !add(name) {
				continue
			}
			if iface, err := c.registry.GetClass(name); err == nil {
				visitInterfaces(iface.decl)
			}
		}
	}

	add(c.name)
	visitInterfaces(c.decl)
	for current := c; current != nil; {
		if current.decl.Parent == "" {
			break
		}
		if !add(current.decl.Parent) {
			break
		}
		current = current.ParentClass()
		if current != nil {
			visitInterfaces(current.decl)
		}
	}

	c.ancestors = names
	return c.ancestors
}

// IsSubclassOf reports whether the class extends or implements className. A class is
// not a subclass of itself.
func (c *ClassReflection) IsSubclassOf(className string) bool {
	className = strings.TrimPrefix(className, "\\")
	for i, name := range c.AncestorNames() {
		if i > 0 && strings.EqualFold(name, className) {
			return true
		}
	}
	return false
}

// Is reports whether the class is className or one of its subclasses
func (c *ClassReflection) Is(className string) bool {
	return strings.EqualFold(c.name, strings.TrimPrefix(className, "\\")) || c.IsSubclassOf(className)
}

func (c *ClassReflection) HasProperty(propertyName string) bool {
	if _, ok := c.properties[propertyName]; ok {
		return true
	}
	for _, extension := range c.registry.PropertiesExtensions() {
		if extension.HasProperty(c, propertyName) {
			return true
		}
	}
	return false
}

// GetProperty returns the property from the first extension that knows it
func (c *ClassReflection) GetProperty(propertyName string) (PropertyReflection, bool) {
	if property, ok := c.properties[propertyName]; ok {
		return property, true
	}
	for _, extension := range c.registry.PropertiesExtensions() {
		if extension.HasProperty(c, propertyName) {
			property := extension.GetProperty(c, propertyName)
			c.properties[propertyName] = property
			return property, true
		}
	}
	return nil, false
}

func (c *ClassReflection) HasMethod(methodName string) bool {
	if _, ok := c.methods[strings.ToLower(methodName)]; ok {
		return true
	}
	for _, extension := range c.registry.MethodsExtensions() {
		if extension.HasMethod(c, methodName) {
			return true
		}
	}
	return false
}

// GetMethod returns the method from the first extension that knows it. Method names
// are case-insensitive.
func (c *ClassReflection) GetMethod(methodName string) (MethodReflection, bool) {
	key := strings.ToLower(methodName)
	if method, ok := c.methods[key]; ok {
		return method, true
	}
	for _, extension := range c.registry.MethodsExtensions() {
		if extension.HasMethod(c, methodName) {
			method := extension.GetMethod(c, methodName)
			c.methods[key] = method
			return method, true
		}
	}
	return nil, false
}

func (c *ClassReflection) HasConstant(constantName string) bool {
	_, ok := c.GetConstant(constantName)
	return ok
}

// GetConstant looks for the constant in the class, its parents and its interfaces
func (c *ClassReflection) GetConstant(constantName string) (ConstantReflection, bool) {
	if constant, ok := c.constants[constantName]; ok {
		return constant, true
	}

	candidates := append([]*ClassReflection{c}, c.Parents()...)
	candidates = append(candidates, c.Interfaces()...)
	for _, candidate := range candidates {
		if decl := candidate.decl.FindConstant(constantName); decl != nil {
			constant := &classConstant{declaringClass: candidate, decl: decl}
			c.constants[constantName] = constant
			return constant, true
		}
	}
	return nil, false
}

type classConstant struct {
	declaringClass *ClassReflection
	decl           *php.ConstantDecl
}

func (c *classConstant) DeclaringClass() *ClassReflection { return c.declaringClass }
func (c *classConstant) IsStatic() bool                   { return true }
func (c *classConstant) IsPrivate() bool                  { return c.decl.Visibility == php.Private }
func (c *classConstant) IsPublic() bool                   { return c.decl.Visibility == php.Public }
func (c *classConstant) Name() string                     { return c.decl.Name }
func (c *classConstant) Value() string                    { return c.decl.Value }
