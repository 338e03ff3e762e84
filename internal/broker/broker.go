// Package broker resolves classes and functions by name. It is the registry the
// reflection package talks to and owns the extension chains.
package broker

import (
	"fmt"
	"strings"

	"github.com/shopware/php-analyser/internal/observability"
	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/phpdoc"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/reflection/native"
	"github.com/shopware/php-analyser/internal/reflection/signature"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("php-analyser.broker")

type Options struct {
	Index                     *php.Index
	FileTypeMapper            *phpdoc.FileTypeMapper
	FunctionReflectionFactory native.FunctionReflectionFactory
	Signatures                *signature.Provider
	AnonymousClassNamer       phpdoc.AnonymousClassNamer

	// extensions in priority order, the first one that knows a member provides it
	PropertiesExtensions []reflection.PropertiesClassReflectionExtension
	MethodsExtensions    []reflection.MethodsClassReflectionExtension

	DynamicMethodReturnTypeExtensions       []reflection.DynamicMethodReturnTypeExtension
	DynamicStaticMethodReturnTypeExtensions []reflection.DynamicStaticMethodReturnTypeExtension
	DynamicFunctionReturnTypeExtensions     []reflection.DynamicFunctionReturnTypeExtension
}

// Broker is not safe for concurrent use, every worker gets its own
type Broker struct {
	index           *php.Index
	fileTypeMapper  *phpdoc.FileTypeMapper
	functionFactory native.FunctionReflectionFactory
	signatures      *signature.Provider
	namer           phpdoc.AnonymousClassNamer

	propertiesExtensions []reflection.PropertiesClassReflectionExtension
	methodsExtensions    []reflection.MethodsClassReflectionExtension

	dynamicMethodExtensions       []reflection.DynamicMethodReturnTypeExtension
	dynamicStaticMethodExtensions []reflection.DynamicStaticMethodReturnTypeExtension
	dynamicFunctionExtensions     []reflection.DynamicFunctionReturnTypeExtension

	classes                     map[string]*reflection.ClassReflection
	functions                   map[string]reflection.FunctionReflection
	dynamicMethodsByClass       map[string][]reflection.DynamicMethodReturnTypeExtension
	dynamicStaticMethodsByClass map[string][]reflection.DynamicStaticMethodReturnTypeExtension
}

func New(opts Options) *Broker {
	index := opts.Index
	if index == nil {
		index = php.NewIndex()
	}
	signatures := opts.Signatures
	if signatures == nil {
		signatures = signature.NewProvider()
	}

	b := &Broker{
		index:                         index,
		fileTypeMapper:                opts.FileTypeMapper,
		functionFactory:               opts.FunctionReflectionFactory,
		signatures:                    signatures,
		namer:                         opts.AnonymousClassNamer,
		propertiesExtensions:          opts.PropertiesExtensions,
		methodsExtensions:             opts.MethodsExtensions,
		dynamicMethodExtensions:       opts.DynamicMethodReturnTypeExtensions,
		dynamicStaticMethodExtensions: opts.DynamicStaticMethodReturnTypeExtensions,
		dynamicFunctionExtensions:     opts.DynamicFunctionReturnTypeExtensions,
		classes:                       make(map[string]*reflection.ClassReflection),
		functions:                     make(map[string]reflection.FunctionReflection),
		dynamicMethodsByClass:         make(map[string][]reflection.DynamicMethodReturnTypeExtension),
		dynamicStaticMethodsByClass:   make(map[string][]reflection.DynamicStaticMethodReturnTypeExtension),
	}

	var aware []any
	aware = append(aware, opts.FunctionReflectionFactory)
	for _, extension := range opts.PropertiesExtensions {
		aware = append(aware, extension)
	}
	for _, extension := range opts.MethodsExtensions {
		aware = append(aware, extension)
	}
	for _, extension := range opts.DynamicMethodReturnTypeExtensions {
		aware = append(aware, extension)
	}
	for _, extension := range opts.DynamicStaticMethodReturnTypeExtensions {
		aware = append(aware, extension)
	}
	for _, extension := range opts.DynamicFunctionReturnTypeExtensions {
		aware = append(aware, extension)
	}
	for _, candidate := range aware {
		if extension, ok := candidate.(reflection.BrokerAwareExtension); ok {
			extension.SetBroker(b)
		}
	}

	return b
}

func (b *Broker) Index() *php.Index { return b.index }

func (b *Broker) PropertiesExtensions() []reflection.PropertiesClassReflectionExtension {
	return b.propertiesExtensions
}

func (b *Broker) MethodsExtensions() []reflection.MethodsClassReflectionExtension {
	return b.methodsExtensions
}

// GetClass resolves a class, interface, trait or enum by its fully qualified name.
// The same name always resolves to the same reflection.
func (b *Broker) GetClass(name string) (*reflection.ClassReflection, error) {
	name = strings.TrimPrefix(name, "\\")
	key := strings.ToLower(name)
	if class, ok := b.classes[key]; ok {
		return class, nil
	}

	decl, className, ok := b.findClassDecl(name)
	if !ok {
		return nil, &ClassNotFoundError{ClassName: name}
	}

	class := reflection.NewClassReflection(b, decl, className)
	b.classes[key] = class
	observability.ReflectionsCreated.WithLabelValues("class").Inc()
	return class, nil
}

func (b *Broker) HasClass(name string) bool {
	name = strings.TrimPrefix(name, "\\")
	if _, ok := b.classes[strings.ToLower(name)]; ok {
		return true
	}
	_, _, ok := b.findClassDecl(name)
	return ok
}

// findClassDecl looks in the index first, user code may declare classes that shadow
// built-in stubs, then in the built-in classes and finally among anonymous classes
func (b *Broker) findClassDecl(name string) (*php.ClassDecl, string, bool) {
	if name == "" {
		return nil, "", false
	}
	if decl, ok := b.index.FindClass(name); ok {
		return decl, decl.Name, true
	}
	if decl, ok := b.signatures.GetClass(name); ok {
		return decl, decl.Name, true
	}
	if decl, ok := b.findAnonymousClass(name); ok {
		return decl, b.namer.GetAnonymousClassName(decl.File, decl.StartLine), true
	}
	return nil, "", false
}

func (b *Broker) findAnonymousClass(name string) (*php.ClassDecl, bool) {
	if b.namer == nil || !strings.HasPrefix(strings.ToLower(name), "anonymousclass") {
		return nil, false
	}
	for _, file := range b.index.Files() {
		for _, decl := range b.index.AnonymousClasses(file) {
			if strings.EqualFold(b.namer.GetAnonymousClassName(decl.File, decl.StartLine), name) {
				return decl, true
			}
		}
	}
	return nil, false
}

// GetAnonymousClassReflection returns the reflection of an anonymous class under its
// generated name
func (b *Broker) GetAnonymousClassReflection(decl *php.ClassDecl) (*reflection.ClassReflection, error) {
	if !decl.Anonymous {
		return nil, fmt.Errorf("class %s is not anonymous", decl.Name)
	}
	if b.namer == nil {
		return nil, fmt.Errorf("anonymous class in %s:%d: no anonymous class namer configured", decl.File, decl.StartLine)
	}

	name := b.namer.GetAnonymousClassName(decl.File, decl.StartLine)
	key := strings.ToLower(name)
	if class, ok := b.classes[key]; ok {
		return class, nil
	}

	class := reflection.NewClassReflection(b, decl, name)
	b.classes[key] = class
	observability.ReflectionsCreated.WithLabelValues("class").Inc()
	return class, nil
}

// ResolveFunctionName finds the function a call to name refers to inside namespace.
// Unqualified names fall back to the global function like PHP does.
func (b *Broker) ResolveFunctionName(name, namespace string) (string, bool) {
	if strings.HasPrefix(name, "\\") {
		return b.functionName(strings.TrimPrefix(name, "\\"))
	}

	if namespace != "" {
		if resolved, ok := b.functionName(namespace + "\\" + name); ok {
			return resolved, true
		}
		if strings.Contains(name, "\\") {
			return "", false
		}
	}
	return b.functionName(name)
}

// functionName returns the declared spelling of a fully qualified function name
func (b *Broker) functionName(name string) (string, bool) {
	if decl, ok := b.index.FindFunction(name); ok {
		return decl.Name, true
	}
	if b.signatures.HasFunction(name) {
		return strings.ToLower(name), true
	}
	return "", false
}

func (b *Broker) HasFunction(name string, scope reflection.Scope) bool {
	_, ok := b.ResolveFunctionName(name, scopeNamespace(scope))
	return ok
}

// GetFunction resolves name as it is called from scope. scope may be nil for fully
// qualified names.
func (b *Broker) GetFunction(name string, scope reflection.Scope) (reflection.FunctionReflection, error) {
	resolved, ok := b.ResolveFunctionName(name, scopeNamespace(scope))
	if !ok {
		return nil, &FunctionNotFoundError{FunctionName: name}
	}

	key := strings.ToLower(resolved)
	if function, ok := b.functions[key]; ok {
		return function, nil
	}

	var function reflection.FunctionReflection
	if decl, ok := b.index.FindFunction(resolved); ok && b.functionFactory != nil {
		function = b.createFunction(decl)
	} else if sig, ok := b.signatures.GetFunctionSignature(resolved); ok {
		function = signature.NewFunctionReflection(sig)
	} else {
		return nil, &FunctionNotFoundError{FunctionName: name}
	}

	b.functions[key] = function
	return function, nil
}

func (b *Broker) createFunction(decl *php.FunctionDecl) reflection.FunctionReflection {
	resolved := phpdoc.ResolvedPhpDoc{}
	if b.fileTypeMapper != nil && strings.TrimSpace(decl.DocComment) != "" {
		doc, err := b.fileTypeMapper.GetResolvedPhpDoc(decl.File, "", "", decl.Name, decl.DocComment)
		if err != nil {
			log.Debugf("ignoring doc comment of %s: %v", decl.Name, err)
		} else {
			resolved = *doc
		}
	}

	return b.functionFactory.Create(
		decl,
		resolved.ParamTypes(),
		resolved.ReturnType,
		resolved.ThrowType,
		resolved.Deprecated,
		resolved.Internal,
		resolved.Final,
	)
}

func scopeNamespace(scope reflection.Scope) string {
	if scope == nil {
		return ""
	}
	return scope.Namespace()
}

// ResolveMethod finds methodName on className through the method extensions
func (b *Broker) ResolveMethod(className, methodName string) (reflection.MethodReflection, bool) {
	class, err := b.GetClass(className)
	if err != nil {
		return nil, false
	}
	return class.GetMethod(methodName)
}

// InstanceOf reports whether className is parentName or extends or implements it.
// Unknown classes are only instances of themselves.
func (b *Broker) InstanceOf(className, parentName string) bool {
	className = strings.TrimPrefix(className, "\\")
	parentName = strings.TrimPrefix(parentName, "\\")
	if strings.EqualFold(className, parentName) {
		return true
	}
	class, err := b.GetClass(className)
	if err != nil {
		return false
	}
	return class.IsSubclassOf(parentName)
}

// IsInterface is true for interfaces and for unknown names, which might be interfaces
func (b *Broker) IsInterface(className string) bool {
	class, err := b.GetClass(className)
	if err != nil {
		return true
	}
	return class.IsInterface()
}

// IsUniversalObjectCrate reports whether every property of className exists
func (b *Broker) IsUniversalObjectCrate(className string) bool {
	class, err := b.GetClass(className)
	if err != nil {
		return false
	}
	for _, extension := range b.propertiesExtensions {
		if crates, ok := extension.(reflection.UniversalObjectCrateExtension); ok && crates.IsCrate(class) {
			return true
		}
	}
	return false
}

// GetDynamicMethodReturnTypeExtensionsForClass returns the extensions registered for
// className or any of its ancestors
func (b *Broker) GetDynamicMethodReturnTypeExtensionsForClass(className string) []reflection.DynamicMethodReturnTypeExtension {
	key := strings.ToLower(strings.TrimPrefix(className, "\\"))
	if extensions, ok := b.dynamicMethodsByClass[key]; ok {
		return extensions
	}

	ancestors := b.ancestorSet(className)
	extensions := []reflection.DynamicMethodReturnTypeExtension{}
	for _, extension := range b.dynamicMethodExtensions {
		if ancestors[strings.ToLower(strings.TrimPrefix(extension.GetClass(), "\\"))] {
			extensions = append(extensions, extension)
		}
	}
	b.dynamicMethodsByClass[key] = extensions
	return extensions
}

func (b *Broker) GetDynamicStaticMethodReturnTypeExtensionsForClass(className string) []reflection.DynamicStaticMethodReturnTypeExtension {
	key := strings.ToLower(strings.TrimPrefix(className, "\\"))
	if extensions, ok := b.dynamicStaticMethodsByClass[key]; ok {
		return extensions
	}

	ancestors := b.ancestorSet(className)
	extensions := []reflection.DynamicStaticMethodReturnTypeExtension{}
	for _, extension := range b.dynamicStaticMethodExtensions {
		if ancestors[strings.ToLower(strings.TrimPrefix(extension.GetClass(), "\\"))] {
			extensions = append(extensions, extension)
		}
	}
	b.dynamicStaticMethodsByClass[key] = extensions
	return extensions
}

func (b *Broker) GetDynamicFunctionReturnTypeExtensions() []reflection.DynamicFunctionReturnTypeExtension {
	return b.dynamicFunctionExtensions
}

func (b *Broker) ancestorSet(className string) map[string]bool {
	ancestors := map[string]bool{strings.ToLower(strings.TrimPrefix(className, "\\")): true}
	class, err := b.GetClass(className)
	if err != nil {
		return ancestors
	}
	for _, name := range class.AncestorNames() {
		ancestors[strings.ToLower(name)] = true
	}
	return ancestors
}
