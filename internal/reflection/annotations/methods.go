package annotations

import (
	"strings"

	"github.com/shopware/php-analyser/internal/phpdoc"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// Method is a method declared with @method
type Method struct {
	declaringClass *reflection.ClassReflection
	name           string
	returnType     types.PHPType
	static         bool
	parameters     []reflection.ParameterReflection
	variadic       bool
}

func (m *Method) DeclaringClass() *reflection.ClassReflection  { return m.declaringClass }
func (m *Method) Name() string                                 { return m.name }
func (m *Method) IsStatic() bool                               { return m.static }
func (m *Method) IsPrivate() bool                              { return false }
func (m *Method) IsPublic() bool                               { return true }
func (m *Method) Parameters() []reflection.ParameterReflection { return m.parameters }
func (m *Method) IsVariadic() bool                             { return m.variadic }
func (m *Method) ReturnType() types.PHPType                    { return m.returnType }
func (m *Method) ThrowType() types.PHPType                     { return nil }
func (m *Method) IsDeprecated() bool                           { return false }
func (m *Method) IsInternal() bool                             { return false }
func (m *Method) IsFinal() bool                                { return false }

type parameter struct {
	name     string
	typ      types.PHPType
	byRef    bool
	optional bool
	variadic bool
}

func (p *parameter) Name() string              { return p.name }
func (p *parameter) Type() types.PHPType       { return p.typ }
func (p *parameter) NativeType() types.PHPType { return types.NewMixedType() }
func (p *parameter) PhpDocType() types.PHPType { return p.typ }
func (p *parameter) IsOptional() bool          { return p.optional }
func (p *parameter) PassedByReference() bool   { return p.byRef }
func (p *parameter) IsVariadic() bool          { return p.variadic }
func (p *parameter) HasDefault() bool          { return p.optional && !p.variadic }

type MethodsExtension struct {
	fileTypeMapper *phpdoc.FileTypeMapper
	methods        map[string]map[string]*Method
}

func NewMethodsExtension(fileTypeMapper *phpdoc.FileTypeMapper) *MethodsExtension {
	return &MethodsExtension{
		fileTypeMapper: fileTypeMapper,
		methods:        make(map[string]map[string]*Method),
	}
}

func (e *MethodsExtension) HasMethod(class *reflection.ClassReflection, methodName string) bool {
	_, ok := e.classMethods(class)[strings.ToLower(methodName)]
	return ok
}

func (e *MethodsExtension) GetMethod(class *reflection.ClassReflection, methodName string) reflection.MethodReflection {
	method, ok := e.classMethods(class)[strings.ToLower(methodName)]
	if !ok {
		return nil
	}
	return method
}

func (e *MethodsExtension) classMethods(class *reflection.ClassReflection) map[string]*Method {
	key := strings.ToLower(class.Name())
	if methods, ok := e.methods[key]; ok {
		return methods
	}

	methods := make(map[string]*Method)
	for _, source := range docSources(class) {
		resolved := resolveClassDoc(e.fileTypeMapper, source)
		if resolved == nil {
			continue
		}
		for name, tag := range resolved.MethodTags {
			if _, exists := methods[name]; exists {
				continue
			}
			methods[name] = newMethod(source.declaringClass, tag)
		}
	}

	e.methods[key] = methods
	return methods
}

func newMethod(declaringClass *reflection.ClassReflection, tag phpdoc.MethodTag) *Method {
	method := &Method{
		declaringClass: declaringClass,
		name:           tag.Name,
		returnType:     tag.ReturnType,
		static:         tag.IsStatic,
	}
	for _, param := range tag.Parameters {
		method.parameters = append(method.parameters, &parameter{
			name:     param.Name,
			typ:      param.Type,
			byRef:    param.ByRef,
			optional: param.Optional,
			variadic: param.Variadic,
		})
		if param.Variadic {
			method.variadic = true
		}
	}
	return method
}
