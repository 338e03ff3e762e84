package annotations

import (
	"strings"

	"github.com/shopware/php-analyser/internal/phpdoc"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// Property is a property declared with @property, @property-read or @property-write
type Property struct {
	declaringClass *reflection.ClassReflection
	typ            types.PHPType
	readable       bool
	writable       bool
}

func (p *Property) DeclaringClass() *reflection.ClassReflection { return p.declaringClass }
func (p *Property) IsStatic() bool                              { return false }
func (p *Property) IsPrivate() bool                             { return false }
func (p *Property) IsPublic() bool                              { return true }
func (p *Property) Type() types.PHPType                         { return p.typ }
func (p *Property) IsReadable() bool                            { return p.readable }
func (p *Property) IsWritable() bool                            { return p.writable }

type PropertiesExtension struct {
	fileTypeMapper *phpdoc.FileTypeMapper
	properties     map[string]map[string]*Property
}

func NewPropertiesExtension(fileTypeMapper *phpdoc.FileTypeMapper) *PropertiesExtension {
	return &PropertiesExtension{
		fileTypeMapper: fileTypeMapper,
		properties:     make(map[string]map[string]*Property),
	}
}

func (e *PropertiesExtension) HasProperty(class *reflection.ClassReflection, propertyName string) bool {
	_, ok := e.classProperties(class)[propertyName]
	return ok
}

func (e *PropertiesExtension) GetProperty(class *reflection.ClassReflection, propertyName string) reflection.PropertyReflection {
	property, ok := e.classProperties(class)[propertyName]
	if !ok {
		return nil
	}
	return property
}

func (e *PropertiesExtension) classProperties(class *reflection.ClassReflection) map[string]*Property {
	key := strings.ToLower(class.Name())
	if properties, ok := e.properties[key]; ok {
		return properties
	}

	properties := make(map[string]*Property)
	for _, source := range docSources(class) {
		resolved := resolveClassDoc(e.fileTypeMapper, source)
		if resolved == nil {
			continue
		}
		for name, tag := range resolved.PropertyTags {
			if _, exists := properties[name]; exists {
				continue
			}
			properties[name] = &Property{
				declaringClass: source.declaringClass,
				typ:            tag.Type,
				readable:       tag.Readable,
				writable:       tag.Writable,
			}
		}
	}

	e.properties[key] = properties
	return properties
}
