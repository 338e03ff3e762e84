package phpdoc

import (
	"github.com/shopware/php-analyser/internal/types"
)

// ResolvedPhpDoc is a doc comment with every type resolved in its name scope.
// Types of tags that are not present are nil.
type ResolvedPhpDoc struct {
	ParamTags     map[string]ParamTag
	ReturnType    types.PHPType
	ThrowType     types.PHPType
	VarTags       map[string]types.PHPType
	PropertyTags  map[string]PropertyTag
	MethodTags    map[string]MethodTag
	TemplateTypes map[string]types.PHPType

	Deprecated        bool
	DeprecatedMessage string
	Internal          bool
	Final             bool
}

type ParamTag struct {
	Type       types.PHPType
	IsVariadic bool
}

type PropertyTag struct {
	Type     types.PHPType
	Readable bool
	Writable bool
}

type MethodTag struct {
	Name       string
	ReturnType types.PHPType
	IsStatic   bool
	Parameters []MethodTagParameter
}

type MethodTagParameter struct {
	Name     string
	Type     types.PHPType
	ByRef    bool
	Optional bool
	Variadic bool
}

func emptyResolvedPhpDoc() *ResolvedPhpDoc {
	return &ResolvedPhpDoc{
		ParamTags:     map[string]ParamTag{},
		VarTags:       map[string]types.PHPType{},
		PropertyTags:  map[string]PropertyTag{},
		MethodTags:    map[string]MethodTag{},
		TemplateTypes: map[string]types.PHPType{},
	}
}

// ParamTypes returns the @param types by parameter name
func (d *ResolvedPhpDoc) ParamTypes() map[string]types.PHPType {
	result := make(map[string]types.PHPType, len(d.ParamTags))
	for name, tag := range d.ParamTags {
		result[name] = tag.Type
	}
	return result
}

// VarType returns the type of an unnamed @var tag, or of the one naming variable
func (d *ResolvedPhpDoc) VarType(variable string) (types.PHPType, bool) {
	if t, ok := d.VarTags[variable]; ok {
		return t, true
	}
	t, ok := d.VarTags[""]
	return t, ok
}

// resolvedRecord is the cache representation of a ResolvedPhpDoc
type resolvedRecord struct {
	ParamTags         map[string]paramRecord      `msgpack:"params"`
	ReturnType        *types.Descriptor           `msgpack:"return,omitempty"`
	ThrowType         *types.Descriptor           `msgpack:"throw,omitempty"`
	VarTags           map[string]types.Descriptor `msgpack:"vars"`
	PropertyTags      map[string]propertyRecord   `msgpack:"properties"`
	MethodTags        map[string]methodRecord     `msgpack:"methods"`
	TemplateTypes     map[string]types.Descriptor `msgpack:"templates"`
	Deprecated        bool                        `msgpack:"deprecated"`
	DeprecatedMessage string                      `msgpack:"deprecated_message"`
	Internal          bool                        `msgpack:"internal"`
	Final             bool                        `msgpack:"final"`
}

type paramRecord struct {
	Type       types.Descriptor `msgpack:"type"`
	IsVariadic bool             `msgpack:"variadic"`
}

type propertyRecord struct {
	Type     types.Descriptor `msgpack:"type"`
	Readable bool             `msgpack:"readable"`
	Writable bool             `msgpack:"writable"`
}

type methodRecord struct {
	Name       string            `msgpack:"name"`
	ReturnType types.Descriptor  `msgpack:"return"`
	IsStatic   bool              `msgpack:"static"`
	Parameters []parameterRecord `msgpack:"parameters"`
}

type parameterRecord struct {
	Name     string           `msgpack:"name"`
	Type     types.Descriptor `msgpack:"type"`
	ByRef    bool             `msgpack:"by_ref"`
	Optional bool             `msgpack:"optional"`
	Variadic bool             `msgpack:"variadic"`
}

func describeOptional(t types.PHPType) *types.Descriptor {
	if t == nil {
		return nil
	}
	d := types.Describe(t)
	return &d
}

func typeOfOptional(d *types.Descriptor) types.PHPType {
	if d == nil {
		return nil
	}
	return d.Type()
}

func (d *ResolvedPhpDoc) record() resolvedRecord {
	r := resolvedRecord{
		ParamTags:         make(map[string]paramRecord, len(d.ParamTags)),
		ReturnType:        describeOptional(d.ReturnType),
		ThrowType:         describeOptional(d.ThrowType),
		VarTags:           make(map[string]types.Descriptor, len(d.VarTags)),
		PropertyTags:      make(map[string]propertyRecord, len(d.PropertyTags)),
		MethodTags:        make(map[string]methodRecord, len(d.MethodTags)),
		TemplateTypes:     make(map[string]types.Descriptor, len(d.TemplateTypes)),
		Deprecated:        d.Deprecated,
		DeprecatedMessage: d.DeprecatedMessage,
		Internal:          d.Internal,
		Final:             d.Final,
	}

	for name, tag := range d.ParamTags {
		r.ParamTags[name] = paramRecord{Type: types.Describe(tag.Type), IsVariadic: tag.IsVariadic}
	}
	for name, t := range d.VarTags {
		r.VarTags[name] = types.Describe(t)
	}
	for name, tag := range d.PropertyTags {
		r.PropertyTags[name] = propertyRecord{Type: types.Describe(tag.Type), Readable: tag.Readable, Writable: tag.Writable}
	}
	for key, tag := range d.MethodTags {
		method := methodRecord{Name: tag.Name, ReturnType: types.Describe(tag.ReturnType), IsStatic: tag.IsStatic}
		for _, param := range tag.Parameters {
			method.Parameters = append(method.Parameters, parameterRecord{
				Name:     param.Name,
				Type:     types.Describe(param.Type),
				ByRef:    param.ByRef,
				Optional: param.Optional,
				Variadic: param.Variadic,
			})
		}
		r.MethodTags[key] = method
	}
	for name, t := range d.TemplateTypes {
		r.TemplateTypes[name] = types.Describe(t)
	}
	return r
}

func (r resolvedRecord) resolved() *ResolvedPhpDoc {
	d := emptyResolvedPhpDoc()
	d.ReturnType = typeOfOptional(r.ReturnType)
	d.ThrowType = typeOfOptional(r.ThrowType)
	d.Deprecated = r.Deprecated
	d.DeprecatedMessage = r.DeprecatedMessage
	d.Internal = r.Internal
	d.Final = r.Final

	for name, param := range r.ParamTags {
		d.ParamTags[name] = ParamTag{Type: param.Type.Type(), IsVariadic: param.IsVariadic}
	}
	for name, t := range r.VarTags {
		d.VarTags[name] = t.Type()
	}
	for name, property := range r.PropertyTags {
		d.PropertyTags[name] = PropertyTag{Type: property.Type.Type(), Readable: property.Readable, Writable: property.Writable}
	}
	for key, method := range r.MethodTags {
		tag := MethodTag{Name: method.Name, ReturnType: method.ReturnType.Type(), IsStatic: method.IsStatic}
		for _, param := range method.Parameters {
			tag.Parameters = append(tag.Parameters, MethodTagParameter{
				Name:     param.Name,
				Type:     param.Type.Type(),
				ByRef:    param.ByRef,
				Optional: param.Optional,
				Variadic: param.Variadic,
			})
		}
		d.MethodTags[key] = tag
	}
	for name, t := range r.TemplateTypes {
		d.TemplateTypes[name] = t.Type()
	}
	return d
}
