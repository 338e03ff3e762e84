// Package phpdefect knows the properties of built-in classes that PHP's own reflection
// does not report.
package phpdefect

import (
	"strings"

	"github.com/shopware/php-analyser/internal/phpdoc"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("php-analyser.reflection.phpdefect")

// properties by lowercased class name, types in doc comment syntax
var properties = map[string]map[string]string{
	"dateinterval": {
		"y":      "int",
		"m":      "int",
		"d":      "int",
		"h":      "int",
		"i":      "int",
		"s":      "int",
		"f":      "float",
		"invert": "int",
		"days":   "int|false",
	},
	"dateperiod": {
		"recurrences":        "int",
		"include_start_date": "bool",
		"start":              "DateTimeInterface",
		"current":            "DateTimeInterface|null",
		"end":                "DateTimeInterface|null",
		"interval":           "DateInterval",
	},
	"directory": {
		"handle": "resource",
		"path":   "string",
	},
	"domattr": {
		"name":           "string",
		"ownerElement":   "DOMElement|null",
		"schemaTypeInfo": "mixed",
		"specified":      "bool",
		"value":          "string",
	},
	"domcharacterdata": {
		"data":   "string",
		"length": "int",
	},
	"domdocument": {
		"actualEncoding":      "string|null",
		"config":              "mixed",
		"doctype":             "DOMDocumentType|null",
		"documentElement":     "DOMElement|null",
		"documentURI":         "string|null",
		"encoding":            "string|null",
		"formatOutput":        "bool",
		"implementation":      "DOMImplementation",
		"preserveWhiteSpace":  "bool",
		"recover":             "bool",
		"resolveExternals":    "bool",
		"standalone":          "bool",
		"strictErrorChecking": "bool",
		"substituteEntities":  "bool",
		"validateOnParse":     "bool",
		"version":             "string|null",
		"xmlEncoding":         "string|null",
		"xmlStandalone":       "bool",
		"xmlVersion":          "string|null",
	},
	"domdocumenttype": {
		"publicId":       "string",
		"systemId":       "string",
		"name":           "string",
		"entities":       "DOMNamedNodeMap",
		"notations":      "DOMNamedNodeMap",
		"internalSubset": "string|null",
	},
	"domelement": {
		"schemaTypeInfo": "mixed",
		"tagName":        "string",
	},
	"domentity": {
		"publicId":     "string|null",
		"systemId":     "string|null",
		"notationName": "string|null",
	},
	"domnamednodemap": {
		"length": "int",
	},
	"domnode": {
		"nodeName":        "string",
		"nodeValue":       "string|null",
		"nodeType":        "int",
		"parentNode":      "DOMNode|null",
		"childNodes":      "DOMNodeList",
		"firstChild":      "DOMNode|null",
		"lastChild":       "DOMNode|null",
		"previousSibling": "DOMNode|null",
		"nextSibling":     "DOMNode|null",
		"attributes":      "DOMNamedNodeMap|null",
		"ownerDocument":   "DOMDocument|null",
		"namespaceURI":    "string|null",
		"prefix":          "string",
		"localName":       "string|null",
		"baseURI":         "string|null",
		"textContent":     "string",
	},
	"domnodelist": {
		"length": "int",
	},
	"domprocessinginstruction": {
		"target": "string",
		"data":   "string",
	},
	"domtext": {
		"wholeText": "string",
	},
	"domxpath": {
		"document": "DOMDocument",
	},
	"libxmlerror": {
		"level":   "int",
		"code":    "int",
		"column":  "int",
		"message": "string",
		"file":    "string",
		"line":    "int",
	},
	"xmlreader": {
		"attributeCount": "int",
		"baseURI":        "string",
		"depth":          "int",
		"hasAttributes":  "bool",
		"hasValue":       "bool",
		"isDefault":      "bool",
		"isEmptyElement": "bool",
		"localName":      "string",
		"name":           "string",
		"namespaceURI":   "string",
		"nodeType":       "int",
		"prefix":         "string",
		"value":          "string",
		"xmlLang":        "string",
	},
	"ziparchive": {
		"status":    "int",
		"statusSys": "int",
		"numFiles":  "int",
		"filename":  "string",
		"comment":   "string",
	},
}

// Property is a property of a built-in class
type Property struct {
	declaringClass *reflection.ClassReflection
	typ            types.PHPType
}

func (p *Property) DeclaringClass() *reflection.ClassReflection { return p.declaringClass }
func (p *Property) IsStatic() bool                              { return false }
func (p *Property) IsPrivate() bool                             { return false }
func (p *Property) IsPublic() bool                              { return true }
func (p *Property) Type() types.PHPType                         { return p.typ }
func (p *Property) IsReadable() bool                            { return true }
func (p *Property) IsWritable() bool                            { return true }

type Extension struct {
	typeResolver *phpdoc.TypeStringResolver
}

func NewExtension(typeResolver *phpdoc.TypeStringResolver) *Extension {
	return &Extension{typeResolver: typeResolver}
}

func (e *Extension) HasProperty(class *reflection.ClassReflection, propertyName string) bool {
	_, ok := e.lookup(class, propertyName)
	return ok
}

func (e *Extension) GetProperty(class *reflection.ClassReflection, propertyName string) reflection.PropertyReflection {
	typeText, ok := e.lookup(class, propertyName)
	if !ok {
		return nil
	}

	t, err := e.typeResolver.Resolve(typeText, nil)
	if err != nil {
		log.Debugf("falling back to mixed for %s::$%s: %v", class.Name(), propertyName, err)
		t = types.NewMixedType()
	}
	return &Property{declaringClass: class, typ: t}
}

// lookup checks the class and all its ancestors, user classes inherit the defects of
// the built-in classes they extend
func (e *Extension) lookup(class *reflection.ClassReflection, propertyName string) (string, bool) {
	for _, name := range class.AncestorNames() {
		if classProperties, ok := properties[strings.ToLower(name)]; ok {
			if typeText, ok := classProperties[propertyName]; ok {
				return typeText, true
			}
		}
	}
	return "", false
}
