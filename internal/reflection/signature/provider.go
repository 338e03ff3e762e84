// Package signature knows the functions and classes built into PHP itself. The
// signatures are embedded as JSON and looked up with gjson on first use.
package signature

import (
	_ "embed"
	"sort"
	"strings"

	"github.com/shopware/php-analyser/internal/php"
	"github.com/shopware/php-analyser/internal/phpdoc"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/tidwall/gjson"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("php-analyser.reflection.signature")

//go:embed signatures.json
var signatureData []byte

type ParameterSignature struct {
	Name     string
	Type     types.PHPType
	Optional bool
	ByRef    bool
	Variadic bool
}

type FunctionSignature struct {
	Name       string
	Parameters []ParameterSignature
	ReturnType types.PHPType
	Variadic   bool
}

// Provider answers lookups against the embedded signature map. Function types are
// written in doc comment syntax, class members in native syntax.
type Provider struct {
	data         []byte
	typeResolver *phpdoc.TypeStringResolver

	functions map[string]*FunctionSignature
	classes   map[string]*php.ClassDecl
}

func NewProvider() *Provider {
	return newProvider(signatureData)
}

func newProvider(data []byte) *Provider {
	return &Provider{
		data:         data,
		typeResolver: phpdoc.NewTypeStringResolver(),
		functions:    make(map[string]*FunctionSignature),
		classes:      make(map[string]*php.ClassDecl),
	}
}

// lookup returns the entry of name in section. Names that are not plain identifiers
// never match, they would be read as gjson path syntax.
func (p *Provider) lookup(section, name string) gjson.Result {
	key := strings.ToLower(strings.TrimPrefix(name, "\\"))
	if key == "" || strings.ContainsAny(key, "\\.*?|#@!: ") {
		return gjson.Result{}
	}
	return gjson.GetBytes(p.data, section+"."+key)
}

func (p *Provider) HasFunction(name string) bool {
	return p.lookup("functions", name).Exists()
}

func (p *Provider) GetFunctionSignature(name string) (*FunctionSignature, bool) {
	key := strings.ToLower(strings.TrimPrefix(name, "\\"))
	if signature, ok := p.functions[key]; ok {
		return signature, true
	}

	result := p.lookup("functions", name)
	if !result.Exists() {
		return nil, false
	}

	signature := &FunctionSignature{
		Name:       key,
		ReturnType: p.resolveType(result.Get("return").String(), key),
	}
	for _, param := range result.Get("params").Array() {
		parameter := ParameterSignature{
			Name:     param.Get("name").String(),
			Type:     p.resolveType(param.Get("type").String(), key),
			Optional: param.Get("optional").Bool() || param.Get("variadic").Bool(),
			ByRef:    param.Get("byRef").Bool(),
			Variadic: param.Get("variadic").Bool(),
		}
		if parameter.Variadic {
			signature.Variadic = true
		}
		signature.Parameters = append(signature.Parameters, parameter)
	}

	p.functions[key] = signature
	return signature, true
}

// FunctionNames lists all known functions, sorted
func (p *Provider) FunctionNames() []string {
	var names []string
	gjson.GetBytes(p.data, "functions").ForEach(func(key, _ gjson.Result) bool {
		names = append(names, key.String())
		return true
	})
	sort.Strings(names)
	return names
}

func (p *Provider) HasClass(name string) bool {
	return p.lookup("classes", name).Exists()
}

// GetClass synthesizes a declaration for a built-in class. The declaration has no
// file, its methods have no body.
func (p *Provider) GetClass(name string) (*php.ClassDecl, bool) {
	key := strings.ToLower(strings.TrimPrefix(name, "\\"))
	if decl, ok := p.classes[key]; ok {
		return decl, true
	}

	result := p.lookup("classes", name)
	if !result.Exists() {
		return nil, false
	}

	decl := &php.ClassDecl{
		Name:   result.Get("name").String(),
		Parent: result.Get("parent").String(),
		Final:  result.Get("final").Bool(),
	}
	if result.Get("kind").String() == "interface" {
		decl.Kind = php.KindInterface
	}
	for _, iface := range result.Get("interfaces").Array() {
		decl.Interfaces = append(decl.Interfaces, iface.String())
	}
	for _, method := range result.Get("methods").Array() {
		decl.Methods = append(decl.Methods, methodDecl(method, decl.Kind == php.KindInterface))
	}

	p.classes[key] = decl
	return decl, true
}

func methodDecl(method gjson.Result, abstract bool) *php.MethodDecl {
	decl := &php.MethodDecl{
		FunctionLike: php.FunctionLike{
			Name:       method.Get("name").String(),
			ReturnType: method.Get("return").String(),
		},
		Visibility: php.Public,
		Static:     method.Get("static").Bool(),
		Abstract:   abstract,
		Final:      method.Get("final").Bool(),
	}
	for _, param := range method.Get("params").Array() {
		decl.Params = append(decl.Params, &php.ParamDecl{
			Name:       param.Get("name").String(),
			Type:       param.Get("type").String(),
			ByRef:      param.Get("byRef").Bool(),
			Variadic:   param.Get("variadic").Bool(),
			HasDefault: param.Get("optional").Bool(),
		})
	}
	return decl
}

func (p *Provider) resolveType(typeText, owner string) types.PHPType {
	if typeText == "" {
		return types.NewMixedType()
	}
	t, err := p.typeResolver.Resolve(typeText, nil)
	if err != nil {
		log.Warningf("invalid signature type %q of %s: %v", typeText, owner, err)
		return types.NewMixedType()
	}
	return t
}
