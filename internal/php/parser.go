package php

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/shopware/php-analyser/internal/observability"
	treesitterhelper "github.com/shopware/php-analyser/internal/tree_sitter_helper"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// Parser turns PHP source into declarations. A Parser is not safe for concurrent
// use, create one per goroutine.
type Parser struct {
	parser *tree_sitter.Parser
}

func NewParser() (*Parser, error) {
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return &Parser{parser: parser}, nil
}

func (p *Parser) Close() {
	p.parser.Close()
}

// Parse returns the raw syntax tree. The caller owns the tree and must close it.
func (p *Parser) Parse(content []byte) *tree_sitter.Tree {
	return p.parser.Parse(content, nil)
}

// ParseFile reads and parses the file at path
func (p *Parser) ParseFile(path string) (*File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.ParseSource(path, content)
}

// ParseSource parses content as if it was read from path
func (p *Parser) ParseSource(path string, content []byte) (*File, error) {
	start := time.Now()
	defer func() {
		observability.ParseDuration.Observe(time.Since(start).Seconds())
	}()

	tree := p.Parse(content)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse %s", path)
	}
	defer tree.Close()

	file := &File{
		Path: path,
		Hash: xxhash.Sum64(content),
	}

	e := &declarationExtractor{file: file, content: content, uses: map[string]string{}, functionUses: map[string]string{}}
	e.walkStatements(tree.RootNode())
	e.collectAnonymousClasses(tree.RootNode())

	return file, nil
}

type declarationExtractor struct {
	file         *File
	content      []byte
	namespace    string
	uses         map[string]string
	functionUses map[string]string
}

func (e *declarationExtractor) text(node *tree_sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(node.Utf8Text(e.content))
}

func (e *declarationExtractor) nameContext() NameContext {
	return NameContext{Namespace: e.namespace, Uses: maps.Clone(e.uses), FunctionUses: maps.Clone(e.functionUses)}
}

func (e *declarationExtractor) resolver() *AliasResolver {
	return NewAliasResolver(e.namespace, e.uses).WithFunctionUses(e.functionUses)
}

func (e *declarationExtractor) walkStatements(parent *tree_sitter.Node) {
	for i := uint(0); i < parent.NamedChildCount(); i++ {
		node := parent.NamedChild(i)
		if node == nil {
			continue
		}

		switch node.Kind() {
		case "namespace_definition":
			e.namespace = strings.Trim(e.text(node.ChildByFieldName("name")), "\\")
			e.uses = map[string]string{}
			e.functionUses = map[string]string{}
			if body := node.ChildByFieldName("body"); body != nil {
				e.walkStatements(body)
			}
		case "namespace_use_declaration":
			e.collectUses(node)
		case "declare_statement":
			text := strings.ReplaceAll(strings.ToLower(e.text(node)), " ", "")
			if strings.Contains(text, "strict_types=1") {
				e.file.StrictTypes = true
			}
		case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
			if class := e.extractClass(node); class != nil {
				e.file.Classes = append(e.file.Classes, class)
			}
		case "function_definition":
			e.file.Functions = append(e.file.Functions, e.extractFunction(node))
		case "compound_statement":
			e.walkStatements(node)
		}
	}
}

// collectUses records class and function imports. Constant imports are skipped.
func (e *declarationExtractor) collectUses(node *tree_sitter.Node) {
	kind := treesitterhelper.PHPUseType(node, e.content)

	clauses := node
	prefix := ""
	if treesitterhelper.PHPUseGroupPattern.Matches(node, e.content) {
		clauses = treesitterhelper.GetFirstNodeOfKind(node, "namespace_use_group")
		prefix = strings.Trim(e.text(findDirectChildOfKind(node, "namespace_name")), "\\")
	}

	for i := uint(0); i < clauses.NamedChildCount(); i++ {
		clause := clauses.NamedChild(i)
		if clause == nil || clause.Kind() != "namespace_use_clause" {
			continue
		}
		clauseKind := kind
		if clauseKind == "" {
			clauseKind = treesitterhelper.PHPUseType(clause, e.content)
		}
		switch clauseKind {
		case "":
			e.collectUseClause(clause, prefix, e.uses)
		case "function":
			e.collectUseClause(clause, prefix, e.functionUses)
		}
	}
}

func (e *declarationExtractor) collectUseClause(clause *tree_sitter.Node, prefix string, into map[string]string) {
	var nameNode, aliasNode *tree_sitter.Node
	if alias := clause.ChildByFieldName("alias"); alias != nil {
		aliasNode = alias
	}
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		child := clause.NamedChild(i)
		if child == nil {
			continue
		}
		if child.Kind() != "name" && child.Kind() != "qualified_name" {
			continue
		}
		if nameNode == nil {
			nameNode = child
			continue
		}
		if aliasNode == nil {
			aliasNode = child
		}
	}
	if nameNode == nil {
		return
	}

	fullPath := strings.Trim(e.text(nameNode), "\\")
	if prefix != "" {
		fullPath = prefix + "\\" + fullPath
	}

	alias := fullPath
	if idx := strings.LastIndex(alias, "\\"); idx >= 0 {
		alias = alias[idx+1:]
	}
	if aliasNode != nil && aliasNode.Id() != nameNode.Id() {
		alias = e.text(aliasNode)
	}

	into[alias] = fullPath
}

func (e *declarationExtractor) extractClass(node *tree_sitter.Node) *ClassDecl {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	className := e.text(nameNode)
	if e.namespace != "" {
		className = e.namespace + "\\" + className
	}

	class := &ClassDecl{
		NameContext: e.nameContext(),
		Name:        className,
		File:        e.file.Path,
		StartLine:   int(node.Range().StartPoint.Row) + 1,
		EndLine:     int(node.Range().EndPoint.Row) + 1,
		DocComment:  e.docComment(node),
	}

	switch node.Kind() {
	case "interface_declaration":
		class.Kind = KindInterface
	case "trait_declaration":
		class.Kind = KindTrait
	case "enum_declaration":
		class.Kind = KindEnum
	}

	e.fillClassBody(class, node)
	return class
}

// fillClassBody extracts inheritance and members, shared by named and anonymous classes
func (e *declarationExtractor) fillClassBody(class *ClassDecl, node *tree_sitter.Node) {
	resolver := e.resolver()

	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "abstract_modifier":
			class.Abstract = true
		case "final_modifier":
			class.Final = true
		case "base_clause":
			// Interfaces can extend multiple other interfaces
			for _, name := range e.names(child, resolver) {
				if class.Kind == KindInterface {
					class.Interfaces = append(class.Interfaces, name)
				} else {
					class.Parent = name
				}
			}
		case "class_interface_clause":
			class.Interfaces = append(class.Interfaces, e.names(child, resolver)...)
		}
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		body = treesitterhelper.GetFirstNodeOfKind(node, "declaration_list")
	}
	if body == nil {
		return
	}

	for i := uint(0); i < body.NamedChildCount(); i++ {
		member := body.NamedChild(i)
		if member == nil {
			continue
		}

		switch member.Kind() {
		case "use_declaration":
			class.Traits = append(class.Traits, e.names(member, resolver)...)
		case "property_declaration":
			class.Properties = append(class.Properties, e.extractProperties(member, resolver)...)
		case "const_declaration":
			class.Constants = append(class.Constants, e.extractConstants(member)...)
		case "method_declaration":
			method := e.extractMethod(member, resolver)
			class.Methods = append(class.Methods, method)
			if strings.EqualFold(method.Name, "__construct") {
				class.Properties = append(class.Properties, e.promotedProperties(member, resolver)...)
			}
		}
	}
}

func (e *declarationExtractor) names(node *tree_sitter.Node, resolver *AliasResolver) []string {
	var names []string
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && (child.Kind() == "name" || child.Kind() == "qualified_name") {
			names = append(names, resolver.ResolveType(e.text(child)))
		}
	}
	return names
}

func (e *declarationExtractor) modifiers(node *tree_sitter.Node) (visibility Visibility, static, abstract, final, readonly bool) {
	visibility = Public
	for i := uint(0); i < node.NamedChildCount(); i++ {
		modifier := node.NamedChild(i)
		if modifier == nil {
			continue
		}

		switch modifier.Kind() {
		case "visibility_modifier", "static_modifier", "abstract_modifier", "final_modifier", "readonly_modifier", "var_modifier":
		default:
			continue
		}

		switch strings.ToLower(e.text(modifier)) {
		case "private":
			visibility = Private
		case "protected":
			visibility = Protected
		case "public", "var":
			visibility = Public
		case "static":
			static = true
		case "abstract":
			abstract = true
		case "final":
			final = true
		case "readonly":
			readonly = true
		}
	}
	return
}

func (e *declarationExtractor) extractProperties(node *tree_sitter.Node, resolver *AliasResolver) []*PropertyDecl {
	visibility, static, _, _, readonly := e.modifiers(node)
	propType := e.typeHint(typeNode(node), resolver)
	doc := e.docComment(node)

	// Property declarations can have multiple properties defined at once
	var properties []*PropertyDecl
	for i := uint(0); i < node.NamedChildCount(); i++ {
		element := node.NamedChild(i)
		if element == nil || element.Kind() != "property_element" {
			continue
		}

		varNode := treesitterhelper.GetFirstNodeOfKind(element, "variable_name")
		if varNode == nil {
			continue
		}

		properties = append(properties, &PropertyDecl{
			Name:       strings.TrimPrefix(e.text(varNode), "$"),
			Type:       propType,
			Visibility: visibility,
			Static:     static,
			Readonly:   readonly,
			DocComment: doc,
			Line:       int(varNode.Range().StartPoint.Row) + 1,
		})
	}
	return properties
}

func (e *declarationExtractor) extractConstants(node *tree_sitter.Node) []*ConstantDecl {
	visibility, _, _, _, _ := e.modifiers(node)
	doc := e.docComment(node)

	var constants []*ConstantDecl
	for i := uint(0); i < node.NamedChildCount(); i++ {
		element := node.NamedChild(i)
		if element == nil || element.Kind() != "const_element" || element.NamedChildCount() == 0 {
			continue
		}

		name := element.NamedChild(0)
		value := ""
		if element.NamedChildCount() > 1 {
			value = e.text(element.NamedChild(element.NamedChildCount() - 1))
		}

		constants = append(constants, &ConstantDecl{
			Name:       e.text(name),
			Value:      value,
			Visibility: visibility,
			DocComment: doc,
			Line:       int(name.Range().StartPoint.Row) + 1,
		})
	}
	return constants
}

func (e *declarationExtractor) extractMethod(node *tree_sitter.Node, resolver *AliasResolver) *MethodDecl {
	visibility, static, abstract, final, _ := e.modifiers(node)

	return &MethodDecl{
		FunctionLike: e.functionLike(node, resolver),
		Visibility:   visibility,
		Static:       static,
		Abstract:     abstract,
		Final:        final,
	}
}

func (e *declarationExtractor) extractFunction(node *tree_sitter.Node) *FunctionDecl {
	function := &FunctionDecl{
		FunctionLike: e.functionLike(node, e.resolver()),
		NameContext:  e.nameContext(),
		File:         e.file.Path,
	}
	if e.namespace != "" {
		function.Name = e.namespace + "\\" + function.Name
	}
	return function
}

func (e *declarationExtractor) functionLike(node *tree_sitter.Node, resolver *AliasResolver) FunctionLike {
	f := FunctionLike{
		Name:       e.text(node.ChildByFieldName("name")),
		ReturnType: e.typeHint(node.ChildByFieldName("return_type"), resolver),
		DocComment: e.docComment(node),
		StartLine:  int(node.Range().StartPoint.Row) + 1,
	}

	if findDirectChildOfKind(node, "reference_modifier") != nil {
		f.ByRefReturn = true
	}

	if body := node.ChildByFieldName("body"); body != nil {
		f.HasBody = true
		f.BodyStart = body.StartByte()
		f.BodyEnd = body.EndByte()
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		f.Params = e.extractParams(params, resolver)
	}

	return f
}

func (e *declarationExtractor) extractParams(node *tree_sitter.Node, resolver *AliasResolver) []*ParamDecl {
	var params []*ParamDecl
	for i := uint(0); i < node.NamedChildCount(); i++ {
		param := node.NamedChild(i)
		if param == nil {
			continue
		}

		switch param.Kind() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			continue
		}

		varNode := param.ChildByFieldName("name")
		if varNode == nil || varNode.Kind() != "variable_name" {
			varNode = treesitterhelper.GetFirstNodeOfKind(param, "variable_name")
		}
		if varNode == nil {
			continue
		}

		decl := &ParamDecl{
			Name:     strings.TrimPrefix(e.text(varNode), "$"),
			Type:     e.typeHint(typeNode(param), resolver),
			Variadic: param.Kind() == "variadic_parameter",
			Promoted: param.Kind() == "property_promotion_parameter",
		}

		if findDirectChildOfKind(param, "reference_modifier") != nil || param.ChildByFieldName("reference_modifier") != nil {
			decl.ByRef = true
		}

		if def := param.ChildByFieldName("default_value"); def != nil {
			decl.HasDefault = true
			decl.DefaultValue = e.text(def)
		}

		params = append(params, decl)
	}
	return params
}

func (e *declarationExtractor) promotedProperties(node *tree_sitter.Node, resolver *AliasResolver) []*PropertyDecl {
	paramList := node.ChildByFieldName("parameters")
	if paramList == nil {
		return nil
	}

	var properties []*PropertyDecl
	for i := uint(0); i < paramList.NamedChildCount(); i++ {
		param := paramList.NamedChild(i)
		if param == nil || param.Kind() != "property_promotion_parameter" {
			continue
		}

		varNode := treesitterhelper.GetFirstNodeOfKind(param, "variable_name")
		if varNode == nil {
			continue
		}

		visibility, _, _, _, readonly := e.modifiers(param)
		properties = append(properties, &PropertyDecl{
			Name:       strings.TrimPrefix(e.text(varNode), "$"),
			Type:       e.typeHint(typeNode(param), resolver),
			Visibility: visibility,
			Readonly:   readonly,
			Promoted:   true,
			Line:       int(varNode.Range().StartPoint.Row) + 1,
		})
	}
	return properties
}

// typeHint renders a native type declaration with all class names fully qualified
func (e *declarationExtractor) typeHint(node *tree_sitter.Node, resolver *AliasResolver) string {
	return TypeHint(node, e.content, resolver)
}

// TypeHint renders a native type node with class names resolved, "" when node is nil
func TypeHint(node *tree_sitter.Node, content []byte, resolver *AliasResolver) string {
	if node == nil {
		return ""
	}

	switch node.Kind() {
	case "primitive_type", "bottom_type":
		return strings.ToLower(string(node.Utf8Text(content)))
	case "named_type":
		if node.NamedChildCount() > 0 {
			return resolver.ResolveType(string(node.NamedChild(0).Utf8Text(content)))
		}
		return resolver.ResolveType(string(node.Utf8Text(content)))
	case "optional_type":
		if node.NamedChildCount() > 0 {
			return "?" + TypeHint(node.NamedChild(0), content, resolver)
		}
	case "union_type", "intersection_type", "disjunctive_normal_form_type":
		separator := "|"
		if node.Kind() == "intersection_type" {
			separator = "&"
		}
		parts := make([]string, 0, node.NamedChildCount())
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			part := TypeHint(child, content, resolver)
			if child.Kind() == "intersection_type" && separator == "|" {
				part = "(" + part + ")"
			}
			parts = append(parts, part)
		}
		return strings.Join(parts, separator)
	case "type_list":
		if node.NamedChildCount() > 0 {
			return TypeHint(node.NamedChild(0), content, resolver)
		}
	}

	return resolver.ResolveType(strings.TrimSpace(string(node.Utf8Text(content))))
}

// docComment returns the /** */ comment directly preceding node
func (e *declarationExtractor) docComment(node *tree_sitter.Node) string {
	prev := node.PrevNamedSibling()
	for prev != nil && prev.Kind() == "attribute_list" {
		prev = prev.PrevNamedSibling()
	}
	if prev == nil || prev.Kind() != "comment" {
		return ""
	}
	text := e.text(prev)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return text
}

// collectAnonymousClasses records every `new class` expression in the file
func (e *declarationExtractor) collectAnonymousClasses(root *tree_sitter.Node) {
	for _, node := range treesitterhelper.FindAll(root, treesitterhelper.PHPAnonymousClassPattern, e.content) {
		// anonymous classes see the namespace and imports in effect where they are declared
		e.namespace, e.uses, e.functionUses = e.namespaceAt(root, node.StartByte())

		class := &ClassDecl{
			NameContext: e.nameContext(),
			File:        e.file.Path,
			StartLine:   int(node.Range().StartPoint.Row) + 1,
			EndLine:     int(node.Range().EndPoint.Row) + 1,
			Anonymous:   true,
			DocComment:  e.docComment(node),
		}
		e.fillClassBody(class, node)
		e.file.AnonymousClasses = append(e.file.AnonymousClasses, class)
	}
}

func (e *declarationExtractor) namespaceAt(root *tree_sitter.Node, offset uint) (string, map[string]string, map[string]string) {
	scan := &declarationExtractor{file: &File{}, content: e.content, uses: map[string]string{}, functionUses: map[string]string{}}
	var walk func(parent *tree_sitter.Node) bool
	walk = func(parent *tree_sitter.Node) bool {
		for i := uint(0); i < parent.NamedChildCount(); i++ {
			node := parent.NamedChild(i)
			if node == nil {
				continue
			}
			if node.StartByte() > offset {
				return true
			}
			switch node.Kind() {
			case "namespace_definition":
				scan.namespace = strings.Trim(scan.text(node.ChildByFieldName("name")), "\\")
				scan.uses = map[string]string{}
				scan.functionUses = map[string]string{}
				if body := node.ChildByFieldName("body"); body != nil && body.EndByte() >= offset {
					return walk(body)
				}
			case "namespace_use_declaration":
				scan.collectUses(node)
			}
		}
		return false
	}
	walk(root)
	return scan.namespace, scan.uses, scan.functionUses
}

// typeNode returns the declared type of a property or parameter
func typeNode(node *tree_sitter.Node) *tree_sitter.Node {
	if typ := node.ChildByFieldName("type"); typ != nil {
		return typ
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "named_type", "primitive_type", "optional_type", "union_type", "intersection_type", "disjunctive_normal_form_type":
			return child
		}
	}
	return nil
}

// findDirectChildOfKind finds a direct named child of the given kind (non-recursive)
func findDirectChildOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}
