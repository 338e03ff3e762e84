package php

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopware/php-analyser/internal/ast"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// ExpressionConverter turns tree-sitter expression nodes into ast expressions
type ExpressionConverter struct {
	path     string
	content  []byte
	resolver *AliasResolver
}

func NewExpressionConverter(path string, content []byte, resolver *AliasResolver) *ExpressionConverter {
	if resolver == nil {
		resolver = NewAliasResolver("", nil)
	}
	return &ExpressionConverter{path: path, content: content, resolver: resolver}
}

// ConvertExpression converts node without a file context. Anonymous classes get an empty file.
func ConvertExpression(node *tree_sitter.Node, content []byte, resolver *AliasResolver) ast.Expr {
	return NewExpressionConverter("", content, resolver).Convert(node)
}

// ParseExpression parses a single PHP expression written in the given namespace.
func ParseExpression(code string, namespace string, uses map[string]string) (ast.Expr, error) {
	return parseExpression(code, NewAliasResolver(namespace, uses))
}

// ParseExpressionIn parses code as if it was written in context
func ParseExpressionIn(code string, context NameContext) (ast.Expr, error) {
	return parseExpression(code, context.Resolver())
}

func parseExpression(code string, resolver *AliasResolver) (ast.Expr, error) {
	parser, err := NewParser()
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	content := []byte("<?php " + strings.TrimSuffix(strings.TrimSpace(code), ";") + ";")
	tree := parser.Parse(content)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse expression %q", code)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("syntax error in expression %q", code)
	}

	for i := uint(0); i < root.NamedChildCount(); i++ {
		statement := root.NamedChild(i)
		if statement != nil && statement.Kind() == "expression_statement" && statement.NamedChildCount() > 0 {
			converter := NewExpressionConverter("", content, resolver)
			return converter.Convert(statement.NamedChild(0)), nil
		}
	}

	return nil, fmt.Errorf("no expression found in %q", code)
}

func (c *ExpressionConverter) text(node *tree_sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(node.Utf8Text(c.content))
}

func (c *ExpressionConverter) position(node *tree_sitter.Node) ast.Position {
	return ast.Position{StartLine: int(node.Range().StartPoint.Row) + 1}
}

// Convert converts one expression node. Unsupported syntax becomes *ast.Unknown.
func (c *ExpressionConverter) Convert(node *tree_sitter.Node) ast.Expr {
	if node == nil {
		return nil
	}
	pos := c.position(node)

	switch node.Kind() {
	case "parenthesized_expression", "expression_statement":
		if node.NamedChildCount() > 0 {
			return c.Convert(node.NamedChild(0))
		}

	case "variable_name":
		return &ast.Variable{Position: pos, Name: strings.TrimPrefix(c.text(node), "$")}

	case "dynamic_variable_name":
		if node.NamedChildCount() > 0 {
			return &ast.Variable{Position: pos, NameExpr: c.Convert(node.NamedChild(0))}
		}

	case "assignment_expression", "reference_assignment_expression":
		return &ast.Assign{
			Position: pos,
			Var:      c.Convert(node.ChildByFieldName("left")),
			Expr:     c.Convert(node.ChildByFieldName("right")),
			ByRef:    node.Kind() == "reference_assignment_expression",
		}

	case "augmented_assignment_expression":
		return &ast.Assign{
			Position: pos,
			Var:      c.Convert(node.ChildByFieldName("left")),
			Expr:     c.Convert(node.ChildByFieldName("right")),
			Op:       c.text(node.ChildByFieldName("operator")),
		}

	case "binary_expression":
		return c.convertBinary(node, pos)

	case "unary_op_expression":
		operator := node.ChildByFieldName("operator")
		argument := node.ChildByFieldName("argument")
		if argument == nil && node.NamedChildCount() > 0 {
			argument = node.NamedChild(node.NamedChildCount() - 1)
		}
		op := c.text(operator)
		if operator == nil && strings.HasPrefix(c.text(node), "!") {
			op = "!"
		}
		switch op {
		case "!":
			return &ast.BooleanNot{Position: pos, Expr: c.Convert(argument)}
		case "-", "+", "~":
			return &ast.UnaryOp{Position: pos, Op: op, Expr: c.Convert(argument)}
		default:
			// error suppression with @ does not change the value
			return c.Convert(argument)
		}

	case "conditional_expression":
		ternary := &ast.Ternary{
			Position: pos,
			Cond:     c.Convert(node.ChildByFieldName("condition")),
			Else:     c.Convert(node.ChildByFieldName("alternative")),
		}
		if body := node.ChildByFieldName("body"); body != nil {
			ternary.If = c.Convert(body)
		}
		return ternary

	case "cast_expression":
		return &ast.Cast{
			Position: pos,
			Type:     normalizeCastType(c.text(node.ChildByFieldName("type"))),
			Expr:     c.Convert(node.ChildByFieldName("value")),
		}

	case "clone_expression":
		if node.NamedChildCount() > 0 {
			return &ast.Clone{Position: pos, Expr: c.Convert(node.NamedChild(0))}
		}

	case "member_access_expression", "nullsafe_member_access_expression":
		name, nameExpr := c.memberName(node.ChildByFieldName("name"))
		object := c.Convert(node.ChildByFieldName("object"))
		if node.Kind() == "nullsafe_member_access_expression" {
			return &ast.NullsafePropertyFetch{Position: pos, Var: object, Name: name, NameExpr: nameExpr}
		}
		return &ast.PropertyFetch{Position: pos, Var: object, Name: name, NameExpr: nameExpr}

	case "scoped_property_access_expression":
		return &ast.StaticPropertyFetch{
			Position: pos,
			Class:    c.classReference(node.ChildByFieldName("scope")),
			Name:     strings.TrimPrefix(c.text(node.ChildByFieldName("name")), "$"),
		}

	case "member_call_expression", "nullsafe_member_call_expression":
		name, nameExpr := c.memberName(node.ChildByFieldName("name"))
		object := c.Convert(node.ChildByFieldName("object"))
		args := c.arguments(node.ChildByFieldName("arguments"))
		if node.Kind() == "nullsafe_member_call_expression" {
			return &ast.NullsafeMethodCall{Position: pos, Var: object, Name: name, NameExpr: nameExpr, Args: args}
		}
		return &ast.MethodCall{Position: pos, Var: object, Name: name, NameExpr: nameExpr, Args: args}

	case "scoped_call_expression":
		name, nameExpr := c.memberName(node.ChildByFieldName("name"))
		return &ast.StaticCall{
			Position: pos,
			Class:    c.classReference(node.ChildByFieldName("scope")),
			Name:     name,
			NameExpr: nameExpr,
			Args:     c.arguments(node.ChildByFieldName("arguments")),
		}

	case "function_call_expression":
		return c.convertFunctionCall(node, pos)

	case "class_constant_access_expression":
		if node.NamedChildCount() >= 2 {
			return &ast.ClassConstFetch{
				Position: pos,
				Class:    c.classReference(node.NamedChild(0)),
				Name:     c.text(node.NamedChild(node.NamedChildCount() - 1)),
			}
		}

	case "object_creation_expression":
		return c.convertNew(node, pos)

	case "integer":
		value, err := strconv.ParseInt(strings.ReplaceAll(c.text(node), "_", ""), 0, 64)
		if err != nil {
			// overflowing integer literals are floats in PHP
			f, _ := strconv.ParseFloat(strings.ReplaceAll(c.text(node), "_", ""), 64)
			return &ast.Float{Position: pos, Value: f}
		}
		return &ast.Int{Position: pos, Value: value}

	case "float":
		value, _ := strconv.ParseFloat(strings.ReplaceAll(c.text(node), "_", ""), 64)
		return &ast.Float{Position: pos, Value: value}

	case "string":
		return &ast.String{Position: pos, Value: unquoteSingle(c.text(node))}

	case "encapsed_string":
		return c.convertEncapsed(node, pos)

	case "heredoc", "nowdoc", "shell_command_expression":
		return &ast.String{Position: pos, Value: c.text(node), Interpolated: true}

	case "boolean", "null":
		return &ast.ConstFetch{Position: pos, Name: &ast.Name{Position: pos, Value: strings.ToLower(c.text(node))}}

	case "name", "qualified_name":
		return &ast.ConstFetch{Position: pos, Name: c.functionName(node, false)}

	case "array_creation_expression":
		return c.convertArray(node, pos)

	case "subscript_expression":
		if node.NamedChildCount() == 0 {
			break
		}
		fetch := &ast.ArrayDimFetch{Position: pos, Var: c.Convert(node.NamedChild(0))}
		if node.NamedChildCount() > 1 {
			fetch.Dim = c.Convert(node.NamedChild(1))
		}
		return fetch

	case "anonymous_function", "anonymous_function_creation_expression", "arrow_function":
		return c.convertClosure(node, pos)
	}

	return &ast.Unknown{Position: pos, Kind: node.Kind(), Text: c.text(node)}
}

func (c *ExpressionConverter) convertBinary(node *tree_sitter.Node, pos ast.Position) ast.Expr {
	left := node.ChildByFieldName("left")
	right := node.ChildByFieldName("right")
	op := strings.ToLower(c.text(node.ChildByFieldName("operator")))

	switch op {
	case "instanceof":
		return &ast.Instanceof{Position: pos, Expr: c.Convert(left), Class: c.classReference(right)}
	case "and":
		op = "&&"
	case "or":
		op = "||"
	case "<>":
		op = "!="
	}

	return &ast.BinaryOp{Position: pos, Op: op, Left: c.Convert(left), Right: c.Convert(right)}
}

func (c *ExpressionConverter) convertFunctionCall(node *tree_sitter.Node, pos ast.Position) ast.Expr {
	function := node.ChildByFieldName("function")
	args := c.arguments(node.ChildByFieldName("arguments"))

	if function != nil && function.Kind() == "name" {
		switch strings.ToLower(c.text(function)) {
		case "isset":
			vars := make([]ast.Expr, 0, len(args))
			for _, arg := range args {
				vars = append(vars, arg.Value)
			}
			return &ast.Isset{Position: pos, Vars: vars}
		case "empty":
			if len(args) == 1 {
				return &ast.Empty{Position: pos, Expr: args[0].Value}
			}
		}
	}

	var name ast.Expr
	if function != nil && (function.Kind() == "name" || function.Kind() == "qualified_name") {
		name = c.functionName(function, true)
	} else {
		name = c.Convert(function)
	}

	return &ast.FuncCall{Position: pos, Name: name, Args: args}
}

func (c *ExpressionConverter) convertNew(node *tree_sitter.Node, pos ast.Position) ast.Expr {
	expr := &ast.New{Position: pos}

	var argsNode *tree_sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "arguments":
			argsNode = child
		case "anonymous_class", "anonymous_class_creation_expression":
			expr.Anonymous = &ast.AnonymousClass{File: c.path, StartLine: int(child.Range().StartPoint.Row) + 1}
			argsNode = findDirectChildOfKind(child, "arguments")
		case "declaration_list":
			expr.Anonymous = &ast.AnonymousClass{File: c.path, StartLine: pos.StartLine}
		case "attribute_list", "base_clause", "class_interface_clause":
		default:
			if expr.Class == nil && expr.Anonymous == nil {
				expr.Class = c.classReference(child)
			}
		}
	}

	expr.Args = c.arguments(argsNode)
	if expr.Anonymous != nil {
		expr.Class = nil
	}
	return expr
}

func (c *ExpressionConverter) convertEncapsed(node *tree_sitter.Node, pos ast.Position) ast.Expr {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		switch node.NamedChild(i).Kind() {
		case "string_content", "string_value", "escape_sequence":
		default:
			return &ast.String{Position: pos, Value: c.text(node), Interpolated: true}
		}
	}
	return &ast.String{Position: pos, Value: unquoteDouble(c.text(node))}
}

func (c *ExpressionConverter) convertArray(node *tree_sitter.Node, pos ast.Position) ast.Expr {
	array := &ast.Array{Position: pos}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		element := node.NamedChild(i)
		if element == nil || element.Kind() != "array_element_initializer" {
			continue
		}

		var item ast.ArrayItem
		var values []*tree_sitter.Node
		for j := uint(0); j < element.NamedChildCount(); j++ {
			child := element.NamedChild(j)
			switch child.Kind() {
			case "variadic_unpacking":
				item.Unpack = true
				if child.NamedChildCount() > 0 {
					values = append(values, child.NamedChild(0))
				}
			case "by_ref":
				item.ByRef = true
				if child.NamedChildCount() > 0 {
					values = append(values, child.NamedChild(0))
				}
			default:
				values = append(values, child)
			}
		}

		switch len(values) {
		case 1:
			item.Value = c.Convert(values[0])
		case 2:
			item.Key = c.Convert(values[0])
			item.Value = c.Convert(values[1])
		default:
			continue
		}
		array.Items = append(array.Items, item)
	}
	return array
}

func (c *ExpressionConverter) convertClosure(node *tree_sitter.Node, pos ast.Position) ast.Expr {
	closure := &ast.Closure{
		Position:   pos,
		Arrow:      node.Kind() == "arrow_function",
		ReturnType: TypeHint(node.ChildByFieldName("return_type"), c.content, c.resolver),
		Static:     findDirectChildOfKind(node, "static_modifier") != nil,
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		extractor := &declarationExtractor{file: &File{}, content: c.content}
		for _, param := range extractor.extractParams(params, c.resolver) {
			closureParam := ast.ClosureParam{
				Name:       param.Name,
				Type:       param.Type,
				ByRef:      param.ByRef,
				Variadic:   param.Variadic,
				HasDefault: param.HasDefault,
			}
			if param.HasDefault {
				if def, err := parseExpression(param.DefaultValue, c.resolver); err == nil {
					closureParam.Default = def
				}
			}
			closure.Params = append(closure.Params, closureParam)
		}
	}

	if uses := findDirectChildOfKind(node, "anonymous_function_use_clause"); uses != nil {
		for i := uint(0); i < uses.NamedChildCount(); i++ {
			use := uses.NamedChild(i)
			switch use.Kind() {
			case "variable_name":
				closure.Uses = append(closure.Uses, ast.ClosureUse{Name: strings.TrimPrefix(c.text(use), "$")})
			case "by_ref":
				closure.Uses = append(closure.Uses, ast.ClosureUse{
					Name:  strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(c.text(use), "&")), "$"),
					ByRef: true,
				})
			}
		}
	}

	if closure.Arrow {
		closure.Expr = c.Convert(node.ChildByFieldName("body"))
	}

	return closure
}

func (c *ExpressionConverter) arguments(node *tree_sitter.Node) []ast.Arg {
	if node == nil {
		return nil
	}

	var args []ast.Arg
	for i := uint(0); i < node.NamedChildCount(); i++ {
		argument := node.NamedChild(i)
		if argument == nil || argument.Kind() != "argument" || argument.NamedChildCount() == 0 {
			continue
		}

		arg := ast.Arg{}
		if name := argument.ChildByFieldName("name"); name != nil {
			arg.Name = c.text(name)
		}
		if argument.ChildByFieldName("reference_modifier") != nil || findDirectChildOfKind(argument, "reference_modifier") != nil {
			arg.ByRef = true
		}

		value := argument.NamedChild(argument.NamedChildCount() - 1)
		if value.Kind() == "variadic_unpacking" {
			arg.Unpack = true
			if value.NamedChildCount() == 0 {
				continue
			}
			value = value.NamedChild(0)
		}
		arg.Value = c.Convert(value)
		args = append(args, arg)
	}
	return args
}

// memberName returns the identifier of a member access, or the expression for dynamic names
func (c *ExpressionConverter) memberName(node *tree_sitter.Node) (string, ast.Expr) {
	if node == nil {
		return "", nil
	}
	if node.Kind() == "name" {
		return c.text(node), nil
	}
	return "", c.Convert(node)
}

// classReference converts the class part of new, instanceof, static calls and constants
func (c *ExpressionConverter) classReference(node *tree_sitter.Node) ast.Expr {
	if node == nil {
		return nil
	}
	pos := c.position(node)

	switch node.Kind() {
	case "relative_scope":
		special := strings.ToLower(c.text(node))
		return &ast.Name{Position: pos, Value: special, Resolved: special}
	case "name", "qualified_name", "named_type":
		text := c.text(node)
		if isSpecialType(text) {
			special := strings.ToLower(text)
			return &ast.Name{Position: pos, Value: special, Resolved: special}
		}
		return &ast.Name{
			Position:       pos,
			Value:          strings.TrimPrefix(text, "\\"),
			Resolved:       c.resolver.ResolveType(text),
			FullyQualified: strings.HasPrefix(text, "\\"),
			Namespace:      c.resolver.Namespace(),
		}
	}

	return c.Convert(node)
}

// functionName keeps function and constant names unresolved, PHP falls back to the
// global namespace for them at runtime. Qualified names and imported functions are
// resolved here.
func (c *ExpressionConverter) functionName(node *tree_sitter.Node, function bool) *ast.Name {
	text := c.text(node)
	name := &ast.Name{
		Position:       c.position(node),
		Value:          strings.TrimPrefix(text, "\\"),
		FullyQualified: strings.HasPrefix(text, "\\"),
		Namespace:      c.resolver.Namespace(),
	}
	if name.FullyQualified {
		return name
	}

	if strings.Contains(text, "\\") {
		name.Value, _ = c.resolver.ResolveFunctionName(text)
		name.FullyQualified = true
	} else if imported, ok := c.resolver.ImportedFunction(text); ok && function {
		name.Value = imported
		name.FullyQualified = true
	}
	return name
}

func normalizeCastType(text string) string {
	text = strings.ToLower(strings.Trim(text, "() \t"))
	switch text {
	case "integer":
		return "int"
	case "boolean":
		return "bool"
	case "double", "real":
		return "float"
	case "binary":
		return "string"
	}
	return text
}

func unquoteSingle(text string) string {
	text = strings.TrimPrefix(text, "b")
	if len(text) >= 2 && text[0] == '\'' && text[len(text)-1] == '\'' {
		text = text[1 : len(text)-1]
	}
	return strings.NewReplacer("\\\\", "\\", "\\'", "'").Replace(text)
}

func unquoteDouble(text string) string {
	text = strings.TrimPrefix(text, "b")
	if len(text) >= 2 && text[0] == '"' && text[len(text)-1] == '"' {
		text = text[1 : len(text)-1]
	}
	return strings.NewReplacer(
		"\\\\", "\\",
		"\\\"", "\"",
		"\\$", "$",
		"\\n", "\n",
		"\\t", "\t",
		"\\r", "\r",
	).Replace(text)
}
