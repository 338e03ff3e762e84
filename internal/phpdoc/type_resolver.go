package phpdoc

import (
	"fmt"
	"strings"

	"github.com/shopware/php-analyser/internal/types"
)

// TypeStringResolver turns doc-comment type expressions into types
type TypeStringResolver struct{}

func NewTypeStringResolver() *TypeStringResolver {
	return &TypeStringResolver{}
}

// Resolve parses typeText in the given name scope. self, static, $this and parent are
// bound to the class of the scope.
func (r *TypeStringResolver) Resolve(typeText string, scope *NameScope) (types.PHPType, error) {
	if scope == nil {
		scope = NewNameScope("", nil, "", "")
	}

	tokens, err := tokenize(typeText)
	if err != nil {
		return nil, err
	}

	p := &typeParser{tokens: tokens, text: typeText, scope: scope}
	t, err := p.parseUnion()
	if err != nil {
		return nil, err
	}
	if next := p.peek(); next.kind != tokEOF {
		return nil, p.errorf("unexpected %s", next)
	}

	return types.ResolveSpecial(t, scope.ClassName, scope.ParentClassName), nil
}

type typeParser struct {
	tokens []token
	pos    int
	text   string
	scope  *NameScope
}

func (p *typeParser) peek() token {
	return p.tokens[p.pos]
}

func (p *typeParser) peekAt(offset int) token {
	if p.pos+offset >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+offset]
}

func (p *typeParser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *typeParser) accept(punct string) bool {
	if p.peek().is(punct) {
		p.pos++
		return true
	}
	return false
}

func (p *typeParser) expect(punct string) error {
	if !p.accept(punct) {
		return p.errorf("expected %q, got %s", punct, p.peek())
	}
	return nil
}

func (p *typeParser) errorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s at offset %d in %q", ErrMalformedType, fmt.Sprintf(format, args...), p.peek().offset, p.text)
}

func (p *typeParser) parseUnion() (types.PHPType, error) {
	first, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}
	if !p.peek().is("|") {
		return first, nil
	}

	members := []types.PHPType{first}
	for p.accept("|") {
		member, err := p.parseIntersection()
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return types.Union(members...), nil
}

func (p *typeParser) parseIntersection() (types.PHPType, error) {
	first, err := p.parsePrefix()
	if err != nil {
		return nil, err
	}
	// `&...$param` and `&$param` belong to callable parameters, not to the type
	if !p.peek().is("&") || p.peekAt(1).kind == tokVariable || p.peekAt(1).is("...") {
		return first, nil
	}

	members := []types.PHPType{first}
	for p.peek().is("&") && p.peekAt(1).kind != tokVariable && !p.peekAt(1).is("...") {
		p.next()
		member, err := p.parsePrefix()
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	return types.NewIntersectionType(members...), nil
}

func (p *typeParser) parsePrefix() (types.PHPType, error) {
	if p.accept("?") {
		t, err := p.parseAtomic()
		if err != nil {
			return nil, err
		}
		return types.Union(t, types.NewNullType()), nil
	}
	return p.parseAtomic()
}

func (p *typeParser) parseAtomic() (types.PHPType, error) {
	var t types.PHPType
	var err error

	tok := p.peek()
	switch {
	case tok.is("("), tok.kind == tokThis, tok.kind == tokNumber, tok.kind == tokString, tok.kind == tokIdentifier:
		p.next()
	default:
		return nil, p.errorf("unexpected %s", tok)
	}

	switch {
	case tok.is("("):
		if t, err = p.parseUnion(); err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}

	case tok.kind == tokThis:
		t = types.NewSpecialType("$this")

	case tok.kind == tokNumber:
		if strings.Contains(tok.value, ".") {
			t = types.NewFloatType()
		} else {
			t = types.NewIntType()
		}

	case tok.kind == tokString:
		t = types.NewStringType()

	case tok.kind == tokIdentifier:
		if t, err = p.parseNamed(tok.value); err != nil {
			return nil, err
		}
	}

	for p.peek().is("[") && p.peekAt(1).is("]") {
		p.pos += 2
		t = types.NewArrayType(nil, t)
	}
	return t, nil
}

func (p *typeParser) parseNamed(name string) (types.PHPType, error) {
	// Foo::BAR and Foo::BAR_* constant references
	if p.accept("::") {
		if tok := p.next(); tok.kind != tokIdentifier && !tok.is("*") {
			return nil, p.errorf("expected constant name, got %s", tok)
		}
		p.accept("*")
		return types.NewMixedType(), nil
	}

	lower := strings.ToLower(name)

	switch {
	case p.peek().is("<"):
		args, err := p.parseGenericArguments()
		if err != nil {
			return nil, err
		}
		return p.genericType(name, lower, args), nil

	case p.peek().is("{") && isArrayShapeName(lower):
		return p.parseArrayShape(lower)

	case p.peek().is("{") && lower == "object":
		if _, err := p.parseShapeValues(); err != nil {
			return nil, err
		}
		return types.NewObjectWithoutClassType(), nil

	case p.peek().is("(") && isCallableName(lower):
		if err := p.skipCallableSignature(); err != nil {
			return nil, err
		}
		if strings.TrimPrefix(lower, "\\") == "closure" {
			return types.NewObjectType("Closure"), nil
		}
		return types.NewCallableType(), nil
	}

	return p.keywordType(name, lower), nil
}

func (p *typeParser) parseGenericArguments() ([]types.PHPType, error) {
	if err := p.expect("<"); err != nil {
		return nil, err
	}

	var args []types.PHPType
	for {
		// variance annotations of generic arguments do not change the type
		if tok := p.peek(); tok.kind == tokIdentifier && (tok.value == "covariant" || tok.value == "contravariant") && p.peekAt(1).kind != tokPunct {
			p.next()
		}
		if p.accept("*") {
			args = append(args, types.NewMixedType())
		} else {
			arg, err := p.parseUnion()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}

		if p.accept(">") {
			return args, nil
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

func (p *typeParser) genericType(name, lower string, args []types.PHPType) types.PHPType {
	last := args[len(args)-1]

	switch lower {
	case "array", "non-empty-array", "associative-array":
		if len(args) == 1 {
			return types.NewArrayType(nil, last)
		}
		return types.NewArrayType(args[0], last)
	case "list", "non-empty-list":
		return types.NewArrayType(types.NewIntType(), last)
	case "iterable":
		return types.NewIterableType(last)
	case "class-string", "interface-string", "trait-string", "enum-string":
		return types.NewStringType()
	case "int", "int-mask", "int-mask-of":
		return types.NewIntType()
	case "key-of", "value-of", "template-type", "new":
		return types.NewMixedType()
	}

	base := p.keywordType(name, lower)
	if object, ok := base.(*types.ObjectType); ok {
		return types.NewGenericObjectType(object.ClassName(), args)
	}
	return base
}

func isArrayShapeName(lower string) bool {
	switch lower {
	case "array", "list", "non-empty-array", "non-empty-list":
		return true
	}
	return false
}

func isCallableName(lower string) bool {
	switch strings.TrimPrefix(lower, "\\") {
	case "callable", "closure", "pure-callable", "pure-closure":
		return true
	}
	return false
}

func (p *typeParser) parseArrayShape(lower string) (types.PHPType, error) {
	values, err := p.parseShapeValues()
	if err != nil {
		return nil, err
	}

	var key types.PHPType
	if lower == "list" || lower == "non-empty-list" {
		key = types.NewIntType()
	}
	if len(values) == 0 {
		return types.NewArrayType(key, nil), nil
	}
	return types.NewArrayType(key, types.Union(values...)), nil
}

// parseShapeValues reads `{key?: Type, Type, ...}` and returns the value types
func (p *typeParser) parseShapeValues() ([]types.PHPType, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	var values []types.PHPType
	for !p.accept("}") {
		if p.accept("...") {
			if p.peek().is("<") {
				if _, err := p.parseGenericArguments(); err != nil {
					return nil, err
				}
			}
			p.accept(",")
			continue
		}

		// a key is followed by an optional `?` and a colon
		if tok := p.peek(); tok.kind == tokIdentifier || tok.kind == tokNumber || tok.kind == tokString {
			if p.peekAt(1).is(":") {
				p.pos += 2
			} else if p.peekAt(1).is("?") && p.peekAt(2).is(":") {
				p.pos += 3
			}
		}

		value, err := p.parseUnion()
		if err != nil {
			return nil, err
		}
		values = append(values, value)

		if p.accept("}") {
			break
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
	return values, nil
}

// skipCallableSignature consumes `(Type $a, Type ...$b): ReturnType`
func (p *typeParser) skipCallableSignature() error {
	if err := p.expect("("); err != nil {
		return err
	}

	for !p.accept(")") {
		if !p.peek().is("&") && !p.peek().is("...") && p.peek().kind != tokVariable {
			if _, err := p.parseUnion(); err != nil {
				return err
			}
		}
		p.accept("&")
		p.accept("...")
		if p.peek().kind == tokVariable {
			p.next()
		}
		p.accept("=")

		if p.accept(")") {
			break
		}
		if err := p.expect(","); err != nil {
			return err
		}
	}

	if p.accept(":") {
		if _, err := p.parsePrefix(); err != nil {
			return err
		}
	}
	return nil
}

func (p *typeParser) keywordType(name, lower string) types.PHPType {
	if strings.HasPrefix(name, "\\") {
		return types.NewObjectType(p.scope.ResolveClassName(name))
	}

	if t, ok := p.scope.templateType(name); ok {
		return t
	}

	switch lower {
	case "int", "integer", "positive-int", "negative-int", "non-positive-int", "non-negative-int", "non-zero-int", "literal-int":
		return types.NewIntType()
	case "float", "double":
		return types.NewFloatType()
	case "string", "non-empty-string", "numeric-string", "class-string", "interface-string", "trait-string",
		"enum-string", "callable-string", "literal-string", "lowercase-string", "non-falsy-string",
		"truthy-string", "non-empty-literal-string", "non-empty-lowercase-string":
		return types.NewStringType()
	case "bool", "boolean":
		return types.NewBoolType()
	case "true":
		return types.NewConstantBoolType(true)
	case "false":
		return types.NewConstantBoolType(false)
	case "null":
		return types.NewNullType()
	case "array", "non-empty-array", "associative-array", "callable-array":
		return types.NewArrayType(nil, nil)
	case "list", "non-empty-list":
		return types.NewArrayType(types.NewIntType(), nil)
	case "iterable":
		return types.NewIterableType(nil)
	case "object":
		return types.NewObjectWithoutClassType()
	case "callable", "pure-callable":
		return types.NewCallableType()
	case "resource", "closed-resource", "open-resource":
		return types.NewResourceType()
	case "void":
		return types.NewVoidType()
	case "mixed":
		return types.NewMixedType()
	case "never", "never-return", "never-returns", "no-return", "noreturn":
		return types.NewNeverType()
	case "scalar":
		return types.Union(types.NewIntType(), types.NewFloatType(), types.NewStringType(), types.NewBoolType())
	case "number":
		return types.Union(types.NewIntType(), types.NewFloatType())
	case "numeric":
		return types.Union(types.NewIntType(), types.NewFloatType(), types.NewStringType())
	case "array-key":
		return types.Union(types.NewIntType(), types.NewStringType())
	case "empty":
		return types.NewMixedType()
	case "self", "static", "parent":
		return types.NewSpecialType(lower)
	}

	return types.NewObjectType(p.scope.ResolveClassName(name))
}
