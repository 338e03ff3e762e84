// Package analyser tracks what is known about variables and expressions at every
// point of a PHP program and narrows it through conditions.
package analyser

import (
	"maps"
	"sort"
	"strings"

	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("php-analyser.analyser")

// ScopeContext is the file and class a scope belongs to. TraitReflection is set while
// the body of a trait method is analysed in the context of a using class.
type ScopeContext struct {
	File            string
	ClassReflection *reflection.ClassReflection
	TraitReflection *reflection.ClassReflection
}

func NewScopeContext(file string) ScopeContext {
	return ScopeContext{File: file}
}

func (c ScopeContext) EnterClass(class *reflection.ClassReflection) ScopeContext {
	return ScopeContext{File: c.File, ClassReflection: class}
}

func (c ScopeContext) EnterTrait(trait *reflection.ClassReflection) ScopeContext {
	return ScopeContext{File: c.File, ClassReflection: c.ClassReflection, TraitReflection: trait}
}

// className is empty outside of classes
func (c ScopeContext) className() string {
	if c.ClassReflection == nil {
		return ""
	}
	return c.ClassReflection.Name()
}

type variableTypeHolder struct {
	typ       types.PHPType
	certainty types.TrinaryLogic
}

// Scope is everything known at one program point. A Scope is never changed, every
// operation returns a new one. A map the operation touches is copied whole, the
// others are shared with the origin and never written to again.
type Scope struct {
	factory *ScopeFactory
	context ScopeContext

	declareStrictTypes bool
	function           reflection.FunctionReflection
	namespace          string

	variables         map[string]variableTypeHolder
	moreSpecificTypes map[string]types.PHPType

	inClosureBind         bool
	anonymousFunction     *ast.Closure
	inFirstLevelStatement bool

	// currentlyAssigned holds the keys of expressions that are being written to
	currentlyAssigned map[string]struct{}
}

func (s *Scope) clone() *Scope {
	c := *s
	return &c
}

func (s *Scope) Context() ScopeContext                        { return s.context }
func (s *Scope) File() string                                 { return s.context.File }
func (s *Scope) Namespace() string                            { return s.namespace }
func (s *Scope) IsDeclareStrictTypes() bool                   { return s.declareStrictTypes }
func (s *Scope) Function() reflection.FunctionReflection      { return s.function }
func (s *Scope) ClassReflection() *reflection.ClassReflection { return s.context.ClassReflection }
func (s *Scope) AnonymousFunction() *ast.Closure              { return s.anonymousFunction }
func (s *Scope) IsInClosureBind() bool                        { return s.inClosureBind }
func (s *Scope) IsInAnonymousFunction() bool                  { return s.anonymousFunction != nil }

// hierarchy is nil when the scope was built without a broker
func (s *Scope) hierarchy() types.ClassHierarchy {
	if s.factory == nil || s.factory.broker == nil {
		return nil
	}
	return s.factory.broker
}

// VariableNames lists the tracked variables, sorted
func (s *Scope) VariableNames() []string {
	names := make([]string, 0, len(s.variables))
	for name := range s.variables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// VariableCertainty is No for untracked variables and Maybe for variables that are
// defined on some paths only
func (s *Scope) VariableCertainty(name string) types.TrinaryLogic {
	if holder, ok := s.variables[name]; ok {
		return holder.certainty
	}
	if name == "this" && s.hasThis() {
		return types.Yes
	}
	return types.No
}

func (s *Scope) HasVariableType(name string) bool {
	return !s.VariableCertainty(name).IsNo()
}

// GetVariableType returns mixed for variables the scope knows nothing about
func (s *Scope) GetVariableType(name string) types.PHPType {
	if holder, ok := s.variables[name]; ok {
		return holder.typ
	}
	if name == "this" && s.hasThis() {
		return types.NewThisType(s.context.className())
	}
	return types.NewMixedType()
}

// hasThis is true inside non-static methods and closures of a class
func (s *Scope) hasThis() bool {
	if s.context.ClassReflection == nil {
		return false
	}
	if s.anonymousFunction != nil && s.anonymousFunction.Static {
		return false
	}
	if method, ok := s.function.(reflection.MethodReflection); ok && method.IsStatic() {
		return false
	}
	return true
}

func (s *Scope) withVariable(name string, holder variableTypeHolder) *Scope {
	c := s.clone()
	c.variables = maps.Clone(s.variables)
	if c.variables == nil {
		c.variables = make(map[string]variableTypeHolder, 1)
	}
	c.variables[name] = holder
	c.moreSpecificTypes = withoutDependents(s.moreSpecificTypes, "$"+name)
	return c
}

// AssignVariable makes name certainly defined with type t. Remembered types of
// expressions reading the variable are forgotten.
func (s *Scope) AssignVariable(name string, t types.PHPType) *Scope {
	return s.withVariable(name, variableTypeHolder{typ: t, certainty: types.Yes})
}

// IntersectVariableType narrows a variable to the values it shares with t
func (s *Scope) IntersectVariableType(name string, t types.PHPType) *Scope {
	holder, ok := s.variables[name]
	if !ok {
		return s.AssignVariable(name, t)
	}
	holder.typ = types.Intersect(s.hierarchy(), holder.typ, t)
	return s.withVariable(name, holder)
}

// SpecifyExpressionType records that expr has type t from here on. Variables keep
// their certainty, a narrowed variable that was undefined becomes defined.
func (s *Scope) SpecifyExpressionType(expr ast.Expr, t types.PHPType) *Scope {
	if variable, ok := expr.(*ast.Variable); ok && variable.NameExpr == nil {
		holder, tracked := s.variables[variable.Name]
		if !tracked {
			holder.certainty = types.Yes
		}
		holder.typ = t
		return s.withVariable(variable.Name, holder)
	}

	key := ast.Print(expr)
	c := s.clone()
	c.moreSpecificTypes = maps.Clone(s.moreSpecificTypes)
	if c.moreSpecificTypes == nil {
		c.moreSpecificTypes = make(map[string]types.PHPType, 1)
	}
	c.moreSpecificTypes[key] = t
	return c
}

// UnsetExpression forgets a variable or what was remembered about an expression
func (s *Scope) UnsetExpression(expr ast.Expr) *Scope {
	if variable, ok := expr.(*ast.Variable); ok && variable.NameExpr == nil {
		if _, tracked := s.variables[variable.Name]; !tracked {
			return s
		}
		c := s.clone()
		c.variables = make(map[string]variableTypeHolder, len(s.variables))
		for k, v := range s.variables {
			if k != variable.Name {
				c.variables[k] = v
			}
		}
		c.moreSpecificTypes = withoutDependents(s.moreSpecificTypes, "$"+variable.Name)
		return c
	}

	key := ast.Print(expr)
	if _, ok := s.moreSpecificTypes[key]; !ok {
		return s
	}
	c := s.clone()
	c.moreSpecificTypes = withoutDependents(s.moreSpecificTypes, key)
	return c
}

// withoutDependents drops prefix and every expression that reads through it, so
// assigning $a forgets $a->b and $a['c'] but keeps $ab
func withoutDependents(known map[string]types.PHPType, prefix string) map[string]types.PHPType {
	dependent := func(key string) bool {
		return key == prefix || (strings.HasPrefix(key, prefix) && !isIdentifierByte(key[len(prefix)]))
	}
	affected := false
	for key := range known {
		if dependent(key) {
			affected = true
			break
		}
	}
	if !affected {
		return known
	}

	result := make(map[string]types.PHPType, len(known))
	for key, t := range known {
		if !dependent(key) {
			result[key] = t
		}
	}
	return result
}

func isIdentifierByte(c byte) bool {
	return c == '_' || c >= 0x80 || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// MergeWith joins two branches. Variables known on one side only become maybe
// defined, remembered expression types survive only when both sides have them.
func (s *Scope) MergeWith(other *Scope) *Scope {
	if other == nil || other == s {
		return s
	}

	c := s.clone()
	c.variables = make(map[string]variableTypeHolder, len(s.variables))
	for name, holder := range s.variables {
		otherHolder, ok := other.variables[name]
		if !ok {
			c.variables[name] = variableTypeHolder{typ: holder.typ, certainty: types.Maybe}
			continue
		}
		c.variables[name] = variableTypeHolder{
			typ:       types.Union(holder.typ, otherHolder.typ),
			certainty: mergeCertainty(holder.certainty, otherHolder.certainty),
		}
	}
	for name, holder := range other.variables {
		if _, ok := s.variables[name]; !ok {
			c.variables[name] = variableTypeHolder{typ: holder.typ, certainty: types.Maybe}
		}
	}

	c.moreSpecificTypes = make(map[string]types.PHPType)
	for key, t := range s.moreSpecificTypes {
		if otherType, ok := other.moreSpecificTypes[key]; ok {
			c.moreSpecificTypes[key] = types.Union(t, otherType)
		}
	}
	return c
}

func mergeCertainty(a, b types.TrinaryLogic) types.TrinaryLogic {
	if a.IsYes() && b.IsYes() {
		return types.Yes
	}
	return types.Maybe
}

// EnterClass starts the body of a class declaration
func (s *Scope) EnterClass(class *reflection.ClassReflection) *Scope {
	return s.factory.Create(
		s.context.EnterClass(class),
		WithDeclareStrictTypes(s.declareStrictTypes),
		WithNamespace(s.namespace),
	)
}

// EnterTrait analyses a trait body on behalf of the class using it
func (s *Scope) EnterTrait(trait *reflection.ClassReflection) *Scope {
	return s.factory.Create(
		s.context.EnterTrait(trait),
		WithDeclareStrictTypes(s.declareStrictTypes),
		WithNamespace(s.namespace),
	)
}

// EnterNamespace starts a namespace block. Nothing outside of it is visible.
func (s *Scope) EnterNamespace(namespace string) *Scope {
	return s.factory.Create(
		NewScopeContext(s.context.File),
		WithDeclareStrictTypes(s.declareStrictTypes),
		WithNamespace(namespace),
	)
}

// EnterFunction starts the body of function. Only the parameters are defined.
func (s *Scope) EnterFunction(function reflection.FunctionReflection) *Scope {
	return s.enterFunctionLike(function)
}

// EnterClassMethod starts the body of a method of the current class
func (s *Scope) EnterClassMethod(method reflection.MethodReflection) *Scope {
	return s.enterFunctionLike(method)
}

func (s *Scope) enterFunctionLike(function reflection.FunctionReflection) *Scope {
	variables := make(map[string]types.PHPType)
	for _, param := range function.Parameters() {
		t := param.Type()
		if param.IsVariadic() {
			t = types.NewArrayType(types.NewIntType(), t)
		}
		variables[param.Name()] = t
	}

	return s.factory.Create(
		s.context,
		WithDeclareStrictTypes(s.declareStrictTypes),
		WithFunction(function),
		WithNamespace(s.namespace),
		WithVariableTypes(variables),
	)
}

// EnterAnonymousFunction starts the body of a closure or arrow function. Arrow
// functions see every variable of the enclosing scope, closures only the used ones.
func (s *Scope) EnterAnonymousFunction(closure *ast.Closure) *Scope {
	variables := make(map[string]types.PHPType)
	if closure.Arrow {
		for name, holder := range s.variables {
			if holder.certainty.IsYes() {
				variables[name] = holder.typ
			}
		}
	}
	for _, use := range closure.Uses {
		if !s.HasVariableType(use.Name) && !use.ByRef {
			continue
		}
		variables[use.Name] = s.GetVariableType(use.Name)
	}

	className := s.context.className()
	parentName := ""
	if s.context.ClassReflection != nil {
		parentName = s.context.ClassReflection.ParentClassName()
	}
	for _, param := range closure.Params {
		t := types.ResolveSpecial(types.NewPHPType(param.Type), className, parentName)
		if param.HasDefault && isNullLiteral(param.Default) {
			t = types.Union(t, types.NewNullType())
		}
		if param.Variadic {
			t = types.NewArrayType(types.NewIntType(), t)
		}
		variables[param.Name] = t
	}
	delete(variables, "this")

	return s.factory.Create(
		s.context,
		WithDeclareStrictTypes(s.declareStrictTypes),
		WithFunction(s.function),
		WithNamespace(s.namespace),
		WithVariableTypes(variables),
		WithInClosureBind(s.inClosureBind),
		WithAnonymousFunction(closure),
	)
}

func isNullLiteral(expr ast.Expr) bool {
	constant, ok := expr.(*ast.ConstFetch)
	return ok && constant.Name != nil && strings.EqualFold(constant.Name.Value, "null")
}

// EnterClosureBind rebinds $this and the class scope, as Closure::bind does.
// scopeClass "static" keeps the current class.
func (s *Scope) EnterClosureBind(thisType types.PHPType, scopeClass string) *Scope {
	context := s.context
	if !strings.EqualFold(scopeClass, "static") {
		context = NewScopeContext(s.context.File)
		if scopeClass != "" && s.factory != nil && s.factory.broker != nil {
			if class, err := s.factory.broker.GetClass(scopeClass); err == nil {
				context = context.EnterClass(class)
			} else {
				log.Debugf("closure bound to unknown class %s", scopeClass)
			}
		}
	}

	c := s.clone()
	c.context = context
	c.inClosureBind = true
	if thisType != nil {
		c = c.AssignVariable("this", thisType)
	}
	return c
}

// EnterExpressionAssign marks expr as being written. Reading it returns mixed until
// ExitExpressionAssign.
func (s *Scope) EnterExpressionAssign(expr ast.Expr) *Scope {
	key := ast.Print(expr)
	c := s.clone()
	c.currentlyAssigned = make(map[string]struct{}, len(s.currentlyAssigned)+1)
	for k := range s.currentlyAssigned {
		c.currentlyAssigned[k] = struct{}{}
	}
	c.currentlyAssigned[key] = struct{}{}
	return c
}

func (s *Scope) ExitExpressionAssign(expr ast.Expr) *Scope {
	key := ast.Print(expr)
	if _, ok := s.currentlyAssigned[key]; !ok {
		return s
	}
	c := s.clone()
	c.currentlyAssigned = make(map[string]struct{}, len(s.currentlyAssigned))
	for k := range s.currentlyAssigned {
		if k != key {
			c.currentlyAssigned[k] = struct{}{}
		}
	}
	return c
}

func (s *Scope) IsInExpressionAssign(expr ast.Expr) bool {
	_, ok := s.currentlyAssigned[ast.Print(expr)]
	return ok
}

func (s *Scope) EnterFirstLevelStatement() *Scope {
	c := s.clone()
	c.inFirstLevelStatement = true
	return c
}

func (s *Scope) ExitFirstLevelStatement() *Scope {
	c := s.clone()
	c.inFirstLevelStatement = false
	return c
}

func (s *Scope) IsInFirstLevelStatement() bool {
	return s.inFirstLevelStatement
}

// FilterByTruthyValue is the scope inside `if (expr)`
func (s *Scope) FilterByTruthyValue(expr ast.Expr) *Scope {
	return s.factory.typeSpecifier.SpecifyTypesInCondition(s, expr, false)
}

// FilterByFalseyValue is the scope inside the else branch of `if (expr)`
func (s *Scope) FilterByFalseyValue(expr ast.Expr) *Scope {
	return s.factory.typeSpecifier.SpecifyTypesInCondition(s, expr, true)
}

// ResolveName turns a class reference into a fully qualified name. self and static
// are the current class, parent its parent.
func (s *Scope) ResolveName(name *ast.Name) string {
	switch strings.ToLower(name.Resolved) {
	case "self", "static":
		if s.context.ClassReflection != nil {
			return s.context.ClassReflection.Name()
		}
	case "parent":
		if s.context.ClassReflection != nil && s.context.ClassReflection.ParentClassName() != "" {
			return strings.TrimPrefix(s.context.ClassReflection.ParentClassName(), "\\")
		}
	}
	if name.Resolved != "" {
		return name.Resolved
	}
	return name.Value
}

// Equals compares the facts of two scopes
func (s *Scope) Equals(other *Scope) bool {
	if other == nil {
		return false
	}
	if s.namespace != other.namespace || s.context.File != other.context.File ||
		!strings.EqualFold(s.context.className(), other.context.className()) ||
		s.function != other.function || s.declareStrictTypes != other.declareStrictTypes {
		return false
	}

	if len(s.variables) != len(other.variables) || len(s.moreSpecificTypes) != len(other.moreSpecificTypes) {
		return false
	}
	for name, holder := range s.variables {
		otherHolder, ok := other.variables[name]
		if !ok || holder.certainty != otherHolder.certainty || !holder.typ.Equals(otherHolder.typ) {
			return false
		}
	}
	for key, t := range s.moreSpecificTypes {
		otherType, ok := other.moreSpecificTypes[key]
		if !ok || !t.Equals(otherType) {
			return false
		}
	}
	return true
}
