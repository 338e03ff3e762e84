package analyser

import (
	"strconv"
	"strings"

	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
)

// constantTypes are the predefined constants whose type does not depend on the
// environment. Values of the others are unknown until runtime.
var constantTypes = map[string]func() types.PHPType{
	"PHP_EOL":             stringType,
	"PHP_VERSION":         stringType,
	"PHP_OS":              stringType,
	"PHP_OS_FAMILY":       stringType,
	"PHP_BINARY":          stringType,
	"PHP_EXTRA_VERSION":   stringType,
	"DIRECTORY_SEPARATOR": stringType,
	"PATH_SEPARATOR":      stringType,
	"PHP_INT_MAX":         intType,
	"PHP_INT_MIN":         intType,
	"PHP_INT_SIZE":        intType,
	"PHP_MAJOR_VERSION":   intType,
	"PHP_MINOR_VERSION":   intType,
	"PHP_RELEASE_VERSION": intType,
	"PHP_VERSION_ID":      intType,
	"PHP_MAXPATHLEN":      intType,
	"PHP_DEBUG":           intType,
	"E_ALL":               intType,
	"E_ERROR":             intType,
	"E_WARNING":           intType,
	"E_NOTICE":            intType,
	"E_DEPRECATED":        intType,
	"E_STRICT":            intType,
	"E_USER_ERROR":        intType,
	"E_USER_WARNING":      intType,
	"E_USER_NOTICE":       intType,
	"E_USER_DEPRECATED":   intType,
	"PHP_FLOAT_EPSILON":   floatType,
	"PHP_FLOAT_MAX":       floatType,
	"PHP_FLOAT_MIN":       floatType,
	"PHP_FLOAT_DIG":       intType,
	"M_PI":                floatType,
	"M_E":                 floatType,
	"NAN":                 floatType,
	"INF":                 floatType,
	"__CLASS__":           stringType,
	"__FUNCTION__":        stringType,
	"__METHOD__":          stringType,
	"__NAMESPACE__":       stringType,
	"__TRAIT__":           stringType,
	"__FILE__":            stringType,
	"__DIR__":             stringType,
	"__LINE__":            intType,
}

func stringType() types.PHPType { return types.NewStringType() }
func intType() types.PHPType    { return types.NewIntType() }
func floatType() types.PHPType  { return types.NewFloatType() }

// GetType returns the type of expr at this point. It never fails, whatever cannot be
// inferred is mixed.
func (s *Scope) GetType(expr ast.Expr) types.PHPType {
	if expr == nil {
		return types.NewMixedType()
	}

	key := ast.Print(expr)
	if _, ok := s.currentlyAssigned[key]; ok {
		return types.NewMixedType()
	}
	if t, ok := s.moreSpecificTypes[key]; ok {
		return t
	}

	return s.resolveType(expr)
}

func (s *Scope) resolveType(expr ast.Expr) types.PHPType {
	switch e := expr.(type) {
	case *ast.Variable:
		if e.NameExpr != nil {
			return types.NewMixedType()
		}
		return s.GetVariableType(e.Name)

	case *ast.Int:
		return types.NewIntType()
	case *ast.Float:
		return types.NewFloatType()
	case *ast.String:
		return types.NewStringType()

	case *ast.ConstFetch:
		return s.constantType(e.Name)

	case *ast.Array:
		return s.arrayLiteralType(e)

	case *ast.BinaryOp:
		return s.binaryOpType(e)

	case *ast.Instanceof, *ast.BooleanNot, *ast.Isset, *ast.Empty:
		return types.NewBoolType()

	case *ast.UnaryOp:
		if e.Op == "~" {
			return types.NewIntType()
		}
		return numericType(s.GetType(e.Expr))

	case *ast.Assign:
		return s.assignType(e)

	case *ast.Ternary:
		return s.ternaryType(e)

	case *ast.Cast:
		return castType(e.Type)

	case *ast.Clone:
		return s.GetType(e.Expr)

	case *ast.New:
		return s.newType(e)

	case *ast.PropertyFetch:
		if e.NameExpr != nil {
			return types.NewMixedType()
		}
		return s.propertyType(s.GetType(e.Var), e.Name)

	case *ast.NullsafePropertyFetch:
		if e.NameExpr != nil {
			return types.NewMixedType()
		}
		varType := s.GetType(e.Var)
		t := s.propertyType(types.Remove(s.hierarchy(), varType, types.NewNullType()), e.Name)
		if types.IsNullable(varType) {
			return types.Union(t, types.NewNullType())
		}
		return t

	case *ast.StaticPropertyFetch:
		return s.staticPropertyType(e)

	case *ast.MethodCall:
		return s.methodCallType(e, s.GetType(e.Var))

	case *ast.NullsafeMethodCall:
		varType := s.GetType(e.Var)
		call := &ast.MethodCall{Position: e.Position, Var: e.Var, Name: e.Name, NameExpr: e.NameExpr, Args: e.Args}
		t := s.methodCallType(call, types.Remove(s.hierarchy(), varType, types.NewNullType()))
		if types.IsNullable(varType) {
			return types.Union(t, types.NewNullType())
		}
		return t

	case *ast.StaticCall:
		return s.staticCallType(e)

	case *ast.FuncCall:
		return s.functionCallType(e)

	case *ast.ClassConstFetch:
		return s.classConstantType(e)

	case *ast.ArrayDimFetch:
		return s.offsetType(s.GetType(e.Var))

	case *ast.Closure:
		return types.NewObjectType("Closure")
	}

	return types.NewMixedType()
}

func (s *Scope) constantType(name *ast.Name) types.PHPType {
	if name == nil {
		return types.NewMixedType()
	}
	switch strings.ToLower(name.Value) {
	case "true":
		return types.NewConstantBoolType(true)
	case "false":
		return types.NewConstantBoolType(false)
	case "null":
		return types.NewNullType()
	}

	constant := name.Value
	if i := strings.LastIndex(constant, "\\"); i >= 0 && !name.FullyQualified {
		constant = constant[i+1:]
	}
	if s.factory != nil && (s.factory.isDynamicConstant(name.Value) || s.factory.isDynamicConstant(constant)) {
		return types.NewMixedType()
	}
	if t, ok := constantTypes[strings.TrimPrefix(constant, "\\")]; ok {
		return t()
	}
	return types.NewMixedType()
}

func (s *Scope) arrayLiteralType(array *ast.Array) types.PHPType {
	if len(array.Items) == 0 {
		return types.NewArrayType(nil, nil)
	}

	items := make([]types.PHPType, 0, len(array.Items))
	for _, item := range array.Items {
		t := s.GetType(item.Value)
		if item.Unpack {
			if unpacked, ok := t.(*types.ArrayType); ok && unpacked.ItemType() != nil {
				t = unpacked.ItemType()
			} else {
				t = types.NewMixedType()
			}
		}
		items = append(items, t)
	}
	return types.NewArrayType(nil, types.Union(items...))
}

func (s *Scope) binaryOpType(op *ast.BinaryOp) types.PHPType {
	switch op.Op {
	case ".":
		return types.NewStringType()
	case "+":
		left, right := s.GetType(op.Left), s.GetType(op.Right)
		if isArray(left) && isArray(right) {
			return types.NewArrayType(nil, nil)
		}
		return arithmeticType(left, right)
	case "-", "*", "**":
		return arithmeticType(s.GetType(op.Left), s.GetType(op.Right))
	case "/":
		left, right := s.GetType(op.Left), s.GetType(op.Right)
		if isMixed(left) || isMixed(right) {
			return types.NewMixedType()
		}
		if isFloat(left) || isFloat(right) {
			return types.NewFloatType()
		}
		return types.Union(types.NewIntType(), types.NewFloatType())
	case "%", "<<", ">>", "&", "|", "^":
		return types.NewIntType()
	case "==", "!=", "===", "!==", "<", "<=", ">", ">=", "&&", "||", "xor":
		return types.NewBoolType()
	case "<=>":
		return types.NewIntType()
	case "??":
		left := types.Remove(s.hierarchy(), s.GetType(op.Left), types.NewNullType())
		return types.Union(left, s.GetType(op.Right))
	}
	return types.NewMixedType()
}

func arithmeticType(left, right types.PHPType) types.PHPType {
	if isMixed(left) || isMixed(right) {
		return types.NewMixedType()
	}
	if isInt(left) && isInt(right) {
		return types.NewIntType()
	}
	if isFloat(left) || isFloat(right) {
		return types.NewFloatType()
	}
	return types.Union(types.NewIntType(), types.NewFloatType())
}

func numericType(t types.PHPType) types.PHPType {
	switch {
	case isMixed(t):
		return types.NewMixedType()
	case isInt(t):
		return types.NewIntType()
	case isFloat(t):
		return types.NewFloatType()
	}
	return types.Union(types.NewIntType(), types.NewFloatType())
}

func isMixed(t types.PHPType) bool {
	_, ok := t.(*types.MixedType)
	return ok
}

func isInt(t types.PHPType) bool {
	_, ok := t.(*types.IntType)
	return ok
}

func isFloat(t types.PHPType) bool {
	_, ok := t.(*types.FloatType)
	return ok
}

func isArray(t types.PHPType) bool {
	_, ok := t.(*types.ArrayType)
	return ok
}

func (s *Scope) assignType(assign *ast.Assign) types.PHPType {
	switch assign.Op {
	case "":
		return s.GetType(assign.Expr)
	case ".=":
		return types.NewStringType()
	case "??=":
		return s.binaryOpType(&ast.BinaryOp{Position: assign.Position, Op: "??", Left: assign.Var, Right: assign.Expr})
	}
	return s.binaryOpType(&ast.BinaryOp{
		Position: assign.Position,
		Op:       strings.TrimSuffix(assign.Op, "="),
		Left:     assign.Var,
		Right:    assign.Expr,
	})
}

// ternaryType evaluates each branch in the scope its condition leaves behind
func (s *Scope) ternaryType(ternary *ast.Ternary) types.PHPType {
	truthy := s.FilterByTruthyValue(ternary.Cond)
	falsey := s.FilterByFalseyValue(ternary.Cond)

	var ifType types.PHPType
	if ternary.If == nil {
		ifType = truthyType(s.hierarchy(), truthy.GetType(ternary.Cond))
	} else {
		ifType = truthy.GetType(ternary.If)
	}
	return types.Union(ifType, falsey.GetType(ternary.Else))
}

func castType(castTo string) types.PHPType {
	switch castTo {
	case "int":
		return types.NewIntType()
	case "float":
		return types.NewFloatType()
	case "string":
		return types.NewStringType()
	case "bool":
		return types.NewBoolType()
	case "array":
		return types.NewArrayType(nil, nil)
	case "object":
		return types.NewObjectType("stdClass")
	case "unset":
		return types.NewNullType()
	}
	return types.NewMixedType()
}

func (s *Scope) newType(expr *ast.New) types.PHPType {
	if expr.Anonymous != nil {
		return s.anonymousClassType(expr.Anonymous)
	}

	name, ok := expr.Class.(*ast.Name)
	if !ok {
		return types.NewObjectWithoutClassType()
	}

	class := s.context.ClassReflection
	switch name.Resolved {
	case "self":
		if class != nil {
			return types.NewObjectType(class.Name())
		}
		return types.NewMixedType()
	case "static":
		if class != nil {
			return types.NewStaticType(class.Name())
		}
		return types.NewMixedType()
	case "parent":
		if class != nil && class.ParentClassName() != "" {
			return types.NewObjectType(strings.TrimPrefix(class.ParentClassName(), "\\"))
		}
		return types.NewMixedType()
	}
	return types.NewObjectType(s.ResolveName(name))
}

func (s *Scope) anonymousClassType(anonymous *ast.AnonymousClass) types.PHPType {
	if s.factory == nil || s.factory.broker == nil {
		return types.NewObjectWithoutClassType()
	}
	b := s.factory.broker
	file := anonymous.File
	if file == "" {
		file = s.context.File
	}
	for _, decl := range b.Index().AnonymousClasses(file) {
		if decl.StartLine != anonymous.StartLine {
			continue
		}
		class, err := b.GetAnonymousClassReflection(decl)
		if err != nil {
			log.Debugf("anonymous class in %s:%d: %v", file, anonymous.StartLine, err)
			break
		}
		return types.NewObjectType(class.Name())
	}
	return types.NewObjectWithoutClassType()
}

// getClass resolves a class through the broker, failing outside of an analysis run
func (s *Scope) getClass(name string) (*reflection.ClassReflection, bool) {
	if s.factory == nil || s.factory.broker == nil {
		return nil, false
	}
	class, err := s.factory.broker.GetClass(name)
	if err != nil {
		log.Debugf("%v", err)
		return nil, false
	}
	return class, true
}

// classesOf returns the reflections of every class t may be an instance of. ok is
// false when one of them is unknown or t is not an object.
func (s *Scope) classesOf(t types.PHPType) ([]*reflection.ClassReflection, bool) {
	names := types.ClassNames(t)
	if len(names) == 0 {
		return nil, false
	}
	classes := make([]*reflection.ClassReflection, 0, len(names))
	for _, name := range names {
		class, ok := s.getClass(name)
		if !ok {
			return nil, false
		}
		classes = append(classes, class)
	}
	return classes, true
}

func (s *Scope) propertyType(varType types.PHPType, propertyName string) types.PHPType {
	classes, ok := s.classesOf(varType)
	if !ok {
		return types.NewMixedType()
	}

	results := make([]types.PHPType, 0, len(classes))
	for _, class := range classes {
		property, ok := class.GetProperty(propertyName)
		if !ok {
			return types.NewMixedType()
		}
		results = append(results, types.ResolveStatic(property.Type(), callerType(varType, class, len(classes))))
	}
	return types.Union(results...)
}

func (s *Scope) staticPropertyType(fetch *ast.StaticPropertyFetch) types.PHPType {
	className, ok := s.classReferenceName(fetch.Class)
	if !ok {
		return types.NewMixedType()
	}
	class, ok := s.getClass(className)
	if !ok {
		return types.NewMixedType()
	}
	property, ok := class.GetProperty(fetch.Name)
	if !ok {
		return types.NewMixedType()
	}
	return property.Type()
}

// callerType is what static and $this resolve to when a member of class is used on a
// value of varType
func callerType(varType types.PHPType, class *reflection.ClassReflection, classCount int) types.PHPType {
	if classCount == 1 {
		return varType
	}
	return types.NewObjectType(class.Name())
}

func (s *Scope) methodCallType(call *ast.MethodCall, varType types.PHPType) types.PHPType {
	if call.NameExpr != nil {
		return types.NewMixedType()
	}
	classes, ok := s.classesOf(varType)
	if !ok {
		return types.NewMixedType()
	}

	results := make([]types.PHPType, 0, len(classes))
	for _, class := range classes {
		method, ok := class.GetMethod(call.Name)
		if !ok {
			return types.NewMixedType()
		}
		results = append(results, s.methodReturnType(class, method, call, callerType(varType, class, len(classes))))
	}
	return types.Union(results...)
}

// methodReturnType asks the dynamic return type extensions of class first
func (s *Scope) methodReturnType(class *reflection.ClassReflection, method reflection.MethodReflection, call *ast.MethodCall, caller types.PHPType) types.PHPType {
	for _, extension := range s.factory.broker.GetDynamicMethodReturnTypeExtensionsForClass(class.Name()) {
		if extension.IsMethodSupported(method) {
			return extension.GetTypeFromMethodCall(method, call, s)
		}
	}
	return types.ResolveStatic(returnTypeOf(method), caller)
}

func (s *Scope) staticCallType(call *ast.StaticCall) types.PHPType {
	if call.NameExpr != nil {
		return types.NewMixedType()
	}

	var caller types.PHPType
	var classNames []string
	if name, ok := call.Class.(*ast.Name); ok {
		if name.IsSpecial() {
			if s.context.ClassReflection == nil {
				return types.NewMixedType()
			}
			caller = types.NewStaticType(s.context.ClassReflection.Name())
		}
		classNames = []string{s.ResolveName(name)}
	} else {
		caller = s.GetType(call.Class)
		classNames = types.ClassNames(caller)
	}

	results := make([]types.PHPType, 0, len(classNames))
	for _, className := range classNames {
		class, ok := s.getClass(className)
		if !ok {
			return types.NewMixedType()
		}
		method, ok := class.GetMethod(call.Name)
		if !ok {
			return types.NewMixedType()
		}

		classCaller := caller
		if classCaller == nil || len(classNames) > 1 {
			classCaller = types.NewObjectType(class.Name())
		}
		results = append(results, s.staticMethodReturnType(class, method, call, classCaller))
	}
	if len(results) == 0 {
		return types.NewMixedType()
	}
	return types.Union(results...)
}

func (s *Scope) staticMethodReturnType(class *reflection.ClassReflection, method reflection.MethodReflection, call *ast.StaticCall, caller types.PHPType) types.PHPType {
	for _, extension := range s.factory.broker.GetDynamicStaticMethodReturnTypeExtensionsForClass(class.Name()) {
		if extension.IsStaticMethodSupported(method) {
			return extension.GetTypeFromStaticMethodCall(method, call, s)
		}
	}
	return types.ResolveStatic(returnTypeOf(method), caller)
}

func (s *Scope) functionCallType(call *ast.FuncCall) types.PHPType {
	name, ok := call.Name.(*ast.Name)
	if !ok || s.factory == nil || s.factory.broker == nil {
		return types.NewMixedType()
	}

	function, err := s.factory.broker.GetFunction(functionReference(name), s)
	if err != nil {
		log.Debugf("%v", err)
		return types.NewMixedType()
	}
	for _, extension := range s.factory.broker.GetDynamicFunctionReturnTypeExtensions() {
		if extension.IsFunctionSupported(function) {
			return extension.GetTypeFromFunctionCall(function, call, s)
		}
	}
	return returnTypeOf(function)
}

// functionReference is the name of a called function as the broker resolves it
func functionReference(name *ast.Name) string {
	if name.FullyQualified {
		return "\\" + name.Value
	}
	return name.Value
}

func returnTypeOf(acceptor reflection.ParametersAcceptor) types.PHPType {
	t := acceptor.ReturnType()
	if t == nil {
		return types.NewMixedType()
	}
	return t
}

func (s *Scope) classReferenceName(expr ast.Expr) (string, bool) {
	if name, ok := expr.(*ast.Name); ok {
		if name.IsSpecial() && s.context.ClassReflection == nil {
			return "", false
		}
		return s.ResolveName(name), true
	}
	names := types.ClassNames(s.GetType(expr))
	if len(names) != 1 {
		return "", false
	}
	return names[0], true
}

func (s *Scope) classConstantType(fetch *ast.ClassConstFetch) types.PHPType {
	if strings.EqualFold(fetch.Name, "class") {
		return types.NewStringType()
	}
	className, ok := s.classReferenceName(fetch.Class)
	if !ok {
		return types.NewMixedType()
	}
	class, ok := s.getClass(className)
	if !ok {
		return types.NewMixedType()
	}
	constant, ok := class.GetConstant(fetch.Name)
	if !ok {
		return types.NewMixedType()
	}
	return literalType(constant.Value())
}

// literalType infers the type of a constant initializer from its source text
func literalType(value string) types.PHPType {
	value = strings.TrimSpace(value)
	lower := strings.ToLower(strings.TrimPrefix(value, "\\"))
	switch {
	case value == "":
		return types.NewMixedType()
	case lower == "true":
		return types.NewConstantBoolType(true)
	case lower == "false":
		return types.NewConstantBoolType(false)
	case lower == "null":
		return types.NewNullType()
	case value[0] == '\'' || value[0] == '"':
		return types.NewStringType()
	case value[0] == '[' || strings.HasPrefix(lower, "array("):
		return types.NewArrayType(nil, nil)
	case strings.HasSuffix(lower, "::class"):
		return types.NewStringType()
	}

	number := strings.TrimPrefix(strings.ReplaceAll(value, "_", ""), "-")
	if _, err := strconv.ParseInt(number, 0, 64); err == nil {
		return types.NewIntType()
	}
	if _, err := strconv.ParseFloat(number, 64); err == nil {
		return types.NewFloatType()
	}
	return types.NewMixedType()
}

// offsetType is the type of $var[...] for a value of varType
func (s *Scope) offsetType(varType types.PHPType) types.PHPType {
	switch t := varType.(type) {
	case *types.ArrayType:
		if t.ItemType() == nil {
			return types.NewMixedType()
		}
		return t.ItemType()
	case *types.IterableType:
		if t.ItemType() == nil {
			return types.NewMixedType()
		}
		return t.ItemType()
	case *types.StringType:
		return types.NewStringType()
	case *types.UnionType:
		results := make([]types.PHPType, 0, len(t.Types()))
		for _, member := range t.Types() {
			if _, isNull := member.(*types.NullType); isNull {
				results = append(results, types.NewNullType())
				continue
			}
			results = append(results, s.offsetType(member))
		}
		return types.Union(results...)
	}

	classes, ok := s.classesOf(varType)
	if !ok {
		return types.NewMixedType()
	}
	results := make([]types.PHPType, 0, len(classes))
	for _, class := range classes {
		if !class.Is("ArrayAccess") {
			return types.NewMixedType()
		}
		method, ok := class.GetMethod("offsetGet")
		if !ok {
			return types.NewMixedType()
		}
		results = append(results, types.ResolveStatic(returnTypeOf(method), varType))
	}
	return types.Union(results...)
}
