package analyser_test

import (
	"testing"

	"github.com/shopware/php-analyser/internal/analyser"
	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestUnknownVariableIsMixed(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, nil)

	assert.Equal(t, "mixed", scope.GetVariableType("nope").Name())
	assert.False(t, scope.HasVariableType("nope"))
	assert.Equal(t, types.No, scope.VariableCertainty("nope"))
	assert.Equal(t, "mixed", scope.GetType(f.harness.ParseExpression("$nope", "App")).Name())
}

func TestAssignVariable(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, nil)

	once := scope.AssignVariable("a", types.NewIntType())
	twice := once.AssignVariable("a", types.NewIntType())

	assert.True(t, once.Equals(twice))
	assert.True(t, once.HasVariableType("a"))
	assert.Equal(t, types.Yes, once.VariableCertainty("a"))
	assert.Equal(t, "int", once.GetVariableType("a").Name())
	assert.False(t, scope.HasVariableType("a"), "assigning must not change the original scope")
}

func TestIntersectVariableType(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"a": "int|string|null"})

	narrowed := scope.IntersectVariableType("a", types.NewStringType())
	assert.Equal(t, "string", narrowed.GetVariableType("a").Name())

	defined := scope.IntersectVariableType("b", types.NewIntType())
	assert.Equal(t, "int", defined.GetVariableType("b").Name())
}

func TestMergeWith(t *testing.T) {
	f := newFixture(t)
	left := f.scope(t, map[string]string{"a": "int", "b": "string"})
	right := f.scope(t, map[string]string{"a": "string", "c": "float"})

	merged := left.MergeWith(right)
	assert.Equal(t, "int|string", merged.GetVariableType("a").Name())
	assert.Equal(t, types.Yes, merged.VariableCertainty("a"))
	assert.Equal(t, types.Maybe, merged.VariableCertainty("b"))
	assert.Equal(t, types.Maybe, merged.VariableCertainty("c"))
	assert.Equal(t, []string{"a", "b", "c"}, merged.VariableNames())

	assert.True(t, merged.Equals(right.MergeWith(left)), "merge is commutative")

	same := f.scope(t, map[string]string{"a": "int", "b": "string"})
	assert.True(t, left.MergeWith(same).Equals(left), "merge is idempotent")
}

func TestMergeSiblingBranches(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, nil)

	ifBranch := scope.AssignVariable("a", types.NewIntType())
	elseBranch := scope.AssignVariable("a", types.NewStringType())

	merged := ifBranch.MergeWith(elseBranch)
	assert.Equal(t, "int|string", merged.GetVariableType("a").Name())
	assert.Equal(t, types.Yes, merged.VariableCertainty("a"))
}

func TestMergeKeepsSharedExpressionTypes(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"o": "App\\A"})
	fetch := f.harness.ParseExpression("$o->name", "App")

	left := scope.SpecifyExpressionType(fetch, types.NewStringType())
	right := scope.SpecifyExpressionType(fetch, types.NewNullType())
	assert.Equal(t, "null|string", left.MergeWith(right).GetType(fetch).Name())

	onlyLeft := left.MergeWith(scope)
	assert.Equal(t, "null|string", onlyLeft.GetType(fetch).Name(), "falls back to the declared property type")
}

func TestSpecifyExpressionType(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"o": "App\\A"})
	fetch := f.harness.ParseExpression("$o->b", "App")
	require.Equal(t, "App\\B|null", scope.GetType(fetch).Name())

	narrowed := scope.SpecifyExpressionType(fetch, types.NewObjectType("App\\B"))
	assert.Equal(t, "App\\B", narrowed.GetType(fetch).Name())
	assert.Equal(t, "int", narrowed.GetType(f.harness.ParseExpression("$o->b->count", "App")).Name())

	reassigned := narrowed.AssignVariable("o", types.NewObjectType("App\\A"))
	assert.Equal(t, "App\\B|null", reassigned.GetType(fetch).Name(), "assigning $o forgets what was known about $o->b")

	unset := narrowed.UnsetExpression(fetch)
	assert.Equal(t, "App\\B|null", unset.GetType(fetch).Name())
}

func TestDerivedScopesLeaveTheirOriginAlone(t *testing.T) {
	f := newFixture(t)
	fetch := f.harness.ParseExpression("$o->b", "App")
	origin := f.scope(t, map[string]string{"o": "App\\A", "i": "int"}).
		SpecifyExpressionType(fetch, types.NewObjectType("App\\B"))

	other := origin.AssignVariable("s", types.NewStringType())
	assert.Equal(t, "App\\B", other.GetType(fetch).Name(), "assigning another variable keeps $o->b")
	assert.False(t, origin.HasVariableType("s"))

	changed := other.SpecifyExpressionType(fetch, types.NewNullType()).AssignVariable("i", types.NewStringType())
	assert.Equal(t, "null", changed.GetType(fetch).Name())
	assert.Equal(t, "App\\B", other.GetType(fetch).Name())
	assert.Equal(t, "App\\B", origin.GetType(fetch).Name())
	assert.Equal(t, "int", origin.GetVariableType("i").Name())
	assert.Equal(t, "int", other.GetVariableType("i").Name())
}

func TestSpecifyUndefinedVariable(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, nil)

	specified := scope.SpecifyExpressionType(f.harness.ParseExpression("$a", "App"), types.NewIntType())
	assert.Equal(t, types.Yes, specified.VariableCertainty("a"))
	assert.Equal(t, "int", specified.GetVariableType("a").Name())
}

func TestUnsetVariable(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"a": "int", "o": "App\\A"})
	scope = scope.SpecifyExpressionType(f.harness.ParseExpression("$o->name", "App"), types.NewStringType())

	unset := scope.UnsetExpression(f.harness.ParseExpression("$o", "App"))
	assert.False(t, unset.HasVariableType("o"))
	assert.True(t, unset.HasVariableType("a"))
	assert.Equal(t, "mixed", unset.GetType(f.harness.ParseExpression("$o->name", "App")).Name())
}

func TestExpressionAssignGuard(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"a": "int"})
	variable := f.harness.ParseExpression("$a", "App")

	assigning := scope.EnterExpressionAssign(variable)
	assert.True(t, assigning.IsInExpressionAssign(variable))
	assert.False(t, scope.IsInExpressionAssign(variable))
	assert.Equal(t, "mixed", assigning.GetType(variable).Name())

	done := assigning.ExitExpressionAssign(variable)
	assert.False(t, done.IsInExpressionAssign(variable))
	assert.Equal(t, "int", done.GetType(variable).Name())
}

func TestFirstLevelStatement(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, nil)
	assert.True(t, scope.IsInFirstLevelStatement())

	nested := scope.ExitFirstLevelStatement()
	assert.False(t, nested.IsInFirstLevelStatement())
	assert.True(t, nested.EnterFirstLevelStatement().IsInFirstLevelStatement())
	assert.True(t, scope.IsInFirstLevelStatement())
}

func TestEnterClassAndMethod(t *testing.T) {
	f := newFixture(t)
	classScope := f.classScope(t, "App\\A")

	assert.Equal(t, "App\\A", classScope.ClassReflection().Name())
	assert.Equal(t, "App", classScope.Namespace())
	assert.Equal(t, "$this(App\\A)", classScope.GetVariableType("this").Name())

	method, ok := classScope.ClassReflection().GetMethod("has")
	require.True(t, ok)
	methodScope := classScope.AssignVariable("leftover", types.NewIntType()).EnterClassMethod(method)
	assert.Equal(t, []string{"value"}, methodScope.VariableNames())
	assert.Equal(t, "mixed", methodScope.GetVariableType("value").Name())
	assert.Equal(t, method, methodScope.Function())
	assert.True(t, methodScope.HasVariableType("this"))

	static, ok := classScope.ClassReflection().GetMethod("create")
	require.True(t, ok)
	staticScope := classScope.EnterClassMethod(static)
	assert.False(t, staticScope.HasVariableType("this"))
}

func TestEnterFunction(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"outer": "int"})

	function, err := f.factory.Broker().GetFunction("sum", scope)
	require.NoError(t, err)

	functionScope := scope.EnterFunction(function)
	assert.Equal(t, []string{"values"}, functionScope.VariableNames())
	assert.Equal(t, "array<int, int>", functionScope.GetVariableType("values").Name())
	assert.Equal(t, "App", functionScope.Namespace())
	assert.Nil(t, functionScope.ClassReflection())
}

func TestEnterNamespace(t *testing.T) {
	f := newFixture(t)
	scope := f.classScope(t, "App\\A").AssignVariable("a", types.NewIntType())

	entered := scope.EnterNamespace("\\Other\\Space")
	assert.Equal(t, "Other\\Space", entered.Namespace())
	assert.Empty(t, entered.VariableNames())
	assert.Nil(t, entered.ClassReflection())
}

func TestEnterAnonymousFunction(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"used": "string", "ignored": "int"})

	closure, ok := f.harness.ParseExpression("function (int $x, ?B $b = null, string ...$rest) use ($used, &$created) { return $x; }", "App").(*ast.Closure)
	require.True(t, ok)

	inner := scope.EnterAnonymousFunction(closure)
	assert.True(t, inner.IsInAnonymousFunction())
	assert.Same(t, closure, inner.AnonymousFunction())
	assert.Equal(t, "int", inner.GetVariableType("x").Name())
	assert.Equal(t, "App\\B|null", inner.GetVariableType("b").Name())
	assert.Equal(t, "array<int, string>", inner.GetVariableType("rest").Name())
	assert.Equal(t, "string", inner.GetVariableType("used").Name())
	assert.True(t, inner.HasVariableType("created"))
	assert.False(t, inner.HasVariableType("ignored"))
}

func TestEnterArrowFunction(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"outer": "string"})

	arrow, ok := f.harness.ParseExpression("fn (int $x) => $x", "App").(*ast.Closure)
	require.True(t, ok)

	inner := scope.EnterAnonymousFunction(arrow)
	assert.Equal(t, "string", inner.GetVariableType("outer").Name())
	assert.Equal(t, "int", inner.GetVariableType("x").Name())
}

func TestStaticClosureHasNoThis(t *testing.T) {
	f := newFixture(t)
	scope := f.classScope(t, "App\\A")

	closure, ok := f.harness.ParseExpression("static function () {}", "App").(*ast.Closure)
	require.True(t, ok)
	assert.False(t, scope.EnterAnonymousFunction(closure).HasVariableType("this"))

	closure, ok = f.harness.ParseExpression("function () {}", "App").(*ast.Closure)
	require.True(t, ok)
	assert.Equal(t, "$this(App\\A)", scope.EnterAnonymousFunction(closure).GetVariableType("this").Name())
}

func TestEnterClosureBind(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, nil)

	bound := scope.EnterClosureBind(types.NewObjectType("App\\B"), "App\\B")
	assert.True(t, bound.IsInClosureBind())
	require.NotNil(t, bound.ClassReflection())
	assert.Equal(t, "App\\B", bound.ClassReflection().Name())
	assert.Equal(t, "App\\B", bound.GetVariableType("this").Name())

	unknown := scope.EnterClosureBind(nil, "App\\Missing")
	assert.Nil(t, unknown.ClassReflection())
}

func TestResolveName(t *testing.T) {
	f := newFixture(t)
	scope := f.classScope(t, "App\\A")

	assert.Equal(t, "App\\A", scope.ResolveName(&ast.Name{Value: "self", Resolved: "self"}))
	assert.Equal(t, "App\\A", scope.ResolveName(&ast.Name{Value: "static", Resolved: "static"}))
	assert.Equal(t, "parent", scope.ResolveName(&ast.Name{Value: "parent", Resolved: "parent"}))
	assert.Equal(t, "App\\B", scope.ResolveName(&ast.Name{Value: "B", Resolved: "App\\B"}))
}

func TestDumpJSON(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"a": "int", "o": "App\\A"})
	scope = scope.SpecifyExpressionType(f.harness.ParseExpression("$o->name", "App"), types.NewStringType())

	data, err := scope.DumpJSON()
	require.NoError(t, err)

	doc := gjson.ParseBytes(data)
	assert.Equal(t, "App", doc.Get("namespace").String())
	assert.Equal(t, f.file, doc.Get("file").String())
	assert.Equal(t, "int", doc.Get("variables.a.type").String())
	assert.Equal(t, "Yes", doc.Get("variables.a.certainty").String())
	assert.Equal(t, "App\\A", doc.Get("variables.o.type").String())
	assert.Equal(t, "string", doc.Get(`expressions.$o->name`).String())
}

func TestScopeWithoutVariables(t *testing.T) {
	f := newFixture(t)
	scope := f.factory.Create(analyser.NewScopeContext(f.file))

	assert.Empty(t, scope.VariableNames())
	assert.Equal(t, "", scope.Namespace())
	assert.False(t, scope.IsDeclareStrictTypes())
	assert.True(t, scope.Equals(f.factory.Create(analyser.NewScopeContext(f.file))))
	assert.False(t, scope.Equals(f.factory.Create(analyser.NewScopeContext(f.file), analyser.WithNamespace("App"))))
}
