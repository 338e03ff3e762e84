package analyser_test

import (
	"path/filepath"
	"testing"

	"github.com/shopware/php-analyser/internal/analyser"
	"github.com/shopware/php-analyser/internal/analysistest"
	"github.com/shopware/php-analyser/internal/ast"
	"github.com/shopware/php-analyser/internal/reflection"
	"github.com/shopware/php-analyser/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNarrowingScenarios(t *testing.T) {
	for _, scenario := range analysistest.LoadScenarios(t, filepath.Join("testdata", "narrowing.yaml")) {
		t.Run(scenario.Name, func(t *testing.T) {
			h := analysistest.New(t)
			h.LoadSources(scenario.Sources)
			factory := h.CreateDefaultScopeFactory()

			variables := make(map[string]types.PHPType, len(scenario.Variables))
			for name, typeText := range scenario.Variables {
				variables[name] = h.ResolveType(typeText)
			}
			context := analyser.NewScopeContext(h.Path("scenario.php"))
			if scenario.Class != "" {
				class, err := factory.Broker().GetClass(scenario.Class)
				require.NoError(t, err)
				context = context.EnterClass(class)
			}
			scope := factory.Create(context, analyser.WithNamespace(scenario.Namespace), analyser.WithVariableTypes(variables))

			for code, expected := range scenario.Types {
				assert.Equal(t, expected, scope.GetType(h.ParseExpression(code, scenario.Namespace)).Name(), code)
			}

			condition := h.ParseExpression(scenario.Condition, scenario.Namespace)
			truthy := scope.FilterByTruthyValue(condition)
			for name, expected := range scenario.Truthy {
				assert.Equal(t, expected, truthy.GetVariableType(name).Name(), "truthy $%s", name)
			}
			falsey := scope.FilterByFalseyValue(condition)
			for name, expected := range scenario.Falsey {
				assert.Equal(t, expected, falsey.GetVariableType(name).Name(), "falsey $%s", name)
			}
		})
	}
}

func TestNegationRoundTrip(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"a": "App\\A|App\\B", "b": "App\\B", "n": "string|null"})

	for _, code := range []string{"$a instanceof B", "is_string($n)", "$n === null", "$a instanceof B && $n", "$a === $b"} {
		t.Run(code, func(t *testing.T) {
			expr := f.harness.ParseExpression(code, "App")
			negated := f.harness.ParseExpression("!("+code+")", "App")

			assert.True(t, scope.FilterByFalseyValue(expr).Equals(scope.FilterByTruthyValue(negated)))
			assert.True(t, scope.FilterByTruthyValue(expr).Equals(scope.FilterByFalseyValue(negated)))
		})
	}
}

func TestConditionWithoutInformation(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"a": "int"})

	for _, code := range []string{"$a > 1", "foo()", "1", "$a + 1"} {
		t.Run(code, func(t *testing.T) {
			expr := f.harness.ParseExpression(code, "App")
			assert.Same(t, scope, scope.FilterByTruthyValue(expr))
			assert.Same(t, scope, scope.FilterByFalseyValue(expr))
		})
	}
}

func TestNarrowPropertyFetch(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"o": "App\\A"})
	fetch := f.harness.ParseExpression("$o->b", "App")

	truthy := scope.FilterByTruthyValue(f.harness.ParseExpression("$o->b !== null", "App"))
	assert.Equal(t, "App\\B", truthy.GetType(fetch).Name())
	assert.Equal(t, "App\\B|null", scope.GetType(fetch).Name())

	falsey := scope.FilterByFalseyValue(f.harness.ParseExpression("$o->b instanceof B", "App"))
	assert.Equal(t, "null", falsey.GetType(fetch).Name())
}

func TestIdenticalToPropertyFetch(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, map[string]string{"o": "App\\A", "b": "App\\B"})
	fetch := f.harness.ParseExpression("$o->b", "App")
	condition := f.harness.ParseExpression("$b === $o->b", "App")

	truthy := scope.FilterByTruthyValue(condition)
	assert.Equal(t, "App\\B", truthy.GetType(fetch).Name())
	assert.Equal(t, "App\\B", truthy.GetVariableType("b").Name())

	assert.Same(t, scope, scope.FilterByFalseyValue(condition))
}

func TestIssetDefinesVariable(t *testing.T) {
	f := newFixture(t)
	left := f.scope(t, map[string]string{"a": "string|null"})
	right := f.scope(t, nil)
	scope := left.MergeWith(right)
	require.Equal(t, types.Maybe, scope.VariableCertainty("a"))

	truthy := scope.FilterByTruthyValue(f.harness.ParseExpression("isset($a)", "App"))
	assert.Equal(t, types.Yes, truthy.VariableCertainty("a"))
	assert.Equal(t, "string", truthy.GetVariableType("a").Name())
}

func TestTruthinessOfUndefinedVariable(t *testing.T) {
	f := newFixture(t)
	scope := f.scope(t, nil)

	falsey := scope.FilterByFalseyValue(f.harness.ParseExpression("$undefined", "App"))
	assert.False(t, falsey.HasVariableType("undefined"))
}

// hasNarrowsToB narrows the argument of A::has() to B
type hasNarrowsToB struct {
	typeSpecifier *analyser.TypeSpecifier
}

func (e *hasNarrowsToB) SetTypeSpecifier(typeSpecifier *analyser.TypeSpecifier) {
	e.typeSpecifier = typeSpecifier
}

func (e *hasNarrowsToB) GetClass() string { return "App\\A" }

func (e *hasNarrowsToB) IsMethodSupported(method reflection.MethodReflection, call *ast.MethodCall, negated bool) bool {
	return method.Name() == "has" && len(call.Args) == 1
}

func (e *hasNarrowsToB) SpecifyTypes(method reflection.MethodReflection, call *ast.MethodCall, scope *analyser.Scope, negated bool) analyser.SpecifiedTypes {
	specified := []analyser.SpecifiedType{{Expr: call.Args[0].Value, Type: types.NewObjectType("App\\B")}}
	if negated {
		return analyser.SpecifiedTypes{SureNotTypes: specified}
	}
	return analyser.SpecifiedTypes{SureTypes: specified}
}

// createAssertsString narrows the argument of A::create() to string
type createAssertsString struct{}

func (e *createAssertsString) GetClass() string { return "App\\A" }

func (e *createAssertsString) IsStaticMethodSupported(method reflection.MethodReflection, call *ast.StaticCall, negated bool) bool {
	return method.Name() == "create" && !negated && len(call.Args) > 0
}

func (e *createAssertsString) SpecifyTypes(method reflection.MethodReflection, call *ast.StaticCall, scope *analyser.Scope, negated bool) analyser.SpecifiedTypes {
	return analyser.SpecifiedTypes{SureTypes: []analyser.SpecifiedType{{Expr: call.Args[0].Value, Type: types.NewStringType()}}}
}

func TestMethodTypeSpecifyingExtensions(t *testing.T) {
	h := newFixture(t).harness
	methodExtension := &hasNarrowsToB{}
	b := h.CreateBroker(nil, nil)
	typeSpecifier := h.CreateTypeSpecifier(
		b,
		[]analyser.MethodTypeSpecifyingExtension{methodExtension},
		[]analyser.StaticMethodTypeSpecifyingExtension{&createAssertsString{}},
	)
	assert.Same(t, typeSpecifier, methodExtension.typeSpecifier)

	factory := h.CreateScopeFactory(b, typeSpecifier)
	scope := factory.Create(
		analyser.NewScopeContext(h.Path("src/classes.php")),
		analyser.WithNamespace("App"),
		analyser.WithVariableTypes(map[string]types.PHPType{
			"o": types.NewObjectType("App\\A"),
			"x": h.ResolveType("App\\A|App\\B"),
			"v": h.ResolveType("int|string"),
		}),
	)

	call := h.ParseExpression("$o->has($x)", "App")
	assert.Equal(t, "App\\B", scope.FilterByTruthyValue(call).GetVariableType("x").Name())
	assert.Equal(t, "App\\A", scope.FilterByFalseyValue(call).GetVariableType("x").Name())

	static := h.ParseExpression("A::create($v)", "App")
	assert.Equal(t, "string", scope.FilterByTruthyValue(static).GetVariableType("v").Name())
	assert.Equal(t, "int|string", scope.FilterByFalseyValue(static).GetVariableType("v").Name())
}
