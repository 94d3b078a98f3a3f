package nanocalc_test

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/zephyrtronium/nanocalc"
)

func TestEval(t *testing.T) {
	type vv struct {
		n string
		v float64
	}
	type vc struct {
		vars []vv
		r    float64
	}
	cases := []struct {
		name string
		src  string
		r    []vc
	}{
		{"num", "1", []vc{{nil, 1}}},
		{"ident", "x", []vc{
			{[]vv{{"x", 4}}, 4},
			{[]vv{{"x", 5}}, 5},
			{[]vv{{"x", 6}}, 6},
		}},
		{"plus", "+x", []vc{
			{[]vv{{"x", 4}}, 4},
			{[]vv{{"x", 5}}, 5},
			{[]vv{{"x", 6}}, 6},
		}},
		{"neg", "-x", []vc{
			{[]vv{{"x", 4}}, -4},
			{[]vv{{"x", 5}}, -5},
			{[]vv{{"x", 6}}, -6},
		}},
		{"add", "4+5+6", []vc{{nil, 4 + 5 + 6}}},
		{"sub", "4-5-6", []vc{{nil, 4 - 5 - 6}}},
		{"mul", "4*5*6", []vc{{nil, 4 * 5 * 6}}},
		{"div", "4/5/6", []vc{{nil, 4.0 / 5.0 / 6.0}}},
		{"mod", "7%3", []vc{{nil, 1}}},
		{"mod-neg", "-7%3", []vc{{nil, -1}}},
		{"pow", "4^3^2", []vc{{nil, 262144}}},
		{"pow-negbase", "(-2)^3", []vc{{nil, -8}}},
		{"negpow", "-2^2", []vc{{nil, -4}}},
		{"precedence", "2+3*4^2", []vc{{nil, 50}}},
		{"brackets", "{2+3}*[4-(1)]", []vc{{nil, 15}}},
		{"pi", "pi", []vc{{nil, math.Pi}}},
		{"e", "e", []vc{{nil, math.E}}},
		{"epsilon", "epsilon", []vc{{nil, math.Nextafter(1, 2) - 1}}},
		{"exp", "exp 1", []vc{{nil, math.E}}},
		{"inf1", "inf", []vc{{nil, math.Inf(0)}}},
		{"inf2", "Inf", []vc{{nil, math.Inf(0)}}},
		{"inf3", "∞", []vc{{nil, math.Inf(0)}}},
		{"div-zero", "1/0", []vc{{nil, math.Inf(1)}}},
		{"div-negzero", "-1/0", []vc{{nil, math.Inf(-1)}}},
		{"implicit", "2x", []vc{
			{[]vv{{"x", 3}}, 6},
			{[]vv{{"x", -1}}, -2},
		}},
		{"implicit-call", "2sin(pi/2)", []vc{{nil, 2}}},
		{"bare-arg", "sqrt 16 + 1", []vc{{nil, 5}}},
		{"bare-arg-terms", "sqrt 2x", []vc{
			{[]vv{{"x", 8}}, 4},
		}},
		{"implicit-div", "8/2x", []vc{
			{[]vv{{"x", 4}}, 16},
		}},
		{"implicit-div-explicit", "8/2x == 8/2*x", []vc{
			{[]vv{{"x", 4}}, 1},
			{[]vv{{"x", 0.3}}, 1},
		}},
		{"implicit-group", "2(1+1)", []vc{{nil, 4}}},
		{"implicit-groups", "(1+2)(3+4)", []vc{{nil, 21}}},
		{"implicit-square", "2[3-1]", []vc{{nil, 4}}},
		{"implicit-name-group", "x(1+2)", []vc{
			{[]vv{{"x", 5}}, 15},
		}},
		{"implicit-chain", "(12.34sin(x)cos(2y)7+1)==(12.34*sin(x)*cos(2*y)*7+1)", []vc{
			{[]vv{{"x", 0.7}, {"y", 1.3}}, 1},
			{[]vv{{"x", 2}, {"y", -3}}, 1},
		}},
		{"lt", "1<2", []vc{{nil, 1}}},
		{"le", "2<=2", []vc{{nil, 1}}},
		{"gt", "1>2", []vc{{nil, 0}}},
		{"ge", "1>=2", []vc{{nil, 0}}},
		{"eq", "2==2", []vc{{nil, 1}}},
		{"eq-alias", "2=3", []vc{{nil, 0}}},
		{"ne", "2!=3", []vc{{nil, 1}}},
		{"and", "1 and 0", []vc{{nil, 0}}},
		{"or", "1 or 0", []vc{{nil, 1}}},
		{"xor", "1 xor 1", []vc{{nil, 0}}},
		{"nand", "1 nand 1", []vc{{nil, 0}}},
		{"nor", "0 nor 0", []vc{{nil, 1}}},
		{"not", "not 0", []vc{{nil, 1}}},
		{"not-nonzero", "not -3", []vc{{nil, 0}}},
		{"truthy", "0.5 and -2", []vc{{nil, 1}}},
		{"logic-precedence", "1 < 2 and 3 > 4 or 5 = 5", []vc{{nil, 1}}},
		{"if-true", "if(1<2, 10, 20)", []vc{{nil, 10}}},
		{"if-false", "if(1>2, 10, 20)", []vc{{nil, 20}}},
		{"if-lazy", "if(1<2, 10, 0/0)", []vc{{nil, 10}}},
		{"if-lazy-else", "if(0, sqrt(-1), 3)", []vc{{nil, 3}}},
		{"if-lazy-name", "if(x, 1, undefined)", []vc{
			{[]vv{{"x", 1}}, 1},
		}},
		{"clamp", "clamp(-1, 5, 1)", []vc{{nil, 1}}},
		{"inrange", "inrange(-2, 0, 2)", []vc{{nil, 1}}},
		{"assign", "z := x + 1", []vc{
			{[]vv{{"x", 2}}, 3},
		}},
		{"assign-arrow", "z <- x * 2", []vc{
			{[]vv{{"x", 2}}, 4},
		}},
		{"assign-use", "(z := 3) + z", []vc{{nil, 6}}},
		{"assign-chain", "a := b := 7", []vc{{nil, 7}}},
	}
	ctx := nanocalc.NewContext()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := nanocalc.Parse(strings.NewReader(c.src))
			if err != nil {
				t.Fatal(c.src, "failed to parse:", err)
			}
			for _, v := range c.r {
				ctx := ctx.Clone()
				for _, x := range v.vars {
					if err := ctx.Set(x.n, x.v); err != nil {
						t.Fatalf("couldn't set %s: %v", x.n, err)
					}
				}
				r, err := ctx.Eval(a)
				if err != nil {
					t.Fatal("evaluation error:", err)
				}
				if !same(v.r, r) {
					t.Errorf("wrong result: want %g, got %g", v.r, r)
				}
				// Evaluating again gives the same result.
				if q, err := ctx.Eval(a); err != nil || !same(r, q) {
					t.Errorf("different results: first %g, then %g (%v)", r, q, err)
				}
			}
		})
	}
}

func TestEvalDeterministic(t *testing.T) {
	cases := []string{
		"1/3",
		"2^0.5 * 3^(1/3)",
		"sin(1) + cos(2) * tan(3)",
		"exp 1 - log(7) / log10(3)",
		"12.34sin(0.7)cos(2.6)7+1",
		"avg(1, 2, 3, 4.5) % 1.1",
		"hyp(3, 4) + atan2(1, 3) + roundn(pi, 4)",
		"1/0",
		"if(0.1+0.2 == 0.3, 1, 2)",
	}
	ctx := nanocalc.NewContext()
	for _, src := range cases {
		t.Run(src, func(t *testing.T) {
			a, err := nanocalc.ParseString(src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", src, err)
			}
			r, err := ctx.Eval(a)
			if err != nil {
				t.Fatalf("%q failed to evaluate: %v", src, err)
			}
			q, err := ctx.Eval(a)
			if err != nil {
				t.Fatalf("%q failed to evaluate the second time: %v", src, err)
			}
			if math.Float64bits(r) != math.Float64bits(q) {
				t.Errorf("%q gave %v then %v", src, r, q)
			}
			// A fresh parse of the same input gives the same bits too.
			b, err := nanocalc.ParseString(src)
			if err != nil {
				t.Fatalf("%q failed to parse again: %v", src, err)
			}
			if v, err := ctx.Eval(b); err != nil || math.Float64bits(v) != math.Float64bits(r) {
				t.Errorf("%q reparsed gave %v (%v), want %v", src, v, err, r)
			}
		})
	}
}

func TestEvalAssigns(t *testing.T) {
	ctx := nanocalc.NewContext(nanocalc.SetVar("x", 2))
	a, err := nanocalc.ParseString("z := x + 1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.Eval(a); err != nil {
		t.Fatal(err)
	}
	if z, ok := ctx.Lookup("z"); !ok || z != 3 {
		t.Errorf("z should be 3 but is %g (exists: %t)", z, ok)
	}
	b, err := nanocalc.ParseString("z := z * 2")
	if err != nil {
		t.Fatal(err)
	}
	if r, err := ctx.Eval(b); err != nil || r != 6 {
		t.Errorf("want 6, got %g (%v)", r, err)
	}
	if z, _ := ctx.Lookup("z"); z != 6 {
		t.Errorf("z should be 6 but is %g", z)
	}
}

func TestEvalConstants(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"pi", "pi := 3"},
		{"e", "e <- 2"},
		{"epsilon", "epsilon := 0"},
		{"nested", "x := (pi := 3)"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := nanocalc.NewContext()
			a, err := nanocalc.ParseString(c.src)
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			_, err = ctx.Eval(a)
			var ce *nanocalc.ConstantError
			if !errors.As(err, &ce) {
				t.Fatalf("want *ConstantError from %q, got %#v", c.src, err)
			}
			if !regexp.MustCompile(`(?i)\bconstant\b`).MatchString(err.Error()) {
				t.Errorf("%q doesn't mention constant", err.Error())
			}
			if v, _ := ctx.Lookup("pi"); v != math.Pi {
				t.Errorf("pi changed to %g", v)
			}
		})
	}
}

func TestEvalUndefNames(t *testing.T) {
	cases := []struct {
		name string
		src  string
		r    []string
	}{
		{"x", "x", []string{"x"}},
		{"plus", "+x", []string{"x"}},
		{"neg", "-x", []string{"x"}},
		{"not", "not x", []string{"x"}},
		{"add-lhs", "x+1", []string{"x"}},
		{"add-rhs", "1+x", []string{"x"}},
		{"sub-lhs", "x-1", []string{"x"}},
		{"sub-rhs", "1-x", []string{"x"}},
		{"mul-lhs", "x*1", []string{"x"}},
		{"mul-rhs", "1*x", []string{"x"}},
		{"div-lhs", "x/1", []string{"x"}},
		{"div-rhs", "1/x", []string{"x"}},
		{"pow-lhs", "x^1", []string{"x"}},
		{"pow-rhs", "1^x", []string{"x"}},
		{"cmp", "x<1", []string{"x"}},
		{"and", "1 and x", []string{"x"}},
		{"call", "exp(x)", []string{"x"}},
		{"assign", "z := x", []string{"x"}},
	}
	ure := regexp.MustCompile(`(?i)\bundef`)
	vre := regexp.MustCompile(`(?i)\bvar`)
	ctx := nanocalc.NewContext()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a, err := nanocalc.Parse(strings.NewReader(c.src))
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			if v := a.Vars(); !reflect.DeepEqual(c.r, v) {
				t.Errorf("%q gave wrong variables: want %q, got %q", c.src, c.r, v)
			}
			r, err := ctx.Eval(a)
			if r != 0 {
				t.Errorf("evaluating %q gave nonzero result %g", c.src, r)
			}
			if err == nil {
				t.Fatalf("evaluating %q gave no error", c.src)
			}
			u, ok := err.(*nanocalc.NameError)
			if !ok {
				t.Fatalf("error was %#v, not NameError", err)
			}
			msg := err.Error()
			if !ure.MatchString(msg) {
				t.Errorf(`%q doesn't mention "undef"`, msg)
			}
			if !vre.MatchString(msg) {
				t.Errorf(`%q doesn't mention "var"`, msg)
			}
			for _, v := range c.r {
				if v == u.Name {
					xre := regexp.MustCompile(`\b` + v + `\b`)
					if !xre.MatchString(msg) {
						t.Errorf(`%q doesn't mention %q`, msg, v)
					}
					return
				}
			}
			t.Errorf("NameError on %q, not in %q", u.Name, c.r)
		})
	}
}

func TestEvalFuncError(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"sqrt", "sqrt(-1)"},
		{"log", "log(-1)"},
		{"logn", "logn(-1, 2)"},
		{"nested", "1 + 2*asin(3)"},
	}
	ctx := nanocalc.NewContext()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := ctx.Clone()
			a, err := nanocalc.Parse(strings.NewReader(c.src))
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			_, err = ctx.Eval(a)
			if err == nil {
				t.Fatalf("evaluating %q gave no error", c.src)
			}
			if !errors.As(err, new(*nanocalc.DomainError)) {
				t.Errorf("%#v is not *nanocalc.DomainError", err)
			}
			if !regexp.MustCompile(`(?i)\bdomain\b`).MatchString(err.Error()) {
				t.Errorf("%q doesn't mention domain", err.Error())
			}
			// The context is usable after an error.
			b, err := nanocalc.ParseString("1+1")
			if err != nil {
				t.Fatal(err)
			}
			if r, err := ctx.Eval(b); err != nil || r != 2 {
				t.Errorf("evaluation after error gave %g, %v", r, err)
			}
		})
	}
}

func TestEvalOpError(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"div-zero", "0/0"},
		{"div-inf", "inf/inf"},
		{"div-alt-zero", "0÷0"},
		{"div-alt-inf", "inf÷inf"},
		{"mod-zero", "5%0"},
		{"mod-inf", "inf%2"},
		{"pow-neg", "(-1)^0.5"},
		{"pow-neg-frac", "(-8)^(1/3)"},
	}
	ctx := nanocalc.NewContext()
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := ctx.Clone()
			a, err := nanocalc.Parse(strings.NewReader(c.src))
			if err != nil {
				t.Fatalf("%q failed to parse: %v", c.src, err)
			}
			_, err = ctx.Eval(a)
			if err == nil {
				t.Fatalf("evaluating %q gave no error", c.src)
			}
			if _, ok := err.(*nanocalc.DomainError); !ok {
				t.Errorf("%#v is not *nanocalc.DomainError", err)
			}
		})
	}
}

func TestContextVars(t *testing.T) {
	ctx := nanocalc.NewContext(nanocalc.SetVar("x", 0))
	if x, ok := ctx.Lookup("x"); !ok || x != 0 {
		t.Errorf("x should be 0 but is %g (exists: %t)", x, ok)
	}
	if y, ok := ctx.Lookup("y"); ok {
		t.Errorf("context has y: %g", y)
	}
	if err := ctx.Set("y", 1); err != nil {
		t.Fatal(err)
	}
	if x, ok := ctx.Lookup("x"); !ok || x != 0 {
		t.Errorf("x should be 0 but is %g", x)
	}
	if y, ok := ctx.Lookup("y"); !ok || y != 1 {
		t.Errorf("y should be 1 but is %g", y)
	}
	if err := ctx.Set("x", 1); err != nil {
		t.Fatal(err)
	}
	if x, _ := ctx.Lookup("x"); x != 1 {
		t.Errorf("x should be 1 but is %g", x)
	}
	if err := ctx.Set("pi", 3); err == nil {
		t.Error("set a constant without error")
	}
	clone := ctx.Clone(nanocalc.SetVars(map[string]float64{"x": 5, "w": 6}))
	if x, _ := clone.Lookup("x"); x != 5 {
		t.Errorf("clone's x should be 5 but is %g", x)
	}
	if x, _ := ctx.Lookup("x"); x != 1 {
		t.Errorf("cloning changed x to %g", x)
	}
	if _, ok := ctx.Lookup("w"); ok {
		t.Error("cloning defined w in the original")
	}
}

func TestSharedSymbols(t *testing.T) {
	syms := nanocalc.NewSymbolTable().AddConstants()
	ctx := nanocalc.NewContext(nanocalc.WithSymbols(syms))
	if ctx.Symbols() != syms {
		t.Fatal("context doesn't use the given table")
	}
	for _, c := range []struct {
		src string
		r   float64
	}{
		{"z := 2", 2},
		{"z * 3", 6},
		{"w <- z(4)", 8},
		{"w + z", 10},
	} {
		a, err := nanocalc.ParseString(c.src, nanocalc.WithSymbols(syms))
		if err != nil {
			t.Fatalf("%q failed to parse: %v", c.src, err)
		}
		r, err := ctx.Eval(a)
		if err != nil {
			t.Fatalf("%q failed to evaluate: %v", c.src, err)
		}
		if r != c.r {
			t.Errorf("%q: want %g, got %g", c.src, c.r, r)
		}
	}
	if w, ok := syms.Lookup("w"); !ok || w != 8 {
		t.Errorf("table should have w = 8 but has %g (exists: %t)", w, ok)
	}
	want := []string{"e", "epsilon", "pi", "w", "z"}
	var got []string
	for _, s := range syms.Symbols() {
		got = append(got, s.Name)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("wrong symbols: want %q, got %q", want, got)
	}
}

func TestEvalStringShortcut(t *testing.T) {
	r, err := nanocalc.EvalString("x^2 + y", nanocalc.SetVars(map[string]float64{"x": 3, "y": 1}))
	if err != nil {
		t.Fatal(err)
	}
	if r != 10 {
		t.Errorf("want 10, got %g", r)
	}
	syms := nanocalc.NewSymbolTable().AddConstants()
	if _, err := nanocalc.EvalString("f(2)", nanocalc.WithSymbols(syms)); err == nil {
		t.Error("unknown function evaluated without error")
	} else if _, ok := err.(*nanocalc.UnknownFuncError); !ok {
		t.Errorf("want *UnknownFuncError, got %#v", err)
	}
}

func BenchmarkEval(b *testing.B) {
	vars := map[string]float64{
		"x": 2,
		"y": 3,
		"z": 4,
	}
	b.Run("nums", func(b *testing.B) {
		b.ReportAllocs()
		ctx := nanocalc.NewContext()
		a, err := nanocalc.Parse(strings.NewReader("2+3+4"))
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			ctx.Eval(a)
		}
	})
	b.Run("vars", func(b *testing.B) {
		b.ReportAllocs()
		ctx := nanocalc.NewContext(nanocalc.SetVars(vars))
		a, err := nanocalc.Parse(strings.NewReader("x+y+z"))
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			ctx.Eval(a)
		}
	})
	b.Run("calls", func(b *testing.B) {
		b.ReportAllocs()
		ctx := nanocalc.NewContext(nanocalc.SetVars(vars))
		a, err := nanocalc.Parse(strings.NewReader("max(sin x, cos y, hyp(x, z))"))
		if err != nil {
			b.Fatal(err)
		}
		for i := 0; i < b.N; i++ {
			ctx.Eval(a)
		}
	})
}

func Example() {
	var (
		fx   = strings.NewReader("x^3/2 - x")
		dfx  = strings.NewReader("3 x^2/2 - 1")
		ddfx = strings.NewReader("3 x")
	)
	ctx := nanocalc.NewContext()
	a, _ := nanocalc.Parse(fx)
	b, _ := nanocalc.Parse(dfx)
	c, _ := nanocalc.Parse(ddfx)

	for i := 0; i < 4; i++ {
		x := float64(i)
		ctx.Set("x", x)
		y, _ := ctx.Eval(a)
		yp, _ := ctx.Eval(b)
		ypp, _ := ctx.Eval(c)
		fmt.Printf("x = %g   y = %-4g  y' = %-4g  y'' = %g\n", x, y, yp, ypp)
	}

	// Output:
	// x = 0   y = 0     y' = -1    y'' = 0
	// x = 1   y = -0.5  y' = 0.5   y'' = 3
	// x = 2   y = 2     y' = 5     y'' = 6
	// x = 3   y = 10.5  y' = 12.5  y'' = 9
}

func ExampleWithSymbols() {
	syms := nanocalc.NewSymbolTable().AddConstants()
	ctx := nanocalc.NewContext(nanocalc.WithSymbols(syms))
	for _, src := range []string{"r := 2", "area := pi r^2", "area / r"} {
		a, err := nanocalc.ParseString(src, nanocalc.WithSymbols(syms))
		if err != nil {
			fmt.Println(err)
			continue
		}
		v, err := ctx.Eval(a)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("%.4f\n", v)
	}
	// Output:
	// 2.0000
	// 12.5664
	// 6.2832
}
