package value

import "testing"

type fakeCallable struct{ name string }

func (f fakeCallable) CallableName() string { return f.name }

func TestIsTruthy(t *testing.T) {
	cases := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{false, false},
		{true, true},
		{0.0, true},
		{String(""), true},
		{ConstString("x"), true},
	}
	for _, c := range cases {
		if got := IsTruthy(c.in); got != c.want {
			t.Errorf("IsTruthy(%#v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestEqualAcrossStringVariants(t *testing.T) {
	if !Equal(String("hi"), ConstString("hi")) {
		t.Fatalf("expected String and ConstString with same contents to compare equal")
	}
	if Equal(String("hi"), String("bye")) {
		t.Fatalf("expected differing contents to compare unequal")
	}
}

func TestEqualDifferentVariantsUnequal(t *testing.T) {
	if Equal(1.0, String("1")) {
		t.Fatalf("Number and String must never compare equal regardless of contents")
	}
	if Equal(nil, false) {
		t.Fatalf("Nil and Bool(false) are distinct variants")
	}
}

func TestEqualNaN(t *testing.T) {
	nan := nanValue()
	if Equal(nan, nan) {
		t.Fatalf("NaN must not equal itself per bitwise float equality")
	}
}

func nanValue() float64 {
	return zero() / zero()
}

func zero() float64 { return 0.0 }

func TestEqualFunctionsNeverEqual(t *testing.T) {
	f := fakeCallable{name: "f"}
	if Equal(f, f) {
		t.Fatalf("functions must never be equal to anything, even themselves")
	}
}

func TestTypeName(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{nil, "Nil"},
		{true, "Bool"},
		{1.0, "Number"},
		{String("a"), "String"},
		{ConstString("a"), "ConstString"},
		{fakeCallable{name: "f"}, "Function"},
	}
	for _, c := range cases {
		if got := TypeName(c.in); got != c.want {
			t.Errorf("TypeName(%#v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestStringify(t *testing.T) {
	if Stringify(1.5) != "1.5" {
		t.Fatalf("expected 1.5, got %q", Stringify(1.5))
	}
	if Stringify(nil) != "nil" {
		t.Fatalf("expected nil, got %q", Stringify(nil))
	}
	if Stringify(fakeCallable{name: "inc"}) != "<fn inc>" {
		t.Fatalf("expected <fn inc>, got %q", Stringify(fakeCallable{name: "inc"}))
	}
}
