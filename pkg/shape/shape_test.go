package shape

import "testing"

func accountsShape() Shape {
	return Seq(Record(
		Field{Name: "name", Shape: String()},
		Field{Name: "balance", Shape: Int()},
	))
}

func TestStringCanonicalForms(t *testing.T) {
	tests := []struct {
		shape Shape
		want  string
	}{
		{Int(), "INT"},
		{Float(), "FLOAT"},
		{String(), "STRING"},
		{Bool(), "BOOL"},
		{Time(), "TIME"},
		{Unknown(), "UNKNOWN"},
		{Shape{}, "UNKNOWN"},
		{Seq(Int()), "var * INT"},
		{Record(Field{Name: "x", Shape: Int()}), "{x: INT}"},
		{accountsShape(), "var * {name: STRING, balance: INT}"},
	}
	for _, tt := range tests {
		if got := tt.shape.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFieldLookupThroughSequence(t *testing.T) {
	sh := accountsShape()

	f, ok := sh.Field("balance")
	if !ok {
		t.Fatal("Field(balance) not found")
	}
	if f.Shape.Kind != INT_SHAPE {
		t.Errorf("balance shape = %s, want INT", f.Shape)
	}

	idx, ok := sh.FieldIndex("balance")
	if !ok || idx != 1 {
		t.Errorf("FieldIndex(balance) = %d, %v, want 1, true", idx, ok)
	}

	if _, ok := sh.Field("missing"); ok {
		t.Error("Field(missing) found")
	}

	names := sh.FieldNames()
	if len(names) != 2 || names[0] != "name" || names[1] != "balance" {
		t.Errorf("FieldNames() = %v", names)
	}

	if Int().FieldNames() != nil {
		t.Error("FieldNames() on a scalar is not nil")
	}
}

func TestEqualByCanonicalForm(t *testing.T) {
	a := accountsShape()
	b := Seq(Record(
		Field{Name: "name", Shape: String()},
		Field{Name: "balance", Shape: Int()},
	))
	if !a.Equal(b) {
		t.Error("independently built identical shapes are not Equal")
	}
	if a.Equal(Seq(Int())) {
		t.Error("different shapes compare Equal")
	}
}

func TestIsScalar(t *testing.T) {
	if !Int().IsScalar() || !Time().IsScalar() {
		t.Error("scalar kinds not recognized")
	}
	if accountsShape().IsScalar() || Record().IsScalar() {
		t.Error("compound shape reported scalar")
	}
}

func TestElement(t *testing.T) {
	if got := Seq(Bool()).Element(); got.Kind != BOOL_SHAPE {
		t.Errorf("Element() = %s, want BOOL", got)
	}
	if got := Int().Element(); got.Kind != UNKNOWN_SHAPE {
		t.Errorf("Element() on scalar = %s, want UNKNOWN", got)
	}
}
