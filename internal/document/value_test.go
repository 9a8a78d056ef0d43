package document

import (
	"encoding/json"
	"math"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	cases := map[string]Value{
		"null":           NullValue(),
		"bool":           BoolValue(true),
		"number":         NumberValue(42.5),
		"string":         StringValue("pods crashing"),
		"non-ascii":      StringValue("журнал ошибок: 訁斷 — naïve"),
		"empty sequence": SequenceValue(),
		"empty mapping":  MappingValue(map[string]Value{}),
		"nested": MappingValue(map[string]Value{
			"services": SequenceValue(StringValue("api"), StringValue("worker")),
			"restarts": NumberValue(17),
			"fatal":    BoolValue(false),
			"detail": MappingValue(map[string]Value{
				"namespace": StringValue("prod"),
				"notes":     SequenceValue(NullValue(), StringValue("oomkilled")),
			}),
		}),
	}

	for name, v := range cases {
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("%s: marshal failed: %v", name, err)
		}
		var back Value
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("%s: unmarshal failed: %v", name, err)
		}
		if !v.Equal(back) {
			t.Errorf("%s: round trip mismatch: %s", name, data)
		}
	}
}

func TestCanonicalKeyOrder(t *testing.T) {
	v := MappingValue(map[string]Value{
		"zebra": NumberValue(1),
		"alpha": NumberValue(2),
		"mike":  NumberValue(3),
	})

	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	want := `{"alpha":2,"mike":3,"zebra":1}`
	if string(data) != want {
		t.Errorf("canonical form mismatch: got %s, want %s", data, want)
	}

	// Canonical output must be stable across repeated serialization.
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}
		if string(again) != want {
			t.Errorf("serialization not stable: got %s", again)
		}
	}
}

func TestZeroValueIsNull(t *testing.T) {
	var v Value
	if !v.IsNull() {
		t.Errorf("zero Value should be null, got %s", v.Kind())
	}
	if !v.Equal(NullValue()) {
		t.Error("zero Value should equal NullValue()")
	}
}

func TestEqualDistinguishesKinds(t *testing.T) {
	if BoolValue(false).Equal(NullValue()) {
		t.Error("false should not equal null")
	}
	if NumberValue(0).Equal(StringValue("0")) {
		t.Error("number 0 should not equal string \"0\"")
	}
	if SequenceValue().Equal(MappingValue(nil)) {
		t.Error("empty sequence should not equal empty mapping")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	orig := MappingValue(map[string]Value{
		"list": SequenceValue(StringValue("a")),
	})
	cp := orig.Clone()

	m, _ := orig.AsMapping()
	seq, _ := m["list"].AsSequence()
	seq[0] = StringValue("mutated")

	cm, _ := cp.AsMapping()
	cseq, _ := cm["list"].AsSequence()
	if s, _ := cseq[0].AsString(); s != "a" {
		t.Errorf("clone shares storage with original: got %q", s)
	}
}

func TestUnmarshalRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "{", "[1,", "nul", "'x'"} {
		var v Value
		if err := json.Unmarshal([]byte(bad), &v); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestNonFiniteNumbersRejected(t *testing.T) {
	inf := NumberValue(math.Inf(1))
	if _, err := json.Marshal(inf); err == nil {
		t.Error("expected error serializing +Inf")
	}
}
