package factory

import (
	"errors"
	"testing"
)

type sample struct{ A float64 }

type sampleConf struct {
	A float64 `json:"a"`
}

// Test registry registration and instantiation using Decode.
func TestRegistry_Create(t *testing.T) {
	reg := NewRegistry[*sample]()
	if err := reg.Register("s", func(conf map[string]any) (*sample, error) {
		var c sampleConf
		if err := Decode(conf, &c); err != nil {
			return nil, err
		}
		return &sample{A: c.A}, nil
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	inst, err := reg.Create(ModuleConfig{Type: "s", Conf: map[string]any{"a": 3}})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if inst.A != 3 {
		t.Fatalf("expected 3 got %v", inst.A)
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "s" {
		t.Fatalf("unexpected names %v", names)
	}
}

// Test duplicate registration and unknown type errors.
func TestRegistry_Errors(t *testing.T) {
	reg := NewRegistry[int]()
	if err := reg.Register("x", func(map[string]any) (int, error) { return 1, nil }); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("x", func(map[string]any) (int, error) { return 2, nil }); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.Register("y", nil); err == nil {
		t.Fatal("expected nil factory error")
	}
	_, err := reg.Create(ModuleConfig{Type: "y"})
	var ute *UnknownTypeError
	if !errors.As(err, &ute) || ute.Type != "y" {
		t.Fatalf("expected UnknownTypeError, got %v", err)
	}
}

func TestMustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry[int]()
	reg.MustRegister("x", func(map[string]any) (int, error) { return 1, nil })
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	reg.MustRegister("x", func(map[string]any) (int, error) { return 1, nil })
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	var c sampleConf
	if err := Decode(map[string]any{"b": 1}, &c); err == nil {
		t.Fatal("expected error for unused key")
	}
	if err := Decode(map[string]any{"a": "2.5"}, &c); err != nil || c.A != 2.5 {
		t.Fatalf("weak decode: %v %v", err, c.A)
	}
}
