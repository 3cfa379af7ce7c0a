package coerce

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func TestValueConversions(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		typ  reflect.Type
		want any
	}{
		{"exact type", 7, reflect.TypeOf(0), 7},
		{"json number to int", json.Number("42"), reflect.TypeOf(0), 42},
		{"json number to float", json.Number("1.5"), reflect.TypeOf(0.0), 1.5},
		{"json number to duration", json.Number("5000000000"), reflect.TypeOf(time.Duration(0)), 5 * time.Second},
		{"int64 to int", int64(9), reflect.TypeOf(0), 9},
		{"float64 to float32", float64(2.5), reflect.TypeOf(float32(0)), float32(2.5)},
		{"duration string", "90s", reflect.TypeOf(time.Duration(0)), 90 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Value(tc.raw, tc.typ)
			if err != nil {
				t.Fatalf("value: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %v (%T), got %v (%T)", tc.want, tc.want, got, got)
			}
		})
	}
}

func TestValueRejections(t *testing.T) {
	cases := []struct {
		name string
		raw  any
		typ  reflect.Type
	}{
		{"nil", nil, reflect.TypeOf(0)},
		{"string to int", "7", reflect.TypeOf(0)},
		{"int to string", 65, reflect.TypeOf("")},
		{"bool to int", true, reflect.TypeOf(0)},
		{"negative to uint", json.Number("-1"), reflect.TypeOf(uint(0))},
		{"fraction to int", json.Number("1.5"), reflect.TypeOf(0)},
		{"bad duration string", "fast", reflect.TypeOf(time.Duration(0))},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Value(tc.raw, tc.typ); err == nil {
				t.Fatalf("expected error converting %v to %s", tc.raw, tc.typ)
			}
		})
	}
}
