package rest

import (
	"encoding/json"
	"testing"
)

func TestFieldsJSONPreservesOrder(t *testing.T) {
	fields := Fields{F("z", "26"), F("a", "1"), F("m", "13")}
	raw, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"z":"26","a":"1","m":"13"}`; string(raw) != want {
		t.Fatalf("json %s, want %s", raw, want)
	}
}

func TestFieldsJSONRoundTrip(t *testing.T) {
	fields := Fields{F("phone_number", "15551234567"), F("message", "hello world"), F("type", "ARN")}
	raw, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]string
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != len(fields) {
		t.Fatalf("decoded %d entries, want %d", len(decoded), len(fields))
	}
	for _, f := range fields {
		if decoded[f.Key] != f.Value {
			t.Fatalf("key %q: got %q, want %q", f.Key, decoded[f.Key], f.Value)
		}
	}
}

func TestFieldsJSONEscaping(t *testing.T) {
	raw, err := json.Marshal(Fields{F(`qu"ote`, "line\nbreak")})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if want := `{"qu\"ote":"line\nbreak"}`; string(raw) != want {
		t.Fatalf("json %s, want %s", raw, want)
	}
}

func TestFieldsEncode(t *testing.T) {
	cases := []struct {
		name   string
		fields Fields
		want   string
	}{
		{"empty", nil, ""},
		{"single", Fields{F("a", "1")}, "a=1"},
		{"ordered", Fields{F("b", "2"), F("a", "1")}, "b=2&a=1"},
		{"escaped", Fields{F("msg", "hello world"), F("sym", "a&b=c")}, "msg=hello+world&sym=a%26b%3Dc"},
	}
	for _, tc := range cases {
		if got := tc.fields.Encode(); got != tc.want {
			t.Fatalf("%s: encoded %q, want %q", tc.name, got, tc.want)
		}
	}
}
