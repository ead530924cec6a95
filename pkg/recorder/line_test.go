package recorder

import (
	"errors"
	"reflect"
	"testing"

	"github.com/otairec/otairec/pkg/otai"
)

func TestFormatLine(t *testing.T) {
	e := Entry{
		Timestamp: "2026-01-02.03:04:05.000006",
		Call: Call{
			Tag: TagCreate,
			Key: "PORT:0x1000000000001",
			Fields: []otai.FieldValue{
				otai.FV("OTAI_PORT_ATTR_ADMIN_STATE", "true"),
				otai.FV("OTAI_PORT_ATTR_DESCRIPTION", "uplink|a=b"),
			},
		},
	}
	want := `2026-01-02.03:04:05.000006|c|PORT:0x1000000000001|OTAI_PORT_ATTR_ADMIN_STATE=true|OTAI_PORT_ATTR_DESCRIPTION=uplink\|a=b`
	if got := FormatLine(e); got != want {
		t.Fatalf("FormatLine:\n got %s\nwant %s", got, want)
	}
}

func TestLineRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		call Call
	}{
		{"no fields", Call{Tag: TagRemove, Key: "OCH:0x5"}},
		{"empty values", Call{Tag: TagGet, Key: "PORT:0x1", Fields: []otai.FieldValue{otai.FV("A", ""), otai.FV("B", "")}}},
		{"pipes and backslashes", Call{Tag: TagSet, Key: `k|\x`, Fields: []otai.FieldValue{otai.FV(`f\|`, `v|\|\`)}}},
		{"equals in name", Call{Tag: TagSet, Key: "k", Fields: []otai.FieldValue{otai.FV("a=b", "c=d=e")}}},
		{"line breaks", Call{Tag: TagNotification, Key: "n", Fields: []otai.FieldValue{otai.FV("data", "line1\nline2\r\n")}}},
		{"response", Call{Tag: TagGetResponse, Key: "OTAI_STATUS_SUCCESS", Fields: []otai.FieldValue{otai.FV("X", "1")}}},
		{"empty key", Call{Tag: TagBulkRemove, Key: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := Entry{Timestamp: "2026-10-15.12:00:00.000000", Call: tt.call}
			line := FormatLine(in)
			out, err := ParseLine(line + "\n")
			if err != nil {
				t.Fatalf("ParseLine(%q): %v", line, err)
			}
			if !reflect.DeepEqual(in, out) {
				t.Errorf("round trip mismatch:\n in %+v\nout %+v", in, out)
			}
		})
	}
}

func TestNestedFieldsRoundTrip(t *testing.T) {
	inner := []otai.FieldValue{
		otai.FV("OTAI_PORT_ATTR_DESCRIPTION", "a|b"),
		otai.FV("OTAI_PORT_ATTR_ADMIN_STATE", "true"),
	}
	c := Request(FamilyBulkSet, "PORT:0x1,PORT:0x2", BulkFields([]string{"PORT:0x1", "PORT:0x2"}, [][]otai.FieldValue{inner, nil}))
	e, err := ParseLine(FormatLine(Entry{Timestamp: "t", Call: c}))
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Fields) != 2 {
		t.Fatalf("got %d fields, want 2", len(e.Fields))
	}
	got, err := DecodeFields(e.Fields[0].Value)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, inner) {
		t.Errorf("nested fields = %+v, want %+v", got, inner)
	}
	if e.Fields[1].Value != "" {
		t.Errorf("empty object data = %q", e.Fields[1].Value)
	}
}

func TestParseLineMalformed(t *testing.T) {
	for _, line := range []string{
		"",
		"ts|c",
		"ts|zz|key",
		"ts|c|key|novalue",
		`ts|c|key|a=b\`,
		`ts|c|key|a=\q`,
		"ts|c|key|a=b\rc",
	} {
		if _, err := ParseLine(line); !errors.Is(err, ErrMalformedLine) {
			t.Errorf("ParseLine(%q) err = %v, want ErrMalformedLine", line, err)
		}
	}
}

func TestTimestamp(t *testing.T) {
	ts := Timestamp(testEpoch)
	if len(ts) != 26 {
		t.Fatalf("timestamp %q has length %d", ts, len(ts))
	}
	back, err := ParseTimestamp(ts)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(testEpoch) {
		t.Errorf("ParseTimestamp(%q) = %v, want %v", ts, back, testEpoch)
	}
	if later := Timestamp(testEpoch.Add(1500)); later <= ts {
		t.Errorf("timestamps do not sort: %q <= %q", later, ts)
	}
}

func TestTags(t *testing.T) {
	for f := FamilyCreate; f <= FamilyNotifySyncd; f++ {
		req := f.RequestTag()
		if !req.Valid() || req.IsResponse() || req.Family() != f {
			t.Errorf("%s: bad request tag %q", f, req)
		}
		if f == FamilyNotification {
			if f.ResponseTag() != "" {
				t.Errorf("notification has response tag %q", f.ResponseTag())
			}
			continue
		}
		resp := f.ResponseTag()
		if !resp.Valid() || !resp.IsResponse() || resp.Family() != f {
			t.Errorf("%s: bad response tag %q", f, resp)
		}
	}
	if Tag("q").Valid() {
		t.Error("unknown tag reported valid")
	}
}
