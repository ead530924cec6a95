package recorder

import (
	"testing"

	"github.com/otairec/otairec/pkg/otai"
)

func TestTypedMatchesPreSerialized(t *testing.T) {
	port := otai.ObjectID(0x1000000000001)
	dev := otai.ObjectID(0x21000000000000)
	attrs := []otai.Attribute{
		{ID: "OTAI_PORT_ATTR_ADMIN_STATE", Value: true},
		{ID: "OTAI_PORT_ATTR_LOS_THRESHOLD", Value: -28.5},
	}

	tests := []struct {
		name  string
		typed Call
		raw   Call
	}{
		{
			"create",
			CreateRequest(otai.ObjectTypePort, port, attrs),
			Request(FamilyCreate, "PORT:0x1000000000001", []otai.FieldValue{
				otai.FV("OTAI_PORT_ATTR_ADMIN_STATE", "true"),
				otai.FV("OTAI_PORT_ATTR_LOS_THRESHOLD", "-28.5"),
			}),
		},
		{
			"create response",
			CreateResponse(otai.StatusSuccess, port),
			Response(FamilyCreate, otai.StatusSuccess, []otai.FieldValue{otai.FV("object_id", "0x1000000000001")}),
		},
		{
			"remove",
			RemoveRequest(otai.ObjectTypePort, port),
			Request(FamilyRemove, "PORT:0x1000000000001", nil),
		},
		{
			"remove response",
			RemoveResponse(otai.StatusItemNotFound),
			Response(FamilyRemove, otai.StatusItemNotFound, nil),
		},
		{
			"set",
			SetRequest(otai.ObjectTypePort, port, attrs[1]),
			Request(FamilySet, "PORT:0x1000000000001", []otai.FieldValue{otai.FV("OTAI_PORT_ATTR_LOS_THRESHOLD", "-28.5")}),
		},
		{
			"set response",
			SetResponse(otai.StatusSuccess),
			Response(FamilySet, otai.StatusSuccess, nil),
		},
		{
			"get",
			GetRequest(otai.ObjectTypePort, port, []otai.Attribute{{ID: "OTAI_PORT_ATTR_ADMIN_STATE"}}),
			Request(FamilyGet, "PORT:0x1000000000001", []otai.FieldValue{otai.FV("OTAI_PORT_ATTR_ADMIN_STATE", "")}),
		},
		{
			"get response",
			GetResponse(otai.StatusSuccess, attrs),
			Response(FamilyGet, otai.StatusSuccess, []otai.FieldValue{
				otai.FV("OTAI_PORT_ATTR_ADMIN_STATE", "true"),
				otai.FV("OTAI_PORT_ATTR_LOS_THRESHOLD", "-28.5"),
			}),
		},
		{
			"get stats",
			GetStatsRequest(otai.ObjectTypePort, port, []otai.StatID{"OTAI_PORT_STAT_INPUT_POWER"}),
			Request(FamilyGetStats, "PORT:0x1000000000001", []otai.FieldValue{otai.FV("OTAI_PORT_STAT_INPUT_POWER", "")}),
		},
		{
			"get stats response",
			GetStatsResponse(otai.StatusSuccess, []uint64{7, 9}),
			Response(FamilyGetStats, otai.StatusSuccess, []otai.FieldValue{otai.FV("0", "7"), otai.FV("1", "9")}),
		},
		{
			"clear stats",
			ClearStatsRequest(otai.ObjectTypePort, port, []otai.StatID{"OTAI_PORT_STAT_INPUT_POWER", "OTAI_PORT_STAT_OUTPUT_POWER"}),
			Request(FamilyClearStats, "PORT:0x1000000000001", []otai.FieldValue{
				otai.FV("OTAI_PORT_STAT_INPUT_POWER", ""),
				otai.FV("OTAI_PORT_STAT_OUTPUT_POWER", ""),
			}),
		},
		{
			"clear stats response",
			ClearStatsResponse(otai.StatusSuccess),
			Response(FamilyClearStats, otai.StatusSuccess, nil),
		},
		{
			"bulk create",
			BulkCreateRequest(otai.ObjectTypeOch, []otai.ObjectID{1, 2}, [][]otai.Attribute{attrs, attrs[:1]}),
			Request(FamilyBulkCreate, "OCH:0x1,OCH:0x2", BulkFields([]string{"OCH:0x1", "OCH:0x2"}, [][]otai.FieldValue{
				{otai.FV("OTAI_PORT_ATTR_ADMIN_STATE", "true"), otai.FV("OTAI_PORT_ATTR_LOS_THRESHOLD", "-28.5")},
				{otai.FV("OTAI_PORT_ATTR_ADMIN_STATE", "true")},
			})),
		},
		{
			"bulk set",
			BulkSetRequest(otai.ObjectTypeOch, []otai.ObjectID{1, 2}, attrs),
			Request(FamilyBulkSet, "OCH:0x1,OCH:0x2", BulkFields([]string{"OCH:0x1", "OCH:0x2"}, [][]otai.FieldValue{
				{otai.FV("OTAI_PORT_ATTR_ADMIN_STATE", "true")},
				{otai.FV("OTAI_PORT_ATTR_LOS_THRESHOLD", "-28.5")},
			})),
		},
		{
			"bulk remove",
			BulkRemoveRequest(otai.ObjectTypeOch, []otai.ObjectID{1, 2}),
			Request(FamilyBulkRemove, "OCH:0x1,OCH:0x2", []otai.FieldValue{otai.FV("OCH:0x1", ""), otai.FV("OCH:0x2", "")}),
		},
		{
			"bulk response",
			BulkResponse(FamilyBulkRemove, otai.StatusFailure, []otai.Status{otai.StatusSuccess, otai.StatusItemNotFound}),
			Response(FamilyBulkRemove, otai.StatusFailure, []otai.FieldValue{
				otai.FV("0", "OTAI_STATUS_SUCCESS"),
				otai.FV("1", "OTAI_STATUS_ITEM_NOT_FOUND"),
			}),
		},
		{
			"availability",
			AvailabilityRequest(dev, otai.ObjectTypeOch, nil),
			Request(FamilyAvailability, "OCH:0x21000000000000", []otai.FieldValue{}),
		},
		{
			"availability response",
			AvailabilityResponse(otai.StatusSuccess, 12),
			Response(FamilyAvailability, otai.StatusSuccess, []otai.FieldValue{otai.FV("count", "12")}),
		},
		{
			"attr capability",
			AttrCapabilityRequest(dev, otai.ObjectTypePort, "OTAI_PORT_ATTR_TYPE"),
			Request(FamilyAttrCapability, "PORT:0x21000000000000", []otai.FieldValue{otai.FV("attr_id", "OTAI_PORT_ATTR_TYPE")}),
		},
		{
			"attr capability response",
			AttrCapabilityResponse(otai.StatusSuccess, otai.AttrCapability{SetImplemented: true}),
			Response(FamilyAttrCapability, otai.StatusSuccess, []otai.FieldValue{
				otai.FV("create_implemented", "false"),
				otai.FV("set_implemented", "true"),
				otai.FV("get_implemented", "false"),
			}),
		},
		{
			"enum capability",
			EnumCapabilityRequest(dev, otai.ObjectTypePort, "OTAI_PORT_ATTR_TYPE", otai.S32List{Count: 4}),
			Request(FamilyEnumCapability, "PORT:0x21000000000000", []otai.FieldValue{
				otai.FV("attr_id", "OTAI_PORT_ATTR_TYPE"),
				otai.FV("enum_values", "4:null"),
			}),
		},
		{
			"enum capability response",
			EnumCapabilityResponse(otai.StatusSuccess, otai.S32List{Count: 2, List: []int32{1, 3}}),
			Response(FamilyEnumCapability, otai.StatusSuccess, []otai.FieldValue{otai.FV("enum_values", "2:1,3")}),
		},
		{
			"notification",
			NotificationCall("linecard_alarm", "{\"severity\":\"major\"}", nil),
			Notification("linecard_alarm", "{\"severity\":\"major\"}", nil),
		},
		{
			"notify syncd",
			NotifySyncdRequest(dev, otai.NotifySyncdApplyView),
			Request(FamilyNotifySyncd, "APPLY_VIEW", []otai.FieldValue{otai.FV("device_id", "0x21000000000000")}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			typed := FormatLine(Entry{Timestamp: "ts", Call: tt.typed})
			raw := FormatLine(Entry{Timestamp: "ts", Call: tt.raw})
			if typed != raw {
				t.Errorf("typed and pre-serialized differ:\n typed %s\n   raw %s", typed, raw)
			}
		})
	}
}

func TestCreateResponseOmitsIDOnFailure(t *testing.T) {
	c := CreateResponse(otai.StatusInvalidParameter, 0x10)
	if c.Key != "OTAI_STATUS_INVALID_PARAMETER" {
		t.Errorf("key = %q", c.Key)
	}
	if len(c.Fields) != 0 {
		t.Errorf("failed create echoed fields %+v", c.Fields)
	}
}

func TestBulkCreateNestsAttributes(t *testing.T) {
	c := BulkCreateRequest(otai.ObjectTypePort, []otai.ObjectID{1, 2}, [][]otai.Attribute{
		{{ID: "A", Value: 1}, {ID: "B", Value: "x|y"}},
		{{ID: "A", Value: 2}},
	})
	if c.Tag != TagBulkCreate || c.Key != "PORT:0x1,PORT:0x2" {
		t.Fatalf("call = %+v", c)
	}
	inner, err := DecodeFields(c.Fields[0].Value)
	if err != nil {
		t.Fatal(err)
	}
	if len(inner) != 2 || inner[1].Value != "x|y" {
		t.Errorf("decoded %+v", inner)
	}
}

func TestAttrCapabilityResponse(t *testing.T) {
	c := AttrCapabilityResponse(otai.StatusSuccess, otai.AttrCapability{CreateImplemented: true, GetImplemented: true})
	want := "AC|OTAI_STATUS_SUCCESS|create_implemented=true|set_implemented=false|get_implemented=true"
	if got := c.String(); got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}
