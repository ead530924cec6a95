package recorder

import (
	"strconv"
	"strings"

	"github.com/otairec/otairec/pkg/otai"
)

// Field names used by typed constructors.
const (
	FieldObjectID          = "object_id"
	FieldCount             = "count"
	FieldAttrID            = "attr_id"
	FieldEnumValues        = "enum_values"
	FieldCreateImplemented = "create_implemented"
	FieldSetImplemented    = "set_implemented"
	FieldGetImplemented    = "get_implemented"
	FieldData              = "data"
	FieldDeviceID          = "device_id"
)

// Request builds a request call from an already serialized key and field
// list.
func Request(f Family, key string, fields []otai.FieldValue) Call {
	return Call{Tag: f.RequestTag(), Key: key, Fields: fields}
}

// Response builds a response call. The status name takes the key column.
func Response(f Family, status otai.Status, fields []otai.FieldValue) Call {
	return Call{Tag: f.ResponseTag(), Key: status.String(), Fields: fields}
}

// Notification builds a notification call from a serialized payload.
func Notification(name, data string, fields []otai.FieldValue) Call {
	out := make([]otai.FieldValue, 0, len(fields)+1)
	out = append(out, otai.FV(FieldData, data))
	out = append(out, fields...)
	return Call{Tag: TagNotification, Key: name, Fields: out}
}

// BulkKey joins object keys into the key column of a bulk request.
func BulkKey(keys []string) string {
	return strings.Join(keys, ",")
}

// BulkFields builds one field per object, named by the object key, whose
// value is that object's fields nested with EncodeFields. data may be
// shorter than keys; missing entries encode as empty.
func BulkFields(keys []string, data [][]otai.FieldValue) []otai.FieldValue {
	out := make([]otai.FieldValue, len(keys))
	for i, k := range keys {
		var v string
		if i < len(data) {
			v = EncodeFields(data[i])
		}
		out[i] = otai.FV(k, v)
	}
	return out
}

func objectKeys(ot otai.ObjectType, ids []otai.ObjectID) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = otai.ObjectKey(ot, id)
	}
	return keys
}

func indexed(values []string) []otai.FieldValue {
	out := make([]otai.FieldValue, len(values))
	for i, v := range values {
		out[i] = otai.FV(strconv.Itoa(i), v)
	}
	return out
}

// CreateRequest records a create of id with its initial attributes.
func CreateRequest(ot otai.ObjectType, id otai.ObjectID, attrs []otai.Attribute) Call {
	return Request(FamilyCreate, otai.ObjectKey(ot, id), otai.SerializeAttributes(attrs))
}

// CreateResponse echoes the object id only when the create succeeded.
func CreateResponse(status otai.Status, id otai.ObjectID) Call {
	var fields []otai.FieldValue
	if status.Success() {
		fields = []otai.FieldValue{otai.FV(FieldObjectID, id.String())}
	}
	return Response(FamilyCreate, status, fields)
}

// RemoveRequest records a remove of one object.
func RemoveRequest(ot otai.ObjectType, id otai.ObjectID) Call {
	return Request(FamilyRemove, otai.ObjectKey(ot, id), nil)
}

// RemoveResponse records the status of a remove.
func RemoveResponse(status otai.Status) Call {
	return Response(FamilyRemove, status, nil)
}

// SetRequest records a single-attribute set.
func SetRequest(ot otai.ObjectType, id otai.ObjectID, attr otai.Attribute) Call {
	return Request(FamilySet, otai.ObjectKey(ot, id), []otai.FieldValue{otai.SerializeAttribute(attr)})
}

// SetResponse records the status of a set.
func SetResponse(status otai.Status) Call {
	return Response(FamilySet, status, nil)
}

// GetRequest records the attribute ids being queried. Values are
// serialized too, so callers passing value buffers see them recorded.
func GetRequest(ot otai.ObjectType, id otai.ObjectID, attrs []otai.Attribute) Call {
	return Request(FamilyGet, otai.ObjectKey(ot, id), otai.SerializeAttributes(attrs))
}

// GetResponse records the returned attribute values.
func GetResponse(status otai.Status, attrs []otai.Attribute) Call {
	return Response(FamilyGet, status, otai.SerializeAttributes(attrs))
}

// GetStatsRequest records the counter ids being read.
func GetStatsRequest(ot otai.ObjectType, id otai.ObjectID, counters []otai.StatID) Call {
	return Request(FamilyGetStats, otai.ObjectKey(ot, id), otai.SerializeStatIDs(counters))
}

// GetStatsResponse records counter values by position in the request.
func GetStatsResponse(status otai.Status, values []uint64) Call {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = strconv.FormatUint(v, 10)
	}
	return Response(FamilyGetStats, status, indexed(s))
}

// ClearStatsRequest records the counter ids being cleared.
func ClearStatsRequest(ot otai.ObjectType, id otai.ObjectID, counters []otai.StatID) Call {
	return Request(FamilyClearStats, otai.ObjectKey(ot, id), otai.SerializeStatIDs(counters))
}

// ClearStatsResponse records the status of a clear-stats call.
func ClearStatsResponse(status otai.Status) Call {
	return Response(FamilyClearStats, status, nil)
}

// BulkCreateRequest pairs ids[i] with the attribute list attrs[i].
func BulkCreateRequest(ot otai.ObjectType, ids []otai.ObjectID, attrs [][]otai.Attribute) Call {
	keys := objectKeys(ot, ids)
	data := make([][]otai.FieldValue, len(attrs))
	for i, a := range attrs {
		data[i] = otai.SerializeAttributes(a)
	}
	return Request(FamilyBulkCreate, BulkKey(keys), BulkFields(keys, data))
}

// BulkRemoveRequest records the keys of the objects being removed.
func BulkRemoveRequest(ot otai.ObjectType, ids []otai.ObjectID) Call {
	keys := objectKeys(ot, ids)
	return Request(FamilyBulkRemove, BulkKey(keys), BulkFields(keys, nil))
}

// BulkSetRequest pairs ids[i] with attrs[i].
func BulkSetRequest(ot otai.ObjectType, ids []otai.ObjectID, attrs []otai.Attribute) Call {
	keys := objectKeys(ot, ids)
	data := make([][]otai.FieldValue, len(attrs))
	for i, a := range attrs {
		data[i] = []otai.FieldValue{otai.SerializeAttribute(a)}
	}
	return Request(FamilyBulkSet, BulkKey(keys), BulkFields(keys, data))
}

// BulkResponse records the overall status in the key column and one
// per-object status per field. f must be one of the bulk families.
func BulkResponse(f Family, status otai.Status, statuses []otai.Status) Call {
	s := make([]string, len(statuses))
	for i, st := range statuses {
		s[i] = st.String()
	}
	return Response(f, status, indexed(s))
}

// AvailabilityRequest records an object-type availability query.
func AvailabilityRequest(deviceID otai.ObjectID, ot otai.ObjectType, attrs []otai.Attribute) Call {
	return Request(FamilyAvailability, otai.ObjectKey(ot, deviceID), otai.SerializeAttributes(attrs))
}

// AvailabilityResponse records the available object count.
func AvailabilityResponse(status otai.Status, count uint64) Call {
	return Response(FamilyAvailability, status, []otai.FieldValue{
		otai.FV(FieldCount, strconv.FormatUint(count, 10)),
	})
}

// AttrCapabilityRequest records an attribute capability query.
func AttrCapabilityRequest(deviceID otai.ObjectID, ot otai.ObjectType, attr otai.AttrID) Call {
	return Request(FamilyAttrCapability, otai.ObjectKey(ot, deviceID), []otai.FieldValue{
		otai.FV(FieldAttrID, string(attr)),
	})
}

// AttrCapabilityResponse records the capability flags of an attribute.
func AttrCapabilityResponse(status otai.Status, c otai.AttrCapability) Call {
	return Response(FamilyAttrCapability, status, []otai.FieldValue{
		otai.FV(FieldCreateImplemented, strconv.FormatBool(c.CreateImplemented)),
		otai.FV(FieldSetImplemented, strconv.FormatBool(c.SetImplemented)),
		otai.FV(FieldGetImplemented, strconv.FormatBool(c.GetImplemented)),
	})
}

// EnumCapabilityRequest records an enum capability query with its
// value buffer as passed in.
func EnumCapabilityRequest(deviceID otai.ObjectID, ot otai.ObjectType, attr otai.AttrID, values otai.S32List) Call {
	return Request(FamilyEnumCapability, otai.ObjectKey(ot, deviceID), []otai.FieldValue{
		otai.FV(FieldAttrID, string(attr)),
		otai.FV(FieldEnumValues, otai.SerializeS32List(values)),
	})
}

// EnumCapabilityResponse records the supported enum values.
func EnumCapabilityResponse(status otai.Status, values otai.S32List) Call {
	return Response(FamilyEnumCapability, status, []otai.FieldValue{
		otai.FV(FieldEnumValues, otai.SerializeS32List(values)),
	})
}

// NotificationCall is the typed form of Notification.
func NotificationCall(name string, data any, attrs []otai.Attribute) Call {
	return Notification(name, otai.SerializeValue(data), otai.SerializeAttributes(attrs))
}

// NotifySyncdRequest records a sync-notify message to the driver.
func NotifySyncdRequest(deviceID otai.ObjectID, kind otai.NotifySyncd) Call {
	return Request(FamilyNotifySyncd, string(kind), []otai.FieldValue{
		otai.FV(FieldDeviceID, deviceID.String()),
	})
}

// NotifySyncdResponse records the status of a sync-notify message.
func NotifySyncdResponse(status otai.Status) Call {
	return Response(FamilyNotifySyncd, status, nil)
}
