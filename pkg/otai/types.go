// Package otai holds the OTAI value types the recorder consumes as opaque
// data, together with the serialization helpers that turn them into the
// field/value text shared by the queue transport and the recording log.
package otai

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectType names an OTAI object type, e.g. "PORT" or "LINECARD".
type ObjectType string

// Object types used by the linecard client.
const (
	ObjectTypeLinecard    ObjectType = "LINECARD"
	ObjectTypePort        ObjectType = "PORT"
	ObjectTypeTransceiver ObjectType = "TRANSCEIVER"
	ObjectTypeLogicalCh   ObjectType = "LOGICALCH"
	ObjectTypeOtn         ObjectType = "OTN"
	ObjectTypeEthernet    ObjectType = "ETHERNET"
	ObjectTypePhysicalCh  ObjectType = "PHYSICALCH"
	ObjectTypeOch         ObjectType = "OCH"
	ObjectTypeAmplifier   ObjectType = "AMPLIFIER"
	ObjectTypeOsc         ObjectType = "OSC"
)

// ObjectID is an opaque 64-bit OTAI object identifier.
type ObjectID uint64

// NullObjectID is the OTAI null object id.
const NullObjectID ObjectID = 0

// String renders the id as lower-case hex with a 0x prefix.
func (id ObjectID) String() string {
	return "0x" + strconv.FormatUint(uint64(id), 16)
}

// ParseObjectID parses the form produced by ObjectID.String.
func ParseObjectID(s string) (ObjectID, error) {
	if !strings.HasPrefix(s, "0x") {
		return 0, fmt.Errorf("otai.ParseObjectID: missing 0x prefix in %q", s)
	}
	v, err := strconv.ParseUint(s[2:], 16, 64)
	if err != nil {
		return 0, fmt.Errorf("otai.ParseObjectID: %w", err)
	}
	return ObjectID(v), nil
}

// AttrID names an attribute, e.g. "OTAI_PORT_ATTR_ADMIN_STATE".
type AttrID string

// StatID names a counter, e.g. "OTAI_PORT_STAT_INPUT_POWER".
type StatID string

// Attribute is an (id, value) pair. Value holds a native Go value that
// SerializeValue knows how to render.
type Attribute struct {
	ID    AttrID
	Value any
}

// AttrCapability is the result of an attribute capability query.
type AttrCapability struct {
	CreateImplemented bool
	SetImplemented    bool
	GetImplemented    bool
}

// S32List is an OTAI s32 list. Count is the buffer capacity on input and
// the number of valid entries on output.
type S32List struct {
	Count uint32
	List  []int32
}

// NotifySyncd is an internal control message kind sent to the driver process.
type NotifySyncd string

// Sync-notify kinds.
const (
	NotifySyncdInitView  NotifySyncd = "INIT_VIEW"
	NotifySyncdApplyView NotifySyncd = "APPLY_VIEW"
	NotifySyncdInspect   NotifySyncd = "INSPECT_ASIC"
)

// FieldValue is one (field, value) pair of serialized text. It is the
// exchange format between the transport layer and the recorder.
type FieldValue struct {
	Field string
	Value string
}

// FV is shorthand for building a FieldValue.
func FV(field, value string) FieldValue {
	return FieldValue{Field: field, Value: value}
}

// Redis-specific linecard attributes. A Set of one of these on a LINECARD
// object configures the client itself and is never sent to the driver.
const (
	RedisLinecardAttrRecord             AttrID = "OTAI_REDIS_LINECARD_ATTR_RECORD"
	RedisLinecardAttrRecordingOutputDir AttrID = "OTAI_REDIS_LINECARD_ATTR_RECORDING_OUTPUT_DIR"
	RedisLinecardAttrRecordingFilename  AttrID = "OTAI_REDIS_LINECARD_ATTR_RECORDING_FILENAME"
	RedisLinecardAttrPerformLogRotate   AttrID = "OTAI_REDIS_LINECARD_ATTR_PERFORM_LOG_ROTATE"
	RedisLinecardAttrRecordStats        AttrID = "OTAI_REDIS_LINECARD_ATTR_RECORD_STATS"
	RedisLinecardAttrRecordAlarms       AttrID = "OTAI_REDIS_LINECARD_ATTR_RECORD_ALARMS"
)
