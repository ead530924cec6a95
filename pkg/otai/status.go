package otai

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is an OTAI status code.
type Status int32

// Status codes.
const (
	StatusSuccess               Status = 0
	StatusFailure               Status = -1
	StatusNotSupported          Status = -2
	StatusNoMemory              Status = -3
	StatusInsufficientResources Status = -4
	StatusInvalidParameter      Status = -5
	StatusItemAlreadyExists     Status = -6
	StatusItemNotFound          Status = -7
	StatusBufferOverflow        Status = -8
	StatusInvalidPortNumber     Status = -9
	StatusInvalidPortMember     Status = -10
	StatusUninitialized         Status = -11
	StatusTableFull             Status = -12
	StatusMandatoryAttrMissing  Status = -13
	StatusNotImplemented        Status = -14
	StatusAddrNotFound          Status = -15
	StatusObjectInUse           Status = -16
	StatusInvalidObjectType     Status = -17
	StatusInvalidObjectID       Status = -18
)

var statusNames = map[Status]string{
	StatusSuccess:               "OTAI_STATUS_SUCCESS",
	StatusFailure:               "OTAI_STATUS_FAILURE",
	StatusNotSupported:          "OTAI_STATUS_NOT_SUPPORTED",
	StatusNoMemory:              "OTAI_STATUS_NO_MEMORY",
	StatusInsufficientResources: "OTAI_STATUS_INSUFFICIENT_RESOURCES",
	StatusInvalidParameter:      "OTAI_STATUS_INVALID_PARAMETER",
	StatusItemAlreadyExists:     "OTAI_STATUS_ITEM_ALREADY_EXISTS",
	StatusItemNotFound:          "OTAI_STATUS_ITEM_NOT_FOUND",
	StatusBufferOverflow:        "OTAI_STATUS_BUFFER_OVERFLOW",
	StatusInvalidPortNumber:     "OTAI_STATUS_INVALID_PORT_NUMBER",
	StatusInvalidPortMember:     "OTAI_STATUS_INVALID_PORT_MEMBER",
	StatusUninitialized:         "OTAI_STATUS_UNINITIALIZED",
	StatusTableFull:             "OTAI_STATUS_TABLE_FULL",
	StatusMandatoryAttrMissing:  "OTAI_STATUS_MANDATORY_ATTRIBUTE_MISSING",
	StatusNotImplemented:        "OTAI_STATUS_NOT_IMPLEMENTED",
	StatusAddrNotFound:          "OTAI_STATUS_ADDR_NOT_FOUND",
	StatusObjectInUse:           "OTAI_STATUS_OBJECT_IN_USE",
	StatusInvalidObjectType:     "OTAI_STATUS_INVALID_OBJECT_TYPE",
	StatusInvalidObjectID:       "OTAI_STATUS_INVALID_OBJECT_ID",
}

const statusUnknownPrefix = "OTAI_STATUS_CODE_"

// String returns the symbolic name. Codes without a name render as
// OTAI_STATUS_CODE_<n> so every value survives a round trip.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return statusUnknownPrefix + strconv.Itoa(int(s))
}

// Success reports whether s is OTAI_STATUS_SUCCESS.
func (s Status) Success() bool { return s == StatusSuccess }

// ParseStatus inverts Status.String.
func ParseStatus(name string) (Status, error) {
	for code, n := range statusNames {
		if n == name {
			return code, nil
		}
	}
	if rest, ok := strings.CutPrefix(name, statusUnknownPrefix); ok {
		v, err := strconv.ParseInt(rest, 10, 32)
		if err == nil {
			return Status(v), nil
		}
	}
	return 0, fmt.Errorf("otai.ParseStatus: unknown status %q", name)
}
