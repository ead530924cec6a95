package recorder

import "fmt"

// Family identifies an operation family. Each family has a request tag
// and, except notifications, a response tag.
type Family int

// Operation families.
const (
	FamilyCreate Family = iota
	FamilyRemove
	FamilySet
	FamilyGet
	FamilyGetStats
	FamilyClearStats
	FamilyBulkCreate
	FamilyBulkRemove
	FamilyBulkSet
	FamilyAvailability
	FamilyAttrCapability
	FamilyEnumCapability
	FamilyNotification
	FamilyNotifySyncd
)

// Tag is the operation tag written in the second column of every line.
// Request tags are lower case, response tags upper case.
type Tag string

// Line tags.
const (
	TagCreate                 Tag = "c"
	TagCreateResponse         Tag = "C"
	TagRemove                 Tag = "r"
	TagRemoveResponse         Tag = "R"
	TagSet                    Tag = "s"
	TagSetResponse            Tag = "S"
	TagGet                    Tag = "g"
	TagGetResponse            Tag = "G"
	TagGetStats               Tag = "t"
	TagGetStatsResponse       Tag = "T"
	TagClearStats             Tag = "x"
	TagClearStatsResponse     Tag = "X"
	TagBulkCreate             Tag = "bc"
	TagBulkCreateResponse     Tag = "BC"
	TagBulkRemove             Tag = "br"
	TagBulkRemoveResponse     Tag = "BR"
	TagBulkSet                Tag = "bs"
	TagBulkSetResponse        Tag = "BS"
	TagAvailability           Tag = "oa"
	TagAvailabilityResponse   Tag = "OA"
	TagAttrCapability         Tag = "ac"
	TagAttrCapabilityResponse Tag = "AC"
	TagEnumCapability         Tag = "ev"
	TagEnumCapabilityResponse Tag = "EV"
	TagNotification           Tag = "n"
	TagNotifySyncd            Tag = "a"
	TagNotifySyncdResponse    Tag = "A"
)

type familyInfo struct {
	name     string
	request  Tag
	response Tag
}

var families = map[Family]familyInfo{
	FamilyCreate:         {"create", TagCreate, TagCreateResponse},
	FamilyRemove:         {"remove", TagRemove, TagRemoveResponse},
	FamilySet:            {"set", TagSet, TagSetResponse},
	FamilyGet:            {"get", TagGet, TagGetResponse},
	FamilyGetStats:       {"get_stats", TagGetStats, TagGetStatsResponse},
	FamilyClearStats:     {"clear_stats", TagClearStats, TagClearStatsResponse},
	FamilyBulkCreate:     {"bulk_create", TagBulkCreate, TagBulkCreateResponse},
	FamilyBulkRemove:     {"bulk_remove", TagBulkRemove, TagBulkRemoveResponse},
	FamilyBulkSet:        {"bulk_set", TagBulkSet, TagBulkSetResponse},
	FamilyAvailability:   {"object_type_get_availability", TagAvailability, TagAvailabilityResponse},
	FamilyAttrCapability: {"query_attribute_capability", TagAttrCapability, TagAttrCapabilityResponse},
	FamilyEnumCapability: {"query_attribute_enum_values_capability", TagEnumCapability, TagEnumCapabilityResponse},
	FamilyNotification:   {"notification", TagNotification, ""},
	FamilyNotifySyncd:    {"notify_syncd", TagNotifySyncd, TagNotifySyncdResponse},
}

type tagInfo struct {
	family   Family
	response bool
}

var tags = func() map[Tag]tagInfo {
	m := make(map[Tag]tagInfo, 2*len(families))
	for f, info := range families {
		m[info.request] = tagInfo{family: f}
		if info.response != "" {
			m[info.response] = tagInfo{family: f, response: true}
		}
	}
	return m
}()

func (f Family) String() string {
	if info, ok := families[f]; ok {
		return info.name
	}
	return fmt.Sprintf("family(%d)", int(f))
}

// RequestTag returns the tag used for request lines of f.
func (f Family) RequestTag() Tag { return families[f].request }

// ResponseTag returns the tag used for response lines of f. Notifications
// have no response and return the empty tag.
func (f Family) ResponseTag() Tag { return families[f].response }

// IsStats reports whether f is gated by the stats-recording flag.
func (f Family) IsStats() bool {
	return f == FamilyGetStats || f == FamilyClearStats
}

// Valid reports whether t is a known tag.
func (t Tag) Valid() bool {
	_, ok := tags[t]
	return ok
}

// Family returns the family t belongs to.
func (t Tag) Family() Family { return tags[t].family }

// IsResponse reports whether t tags a response line.
func (t Tag) IsResponse() bool { return tags[t].response }
