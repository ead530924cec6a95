package client

import (
	"log/slog"

	"github.com/otairec/otairec/pkg/otai"
)

// setRedisAttribute applies a recorder control carried as a linecard
// attribute. ok is false when attr is not one of them.
func (c *Client) setRedisAttribute(attr otai.Attribute) (st otai.Status, ok bool) {
	switch attr.ID {
	case otai.RedisLinecardAttrRecord:
		return c.setBool(attr, c.rec.Enable), true
	case otai.RedisLinecardAttrRecordStats:
		return c.setBool(attr, c.rec.RecordStats), true
	case otai.RedisLinecardAttrRecordAlarms:
		return c.setBool(attr, c.rec.RecordAlarms), true
	case otai.RedisLinecardAttrPerformLogRotate:
		c.rec.RequestLogRotate()
		return otai.StatusSuccess, true
	case otai.RedisLinecardAttrRecordingOutputDir:
		return c.setString(attr, c.rec.SetOutputDirectory), true
	case otai.RedisLinecardAttrRecordingFilename:
		return c.setString(attr, c.rec.SetFilename), true
	}
	return otai.StatusSuccess, false
}

func (c *Client) setBool(attr otai.Attribute, apply func(bool)) otai.Status {
	v, ok := attr.Value.(bool)
	if !ok {
		slog.Warn("redis linecard attribute needs a bool", "attr", attr.ID, "value", attr.Value)
		return otai.StatusInvalidParameter
	}
	apply(v)
	return otai.StatusSuccess
}

func (c *Client) setString(attr otai.Attribute, apply func(string) bool) otai.Status {
	v, ok := attr.Value.(string)
	if !ok {
		slog.Warn("redis linecard attribute needs a string", "attr", attr.ID, "value", attr.Value)
		return otai.StatusInvalidParameter
	}
	if !apply(v) {
		return otai.StatusFailure
	}
	return otai.StatusSuccess
}
