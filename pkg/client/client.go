// Package client wraps an otai.API so every call is recorded.
package client

import (
	"context"

	"github.com/otairec/otairec/pkg/otai"
	"github.com/otairec/otairec/pkg/recorder"
)

// Client records each call's request before issuing it and its response
// after it returns. It implements otai.API.
type Client struct {
	api otai.API
	rec *recorder.Recorder
}

var _ otai.API = (*Client)(nil)

// New wraps api. rec must not be nil.
func New(api otai.API, rec *recorder.Recorder) *Client {
	return &Client{api: api, rec: rec}
}

// Recorder returns the recorder the client writes to.
func (c *Client) Recorder() *recorder.Recorder { return c.rec }

func (c *Client) Create(ctx context.Context, ot otai.ObjectType, id otai.ObjectID, attrs []otai.Attribute) otai.Status {
	p := c.rec.Begin(recorder.CreateRequest(ot, id, attrs))
	st := c.api.Create(ctx, ot, id, attrs)
	p.Complete(recorder.CreateResponse(st, id))
	return st
}

func (c *Client) Remove(ctx context.Context, ot otai.ObjectType, id otai.ObjectID) otai.Status {
	p := c.rec.Begin(recorder.RemoveRequest(ot, id))
	st := c.api.Remove(ctx, ot, id)
	p.Complete(recorder.RemoveResponse(st))
	return st
}

// Set records and forwards attr, except for the redis linecard attributes
// which are applied to the recorder and not sent to the driver.
func (c *Client) Set(ctx context.Context, ot otai.ObjectType, id otai.ObjectID, attr otai.Attribute) otai.Status {
	if ot == otai.ObjectTypeLinecard {
		if st, ok := c.setRedisAttribute(attr); ok {
			return st
		}
	}
	p := c.rec.Begin(recorder.SetRequest(ot, id, attr))
	st := c.api.Set(ctx, ot, id, attr)
	p.Complete(recorder.SetResponse(st))
	return st
}

func (c *Client) Get(ctx context.Context, ot otai.ObjectType, id otai.ObjectID, attrs []otai.Attribute) ([]otai.Attribute, otai.Status) {
	p := c.rec.Begin(recorder.GetRequest(ot, id, attrs))
	got, st := c.api.Get(ctx, ot, id, attrs)
	p.Complete(recorder.GetResponse(st, got))
	return got, st
}

func (c *Client) GetStats(ctx context.Context, ot otai.ObjectType, id otai.ObjectID, counters []otai.StatID) ([]uint64, otai.Status) {
	p := c.rec.Begin(recorder.GetStatsRequest(ot, id, counters))
	values, st := c.api.GetStats(ctx, ot, id, counters)
	p.Complete(recorder.GetStatsResponse(st, values))
	return values, st
}

func (c *Client) ClearStats(ctx context.Context, ot otai.ObjectType, id otai.ObjectID, counters []otai.StatID) otai.Status {
	p := c.rec.Begin(recorder.ClearStatsRequest(ot, id, counters))
	st := c.api.ClearStats(ctx, ot, id, counters)
	p.Complete(recorder.ClearStatsResponse(st))
	return st
}

func (c *Client) BulkCreate(ctx context.Context, ot otai.ObjectType, ids []otai.ObjectID, attrs [][]otai.Attribute) ([]otai.Status, otai.Status) {
	p := c.rec.Begin(recorder.BulkCreateRequest(ot, ids, attrs))
	statuses, st := c.api.BulkCreate(ctx, ot, ids, attrs)
	p.Complete(recorder.BulkResponse(recorder.FamilyBulkCreate, st, statuses))
	return statuses, st
}

func (c *Client) BulkRemove(ctx context.Context, ot otai.ObjectType, ids []otai.ObjectID) ([]otai.Status, otai.Status) {
	p := c.rec.Begin(recorder.BulkRemoveRequest(ot, ids))
	statuses, st := c.api.BulkRemove(ctx, ot, ids)
	p.Complete(recorder.BulkResponse(recorder.FamilyBulkRemove, st, statuses))
	return statuses, st
}

func (c *Client) BulkSet(ctx context.Context, ot otai.ObjectType, ids []otai.ObjectID, attrs []otai.Attribute) ([]otai.Status, otai.Status) {
	p := c.rec.Begin(recorder.BulkSetRequest(ot, ids, attrs))
	statuses, st := c.api.BulkSet(ctx, ot, ids, attrs)
	p.Complete(recorder.BulkResponse(recorder.FamilyBulkSet, st, statuses))
	return statuses, st
}

func (c *Client) ObjectTypeGetAvailability(ctx context.Context, deviceID otai.ObjectID, ot otai.ObjectType, attrs []otai.Attribute) (uint64, otai.Status) {
	p := c.rec.Begin(recorder.AvailabilityRequest(deviceID, ot, attrs))
	n, st := c.api.ObjectTypeGetAvailability(ctx, deviceID, ot, attrs)
	p.Complete(recorder.AvailabilityResponse(st, n))
	return n, st
}

func (c *Client) QueryAttributeCapability(ctx context.Context, deviceID otai.ObjectID, ot otai.ObjectType, attr otai.AttrID) (otai.AttrCapability, otai.Status) {
	p := c.rec.Begin(recorder.AttrCapabilityRequest(deviceID, ot, attr))
	capability, st := c.api.QueryAttributeCapability(ctx, deviceID, ot, attr)
	p.Complete(recorder.AttrCapabilityResponse(st, capability))
	return capability, st
}

func (c *Client) QueryAttributeEnumValuesCapability(ctx context.Context, deviceID otai.ObjectID, ot otai.ObjectType, attr otai.AttrID, values otai.S32List) (otai.S32List, otai.Status) {
	p := c.rec.Begin(recorder.EnumCapabilityRequest(deviceID, ot, attr, values))
	out, st := c.api.QueryAttributeEnumValuesCapability(ctx, deviceID, ot, attr, values)
	p.Complete(recorder.EnumCapabilityResponse(st, out))
	return out, st
}

func (c *Client) NotifySyncd(ctx context.Context, deviceID otai.ObjectID, kind otai.NotifySyncd) otai.Status {
	p := c.rec.Begin(recorder.NotifySyncdRequest(deviceID, kind))
	st := c.api.NotifySyncd(ctx, deviceID, kind)
	p.Complete(recorder.NotifySyncdResponse(st))
	return st
}

// OnNotification records a notification received from the driver.
func (c *Client) OnNotification(name string, data any, attrs []otai.Attribute) {
	c.rec.Record(recorder.NotificationCall(name, data, attrs))
}

// OnSerializedNotification records a notification whose payload and
// fields were already serialized by the transport.
func (c *Client) OnSerializedNotification(name, data string, fields []otai.FieldValue) {
	c.rec.Record(recorder.Notification(name, data, fields))
}
