package otai

import "context"

// API is the call surface the control-plane client issues to the driver
// process over the queue channel. Object ids passed to Create are already
// allocated by the caller.
type API interface {
	Create(ctx context.Context, ot ObjectType, id ObjectID, attrs []Attribute) Status
	Remove(ctx context.Context, ot ObjectType, id ObjectID) Status
	Set(ctx context.Context, ot ObjectType, id ObjectID, attr Attribute) Status
	Get(ctx context.Context, ot ObjectType, id ObjectID, attrs []Attribute) ([]Attribute, Status)

	GetStats(ctx context.Context, ot ObjectType, id ObjectID, counters []StatID) ([]uint64, Status)
	ClearStats(ctx context.Context, ot ObjectType, id ObjectID, counters []StatID) Status

	BulkCreate(ctx context.Context, ot ObjectType, ids []ObjectID, attrs [][]Attribute) ([]Status, Status)
	BulkRemove(ctx context.Context, ot ObjectType, ids []ObjectID) ([]Status, Status)
	BulkSet(ctx context.Context, ot ObjectType, ids []ObjectID, attrs []Attribute) ([]Status, Status)

	ObjectTypeGetAvailability(ctx context.Context, deviceID ObjectID, ot ObjectType, attrs []Attribute) (uint64, Status)
	QueryAttributeCapability(ctx context.Context, deviceID ObjectID, ot ObjectType, attr AttrID) (AttrCapability, Status)
	QueryAttributeEnumValuesCapability(ctx context.Context, deviceID ObjectID, ot ObjectType, attr AttrID, values S32List) (S32List, Status)

	NotifySyncd(ctx context.Context, deviceID ObjectID, kind NotifySyncd) Status
}
