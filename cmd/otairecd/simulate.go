package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/otairec/otairec/pkg/client"
	"github.com/otairec/otairec/pkg/otai"
)

const simPorts = 4

var simCounters = []otai.StatID{"OTAI_PORT_STAT_INPUT_POWER", "OTAI_PORT_STAT_OUTPUT_POWER"}

// simulateLinecard brings up a linecard with a few ports and then polls
// their counters every interval, the way the stats poller of a real
// control plane would. Every call goes through c and is recorded.
func simulateLinecard(ctx context.Context, c *client.Client, interval time.Duration) {
	const linecard otai.ObjectID = 0x1
	c.NotifySyncd(ctx, linecard, otai.NotifySyncdInitView)
	c.Create(ctx, otai.ObjectTypeLinecard, linecard, []otai.Attribute{
		{ID: "OTAI_LINECARD_ATTR_BOARD_MODE", Value: "L1_400G_CA_100GE"},
	})

	ids := make([]otai.ObjectID, simPorts)
	attrs := make([][]otai.Attribute, simPorts)
	for i := range ids {
		ids[i] = otai.ObjectID(0x100 + i)
		attrs[i] = []otai.Attribute{{ID: "OTAI_PORT_ATTR_ADMIN_STATE", Value: true}}
	}
	if _, st := c.BulkCreate(ctx, otai.ObjectTypePort, ids, attrs); !st.Success() {
		slog.Warn("simulated bulk create failed", "component", "simulate", "status", st.String())
	}
	c.NotifySyncd(ctx, linecard, otai.NotifySyncdApplyView)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for round := 1; ; round++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for _, id := range ids {
			c.GetStats(ctx, otai.ObjectTypePort, id, simCounters)
		}
		if round%10 == 0 {
			c.Get(ctx, otai.ObjectTypePort, ids[0], []otai.Attribute{{ID: "OTAI_PORT_ATTR_ADMIN_STATE"}})
			c.OnNotification("linecard_alarm", "OTAI_ALARM_TYPE_RX_LOS", nil)
		}
	}
}
