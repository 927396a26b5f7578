package orchestrator

import (
	"github.com/saaga0h/lidar2d-consolidation/pkg/bus"
	"github.com/saaga0h/lidar2d-consolidation/pkg/clustering"
	"github.com/saaga0h/lidar2d-consolidation/pkg/geometry"
	"github.com/saaga0h/lidar2d-consolidation/pkg/presence"
	"github.com/saaga0h/lidar2d-consolidation/pkg/smoothing"
)

// publish encodes v with the wire codec and publishes it. A publish
// failure is logged and counted in PublishFailuresTotal; it is not
// returned to the caller and does not stop Run.
func (o *Orchestrator) publish(topic string, qos byte, retained bool, v any) {
	payload, err := bus.Marshal(v)
	if err != nil {
		o.logger.Error("failed to encode outbound message", "topic", topic, "error", err)
		return
	}
	if err := o.bus.Publish(topic, qos, retained, payload); err != nil {
		o.metrics.PublishFailuresTotal.WithLabelValues(topic).Inc()
		o.logger.Error("publish failed", "topic", topic, "error", err)
	}
}

func (o *Orchestrator) publishConfig() {
	o.publish(bus.TopicProvideLidarConfig, bus.QoSExactlyOnce, true, o.cfg)
}

func (o *Orchestrator) publishClusters(clusters []clustering.Cluster) {
	out := make([]bus.ClusterOut, len(clusters))
	for i, c := range clusters {
		out[i] = bus.ClusterOut{ID: c.ID, X: c.Centre.X, Y: c.Centre.Y, Size: c.Size}
	}
	o.publish(bus.TopicClusters, bus.QoSAtMostOnce, false, out)
}

func (o *Orchestrator) publishTrackedPoints(points []bus.TrackedPointOut) {
	o.publish(bus.TopicTrackedPoints, bus.QoSAtMostOnce, false, points)
}

func (o *Orchestrator) publishSmoothedPoints(points []smoothing.TrackedPoint) {
	out := make([]bus.SmoothedPointOut, len(points))
	for i, p := range points {
		wire := bus.SmoothedPointOut{ID: p.ID, X: p.Position.X, Y: p.Position.Y, Heading: p.Heading}
		if p.Velocity != nil {
			v := [2]float32{p.Velocity.X, p.Velocity.Y}
			wire.Velocity = &v
		}
		out[i] = wire
	}
	o.publish(bus.TopicSmoothedPoints, bus.QoSAtMostOnce, false, out)
}

func (o *Orchestrator) publishMovement(v geometry.Point) {
	o.publish(bus.TopicMovement, bus.QoSAtMostOnce, false, bus.MovementOut{v.X, v.Y})
}

func (o *Orchestrator) publishPresence(z *presence.Zone) {
	payload := []byte{0x00}
	if z.Active {
		payload = []byte{0x01}
	}
	if err := o.bus.Publish(bus.PresenceTopic(z.Name), bus.QoSExactlyOnce, false, payload); err != nil {
		o.metrics.PublishFailuresTotal.WithLabelValues(bus.PresenceTopic(z.Name)).Inc()
		o.logger.Error("publish failed", "topic", bus.PresenceTopic(z.Name), "error", err)
	}
}
