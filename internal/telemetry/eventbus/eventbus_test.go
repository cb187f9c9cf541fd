package eventbus_test

import (
	"testing"

	"github.com/asgard/heimdall/internal/messages"
	"github.com/asgard/heimdall/internal/telemetry/eventbus"
)

func TestDisabledBusDropsPublishesWithoutPanicking(t *testing.T) {
	b := eventbus.Disabled()
	b.PublishTargetUpdate(messages.AutoAimTargetUpdateMessage{HasTarget: true})
	b.PublishWarning("crc_error_rate", 0.42)
	b.Close()
}

func TestNilBusDropsPublishesWithoutPanicking(t *testing.T) {
	var b *eventbus.Bus
	b.PublishTargetUpdate(messages.AutoAimTargetUpdateMessage{})
	b.PublishWarning("latency_ms", 12.3)
	b.Close()
}
