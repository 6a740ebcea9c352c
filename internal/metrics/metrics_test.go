package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorsRegistered(t *testing.T) {
	ConnectionsCurrent.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(ConnectionsCurrent))

	before := testutil.ToFloat64(ConnectionsTotal)
	ConnectionsTotal.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(ConnectionsTotal))
}

func TestVectorLabels(t *testing.T) {
	AdmissionRejectionsTotal.WithLabelValues("per_ip_limit").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(AdmissionRejectionsTotal.WithLabelValues("per_ip_limit")))

	MessagesInboundTotal.WithLabelValues("subscribe").Inc()
	BroadcastsTotal.WithLabelValues("order:created").Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(BroadcastsTotal.WithLabelValues("order:created")))
}
