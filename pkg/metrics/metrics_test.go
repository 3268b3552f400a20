package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRegisterCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { RegisterCollectors(reg) })

	SearchTotal.WithLabelValues("hit").Inc()
	require.Equal(t, 1.0, testutil.ToFloat64(SearchTotal.WithLabelValues("hit")))

	CorpusPages.Set(12)
	require.Equal(t, 12.0, testutil.ToFloat64(CorpusPages))

	require.Panics(t, func() { RegisterCollectors(reg) }, "double registration must fail")
}
