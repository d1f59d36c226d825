package observability

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// value reads the current value of a counter or gauge.
func value(t *testing.T, c prometheus.Metric) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if m.Counter != nil {
		return m.GetCounter().GetValue()
	}
	return m.GetGauge().GetValue()
}

func TestRecordInstruction(t *testing.T) {
	c := DefaultMetrics.InstructionsTotal.WithLabelValues("mint_standard", "ok")
	before := value(t, c)

	RecordInstruction("mint_standard", "ok", 0.002)

	assert.Equal(t, before+1, value(t, c))
}

func TestRecordLamports(t *testing.T) {
	received := DefaultMetrics.LamportsReceived.WithLabelValues("donation")
	beforeReceived := value(t, received)
	beforeWithdrawn := value(t, DefaultMetrics.LamportsWithdrawn)

	RecordReceived("donation", 1500)
	RecordWithdrawn(1000)

	assert.Equal(t, beforeReceived+1500, value(t, received))
	assert.Equal(t, beforeWithdrawn+1000, value(t, DefaultMetrics.LamportsWithdrawn))
}

func TestGauges(t *testing.T) {
	UpdateSubscribers(3)
	UpdateSlot(42)

	assert.Equal(t, float64(3), value(t, DefaultMetrics.StreamSubscribers))
	assert.Equal(t, float64(42), value(t, DefaultMetrics.CurrentSlot))
}

func TestRecordDBQuery_CountsErrors(t *testing.T) {
	c := DefaultMetrics.DBQueryErrors.WithLabelValues("postgres", "insert_notification")
	before := value(t, c)

	RecordDBQuery("postgres", "insert_notification", 0.01, nil)
	assert.Equal(t, before, value(t, c))

	RecordDBQuery("postgres", "insert_notification", 0.01, errors.New("boom"))
	assert.Equal(t, before+1, value(t, c))
}

func TestHandler(t *testing.T) {
	RecordMint("premium")

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "blog_pass_program_tokens_minted_total"))
}
