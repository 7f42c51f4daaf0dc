package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordLedgerTransaction(t *testing.T) {
	before := testutil.ToFloat64(ledgerSubmissions.WithLabelValues("mint_to", "error"))

	RecordLedgerTransaction("mint_to", errors.New("boom"), time.Second)

	after := testutil.ToFloat64(ledgerSubmissions.WithLabelValues("mint_to", "error"))
	assert.Equal(t, before+1, after)
}

func TestSetLedgerUp(t *testing.T) {
	SetLedgerUp(true, 1234)
	assert.Equal(t, float64(1), testutil.ToFloat64(ledgerUp))
	assert.Equal(t, float64(1234), testutil.ToFloat64(ledgerBlockHeight))

	SetLedgerUp(false, 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(ledgerUp))
	assert.Equal(t, float64(1234), testutil.ToFloat64(ledgerBlockHeight))
}

func TestHandler(t *testing.T) {
	RecordHTTPRequest("GET", "/token/supply", 200, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "solana_token_http_requests_total")
}
