package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errTest = errors.New("test error")

func TestMetrics_RecordRelayerCall(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordRelayerCall(100*time.Millisecond, nil)
	m.RecordRelayerCall(300*time.Millisecond, errTest)

	s := m.Snapshot()
	assert.Equal(t, int64(2), s.RelayerCallsTotal)
	assert.Equal(t, int64(1), s.RelayerErrorsTotal)
	assert.InDelta(t, 200.0, m.RelayerLatencyAvgMs(), 0.001)
}

func TestMetrics_RelayerLatencyAvgNoCalls(t *testing.T) {
	t.Parallel()
	assert.InDelta(t, 0.0, (&Metrics{}).RelayerLatencyAvgMs(), 0)
}

func TestMetrics_FlowCounters(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	m.RecordSDKInit(nil)
	m.RecordSDKInit(errTest)
	m.RecordSDKInitShared()
	m.RecordEncryption(nil)
	m.RecordEncryption(errTest)
	m.RecordDecryption(errTest)
	m.RecordDecryptionShortCircuit()
	m.RecordSubmission(nil)

	s := m.Snapshot()
	assert.Equal(t, Snapshot{
		SDKInitsTotal:          2,
		SDKInitErrors:          1,
		SDKInitsShared:         1,
		EncryptionsTotal:       2,
		EncryptionErrors:       1,
		DecryptionsTotal:       1,
		DecryptionErrors:       1,
		DecryptionShortCircuit: 1,
		SubmissionsTotal:       1,
	}, s)
}

func TestMetrics_ConcurrentAndReset(t *testing.T) {
	t.Parallel()
	m := &Metrics{}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordSubmission(nil)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(50), m.Snapshot().SubmissionsTotal)

	m.Reset()
	assert.Equal(t, Snapshot{}, m.Snapshot())
}
