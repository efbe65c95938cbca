// Package metrics provides process-level counters for the confidential
// token flows. Counters are atomic and safe for concurrent use.
package metrics

import (
	"sync/atomic"
	"time"
)

// Metrics holds application metrics using atomic counters.
type Metrics struct {
	// Relayer HTTP calls
	relayerCallsTotal   atomic.Int64
	relayerErrorsTotal  atomic.Int64
	relayerLatencyNanos atomic.Int64

	// SDK session lifecycle
	sdkInitsTotal  atomic.Int64
	sdkInitErrors  atomic.Int64
	sdkInitsShared atomic.Int64

	// Encryption engine
	encryptionsTotal atomic.Int64
	encryptionErrors atomic.Int64

	// User decryption
	decryptionsTotal       atomic.Int64
	decryptionErrors       atomic.Int64
	decryptionShortCircuit atomic.Int64

	// Contract submissions
	submissionsTotal atomic.Int64
	submissionErrors atomic.Int64
}

// Global is the process-wide metrics instance.
//
//nolint:gochecknoglobals // Intentional global for metrics access
var Global = &Metrics{}

// RecordRelayerCall records one relayer request with its duration and outcome.
func (m *Metrics) RecordRelayerCall(duration time.Duration, err error) {
	m.relayerCallsTotal.Add(1)
	m.relayerLatencyNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.relayerErrorsTotal.Add(1)
	}
}

// RecordSDKInit records an SDK instance creation attempt.
func (m *Metrics) RecordSDKInit(err error) {
	m.sdkInitsTotal.Add(1)
	if err != nil {
		m.sdkInitErrors.Add(1)
	}
}

// RecordSDKInitShared records a caller that joined an in-flight initialization.
func (m *Metrics) RecordSDKInitShared() {
	m.sdkInitsShared.Add(1)
}

// RecordEncryption records an encryption attempt.
func (m *Metrics) RecordEncryption(err error) {
	m.encryptionsTotal.Add(1)
	if err != nil {
		m.encryptionErrors.Add(1)
	}
}

// RecordDecryption records a user decryption attempt.
func (m *Metrics) RecordDecryption(err error) {
	m.decryptionsTotal.Add(1)
	if err != nil {
		m.decryptionErrors.Add(1)
	}
}

// RecordDecryptionShortCircuit records a zero handle answered without the relayer.
func (m *Metrics) RecordDecryptionShortCircuit() {
	m.decryptionShortCircuit.Add(1)
}

// RecordSubmission records a contract transaction submission.
func (m *Metrics) RecordSubmission(err error) {
	m.submissionsTotal.Add(1)
	if err != nil {
		m.submissionErrors.Add(1)
	}
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	RelayerCallsTotal      int64 `json:"relayer_calls_total"`
	RelayerErrorsTotal     int64 `json:"relayer_errors_total"`
	RelayerLatencyNanos    int64 `json:"relayer_latency_nanos"`
	SDKInitsTotal          int64 `json:"sdk_inits_total"`
	SDKInitErrors          int64 `json:"sdk_init_errors"`
	SDKInitsShared         int64 `json:"sdk_inits_shared"`
	EncryptionsTotal       int64 `json:"encryptions_total"`
	EncryptionErrors       int64 `json:"encryption_errors"`
	DecryptionsTotal       int64 `json:"decryptions_total"`
	DecryptionErrors       int64 `json:"decryption_errors"`
	DecryptionShortCircuit int64 `json:"decryption_short_circuit"`
	SubmissionsTotal       int64 `json:"submissions_total"`
	SubmissionErrors       int64 `json:"submission_errors"`
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		RelayerCallsTotal:      m.relayerCallsTotal.Load(),
		RelayerErrorsTotal:     m.relayerErrorsTotal.Load(),
		RelayerLatencyNanos:    m.relayerLatencyNanos.Load(),
		SDKInitsTotal:          m.sdkInitsTotal.Load(),
		SDKInitErrors:          m.sdkInitErrors.Load(),
		SDKInitsShared:         m.sdkInitsShared.Load(),
		EncryptionsTotal:       m.encryptionsTotal.Load(),
		EncryptionErrors:       m.encryptionErrors.Load(),
		DecryptionsTotal:       m.decryptionsTotal.Load(),
		DecryptionErrors:       m.decryptionErrors.Load(),
		DecryptionShortCircuit: m.decryptionShortCircuit.Load(),
		SubmissionsTotal:       m.submissionsTotal.Load(),
		SubmissionErrors:       m.submissionErrors.Load(),
	}
}

// RelayerLatencyAvgMs returns the average relayer latency in milliseconds.
// Returns 0 if no calls have been made.
func (m *Metrics) RelayerLatencyAvgMs() float64 {
	calls := m.relayerCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.relayerLatencyNanos.Load()) / float64(calls) / 1e6
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	for _, c := range []*atomic.Int64{
		&m.relayerCallsTotal, &m.relayerErrorsTotal, &m.relayerLatencyNanos,
		&m.sdkInitsTotal, &m.sdkInitErrors, &m.sdkInitsShared,
		&m.encryptionsTotal, &m.encryptionErrors,
		&m.decryptionsTotal, &m.decryptionErrors, &m.decryptionShortCircuit,
		&m.submissionsTotal, &m.submissionErrors,
	} {
		c.Store(0)
	}
}
