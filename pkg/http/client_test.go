package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayflowClientConfig(t *testing.T) {
	verified := PayflowClientConfig(true)
	assert.False(t, verified.InsecureSkipVerify)

	unverified := PayflowClientConfig(false)
	assert.True(t, unverified.InsecureSkipVerify)

	assert.Zero(t, verified.ResponseHeaderTimeout)
}

func TestNewHTTPClient_AttemptTimeoutGovernsSlowResponses(t *testing.T) {
	attempt := 90 * time.Second
	client := NewHTTPClient(PayflowClientConfig(true), attempt)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.Equal(t, attempt, client.Timeout)
	assert.Zero(t, transport.ResponseHeaderTimeout)
}

func TestNewHTTPClient(t *testing.T) {
	client := NewHTTPClient(PayflowClientConfig(false), 90*time.Second)

	assert.Equal(t, 90*time.Second, client.Timeout)

	transport, ok := client.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
	assert.True(t, transport.DisableCompression)
}
