package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanremote/lanremote-go/pkg/wire"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		in      string
		want    wire.PeerEndpoint
		wantErr bool
	}{
		{in: "192.168.1.40", want: wire.PeerEndpoint{Address: "192.168.1.40", Port: 5000}},
		{in: "192.168.1.40:6000", want: wire.PeerEndpoint{Address: "192.168.1.40", Port: 6000}},
		{in: "[fe80::1]:6000", want: wire.PeerEndpoint{Address: "fe80::1", Port: 6000}},
		{in: "den-pc", wantErr: true},
		{in: "192.168.1.40:0", wantErr: true},
		{in: "192.168.1.40:http", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseEndpoint(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSwitchWriter(t *testing.T) {
	var a, b bytes.Buffer
	w := &switchWriter{w: &a}

	_, _ = w.Write([]byte("one"))
	w.set(&b)
	_, _ = w.Write([]byte("two"))

	assert.Equal(t, "one", a.String())
	assert.Equal(t, "two", b.String())
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer
	logger, err := setupLogging("warn", &buf)
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	_, err = setupLogging("loud", &buf)
	assert.Error(t, err)
}
