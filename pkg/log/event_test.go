package log

import "testing"

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{DirectionIn.String(), "IN"},
		{DirectionOut.String(), "OUT"},
		{Direction(9).String(), "UNKNOWN"},
		{LayerTransport.String(), "TRANSPORT"},
		{LayerWire.String(), "WIRE"},
		{LayerSession.String(), "SESSION"},
		{LayerDiscovery.String(), "DISCOVERY"},
		{Layer(9).String(), "UNKNOWN"},
		{CategoryMessage.String(), "MESSAGE"},
		{CategoryDiscovery.String(), "DISCOVERY"},
		{CategoryState.String(), "STATE"},
		{CategoryError.String(), "ERROR"},
		{RoleClient.String(), "CLIENT"},
		{RoleHost.String(), "HOST"},
		{StateEntitySession.String(), "SESSION"},
		{StateEntityConnection.String(), "CONNECTION"},
		{StateEntityPairing.String(), "PAIRING"},
		{StateEntity(9).String(), "UNKNOWN"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestNewFrameEvent(t *testing.T) {
	small := NewFrameEvent([]byte{1, 2, 3})
	if small.Size != 3 || small.Truncated || len(small.Data) != 3 {
		t.Errorf("small frame: got %+v", small)
	}

	big := NewFrameEvent(make([]byte, MaxCapturedFrame+10))
	if big.Size != MaxCapturedFrame+10 {
		t.Errorf("Size: got %d", big.Size)
	}
	if !big.Truncated || len(big.Data) != MaxCapturedFrame {
		t.Errorf("big frame not truncated: truncated=%v len=%d", big.Truncated, len(big.Data))
	}
}
