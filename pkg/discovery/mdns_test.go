package discovery

import (
	"context"
	"net"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostTXTRoundTrip(t *testing.T) {
	txt := EncodeHostTXT(&HostInfo{Hostname: "den-pc", CommandPort: 5000})
	strs := TXTRecordsToStrings(txt)
	assert.Equal(t, []string{"host=den-pc", "port=5000", "v=1"}, strs)

	info, err := DecodeHostTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, &HostInfo{Hostname: "den-pc", CommandPort: 5000}, info)
}

func TestDecodeHostTXTErrors(t *testing.T) {
	tests := []struct {
		name string
		txt  TXTRecordMap
	}{
		{"missing version", TXTRecordMap{"host": "x"}},
		{"wrong version", TXTRecordMap{"v": "2"}},
		{"garbage version", TXTRecordMap{"v": "one"}},
		{"bad port", TXTRecordMap{"v": "1", "port": "abc"}},
		{"port out of range", TXTRecordMap{"v": "1", "port": "70000"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHostTXT(tt.txt)
			assert.ErrorIs(t, err, ErrInvalidTXTRecord)
		})
	}
}

func TestDecodeHostTXTMinorVersion(t *testing.T) {
	info, err := DecodeHostTXT(TXTRecordMap{"v": "1.3", "host": "den-pc"})
	require.NoError(t, err)
	assert.Equal(t, "den-pc", info.Hostname)
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "", "b=x=y"})
	assert.Equal(t, TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

func TestInstanceName(t *testing.T) {
	assert.Equal(t, "lanremote", instanceName(""))
	long := make([]byte, 80)
	for i := range long {
		long[i] = 'a'
	}
	assert.Len(t, instanceName(string(long)), MaxInstanceNameLen)
}

func TestEntryToEndpoint(t *testing.T) {
	entry := func(text []string, port int, v4, v6 []net.IP) *zeroconf.ServiceEntry {
		e := &zeroconf.ServiceEntry{ServiceRecord: zeroconf.ServiceRecord{Instance: "den-pc", Service: ServiceType, Domain: Domain}}
		e.Text = text
		e.Port = port
		e.AddrIPv4 = v4
		e.AddrIPv6 = v6
		return e
	}

	t.Run("ipv4 preferred", func(t *testing.T) {
		ep, err := entryToEndpoint(entry([]string{"v=1", "host=Den PC"}, 5000,
			[]net.IP{net.ParseIP("192.168.1.20")}, []net.IP{net.ParseIP("fe80::1")}))
		require.NoError(t, err)
		assert.Equal(t, "192.168.1.20", ep.Address)
		assert.Equal(t, uint16(5000), ep.Port)
		assert.Equal(t, "Den PC", ep.DisplayName)
	})

	t.Run("txt port overrides srv", func(t *testing.T) {
		ep, err := entryToEndpoint(entry([]string{"v=1", "port=6000"}, 5000,
			[]net.IP{net.ParseIP("10.0.0.2")}, nil))
		require.NoError(t, err)
		assert.Equal(t, uint16(6000), ep.Port)
		assert.Equal(t, "den-pc", ep.DisplayName)
	})

	t.Run("ipv6 fallback", func(t *testing.T) {
		ep, err := entryToEndpoint(entry([]string{"v=1"}, 5000, nil, []net.IP{net.ParseIP("fd00::2")}))
		require.NoError(t, err)
		assert.Equal(t, "fd00::2", ep.Address)
	})

	t.Run("no address", func(t *testing.T) {
		_, err := entryToEndpoint(entry([]string{"v=1"}, 5000, nil, nil))
		assert.Error(t, err)
	})

	t.Run("foreign service", func(t *testing.T) {
		_, err := entryToEndpoint(entry(nil, 5000, []net.IP{net.ParseIP("10.0.0.2")}, nil))
		assert.ErrorIs(t, err, ErrInvalidTXTRecord)
	})
}

func TestMDNSBrowserCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := NewMDNSBrowser(BrowserConfig{})
	_, err := b.Discover(ctx)
	assert.ErrorIs(t, err, ErrCancelled)
}
