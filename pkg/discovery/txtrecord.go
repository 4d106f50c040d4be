package discovery

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lanremote/lanremote-go/pkg/version"
)

// TXT record keys published by hosts.
const (
	TXTKeyVersion  = "v"
	TXTKeyHostname = "host"
	TXTKeyPort     = "port"
)

// ProtocolVersion is the TXT "v" value hosts publish. Browsers accept any
// version with the same major number.
var ProtocolVersion = strconv.Itoa(int(version.MustParse(version.Current).Major))

// MaxInstanceNameLen is the DNS-SD instance label limit.
const MaxInstanceNameLen = 63

// ErrInvalidTXTRecord indicates a malformed or incompatible TXT record.
var ErrInvalidTXTRecord = errors.New("invalid TXT record")

// TXTRecordMap is a parsed set of TXT key/value pairs.
type TXTRecordMap map[string]string

// HostInfo is what a host advertises over mDNS.
type HostInfo struct {
	Hostname    string
	CommandPort int
}

// EncodeHostTXT builds the TXT records for a host.
func EncodeHostTXT(info *HostInfo) TXTRecordMap {
	return TXTRecordMap{
		TXTKeyVersion:  ProtocolVersion,
		TXTKeyHostname: info.Hostname,
		TXTKeyPort:     strconv.Itoa(info.CommandPort),
	}
}

// DecodeHostTXT parses host TXT records. The port key is optional; when
// absent the SRV port is used by the caller.
func DecodeHostTXT(txt TXTRecordMap) (*HostInfo, error) {
	if v := txt[TXTKeyVersion]; !version.CompatibleWith(v) {
		return nil, fmt.Errorf("%w: version %q", ErrInvalidTXTRecord, v)
	}
	info := &HostInfo{Hostname: txt[TXTKeyHostname]}
	if p, ok := txt[TXTKeyPort]; ok {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			return nil, fmt.Errorf("%w: port %q", ErrInvalidTXTRecord, p)
		}
		info.CommandPort = n
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to sorted "key=value" strings.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, k+"="+v)
	}
	sort.Strings(result)
	return result
}

// StringsToTXTRecords parses "key=value" strings. A bare key maps to "".
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap, len(strs))
	for _, s := range strs {
		if s == "" {
			continue
		}
		k, v, _ := strings.Cut(s, "=")
		txt[k] = v
	}
	return txt
}

// instanceName trims a hostname to a valid instance label.
func instanceName(hostname string) string {
	if hostname == "" {
		hostname = "lanremote"
	}
	if len(hostname) > MaxInstanceNameLen {
		hostname = hostname[:MaxInstanceNameLen]
	}
	return hostname
}
