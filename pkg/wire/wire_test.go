package wire

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDiscover(t *testing.T) {
	data := EncodeDiscover()
	if string(data) != `{"type":"DISCOVER"}` {
		t.Errorf("EncodeDiscover() = %s", data)
	}
	if !IsDiscover(data) {
		t.Error("IsDiscover(probe) = false")
	}
	if IsDiscover([]byte(`{"type":"OFFER"}`)) {
		t.Error("IsDiscover(offer) = true")
	}
	if IsDiscover([]byte(`garbage`)) {
		t.Error("IsDiscover(garbage) = true")
	}
}

func TestOffer(t *testing.T) {
	data, err := EncodeOffer(Offer{IP: "192.168.1.20", Port: 5000, Hostname: "studio"})
	if err != nil {
		t.Fatalf("EncodeOffer() error = %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["type"] != TypeOffer {
		t.Errorf("type = %v, want OFFER", raw["type"])
	}

	o, err := DecodeOffer(data)
	if err != nil {
		t.Fatalf("DecodeOffer() error = %v", err)
	}
	ep := o.Endpoint()
	want := PeerEndpoint{Address: "192.168.1.20", Port: 5000, DisplayName: "studio"}
	if ep != want {
		t.Errorf("Endpoint() = %+v, want %+v", ep, want)
	}
}

func TestDecodeOfferInvalid(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"NotJSON", `nope`, ErrInvalidDiscoveryMessage},
		{"WrongType", `{"type":"DISCOVER"}`, ErrUnexpectedType},
		{"BadIP", `{"type":"OFFER","ip":"x","port":5000}`, ErrInvalidDiscoveryMessage},
		{"ZeroPort", `{"type":"OFFER","ip":"10.0.0.1","port":0}`, ErrInvalidDiscoveryMessage},
		{"HugePort", `{"type":"OFFER","ip":"10.0.0.1","port":70000}`, ErrInvalidDiscoveryMessage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOffer([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeOffer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPeerEndpoint(t *testing.T) {
	ep := PeerEndpoint{Address: "10.0.0.5", Port: 5000}
	if ep.Addr() != "10.0.0.5:5000" {
		t.Errorf("Addr() = %q", ep.Addr())
	}
	if ep.String() != "10.0.0.5:5000" {
		t.Errorf("String() = %q", ep.String())
	}
	ep.DisplayName = "desk"
	if ep.String() != "desk (10.0.0.5:5000)" {
		t.Errorf("String() = %q", ep.String())
	}

	v6 := PeerEndpoint{Address: "fe80::1", Port: 5000}
	if v6.Addr() != "[fe80::1]:5000" {
		t.Errorf("Addr() = %q", v6.Addr())
	}
}

func TestStatus(t *testing.T) {
	for st, name := range statusNames {
		if st.String() != name {
			t.Errorf("%d.String() = %q, want %q", st, st.String(), name)
		}
	}
	if Status(99).String() != "UNKNOWN" {
		t.Error("unknown status should stringify as UNKNOWN")
	}
	if !StatusSuccess.IsSuccess() || StatusSuccess.IsError() {
		t.Error("StatusSuccess classification wrong")
	}
	if !StatusAuthRejected.IsError() {
		t.Error("StatusAuthRejected should be an error")
	}
}

func TestResponse(t *testing.T) {
	data, err := EncodeResponse(NewErrorResponse(StatusAuthRejected, errors.New("authentication failed")))
	if err != nil {
		t.Fatalf("EncodeResponse() error = %v", err)
	}
	if string(data) != `{"status":"AUTH_REJECTED","error":"authentication failed"}` {
		t.Errorf("EncodeResponse() = %s", data)
	}

	r, err := DecodeResponse([]byte(`{"status":"SUCCESS"}`))
	if err != nil {
		t.Fatalf("DecodeResponse() error = %v", err)
	}
	if r.Status != StatusSuccess || r.Error != "" {
		t.Errorf("DecodeResponse() = %+v", r)
	}

	r, err = DecodeResponse([]byte(`{"status":"BUSY","error":"try later"}`))
	var unknown *UnknownStatusError
	if !errors.As(err, &unknown) || unknown.Name != "BUSY" {
		t.Fatalf("DecodeResponse(BUSY) error = %v, want UnknownStatusError", err)
	}
	if r == nil || r.Status != StatusFailed || r.Error != "try later" {
		t.Errorf("DecodeResponse(BUSY) = %+v", r)
	}
	if _, err := DecodeResponse([]byte(`not json`)); err == nil || errors.As(err, &unknown) {
		t.Errorf("DecodeResponse(garbage) error = %v", err)
	}
	if _, err := EncodeResponse(&Response{Status: Status(42)}); err == nil {
		t.Error("expected error encoding unknown status")
	}
}

func TestKnownCommand(t *testing.T) {
	for _, c := range []string{CommandMoveRelative, CommandClick, CommandScroll, CommandTypeText,
		CommandKeyPress, CommandMedia, CommandVolume, CommandPing} {
		if !KnownCommand(c) {
			t.Errorf("KnownCommand(%q) = false", c)
		}
	}
	if KnownCommand("shutdown") {
		t.Error("KnownCommand(shutdown) = true")
	}
}
