// Package discovery locates a lanremote host on the local network.
//
// The default method is a UDP broadcast exchange:
//
//	client (reply port 5002)                 host (discovery port 5001)
//	  │ ── {"type":"DISCOVER"} ──► 255.255.255.255:5001
//	  │ ◄── {"type":"OFFER","ip":…,"port":…,"hostname":…} ── unicast
//
// The first well-formed OFFER wins; later ones are ignored. Discovery does
// not cross routers.
//
// As an alternative, hosts may also advertise themselves over mDNS as
// _lanremote._tcp, browsed with MDNSBrowser under the same
// first-responder-wins contract.
//
// Both Client and MDNSBrowser implement Discoverer.
package discovery
