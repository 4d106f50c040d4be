// Package session gates remote-control operations on the client.
//
// A Session owns the pairing key and the peer endpoint and moves through
// five states:
//
//	            StartDiscovery            OFFER
//	  Idle ───────────────────► Scanning ─────────► Discovered
//	   ▲                           │                  │   ▲
//	   └── timeout/cancel/error ───┘          Connect │   │ SetEndpoint
//	                                                  ▼   │
//	            Disconnected ◄── auth reject / ── Connected
//	                 │             transport failure  ▲
//	                 └────────── Connect ─────────────┘
//
// Commands may only be sent while Connected. A new pairing code may be
// entered in any state; it replaces the key for all later sends without
// changing state.
//
// Nothing here retries automatically.
package session
