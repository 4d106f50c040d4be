// Package wire defines the JSON messages exchanged between client and host
// outside the encrypted envelope, plus the command vocabulary carried inside it.
//
// # Discovery
//
// Sent by the client to the broadcast address on the discovery port:
//
//	{"type":"DISCOVER"}
//
// Answered by each host:
//
//	{"type":"OFFER","ip":"192.168.1.20","port":5000,"hostname":"studio"}
//
// # Reliable Responses
//
// Every envelope sent on the reliable channel is answered with one
// response frame:
//
//	{"status":"SUCCESS"}
//	{"status":"AUTH_REJECTED","error":"authentication failed"}
//
// # Commands
//
// Command names and payloads are defined by the application layer. The
// constants here are the ones the reference host understands.
package wire
