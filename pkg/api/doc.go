// Package api defines the Verdant RPC surface: request and response
// messages, procedure names, handler constructors and a typed client.
//
// Messages are plain Go structs carried by a JSON codec, so the same
// domain types from internal/models travel on the wire and into the
// client's offline cache unchanged.
package api
