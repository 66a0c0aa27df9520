// Package rpc defines the deepnote.NoteService gRPC contract shared by the
// server and the client: request/response messages, the service descriptor,
// a typed client stub and the JSON codec the messages travel with.
//
// Messages are plain Go structs encoded as JSON. Callers select the codec
// with grpc.CallContentSubtype(CodecName); the stub returned by
// NewNoteServiceClient does this on every call.
package rpc
