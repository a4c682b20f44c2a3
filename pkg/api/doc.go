// Package api defines the chat completion protocol model shared by the client:
// the validated request, the response and stream chunk types, their decoders,
// the error taxonomy, and the stream state machine.
//
// The package performs no I/O. Requests are assembled with [NewRequest] and
// serialized with [EncodeRequest]; bodies are decoded with [DecodeResponse]
// and stream fragments with [DecodeChunk]. Both decoders sniff the "error"
// key before committing to the success shape, so a service error surfaces as
// [*APIError] and a structural mismatch as [*MalformedResponseError].
//
// Core types:
//   - [ChatCompletionRequest]: immutable request built by [RequestBuilder]
//   - [Response]: a complete chat completion
//   - [StreamChunk]: one decoded stream fragment carrying deltas
//   - [StreamState]: Idle, Streaming, Completed, Errored, Truncated
package api
