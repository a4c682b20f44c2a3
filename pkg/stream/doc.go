// Package stream turns a chat completion event stream into ordered chunks
// and one merged response.
//
// An [Engine] runs one producer goroutine per request. The producer reads raw
// fragments from a [Fragments] source, decodes each into an
// [api.StreamChunk], merges it into an [Accumulator] it owns exclusively, and
// delivers the chunk to the consumer over a bounded channel in arrival order.
// The consumer holds a [Stream] handle; closing it stops the producer and
// releases the transport.
//
// A stream ends in exactly one of three states: Completed when the [DONE]
// sentinel arrives, Truncated when the transport closes first, or Errored
// on a decode failure, an in-stream error envelope, a read error or
// cancellation.
package stream
