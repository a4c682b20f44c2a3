// Package client is the facade over the chat completion protocol layer.
//
// A Client sends an assembled api.ChatCompletionRequest through the
// transport chain (request IDs, logging, metrics, authentication) to the
// endpoint described by a provider profile. Non-streaming calls are decoded
// into a single api.Response. Streaming calls return a stream.Stream whose
// producer merges chunks until the [DONE] sentinel; the caller drives
// consumption and may close the stream at any time.
//
// Failures are returned verbatim. The client never retries, never caches
// responses and never downgrades an error to a default value.
package client
