// Package provider describes the chat completion vendors chatwire talks to.
//
// A [Profile] captures everything that differs between OpenAI-compatible
// services: default base URL and version, credential scheme, endpoint
// layout (Azure deployments, query parameters), whether a usage chunk must
// be requested on streams, the name of the token limit field and the
// features the vendor accepts. Built-in profiles cover openai, azure, vllm,
// litellm, stepfun, zhipu and deepseek.
package provider
