package provider

import (
	"net/url"
	"slices"
	"strings"
	"sync"

	"github.com/rhuss/chatwire/pkg/api"
	"github.com/rhuss/chatwire/pkg/schema"
)

// AuthKind selects how credentials are attached for a vendor.
type AuthKind string

const (
	// AuthBearer sends "Authorization: Bearer <key>".
	AuthBearer AuthKind = "bearer"

	// AuthHeader sends the raw key in Profile.AuthHeader.
	AuthHeader AuthKind = "header"

	// AuthJWT sends a short-lived token minted from an "id.secret" key.
	AuthJWT AuthKind = "jwt"

	// AuthNone sends no credentials.
	AuthNone AuthKind = "none"
)

// Profile describes how one vendor deviates from the reference chat
// completions protocol. Profiles are plain values; callers may copy and
// modify a built-in one.
type Profile struct {
	// Name is the vendor identifier (e.g., "openai", "zhipu").
	Name string

	// BaseURL is the default service root, without the version segment.
	BaseURL string

	// Version is the default path segment joined to the base URL ("v1").
	Version string

	// Auth selects the credential scheme; AuthHeader is the header name used
	// with AuthHeader.
	Auth       AuthKind
	AuthHeader string

	// ChatPath and ModelsPath are appended to the versioned base URL.
	// ChatPath may contain {model}, which is replaced by the escaped model
	// name (Azure deployments).
	ChatPath   string
	ModelsPath string

	// Query is added to every request URL (e.g., Azure's api-version).
	Query url.Values

	// StreamUsage asks for a trailing usage chunk on streaming requests.
	// Vendors that report usage per choice leave it off.
	StreamUsage bool

	// MaxTokensField names the output token limit field.
	MaxTokensField api.MaxTokensField

	// Capabilities declares what the vendor accepts.
	Capabilities Capabilities
}

// ChatURL returns the chat completions endpoint below base for model.
func (p Profile) ChatURL(base *url.URL, model string) string {
	path := p.ChatPath
	if path == "" {
		path = "/chat/completions"
	}
	return p.endpoint(base, path, model)
}

// ModelsURL returns the model listing endpoint below base.
func (p Profile) ModelsURL(base *url.URL) string {
	path := p.ModelsPath
	if path == "" {
		path = "/models"
	}
	return p.endpoint(base, path, "")
}

func (p Profile) endpoint(base *url.URL, path, model string) string {
	u := *base
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	u.Path = strings.TrimRight(u.Path, "/") + strings.ReplaceAll(path, "{model}", model)
	u.RawPath = escaped + strings.ReplaceAll(path, "{model}", url.PathEscape(model))
	if len(p.Query) > 0 {
		q := u.Query()
		for k, vs := range p.Query {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// EncodeOptions returns the serialization options for this vendor.
// wireModel replaces the request's model name when non-empty.
func (p Profile) EncodeOptions(wireModel string) api.EncodeOptions {
	return api.EncodeOptions{
		Model:          wireModel,
		MaxTokensField: p.MaxTokensField,
		IncludeUsage:   p.StreamUsage,
	}
}

var allCapabilities = Capabilities{Streaming: true, ToolCalling: true, Vision: true}

// Generic returns the profile of an unknown OpenAI-compatible service:
// bearer auth, the reference paths, no version segment, and no capability
// restrictions.
func Generic() Profile {
	return Profile{
		Name:         "openai-compatible",
		Auth:         AuthBearer,
		Capabilities: allCapabilities,
	}
}

var (
	mu       sync.RWMutex
	profiles = map[string]Profile{
		"openai": {
			Name:           "openai",
			BaseURL:        "https://api.openai.com",
			Version:        "v1",
			Auth:           AuthBearer,
			StreamUsage:    true,
			MaxTokensField: api.MaxCompletionTokens,
			Capabilities:   allCapabilities,
		},
		"azure": {
			Name:         "azure",
			Auth:         AuthHeader,
			AuthHeader:   "api-key",
			Version:      "openai",
			ChatPath:     "/deployments/{model}/chat/completions",
			Query:        url.Values{"api-version": []string{"2024-10-21"}},
			StreamUsage:  true,
			Capabilities: allCapabilities,
		},
		"vllm": {
			Name:         "vllm",
			BaseURL:      "http://localhost:8000",
			Version:      "v1",
			Auth:         AuthNone,
			StreamUsage:  true,
			Capabilities: allCapabilities,
		},
		"litellm": {
			Name:         "litellm",
			BaseURL:      "http://localhost:4000",
			Version:      "v1",
			Auth:         AuthBearer,
			StreamUsage:  true,
			Capabilities: allCapabilities,
		},
		"stepfun": {
			Name:         "stepfun",
			BaseURL:      "https://api.stepfun.com",
			Version:      "v1",
			Auth:         AuthBearer,
			Capabilities: allCapabilities,
		},
		"zhipu": {
			Name:         "zhipu",
			BaseURL:      "https://open.bigmodel.cn/api/paas",
			Version:      "v4",
			Auth:         AuthJWT,
			Capabilities: allCapabilities,
		},
		"deepseek": {
			Name:         "deepseek",
			BaseURL:      "https://api.deepseek.com",
			Version:      "v1",
			Auth:         AuthBearer,
			StreamUsage:  true,
			Capabilities: Capabilities{Streaming: true, ToolCalling: true, Reasoning: true},
		},
	}
)

// Lookup returns the profile registered under name.
func Lookup(name string) (Profile, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := profiles[name]
	return p, ok
}

// Resolve is like Lookup but fails with an invalid provider error.
func Resolve(name string) (Profile, error) {
	p, ok := Lookup(name)
	if !ok {
		return Profile{}, schema.InvalidValue("provider", "unknown provider "+strings.TrimSpace(name))
	}
	return p, nil
}

// Register adds or replaces a profile.
func Register(p Profile) error {
	if strings.TrimSpace(p.Name) == "" {
		return schema.MissingField("name")
	}
	mu.Lock()
	defer mu.Unlock()
	profiles[p.Name] = p
	return nil
}

// Names returns the registered profile names in sorted order.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
