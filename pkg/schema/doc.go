// Package schema provides validated builders for the nested structures of a
// chat completion request: messages, function tools and their JSON parameter
// schemas.
//
// Every builder method returns a new builder value. Validation happens only in
// Build, which either returns an immutable value or a *BuildError naming the
// offending field.
package schema
