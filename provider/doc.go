// Package provider defines the shared types produced by the per-provider
// message normalizers. Each subpackage (openai, anthropic, gemini)
// translates its provider's native request/response shapes into
// messages.Message values plus a CallInfo, so tracked records are uniform
// across providers.
package provider
