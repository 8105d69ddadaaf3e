// Package loopline is the Go SDK for the Loopline prompt-management and
// LLM-observability service.
//
// The client retrieves versioned prompt, agent and tool definitions with
// {{placeholder}} parameter substitution, and submits tracked LLM-call
// records to the backend in the background.
//
//	client, err := loopline.New(loopline.WithAPIKey("sk-..."))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close(context.Background())
//
//	text, err := client.GetPrompt(ctx, "welcome-email",
//		entity.NewConfig("Hello {{name}}").WithParam("name", entity.Literal("Ada")))
//
// When the backend is unreachable the locally supplied definition is
// evaluated instead, so prompt retrieval degrades gracefully; definition
// errors (self references, cycles, missing parameters) always surface.
//
// Message normalization for OpenAI, Anthropic and Gemini payloads lives in
// the provider subpackages; the template engine lives in package entity.
package loopline
