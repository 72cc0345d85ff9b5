// Package gemini implements the Google Gemini provider variant on the
// google.golang.org/genai SDK (generateContent, Gemini API backend).
//
// Usage mapping:
//
//	input     = usageMetadata.promptTokenCount
//	cached    = usageMetadata.cachedContentTokenCount
//	output    = usageMetadata.candidatesTokenCount
//	reasoning = usageMetadata.thoughtsTokenCount
//
// Gemini publishes no separate cached input rate for every tier, so costs for
// cached tokens may be flagged as pricing-incomplete by pkg/costs.
package gemini
