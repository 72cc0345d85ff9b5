package providers

import "context"

// Client is the contract every provider variant implements.
// A call either returns a Response with normalized usage or a classified error.
//
// Example usage:
//
//	client, err := factory.GetClient(ctx, "openai")
//	if err != nil {
//	    return err
//	}
//
//	resp, err := client.Call(ctx, &Request{UserPrompt: "hello"})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(resp.Usage.InputTokens)
type Client interface {
	// Call sends a single prompt and returns the normalized response.
	// Clients never retry internally; failures are returned as *ProviderError
	// carrying a transient or fatal Kind so callers can decide.
	Call(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider identifier.
	Name() string

	// Model returns the default model used when a request does not set one.
	Model() string

	// Close releases pooled connections.
	Close() error
}
