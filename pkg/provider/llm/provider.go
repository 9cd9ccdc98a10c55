// Package llm defines the free-text delegate interface for voxmenu.
//
// The ordering core answers everything it can deterministically; utterances
// that match no structured intent (small talk beyond the built-in
// templates, open-ended menu questions) are delegated to a language model.
// The delegate's reply is treated as opaque text — the core never parses or
// validates it.
//
// Implementations must be safe for concurrent use and must propagate
// context cancellation promptly.
package llm

import "context"

// Message roles.
const (
	RoleCaller = "caller"
	RoleAgent  = "agent"
)

// Message is one exchange in the recent conversation history supplied to
// the delegate for context.
type Message struct {
	// Role is [RoleCaller] or [RoleAgent].
	Role string

	// Content is the message text.
	Content string
}

// Request carries everything the delegate needs to produce a reply.
type Request struct {
	// Utterance is the caller's text for this turn.
	Utterance string

	// MenuSummary is a compact rendering of the menu (categories and item
	// names with prices) so the model can answer menu questions without
	// hallucinating dishes.
	MenuSummary string

	// OrderSummary is the current order recap, empty when nothing is ordered.
	OrderSummary string

	// RestaurantInfo is the restaurant's name, address, and phone line.
	RestaurantInfo string

	// History is the recent conversation, oldest first. May be empty.
	History []Message
}

// Provider is the abstraction over any free-text generation backend.
type Provider interface {
	// Generate produces a conversational reply for req. The result is
	// opaque reply text; an error means no reply could be produced and the
	// caller should fall back to a deterministic template.
	Generate(ctx context.Context, req Request) (string, error)

	// Name identifies the backend for logs and metrics.
	Name() string
}

// SystemPrompt is the fixed instruction shared by the remote backends.
const SystemPrompt = "You are a friendly phone receptionist for a restaurant. " +
	"Answer briefly in one or two spoken sentences. Only discuss the " +
	"restaurant, its menu, and the caller's order. If asked anything else, " +
	"politely steer the conversation back to the menu."

// BuildPrompt renders req into the user-message text shared by the remote
// backends. Exported so tests and new backends can assert on the exact
// prompt shape.
func BuildPrompt(req Request) string {
	prompt := "Restaurant: " + req.RestaurantInfo + "\n"
	if req.MenuSummary != "" {
		prompt += "Menu: " + req.MenuSummary + "\n"
	}
	if req.OrderSummary != "" {
		prompt += "Current order: " + req.OrderSummary + "\n"
	}
	prompt += "Caller says: " + req.Utterance
	return prompt
}
