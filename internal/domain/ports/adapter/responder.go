package adapter

// Responder maps a user input to a canned reply. Implementations must be
// deterministic and must always return a reply.
type Responder interface {
	Respond(input string) string
}
