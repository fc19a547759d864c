package source

import (
	"github.com/shaileshms05/learnXAI/internal/extract"
	"github.com/shaileshms05/learnXAI/internal/fetchchain"
)

// LinkedIn has no unauthenticated listing endpoint, so its plan is empty
// and the chain reports it unavailable.
func LinkedIn() Definition {
	return Definition{
		ID:   "linkedin",
		Name: "LinkedIn",
		Plan: func(Request) fetchchain.Plan {
			return fetchchain.Plan{Source: "linkedin", Unavailable: "requires authenticated API"}
		},
		Rules: func(Request) extract.Rules {
			return extract.Rules{Source: "linkedin"}
		},
	}
}
