// Package tools holds the functions the remote assistant may call and the
// executor that turns an invocation into a result.
package tools

import (
	"github.com/sashabaranov/go-openai/jsonschema"
)

// SearchProductsName is the name the assistant uses to request a catalog search.
const SearchProductsName = "searchProducts"

// Declaration describes a callable function to the remote endpoint.
type Declaration struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Parameters  jsonschema.Definition `json:"parameters"`
}

// Declarations returns every function the session advertises at setup.
func Declarations() []Declaration {
	return []Declaration{
		{
			Name:        SearchProductsName,
			Description: "Search for health products, vitamins, or supplements in the catalog.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"query": {
						Type:        jsonschema.String,
						Description: `The search keywords provided by the user, e.g. "vitamin c", "sleep aid".`,
					},
				},
				Required: []string{"query"},
			},
		},
	}
}
