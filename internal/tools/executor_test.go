package tools_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Raikerian/vitacare-voice/internal/tools"
)

func TestExecutor_Execute(t *testing.T) {
	tests := map[string]struct {
		inv         tools.Invocation
		wantHandled bool
		wantQueries []string
		wantResult  string
	}{
		"search_products": {
			inv: tools.Invocation{
				ID:   "call-1",
				Name: tools.SearchProductsName,
				Args: map[string]any{"query": "vitamin c"},
			},
			wantHandled: true,
			wantQueries: []string{"vitamin c"},
			wantResult:  `Executed search for "vitamin c". The results are now visible on the screen.`,
		},
		"missing_query": {
			inv: tools.Invocation{
				ID:   "call-2",
				Name: tools.SearchProductsName,
			},
			wantHandled: true,
			wantQueries: []string{""},
			wantResult:  `Executed search for "". The results are now visible on the screen.`,
		},
		"numeric_query": {
			inv: tools.Invocation{
				ID:   "call-3",
				Name: tools.SearchProductsName,
				Args: map[string]any{"query": 3.5},
			},
			wantHandled: true,
			wantQueries: []string{"3.5"},
			wantResult:  `Executed search for "3.5". The results are now visible on the screen.`,
		},
		"unknown_tool": {
			inv: tools.Invocation{
				ID:   "call-4",
				Name: "bookDoctor",
				Args: map[string]any{"query": "cardiology"},
			},
			wantHandled: false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var queries []string
			exec := tools.NewExecutor(zaptest.NewLogger(t), func(q string) {
				queries = append(queries, q)
			})

			res, handled := exec.Execute(tt.inv)

			assert.Equal(t, tt.wantHandled, handled)
			assert.Equal(t, tt.wantQueries, queries)
			if !tt.wantHandled {
				assert.Equal(t, tools.Result{}, res)
				return
			}
			assert.Equal(t, tt.inv.ID, res.ID)
			assert.Equal(t, tt.inv.Name, res.Name)
			assert.Equal(t, map[string]any{"result": tt.wantResult}, res.Response)
		})
	}
}

func TestExecutor_NilSearch(t *testing.T) {
	exec := tools.NewExecutor(zaptest.NewLogger(t), nil)

	res, handled := exec.Execute(tools.Invocation{
		ID:   "call-1",
		Name: tools.SearchProductsName,
		Args: map[string]any{"query": "zinc"},
	})

	require.True(t, handled)
	assert.Equal(t, "call-1", res.ID)
}

func TestDeclarations(t *testing.T) {
	decls := tools.Declarations()
	require.Len(t, decls, 1)
	assert.Equal(t, tools.SearchProductsName, decls[0].Name)

	raw, err := json.Marshal(decls[0])
	require.NoError(t, err)

	var schema struct {
		Name       string `json:"name"`
		Parameters struct {
			Type       string                    `json:"type"`
			Properties map[string]map[string]any `json:"properties"`
			Required   []string                  `json:"required"`
		} `json:"parameters"`
	}
	require.NoError(t, json.Unmarshal(raw, &schema))

	assert.Equal(t, "object", schema.Parameters.Type)
	assert.Equal(t, []string{"query"}, schema.Parameters.Required)
	assert.Equal(t, "string", schema.Parameters.Properties["query"]["type"])
}
