package tools

import (
	"fmt"

	"go.uber.org/zap"
)

// SearchFunc is the host callback that runs a catalog search.
type SearchFunc func(query string)

// Invocation is a single function call requested by the assistant.
type Invocation struct {
	ID   string
	Name string
	Args map[string]any
}

// Result answers exactly one Invocation.
type Result struct {
	ID       string
	Name     string
	Response map[string]any
}

// Executor runs invocations locally. The bool is false when the invocation
// names a function this side does not handle, in which case no result must
// be sent.
type Executor interface {
	Execute(inv Invocation) (Result, bool)
}

type executor struct {
	logger *zap.Logger
	search SearchFunc
}

// NewExecutor returns an Executor that dispatches searchProducts to search.
func NewExecutor(logger *zap.Logger, search SearchFunc) Executor {
	return &executor{
		logger: logger.Named("tools"),
		search: search,
	}
}

func (e *executor) Execute(inv Invocation) (Result, bool) {
	switch inv.Name {
	case SearchProductsName:
		return e.searchProducts(inv), true
	default:
		e.logger.Warn("Ignoring call to unknown tool",
			zap.String("tool", inv.Name),
			zap.String("call_id", inv.ID))
		return Result{}, false
	}
}

func (e *executor) searchProducts(inv Invocation) Result {
	query := queryArg(inv.Args)

	e.logger.Info("Running product search",
		zap.String("call_id", inv.ID),
		zap.String("query", query))

	if e.search != nil {
		e.search(query)
	}

	return Result{
		ID:   inv.ID,
		Name: inv.Name,
		Response: map[string]any{
			"result": fmt.Sprintf("Executed search for \"%s\". The results are now visible on the screen.", query),
		},
	}
}

// queryArg reads the query argument. Non-string values are rendered with
// their default formatting and a missing value becomes the empty query.
func queryArg(args map[string]any) string {
	v, ok := args["query"]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}

	return fmt.Sprint(v)
}
