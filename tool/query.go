package tool

import (
	"context"
)

// QueryFunc is the shape of every search and browse adapter: one query in,
// one normalized text block out.
type QueryFunc func(ctx context.Context, query string) (string, error)

type queryArgs struct {
	Query string `json:"query" description:"The query to run"`
}

// NewQueryTool wraps a QueryFunc as a Tool taking a single required "query"
// string argument.
func NewQueryTool(name, description string, invoke QueryFunc, optFns ...func(o *Options)) *FunctionTool {
	return NewFunctionToolFromStruct(name, description, queryArgs{}, func(ctx context.Context, args map[string]any) (any, error) {
		q, _ := args["query"].(string)
		return invoke(ctx, q)
	}, optFns...)
}
