// Package cost holds the token-cost formulas.
//
// Costs are fractional token amounts, so they are computed as decimals
// rather than floats; the ledger compares them against balances without
// rounding. Both formulas are pure and total. Negative inputs are
// rejected by payload validation upstream, not here.
package cost

import "github.com/shopspring/decimal"

var (
	perNode       = decimal.RequireFromString("0.15")
	perEdge       = decimal.RequireFromString("0.01")
	perEdgeUpdate = decimal.RequireFromString("0.05")
)

// ModelCreationCost is the token cost of materializing a graph:
// nodeCount*0.15 + edgeCount*0.01. The same formula prices a path
// execution, re-derived from the current graph size at execution time.
func ModelCreationCost(nodeCount, edgeCount int) decimal.Decimal {
	nodes := decimal.NewFromInt(int64(nodeCount)).Mul(perNode)
	edges := decimal.NewFromInt(int64(edgeCount)).Mul(perEdge)
	return nodes.Add(edges)
}

// UpdateCost is the token cost of an edge-weight update proposal:
// edgeCount*0.05, where edgeCount is the number of proposed edges.
func UpdateCost(edgeCount int) decimal.Decimal {
	return decimal.NewFromInt(int64(edgeCount)).Mul(perEdgeUpdate)
}
