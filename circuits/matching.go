package circuits

import (
	"github.com/fenwick-labs/spdzmpc/exec"
	"github.com/fenwick-labs/spdzmpc/share"
)

// MinCostMaxMatching runs oblivious min-cost bipartite matching over an n x
// n cost matrix: builds the 2n+2 vertex flow network (source 0, sink 1,
// left vertices 2..n+1, right vertices n+2..2n+1; zero-cost source->left
// and right->sink edges; cost-carrying left->right edges) and recovers
// both match vectors. leftMatch[i] = j means left vertex i is matched to
// right vertex j, and symmetrically for rightMatch.
func MinCostMaxMatching(s *exec.Scope, cost [][]share.Share) (leftMatch, rightMatch []IntShare, err error) {
	n := len(cost)
	mod := s.Modulus()
	total := 2*n + 2

	adjacency := make([][]share.Share, total)
	costMatrix := make([][]share.Share, total)
	zero := s.Plain(mod.Zero())
	one := s.Plain(mod.One())
	for i := 0; i < total; i++ {
		adjacency[i] = make([]share.Share, total)
		costMatrix[i] = make([]share.Share, total)
		for j := 0; j < total; j++ {
			adjacency[i][j] = zero
			costMatrix[i][j] = zero
		}
	}

	for i := 0; i < n; i++ {
		left := 2 + i
		adjacency[0][left] = one
		costMatrix[0][left] = zero
		costMatrix[left][0] = zero

		right := n + 2 + i
		adjacency[right][1] = one
		costMatrix[right][1] = zero
		costMatrix[1][right] = zero

		for j := 0; j < n; j++ {
			r := n + 2 + j
			adjacency[left][r] = one
			costMatrix[left][r] = cost[i][j]
			costMatrix[r][left] = cost[i][j].Neg()
		}
	}

	network := &FlowNetwork{N: total, Adjacency: adjacency, Cost: costMatrix}
	flow, err := network.MinCostFlow(s, 0, 1, n)
	if err != nil {
		return nil, nil, err
	}

	idWidth := vertexWidth(n)
	leftMatch = make([]IntShare, n)
	rightMatch = make([]IntShare, n)
	for i := 0; i < n; i++ {
		leftSum := share.Zero(mod)
		for j := 0; j < n; j++ {
			leftSum = leftSum.Add(flow[2+i][n+2+j].Share.MulPublic(mod.FromUint64(uint64(j))))
		}
		leftMatch[i] = IntShare{Share: leftSum, N: idWidth}

		rightSum := share.Zero(mod)
		for leftIdx := 0; leftIdx < n; leftIdx++ {
			rightSum = rightSum.Add(flow[leftIdx+2][n+2+i].Share.MulPublic(mod.FromUint64(uint64(leftIdx))))
		}
		rightMatch[i] = IntShare{Share: rightSum, N: idWidth}
	}
	return leftMatch, rightMatch, nil
}
