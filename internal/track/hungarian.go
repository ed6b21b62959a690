package track

import "math"

// hungarianInf stands in for infinity in the cost matrix: entries at or
// above this are forbidden assignments and never selected.
const hungarianInf = 1e18

// HungarianAssign solves the rectangular assignment problem for an n×m cost
// matrix using Kuhn-Munkres with potentials (Jonker-Volgenant variant). It
// returns assignments[i] = column index assigned to row i, or -1 if row i
// is unassigned. Costs at or above hungarianInf are treated as forbidden.
func HungarianAssign(cost [][]float64) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}
	m := len(cost[0])
	if m == 0 {
		result := make([]int, n)
		for i := range result {
			result[i] = -1
		}
		return result
	}

	dim := n
	if m > dim {
		dim = m
	}

	c := make([][]float64, dim)
	for i := 0; i < dim; i++ {
		c[i] = make([]float64, dim)
		for j := 0; j < dim; j++ {
			if i < n && j < m {
				c[i][j] = cost[i][j]
			} else {
				c[i][j] = hungarianInf
			}
		}
	}

	const inf = math.MaxFloat64 / 2

	u := make([]float64, dim+1)
	v := make([]float64, dim+1)
	p := make([]int, dim+1)
	way := make([]int, dim+1)
	minv := make([]float64, dim+1)
	used := make([]bool, dim+1)

	for i := 1; i <= dim; i++ {
		p[0] = i
		j0 := 0

		for j := 1; j <= dim; j++ {
			minv[j] = inf
			used[j] = false
		}

		for {
			used[j0] = true
			i0 := p[j0]
			delta := inf
			j1 := -1

			for j := 1; j <= dim; j++ {
				if used[j] {
					continue
				}
				cur := c[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta = minv[j]
					j1 = j
				}
			}

			if j1 < 0 {
				break
			}

			for j := 0; j <= dim; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			p[j0] = p[way[j0]]
			j0 = way[j0]
		}
	}

	rowAssign := make([]int, dim)
	for i := range rowAssign {
		rowAssign[i] = -1
	}
	for j := 1; j <= dim; j++ {
		if p[j] > 0 && p[j] <= dim {
			rowAssign[p[j]-1] = j - 1
		}
	}

	result := make([]int, n)
	for i := 0; i < n; i++ {
		col := rowAssign[i]
		if col < 0 || col >= m || cost[i][col] >= hungarianInf {
			result[i] = -1
		} else {
			result[i] = col
		}
	}

	return result
}

// GreedyAssign is the fallback assignment strategy: tracks are visited in
// descending confidence order and each claims its lowest-cost ungated
// detection that is still free. It can ping-pong between two close tracks
// across frames in a way the optimal solver doesn't; Hungarian is the
// recommended default.
func GreedyAssign(cost [][]float64, trackConfidence []float64) []int {
	n := len(cost)
	result := make([]int, n)
	for i := range result {
		result[i] = -1
	}
	if n == 0 {
		return result
	}
	m := len(cost[0])

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if trackConfidence[order[j]] > trackConfidence[order[i]] {
				order[i], order[j] = order[j], order[i]
			}
		}
	}

	detectionUsed := make([]bool, m)
	for _, i := range order {
		bestJ := -1
		bestCost := hungarianInf
		for j := 0; j < m; j++ {
			if detectionUsed[j] {
				continue
			}
			if cost[i][j] < bestCost {
				bestCost = cost[i][j]
				bestJ = j
			}
		}
		if bestJ >= 0 && bestCost < hungarianInf {
			result[i] = bestJ
			detectionUsed[bestJ] = true
		}
	}

	return result
}
