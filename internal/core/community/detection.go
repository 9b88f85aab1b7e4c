package community

import (
	"sort"

	"github.com/agenthands/lineage/internal/core/model"
)

// Detect groups persons into families: connected components of the graph
// formed by every relationship type, read as undirected. Isolated persons
// form their own family. Families and their members follow person order.
func Detect(persons []model.Person, relationships []model.Relationship) [][]model.Person {
	nodeMap := make(map[string]model.Person, len(persons))
	adj := make(map[string][]string)

	for _, p := range persons {
		nodeMap[p.ID] = p
	}

	for _, r := range relationships {
		// Edges pointing outside the person set would pull in unknown ids.
		if _, ok := nodeMap[r.From]; !ok {
			continue
		}
		if _, ok := nodeMap[r.To]; !ok {
			continue
		}

		adj[r.From] = append(adj[r.From], r.To)
		adj[r.To] = append(adj[r.To], r.From)
	}

	visited := make(map[string]bool)
	order := make(map[string]int, len(persons))
	for i, p := range persons {
		order[p.ID] = i
	}

	var families [][]model.Person
	for _, p := range persons {
		if visited[p.ID] {
			continue
		}
		var component []string
		dfs(p.ID, adj, visited, &component)

		family := make([]model.Person, len(component))
		for i, id := range component {
			family[i] = nodeMap[id]
		}
		sort.Slice(family, func(i, j int) bool {
			return order[family[i].ID] < order[family[j].ID]
		})
		families = append(families, family)
	}

	return families
}

func dfs(u string, adj map[string][]string, visited map[string]bool, component *[]string) {
	visited[u] = true
	*component = append(*component, u)
	for _, v := range adj[u] {
		if !visited[v] {
			dfs(v, adj, visited, component)
		}
	}
}
