package filter

import "feature-dashboard/src/models"

// FlattenCategories lists the category tree in pre-order. A category id seen
// twice is emitted once and its subtree is not walked again.
func FlattenCategories(root models.CmsCategory) []models.CategoryMap {
	var out []models.CategoryMap
	visited := make(map[int]struct{})

	stack := []models.CmsCategory{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[node.ID]; seen {
			continue
		}
		visited[node.ID] = struct{}{}
		out = append(out, models.CategoryMap{ID: node.ID, Name: node.Name})

		// children pushed in reverse so the first child is popped first
		for i := len(node.Children) - 1; i >= 0; i-- {
			stack = append(stack, node.Children[i])
		}
	}
	return out
}

// CategoryNames indexes flattened categories by id
func CategoryNames(categories []models.CategoryMap) map[int]string {
	names := make(map[int]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}
