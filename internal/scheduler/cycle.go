package scheduler

// HasCycle reports whether the precedence relation contains a cycle.
// The composition relation is not considered.
func (g *Graph) HasCycle() bool {
	return g.FindCycle() != nil
}

// FindCycle returns the IDs along one precedence cycle, first ID repeated at
// the end, or nil if the relation is acyclic. Tasks are visited in creation
// order so the reported cycle is deterministic.
func (g *Graph) FindCycle() []int {
	visited := make(map[int]bool)
	onStack := make(map[int]bool)
	var path []int

	var visit func(task *Task) []int
	visit = func(task *Task) []int {
		visited[task.ID] = true
		onStack[task.ID] = true
		path = append(path, task.ID)

		for _, depID := range task.dependencies {
			if onStack[depID] {
				return closeCycle(path, depID)
			}
			if visited[depID] {
				continue
			}
			dep, ok := g.index[depID]
			if !ok {
				continue
			}
			if cycle := visit(dep); cycle != nil {
				return cycle
			}
		}

		onStack[task.ID] = false
		path = path[:len(path)-1]
		return nil
	}

	for _, task := range g.tasks {
		if visited[task.ID] {
			continue
		}
		if cycle := visit(task); cycle != nil {
			return cycle
		}
	}
	return nil
}

// ValidateAcyclic returns a GraphError wrapping ErrCycleDetected if the
// precedence relation is cyclic.
func (g *Graph) ValidateAcyclic() error {
	if cycle := g.FindCycle(); cycle != nil {
		return cycleError(cycle)
	}
	return nil
}

// closeCycle extracts the suffix of path starting at id and closes the loop.
func closeCycle(path []int, id int) []int {
	for i, p := range path {
		if p == id {
			cycle := append([]int(nil), path[i:]...)
			return append(cycle, id)
		}
	}
	return []int{id, id}
}
