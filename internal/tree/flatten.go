package tree

// Batches groups jobs by the "/"-joined names of their ancestor groups.
// Paths keep first-seen order and jobs keep traversal order.
type Batches struct {
	order []string
	jobs  map[string][]*Job
}

func newBatches() *Batches {
	return &Batches{jobs: make(map[string][]*Job)}
}

// Paths returns every path that holds at least one job, in first-seen order.
func (b *Batches) Paths() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Jobs returns the jobs collected at path.
func (b *Batches) Jobs(path string) []*Job {
	return b.jobs[path]
}

// Len counts all jobs across paths.
func (b *Batches) Len() int {
	n := 0
	for _, jobs := range b.jobs {
		n += len(jobs)
	}
	return n
}

// Each visits every (path, job) pair in path order then traversal order.
func (b *Batches) Each(fn func(path string, job *Job)) {
	for _, path := range b.order {
		for _, job := range b.jobs[path] {
			fn(path, job)
		}
	}
}

func (b *Batches) add(path string, job *Job) {
	if _, ok := b.jobs[path]; !ok {
		b.order = append(b.order, path)
	}
	b.jobs[path] = append(b.jobs[path], job)
}

// Flatten walks the forest depth-first. A group appends its name to the
// accumulated path; a job is appended to the list for the current path.
// Top-level jobs land under the empty path. Jobs that end up at the same
// path are all kept, in traversal order.
func Flatten(roots ...Node) *Batches {
	b := newBatches()
	for _, root := range roots {
		flatten(b, root, "")
	}
	return b
}

func flatten(b *Batches, n Node, path string) {
	switch node := n.(type) {
	case *Job:
		b.add(path, node)
	case *Group:
		childPath := node.Name
		if path != "" {
			childPath = path + "/" + node.Name
		}
		for _, child := range node.Children {
			flatten(b, child, childPath)
		}
	}
}
