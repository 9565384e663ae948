package grid

// dirtySet records changed cell indices without duplicates. Iteration order is
// insertion order, which keeps seeded runs reproducible.
type dirtySet struct {
	marked []bool
	list   []int
}

func newDirtySet(n int) dirtySet {
	return dirtySet{marked: make([]bool, n), list: make([]int, 0, 64)}
}

func (d *dirtySet) add(i int) {
	if d.marked[i] {
		return
	}
	d.marked[i] = true
	d.list = append(d.list, i)
}

func (d *dirtySet) has(i int) bool { return d.marked[i] }

// take appends the recorded indices to dst and empties the set.
func (d *dirtySet) take(dst []int) []int {
	dst = append(dst, d.list...)
	d.clear()
	return dst
}

func (d *dirtySet) clear() {
	for _, i := range d.list {
		d.marked[i] = false
	}
	d.list = d.list[:0]
}
