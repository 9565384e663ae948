package grid

// TryMoveParticle attempts to move the particle at index along the first legal
// offset. Groups are tried in order; the offsets inside one group are tried in
// a fresh random order on every call. A move is legal when the target cell is
// in bounds, movable, and strictly less dense than the source. The two cells
// exchange their particles and keep their own coordinates.
//
// A false result means the particle is settled.
func (g *Grid) TryMoveParticle(index int, groups [][]Offset, markDirty, markNeighbors bool) bool {
	if index < 0 || index >= len(g.data) {
		return false
	}
	sx, sy := index%g.w, index/g.w
	density := g.data[index].Density

	for _, group := range groups {
		for _, off := range g.shuffled(group) {
			tx, ty := sx+off.DX, sy+off.DY
			if !g.InBounds(tx, ty) {
				continue
			}
			target := ty*g.w + tx
			if target == index {
				continue
			}
			dst := &g.data[target]
			if !dst.Movable || density <= dst.Density {
				continue
			}

			g.swap(index, target)
			if markDirty {
				g.MarkDirty(sx, sy, markNeighbors)
				g.MarkDirty(tx, ty, markNeighbors)
			}
			return true
		}
	}
	return false
}

// shuffled returns the group in a random order using a scratch buffer. The
// caller's slice is never reordered.
func (g *Grid) shuffled(group []Offset) []Offset {
	if len(group) < 2 {
		return group
	}
	g.scratch = append(g.scratch[:0], group...)
	s := g.scratch
	g.rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
	return s
}

func (g *Grid) swap(a, b int) {
	g.data[a], g.data[b] = g.data[b], g.data[a]
	g.place(a)
	g.place(b)
}

func (g *Grid) place(i int) {
	p := &g.data[i]
	p.X = i % g.w
	p.Y = i / g.w
	p.Index = i
}
