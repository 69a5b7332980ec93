package uthread

// Red-black tree keyed by vruntime, used only by the CFS policy
// (policy_cfs.go). Translated directly from
// original_source/src/sched_cfs.c's rb_insert/rb_remove/fix-up routines —
// same rotation and recoloring shape, operating on *Thread instead of
// struct uthread_internal* and addressed through a cfsTree receiver
// instead of a single global.

type cfsTree struct {
	root    *Thread
	leftmost *Thread
	count   int
}

func (tr *cfsTree) rotateLeft(x *Thread) {
	y := x.rbRight
	x.rbRight = y.rbLeft
	if y.rbLeft != nil {
		y.rbLeft.rbParent = x
	}
	y.rbParent = x.rbParent
	switch {
	case x.rbParent == nil:
		tr.root = y
	case x == x.rbParent.rbLeft:
		x.rbParent.rbLeft = y
	default:
		x.rbParent.rbRight = y
	}
	y.rbLeft = x
	x.rbParent = y
}

func (tr *cfsTree) rotateRight(y *Thread) {
	x := y.rbLeft
	y.rbLeft = x.rbRight
	if x.rbRight != nil {
		x.rbRight.rbParent = y
	}
	x.rbParent = y.rbParent
	switch {
	case y.rbParent == nil:
		tr.root = x
	case y == y.rbParent.rbLeft:
		y.rbParent.rbLeft = x
	default:
		y.rbParent.rbRight = x
	}
	x.rbRight = y
	y.rbParent = x
}

func (tr *cfsTree) insertFixup(z *Thread) {
	for z.rbParent != nil && z.rbParent.rbColor == rbRed {
		grandparent := z.rbParent.rbParent
		if z.rbParent == grandparent.rbLeft {
			y := grandparent.rbRight
			if y != nil && y.rbColor == rbRed {
				z.rbParent.rbColor = rbBlack
				y.rbColor = rbBlack
				grandparent.rbColor = rbRed
				z = grandparent
			} else {
				if z == z.rbParent.rbRight {
					z = z.rbParent
					tr.rotateLeft(z)
				}
				z.rbParent.rbColor = rbBlack
				z.rbParent.rbParent.rbColor = rbRed
				tr.rotateRight(z.rbParent.rbParent)
			}
		} else {
			y := grandparent.rbLeft
			if y != nil && y.rbColor == rbRed {
				z.rbParent.rbColor = rbBlack
				y.rbColor = rbBlack
				grandparent.rbColor = rbRed
				z = grandparent
			} else {
				if z == z.rbParent.rbLeft {
					z = z.rbParent
					tr.rotateRight(z)
				}
				z.rbParent.rbColor = rbBlack
				z.rbParent.rbParent.rbColor = rbRed
				tr.rotateLeft(z.rbParent.rbParent)
			}
		}
	}
	tr.root.rbColor = rbBlack
}

func (tr *cfsTree) insert(thread *Thread) {
	var y *Thread
	x := tr.root
	for x != nil {
		y = x
		if thread.vruntime < x.vruntime {
			x = x.rbLeft
		} else {
			x = x.rbRight
		}
	}

	thread.rbParent = y
	thread.rbLeft = nil
	thread.rbRight = nil
	thread.rbColor = rbRed

	switch {
	case y == nil:
		tr.root = thread
	case thread.vruntime < y.vruntime:
		y.rbLeft = thread
	default:
		y.rbRight = thread
	}

	if tr.leftmost == nil || thread.vruntime < tr.leftmost.vruntime {
		tr.leftmost = thread
	}

	tr.insertFixup(thread)
	tr.count++
}

func (tr *cfsTree) transplant(u, v *Thread) {
	switch {
	case u.rbParent == nil:
		tr.root = v
	case u == u.rbParent.rbLeft:
		u.rbParent.rbLeft = v
	default:
		u.rbParent.rbRight = v
	}
	if v != nil {
		v.rbParent = u.rbParent
	}
}

func rbMinimum(x *Thread) *Thread {
	for x.rbLeft != nil {
		x = x.rbLeft
	}
	return x
}

func (tr *cfsTree) removeFixup(x, xParent *Thread) {
	for x != tr.root && (x == nil || x.rbColor == rbBlack) {
		if x == xParent.rbLeft {
			w := xParent.rbRight
			if w != nil && w.rbColor == rbRed {
				w.rbColor = rbBlack
				xParent.rbColor = rbRed
				tr.rotateLeft(xParent)
				w = xParent.rbRight
			}
			if w == nil || ((w.rbLeft == nil || w.rbLeft.rbColor == rbBlack) && (w.rbRight == nil || w.rbRight.rbColor == rbBlack)) {
				if w != nil {
					w.rbColor = rbRed
				}
				x = xParent
				xParent = x.rbParent
			} else {
				if w.rbRight == nil || w.rbRight.rbColor == rbBlack {
					if w.rbLeft != nil {
						w.rbLeft.rbColor = rbBlack
					}
					w.rbColor = rbRed
					tr.rotateRight(w)
					w = xParent.rbRight
				}
				w.rbColor = xParent.rbColor
				xParent.rbColor = rbBlack
				if w.rbRight != nil {
					w.rbRight.rbColor = rbBlack
				}
				tr.rotateLeft(xParent)
				x = tr.root
				break
			}
		} else {
			w := xParent.rbLeft
			if w != nil && w.rbColor == rbRed {
				w.rbColor = rbBlack
				xParent.rbColor = rbRed
				tr.rotateRight(xParent)
				w = xParent.rbLeft
			}
			if w == nil || ((w.rbRight == nil || w.rbRight.rbColor == rbBlack) && (w.rbLeft == nil || w.rbLeft.rbColor == rbBlack)) {
				if w != nil {
					w.rbColor = rbRed
				}
				x = xParent
				xParent = x.rbParent
			} else {
				if w.rbLeft == nil || w.rbLeft.rbColor == rbBlack {
					if w.rbRight != nil {
						w.rbRight.rbColor = rbBlack
					}
					w.rbColor = rbRed
					tr.rotateLeft(w)
					w = xParent.rbLeft
				}
				w.rbColor = xParent.rbColor
				xParent.rbColor = rbBlack
				if w.rbLeft != nil {
					w.rbLeft.rbColor = rbBlack
				}
				tr.rotateRight(xParent)
				x = tr.root
				break
			}
		}
	}
	if x != nil {
		x.rbColor = rbBlack
	}
}

func (tr *cfsTree) remove(z *Thread) {
	if z == nil {
		return
	}

	y := z
	var x, xParent *Thread
	yOriginalColor := y.rbColor

	switch {
	case z.rbLeft == nil:
		x = z.rbRight
		xParent = z.rbParent
		tr.transplant(z, z.rbRight)
	case z.rbRight == nil:
		x = z.rbLeft
		xParent = z.rbParent
		tr.transplant(z, z.rbLeft)
	default:
		y = rbMinimum(z.rbRight)
		yOriginalColor = y.rbColor
		x = y.rbRight

		if y.rbParent == z {
			xParent = y
		} else {
			xParent = y.rbParent
			tr.transplant(y, y.rbRight)
			y.rbRight = z.rbRight
			y.rbRight.rbParent = y
		}

		tr.transplant(z, y)
		y.rbLeft = z.rbLeft
		y.rbLeft.rbParent = y
		y.rbColor = z.rbColor
	}

	if z == tr.leftmost {
		if tr.root != nil {
			tr.leftmost = rbMinimum(tr.root)
		} else {
			tr.leftmost = nil
		}
	}

	if yOriginalColor == rbBlack && tr.root != nil {
		tr.removeFixup(x, xParent)
	}

	z.rbParent = nil
	z.rbLeft = nil
	z.rbRight = nil
	tr.count--
}

// contains performs the same BST-guided membership search as
// sched_cfs.c's cfs_remove, used to guard against double-removal.
func (tr *cfsTree) contains(thread *Thread) bool {
	node := tr.root
	for node != nil {
		if node == thread {
			return true
		}
		if thread.vruntime < node.vruntime {
			node = node.rbLeft
		} else {
			node = node.rbRight
		}
	}
	return false
}
