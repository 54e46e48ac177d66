package grid

// Deque is the traversal work list. Tiles link through their own fields so
// pushing never allocates, and a tile is queued at most once.
type Deque struct {
	head, tail *Tile
	n          int
}

func (d *Deque) Len() int { return d.n }

// PushFront queues t at the head. A tile already queued is moved to the head.
func (d *Deque) PushFront(t *Tile) {
	if t.queued {
		if d.head == t {
			return
		}
		d.unlink(t)
	}
	t.prev = nil
	t.next = d.head
	if d.head != nil {
		d.head.prev = t
	} else {
		d.tail = t
	}
	d.head = t
	t.queued = true
	d.n++
}

// PopFront removes and returns the head, or nil when empty.
func (d *Deque) PopFront() *Tile {
	t := d.head
	if t == nil {
		return nil
	}
	d.unlink(t)
	return t
}

func (d *Deque) unlink(t *Tile) {
	if t.prev != nil {
		t.prev.next = t.next
	} else {
		d.head = t.next
	}
	if t.next != nil {
		t.next.prev = t.prev
	} else {
		d.tail = t.prev
	}
	t.prev, t.next = nil, nil
	t.queued = false
	d.n--
}

// Clear unlinks every queued tile.
func (d *Deque) Clear() {
	for d.head != nil {
		d.unlink(d.head)
	}
}
