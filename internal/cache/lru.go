package cache

// entry is a node of the recency list. The head is the most recently used.
type entry[K comparable, V any] struct {
	key   K
	value V
	cost  int64

	prev, next *entry[K, V]
}

// lruList is a doubly-linked recency list.
type lruList[K comparable, V any] struct {
	head, tail *entry[K, V]
	len        int
}

func (l *lruList[K, V]) pushFront(e *entry[K, V]) {
	e.prev = nil
	e.next = l.head
	if l.head != nil {
		l.head.prev = e
	}
	l.head = e
	if l.tail == nil {
		l.tail = e
	}
	l.len++
}

func (l *lruList[K, V]) moveToFront(e *entry[K, V]) {
	if e == l.head {
		return
	}
	l.unlink(e)
	l.pushFront(e)
}

// back returns the least recently used entry, or nil.
func (l *lruList[K, V]) back() *entry[K, V] { return l.tail }

func (l *lruList[K, V]) unlink(e *entry[K, V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		l.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		l.tail = e.prev
	}
	e.prev, e.next = nil, nil
	l.len--
}
