package parallel

type queue[T any] []T

func (q *queue[T]) Len() int { return len(*q) }

func (q *queue[T]) Pop() T {
	return q.Remove(0)
}

func (q *queue[T]) Push(t T) {
	*q = append(*q, t)
}

func (q *queue[T]) At(i int) T {
	return (*q)[i]
}

// Remove takes the element at i out of the queue keeping the order of the rest.
func (q *queue[T]) Remove(i int) T {
	old := *q
	x := old[i]
	copy(old[i:], old[i+1:])
	var zero T
	old[len(old)-1] = zero
	*q = old[:len(old)-1]
	return x
}

// Drain empties the queue and returns what was in it.
func (q *queue[T]) Drain() []T {
	items := *q
	*q = nil
	return items
}
