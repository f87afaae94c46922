// Package queue provides the FIFO sequence the runner keeps pending jobs
// in.
//
// [Queue] is unbounded and safe for concurrent use: producers call Push from
// any goroutine while the runner's poll loop calls Pop.
//
//	q := queue.New[*job.Job]()
//	q.Push(j)
//	if next, ok := q.Pop(); ok {
//	    // dispatch next
//	}
//
// Pop on an empty queue returns the zero value and false rather than
// blocking; the runner decides how long to wait before polling again.
package queue
