package fanout

import "sync"

const sinkQueueDepth = 64

// queuedSink wraps a Sink with its own bounded channel and goroutine, so a
// slow sink never blocks Publish.
type queuedSink struct {
	sink    Sink
	queue   chan Record
	wg      sync.WaitGroup
	closeCh chan struct{}
}

func newQueuedSink(sink Sink) *queuedSink {
	qs := &queuedSink{
		sink:    sink,
		queue:   make(chan Record, sinkQueueDepth),
		closeCh: make(chan struct{}),
	}
	qs.wg.Add(1)
	go qs.run()
	return qs
}

func (qs *queuedSink) run() {
	defer qs.wg.Done()
	for {
		select {
		case r := <-qs.queue:
			qs.sink.Publish(r)
		case <-qs.closeCh:
			qs.drain()
			return
		}
	}
}

// drain flushes whatever is already queued before the sink shuts down.
func (qs *queuedSink) drain() {
	for {
		select {
		case r := <-qs.queue:
			qs.sink.Publish(r)
		default:
			return
		}
	}
}

func (qs *queuedSink) offer(r Record) {
	select {
	case qs.queue <- r:
	default:
		// Queue full: skip the enqueue so the pipeline loop never blocks on
		// a slow sink. This drop is not counted anywhere; the sink's
		// Dropped() counter only covers its own publish failures.
	}
}

func (qs *queuedSink) close() error {
	close(qs.closeCh)
	qs.wg.Wait()
	return qs.sink.Close()
}

// Fanout publishes one Record to every enabled Sink without blocking the
// caller: each sink has its own bounded queue and goroutine.
type Fanout struct {
	sinks []*queuedSink
}

// New returns a Fanout publishing to sinks.
func New(sinks ...Sink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		f.sinks = append(f.sinks, newQueuedSink(s))
	}
	return f
}

// Publish fans r out to every sink. Never blocks beyond the channel send;
// a full queue drops the record for that sink.
func (f *Fanout) Publish(r Record) {
	for _, qs := range f.sinks {
		qs.offer(r)
	}
}

// Close shuts down every sink, draining each queue up to its own Close
// semantics.
func (f *Fanout) Close() error {
	var firstErr error
	for _, qs := range f.sinks {
		if err := qs.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Sinks returns the wrapped sinks, for stats reporting.
func (f *Fanout) Sinks() []Sink {
	out := make([]Sink, len(f.sinks))
	for i, qs := range f.sinks {
		out[i] = qs.sink
	}
	return out
}
