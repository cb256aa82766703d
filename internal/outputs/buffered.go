package outputs

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// BufferedWriter queues writes on a channel and flushes them in batches from
// a background worker. When the queue is full the write goes straight to the
// underlying writer, after the lines queued before it.
type BufferedWriter struct {
	writer        io.Writer      // Underlying writer for output destination
	buffer        chan []byte    // Channel buffer for lines awaiting write
	bufferSize    int            // Size of the channel buffer
	flushInterval time.Duration  // Interval between automatic flush operations
	done          chan struct{}  // Channel to signal worker shutdown
	wg            sync.WaitGroup // WaitGroup to coordinate worker shutdown
	closeOnce     sync.Once
	writeMu       sync.Mutex // Serializes batch and direct writes to writer

	// OnError receives batch write failures; nil drops them
	OnError func(error)

	// Statistics counters
	overflowed int64 // Writes that bypassed the full queue
	total      int64 // Total writes accepted
	lastFlush  int64 // Unix nanoseconds of the last flush
}

// BufferStats is a snapshot of BufferedWriter counters
type BufferStats struct {
	BufferSize   int
	CurrentQueue int
	Overflowed   int64
	Total        int64
	LastFlush    time.Time
}

// NewBufferedWriter creates a BufferedWriter and starts its flush worker
func NewBufferedWriter(writer io.Writer, bufferSize int, flushInterval time.Duration) *BufferedWriter {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	bw := &BufferedWriter{
		writer:        writer,
		buffer:        make(chan []byte, bufferSize),
		bufferSize:    bufferSize,
		flushInterval: flushInterval,
		done:          make(chan struct{}),
		lastFlush:     time.Now().UnixNano(),
	}

	// Start background worker goroutine for processing buffered writes
	// Mulai goroutine worker latar belakang untuk memproses penulisan buffer
	bw.wg.Add(1)
	go bw.flushWorker()

	return bw
}

// Write queues a copy of p without blocking
func (bw *BufferedWriter) Write(p []byte) (n int, err error) {
	atomic.AddInt64(&bw.total, 1)

	select {
	case <-bw.done:
		// Writer is shutting down, write directly
		// Penulis sedang dimatikan, tulis langsung
		return bw.writeDirect(p)
	default:
	}

	data := make([]byte, len(p))
	copy(data, p)

	select {
	case bw.buffer <- data:
		return len(p), nil
	default:
		// Buffer channel is full, write the queued lines and p in order
		// Channel buffer penuh, tulis antrian lalu p secara berurutan
		atomic.AddInt64(&bw.overflowed, 1)
		bw.writeMu.Lock()
		defer bw.writeMu.Unlock()
		batch := append(bw.collectBatch(), p)
		if _, err := bw.writer.Write(combine(batch)); err != nil {
			return 0, err
		}
		atomic.StoreInt64(&bw.lastFlush, time.Now().UnixNano())
		return len(p), nil
	}
}

func (bw *BufferedWriter) writeDirect(p []byte) (int, error) {
	bw.writeMu.Lock()
	defer bw.writeMu.Unlock()
	return bw.writer.Write(p)
}

// flushWorker flushes queued data every flushInterval and once more on shutdown
func (bw *BufferedWriter) flushWorker() {
	defer bw.wg.Done()

	ticker := time.NewTicker(bw.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-bw.done:
			bw.flush()
			return
		case <-ticker.C:
			bw.flush()
		}
	}
}

// collectBatch drains everything currently queued. Callers hold writeMu so
// batches reach the writer in the order they were queued.
func (bw *BufferedWriter) collectBatch() [][]byte {
	var batch [][]byte
	for {
		select {
		case data := <-bw.buffer:
			batch = append(batch, data)
		default:
			return batch
		}
	}
}

// flush drains the queue and writes it as a single batch
func (bw *BufferedWriter) flush() {
	bw.writeMu.Lock()
	batch := bw.collectBatch()
	if len(batch) == 0 {
		bw.writeMu.Unlock()
		return
	}
	_, err := bw.writer.Write(combine(batch))
	atomic.StoreInt64(&bw.lastFlush, time.Now().UnixNano())
	bw.writeMu.Unlock()

	if err != nil && bw.OnError != nil {
		bw.OnError(fmt.Errorf("buffered writer: write batch of %d: %w", len(batch), err))
	}
}

// combine joins the batch into a single write to minimize system calls
// combine menggabungkan batch menjadi satu penulisan untuk meminimalkan panggilan sistem
func combine(batch [][]byte) []byte {
	totalSize := 0
	for _, data := range batch {
		totalSize += len(data)
	}
	combined := make([]byte, 0, totalSize)
	for _, data := range batch {
		combined = append(combined, data...)
	}
	return combined
}

// Stats returns a snapshot of the writer's counters. Buffered files opened
// from a configuration keep theirs internal; tests read them directly.
func (bw *BufferedWriter) Stats() BufferStats {
	return BufferStats{
		BufferSize:   bw.bufferSize,
		CurrentQueue: len(bw.buffer),
		Overflowed:   atomic.LoadInt64(&bw.overflowed),
		Total:        atomic.LoadInt64(&bw.total),
		LastFlush:    time.Unix(0, atomic.LoadInt64(&bw.lastFlush)),
	}
}

// Flush writes everything currently queued
func (bw *BufferedWriter) Flush() error {
	bw.flush()
	return nil
}

// Close stops the worker, flushes remaining data and closes the underlying
// writer if it implements io.Closer. Calling Close twice is a no-op.
func (bw *BufferedWriter) Close() error {
	var err error
	bw.closeOnce.Do(func() {
		close(bw.done)
		bw.wg.Wait()
		bw.flush()
		if closer, ok := bw.writer.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

// OpenBufferedFile opens path for appending behind a BufferedWriter
func OpenBufferedFile(path string, bufferSize int, flushInterval time.Duration, onError func(error)) (*Output, *BufferedWriter, error) {
	file, err := openAppend(path)
	if err != nil {
		return nil, nil, err
	}
	bw := NewBufferedWriter(file, bufferSize, flushInterval)
	bw.OnError = onError
	return NewOutput(FileName, bw), bw, nil
}
