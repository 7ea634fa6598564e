// Package ingest runs the file-watching batch loop against a local
// directory of XML instance documents, per §4.7 and §4.8.
package ingest

import (
	"os"
	"time"
)

const (
	readySampleInterval = 100 * time.Millisecond
)

// WaitUntilReady samples the file's size every 100ms for up to maxWait,
// admitting it as soon as it can be opened for shared read and two
// consecutive samples agree. If the deadline elapses first, it proceeds
// anyway, per §4.7.
func WaitUntilReady(path string, maxWait time.Duration) {
	deadline := time.Now().Add(maxWait)
	var lastSize int64 = -1

	for {
		size, openable := probe(path)
		if openable && size == lastSize {
			return
		}
		lastSize = size
		if time.Now().After(deadline) {
			return
		}
		time.Sleep(readySampleInterval)
	}
}

func probe(path string) (size int64, openable bool) {
	f, err := os.Open(path)
	if err != nil {
		return -1, false
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return -1, false
	}
	return info.Size(), true
}
