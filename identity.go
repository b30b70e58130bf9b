package loom

import (
	"bytes"
	"runtime"
	"strconv"
)

// currentGoroutineID parses the goroutine id out of the runtime stack header
// ("goroutine 123 [running]:"). Go deliberately exposes no goroutine-local
// storage, so the scheduler keeps an explicit map from goroutine id to
// logical worker id, registered at worker-loop entry. The id is used only as
// a map key for reverse lookup, never for scheduling decisions.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	frame := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(frame, ' '); i >= 0 {
		frame = frame[:i]
	}
	id, err := strconv.ParseUint(string(frame), 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// bindIdentity records that the calling goroutine runs the given worker.
func (s *Scheduler) bindIdentity(gid uint64, workerID int) {
	s.idMu.Lock()
	s.identities[gid] = workerID
	s.idMu.Unlock()
}

// unbindIdentity removes a worker goroutine's identity record on loop exit.
func (s *Scheduler) unbindIdentity(gid uint64) {
	s.idMu.Lock()
	delete(s.identities, gid)
	s.idMu.Unlock()
}
