package main

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	"github.com/zeebo/blake3"
)

// sessionID derives a short id that tags every log line of one run.
func sessionID(start time.Time, pid int) string {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(start.UnixNano()))
	binary.BigEndian.PutUint64(buf[8:], uint64(pid))
	sum := blake3.Sum256(buf[:])
	return hex.EncodeToString(sum[:8])
}
