// Package corpus loads captured packets into the read-only buffer set replayed
// by benchmark workers.
package corpus

import (
	"errors"
)

// ErrEmptyCorpus is returned when a capture holds no packet with a payload.
var ErrEmptyCorpus = errors.New("corpus has no payload packets")

// MatchMeta is the precomputed per-packet session information.
type MatchMeta struct {
	Session int  // index into the corpus session table
	Reverse bool // packet flows from the higher endpoint to the lower one
}

// Corpus is an ordered set of packet payloads. It is immutable after
// construction and safe to share across goroutines.
type Corpus struct {
	packets  [][]byte
	meta     []MatchMeta
	bytes    uint64
	sessions int
}

// New builds an in-memory corpus where every payload is its own session.
func New(payloads [][]byte) *Corpus {
	c := &Corpus{
		packets:  make([][]byte, 0, len(payloads)),
		meta:     make([]MatchMeta, 0, len(payloads)),
		sessions: len(payloads),
	}
	for i, p := range payloads {
		c.packets = append(c.packets, p)
		c.meta = append(c.meta, MatchMeta{Session: i})
		c.bytes += uint64(len(p))
	}
	return c
}

// Packets returns the payload buffers in capture order. Callers must not
// modify them.
func (c *Corpus) Packets() [][]byte { return c.packets }

// Meta returns the session metadata, parallel to Packets.
func (c *Corpus) Meta() []MatchMeta { return c.meta }

// NumPackets returns the number of replayed packets.
func (c *Corpus) NumPackets() uint64 { return uint64(len(c.packets)) }

// NumBytes returns the total payload size of one pass.
func (c *Corpus) NumBytes() uint64 { return c.bytes }

// Sessions returns the number of distinct sessions.
func (c *Corpus) Sessions() int { return c.sessions }
