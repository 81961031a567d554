package corpus

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

const pcapngMagic = 0x0A0D0D0A

type packetSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

type sessionKey struct {
	network   gopacket.Flow
	transport gopacket.Flow
}

// Load reads a pcap or pcapng capture and keeps the application payload of
// every packet that has one.
func Load(path string) (*Corpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Read decodes a capture stream. The format is detected from its magic number.
func Read(r io.Reader) (*Corpus, error) {
	br := bufio.NewReader(r)
	src, err := newPacketSource(br)
	if err != nil {
		return nil, err
	}

	b := newBuilder()
	decoder := src.LinkType()
	for {
		data, _, err := src.ReadPacketData()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read packet %d: %w", b.seen+1, err)
		}
		b.seen++
		pkt := gopacket.NewPacket(data, decoder, gopacket.DecodeOptions{Lazy: true, NoCopy: true})
		b.add(pkt)
	}

	if len(b.c.packets) == 0 {
		return nil, ErrEmptyCorpus
	}
	return b.c, nil
}

func newPacketSource(br *bufio.Reader) (packetSource, error) {
	head, err := br.Peek(4)
	if err != nil {
		return nil, fmt.Errorf("read capture header: %w", err)
	}
	if binary.LittleEndian.Uint32(head) == pcapngMagic {
		ng, err := pcapgo.NewNgReader(br, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, fmt.Errorf("pcapng: %w", err)
		}
		return ng, nil
	}
	rd, err := pcapgo.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("pcap: %w", err)
	}
	return rd, nil
}

type builder struct {
	c        *Corpus
	sessions map[sessionKey]int
	seen     int
}

func newBuilder() *builder {
	return &builder{
		c:        &Corpus{},
		sessions: make(map[sessionKey]int),
	}
}

func (b *builder) add(pkt gopacket.Packet) {
	app := pkt.ApplicationLayer()
	if app == nil || len(app.Payload()) == 0 {
		return
	}
	payload := app.Payload()

	var key sessionKey
	reverse := false
	if nl := pkt.NetworkLayer(); nl != nil {
		key.network = nl.NetworkFlow()
		if tl := pkt.TransportLayer(); tl != nil {
			key.transport = tl.TransportFlow()
		}
		key, reverse = canonical(key)
	}

	id, ok := b.sessions[key]
	if !ok {
		id = len(b.sessions)
		b.sessions[key] = id
	}

	b.c.packets = append(b.c.packets, payload)
	b.c.meta = append(b.c.meta, MatchMeta{Session: id, Reverse: reverse})
	b.c.bytes += uint64(len(payload))
	b.c.sessions = len(b.sessions)
}

// canonical orders both flows so that the two directions of a conversation
// share one key.
func canonical(k sessionKey) (sessionKey, bool) {
	src, dst := k.network.Endpoints()
	if dst.LessThan(src) {
		return sessionKey{network: k.network.Reverse(), transport: k.transport.Reverse()}, true
	}
	if src == dst {
		tsrc, tdst := k.transport.Endpoints()
		if tdst.LessThan(tsrc) {
			return sessionKey{network: k.network, transport: k.transport.Reverse()}, true
		}
	}
	return k, false
}
