package corpus

import (
	"bytes"
	"errors"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

type flowSpec struct {
	srcIP, dstIP     string
	srcPort, dstPort uint16
	payload          []byte
}

func tcpFrame(t *testing.T, f flowSpec) []byte {
	t.Helper()
	eth := &layers.Ethernet{
		SrcMAC:       net.HardwareAddr{0, 1, 2, 3, 4, 5},
		DstMAC:       net.HardwareAddr{6, 7, 8, 9, 10, 11},
		EthernetType: layers.EthernetTypeIPv4,
	}
	ip := &layers.IPv4{
		Version:  4,
		TTL:      64,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    net.ParseIP(f.srcIP).To4(),
		DstIP:    net.ParseIP(f.dstIP).To4(),
	}
	tcp := &layers.TCP{
		SrcPort: layers.TCPPort(f.srcPort),
		DstPort: layers.TCPPort(f.dstPort),
		PSH:     true,
		ACK:     true,
		Window:  1024,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		t.Fatal(err)
	}
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	var err error
	if len(f.payload) > 0 {
		err = gopacket.SerializeLayers(buf, opts, eth, ip, tcp, gopacket.Payload(f.payload))
	} else {
		err = gopacket.SerializeLayers(buf, opts, eth, ip, tcp)
	}
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	return buf.Bytes()
}

func writeCapture(t *testing.T, flows []flowSpec) []byte {
	t.Helper()
	var out bytes.Buffer
	w := pcapgo.NewWriter(&out)
	if err := w.WriteFileHeader(65536, layers.LinkTypeEthernet); err != nil {
		t.Fatal(err)
	}
	ts := time.Unix(1700000000, 0)
	for i, f := range flows {
		frame := tcpFrame(t, f)
		ci := gopacket.CaptureInfo{
			Timestamp:     ts.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		if err := w.WritePacket(ci, frame); err != nil {
			t.Fatal(err)
		}
	}
	return out.Bytes()
}

func TestReadPcapPayloadsAndSessions(t *testing.T) {
	capture := writeCapture(t, []flowSpec{
		{"10.0.0.1", "10.0.0.2", 40000, 80, []byte("GET / HTTP/1.1\r\n")},
		{"10.0.0.2", "10.0.0.1", 80, 40000, []byte("HTTP/1.1 200 OK\r\n")},
		{"10.0.0.1", "10.0.0.2", 40000, 80, nil}, // bare ACK, skipped
		{"10.0.0.3", "10.0.0.2", 40001, 80, []byte("POST /login")},
	})

	c, err := Read(bytes.NewReader(capture))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if c.NumPackets() != 3 {
		t.Fatalf("NumPackets() = %d, want 3", c.NumPackets())
	}
	wantBytes := uint64(len("GET / HTTP/1.1\r\n") + len("HTTP/1.1 200 OK\r\n") + len("POST /login"))
	if c.NumBytes() != wantBytes {
		t.Errorf("NumBytes() = %d, want %d", c.NumBytes(), wantBytes)
	}
	if c.Sessions() != 2 {
		t.Errorf("Sessions() = %d, want 2", c.Sessions())
	}
	meta := c.Meta()
	if meta[0].Session != meta[1].Session {
		t.Errorf("request and response should share a session: %+v", meta)
	}
	if meta[0].Reverse == meta[1].Reverse {
		t.Errorf("request and response should have opposite directions: %+v", meta)
	}
	if meta[2].Session == meta[0].Session {
		t.Errorf("distinct conversation shares a session: %+v", meta)
	}
	if string(c.Packets()[2]) != "POST /login" {
		t.Errorf("payload[2] = %q", c.Packets()[2])
	}
}

func TestLoadFromFile(t *testing.T) {
	capture := writeCapture(t, []flowSpec{
		{"192.168.1.1", "192.168.1.2", 1234, 443, []byte("hello")},
	})
	path := filepath.Join(t.TempDir(), "sample.pcap")
	if err := os.WriteFile(path, capture, 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.NumPackets() != 1 || c.NumBytes() != 5 {
		t.Errorf("got %d packets / %d bytes", c.NumPackets(), c.NumBytes())
	}
}

func TestReadEmptyCorpus(t *testing.T) {
	capture := writeCapture(t, []flowSpec{
		{"10.0.0.1", "10.0.0.2", 1, 2, nil},
	})
	_, err := Read(bytes.NewReader(capture))
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("Read() error = %v, want ErrEmptyCorpus", err)
	}
}

func TestReadGarbage(t *testing.T) {
	if _, err := Read(bytes.NewReader([]byte("not a capture file"))); err == nil {
		t.Fatal("expected error for garbage input")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.pcap")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNewInMemory(t *testing.T) {
	c := New([][]byte{[]byte("ab"), []byte("cde")})
	if c.NumPackets() != 2 || c.NumBytes() != 5 || c.Sessions() != 2 {
		t.Fatalf("unexpected corpus: %d packets, %d bytes, %d sessions", c.NumPackets(), c.NumBytes(), c.Sessions())
	}
	if c.Meta()[1].Session != 1 {
		t.Errorf("Meta()[1] = %+v", c.Meta()[1])
	}
}
