//go:build pcap

package radio

import (
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// PcapWifiSource captures raw 802.11 management frames off a monitor-mode
// interface via libpcap. gopacket is used here for packet capture and RSSI
// extraction only; the 802.11 field decoding still runs through
// ParseManagementFrame against the same fixed byte offsets, not a generic
// 802.11 decoding library.
type PcapWifiSource struct {
	handle  *pcap.Handle
	frames  chan WifiFrame
	results chan []WifiScanRecord
	done    chan struct{}
}

var _ WifiSource = (*PcapWifiSource)(nil)

// OpenPcapWifiSource starts a live capture on iface, which must already be
// switched into monitor mode by the caller. snapLen bounds the per-packet
// capture length and defaults to 2048 when <= 0.
func OpenPcapWifiSource(iface string, snapLen int32) (*PcapWifiSource, error) {
	if snapLen <= 0 {
		snapLen = 2048
	}
	handle, err := pcap.OpenLive(iface, snapLen, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("open monitor interface %s: %w", iface, err)
	}
	if err := handle.SetBPFFilter("type mgt"); err != nil {
		handle.Close()
		return nil, fmt.Errorf("set management-frame filter: %w", err)
	}

	s := &PcapWifiSource{
		handle:  handle,
		frames:  make(chan WifiFrame, 256),
		results: make(chan []WifiScanRecord),
		done:    make(chan struct{}),
	}
	go s.loop()
	return s, nil
}

func (s *PcapWifiSource) loop() {
	defer close(s.frames)
	src := gopacket.NewPacketSource(s.handle, s.handle.LinkType())
	packets := src.Packets()
	for {
		select {
		case <-s.done:
			return
		case packet, ok := <-packets:
			if !ok {
				return
			}
			s.deliver(packet)
		}
	}
}

// deliver strips the radiotap header and forwards the raw 802.11 frame
// plus its signal strength. Frames without a decodable radiotap header are
// dropped; the BPF filter already limits capture to management frames.
func (s *PcapWifiSource) deliver(packet gopacket.Packet) {
	radiotapLayer := packet.Layer(layers.LayerTypeRadioTap)
	if radiotapLayer == nil {
		return
	}
	rt, ok := radiotapLayer.(*layers.RadioTap)
	if !ok {
		return
	}

	raw := packet.Data()
	headerLen := int(rt.Length)
	if headerLen <= 0 || headerLen > len(raw) {
		return
	}

	frame := WifiFrame{
		Data: raw[headerLen:],
		RSSI: int8(rt.DBMAntennaSignal),
	}

	select {
	case s.frames <- frame:
	default:
		// Capture outruns the pump; drop rather than block the pcap read loop.
	}
}

func (s *PcapWifiSource) Frames() <-chan WifiFrame             { return s.frames }
func (s *PcapWifiSource) ScanResults() <-chan []WifiScanRecord { return s.results }

// Close stops the capture loop and releases the pcap handle.
func (s *PcapWifiSource) Close() {
	close(s.done)
	s.handle.Close()
}
