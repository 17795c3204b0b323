//go:build !pcap

package radio

import "fmt"

// PcapWifiSource is unavailable in this build. Rebuild with -tags=pcap
// (and libpcap installed) to enable live monitor-mode 802.11 capture.
type PcapWifiSource struct{}

var _ WifiSource = (*PcapWifiSource)(nil)

func OpenPcapWifiSource(iface string, snapLen int32) (*PcapWifiSource, error) {
	return nil, fmt.Errorf("pcap wifi capture not enabled: rebuild with -tags=pcap")
}

func (s *PcapWifiSource) Frames() <-chan WifiFrame             { return nil }
func (s *PcapWifiSource) ScanResults() <-chan []WifiScanRecord { return nil }
func (s *PcapWifiSource) Close()                               {}
