// Copyright (c) 2025, the seedvault contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package license

import "net"

// Fingerprinter derives the stable hardware identifier a license is bound
// to. Implementations must not cache: re-enumerating on every call keeps the
// check correct across interface hot-plug, at the cost of multi-NIC machines
// possibly resolving a different "first" interface between runs.
type Fingerprinter interface {
	// HardwareID returns the MAC address of the first non-loopback
	// interface that reports one, or "" if no interface qualifies.
	HardwareID() string

	// HasHardwareID reports whether any interface currently reports
	// exactly this address.
	HasHardwareID(id string) bool
}

const zeroMAC = "00:00:00:00:00:00"

// NetFingerprinter reads hardware addresses from the OS via net.Interfaces.
type NetFingerprinter struct{}

func (NetFingerprinter) HardwareID() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		mac := iface.HardwareAddr.String()
		if mac != "" && mac != zeroMAC {
			return mac
		}
	}
	return ""
}

func (NetFingerprinter) HasHardwareID(id string) bool {
	if id == "" {
		return false
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.HardwareAddr.String() == id {
			return true
		}
	}
	return false
}
