// SPDX-FileCopyrightText: 2026 The pathwatch authors
//
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"net"
	"strconv"
	"strings"
	"time"
)

// parseLine parses one line of traceroute output into a HopEvent.
// The second return value is false for lines that do not describe a hop,
// such as the header line or annotations.
//
// With one query per hop the interesting shapes are:
//
//	 1  192.168.1.1  0.512 ms
//	 2  *
//	 3  10.0.0.1  1.2 ms !X
//
// Numeric output is assumed (-n), so fields are addresses, not names.
func parseLine(line string) (HopEvent, bool) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return HopEvent{}, false
	}

	index, err := strconv.Atoi(fields[0])
	if err != nil || index < 1 {
		return HopEvent{}, false
	}

	ev := HopEvent{Index: index}
	for i := 1; i < len(fields); i++ {
		field := fields[i]

		if field == "*" {
			continue
		}

		// An RTT is a float followed by an "ms" field.
		if i+1 < len(fields) && fields[i+1] == "ms" {
			if rtt, perr := strconv.ParseFloat(field, 64); perr == nil {
				ev.RTTs = append(ev.RTTs, time.Duration(rtt*float64(time.Millisecond)))
				i++
				continue
			}
		}

		if ev.Address == "" && net.ParseIP(field) != nil {
			ev.Address = field
		}
	}

	if ev.Address == "" {
		ev.Unresponsive = true
		ev.RTTs = nil
	}
	return ev, true
}
