//go:build !wasm

package serial

import (
	"sort"

	enumerator "go.bug.st/serial"
)

// ListPorts returns the serial devices present on this machine, sorted
func ListPorts() ([]string, error) {
	ports, err := enumerator.GetPortsList()
	if err != nil {
		return nil, err
	}
	sort.Strings(ports)
	return ports, nil
}
