package serial

import (
	"fmt"
	"sort"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"
)

// PortInfo holds details about a serial port.
type PortInfo struct {
	Name         string
	Description  string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

func (p PortInfo) String() string {
	if p.Description == "" {
		return p.Name
	}
	return p.Name + " - " + p.Description
}

// Enumerate is the OS query behind ListPorts. Tests replace it.
var Enumerate = enumerator.GetDetailedPortsList

// ListPorts returns available serial ports sorted by name. It never fails:
// an enumeration error is logged and treated as no ports present.
func ListPorts(log *zap.Logger) []PortInfo {
	details, err := Enumerate()
	if err != nil {
		if log != nil {
			log.Debug("serial port enumeration failed", zap.Error(err))
		}
		return nil
	}
	return fromDetails(details)
}

func fromDetails(details []*enumerator.PortDetails) []PortInfo {
	var result []PortInfo
	for _, p := range details {
		if p == nil || p.Name == "" {
			continue
		}
		result = append(result, PortInfo{
			Name:         p.Name,
			Description:  describe(p),
			IsUSB:        p.IsUSB,
			VID:          p.VID,
			PID:          p.PID,
			SerialNumber: p.SerialNumber,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})
	return result
}

func describe(p *enumerator.PortDetails) string {
	switch {
	case p.Product != "":
		return p.Product
	case p.IsUSB:
		return fmt.Sprintf("USB %s:%s", p.VID, p.PID)
	default:
		return "n/a"
	}
}
