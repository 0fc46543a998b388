package host

import (
	"context"
	"fmt"
	"net"
	"sort"

	log "github.com/echocat/slf4g"
	psnet "github.com/shirou/gopsutil/net"
	"github.com/shirou/gopsutil/process"
)

const Loopback = "127.0.0.1"

// Addresses returns the IPv4 addresses other devices in the local network
// can reach this host with. If none can be found the loopback address is
// returned.
func Addresses(ctx context.Context) []string {
	interfaces, err := psnet.InterfacesWithContext(ctx)
	if err != nil {
		log.WithError(err).
			Debug("Cannot list network interfaces.")
		return []string{Loopback}
	}

	var result []string
	for _, iface := range interfaces {
		if !isUp(iface.Flags) {
			continue
		}
		for _, addr := range iface.Addrs {
			if v, ok := usableAddress(addr.Addr); ok {
				result = append(result, v)
			}
		}
	}
	if len(result) == 0 {
		return []string{Loopback}
	}
	sort.Strings(result)
	return result
}

func isUp(flags []string) bool {
	for _, f := range flags {
		if f == "up" {
			return true
		}
	}
	return false
}

func usableAddress(cidr string) (string, bool) {
	ip, _, err := net.ParseCIDR(cidr)
	if err != nil {
		if ip = net.ParseIP(cidr); ip == nil {
			return "", false
		}
	}
	if ip = ip.To4(); ip == nil {
		return "", false
	}
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return "", false
	}
	return ip.String(), true
}

// Holder is a process which listens on a port.
type Holder struct {
	Pid  int32
	Name string
}

func (this Holder) String() string {
	if this.Name == "" {
		return fmt.Sprintf("pid %d", this.Pid)
	}
	return fmt.Sprintf("%s (pid %d)", this.Name, this.Pid)
}

// PortHolder finds the process listening on the given TCP port.
func PortHolder(ctx context.Context, port uint16) (Holder, bool) {
	connections, err := psnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		log.WithError(err).
			With("port", port).
			Debug("Cannot list connections to find port holder.")
		return Holder{}, false
	}

	for _, c := range connections {
		if c.Status != "LISTEN" || c.Laddr.Port != uint32(port) || c.Pid <= 0 {
			continue
		}
		result := Holder{Pid: c.Pid}
		if p, err := process.NewProcessWithContext(ctx, c.Pid); err == nil {
			if name, err := p.NameWithContext(ctx); err == nil {
				result.Name = name
			}
		}
		return result, true
	}
	return Holder{}, false
}
