package transport

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync/atomic"
)

const maxDatagramSize = 1500

// PeerStore remembers the most recent command sender. Last writer wins;
// a newer controller silently supersedes the previous one. Written only
// by the dispatcher goroutine, read by telemetry via atomic snapshot.
type PeerStore struct {
	addr atomic.Pointer[net.UDPAddr]
}

func NewPeerStore() *PeerStore {
	return &PeerStore{}
}

func (p *PeerStore) Set(addr *net.UDPAddr) {
	p.addr.Store(addr)
}

// Get returns the last known peer, or nil before any command arrived.
func (p *PeerStore) Get() *net.UDPAddr {
	return p.addr.Load()
}

// Server owns the control socket: one read loop feeding the handler,
// and outbound sends for acks and telemetry.
type Server struct {
	conn *net.UDPConn
}

func Listen(port int) (*Server, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed listening on udp port %d: %w", port, err)
	}
	log.Printf("control udp listening on :%d\n", port)
	return &Server{conn: conn}, nil
}

// Serve reads datagrams until the context ends, invoking the handler
// inline. The handler may block (move_ticks does); while it does, no
// further datagram is read, which is the intended backpressure.
func (s *Server) Serve(ctx context.Context, handler func(data []byte, from *net.UDPAddr)) error {
	go func() {
		<-ctx.Done()
		s.conn.Close()
	}()

	buf := make([]byte, maxDatagramSize)
	for {
		n, from, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				log.Printf("stopping control listener: %s\n", ctx.Err().Error())
				return ctx.Err()
			}
			return fmt.Errorf("failed reading control datagram: %w", err)
		}
		handler(buf[:n], from)
	}
}

func (s *Server) SendTo(addr *net.UDPAddr, payload []byte) error {
	_, err := s.conn.WriteToUDP(payload, addr)
	if err != nil {
		return fmt.Errorf("failed sending datagram to %s: %w", addr, err)
	}
	return nil
}

func (s *Server) Close() error {
	return s.conn.Close()
}

// LocalIP returns the IPv4 address of the named interface.
func LocalIP(ifaceName string) (net.IP, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("failed finding interface %s: %w", ifaceName, err)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("failed reading addresses of %s: %w", ifaceName, err)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip != nil {
			return ip, nil
		}
	}
	return nil, fmt.Errorf("no ipv4 address on interface %s", ifaceName)
}

// BroadcastAddr computes the subnet broadcast address of the named
// interface. Falls back to the limited broadcast address when the
// interface has no usable IPv4 network.
func BroadcastAddr(ifaceName string, port int) *net.UDPAddr {
	fallback := &net.UDPAddr{IP: net.IPv4bcast, Port: port}

	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return fallback
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return fallback
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip := ipNet.IP.To4()
		if ip == nil {
			continue
		}
		mask := ipNet.Mask
		if len(mask) == net.IPv6len {
			mask = mask[12:]
		}
		bcast := make(net.IP, net.IPv4len)
		for i := range bcast {
			bcast[i] = ip[i] | ^mask[i]
		}
		return &net.UDPAddr{IP: bcast, Port: port}
	}
	return fallback
}
