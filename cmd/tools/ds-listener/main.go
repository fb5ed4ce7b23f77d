// Command ds-listener stands in for the roboRIO's Driver Station listeners on
// a bench machine. It accepts chaprd's UDP telemetry and TCP descriptors and
// prints what it decodes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/banshee-data/chaprd/internal/protocol"
)

var (
	udpAddr = flag.String("udp", ":1110", "Telemetry listen address")
	tcpAddr = flag.String("tcp", ":1740", "Descriptor listen address")
	verbose = flag.Bool("v", false, "Print every telemetry packet")
)

type counters struct {
	packets atomic.Int64
	bytes   atomic.Int64
	hellos  atomic.Int64
	bad     atomic.Int64
	gaps    atomic.Int64
}

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pc, err := net.ListenPacket("udp", *udpAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer pc.Close()

	ln, err := net.Listen("tcp", *tcpAddr)
	if err != nil {
		log.Fatal(err)
	}
	defer ln.Close()

	fmt.Printf("Listening for telemetry on udp %s, descriptors on tcp %s\n", pc.LocalAddr(), ln.Addr())

	var c counters
	go reportStats(ctx, &c)
	go acceptDescriptors(ctx, ln)
	go func() {
		<-ctx.Done()
		pc.Close()
		ln.Close()
	}()

	receiveTelemetry(pc, &c)
}

func reportStats(ctx context.Context, c *counters) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			packets := c.packets.Swap(0)
			bytes := c.bytes.Swap(0)
			if packets > 0 {
				fmt.Printf("Received: %d packets/sec, %.1f KB/sec (%d malformed, %d sequence gaps)\n",
					packets, float64(bytes)/1024, c.bad.Load(), c.gaps.Load())
			}
		}
	}
}

func receiveTelemetry(pc net.PacketConn, c *counters) {
	var last uint16
	haveLast := false
	buffer := make([]byte, 1500)
	for {
		n, from, err := pc.ReadFrom(buffer)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("Read error: %v", err)
			continue
		}
		pkt := buffer[:n]

		if n == protocol.HelloSize && pkt[0] == 0 && pkt[2] == 1 {
			c.hellos.Add(1)
			fmt.Printf("Hello %d from %s\n", pkt[1], from)
			haveLast = false
			continue
		}

		tp, err := protocol.ParseTelemetry(pkt)
		if err != nil {
			c.bad.Add(1)
			log.Printf("Malformed telemetry from %s: %v", from, err)
			continue
		}
		c.packets.Add(1)
		c.bytes.Add(int64(n))

		if haveLast && tp.Header.Sequence != last+1 {
			c.gaps.Add(1)
		}
		last, haveLast = tp.Header.Sequence, true

		if *verbose {
			fmt.Println(formatTelemetry(tp))
		}
	}
}

func acceptDescriptors(ctx context.Context, ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			log.Printf("Accept error: %v", err)
			continue
		}
		fmt.Printf("Descriptor connection from %s\n", conn.RemoteAddr())
		go readDescriptors(conn)
	}
}

func readDescriptors(conn net.Conn) {
	defer conn.Close()

	var s recordStream
	buf := make([]byte, 512)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			recs, perr := s.Write(buf[:n])
			for _, rec := range recs {
				if rec.Present() {
					fmt.Println(formatRecord(rec))
				}
			}
			if perr != nil {
				log.Printf("Malformed descriptor from %s: %v", conn.RemoteAddr(), perr)
				return
			}
		}
		if err != nil {
			fmt.Printf("Descriptor connection from %s closed: %v\n", conn.RemoteAddr(), err)
			return
		}
	}
}
