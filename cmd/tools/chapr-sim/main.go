// Command chapr-sim plays the part of a ChapR controller. It writes framed
// joystick packets to a serial port so chaprd can be exercised without the
// embedded hardware; pair it with a null-modem cable or a pty pair. Inputs
// come from a synthetic sweep or from a joystick on the bench machine.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/chaprd/internal/serialport"
)

var (
	port     = flag.String("port", "auto", "Serial port to write to (auto picks the first USB port)")
	list     = flag.Bool("list", false, "List serial ports and exit")
	baud     = flag.Int("baud", serialport.DefaultBaudRate, "Baud rate")
	rate     = flag.Float64("rate", 50, "Frames per second")
	types    = flag.String("types", "3,3", "Joystick types for slots 1 and 2")
	swap     = flag.Duration("swap", 0, "Alternate slot 1 between its type and the Attack 3 at this interval (0 disables)")
	noise    = flag.Float64("noise", 0, "Probability of corrupting each frame (0..1)")
	count    = flag.Int("count", 0, "Stop after this many frames (0 runs until interrupted)")
	seed     = flag.Uint64("seed", 1, "Random seed for noise")
	joyIndex = flag.Int("joystick", -1, "Forward this local joystick instead of the synthetic sweep (-1 disables)")
)

func main() {
	flag.Parse()

	if *list {
		ports, err := serialport.ListPorts()
		if err != nil {
			log.Fatal(err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	t1, t2, err := parseTypes(*types)
	if err != nil {
		log.Fatalf("types: %v", err)
	}
	if *rate <= 0 {
		log.Fatalf("rate must be positive, got %v", *rate)
	}

	var src inputSource = sweep{}
	if *joyIndex >= 0 {
		js, err := openJoystick(*joyIndex)
		if err != nil {
			log.Fatal(err)
		}
		defer js.Close()
		log.Printf("Forwarding joystick %d: %s", *joyIndex, js.Name())
		src = js
	}

	path := *port
	if path == "auto" {
		ports, err := serialport.ListPorts()
		if err != nil {
			log.Fatal(err)
		}
		if path, err = serialport.FirstUSB(ports); err != nil {
			log.Fatal(err)
		}
	}

	mode, err := serialport.PortOptions{BaudRate: *baud}.SerialMode()
	if err != nil {
		log.Fatal(err)
	}
	p, err := serial.Open(path, mode)
	if err != nil {
		log.Fatalf("failed to open %s: %v", path, err)
	}
	defer p.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen := newGenerator(src, t1, t2, *swap, *noise, *seed)
	ticker := time.NewTicker(time.Duration(float64(time.Second) / *rate))
	defer ticker.Stop()

	log.Printf("Writing %.0f frames/sec to %s at %d baud (types %d/%d)", *rate, path, *baud, t1, t2)
	start := time.Now()
	sent := 0
	for *count == 0 || sent < *count {
		select {
		case <-ctx.Done():
			log.Printf("Sent %d frames", sent)
			return
		case now := <-ticker.C:
			b, err := gen.Next(now.Sub(start))
			if err != nil {
				log.Printf("input: %v", err)
				return
			}
			if _, err := p.Write(b); err != nil {
				log.Printf("write %s: %v", path, err)
				return
			}
			sent++
		}
	}
	if err := p.Drain(); err != nil {
		log.Printf("drain: %v", err)
	}
	log.Printf("Sent %d frames", sent)
}
