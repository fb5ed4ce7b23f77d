package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/chaprd/internal/frame"
)

// attack3Type is the joystick type alternated in when swapping is enabled.
const attack3Type = 5

// inputSource supplies joystick 1's axes and buttons. The generator fills in
// the type byte.
type inputSource interface {
	State(elapsed time.Duration) (frame.JoystickState, error)
}

// sweep is a synthetic input: both sticks circle slowly and one button at a
// time lights up, cycling through all twelve.
type sweep struct{}

func (sweep) State(elapsed time.Duration) (frame.JoystickState, error) {
	phase := elapsed.Seconds() * 2 * math.Pi / 4
	x := axis(math.Sin(phase))
	y := axis(math.Cos(phase))

	b1, b2 := frame.EncodeButtons(1 << (uint(elapsed/(500*time.Millisecond)) % 12))
	return frame.JoystickState{
		TopHatLSB: byte(uint(elapsed/time.Second) % 9),
		X1:        x,
		Y1:        y,
		X2:        -x,
		Y2:        -y,
		Buttons1:  b1,
		Buttons2:  b2,
	}, nil
}

// generator turns an input source into framed packets.
type generator struct {
	t1, t2 byte
	swap   time.Duration
	noise  float64
	rng    *rand.Rand
	src    inputSource
}

func newGenerator(src inputSource, t1, t2 byte, swap time.Duration, noise float64, seed uint64) *generator {
	return &generator{
		t1:    t1,
		t2:    t2,
		swap:  swap,
		noise: noise,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		src:   src,
	}
}

// Packet returns the state at elapsed time since start.
func (g *generator) Packet(elapsed time.Duration) (frame.Packet, error) {
	joy1, err := g.src.State(elapsed)
	if err != nil {
		return frame.Packet{}, err
	}
	joy1.Type = g.t1
	if g.swap > 0 && (elapsed/g.swap)%2 == 1 {
		joy1.Type = attack3Type
	}
	return frame.Packet{
		Joy1: joy1,
		Joy2: frame.JoystickState{Type: g.t2},
	}, nil
}

// Next returns the wire bytes for the next frame, corrupted with probability
// noise.
func (g *generator) Next(elapsed time.Duration) ([]byte, error) {
	p, err := g.Packet(elapsed)
	if err != nil {
		return nil, err
	}
	b := frame.EncodeFrame(p)
	if g.noise > 0 && g.rng.Float64() < g.noise {
		i := frame.SyncLen + g.rng.IntN(frame.PayloadSize+1)
		b[i] ^= 1 << g.rng.IntN(7)
	}
	return b, nil
}

// axis maps [-1, 1] to a signed axis byte. It stays clear of -1 so adjacent
// axes never form part of a sync marker.
func axis(v float64) int8 {
	a := int8(math.Round(math.Max(-1, math.Min(1, v)) * 127))
	if a == -1 {
		a = 0
	}
	return a
}

func parseTypes(s string) (byte, byte, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("want two comma-separated types, got %q", s)
	}
	var out [2]byte
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 8)
		if err != nil {
			return 0, 0, fmt.Errorf("type %d: %w", i+1, err)
		}
		out[i] = byte(v)
	}
	return out[0], out[1], nil
}
