package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// gate holds one LSTM gate's parameters: input weights, recurrent weights
// and bias, each row indexed by hidden unit.
type gate struct {
	W [][]float64 `json:"w"` // hidden x input
	U [][]float64 `json:"u"` // hidden x hidden
	B []float64   `json:"b"` // hidden
}

// network is a single-layer LSTM with a scalar dense head. All state is
// exported so an artifact round-trips through JSON and reproduces inference
// exactly.
type network struct {
	Inputs int `json:"inputs"`
	Hidden int `json:"hidden"`

	In     gate      `json:"in"`     // input gate
	Forget gate      `json:"forget"` // forget gate
	Out    gate      `json:"out"`    // output gate
	Cell   gate      `json:"cell"`   // candidate cell
	Wy     []float64 `json:"wy"`     // dense head weights
	By     float64   `json:"by"`     // dense head bias
}

func newGate(rng *rand.Rand, hidden, inputs int) gate {
	scale := math.Sqrt(6.0 / float64(hidden+inputs))
	g := gate{
		W: make([][]float64, hidden),
		U: make([][]float64, hidden),
		B: make([]float64, hidden),
	}
	for h := 0; h < hidden; h++ {
		g.W[h] = make([]float64, inputs)
		for i := range g.W[h] {
			g.W[h][i] = (rng.Float64()*2 - 1) * scale
		}
		g.U[h] = make([]float64, hidden)
		for i := range g.U[h] {
			g.U[h][i] = (rng.Float64()*2 - 1) * scale
		}
	}
	return g
}

// newNetwork initializes weights from the given seed. The seed is the only
// source of randomness in the whole model; two networks built from the same
// seed are identical.
func newNetwork(seed int64, inputs, hidden int) *network {
	rng := rand.New(rand.NewSource(seed))
	n := &network{
		Inputs: inputs,
		Hidden: hidden,
		In:     newGate(rng, hidden, inputs),
		Forget: newGate(rng, hidden, inputs),
		Out:    newGate(rng, hidden, inputs),
		Cell:   newGate(rng, hidden, inputs),
		Wy:     make([]float64, hidden),
	}
	scale := math.Sqrt(6.0 / float64(hidden+1))
	for i := range n.Wy {
		n.Wy[i] = (rng.Float64()*2 - 1) * scale
	}
	// forget bias starts at 1 so early epochs retain cell state
	for h := 0; h < hidden; h++ {
		n.Forget.B[h] = 1
	}
	return n
}

// zeroLike returns a network of the same shape with all parameters zero,
// used for gradients and optimizer moments.
func zeroLike(n *network) *network {
	z := &network{Inputs: n.Inputs, Hidden: n.Hidden, Wy: make([]float64, n.Hidden)}
	zg := func() gate {
		g := gate{W: make([][]float64, n.Hidden), U: make([][]float64, n.Hidden), B: make([]float64, n.Hidden)}
		for h := 0; h < n.Hidden; h++ {
			g.W[h] = make([]float64, n.Inputs)
			g.U[h] = make([]float64, n.Hidden)
		}
		return g
	}
	z.In, z.Forget, z.Out, z.Cell = zg(), zg(), zg(), zg()
	return z
}

// params returns pointers to every parameter in a fixed traversal order, so
// gradients and moments can be walked in lockstep with the weights.
func (n *network) params() []*float64 {
	out := make([]*float64, 0, 4*(n.Hidden*(n.Inputs+n.Hidden+1))+n.Hidden+1)
	for _, g := range []*gate{&n.In, &n.Forget, &n.Out, &n.Cell} {
		for h := 0; h < n.Hidden; h++ {
			for i := range g.W[h] {
				out = append(out, &g.W[h][i])
			}
		}
		for h := 0; h < n.Hidden; h++ {
			for i := range g.U[h] {
				out = append(out, &g.U[h][i])
			}
		}
		for h := range g.B {
			out = append(out, &g.B[h])
		}
	}
	for i := range n.Wy {
		out = append(out, &n.Wy[i])
	}
	out = append(out, &n.By)
	return out
}

func (n *network) marshal() ([]byte, error) {
	b, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal network: %w", err)
	}
	return b, nil
}

func unmarshalNetwork(b []byte) (*network, error) {
	var n network
	if err := json.Unmarshal(b, &n); err != nil {
		return nil, fmt.Errorf("unmarshal network: %w", err)
	}
	if n.Hidden == 0 || n.Inputs == 0 {
		return nil, fmt.Errorf("unmarshal network: empty shape")
	}
	return &n, nil
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }
