package forecast

import (
	"context"
	"fmt"
	"math"

	"marketminds/internal/domain/models"
)

// Defaults for the training contract. Epochs and learning rate mirror the
// behavior the artifact metadata documents; they are deliberately modest
// since windows are short and the network is small.
const (
	InputSize     = 3 // close, volume, sentiment
	DefaultHidden = 16
	DefaultEpochs = 20
	DefaultLR     = 0.01
	DefaultSeed   = 42
	gradClipNorm  = 5.0
	adamBeta1     = 0.9
	adamBeta2     = 0.999
	adamEps       = 1e-8
)

// Model is a per-symbol sequence forecaster. Train replaces the underlying
// network; Infer is read-only. The zero Model is untrained.
//
// Determinism policy: weights are initialized from a fixed seed, training
// visits samples in chronological order with one full-batch update per epoch
// and no shuffling, so a given (sequence set, seed) pair always produces the
// same artifact.
type Model struct {
	net    *network
	hidden int
	epochs int
	lr     float64
	seed   int64
}

// Option configures a Model.
type Option func(*Model)

// WithHidden sets the hidden layer width.
func WithHidden(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.hidden = n
		}
	}
}

// WithEpochs sets the epoch budget.
func WithEpochs(n int) Option {
	return func(m *Model) {
		if n > 0 {
			m.epochs = n
		}
	}
}

// WithSeed fixes the weight initialization seed.
func WithSeed(s int64) Option {
	return func(m *Model) { m.seed = s }
}

// New creates an untrained model.
func New(opts ...Option) *Model {
	m := &Model{
		hidden: DefaultHidden,
		epochs: DefaultEpochs,
		lr:     DefaultLR,
		seed:   DefaultSeed,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Restore rebuilds a model from serialized artifact weights.
func Restore(weights []byte) (*Model, error) {
	net, err := unmarshalNetwork(weights)
	if err != nil {
		return nil, err
	}
	return &Model{net: net, hidden: net.Hidden}, nil
}

// Trained reports whether the model has a usable network.
func (m *Model) Trained() bool { return m.net != nil }

// Weights serializes the network for artifact storage.
func (m *Model) Weights() ([]byte, error) {
	if m.net == nil {
		return nil, models.ErrModelNotTrained
	}
	return m.net.marshal()
}

// Train fits the network on supervised sequences where labels[i] is the
// next-step scaled close for seqs[i]. It returns the final epoch's mean
// squared error and the number of sequences used. The context bounds the
// training budget: an expired context aborts with its error.
func (m *Model) Train(ctx context.Context, seqs [][][]float64, labels []float64) (finalLoss float64, samples int, err error) {
	if len(seqs) == 0 || len(seqs) != len(labels) {
		return 0, 0, fmt.Errorf("%w: %d sequences, %d labels", models.ErrInsufficientData, len(seqs), len(labels))
	}

	net := newNetwork(m.seed, InputSize, m.hidden)
	mMom, vMom := zeroLike(net), zeroLike(net)
	step := 0

	for epoch := 0; epoch < m.epochs; epoch++ {
		select {
		case <-ctx.Done():
			return 0, 0, ctx.Err()
		default:
		}

		grad := zeroLike(net)
		var sse float64
		for i, seq := range seqs {
			pred, caches := forward(net, seq)
			diff := pred - labels[i]
			sse += diff * diff
			backward(net, grad, caches, seq, 2*diff/float64(len(seqs)))
		}
		finalLoss = sse / float64(len(seqs))

		clipGradients(grad)
		step++
		adamUpdate(net, grad, mMom, vMom, m.lr, step)
	}

	m.net = net
	return finalLoss, len(seqs), nil
}

// Infer returns the scaled next-step prediction for the given sequence. It
// never mutates model state and is safe for concurrent use after training.
func (m *Model) Infer(seq [][]float64) (float64, error) {
	if m.net == nil {
		return 0, models.ErrModelNotTrained
	}
	if len(seq) == 0 {
		return 0, fmt.Errorf("%w: empty inference sequence", models.ErrInsufficientData)
	}
	pred, _ := forward(m.net, seq)
	return pred, nil
}

// stepCache holds one timestep's activations for backpropagation.
type stepCache struct {
	i, f, o, g []float64 // gate activations
	c, h       []float64 // cell and hidden state after the step
	cPrev      []float64
	hPrev      []float64
	tanhC      []float64
}

func forward(n *network, seq [][]float64) (float64, []stepCache) {
	hidden := n.Hidden
	h := make([]float64, hidden)
	c := make([]float64, hidden)
	caches := make([]stepCache, len(seq))

	for t, x := range seq {
		sc := stepCache{
			i: make([]float64, hidden), f: make([]float64, hidden),
			o: make([]float64, hidden), g: make([]float64, hidden),
			c: make([]float64, hidden), h: make([]float64, hidden),
			cPrev: c, hPrev: h, tanhC: make([]float64, hidden),
		}
		for u := 0; u < hidden; u++ {
			sc.i[u] = sigmoid(preact(&n.In, u, x, h))
			sc.f[u] = sigmoid(preact(&n.Forget, u, x, h))
			sc.o[u] = sigmoid(preact(&n.Out, u, x, h))
			sc.g[u] = math.Tanh(preact(&n.Cell, u, x, h))
			sc.c[u] = sc.f[u]*c[u] + sc.i[u]*sc.g[u]
			sc.tanhC[u] = math.Tanh(sc.c[u])
			sc.h[u] = sc.o[u] * sc.tanhC[u]
		}
		h, c = sc.h, sc.c
		caches[t] = sc
	}

	y := n.By
	for u := 0; u < hidden; u++ {
		y += n.Wy[u] * h[u]
	}
	return y, caches
}

func preact(g *gate, u int, x, hPrev []float64) float64 {
	s := g.B[u]
	for i, xv := range x {
		s += g.W[u][i] * xv
	}
	for j, hv := range hPrev {
		s += g.U[u][j] * hv
	}
	return s
}

// backward accumulates gradients for one sequence into grad. dy is the loss
// gradient at the dense head output.
func backward(n *network, grad *network, caches []stepCache, seq [][]float64, dy float64) {
	hidden := n.Hidden
	last := caches[len(caches)-1]

	dh := make([]float64, hidden)
	dc := make([]float64, hidden)
	for u := 0; u < hidden; u++ {
		grad.Wy[u] += dy * last.h[u]
		dh[u] = dy * n.Wy[u]
	}
	grad.By += dy

	for t := len(caches) - 1; t >= 0; t-- {
		sc := caches[t]
		x := seq[t]
		dhPrev := make([]float64, hidden)
		dcPrev := make([]float64, hidden)

		for u := 0; u < hidden; u++ {
			do := dh[u] * sc.tanhC[u]
			dcU := dc[u] + dh[u]*sc.o[u]*(1-sc.tanhC[u]*sc.tanhC[u])

			doPre := do * sc.o[u] * (1 - sc.o[u])
			dfPre := dcU * sc.cPrev[u] * sc.f[u] * (1 - sc.f[u])
			diPre := dcU * sc.g[u] * sc.i[u] * (1 - sc.i[u])
			dgPre := dcU * sc.i[u] * (1 - sc.g[u]*sc.g[u])

			accumGate(&grad.Out, &n.Out, u, doPre, x, sc.hPrev, dhPrev)
			accumGate(&grad.Forget, &n.Forget, u, dfPre, x, sc.hPrev, dhPrev)
			accumGate(&grad.In, &n.In, u, diPre, x, sc.hPrev, dhPrev)
			accumGate(&grad.Cell, &n.Cell, u, dgPre, x, sc.hPrev, dhPrev)

			dcPrev[u] = dcU * sc.f[u]
		}
		dh, dc = dhPrev, dcPrev
	}
}

func accumGate(g *gate, src *gate, u int, dPre float64, x, hPrev, dhPrev []float64) {
	for i, xv := range x {
		g.W[u][i] += dPre * xv
	}
	for j, hv := range hPrev {
		g.U[u][j] += dPre * hv
		dhPrev[j] += dPre * src.U[u][j]
	}
	g.B[u] += dPre
}

func clipGradients(grad *network) {
	ps := grad.params()
	var norm float64
	for _, p := range ps {
		norm += *p * *p
	}
	norm = math.Sqrt(norm)
	if norm <= gradClipNorm {
		return
	}
	scale := gradClipNorm / norm
	for _, p := range ps {
		*p *= scale
	}
}

func adamUpdate(net, grad, mMom, vMom *network, lr float64, step int) {
	np, gp := net.params(), grad.params()
	mp, vp := mMom.params(), vMom.params()
	bc1 := 1 - math.Pow(adamBeta1, float64(step))
	bc2 := 1 - math.Pow(adamBeta2, float64(step))
	for k := range np {
		g := *gp[k]
		*mp[k] = adamBeta1*(*mp[k]) + (1-adamBeta1)*g
		*vp[k] = adamBeta2*(*vp[k]) + (1-adamBeta2)*g*g
		mHat := *mp[k] / bc1
		vHat := *vp[k] / bc2
		*np[k] -= lr * mHat / (math.Sqrt(vHat) + adamEps)
	}
}
