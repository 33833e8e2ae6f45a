package ingest

import (
	"context"
	"math/rand"
	"sync"

	"github.com/san-kum/neurodash/internal/neuro"
)

// SimPoller produces a seeded random walk for every sensor. It stands in
// for headsets in demos and tests.
type SimPoller struct {
	mu      sync.Mutex
	rng     *rand.Rand
	sensors []neuro.SensorID
	params  []string
	session string
	state   map[neuro.SensorID]neuro.Reading

	// Step is the standard deviation of each walk step on the 0-100 scale.
	Step float64
	// Dropout is the probability that a sensor reports nothing on a poll.
	Dropout float64
}

func NewSimPoller(sensors []neuro.SensorID, params []string, session string, seed int64) *SimPoller {
	p := &SimPoller{
		rng:     rand.New(rand.NewSource(seed)),
		sensors: sensors,
		params:  params,
		session: session,
		state:   make(map[neuro.SensorID]neuro.Reading, len(sensors)),
		Step:    6,
	}
	for _, id := range sensors {
		r := make(neuro.Reading, len(params))
		for _, name := range params {
			r[name] = p.initial(name)
		}
		p.state[id] = r
	}
	return p
}

func (p *SimPoller) Session() string { return p.session }

func (p *SimPoller) initial(metric string) float64 {
	switch metric {
	case neuro.MetricSignal:
		return 80 + p.rng.Float64()*20
	case neuro.MetricAttention, neuro.MetricMeditation:
		return 30 + p.rng.Float64()*40
	}
	return p.rng.Float64() * 100
}

func (p *SimPoller) Poll(ctx context.Context) (neuro.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return neuro.Snapshot{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	snap := neuro.NewSnapshot(p.session)
	for _, id := range p.sensors {
		if p.Dropout > 0 && p.rng.Float64() < p.Dropout {
			snap.Set(id, MissingReading(p.params))
			continue
		}
		r := p.state[id]
		for _, name := range p.params {
			step := p.rng.NormFloat64() * p.Step
			if name == neuro.MetricSignal {
				step /= 3
			}
			r[name] = min(max(r[name]+step, 0), 100)
		}
		snap.Set(id, r.Clone())
	}
	return snap, nil
}
