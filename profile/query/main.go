// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

package main

import (
	"github.com/pkg/profile"

	"github.com/veldtgames/veldt"
	"github.com/veldtgames/veldt/types"
)

type position struct {
	X, Y float64
}

func (position) Name() string { return "position" }

type velocity struct {
	DX, DY float64
}

func (velocity) Name() string { return "velocity" }

type health struct {
	Value int64
}

func (health) Name() string { return "health" }

func main() {
	rounds := 10
	iters := 2000
	entities := 10000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(rounds, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for r := 0; r < rounds; r++ {
		w, err := veldt.NewWorld()
		if err != nil {
			panic(err)
		}
		veldt.MustRegisterComponent[position](w)
		veldt.MustRegisterComponent[velocity](w)
		veldt.MustRegisterComponent[health](w)

		for j := 0; j < numEntities; j++ {
			if _, err := w.SpawnWith(position{}, velocity{DX: 1, DY: 1}, health{Value: 100}); err != nil {
				panic(err)
			}
		}

		q := veldt.NewQuery2[position, velocity](w)
		for i := 0; i < iters; i++ {
			q.Each(func(_ types.Entity, p *position, v *velocity) bool {
				p.X += v.DX
				p.Y += v.DY
				return true
			})
		}
	}
}
