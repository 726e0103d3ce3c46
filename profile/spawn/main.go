// Profiling:
// go build ./profile/spawn
// go tool pprof -http=":8000" -nodefraction=0.001 ./spawn mem.pprof

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

func main() {
	rounds := 20
	iters := 200
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
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

		spawned := make([]types.Entity, 0, numEntities)
		for i := 0; i < iters; i++ {
			spawned = spawned[:0]
			for j := 0; j < numEntities; j++ {
				e, err := w.SpawnWith(position{}, velocity{DX: 1, DY: 1})
				if err != nil {
					panic(err)
				}
				spawned = append(spawned, e)
			}
			q := veldt.NewQuery2[position, velocity](w)
			q.Each(func(_ types.Entity, p *position, v *velocity) bool {
				p.X += v.DX
				p.Y += v.DY
				return true
			})
			for _, e := range spawned {
				w.Despawn(e)
			}
			w.AdvanceTick()
		}
	}
}
