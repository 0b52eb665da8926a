package surfmesh

import "testing"

func TestArenaGenerations(t *testing.T) {
	var a arena[int]
	x, y := 1, 2
	hx := a.alloc(&x)
	hy := a.alloc(&y)
	if *a.get(hx) != 1 || *a.get(hy) != 2 || a.live != 2 {
		t.Fatal("alloc/get mismatch")
	}
	if !a.kill(hx) || a.kill(hx) {
		t.Fatal("kill must succeed once")
	}
	if a.get(hx) != nil || a.live != 1 {
		t.Fatal("killed handle resolves")
	}
	// Dead slots are not reused before release.
	z := 3
	hz := a.alloc(&z)
	if hz.idx == hx.idx {
		t.Fatal("dead slot reused before release")
	}
	if n := a.release(); n != 1 {
		t.Fatalf("released %d slots", n)
	}
	w := 4
	hw := a.alloc(&w)
	if hw.idx != hx.idx || hw.gen == hx.gen {
		t.Fatalf("released slot not reused with new generation: %+v %+v", hx, hw)
	}
	if a.get(hx) != nil || *a.get(hw) != 4 {
		t.Fatal("stale handle resolves to new occupant")
	}
	if a.get(handle{}) != nil {
		t.Fatal("zero handle resolves")
	}
	c := a.clone(func(v *int) *int { u := *v * 10; return &u })
	if *c.get(hw) != 40 || *a.get(hw) != 4 || c.get(hx) != nil {
		t.Fatal("clone does not preserve handles")
	}
}
