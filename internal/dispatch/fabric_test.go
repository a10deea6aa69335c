package dispatch

import (
	"testing"
)

func TestFabric_InvariantHandlersReceiveExactType(t *testing.T) {
	f := NewFabric()

	var gotPop []Popularity
	Subscribe(f, func(p Popularity) { gotPop = append(gotPop, p) })

	var gotConn int
	Subscribe(f, func(Connected) { gotConn++ })

	f.Dispatch(Popularity{Value: 42})
	f.Dispatch(Connected{})

	if len(gotPop) != 1 || gotPop[0].Value != 42 {
		t.Fatalf("gotPop = %+v", gotPop)
	}
	if gotConn != 1 {
		t.Fatalf("gotConn = %d, want 1", gotConn)
	}
}

func TestFabric_SequentialOrderingWithinOneType(t *testing.T) {
	f := NewFabric()

	var order []int
	Subscribe(f, func(Popularity) { order = append(order, 1) })
	Subscribe(f, func(Popularity) { order = append(order, 2) })
	Subscribe(f, func(Popularity) { order = append(order, 3) })

	f.Dispatch(Popularity{Value: 1})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("order = %v, want [1 2 3]", order)
	}
}

func TestFabric_ContravariantHandlerReceivesEveryEvent(t *testing.T) {
	f := NewFabric()

	var all []Event
	f.SubscribeAny(func(ev Event) { all = append(all, ev) })

	f.Dispatch(Connected{})
	f.Dispatch(Popularity{Value: 7})
	f.Dispatch(RawData{JSON: []byte("{}")})

	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
}

func TestFabric_PanickingHandlerDoesNotBlockOthers(t *testing.T) {
	f := NewFabric()

	var secondRan bool
	Subscribe(f, func(Popularity) { panic("boom") })
	Subscribe(f, func(Popularity) { secondRan = true })

	f.Dispatch(Popularity{Value: 1})

	if !secondRan {
		t.Fatalf("second handler did not run after first panicked")
	}
}
