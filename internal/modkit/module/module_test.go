package module

import (
	"context"
	"testing"
)

type pinger interface{ Ping(context.Context) error }

type fakePinger struct{}

func (fakePinger) Ping(context.Context) error { return nil }

type portBundle struct {
	Pinger pinger
	Extra  int
}

type fakeModule struct{ ports any }

func (m fakeModule) Ports() any   { return m.ports }
func (m fakeModule) Name() string { return "fake" }

func TestPortsOfWalksStructFields(t *testing.T) {
	m := fakeModule{ports: portBundle{Pinger: fakePinger{}}}
	p, ok := PortsOf[pinger](m)
	if !ok || p == nil {
		t.Fatal("pinger port not found")
	}
}

func TestPortsOfDirectValue(t *testing.T) {
	m := fakeModule{ports: fakePinger{}}
	if _, ok := PortsOf[pinger](m); !ok {
		t.Fatal("direct port not found")
	}
}

func TestMustPortsOfPanicsOnMiss(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	m := fakeModule{ports: portBundle{}}
	MustPortsOf[pinger](m)
}
