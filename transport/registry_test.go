package transport

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/conduit-ucpi/walletauth/core"
)

type fakeAdapter struct {
	kind string
}

func (a *fakeAdapter) Kind() string { return a.kind }

func (a *fakeAdapter) Do(context.Context, core.TransportRequest) (core.TransportResponse, error) {
	return core.TransportResponse{StatusCode: 204}, nil
}

func TestRegistry_ResolveDefaultsToREST(t *testing.T) {
	registry := NewDefaultRegistry()

	adapter, err := registry.Resolve("", nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if adapter.Kind() != KindREST {
		t.Fatalf("kind = %s", adapter.Kind())
	}
}

func TestRegistry_RejectsDuplicateKind(t *testing.T) {
	registry := NewRegistry()
	if err := registry.Register(&fakeAdapter{kind: "rest"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := registry.Register(&fakeAdapter{kind: "REST"}); err == nil {
		t.Fatal("expected duplicate kind error")
	}
}

func TestRegistry_FactoryBuildsOnceAndIsMemoized(t *testing.T) {
	registry := NewRegistry()
	builds := 0
	err := registry.RegisterFactory("bridge", func(config map[string]any) (core.TransportAdapter, error) {
		builds++
		if config["endpoint"] != "ipc:///tmp/wallet" {
			return nil, fmt.Errorf("missing endpoint")
		}
		return &fakeAdapter{kind: "bridge"}, nil
	})
	if err != nil {
		t.Fatalf("register factory: %v", err)
	}

	config := map[string]any{"endpoint": "ipc:///tmp/wallet"}
	first, err := registry.Resolve("bridge", config)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := registry.Resolve("bridge", config)
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if first != second {
		t.Fatal("expected memoized adapter")
	}
	if builds != 1 {
		t.Fatalf("builds = %d", builds)
	}
}

func TestRegistry_UnknownKindFails(t *testing.T) {
	registry := NewDefaultRegistry()
	if _, err := registry.Resolve("carrier-pigeon", nil); err == nil {
		t.Fatal("expected unknown kind error")
	}
}

func TestRegistry_KindsAreSorted(t *testing.T) {
	registry := NewRegistry()
	_ = registry.Register(&fakeAdapter{kind: "rest"})
	_ = registry.RegisterFactory("bridge", func(map[string]any) (core.TransportAdapter, error) {
		return &fakeAdapter{kind: "bridge"}, nil
	})

	if got := registry.Kinds(); !reflect.DeepEqual(got, []string{"bridge", "rest"}) {
		t.Fatalf("kinds = %v", got)
	}
}
