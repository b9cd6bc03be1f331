package providers

import (
	"sync"
	"testing"
)

func TestRegistry(t *testing.T) {
	t.Run("register and get", func(t *testing.T) {
		r := NewRegistry()
		mock := NewMockBackend()
		r.Register(mock)

		b, err := r.Get(ProviderMock)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if b != mock {
			t.Error("got different backend than registered")
		}
	})

	t.Run("get nonexistent", func(t *testing.T) {
		r := NewRegistry()
		if _, err := r.Get("nonexistent"); err == nil {
			t.Error("expected error for nonexistent backend")
		}
	})

	t.Run("default registry", func(t *testing.T) {
		r := NewDefaultRegistry(nil)
		want := []string{ProviderAnthropic, ProviderGemini, ProviderMock, ProviderOpenAI}
		got := r.Names()
		if len(got) != len(want) {
			t.Fatalf("Names() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("Names()[%d] = %s, want %s", i, got[i], want[i])
			}
		}
	})

	t.Run("unregister", func(t *testing.T) {
		r := NewRegistry()
		r.Register(NewMockBackend())
		r.Unregister(ProviderMock)
		if r.Has(ProviderMock) {
			t.Error("Has() = true after Unregister")
		}
	})

	t.Run("concurrent access", func(t *testing.T) {
		r := NewRegistry()
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				r.Register(NewMockBackend())
			}()
			go func() {
				defer wg.Done()
				r.Get(ProviderMock) // may fail, that's ok
			}()
		}
		wg.Wait()
	})
}
