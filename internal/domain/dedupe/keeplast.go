package dedupe

import "context"

// KeyFunc extracts a dedupe key. An empty key never collides.
type KeyFunc[T any] func(T) string

// KeepLast removes earlier items that share a key with a later one and keeps
// the survivors in their original order. Each key function is applied as a
// separate pass, in the order given. The removed count covers all passes.
func KeepLast[T any](ctx context.Context, items []T, keys ...KeyFunc[T]) ([]T, int) {
	out := append([]T(nil), items...)
	removed := 0
	for _, key := range keys {
		var n int
		out, n = keepLastBy(ctx, out, key)
		removed += n
	}
	return out, removed
}

func keepLastBy[T any](ctx context.Context, items []T, key KeyFunc[T]) ([]T, int) {
	d := NewInMemoryDeduper()
	keep := make([]bool, len(items))
	kept := 0
	for i := len(items) - 1; i >= 0; i-- {
		k := key(items[i])
		if k == "" || !d.SeenAndRecord(ctx, k) {
			keep[i] = true
			kept++
		}
	}

	out := make([]T, 0, kept)
	for i, item := range items {
		if keep[i] {
			out = append(out, item)
		}
	}
	return out, len(items) - kept
}
