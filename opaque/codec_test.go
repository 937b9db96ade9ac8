package opaque

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/signably/gatehouse/settings"
)

func newCodec(t *testing.T) (*Codec, *settings.Store) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := settings.NewRedisRepository(client, "test")
	if err != nil {
		t.Fatalf("NewRedisRepository: %v", err)
	}
	store := settings.NewStore(repo, zap.NewNop())
	ctx := context.Background()
	if err := store.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := store.Reload(ctx); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	codec, err := NewCodec(store)
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	return codec, store
}

func TestRoundTrip(t *testing.T) {
	codec, _ := newCodec(t)

	for _, id := range []int64{1, 2, 42, 999, 1 << 31, 1<<62 - 1} {
		opaque, err := codec.Encode(id)
		if err != nil {
			t.Fatalf("Encode(%d): %v", id, err)
		}
		if len(opaque) < 8 {
			t.Fatalf("Encode(%d) = %q shorter than configured minimum", id, opaque)
		}

		got, err := codec.Decode(opaque)
		if err != nil {
			t.Fatalf("Decode(%q): %v", opaque, err)
		}
		if got != id {
			t.Fatalf("Decode(Encode(%d)) = %d", id, got)
		}
	}
}

func TestEncodeRejectsNonPositive(t *testing.T) {
	codec, _ := newCodec(t)

	for _, id := range []int64{0, -1, -500} {
		if _, err := codec.Encode(id); !errors.Is(err, ErrEncode) {
			t.Fatalf("Encode(%d): got %v, want ErrEncode", id, err)
		}
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	codec, _ := newCodec(t)

	for _, in := range []string{"", "!!!", "not an id", "AAAAAAAAAAAA"} {
		if _, err := codec.Decode(in); !errors.Is(err, ErrDecode) {
			t.Fatalf("Decode(%q): got %v, want ErrDecode", in, err)
		}
	}
}

func TestReloadInvalidatesIssuedStrings(t *testing.T) {
	codec, _ := newCodec(t)

	opaque, err := codec.Encode(12345)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if err := codec.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	// The salt changed, so the old string must no longer decode.
	if _, err := codec.Decode(opaque); !errors.Is(err, ErrDecode) {
		t.Fatalf("Decode after reload: got %v, want ErrDecode", err)
	}

	// New strings under the new salt round-trip as usual.
	fresh, err := codec.Encode(12345)
	if err != nil {
		t.Fatalf("Encode after reload: %v", err)
	}
	got, err := codec.Decode(fresh)
	if err != nil || got != 12345 {
		t.Fatalf("round trip after reload = %d, %v", got, err)
	}
}

func TestSaltLengthFloor(t *testing.T) {
	codec, store := newCodec(t)
	ctx := context.Background()

	// Even a misconfigured tiny salt length keeps the codec functional,
	// with the floor applied underneath.
	if err := store.Update(ctx, settings.KeyObfuscationSaltLength, "2"); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := codec.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	opaque, err := codec.Encode(77)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if got, err := codec.Decode(opaque); err != nil || got != 77 {
		t.Fatalf("round trip with floored salt = %d, %v", got, err)
	}
}
