package embedding

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"Augur_1.0/backend/go/pkg/retry"
)

type fakeModel struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeModel) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func testExecutor() *retry.Executor {
	p := retry.Policy{MaxAttempts: 3, MinDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond, Multiplier: 2}
	return retry.New(p, retry.DefaultClassifier)
}

func TestNormalize(t *testing.T) {
	got := Normalize("  hello\n\tworld  again  ", 0)
	if got != "hello world again" {
		t.Fatalf("got %q", got)
	}

	long := strings.Repeat("a", 20) + " tail"
	got = Normalize(long, 20)
	if got != strings.Repeat("a", 20) {
		t.Fatalf("truncation: got %q", got)
	}
}

func TestNormalizeTruncatesOnRuneBoundary(t *testing.T) {
	// Each 股 is three bytes; a byte-wise cut at 4 would split the
	// second rune and leave invalid UTF-8.
	got := Normalize("股股股", 2)
	if got != "股股" {
		t.Fatalf("got %q", got)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("invalid UTF-8: %q", got)
	}
}

func TestEmbedAllEmptyInput(t *testing.T) {
	e := NewEnsemble([]Member{{Name: "m1", Model: &fakeModel{vector: []float32{1}}}}, testExecutor())

	for _, text := range []string{"", "   ", "nan", "NaN"} {
		if _, err := e.EmbedAll(context.Background(), text); !errors.Is(err, ErrEmptyInput) {
			t.Fatalf("text %q: want ErrEmptyInput, got %v", text, err)
		}
	}
}

func TestEmbedAllAllOrNothing(t *testing.T) {
	good := &fakeModel{vector: []float32{1, 2}}
	bad := &fakeModel{err: retry.MarkPermanent(errors.New("boom"))}
	e := NewEnsemble([]Member{
		{Name: "m1", Model: good},
		{Name: "m2", Model: bad},
	}, testExecutor())

	vectors, err := e.EmbedAll(context.Background(), "some text")
	if err == nil {
		t.Fatal("want error when one member fails")
	}
	if vectors != nil {
		t.Fatalf("want no vectors on failure, got %v", vectors)
	}
}

func TestEmbedAllSuccess(t *testing.T) {
	m1 := &fakeModel{vector: []float32{1, 0}}
	m2 := &fakeModel{vector: []float32{0, 1}}
	e := NewEnsemble([]Member{
		{Name: "m1", Model: m1},
		{Name: "m2", Model: m2},
	}, testExecutor())

	vectors, err := e.EmbedAll(context.Background(), "some text")
	if err != nil {
		t.Fatal(err)
	}
	if len(vectors) != 2 {
		t.Fatalf("want 2 vectors, got %d", len(vectors))
	}
	if vectors["m1"][0] != 1 || vectors["m2"][1] != 1 {
		t.Fatalf("wrong vectors: %v", vectors)
	}
	if e.Primary() != "m1" {
		t.Fatalf("primary: got %q", e.Primary())
	}
}

func TestEmbedAllRetriesTransient(t *testing.T) {
	flaky := &flakyModel{failures: 2, vector: []float32{3}}
	e := NewEnsemble([]Member{{Name: "m1", Model: flaky}}, testExecutor())

	vectors, err := e.EmbedAll(context.Background(), "text")
	if err != nil {
		t.Fatal(err)
	}
	if flaky.calls != 3 {
		t.Fatalf("want 3 calls, got %d", flaky.calls)
	}
	if vectors["m1"][0] != 3 {
		t.Fatalf("wrong vector: %v", vectors)
	}
}

type flakyModel struct {
	failures int
	vector   []float32
	calls    int
}

func (f *flakyModel) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, retry.MarkTransient(errors.New("temporary"))
	}
	return f.vector, nil
}

func TestEmbedWithUnknownModel(t *testing.T) {
	e := NewEnsemble([]Member{{Name: "m1", Model: &fakeModel{vector: []float32{1}}}}, testExecutor())
	if _, err := e.EmbedWith(context.Background(), "nope", "text"); err == nil {
		t.Fatal("want error for unknown model")
	}
}
