// loader.go
// Copyright (C) 2026 Vilhjálmur Þorsteinsson / Miðeind ehf.

// This file implements background loading of vocabularies.
// A Registry hands out one Future per language; the word list
// is parsed once, on a separate goroutine, and the resulting
// Vocabulary is shared by everybody who asks for that language.

package balda

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Point to the word list resources in the dicts directory
//
//go:embed dicts/*.txt
var dictFS embed.FS

// ErrVocabularyLoading is returned by Future.Result() while the
// word list is still being read
var ErrVocabularyLoading = fmt.Errorf("%w: still loading", ErrVocabularyUnavailable)

// Source opens the word list of a language
type Source interface {
	Open(lang Language) (io.ReadCloser, error)
}

// FSSource reads word lists named <language>.txt from
// a directory within a file system
type FSSource struct {
	FS  fs.FS
	Dir string
}

// Open opens the word list file for the given language
func (src FSSource) Open(lang Language) (io.ReadCloser, error) {
	return src.FS.Open(path.Join(src.Dir, string(lang)+".txt"))
}

// EmbeddedSource contains the small word lists that are
// compiled into the binary
var EmbeddedSource = FSSource{FS: dictFS, Dir: "dicts"}

// DirSource returns a Source reading word lists from a directory
func DirSource(dir string) Source {
	return FSSource{FS: os.DirFS(dir), Dir: "."}
}

// Future is the pending result of loading a Vocabulary
type Future struct {
	lang  Language
	done  chan struct{}
	vocab *Vocabulary
	err   error
}

func newFuture(lang Language) *Future {
	return &Future{lang: lang, done: make(chan struct{})}
}

// resolve is called exactly once, by the loading goroutine
func (f *Future) resolve(vocab *Vocabulary, err error) {
	f.vocab, f.err = vocab, err
	close(f.done)
}

// Language returns the language being loaded
func (f *Future) Language() Language {
	return f.lang
}

// Done returns a channel that is closed when loading completes
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Ready returns true if loading has completed, successfully or not.
// It never blocks.
func (f *Future) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Result returns the loaded Vocabulary without blocking. If loading
// has not completed, it returns ErrVocabularyLoading.
func (f *Future) Result() (*Vocabulary, error) {
	if !f.Ready() {
		return nil, ErrVocabularyLoading
	}
	return f.vocab, f.err
}

// Wait blocks until the Vocabulary is loaded or the context is done.
// Giving up on the wait does not cancel the load itself.
func (f *Future) Wait(ctx context.Context) (*Vocabulary, error) {
	select {
	case <-f.done:
		return f.vocab, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ResolvedFuture wraps an already available Vocabulary in a Future
func ResolvedFuture(vocab *Vocabulary) *Future {
	f := newFuture(vocab.Language())
	f.resolve(vocab, nil)
	return f
}

// Registry memoizes vocabulary loads: concurrent and repeated
// requests for the same language share a single Future
type Registry struct {
	source  Source
	mux     sync.Mutex
	futures map[Language]*Future
	logger  zerolog.Logger
}

// NewRegistry creates a Registry that reads word lists from source
func NewRegistry(source Source) *Registry {
	return &Registry{
		source:  source,
		futures: make(map[Language]*Future),
		logger:  log.With().Str("component", "vocabulary").Logger(),
	}
}

// DefaultRegistry loads the embedded word lists
var DefaultRegistry = NewRegistry(EmbeddedSource)

// Load returns the Future for a language, starting a background
// load if there is none yet. A load that failed is retried on the
// next call; successful and in-flight loads are shared.
func (r *Registry) Load(lang Language) *Future {
	r.mux.Lock()
	defer r.mux.Unlock()
	if f, ok := r.futures[lang]; ok {
		if !f.Ready() || f.err == nil {
			return f
		}
	}
	f := newFuture(lang)
	r.futures[lang] = f
	go r.run(f)
	return f
}

// Get is a convenience function that loads a language and waits
// for the result
func (r *Registry) Get(ctx context.Context, lang Language) (*Vocabulary, error) {
	return r.Load(lang).Wait(ctx)
}

// Preload loads several languages in parallel and waits for all
// of them, returning the first error encountered
func (r *Registry) Preload(ctx context.Context, langs ...Language) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, lang := range langs {
		f := r.Load(lang)
		g.Go(func() error {
			_, err := f.Wait(ctx)
			return err
		})
	}
	return g.Wait()
}

func (r *Registry) run(f *Future) {
	start := time.Now()
	vocab, err := r.read(f.lang)
	if err != nil {
		r.logger.Error().Err(err).Str("language", string(f.lang)).Msg("vocabulary load failed")
	} else {
		r.logger.Info().
			Str("language", string(f.lang)).
			Int("words", vocab.Size()).
			Dur("elapsed", time.Since(start)).
			Msg("vocabulary loaded")
	}
	f.resolve(vocab, err)
}

func (r *Registry) read(lang Language) (*Vocabulary, error) {
	if _, ok := languages[lang]; !ok {
		return nil, fmt.Errorf("%w: unknown language '%s'", ErrVocabularyUnavailable, lang)
	}
	rc, err := r.source.Open(lang)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVocabularyUnavailable, err)
	}
	defer rc.Close()
	return ParseWordList(lang, rc)
}
