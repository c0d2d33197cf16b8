package usecases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gitbrief/gitbrief/internal/domain"
)

// ProviderFactory constructs a validated StreamProvider for a backend name.
// Construction failures carry domain.ErrProviderConfig.
type ProviderFactory func(name string) (domain.StreamProvider, error)

// fragmentBuffer decouples the provider goroutine from display rendering.
const fragmentBuffer = 16

// StreamOrchestrator drives one provider session to completion, echoing
// fragments to a live display as they arrive and returning the aggregated
// text. It is single-flight: one stream runs to a terminal state before Run
// returns.
type StreamOrchestrator struct {
	factory ProviderFactory
	display io.Writer
	logger  Logger
}

// NewStreamOrchestrator creates a StreamOrchestrator. Fragments are written
// to display incrementally, append-only.
func NewStreamOrchestrator(factory ProviderFactory, display io.Writer, log Logger) *StreamOrchestrator {
	return &StreamOrchestrator{
		factory: factory,
		display: display,
		logger:  log,
	}
}

// Run connects to the named provider and consumes its fragment sequence.
// Configuration errors fail before any network I/O and return no text.
// Transport errors mid-stream return the fragments accumulated so far
// together with the error; whether to persist that partial output is the
// caller's decision.
func (o *StreamOrchestrator) Run(ctx context.Context, providerName, systemPrompt, userPrompt string) (string, error) {
	prov, err := o.factory(providerName)
	if err != nil {
		o.logger.Error(ctx, "provider configuration rejected", err, map[string]interface{}{
			"provider": providerName,
		})
		return "", err
	}

	o.logger.Info(ctx, "connecting to provider", map[string]interface{}{
		"provider": prov.Name(),
	})

	fragments := make(chan string, fragmentBuffer)
	errCh := make(chan error, 1)
	go func() {
		defer close(fragments)
		errCh <- prov.Stream(ctx, systemPrompt, userPrompt, fragments)
	}()

	var accumulated strings.Builder
	for fragment := range fragments {
		accumulated.WriteString(fragment)
		if o.display != nil {
			// Best-effort live rendering; a broken display must not
			// interrupt the stream.
			_, _ = io.WriteString(o.display, fragment)
		}
	}

	if err := <-errCh; err != nil {
		if !errors.Is(err, domain.ErrStreamTransport) {
			err = fmt.Errorf("%w: %w", domain.ErrStreamTransport, err)
		}
		o.logger.Error(ctx, "stream failed", err, map[string]interface{}{
			"provider":          prov.Name(),
			"accumulated_bytes": accumulated.Len(),
		})
		return accumulated.String(), err
	}

	o.logger.Info(ctx, "stream completed", map[string]interface{}{
		"provider": prov.Name(),
		"bytes":    accumulated.Len(),
	})

	return accumulated.String(), nil
}
