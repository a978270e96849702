package usecase

import (
	"github.com/secmon-lab/soapnote/pkg/domain/interfaces"
	"github.com/secmon-lab/soapnote/pkg/service/audio"
	"github.com/secmon-lab/soapnote/pkg/service/synthesis"
)

type UseCases struct {
	repo       interfaces.Repository
	synthesis  synthesis.Service
	audio      audio.Store
	trendLimit int

	Visit     *VisitUseCase
	BPReading *BPReadingUseCase
}

type Option func(*UseCases)

// WithSynthesis sets the note synthesis service. Without it every capture
// is finalized with the degraded note.
func WithSynthesis(svc synthesis.Service) Option {
	return func(uc *UseCases) {
		uc.synthesis = svc
	}
}

// WithAudioStore enables archiving of recorded visit audio
func WithAudioStore(store audio.Store) Option {
	return func(uc *UseCases) {
		uc.audio = store
	}
}

// WithTrendLimit overrides the default number of entries in timeline and trend queries
func WithTrendLimit(limit int) Option {
	return func(uc *UseCases) {
		if limit > 0 {
			uc.trendLimit = limit
		}
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:       repo,
		trendLimit: interfaces.DefaultTrendLimit,
	}

	for _, opt := range opts {
		opt(uc)
	}

	uc.Visit = NewVisitUseCase(repo, uc.synthesis, uc.audio, uc.trendLimit)
	uc.BPReading = NewBPReadingUseCase(repo, uc.trendLimit)

	return uc
}
