// Package service is the orchestration facade: it wires the pipeline
// stages together and owns batch identity. All collaborators are
// explicitly constructed and injected; nothing here talks to the
// outside world directly.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voxlate/voxlate/internal/audio"
	"github.com/voxlate/voxlate/internal/narration"
	"github.com/voxlate/voxlate/internal/optimizer"
	"github.com/voxlate/voxlate/internal/segmenter"
	"github.com/voxlate/voxlate/internal/storage"
	"github.com/voxlate/voxlate/internal/subtitle"
	"github.com/voxlate/voxlate/internal/translator"
	"github.com/voxlate/voxlate/internal/tts"
	"github.com/voxlate/voxlate/pkg/log"
)

// BatchRecorder tracks batch creation times for housekeeping. May be
// nil, in which case batches are never purged automatically.
type BatchRecorder interface {
	RecordBatch(ctx context.Context, batchID string, createdAt time.Time) error
	ExpiredBatches(ctx context.Context, before time.Time) ([]string, error)
	DeleteBatch(ctx context.Context, batchID string) error
}

// Service runs the dubbing pipeline end to end.
type Service struct {
	store    storage.Store
	narrator *narration.Narrator
	trans    translator.Translator
	detector segmenter.BoundaryDetector
	batches  BatchRecorder
	prefix   string
}

// Deps carries the collaborators a Service needs.
type Deps struct {
	Store      storage.Store
	Engine     audio.Engine
	Synth      tts.Synthesizer
	Translator translator.Translator
	Detector   segmenter.BoundaryDetector
	Batches    BatchRecorder
	KeyPrefix  string
	MaxWorkers int
}

// New builds a Service from its dependencies.
func New(deps Deps) *Service {
	prefix := deps.KeyPrefix
	if prefix == "" {
		prefix = narration.DefaultKeyPrefix
	}
	opts := []narration.Option{narration.WithKeyPrefix(prefix)}
	if deps.MaxWorkers > 0 {
		opts = append(opts, narration.WithMaxWorkers(deps.MaxWorkers))
	}
	return &Service{
		store:    deps.Store,
		narrator: narration.New(deps.Store, deps.Engine, deps.Synth, opts...),
		trans:    deps.Translator,
		detector: deps.Detector,
		batches:  deps.Batches,
		prefix:   prefix,
	}
}

// GenerateSubtitles builds display-ready SRT from a transcript and its
// word timings.
func (s *Service) GenerateSubtitles(_ context.Context, transcript string, words []segmenter.Word) (string, error) {
	if transcript == "" {
		return "", fmt.Errorf("empty transcript")
	}
	cues := segmenter.GenerateCues(transcript, words, s.detector)
	if len(cues) == 0 {
		return "", fmt.Errorf("no cues generated")
	}
	return subtitle.FormatCues(cues), nil
}

// Translate converts SRT text into the target language. When the
// source language is empty it is detected from the entries.
func (s *Service) Translate(ctx context.Context, srt, sourceLang, targetLang string) (string, error) {
	entries, err := subtitle.ParseEntries(srt)
	if err != nil {
		return "", fmt.Errorf("parse srt: %w", err)
	}

	if sourceLang == "" {
		tag := subtitle.DetectLanguage(entries)
		sourceLang = tag.String()
		log.Info("Detected source language: %s", sourceLang)
	}

	translated, err := s.trans.Translate(ctx, entries, sourceLang, targetLang)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return subtitle.FormatEntries(translated), nil
}

// Optimize regroups SRT entries into synthesis-ready units.
func (s *Service) Optimize(_ context.Context, srt string) ([]optimizer.Unit, error) {
	entries, err := subtitle.ParseEntries(srt)
	if err != nil {
		return nil, fmt.Errorf("parse srt: %w", err)
	}
	return optimizer.Optimize(entries), nil
}

// NarrationResult is the outcome of a synthesis run.
type NarrationResult struct {
	BatchID string           `json:"batch_id"`
	Units   []optimizer.Unit `json:"units"`
	Keys    []string         `json:"keys"`
}

// Synthesize optimizes the SRT into units and generates one audio
// segment per unit under a fresh batch id.
func (s *Service) Synthesize(ctx context.Context, srt, voice, model string) (*NarrationResult, error) {
	entries, err := subtitle.ParseEntries(srt)
	if err != nil {
		return nil, fmt.Errorf("parse srt: %w", err)
	}

	units := optimizer.Optimize(entries)
	batchID := uuid.NewString()
	log.Info("Starting narration batch %s: %d entries -> %d units", batchID, len(entries), len(units))

	keys, err := s.narrator.Synthesize(ctx, batchID, units, voice, model)
	if err != nil {
		return nil, err
	}

	s.recordBatch(ctx, batchID)

	return &NarrationResult{BatchID: batchID, Units: units, Keys: keys}, nil
}

// Validate measures narration drift for an existing batch.
func (s *Service) Validate(ctx context.Context, srt, batchID string) (narration.ValidationReport, error) {
	entries, units, err := s.resolveBatchInputs(srt)
	if err != nil {
		return narration.ValidationReport{}, err
	}
	return s.narrator.Validate(ctx, entries, units, batchID), nil
}

// Adjust applies bounded tempo correction to an existing batch and
// returns the corrected unit indices.
func (s *Service) Adjust(ctx context.Context, srt, batchID string) ([]int, error) {
	entries, units, err := s.resolveBatchInputs(srt)
	if err != nil {
		return nil, err
	}
	return s.narrator.Adjust(ctx, entries, units, batchID)
}

// Combine assembles the final track for an existing batch and returns
// a presigned URL.
func (s *Service) Combine(ctx context.Context, srt, batchID string) (string, error) {
	entries, units, err := s.resolveBatchInputs(srt)
	if err != nil {
		return "", err
	}
	return s.narrator.Assemble(ctx, entries, units, batchID)
}

// DubResult is the outcome of a full dubbing run.
type DubResult struct {
	BatchID        string                     `json:"batch_id"`
	TranslatedSRT  string                     `json:"translated_srt"`
	Report         narration.ValidationReport `json:"report"`
	AdjustedUnits  []int                      `json:"adjusted_units"`
	TrackURL       string                     `json:"track_url"`
	SourceLanguage string                     `json:"source_language"`
}

// DubVoiceOver runs the whole pipeline: translate, synthesize, correct
// drift, assemble.
func (s *Service) DubVoiceOver(ctx context.Context, srt, sourceLang, targetLang, voice, model string) (*DubResult, error) {
	entries, err := subtitle.ParseEntries(srt)
	if err != nil {
		return nil, fmt.Errorf("parse srt: %w", err)
	}
	if sourceLang == "" {
		sourceLang = subtitle.DetectLanguage(entries).String()
		log.Info("Detected source language: %s", sourceLang)
	}

	translated, err := s.trans.Translate(ctx, entries, sourceLang, targetLang)
	if err != nil {
		return nil, fmt.Errorf("translate: %w", err)
	}
	translatedSRT := subtitle.FormatEntries(translated)

	units := optimizer.Optimize(translated)
	batchID := uuid.NewString()
	log.Info("Dubbing batch %s: %s -> %s, %d units", batchID, sourceLang, targetLang, len(units))

	if _, err := s.narrator.Synthesize(ctx, batchID, units, voice, model); err != nil {
		return nil, err
	}
	s.recordBatch(ctx, batchID)

	adjusted, err := s.narrator.Adjust(ctx, translated, units, batchID)
	if err != nil {
		return nil, err
	}

	report := s.narrator.Validate(ctx, translated, units, batchID)

	url, err := s.narrator.Assemble(ctx, translated, units, batchID)
	if err != nil {
		return nil, err
	}

	return &DubResult{
		BatchID:        batchID,
		TranslatedSRT:  translatedSRT,
		Report:         report,
		AdjustedUnits:  adjusted,
		TrackURL:       url,
		SourceLanguage: sourceLang,
	}, nil
}

// CleanupExpiredBatches purges artifacts of batches older than ttl.
// Failures are logged per batch; a batch's record survives until its
// artifacts are gone.
func (s *Service) CleanupExpiredBatches(ctx context.Context, ttl time.Duration) error {
	if s.batches == nil {
		return nil
	}

	expired, err := s.batches.ExpiredBatches(ctx, time.Now().Add(-ttl))
	if err != nil {
		return fmt.Errorf("list expired batches: %w", err)
	}
	if len(expired) == 0 {
		return nil
	}
	log.Info("Purging %d expired batches", len(expired))

	for _, batchID := range expired {
		keys, err := s.store.List(ctx, storage.BatchPrefix(s.prefix, batchID))
		if err != nil {
			log.Error("Failed to list artifacts for batch %s: %v", batchID, err)
			continue
		}
		failed := false
		for _, key := range keys {
			if err := s.store.Delete(ctx, key); err != nil {
				log.Error("Failed to delete artifact %s: %v", key, err)
				failed = true
			}
		}
		if failed {
			continue
		}
		if err := s.batches.DeleteBatch(ctx, batchID); err != nil {
			log.Error("Failed to drop batch record %s: %v", batchID, err)
			continue
		}
		log.Info("Purged batch %s (%d artifacts)", batchID, len(keys))
	}
	return nil
}

// resolveBatchInputs re-derives the entry list and unit partition from
// the same SRT used at synthesis time. Optimize is deterministic, so
// unit indices line up with the stored segment keys.
func (s *Service) resolveBatchInputs(srt string) ([]subtitle.Entry, []optimizer.Unit, error) {
	entries, err := subtitle.ParseEntries(srt)
	if err != nil {
		return nil, nil, fmt.Errorf("parse srt: %w", err)
	}
	return entries, optimizer.Optimize(entries), nil
}

func (s *Service) recordBatch(ctx context.Context, batchID string) {
	if s.batches == nil {
		return
	}
	if err := s.batches.RecordBatch(ctx, batchID, time.Now()); err != nil {
		log.Error("Failed to record batch %s: %v", batchID, err)
	}
}
