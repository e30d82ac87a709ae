package repository

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/kjannette/pi-tracker/internal/models"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
	"go.uber.org/zap"
)

const (
	historySegmentLimit = 1000
	historyMaxSegments  = 100
	historySampleKey    = "price_sample"
)

// WALStore appends each price sample as one WAL record. Samples are
// immutable once appended, so Save only writes the tail it has not seen.
type WALStore struct {
	wal    *gowal.Wal
	mu     sync.Mutex
	count  int
	logger *zap.Logger
}

func NewWALStore(dir string, logger *zap.Logger) (*WALStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "history_",
		SegmentThreshold: historySegmentLimit,
		MaxSegments:      historyMaxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init history WAL")
	}
	s := &WALStore{wal: wal, logger: logger}
	s.count = len(s.replay())
	return s, nil
}

func (s *WALStore) Load(_ context.Context) ([]models.PriceSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := s.replay()
	s.count = len(samples)
	return samples, nil
}

func (s *WALStore) replay() []models.PriceSample {
	samples := []models.PriceSample{}
	for msg := range s.wal.Iterator() {
		if msg.Key != historySampleKey {
			continue
		}
		var sample models.PriceSample
		if err := json.Unmarshal(msg.Value, &sample); err != nil {
			s.logger.Error("skipping undecodable history record", zap.Error(err))
			continue
		}
		samples = append(samples, sample)
	}
	return samples
}

func (s *WALStore) Save(_ context.Context, samples []models.PriceSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(samples) < s.count {
		return errors.Errorf("history shrank from %d to %d samples; the WAL is append-only", s.count, len(samples))
	}
	for _, sample := range samples[s.count:] {
		payload, err := json.Marshal(sample)
		if err != nil {
			return errors.Wrap(err, "marshal price sample")
		}
		if err := s.wal.Write(s.wal.CurrentIndex()+1, historySampleKey, payload); err != nil {
			return errors.Wrap(err, "append price sample")
		}
		s.count++
	}
	return nil
}

func (s *WALStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wal.Close()
}
