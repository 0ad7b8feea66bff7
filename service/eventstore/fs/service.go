package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
	"github.com/viant/roundtrip/model"
	"github.com/viant/roundtrip/service/dao"
	"github.com/viant/roundtrip/service/eventstore"
)

const extension = ".json"

// document is the persisted form of one batch history.
type document struct {
	BatchID    string         `json:"batchId"`
	RoundTrips []*model.Batch `json:"roundTrips"`
}

// Service implements a file-system event store, one JSON document per batch
// under baseURL. Any afs-supported scheme can be used.
type Service struct {
	baseURL string
	fs      afs.Service
	mu      sync.RWMutex
}

var _ eventstore.Storage = (*Service)(nil)

// AllRoundTrips loads the batch document and returns its round trips ascending.
func (s *Service) AllRoundTrips(ctx context.Context, batchID string) ([]*model.Batch, error) {
	if err := validateBatchID(batchID); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, err := s.load(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return []*model.Batch{}, nil
	}
	return doc.RoundTrips, nil
}

// AddEvent appends event to the round trip and rewrites the batch document.
func (s *Service) AddEvent(ctx context.Context, batchID string, roundTrip int, event *model.Event) error {
	if err := eventstore.ValidateAppend(batchID, roundTrip, event); err != nil {
		return err
	}
	if err := validateBatchID(batchID); err != nil {
		return err
	}
	return s.update(ctx, batchID, roundTrip, func(rt *model.Batch) {
		stored := *event
		rt.Events = append(rt.Events, &stored)
	})
}

// AddRoundTrip registers a round trip without events.
func (s *Service) AddRoundTrip(ctx context.Context, batchID string, roundTrip int) error {
	if err := eventstore.ValidateRoundTrip(batchID, roundTrip); err != nil {
		return err
	}
	if err := validateBatchID(batchID); err != nil {
		return err
	}
	return s.update(ctx, batchID, roundTrip, nil)
}

// BatchIDs lists the batch documents under baseURL.
func (s *Service) BatchIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects, err := s.fs.List(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list batch documents: %w", err)
	}
	var ret []string
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), extension) {
			continue
		}
		ret = append(ret, strings.TrimSuffix(object.Name(), extension))
	}
	sort.Strings(ret)
	return ret, nil
}

// Close is a no-op.
func (s *Service) Close() error { return nil }

func (s *Service) update(ctx context.Context, batchID string, roundTrip int, fn func(rt *model.Batch)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.load(ctx, batchID)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = &document{BatchID: batchID}
	}
	rt := model.History(doc.RoundTrips).Lookup(roundTrip)
	if rt == nil {
		rt = model.NewBatch(batchID, roundTrip)
		doc.RoundTrips = append(doc.RoundTrips, rt)
		sort.Slice(doc.RoundTrips, func(i, j int) bool {
			return doc.RoundTrips[i].RoundTripNumber < doc.RoundTrips[j].RoundTripNumber
		})
	}
	if fn != nil {
		fn(rt)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal batch %s: %w", batchID, err)
	}
	URL := s.documentURL(batchID)
	if err = s.fs.Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save batch %s to %s: %w", batchID, URL, err)
	}
	return nil
}

// load returns nil, nil when the document does not exist.
func (s *Service) load(ctx context.Context, batchID string) (*document, error) {
	URL := s.documentURL(batchID)
	exists, err := s.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to check batch %s: %w", batchID, err)
	}
	if !exists {
		return nil, nil
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch %s: %w", batchID, err)
	}
	doc := &document{}
	if err = json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal batch %s: %w", batchID, err)
	}
	return doc, nil
}

func (s *Service) documentURL(batchID string) string {
	return url.Join(s.baseURL, batchID+extension)
}

func validateBatchID(batchID string) error {
	if batchID == "" || batchID == "." || batchID == ".." || strings.ContainsAny(batchID, `/\`) {
		return fmt.Errorf("invalid batch id %q: %w", batchID, dao.ErrInvalidID)
	}
	return nil
}

// New creates a file-system event store rooted at baseURL
func New(ctx context.Context, baseURL string) (*Service, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL cannot be empty")
	}
	fs := afs.New()
	baseURL = url.Normalize(baseURL, file.Scheme)
	exists, err := fs.Exists(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to check base directory %s: %w", baseURL, err)
	}
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return &Service{baseURL: baseURL, fs: fs}, nil
}
