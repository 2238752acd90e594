package tracker

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/creditarchitect/dispatch-app/conf"
	customErrors "github.com/creditarchitect/dispatch-app/dispatch/errors"
	"github.com/creditarchitect/dispatch-app/dispatch/models"
)

// storeDocument is the on-disk shape of the dispute store. The single
// top-level key leaves room for future sections without a format break.
type storeDocument struct {
	Disputes []models.DisputeRecord `json:"disputes"`
}

// Store is a durable JSON-file collection of dispute records. All mutation
// runs through read-modify-write under a process-wide mutex, and every write
// goes to a temp file renamed into place so a crash never leaves a partial
// document behind.
type Store struct {
	path string
	mu   sync.Mutex
}

func NewStore(path string) *Store {
	if path == "" {
		path = conf.GetEnv("DISPUTE_LOG_PATH")
	}
	if path == "" {
		path = "dispute_tracker.json"
	}
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

// load reads the full document. A missing file is an empty store; a present
// but unparseable file is a StoreCorruptionError and is never overwritten.
func (s *Store) load() (storeDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return storeDocument{Disputes: []models.DisputeRecord{}}, nil
		}
		return storeDocument{}, errors.Wrap(err, "reading dispute store")
	}

	var doc storeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return storeDocument{}, &customErrors.StoreCorruptionError{Path: s.path, Err: err}
	}
	if doc.Disputes == nil {
		doc.Disputes = []models.DisputeRecord{}
	}
	return doc, nil
}

func (s *Store) save(doc storeDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding dispute store")
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0744); err != nil {
		return errors.Wrap(err, "creating dispute store directory")
	}

	tmp, err := os.CreateTemp(dir, ".dispute_tracker-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating dispute store temp file")
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "writing dispute store")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "closing dispute store temp file")
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "replacing dispute store")
	}
	return nil
}

// Append adds a record to the store. Letter IDs are assigned by the mail
// provider and must be unique within the store.
func (s *Store) Append(record models.DisputeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for _, existing := range doc.Disputes {
		if existing.LetterID == record.LetterID {
			return errors.Errorf("dispute with letter id %s already recorded", record.LetterID)
		}
	}
	doc.Disputes = append(doc.Disputes, record)
	return s.save(doc)
}

// All returns every record in insertion order.
func (s *Store) All() ([]models.DisputeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc.Disputes, nil
}

// Get returns the record for one letter ID.
func (s *Store) Get(letterID string) (models.DisputeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.DisputeRecord{}, err
	}
	for _, record := range doc.Disputes {
		if record.LetterID == letterID {
			return record, nil
		}
	}
	return models.DisputeRecord{}, &customErrors.NotFoundError{LetterID: letterID}
}

// Update applies fn to the record matching letterID and persists the result.
// When no record matches, the store file is left byte-for-byte unchanged and
// a NotFoundError is returned.
func (s *Store) Update(letterID string, fn func(*models.DisputeRecord)) (models.DisputeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return models.DisputeRecord{}, err
	}
	for i := range doc.Disputes {
		if doc.Disputes[i].LetterID == letterID {
			fn(&doc.Disputes[i])
			if err := s.save(doc); err != nil {
				return models.DisputeRecord{}, err
			}
			return doc.Disputes[i], nil
		}
	}
	return models.DisputeRecord{}, &customErrors.NotFoundError{LetterID: letterID}
}
