package tracker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	customErrors "github.com/creditarchitect/dispatch-app/dispatch/errors"
	"github.com/creditarchitect/dispatch-app/dispatch/models"
)

type StoreTestSuite struct {
	suite.Suite
	path  string
	store *Store
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) SetupTest() {
	s.path = filepath.Join(s.T().TempDir(), "dispute_tracker.json")
	s.store = NewStore(s.path)
}

func (s *StoreTestSuite) TestMissingFileIsEmptyStore() {
	records, err := s.store.All()
	assert.Nil(s.T(), err)
	assert.Empty(s.T(), records)

	// Reading must not create the file.
	_, err = os.Stat(s.path)
	assert.True(s.T(), os.IsNotExist(err))
}

func (s *StoreTestSuite) TestAppendAndReload() {
	err := s.store.Append(models.DisputeRecord{LetterID: "ltr_1", Status: models.StatusSent})
	assert.Nil(s.T(), err)
	err = s.store.Append(models.DisputeRecord{LetterID: "ltr_2", Status: models.StatusSent})
	assert.Nil(s.T(), err)

	// A fresh store over the same file sees both records in insertion order.
	records, err := NewStore(s.path).All()
	assert.Nil(s.T(), err)
	assert.Len(s.T(), records, 2)
	assert.Equal(s.T(), "ltr_1", records[0].LetterID)
	assert.Equal(s.T(), "ltr_2", records[1].LetterID)
}

func (s *StoreTestSuite) TestAppendDuplicateLetterID() {
	assert.Nil(s.T(), s.store.Append(models.DisputeRecord{LetterID: "ltr_1"}))
	err := s.store.Append(models.DisputeRecord{LetterID: "ltr_1"})
	assert.NotNil(s.T(), err)
	assert.Contains(s.T(), err.Error(), "already recorded")

	records, err := s.store.All()
	assert.Nil(s.T(), err)
	assert.Len(s.T(), records, 1)
}

func (s *StoreTestSuite) TestCorruptFileFailsLoud() {
	assert.Nil(s.T(), os.WriteFile(s.path, []byte("{not json"), 0644))

	_, err := s.store.All()
	assert.NotNil(s.T(), err)

	corruptErr, ok := err.(*customErrors.StoreCorruptionError)
	assert.True(s.T(), ok)
	assert.Equal(s.T(), s.path, corruptErr.Path)
	assert.NotNil(s.T(), corruptErr.Unwrap())

	// A corrupt store is never overwritten.
	data, readErr := os.ReadFile(s.path)
	assert.Nil(s.T(), readErr)
	assert.Equal(s.T(), "{not json", string(data))

	err = s.store.Append(models.DisputeRecord{LetterID: "ltr_1"})
	assert.NotNil(s.T(), err)
	data, readErr = os.ReadFile(s.path)
	assert.Nil(s.T(), readErr)
	assert.Equal(s.T(), "{not json", string(data))
}

func (s *StoreTestSuite) TestUpdateNotFoundLeavesFileUnchanged() {
	assert.Nil(s.T(), s.store.Append(models.DisputeRecord{LetterID: "ltr_1", Status: models.StatusSent}))
	before, err := os.ReadFile(s.path)
	assert.Nil(s.T(), err)

	_, err = s.store.Update("ltr_missing", func(r *models.DisputeRecord) {
		r.Status = models.StatusResolved
	})
	assert.NotNil(s.T(), err)
	_, ok := err.(*customErrors.NotFoundError)
	assert.True(s.T(), ok)

	after, err := os.ReadFile(s.path)
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), before, after)
}

func (s *StoreTestSuite) TestUpdatePersists() {
	assert.Nil(s.T(), s.store.Append(models.DisputeRecord{LetterID: "ltr_1", Status: models.StatusSent}))

	updated, err := s.store.Update("ltr_1", func(r *models.DisputeRecord) {
		r.Status = models.StatusResolved
	})
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), models.StatusResolved, updated.Status)

	record, err := NewStore(s.path).Get("ltr_1")
	assert.Nil(s.T(), err)
	assert.Equal(s.T(), models.StatusResolved, record.Status)
}

func (s *StoreTestSuite) TestGetNotFound() {
	_, err := s.store.Get("ltr_ghost")
	assert.NotNil(s.T(), err)

	notFound, ok := err.(*customErrors.NotFoundError)
	assert.True(s.T(), ok)
	assert.Equal(s.T(), "ltr_ghost", notFound.LetterID)
}

func (s *StoreTestSuite) TestSaveCreatesParentDirectory() {
	nested := filepath.Join(s.T().TempDir(), "var", "data", "tracker.json")
	store := NewStore(nested)
	assert.Nil(s.T(), store.Append(models.DisputeRecord{LetterID: "ltr_1"}))

	records, err := store.All()
	assert.Nil(s.T(), err)
	assert.Len(s.T(), records, 1)
}
