package storage

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/benmeehan/location-recorder/internal/constants"
	"github.com/benmeehan/location-recorder/internal/models"
	"github.com/benmeehan/location-recorder/pkg/file"
	"github.com/rs/zerolog"
)

// FileStore keeps every record in one JSON array, oldest first.
//
// Append is a read-modify-write of the whole file and is not serialized:
// two concurrent appends can read the same sequence and one addition is lost.
type FileStore struct {
	dataDir    string
	path       string
	fileClient file.FileOperations
	logger     zerolog.Logger
}

// NewFileStore creates a FileStore writing locations.json under dataDir.
func NewFileStore(dataDir string, fileClient file.FileOperations, logger zerolog.Logger) *FileStore {
	if dataDir == "" {
		dataDir = constants.DefaultDataDir
	}
	return &FileStore{
		dataDir:    dataDir,
		path:       filepath.Join(dataDir, constants.LocationsFileName),
		fileClient: fileClient,
		logger:     logger,
	}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// EnsureContainer creates the data directory if it does not exist yet.
func (s *FileStore) EnsureContainer() error {
	return s.fileClient.EnsureDir(s.dataDir)
}

// ReadAll returns every stored record in insertion order. A missing file is an
// empty store; an unreadable or corrupt file is logged and also reads as empty.
// Elements that are not valid records are skipped with a warning.
func (s *FileStore) ReadAll() []models.LocationData {
	entries := s.readEntries()

	records := make([]models.LocationData, 0, len(entries))
	for i, entry := range entries {
		record, err := models.Validate(entry)
		if err != nil {
			s.logger.Warn().Err(err).Str("path", s.path).Int("index", i).Msg("Skipping malformed stored location")
			continue
		}
		records = append(records, record)
	}
	return records
}

// readEntries returns the stored array elements undecoded.
func (s *FileStore) readEntries() []json.RawMessage {
	exists, err := s.fileClient.IsFileExists(s.path)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Failed to stat locations file")
		return nil
	}
	if !exists {
		return nil
	}

	var entries []json.RawMessage
	if err := s.fileClient.ReadJsonFile(s.path, &entries); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Error reading locations from file")
		return nil
	}
	return entries
}

// Append adds the record to the end of the stored sequence and rewrites the file.
// Stored elements are written back verbatim, including ones ReadAll skips.
func (s *FileStore) Append(record models.LocationData) error {
	encoded, err := json.Marshal(record)
	if err != nil {
		return &WriteError{Kind: KindFile, Op: "encode location", Err: err}
	}
	entries := append(s.readEntries(), json.RawMessage(encoded))

	if err := s.EnsureContainer(); err != nil {
		return &WriteError{Kind: KindFile, Op: "create data directory", Err: err}
	}

	if err := s.fileClient.WriteJsonFile(s.path, entries); err != nil {
		return &WriteError{Kind: KindFile, Op: "write locations file", Err: err}
	}

	s.logger.Debug().Str("path", s.path).Int("records", len(entries)).Msg("Location appended to file")
	return nil
}

// Kind implements Store.
func (s *FileStore) Kind() Kind {
	return KindFile
}

// Save implements Store.
func (s *FileStore) Save(_ context.Context, record models.LocationData) error {
	return s.Append(record)
}

// List implements Store.
func (s *FileStore) List(_ context.Context) []models.LocationData {
	return s.ReadAll()
}
