package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

const sessionFileName = "session.json"

var _ Store = (*FileStore)(nil)

// FileStore persists the session as a JSON file under the data folder,
// readable only by the owning user.
type FileStore struct {
	path string
	lock sync.Mutex
}

func NewFileStore(dataFolder string) (*FileStore, error) {
	if err := os.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, errors.Wrap(err, "[NewFileStore] ensure data folder")
	}
	return &FileStore{path: filepath.Join(dataFolder, sessionFileName)}, nil
}

func (fs *FileStore) Get() (Session, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	blob, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "[FileStore.Get] read session file")
	}

	var s Session
	if err := json.Unmarshal(blob, &s); err != nil {
		// A corrupt session file is treated as no session rather than
		// locking the user out of the login screen.
		return Session{}, nil
	}
	return s, nil
}

func (fs *FileStore) Set(s Session) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	blob, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.Wrap(err, "[FileStore.Set] marshal session")
	}
	if err := os.WriteFile(fs.path, blob, 0o600); err != nil {
		return errors.Wrap(err, "[FileStore.Set] write session file")
	}
	return nil
}

func (fs *FileStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "[FileStore.Clear] remove session file")
	}
	return nil
}
