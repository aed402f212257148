package sessionfakes

import (
	"sync"

	"github.com/gravisales/crm/session"
)

var _ session.Store = (*FakeStore)(nil)

// FakeStore is an in-memory session store for tests. It counts writes so
// tests can assert that failure paths leave the store untouched.
type FakeStore struct {
	lock       sync.Mutex
	current    session.Session
	SetCalls   int
	ClearCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{}
}

func (fs *FakeStore) Get() (session.Session, error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	return fs.current, nil
}

func (fs *FakeStore) Set(s session.Session) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.current = s
	fs.SetCalls++
	return nil
}

func (fs *FakeStore) Clear() error {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.current = session.Session{}
	fs.ClearCalls++
	return nil
}
