package profile

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
)

// failures holds injected errors per operation name.
type failures struct {
	mu   sync.RWMutex
	errs map[string]error
}

func (f *failures) set(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

func (f *failures) get(op string) error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.errs[op]
}

// MemoryAccounts implements Accounts in memory. Operations: "get",
// "update_name", "end_session".
type MemoryAccounts struct {
	failures
	mu       sync.RWMutex
	accounts map[string]Account
	ended    map[string]int
}

// NewMemoryAccounts creates an empty account store.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{
		accounts: make(map[string]Account),
		ended:    make(map[string]int),
	}
}

// Put stores acc, replacing any account with the same id.
func (m *MemoryAccounts) Put(acc Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[acc.ID] = acc
}

// Has reports whether an account exists.
func (m *MemoryAccounts) Has(userID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.accounts[userID]
	return ok
}

// Fail makes op return err until cleared with a nil err.
func (m *MemoryAccounts) Fail(op string, err error) {
	m.set(op, err)
}

// SessionsEnded returns how many times EndSession succeeded for userID.
func (m *MemoryAccounts) SessionsEnded(userID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ended[userID]
}

func (m *MemoryAccounts) Get(ctx context.Context, userID string) (*Account, error) {
	if err := m.get("get"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	acc, ok := m.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("account %s: %w", userID, ErrNotFound)
	}
	return &acc, nil
}

func (m *MemoryAccounts) UpdateName(ctx context.Context, userID, name string) error {
	if err := m.get("update_name"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[userID]
	if !ok {
		return fmt.Errorf("account %s: %w", userID, ErrNotFound)
	}
	acc.Name = name
	m.accounts[userID] = acc
	return nil
}

func (m *MemoryAccounts) EndSession(ctx context.Context, userID string) error {
	if err := m.get("end_session"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ended[userID]++
	return nil
}

// MemoryDocuments implements Documents in memory. Operations: "get", "update".
type MemoryDocuments struct {
	failures
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryDocuments creates an empty document store.
func NewMemoryDocuments() *MemoryDocuments {
	return &MemoryDocuments{docs: make(map[string]Document)}
}

// Put stores doc for userID.
func (m *MemoryDocuments) Put(userID string, doc Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[userID] = doc
}

// Fail makes op return err until cleared with a nil err.
func (m *MemoryDocuments) Fail(op string, err error) {
	m.set(op, err)
}

func (m *MemoryDocuments) Get(ctx context.Context, userID string) (*Document, error) {
	if err := m.get("get"); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[userID]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", userID, ErrNotFound)
	}
	return &doc, nil
}

func (m *MemoryDocuments) Update(ctx context.Context, userID string, update DocumentUpdate) error {
	if err := m.get("update"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[userID]
	if !ok {
		return fmt.Errorf("document %s: %w", userID, ErrNotFound)
	}
	if update.Empty() {
		return nil
	}
	apply := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	apply(&doc.Name, update.Name)
	apply(&doc.Phone, update.Phone)
	apply(&doc.Address1, update.Address1)
	apply(&doc.Address2, update.Address2)
	apply(&doc.AvatarFileID, update.AvatarFileID)
	doc.UpdatedAt = timeNow().UTC()
	m.docs[userID] = doc
	return nil
}

// MemoryFile is a stored avatar object.
type MemoryFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// MemoryFiles implements Files in memory. Operations: "create", "delete".
// URLs are data: URLs of the stored content.
type MemoryFiles struct {
	failures
	mu    sync.RWMutex
	files map[string]MemoryFile
}

// NewMemoryFiles creates an empty bucket.
func NewMemoryFiles() *MemoryFiles {
	return &MemoryFiles{files: make(map[string]MemoryFile)}
}

// Fail makes op return err until cleared with a nil err.
func (m *MemoryFiles) Fail(op string, err error) {
	m.set(op, err)
}

// Lookup returns the stored file.
func (m *MemoryFiles) Lookup(fileID string) (MemoryFile, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[fileID]
	return f, ok
}

// Len returns the number of stored files.
func (m *MemoryFiles) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

func (m *MemoryFiles) Create(ctx context.Context, fileID, name, contentType string, data []byte) error {
	if err := m.get("create"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[fileID] = MemoryFile{Name: name, ContentType: contentType, Data: append([]byte(nil), data...)}
	return nil
}

func (m *MemoryFiles) Delete(ctx context.Context, fileID string) error {
	if err := m.get("delete"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[fileID]; !ok {
		return fmt.Errorf("file %s: %w", fileID, ErrNotFound)
	}
	delete(m.files, fileID)
	return nil
}

func (m *MemoryFiles) URL(fileID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[fileID]
	if !ok {
		return "memory://avatars/" + fileID
	}
	return "data:" + f.ContentType + ";base64," + base64.StdEncoding.EncodeToString(f.Data)
}

var (
	_ Accounts  = (*MemoryAccounts)(nil)
	_ Documents = (*MemoryDocuments)(nil)
	_ Files     = (*MemoryFiles)(nil)
)
