package page

import (
	"fmt"
	"os"
	"sync"

	"storelite/pkg/primitives"
)

// BaseFile handles the raw, page-oriented I/O shared by every DbFile
// implementation: opening the backing OS file, computing the table ID
// from its path, and reading/writing fixed PageSize chunks under a lock.
// Storage engines (e.g. heap files) embed BaseFile and add their own page
// layout on top.
type BaseFile struct {
	file     *os.File
	tableID  primitives.TableID
	filePath primitives.Filepath
	mu       sync.RWMutex
}

// NewBaseFile opens (creating if necessary) the file at filePath.
func NewBaseFile(filePath primitives.Filepath) (*BaseFile, error) {
	if filePath == "" {
		return nil, fmt.Errorf("filePath cannot be empty")
	}

	f, err := os.OpenFile(string(filePath), os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return &BaseFile{
		file:     f,
		tableID:  filePath.Hash(),
		filePath: filePath,
	}, nil
}

// GetID returns the table ID derived from this file's path.
func (bf *BaseFile) GetID() primitives.TableID {
	return bf.tableID
}

// FilePath returns the path this file was opened from.
func (bf *BaseFile) FilePath() primitives.Filepath {
	return bf.filePath
}

// NumPages returns how many pages the file currently holds, counting a
// trailing partial page as a page.
func (bf *BaseFile) NumPages() (primitives.PageNumber, error) {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	info, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	n := primitives.PageNumber(info.Size() / int64(PageSize))
	if info.Size()%int64(PageSize) != 0 {
		n++
	}
	return n, nil
}

// ReadPageData reads exactly PageSize bytes at the offset for pageNo.
func (bf *BaseFile) ReadPageData(pageNo primitives.PageNumber) ([]byte, error) {
	bf.mu.RLock()
	defer bf.mu.RUnlock()

	if bf.file == nil {
		return nil, fmt.Errorf("file is closed")
	}

	data := make([]byte, PageSize)
	offset := int64(pageNo) * int64(PageSize)
	if _, err := bf.file.ReadAt(data, offset); err != nil {
		return nil, fmt.Errorf("failed to read page %d: %w", pageNo, err)
	}
	return data, nil
}

// WritePageData writes exactly PageSize bytes at the offset for pageNo
// and syncs the file, per the buffer pool's FORCE policy.
func (bf *BaseFile) WritePageData(pageNo primitives.PageNumber, data []byte) error {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	if bf.file == nil {
		return fmt.Errorf("file is closed")
	}
	if len(data) != PageSize {
		return fmt.Errorf("invalid page data size: expected %d, got %d", PageSize, len(data))
	}

	offset := int64(pageNo) * int64(PageSize)
	if _, err := bf.file.WriteAt(data, offset); err != nil {
		return fmt.Errorf("failed to write page %d: %w", pageNo, err)
	}
	return bf.file.Sync()
}

// AllocateNewPage atomically extends the file by one zero-filled page and
// returns its page number. The zero-filled bytes read back as an empty
// heap page until the page is next written with WritePageData.
func (bf *BaseFile) AllocateNewPage() (primitives.PageNumber, error) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	if bf.file == nil {
		return 0, fmt.Errorf("file is closed")
	}

	info, err := bf.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat file: %w", err)
	}

	numPages := primitives.PageNumber(info.Size() / int64(PageSize))
	if info.Size()%int64(PageSize) != 0 {
		numPages++
	}

	zero := make([]byte, PageSize)
	offset := int64(numPages) * int64(PageSize)
	if _, err := bf.file.WriteAt(zero, offset); err != nil {
		return 0, fmt.Errorf("failed to reserve page space: %w", err)
	}
	if err := bf.file.Sync(); err != nil {
		return 0, fmt.Errorf("failed to sync after page allocation: %w", err)
	}

	return numPages, nil
}

// Close releases the underlying OS file handle. Idempotent.
func (bf *BaseFile) Close() error {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	if bf.file == nil {
		return nil
	}
	err := bf.file.Close()
	bf.file = nil
	return err
}
