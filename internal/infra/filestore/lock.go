package filestore

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

const lockRetryDelay = 10 * time.Millisecond

var (
	pathLocksMu sync.Mutex
	pathLocks   = map[string]chan struct{}{}
)

// processLock returns the in-process semaphore guarding path.
func processLock(path string) chan struct{} {
	pathLocksMu.Lock()
	defer pathLocksMu.Unlock()
	sem, ok := pathLocks[path]
	if !ok {
		sem = make(chan struct{}, 1)
		pathLocks[path] = sem
	}
	return sem
}

// lockDocument takes an exclusive lock on the document at path, scoped to
// both this process and other processes sharing the directory. The returned
// func releases it and must always be called.
func lockDocument(ctx context.Context, path string) (func(), error) {
	sem := processLock(path)
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("lock %s: %w", path, ctx.Err())
	}
	release := func() { <-sem }

	f, err := os.OpenFile(path+".lock", os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		release()
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	for {
		ok, err := tryLockFile(f)
		if err != nil {
			_ = f.Close()
			release()
			return nil, fmt.Errorf("lock %s: %w", path, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			_ = f.Close()
			release()
			return nil, fmt.Errorf("lock %s: %w", path, ctx.Err())
		case <-time.After(lockRetryDelay):
		}
	}

	return func() {
		_ = unlockFile(f)
		_ = f.Close()
		release()
	}, nil
}
