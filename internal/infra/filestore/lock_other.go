//go:build !unix

package filestore

import "os"

// Without flock only the in-process mutex applies.
func tryLockFile(*os.File) (bool, error) { return true, nil }

func unlockFile(*os.File) error { return nil }
