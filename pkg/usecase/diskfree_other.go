//go:build !unix

package usecase

// diskFree is not implemented on this platform. The negative value tells
// the caller to skip the disk space check.
func diskFree(string) (int64, error) {
	return -1, nil
}
