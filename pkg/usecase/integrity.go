package usecase

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/porter/pkg/domain/model"
)

// Verdict represents the integrity state of a file on disk
type Verdict string

const (
	// VerdictAbsent means no file exists at the path
	VerdictAbsent Verdict = "absent"
	// VerdictUndersized means a file exists but its size or digest does
	// not meet the contract
	VerdictUndersized Verdict = "undersized"
	// VerdictValid means the file satisfies the contract
	VerdictValid Verdict = "valid"
)

// Integrity decides whether a file on disk satisfies an artifact's size
// contract. No other component judges file validity.
type Integrity struct{}

// NewIntegrity creates a new integrity validator
func NewIntegrity() *Integrity {
	return &Integrity{}
}

// Evaluate returns the verdict for the file at path together with its size
// in bytes. A missing file is VerdictAbsent with size zero. The optional
// SHA256 digest is only computed when the size already meets the contract.
func (x *Integrity) Evaluate(path string, contract model.SizeContract) (Verdict, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return VerdictAbsent, 0, nil
		}
		return VerdictAbsent, 0, goerr.Wrap(err, "failed to stat file", goerr.V("path", path))
	}
	if info.IsDir() {
		return VerdictAbsent, 0, goerr.New("path is a directory", goerr.V("path", path))
	}

	size := info.Size()
	if !contract.Satisfied(size) {
		return VerdictUndersized, size, nil
	}

	if contract.SHA256 != "" {
		ok, err := digestMatches(path, contract.SHA256)
		if err != nil {
			return VerdictAbsent, size, err
		}
		if !ok {
			return VerdictUndersized, size, nil
		}
	}

	return VerdictValid, size, nil
}

// Discard removes an invalid file so the next attempt starts clean. A
// missing file is not an error.
func (x *Integrity) Discard(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to discard file", goerr.V("path", path))
	}
	return nil
}

func digestMatches(path, want string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, goerr.Wrap(err, "failed to open file for digest", goerr.V("path", path))
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, goerr.Wrap(err, "failed to hash file", goerr.V("path", path))
	}

	return strings.EqualFold(hex.EncodeToString(h.Sum(nil)), want), nil
}
