package usecase_test

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/porter/pkg/domain/model"
	"github.com/m-mizutani/porter/pkg/usecase"
)

func TestIntegrity_Evaluate(t *testing.T) {
	validator := usecase.NewIntegrity()

	t.Run("missing file is absent", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nothing.safetensors")
		verdict, size, err := validator.Evaluate(path, model.SizeContract{MinBytes: 10})
		gt.NoError(t, err)
		gt.Value(t, verdict).Equal(usecase.VerdictAbsent)
		gt.Number(t, size).Equal(0)
	})

	t.Run("file below the minimum is undersized", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "short.safetensors")
		gt.NoError(t, os.WriteFile(path, []byte("tiny"), 0o644))

		verdict, size, err := validator.Evaluate(path, model.SizeContract{MinBytes: 10})
		gt.NoError(t, err)
		gt.Value(t, verdict).Equal(usecase.VerdictUndersized)
		gt.Number(t, size).Equal(4)
	})

	t.Run("file at the minimum is valid", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exact.safetensors")
		gt.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

		verdict, size, err := validator.Evaluate(path, model.SizeContract{MinBytes: 10})
		gt.NoError(t, err)
		gt.Value(t, verdict).Equal(usecase.VerdictValid)
		gt.Number(t, size).Equal(10)
	})

	t.Run("oversized file still satisfies a minimum contract", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "large.safetensors")
		gt.NoError(t, os.WriteFile(path, []byte("0123456789abcdef"), 0o644))

		verdict, _, err := validator.Evaluate(path, model.SizeContract{MinBytes: 10})
		gt.NoError(t, err)
		gt.Value(t, verdict).Equal(usecase.VerdictValid)
	})

	t.Run("exact contract accepts within tolerance", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "near.safetensors")
		gt.NoError(t, os.WriteFile(path, []byte("0123456789ab"), 0o644))

		contract := model.SizeContract{ExactBytes: 10, ToleranceBytes: 2}
		verdict, _, err := validator.Evaluate(path, contract)
		gt.NoError(t, err)
		gt.Value(t, verdict).Equal(usecase.VerdictValid)
	})

	t.Run("exact contract rejects outside tolerance", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "far.safetensors")
		gt.NoError(t, os.WriteFile(path, []byte("0123456789abcdef"), 0o644))

		contract := model.SizeContract{ExactBytes: 10, ToleranceBytes: 2}
		verdict, _, err := validator.Evaluate(path, contract)
		gt.NoError(t, err)
		gt.Value(t, verdict).Equal(usecase.VerdictUndersized)
	})

	t.Run("digest mismatch rejects a size-valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tampered.safetensors")
		gt.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

		sum := sha256.Sum256([]byte("different-content"))
		contract := model.SizeContract{MinBytes: 10, SHA256: hex.EncodeToString(sum[:])}
		verdict, _, err := validator.Evaluate(path, contract)
		gt.NoError(t, err)
		gt.Value(t, verdict).Equal(usecase.VerdictUndersized)
	})

	t.Run("digest match passes", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "signed.safetensors")
		content := []byte("0123456789")
		gt.NoError(t, os.WriteFile(path, content, 0o644))

		sum := sha256.Sum256(content)
		contract := model.SizeContract{MinBytes: 10, SHA256: hex.EncodeToString(sum[:])}
		verdict, _, err := validator.Evaluate(path, contract)
		gt.NoError(t, err)
		gt.Value(t, verdict).Equal(usecase.VerdictValid)
	})

	t.Run("directory at the path is an error", func(t *testing.T) {
		dir := t.TempDir()
		_, _, err := validator.Evaluate(dir, model.SizeContract{MinBytes: 10})
		gt.Error(t, err)
	})
}

func TestIntegrity_Discard(t *testing.T) {
	validator := usecase.NewIntegrity()

	t.Run("removes the file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "doomed.safetensors")
		gt.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

		gt.NoError(t, validator.Discard(path))
		_, err := os.Stat(path)
		gt.Value(t, os.IsNotExist(err)).Equal(true)
	})

	t.Run("tolerates a file that is already gone", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ghost.safetensors")
		gt.NoError(t, validator.Discard(path))
	})
}
