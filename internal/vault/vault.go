package vault

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/delorenj/vaultsync/internal/utils"
	"github.com/gofrs/flock"
)

const LockFileName = ".vaultsync.lock"

var (
	ErrVaultLocked   = errors.New("vault locked by another vaultsync process")
	ErrVaultNotFound = errors.New("vault directory not found")
)

// Vault is the local directory being mirrored
type Vault struct {
	Root string

	flock *flock.Flock
}

func New(rootDir string) (*Vault, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", rootDir, err)
	}

	if !utils.DirExists(root) {
		return nil, fmt.Errorf("%w: %s", ErrVaultNotFound, root)
	}

	return &Vault{
		Root:  root,
		flock: flock.New(filepath.Join(root, LockFileName)),
	}, nil
}

// Lock keeps other vaultsync processes from reconciling the same vault
func (v *Vault) Lock() error {
	locked, err := v.flock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to lock vault: %w", err)
	}
	if !locked {
		return ErrVaultLocked
	}
	return nil
}

func (v *Vault) Unlock() error {
	// only the holder removes the lock file
	if !v.flock.Locked() {
		return nil
	}

	if err := v.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to unlock vault: %w", err)
	}

	return os.Remove(v.flock.Path())
}

func (v *Vault) LockPath() string {
	return v.flock.Path()
}

// Rel returns the slash separated key of an absolute path inside the vault
func (v *Vault) Rel(absPath string) (string, error) {
	return utils.ToKey(v.Root, absPath)
}
