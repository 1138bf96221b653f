package wallet

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
)

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrNoKeySource  = errors.New("no private key or keystore configured")
)

const (
	SourcePrivateKey = "private key"
	SourceKeystore   = "keystore file"
)

// Options lists places a key may come from. Empty fields are asked for
// through Prompter when one is set.
type Options struct {
	PrivateKey   string // hex, with or without 0x prefix
	KeystoreFile string
	Password     string
}

// Wallet holds at most one unlocked key.
type Wallet struct {
	options  Options
	prompter Prompter

	mu  sync.RWMutex
	key *ecdsa.PrivateKey
}

func New(options Options, prompter Prompter) *Wallet {
	return &Wallet{options: options, prompter: prompter}
}

// Connect unlocks a key. It is a no-op for connected wallet.
func (w *Wallet) Connect(ctx context.Context) error {
	if w.IsConnected() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := w.loadKey()
	if err != nil {
		return err
	}

	w.mu.Lock()
	w.key = key
	w.mu.Unlock()

	log.Infof("wallet connected: %s", crypto.PubkeyToAddress(key.PublicKey).Hex())

	return nil
}

// EnsureConnected connects wallet if it is not connected yet.
func (w *Wallet) EnsureConnected(ctx context.Context) error {
	if w.IsConnected() {
		return nil
	}

	log.Info("wallet not connected, connecting")

	return w.Connect(ctx)
}

func (w *Wallet) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.key = nil
}

func (w *Wallet) IsConnected() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.key != nil
}

// Address returns connected account, zero address when disconnected.
func (w *Wallet) Address() common.Address {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.key == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(w.key.PublicKey)
}

func (w *Wallet) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	w.mu.RLock()
	key := w.key
	w.mu.RUnlock()

	if key == nil {
		return nil, ErrNotConnected
	}

	return types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
}

// SaveKeystore encrypts connected key into a keystore file at path.
func (w *Wallet) SaveKeystore(path, password string, scryptN, scryptP int) error {
	w.mu.RLock()
	key := w.key
	w.mu.RUnlock()

	if key == nil {
		return ErrNotConnected
	}

	data, err := keystore.EncryptKey(&keystore.Key{
		Id:         uuid.New(),
		Address:    crypto.PubkeyToAddress(key.PublicKey),
		PrivateKey: key,
	}, password, scryptN, scryptP)
	if err != nil {
		return errors.Wrap(err, "encrypting key")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrapf(err, "creating keystore directory for %s", path)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrapf(err, "writing keystore %s", path)
	}

	return nil
}

func (w *Wallet) loadKey() (*ecdsa.PrivateKey, error) {
	switch {
	case w.options.PrivateKey != "":
		return ParsePrivateKey(w.options.PrivateKey)
	case w.options.KeystoreFile != "":
		return w.unlockKeystore(w.options.KeystoreFile, w.options.Password)
	case w.prompter == nil:
		return nil, ErrNoKeySource
	}

	source, err := w.prompter.Select("Connect wallet with", []string{SourcePrivateKey, SourceKeystore})
	if err != nil {
		return nil, errors.Wrap(err, "choosing key source")
	}

	switch source {
	case SourcePrivateKey:
		hexKey, err := w.prompter.Password("Private key (hex)")
		if err != nil {
			return nil, errors.Wrap(err, "reading private key")
		}
		return ParsePrivateKey(hexKey)
	case SourceKeystore:
		path, err := w.prompter.Input("Keystore file")
		if err != nil {
			return nil, errors.Wrap(err, "reading keystore path")
		}
		return w.unlockKeystore(path, "")
	default:
		return nil, errors.Newf("unknown key source %q", source)
	}
}

func (w *Wallet) unlockKeystore(path, password string) (*ecdsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading keystore %s", path)
	}

	if password == "" {
		if w.prompter == nil {
			return nil, errors.Newf("keystore %s needs a password", path)
		}

		password, err = w.prompter.Password("Keystore password")
		if err != nil {
			return nil, errors.Wrap(err, "reading keystore password")
		}
	}

	key, err := keystore.DecryptKey(data, password)
	if err != nil {
		return nil, errors.Wrapf(err, "unlocking keystore %s", path)
	}

	return key.PrivateKey, nil
}

// ParsePrivateKey decodes a hex encoded secp256k1 private key.
func ParsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")

	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}

	return key, nil
}
