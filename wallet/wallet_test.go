package wallet

import (
	"context"
	"encoding/hex"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scripted answers prompts from fixed values and counts questions.
type scripted struct {
	source   string
	input    string
	password string
	asked    int
}

func (s *scripted) Select(message string, options []string) (string, error) {
	s.asked++
	return s.source, nil
}

func (s *scripted) Input(message string) (string, error) {
	s.asked++
	return s.input, nil
}

func (s *scripted) Password(message string) (string, error) {
	s.asked++
	if s.password == "" {
		return "", errors.New("interrupt")
	}
	return s.password, nil
}

func newHexKey(t *testing.T) (string, common.Address) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return hex.EncodeToString(crypto.FromECDSA(key)), crypto.PubkeyToAddress(key.PublicKey)
}

func TestConnectWithPrivateKey(t *testing.T) {
	hexKey, address := newHexKey(t)

	w := New(Options{PrivateKey: "0x" + hexKey}, nil)
	assert.False(t, w.IsConnected())
	assert.Equal(t, common.Address{}, w.Address())

	require.NoError(t, w.Connect(context.Background()))
	assert.True(t, w.IsConnected())
	assert.Equal(t, address, w.Address())

	w.Disconnect()
	assert.False(t, w.IsConnected())
}

func TestConnectWithoutSource(t *testing.T) {
	w := New(Options{}, nil)
	err := w.EnsureConnected(context.Background())
	assert.ErrorIs(t, err, ErrNoKeySource)
}

func TestEnsureConnectedPrompts(t *testing.T) {
	hexKey, address := newHexKey(t)
	prompter := &scripted{source: SourcePrivateKey, password: hexKey}

	w := New(Options{}, prompter)
	require.NoError(t, w.EnsureConnected(context.Background()))
	assert.Equal(t, address, w.Address())
	assert.Equal(t, 2, prompter.asked)

	// already connected, no more questions
	require.NoError(t, w.EnsureConnected(context.Background()))
	assert.Equal(t, 2, prompter.asked)
}

func TestInvalidPrivateKey(t *testing.T) {
	w := New(Options{PrivateKey: "zz"}, nil)
	assert.Error(t, w.Connect(context.Background()))
	assert.False(t, w.IsConnected())
}

func TestKeystoreRoundTrip(t *testing.T) {
	hexKey, address := newHexKey(t)
	path := filepath.Join(t.TempDir(), "keys", "account.json")

	source := New(Options{PrivateKey: hexKey}, nil)
	require.NoError(t, source.Connect(context.Background()))
	require.NoError(t, source.SaveKeystore(path, "secret", keystore.LightScryptN, keystore.LightScryptP))

	t.Run("configured password", func(t *testing.T) {
		w := New(Options{KeystoreFile: path, Password: "secret"}, nil)
		require.NoError(t, w.Connect(context.Background()))
		assert.Equal(t, address, w.Address())
	})

	t.Run("prompted password", func(t *testing.T) {
		prompter := &scripted{password: "secret"}
		w := New(Options{KeystoreFile: path}, prompter)
		require.NoError(t, w.Connect(context.Background()))
		assert.Equal(t, address, w.Address())
		assert.Equal(t, 1, prompter.asked)
	})

	t.Run("prompted keystore", func(t *testing.T) {
		prompter := &scripted{source: SourceKeystore, input: path, password: "secret"}
		w := New(Options{}, prompter)
		require.NoError(t, w.Connect(context.Background()))
		assert.Equal(t, address, w.Address())
	})

	t.Run("wrong password", func(t *testing.T) {
		w := New(Options{KeystoreFile: path, Password: "wrong"}, nil)
		assert.Error(t, w.Connect(context.Background()))
	})

	t.Run("missing password without prompter", func(t *testing.T) {
		w := New(Options{KeystoreFile: path}, nil)
		assert.Error(t, w.Connect(context.Background()))
	})
}

func TestSignTx(t *testing.T) {
	hexKey, address := newHexKey(t)
	chainID := big.NewInt(10143)

	tx := types.NewTx(&types.LegacyTx{Nonce: 1, GasPrice: big.NewInt(1), Gas: 21000, Value: big.NewInt(1)})

	w := New(Options{PrivateKey: hexKey}, nil)
	_, err := w.SignTx(tx, chainID)
	assert.ErrorIs(t, err, ErrNotConnected)

	require.NoError(t, w.Connect(context.Background()))
	signed, err := w.SignTx(tx, chainID)
	require.NoError(t, err)

	sender, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, address, sender)
}

func TestConnectCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	hexKey, _ := newHexKey(t)
	w := New(Options{PrivateKey: hexKey}, nil)
	assert.ErrorIs(t, w.Connect(ctx), context.Canceled)
}
