// Package wallet derives Stellar accounts from a BIP-39 mnemonic phrase and
// manages the non-sensitive account list. Key derivation follows SEP-0005:
// SLIP-0010 ed25519 along m/44'/148'/index'.
package wallet

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/freighterhq/freighter/internal/util"
	"github.com/tyler-smith/go-bip39"
)

// ErrInvalidMnemonic indicates a phrase that fails BIP-39 word-list or
// checksum validation.
var ErrInvalidMnemonic = errors.New("wallet: invalid mnemonic phrase")

const hardenedOffset = 0x80000000

var slip10Key = []byte("ed25519 seed")

// Keypair is a derived Stellar keypair in strkey form: a G... public key
// and an S... secret seed. The secret seed is credential material.
type Keypair struct {
	PublicKey  string
	SecretSeed string
}

// NewMnemonic generates a fresh 24-word recovery phrase.
func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", fmt.Errorf("wallet: generating entropy: %w", err)
	}
	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", fmt.Errorf("wallet: generating mnemonic: %w", err)
	}
	return mnemonic, nil
}

// ValidateMnemonic checks the phrase against the BIP-39 word list and
// checksum without deriving anything.
func ValidateMnemonic(mnemonic string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return ErrInvalidMnemonic
	}
	return nil
}

// DeriveKeypair derives the account at m/44'/148'/index' from the phrase.
func DeriveKeypair(mnemonic string, index uint32) (*Keypair, error) {
	if err := ValidateMnemonic(mnemonic); err != nil {
		return nil, err
	}

	seed := bip39.NewSeed(mnemonic, "")
	defer util.WipeBytes(seed)

	key, chain := slip10Master(seed)
	defer util.WipeBytes(key)
	defer util.WipeBytes(chain)

	for _, i := range []uint32{44, 148, index} {
		key, chain = slip10Child(key, chain, i+hardenedOffset)
	}

	return keypairFromRawSeed(key), nil
}

// KeypairFromSecret reconstructs a keypair from an S... secret seed.
func KeypairFromSecret(secretSeed string) (*Keypair, error) {
	raw, err := decodeStrkey(versionSecretKey, secretSeed)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(raw)
	return keypairFromRawSeed(raw), nil
}

// Sign signs payload with the given S... secret seed.
func Sign(secretSeed string, payload []byte) ([]byte, error) {
	raw, err := decodeStrkey(versionSecretKey, secretSeed)
	if err != nil {
		return nil, err
	}
	defer util.WipeBytes(raw)

	priv := ed25519.NewKeyFromSeed(raw)
	defer util.WipeBytes(priv)
	return ed25519.Sign(priv, payload), nil
}

// Verify reports whether sig is a valid signature of payload by the
// account with the given G... public key.
func Verify(publicKey string, payload, sig []byte) (bool, error) {
	raw, err := decodeStrkey(versionPublicKey, publicKey)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(ed25519.PublicKey(raw), payload, sig), nil
}

func keypairFromRawSeed(raw []byte) *Keypair {
	priv := ed25519.NewKeyFromSeed(raw)
	defer util.WipeBytes(priv)
	pub := priv.Public().(ed25519.PublicKey)
	return &Keypair{
		PublicKey:  encodeStrkey(versionPublicKey, pub),
		SecretSeed: encodeStrkey(versionSecretKey, raw),
	}
}

func slip10Master(seed []byte) (key, chain []byte) {
	mac := hmac.New(sha512.New, slip10Key)
	mac.Write(seed)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

func slip10Child(key, chain []byte, index uint32) (childKey, childChain []byte) {
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, key...)
	data = binary.BigEndian.AppendUint32(data, index)

	mac := hmac.New(sha512.New, chain)
	mac.Write(data)
	sum := mac.Sum(nil)
	util.WipeBytes(data)
	return sum[:32], sum[32:]
}
