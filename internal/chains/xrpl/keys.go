// internal/chains/xrpl/keys.go
package xrpl

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"

	"xrpl-wallet-bot/internal/domain"
)

const (
	xrplAlphabet    = "rpshnaf39wBUDNEGHJKLM4PQRST7VWXYZ2bcdeCg65jkm8oFqi1tuvAxyz"
	bitcoinAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

	entropySize = 16
)

var (
	accountPrefix  = []byte{0x00}
	secpSeedPrefix = []byte{0x21}
	edSeedPrefix   = []byte{0x01, 0xE1, 0x4B}

	toXRPL    = strings.NewReplacer(pairs(bitcoinAlphabet, xrplAlphabet)...)
	toBitcoin = strings.NewReplacer(pairs(xrplAlphabet, bitcoinAlphabet)...)
)

func pairs(from, to string) []string {
	out := make([]string, 0, 2*len(from))
	for i := 0; i < len(from); i++ {
		out = append(out, from[i:i+1], to[i:i+1])
	}
	return out
}

type KeyType string

const (
	KeyTypeSecp256k1 KeyType = "secp256k1"
	KeyTypeEd25519   KeyType = "ed25519"
)

// ============================================================================
// Base58Check (ledger alphabet)
// ============================================================================

func encodeCheck(prefix, payload []byte) string {
	buf := make([]byte, 0, len(prefix)+len(payload)+4)
	buf = append(buf, prefix...)
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf)...)
	return toXRPL.Replace(base58.Encode(buf))
}

func decodeCheck(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty input")
	}
	for _, r := range s {
		if !strings.ContainsRune(xrplAlphabet, r) {
			return nil, fmt.Errorf("invalid base58 character %q", r)
		}
	}

	raw := base58.Decode(toBitcoin.Replace(s))
	if len(raw) < 5 {
		return nil, fmt.Errorf("decoded value too short")
	}

	body, sum := raw[:len(raw)-4], raw[len(raw)-4:]
	if !bytes.Equal(checksum(body), sum) {
		return nil, fmt.Errorf("checksum mismatch")
	}
	return body, nil
}

func checksum(b []byte) []byte {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return second[:4]
}

func sha512Half(parts ...[]byte) []byte {
	h := sha512.New()
	for _, p := range parts {
		h.Write(p)
	}
	return h.Sum(nil)[:32]
}

// ============================================================================
// Addresses
// ============================================================================

// EncodeAddress renders a 20 byte account id as a classic address.
func EncodeAddress(accountID []byte) string {
	return encodeCheck(accountPrefix, accountID)
}

// DecodeAddress returns the 20 byte account id of a classic address.
func DecodeAddress(address string) ([]byte, error) {
	body, err := decodeCheck(strings.TrimSpace(address))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAddress, err)
	}
	if len(body) != 21 || body[0] != accountPrefix[0] {
		return nil, fmt.Errorf("%w: not an account address", domain.ErrInvalidAddress)
	}
	return body[1:], nil
}

func IsValidAddress(address string) bool {
	_, err := DecodeAddress(address)
	return err == nil
}

// ============================================================================
// Seeds
// ============================================================================

// GenerateSeed returns a new random family seed of the given key type.
func GenerateSeed(kt KeyType) (string, error) {
	entropy := make([]byte, entropySize)
	if _, err := io.ReadFull(rand.Reader, entropy); err != nil {
		return "", fmt.Errorf("failed to read entropy: %w", err)
	}
	return EncodeSeed(entropy, kt)
}

func EncodeSeed(entropy []byte, kt KeyType) (string, error) {
	if len(entropy) != entropySize {
		return "", fmt.Errorf("seed entropy must be %d bytes", entropySize)
	}
	switch kt {
	case KeyTypeEd25519:
		return encodeCheck(edSeedPrefix, entropy), nil
	case KeyTypeSecp256k1:
		return encodeCheck(secpSeedPrefix, entropy), nil
	default:
		return "", fmt.Errorf("unsupported key type %q", kt)
	}
}

// DecodeSeed returns the seed entropy and the key type its prefix selects.
func DecodeSeed(seed string) ([]byte, KeyType, error) {
	body, err := decodeCheck(seed)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", domain.ErrInvalidSeed, err)
	}

	switch {
	case len(body) == len(edSeedPrefix)+entropySize && bytes.HasPrefix(body, edSeedPrefix):
		return body[len(edSeedPrefix):], KeyTypeEd25519, nil
	case len(body) == len(secpSeedPrefix)+entropySize && body[0] == secpSeedPrefix[0]:
		return body[1:], KeyTypeSecp256k1, nil
	default:
		return nil, "", fmt.Errorf("%w: unknown seed prefix", domain.ErrInvalidSeed)
	}
}

// ============================================================================
// Keypairs
// ============================================================================

// Keypair is the signing identity of one account.
type Keypair struct {
	Type      KeyType
	PublicKey []byte

	secp *btcec.PrivateKey
	ed   ed25519.PrivateKey
}

// DeriveKeypair derives the account keypair (account index 0) of a family seed.
func DeriveKeypair(seed string) (*Keypair, error) {
	entropy, kt, err := DecodeSeed(seed)
	if err != nil {
		return nil, err
	}

	if kt == KeyTypeEd25519 {
		priv := ed25519.NewKeyFromSeed(sha512Half(entropy))
		pub := append([]byte{0xED}, priv.Public().(ed25519.PublicKey)...)
		return &Keypair{Type: kt, PublicKey: pub, ed: priv}, nil
	}

	root, err := deriveScalar(entropy)
	if err != nil {
		return nil, err
	}
	rootKey, _ := btcec.PrivKeyFromBytes(scalarBytes(root))
	rootPub := rootKey.PubKey().SerializeCompressed()

	tweak, err := deriveScalar(rootPub, uint32Bytes(0))
	if err != nil {
		return nil, err
	}

	var account btcec.ModNScalar
	account.Set(root).Add(tweak)
	if account.IsZero() {
		return nil, fmt.Errorf("%w: degenerate account key", domain.ErrInvalidSeed)
	}

	priv, pub := btcec.PrivKeyFromBytes(scalarBytes(&account))
	return &Keypair{Type: kt, PublicKey: pub.SerializeCompressed(), secp: priv}, nil
}

// deriveScalar returns the first SHA512-half of parts||counter that is a
// valid non-zero secp256k1 scalar.
func deriveScalar(parts ...[]byte) (*btcec.ModNScalar, error) {
	input := make([][]byte, len(parts)+1)
	copy(input, parts)
	for i := uint32(0); i < 1<<16; i++ {
		input[len(parts)] = uint32Bytes(i)
		digest := sha512Half(input...)

		var s btcec.ModNScalar
		if overflow := s.SetByteSlice(digest); !overflow && !s.IsZero() {
			return &s, nil
		}
	}
	return nil, fmt.Errorf("%w: no valid scalar", domain.ErrInvalidSeed)
}

func scalarBytes(s *btcec.ModNScalar) []byte {
	b := s.Bytes()
	return b[:]
}

func uint32Bytes(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func (k *Keypair) AccountID() []byte {
	return btcutil.Hash160(k.PublicKey)
}

func (k *Keypair) Address() string {
	return EncodeAddress(k.AccountID())
}

func (k *Keypair) PublicKeyHex() string {
	return strings.ToUpper(hex.EncodeToString(k.PublicKey))
}

// Sign signs a transaction signing payload. secp256k1 keys sign the
// SHA512-half of the payload (DER, low-S); Ed25519 keys sign it whole.
func (k *Keypair) Sign(payload []byte) ([]byte, error) {
	switch k.Type {
	case KeyTypeEd25519:
		return ed25519.Sign(k.ed, payload), nil
	case KeyTypeSecp256k1:
		return ecdsa.Sign(k.secp, sha512Half(payload)).Serialize(), nil
	default:
		return nil, fmt.Errorf("unsupported key type %q", k.Type)
	}
}

// Verify checks a signature produced by Sign.
func (k *Keypair) Verify(payload, sig []byte) bool {
	switch k.Type {
	case KeyTypeEd25519:
		return ed25519.Verify(ed25519.PublicKey(k.PublicKey[1:]), payload, sig)
	case KeyTypeSecp256k1:
		parsed, err := ecdsa.ParseDERSignature(sig)
		if err != nil {
			return false
		}
		return parsed.Verify(sha512Half(payload), k.secp.PubKey())
	default:
		return false
	}
}

// NewWallet generates a fresh seed and its keypair.
func NewWallet(kt KeyType) (*Keypair, string, error) {
	seed, err := GenerateSeed(kt)
	if err != nil {
		return nil, "", err
	}
	kp, err := DeriveKeypair(seed)
	if err != nil {
		return nil, "", err
	}
	return kp, seed, nil
}
