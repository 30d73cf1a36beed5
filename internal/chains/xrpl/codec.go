// internal/chains/xrpl/codec.go
package xrpl

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"xrpl-wallet-bot/internal/domain"
)

var (
	signingPrefix = []byte{0x53, 0x54, 0x58, 0x00} // STX\0
	txHashPrefix  = []byte{0x54, 0x58, 0x4E, 0x00} // TXN\0
)

const (
	txTypePayment uint16 = 0

	// maxDrops is the total XRP supply in drops.
	maxDrops = domain.Drops(100_000_000_000 * 1_000_000)
)

// Field headers (type code << 4 | field code), already in canonical order.
var (
	hdrTransactionType    = []byte{0x12}
	hdrFlags              = []byte{0x22}
	hdrSequence           = []byte{0x24}
	hdrLastLedgerSequence = []byte{0x20, 0x1B}
	hdrAmount             = []byte{0x61}
	hdrFee                = []byte{0x68}
	hdrSigningPubKey      = []byte{0x73}
	hdrTxnSignature       = []byte{0x74}
	hdrAccount            = []byte{0x81}
	hdrDestination        = []byte{0x83}
)

// Payment is an XRP-to-XRP payment ready for signing.
type Payment struct {
	Account            []byte
	Destination        []byte
	Amount             domain.Drops
	Fee                domain.Drops
	Sequence           uint32
	LastLedgerSequence uint32
	Flags              uint32
	SigningPubKey      []byte
	TxnSignature       []byte
}

func (p *Payment) validate() error {
	if len(p.Account) != 20 || len(p.Destination) != 20 {
		return domain.ErrInvalidAddress
	}
	if p.Amount <= 0 || p.Amount > maxDrops {
		return domain.ErrInvalidAmount
	}
	if p.Fee < 0 || p.Fee > maxDrops {
		return fmt.Errorf("fee out of range: %d", p.Fee)
	}
	return nil
}

// serialize writes the canonical binary form. The signature is omitted
// when signing is false.
func (p *Payment) serialize(signing bool) ([]byte, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	buf.Write(hdrTransactionType)
	writeUint16(&buf, txTypePayment)

	buf.Write(hdrFlags)
	writeUint32(&buf, p.Flags)

	buf.Write(hdrSequence)
	writeUint32(&buf, p.Sequence)

	if p.LastLedgerSequence > 0 {
		buf.Write(hdrLastLedgerSequence)
		writeUint32(&buf, p.LastLedgerSequence)
	}

	buf.Write(hdrAmount)
	writeNativeAmount(&buf, p.Amount)

	buf.Write(hdrFee)
	writeNativeAmount(&buf, p.Fee)

	buf.Write(hdrSigningPubKey)
	if err := writeVL(&buf, p.SigningPubKey); err != nil {
		return nil, err
	}

	if !signing && len(p.TxnSignature) > 0 {
		buf.Write(hdrTxnSignature)
		if err := writeVL(&buf, p.TxnSignature); err != nil {
			return nil, err
		}
	}

	buf.Write(hdrAccount)
	if err := writeVL(&buf, p.Account); err != nil {
		return nil, err
	}

	buf.Write(hdrDestination)
	if err := writeVL(&buf, p.Destination); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// SigningPayload is the prefixed byte string the signature covers.
func (p *Payment) SigningPayload() ([]byte, error) {
	body, err := p.serialize(true)
	if err != nil {
		return nil, err
	}
	return append(append([]byte{}, signingPrefix...), body...), nil
}

// Sign fills SigningPubKey and TxnSignature from kp.
func (p *Payment) Sign(kp *Keypair) error {
	p.SigningPubKey = kp.PublicKey
	p.TxnSignature = nil

	payload, err := p.SigningPayload()
	if err != nil {
		return err
	}

	sig, err := kp.Sign(payload)
	if err != nil {
		return fmt.Errorf("failed to sign payment: %w", err)
	}
	p.TxnSignature = sig
	return nil
}

// Blob returns the signed transaction as uppercase hex, as submit expects.
func (p *Payment) Blob() (string, error) {
	if len(p.TxnSignature) == 0 {
		return "", fmt.Errorf("payment is not signed")
	}
	body, err := p.serialize(false)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(body)), nil
}

// Hash is the transaction id of the signed payment.
func (p *Payment) Hash() (string, error) {
	body, err := p.serialize(false)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(sha512Half(txHashPrefix, body))), nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

// writeNativeAmount encodes XRP: not-IOU bit clear, positive bit set.
func writeNativeAmount(buf *bytes.Buffer, d domain.Drops) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(d)|0x4000000000000000)
	buf.Write(b[:])
}

func writeVL(buf *bytes.Buffer, data []byte) error {
	n := len(data)
	switch {
	case n <= 192:
		buf.WriteByte(byte(n))
	case n <= 12480:
		n -= 193
		buf.WriteByte(byte(193 + n>>8))
		buf.WriteByte(byte(n & 0xFF))
	case n <= 918744:
		n -= 12481
		buf.WriteByte(byte(241 + n>>16))
		buf.WriteByte(byte((n >> 8) & 0xFF))
		buf.WriteByte(byte(n & 0xFF))
	default:
		return fmt.Errorf("variable length field too long: %d", n)
	}
	buf.Write(data)
	return nil
}
