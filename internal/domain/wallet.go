// internal/domain/wallet.go
package domain

import "time"

// WalletRecord binds a messaging identity to its custodial XRPL account.
// Records are created once and never updated by the bot.
type WalletRecord struct {
	ID            int64
	TelegramID    int64
	Address       string
	EncryptedSeed string
	CreatedAt     time.Time
}

// ProvisionedAccount is a freshly generated, faucet-funded testnet account.
// Seed is plaintext and must be encrypted before it leaves the usecase layer.
type ProvisionedAccount struct {
	Address   string
	PublicKey string
	Seed      string
	Balance   Drops
}
