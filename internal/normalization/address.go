package normalization

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKeyLength is the byte length of a Solana account address.
const PublicKeyLength = 32

// ValidateAddress checks that address is a base58 encoded 32-byte public key.
func ValidateAddress(address string) error {
	if address == "" {
		return fmt.Errorf("empty address")
	}
	raw, err := base58.Decode(address)
	if err != nil {
		return fmt.Errorf("decode address %q: %w", address, err)
	}
	if len(raw) != PublicKeyLength {
		return fmt.Errorf("address %q: decoded %d bytes, want %d", address, len(raw), PublicKeyLength)
	}
	return nil
}
