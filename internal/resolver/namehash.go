package resolver

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Namehash computes the recursive hash of a dot-separated name per the
// registry's node derivation. The empty name hashes to the zero node.
func Namehash(name string) common.Hash {
	node := common.Hash{}
	if name == "" {
		return node
	}

	labels := strings.Split(name, ".")
	for i := len(labels) - 1; i >= 0; i-- {
		labelHash := crypto.Keccak256([]byte(labels[i]))
		node = crypto.Keccak256Hash(node.Bytes(), labelHash)
	}

	return node
}

// LabelHash computes the hash of a single label
func LabelHash(label string) common.Hash {
	return crypto.Keccak256Hash([]byte(label))
}

// HashToTokenID renders a 32-byte hash as the decimal uint256 token identifier
func HashToTokenID(h common.Hash) string {
	return new(big.Int).SetBytes(h.Bytes()).String()
}

// TokenIDToHash parses a decimal uint256 token identifier back into a 32-byte hash
func TokenIDToHash(tokenID string) (common.Hash, error) {
	n, ok := new(big.Int).SetString(tokenID, 10)
	if !ok {
		return common.Hash{}, fmt.Errorf("invalid token id %q", tokenID)
	}
	if n.Sign() < 0 || n.BitLen() > 256 {
		return common.Hash{}, fmt.Errorf("token id %q out of range", tokenID)
	}

	return common.BigToHash(n), nil
}
