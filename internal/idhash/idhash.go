// Package idhash derives deterministic record ids, so a replayed exit or
// re-evaluated token maps onto the row it already produced.
package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"solana-revival-lab/internal/domain"
)

// ComputeTradeID hashes position_id|exit_type|exit_time|sequence.
func ComputeTradeID(positionID string, exitType domain.ExitType, exitTime int64, sequence int) string {
	return sum(positionID, string(exitType), exitTime, sequence)
}

// ComputeDecisionID hashes address|evaluated_at.
func ComputeDecisionID(address string, evaluatedAt int64) string {
	return sum(address, evaluatedAt)
}

// sum returns the hex SHA-256 of the parts joined with '|'.
func sum(parts ...any) string {
	fields := make([]string, len(parts))
	for i, p := range parts {
		fields[i] = fmt.Sprint(p)
	}
	h := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(h[:])
}
