package idhash

import (
	"testing"

	"solana-revival-lab/internal/domain"
)

func TestComputeTradeID(t *testing.T) {
	tests := []struct {
		name       string
		positionID string
		exitType   domain.ExitType
		exitTime   int64
		sequence   int
		wantLen    int // hash length should be 64
	}{
		{
			name:       "take profit",
			positionID: "5f0c7f8e-3c1d-4bde-9a57-0b3f1c2d4e5f",
			exitType:   domain.ExitTakeProfit1,
			exitTime:   1704067234567,
			sequence:   1,
			wantLen:    64,
		},
		{
			name:       "failed exit",
			positionID: "a1b2c3d4-0000-4000-8000-000000000001",
			exitType:   domain.ExitFailed,
			exitTime:   1704067300000,
			sequence:   2,
			wantLen:    64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTradeID(tt.positionID, tt.exitType, tt.exitTime, tt.sequence)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeTradeID() length = %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestComputeTradeID_Deterministic(t *testing.T) {
	a := ComputeTradeID("pos-1", domain.ExitStopLoss, 1000, 1)
	b := ComputeTradeID("pos-1", domain.ExitStopLoss, 1000, 1)
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
}

func TestComputeTradeID_SequenceDistinguishes(t *testing.T) {
	a := ComputeTradeID("pos-1", domain.ExitTakeProfit1, 1000, 1)
	b := ComputeTradeID("pos-1", domain.ExitTakeProfit1, 1000, 2)
	if a == b {
		t.Error("different sequence should produce different ids")
	}
}

func TestComputeDecisionID(t *testing.T) {
	a := ComputeDecisionID("So11111111111111111111111111111111111111112", 1704067200000)
	b := ComputeDecisionID("So11111111111111111111111111111111111111112", 1704067200001)
	if len(a) != 64 {
		t.Errorf("length = %d, want 64", len(a))
	}
	if a == b {
		t.Error("different evaluation times should produce different ids")
	}
}

func TestIDsAreSHA256OfPipeJoinedFields(t *testing.T) {
	if got, want := ComputeDecisionID("abc", 5), "2e16def5a7ec2784b4fc575bc2d7ad8e3bcb90d14cfc38b809785947bdef21fc"; got != want {
		t.Errorf("decision id = %s, want %s", got, want)
	}
	if got, want := ComputeTradeID("pos-1", domain.ExitStopLoss, 1000, 1), "bf5286de4a53149f85e5a7a3f3831e5eead3e2a11349f0034719c0efd41a4cdd"; got != want {
		t.Errorf("trade id = %s, want %s", got, want)
	}
}
