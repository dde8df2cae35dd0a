package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		answer string
		want   Verdict
	}{
		{"Normal", VerdictNormal},
		{"normal", VerdictNormal},
		{"  NORMAL \n", VerdictNormal},
		{"Abnormal", VerdictAbnormal},
		{"abnormal\n", VerdictAbnormal},
		{"Abnormal, due to irregular pattern", VerdictUnknown},
		{"The graph looks normal", VerdictUnknown},
		{"", VerdictUnknown},
		{"   ", VerdictUnknown},
		{"error", VerdictUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVerdict(tt.answer))
		})
	}
}
