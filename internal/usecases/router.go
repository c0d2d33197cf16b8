package usecases

import (
	"fmt"

	"github.com/gitbrief/gitbrief/internal/domain"
)

// Decide classifies a payload by size and selects a delivery channel.
// Pure, total, deterministic: estimatedTokens < threshold selects the
// clipboard, anything else the file sink. The delivery itself is performed
// by the caller.
func Decide(estimatedTokens, threshold int) domain.DeliveryDecision {
	if estimatedTokens < threshold {
		return domain.DeliveryDecision{
			Channel: domain.ChannelClipboard,
			Reason:  fmt.Sprintf("estimated %d tokens below threshold %d", estimatedTokens, threshold),
		}
	}
	return domain.DeliveryDecision{
		Channel: domain.ChannelFile,
		Reason:  fmt.Sprintf("estimated %d tokens at or above threshold %d", estimatedTokens, threshold),
	}
}
